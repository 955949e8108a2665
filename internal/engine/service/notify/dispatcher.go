// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify fans a fired alert out to its channels and records it.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	pkgnotify "github.com/go-arcade/pulse/internal/pkg/notify"
	"github.com/go-arcade/pulse/pkg/id"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
)

type SendError struct {
	Channel string `json:"channel"`
	Error   string `json:"error"`
}

// Result of one dispatch. Success is true when at least one channel sent.
type Result struct {
	Success      bool        `json:"success"`
	ChannelsSent []string    `json:"channels_sent"`
	Errors       []SendError `json:"errors"`
}

type Dispatcher struct {
	registry    *pkgnotify.Registry
	history     repo.IAlertHistoryRepository
	broadcaster broadcast.Broadcaster
	timeout     time.Duration
	now         func() time.Time
}

func NewDispatcher(registry *pkgnotify.Registry, history repo.IAlertHistoryRepository, b broadcast.Broadcaster, conf config.NotifyConfig) *Dispatcher {
	conf.SetDefaults()
	if b == nil {
		b = broadcast.Nop{}
	}
	return &Dispatcher{
		registry:    registry,
		history:     history,
		broadcaster: b,
		timeout:     conf.SendTimeoutDuration(),
		now:         time.Now,
	}
}

// Dispatch sends alert to each of its channels in order. A failing channel
// never prevents its siblings from sending.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *model.Alert) *Result {
	res := &Result{ChannelsSent: []string{}, Errors: []SendError{}}

	for _, name := range alert.Channels {
		ch, ok := d.registry.Get(name)
		if !ok {
			log.Warnw("unknown alert channel", "channel", name, "alertId", alert.AlertID)
			continue
		}
		if err := d.send(ctx, ch.Name(), func(sctx context.Context) error {
			if err := ch.Validate(); err != nil {
				return err
			}
			return ch.Send(sctx, alert)
		}); err != nil {
			log.Errorw("failed to send alert", "channel", name, "alertId", alert.AlertID, "error", err)
			res.Errors = append(res.Errors, SendError{Channel: name, Error: err.Error()})
			continue
		}
		res.ChannelsSent = append(res.ChannelsSent, name)
	}
	res.Success = len(res.ChannelsSent) > 0
	pkgmetrics.RecordDispatch(res.Success)

	d.record(ctx, alert)
	d.broadcaster.AlertTriggered(alert)
	return res
}

func (d *Dispatcher) send(ctx context.Context, channel string, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := fn(sctx)
	if err == nil && sctx.Err() != nil {
		err = sctx.Err()
	}
	pkgmetrics.RecordNotificationSend(channel, time.Since(start), err)
	if err != nil {
		return errs.Delivery(err, channel)
	}
	return nil
}

// record writes the single history row of a dispatch. The row lists the
// configured channels, not only the ones that succeeded.
func (d *Dispatcher) record(ctx context.Context, alert *model.Alert) {
	h := &model.AlertHistory{
		ProjectID:    alert.ProjectID,
		ExecutionID:  alert.ExecutionID,
		AlertType:    alert.AlertType,
		Message:      alert.Message,
		ChannelsSent: append([]string{}, alert.Channels...),
		SentAt:       d.now(),
	}
	if err := d.history.Create(context.WithoutCancel(ctx), h); err != nil {
		log.Errorw("failed to write alert history", "projectId", alert.ProjectID, "alertType", alert.AlertType, "error", err)
	}
}

// DefaultTestChannels is used when a test send names no channel.
var DefaultTestChannels = []string{model.ChannelSlack}

// NewTestAlert builds the info-level alert sent by SendTest.
func NewTestAlert(project *model.Project, channels []string, now time.Time) *model.Alert {
	if len(channels) == 0 {
		channels = DefaultTestChannels
	}
	return &model.Alert{
		AlertID:     id.GetUlid(),
		ProjectID:   project.ID,
		ProjectName: project.Name,
		AlertType:   model.AlertTest,
		Severity:    model.AlertTest.Severity(),
		Message:     fmt.Sprintf("Test alert for project %s", project.Name),
		Channels:    append([]string{}, channels...),
		Timestamp:   now.UTC(),
	}
}

// SendTest bypasses rule evaluation and cooldown.
func (d *Dispatcher) SendTest(ctx context.Context, project *model.Project, channels []string) (*model.Alert, *Result) {
	alert := NewTestAlert(project, channels, d.now())
	return alert, d.Dispatch(ctx, alert)
}
