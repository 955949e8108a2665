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

package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo/repotest"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	pkgnotify "github.com/go-arcade/pulse/internal/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name     string
	err      error
	invalid  error
	block    bool
	mu       sync.Mutex
	received []*model.Alert
}

func (f *fakeChannel) Name() string    { return f.name }
func (f *fakeChannel) Validate() error { return f.invalid }

func (f *fakeChannel) Send(ctx context.Context, alert *model.Alert) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	f.received = append(f.received, alert)
	f.mu.Unlock()
	return f.err
}

func newDispatcher(t *testing.T, channels ...*fakeChannel) (*Dispatcher, *repotest.Store, *broadcast.Recorder) {
	t.Helper()
	reg := pkgnotify.NewRegistry()
	for _, ch := range channels {
		require.NoError(t, reg.Register(ch))
	}
	store := repotest.New()
	rec := &broadcast.Recorder{}
	return NewDispatcher(reg, store.AlertHistory(), rec, config.NotifyConfig{}), store, rec
}

func alertFor(channels ...string) *model.Alert {
	execID := uint64(42)
	return &model.Alert{
		AlertID:     "01HXYZ",
		ProjectID:   7,
		ProjectName: "api",
		AlertType:   model.AlertBuildDuration,
		Severity:    model.SeverityMedium,
		Message:     "Build duration alert for api: 7.5 minutes",
		Channels:    channels,
		ExecutionID: &execID,
		Timestamp:   time.Now(),
	}
}

func TestDispatch_PartialFailure(t *testing.T) {
	slack := &fakeChannel{name: "slack", err: errors.New("connection refused")}
	email := &fakeChannel{name: "email"}
	d, store, rec := newDispatcher(t, slack, email)

	res := d.Dispatch(context.Background(), alertFor("slack", "email"))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"email"}, res.ChannelsSent)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "slack", res.Errors[0].Channel)
	assert.Contains(t, res.Errors[0].Error, "connection refused")
	assert.Len(t, email.received, 1)

	rows := store.History()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"slack", "email"}, []string(rows[0].ChannelsSent))
	assert.Equal(t, uint64(42), *rows[0].ExecutionID)
	assert.Equal(t, model.AlertBuildDuration, rows[0].AlertType)
	assert.Equal(t, 1, rec.Count(broadcast.EventAlertTriggered))
}

func TestDispatch_AllFailStillRecords(t *testing.T) {
	slack := &fakeChannel{name: "slack", invalid: errors.New("slack webhook URL not configured")}
	d, store, _ := newDispatcher(t, slack)

	res := d.Dispatch(context.Background(), alertFor("slack", "pager"))
	assert.False(t, res.Success)
	assert.Empty(t, res.ChannelsSent)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error, "not configured")
	assert.Len(t, store.History(), 1)
}

func TestDispatch_Timeout(t *testing.T) {
	slow := &fakeChannel{name: "slack", block: true}
	email := &fakeChannel{name: "email"}
	d, _, _ := newDispatcher(t, slow, email)
	d.timeout = 20 * time.Millisecond

	start := time.Now()
	res := d.Dispatch(context.Background(), alertFor("slack", "email"))
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"email"}, res.ChannelsSent)
	require.Len(t, res.Errors, 1)
}

func TestDispatch_HistoryFailureIsSwallowed(t *testing.T) {
	email := &fakeChannel{name: "email"}
	d, store, _ := newDispatcher(t, email)
	store.HistoryErr = errors.New("db down")

	res := d.Dispatch(context.Background(), alertFor("email"))
	assert.True(t, res.Success)
	assert.Empty(t, store.History())
}

func TestSendError_Kind(t *testing.T) {
	d, _, _ := newDispatcher(t)
	err := d.send(context.Background(), "slack", func(context.Context) error { return errors.New("boom") })
	assert.ErrorIs(t, err, errs.ErrTransientDelivery)
}

func TestSendTest(t *testing.T) {
	slack := &fakeChannel{name: "slack"}
	d, store, _ := newDispatcher(t, slack)

	alert, res := d.SendTest(context.Background(), &model.Project{BaseModel: model.BaseModel{ID: 3}, Name: "web"}, nil)
	assert.True(t, res.Success)
	assert.Equal(t, model.AlertTest, alert.AlertType)
	assert.Equal(t, model.SeverityInfo, alert.Severity)
	assert.Equal(t, "Test alert for project web", alert.Message)
	assert.Equal(t, []string{"slack"}, alert.Channels)
	assert.NotEmpty(t, alert.AlertID)

	rows := store.History()
	require.Len(t, rows, 1)
	assert.Equal(t, model.AlertTest, rows[0].AlertType)
	assert.Nil(t, rows[0].ExecutionID)
}
