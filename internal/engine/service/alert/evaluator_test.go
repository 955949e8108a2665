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

package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	alerts []*model.Alert
}

func (f *fakeDispatcher) Dispatch(_ context.Context, alert *model.Alert) *notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return &notify.Result{Success: true, ChannelsSent: alert.Channels}
}

func (f *fakeDispatcher) SendTest(ctx context.Context, project *model.Project, channels []string) (*model.Alert, *notify.Result) {
	alert := notify.NewTestAlert(project, channels, testNow)
	return alert, f.Dispatch(ctx, alert)
}

func (f *fakeDispatcher) sent() []*model.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Alert{}, f.alerts...)
}

type evalEnv struct {
	*env
	dispatcher *fakeDispatcher
	cooldown   *MemoryCooldown
	ev         *Evaluator
}

func newEvalEnv(t *testing.T) *evalEnv {
	t.Helper()
	e := newEnv(t)
	d := &fakeDispatcher{}
	cd := NewMemoryCooldown()
	cd.now = func() time.Time { return testNow }
	ev := NewEvaluator(e.store.Repositories(), cd, d, config.AlertConfig{})
	ev.now = func() time.Time { return testNow }
	return &evalEnv{env: e, dispatcher: d, cooldown: cd, ev: ev}
}

func (e *evalEnv) config(t model.AlertType, threshold float64, data string) *model.AlertConfig {
	c := &model.AlertConfig{
		ProjectID:            e.project.ID,
		AlertType:            t,
		ThresholdValue:       threshold,
		NotificationChannels: datatypes.JSONSlice[string]{"slack", "email"},
		IsEnabled:            true,
	}
	if data != "" {
		c.ConfigData = datatypes.JSON(data)
	}
	return e.store.AddAlertConfig(c)
}

func TestOnExecutionCompleted_TriggersOnceWithinCooldown(t *testing.T) {
	e := newEvalEnv(t)
	ctx := context.Background()
	e.config(model.AlertBuildDuration, 5, "")

	slow := e.add(model.StatusSuccess, "main", 0, secs(450))
	require.NoError(t, e.ev.OnExecutionCompleted(ctx, slow))
	require.NoError(t, e.ev.OnExecutionCompleted(ctx, e.add(model.StatusSuccess, "main", 0, secs(480))))

	sent := e.dispatcher.sent()
	require.Len(t, sent, 1)
	a := sent[0]
	assert.Equal(t, model.AlertBuildDuration, a.AlertType)
	assert.Equal(t, model.SeverityMedium, a.Severity)
	assert.Equal(t, "Build duration alert for api: 7.5 minutes", a.Message)
	assert.Equal(t, []string{"slack", "email"}, a.Channels)
	assert.Equal(t, 5.0, a.ThresholdValue)
	require.NotNil(t, a.ExecutionID)
	assert.Equal(t, slow.ID, *a.ExecutionID)
	assert.Len(t, a.AlertID, 26)

	active, _ := e.cooldown.Active(ctx, CooldownKey(e.project.ID, model.AlertBuildDuration))
	assert.True(t, active)
}

func TestOnExecutionCompleted_SkipsDisabledAndBadConfigs(t *testing.T) {
	e := newEvalEnv(t)
	ctx := context.Background()
	disabled := e.config(model.AlertBuildDuration, 1, "")
	require.NoError(t, e.store.AlertConfigs().Update(ctx, disabled.ID, map[string]any{"is_enabled": false}))
	e.config(model.AlertFailureRate, 20, `{"min_executions":"x"}`)
	e.config(model.AlertConsecutiveFailures, 1, "")

	exec := e.add(model.StatusFailure, "main", 0, secs(600))
	require.NoError(t, e.ev.OnExecutionCompleted(ctx, exec))

	sent := e.dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, model.AlertConsecutiveFailures, sent[0].AlertType)
	assert.Equal(t, model.SeverityCritical, sent[0].Severity)
	assert.Equal(t, "main", sent[0].Detail["branch"])
}

func TestOnExecutionCompleted_StoreErrorIsContained(t *testing.T) {
	e := newEvalEnv(t)
	e.config(model.AlertQueueTime, 1, "")
	e.store.ExecErr = errors.New("timeout")

	assert.NoError(t, e.ev.OnExecutionCompleted(context.Background(), &model.Execution{ProjectID: e.project.ID}))
	assert.Empty(t, e.dispatcher.sent())

	err := e.ev.OnExecutionCompleted(context.Background(), &model.Execution{ProjectID: 999})
	assert.True(t, errs.IsNotFound(err))
}

func TestEvaluateAll_OnlySweepTypes(t *testing.T) {
	e := newEvalEnv(t)
	ctx := context.Background()
	e.config(model.AlertQueueTime, 30, "")
	e.config(model.AlertBuildDuration, 0, "")
	e.add(model.StatusPending, "main", time.Hour, secs(600))

	other := e.store.AddProject("web")
	e.store.AddAlertConfig(&model.AlertConfig{ProjectID: other.ID, AlertType: model.AlertFailureRate,
		ThresholdValue: 50, NotificationChannels: []string{"slack"}, IsEnabled: true})

	require.NoError(t, e.ev.EvaluateAll(ctx))
	sent := e.dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, model.AlertQueueTime, sent[0].AlertType)
	assert.Equal(t, "Builds queued too long in api", sent[0].Message)
	assert.Nil(t, sent[0].ExecutionID)

	// second sweep is suppressed by the cooldown
	require.NoError(t, e.ev.EvaluateAll(ctx))
	assert.Len(t, e.dispatcher.sent(), 1)
}

func TestSubmitAndWait(t *testing.T) {
	e := newEvalEnv(t)
	e.config(model.AlertBuildDuration, 1, "")
	e.ev.Submit(e.add(model.StatusSuccess, "main", 0, secs(600)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.ev.Wait(ctx))
	assert.Len(t, e.dispatcher.sent(), 1)
}

func TestTestAlert(t *testing.T) {
	e := newEvalEnv(t)
	ctx := context.Background()

	alert, res, err := e.ev.TestAlert(ctx, e.project.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Test alert for project api", alert.Message)
	assert.Equal(t, []string{"slack"}, alert.Channels)

	_, _, err = e.ev.TestAlert(ctx, 999, nil)
	assert.True(t, errs.IsNotFound(err))

	alert, res, err = e.ev.TestAlert(ctx, e.project.ID, []string{"sms", "slack"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sms", "slack"}, alert.Channels)
	assert.True(t, res.Success)
}

// deadlineRecorder reports whether store calls carry a deadline.
type deadlineRecorder struct {
	repo.IExecutionRepository
	mu       sync.Mutex
	calls    int
	deadline bool
}

func (r *deadlineRecorder) CountStaleQueued(ctx context.Context, projectID uint64, createdBefore time.Time) (int64, error) {
	r.mu.Lock()
	r.calls++
	_, r.deadline = ctx.Deadline()
	r.mu.Unlock()
	return r.IExecutionRepository.CountStaleQueued(ctx, projectID, createdBefore)
}

func TestEvaluateAll_BoundsEachEvaluation(t *testing.T) {
	e := newEvalEnv(t)
	e.config(model.AlertQueueTime, 30, "")
	rec := &deadlineRecorder{IExecutionRepository: e.ev.executions}
	e.ev.executions = rec

	require.NoError(t, e.ev.EvaluateAll(context.Background()))
	assert.Equal(t, 1, rec.calls)
	assert.True(t, rec.deadline)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "High failure rate detected in api", Message(model.AlertFailureRate, "api", nil))
	assert.Equal(t, "Consecutive failures detected in api", Message(model.AlertConsecutiveFailures, "api", nil))
	assert.Equal(t, "Build duration alert for api: 0.0 minutes", Message(model.AlertBuildDuration, "api", nil))
}
