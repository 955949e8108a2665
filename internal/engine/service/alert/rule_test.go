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
	"testing"
	"time"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func secs(v int) *int { return &v }

type env struct {
	store   *repotest.Store
	project *model.Project
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repotest.New()
	store.Now = func() time.Time { return testNow }
	return &env{store: store, project: store.AddProject("api")}
}

func (e *env) add(status model.ExecutionStatus, branch string, ago time.Duration, dur *int) *model.Execution {
	return e.store.AddExecution(&model.Execution{
		ProjectID:       e.project.ID,
		ExecutionID:     testNow.Add(-ago).Format(time.RFC3339Nano) + branch,
		Status:          status,
		Branch:          branch,
		CreatedAt:       testNow.Add(-ago),
		DurationSeconds: dur,
	})
}

func (e *env) ctx(exec *model.Execution) EvalContext {
	return EvalContext{Project: e.project, Execution: exec, Store: e.store.Executions(), Now: testNow}
}

func cfg(t model.AlertType, threshold float64, data string) *model.AlertConfig {
	c := &model.AlertConfig{AlertType: t, ThresholdValue: threshold, NotificationChannels: []string{"slack"}, IsEnabled: true}
	if data != "" {
		c.ConfigData = datatypes.JSON(data)
	}
	return c
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *model.AlertConfig
		want    Rule
		invalid bool
	}{
		{"failure rate defaults", cfg(model.AlertFailureRate, 20, ""),
			&FailureRate{Threshold: 20, Window: time.Hour, MinExecutions: 5}, false},
		{"failure rate window", cfg(model.AlertFailureRate, 20, `{"time_window":"24h","min_executions":3}`),
			&FailureRate{Threshold: 20, Window: 24 * time.Hour, MinExecutions: 3}, false},
		{"unknown window falls back", cfg(model.AlertFailureRate, 20, `{"time_window":"2w"}`),
			&FailureRate{Threshold: 20, Window: time.Hour, MinExecutions: 5}, false},
		{"build duration default mode", cfg(model.AlertBuildDuration, 10, `{"comparison":"weird"}`),
			&BuildDuration{Threshold: 10, Comparison: CompareGreaterThan, Baseline: 7 * 24 * time.Hour}, false},
		{"build duration increase", cfg(model.AlertBuildDuration, 40, `{"comparison":"percentage_increase","baseline":"30d"}`),
			&BuildDuration{Threshold: 40, Comparison: ComparePercentageIncrease, Baseline: 30 * 24 * time.Hour}, false},
		{"consecutive default branches", cfg(model.AlertConsecutiveFailures, 3, ""),
			&ConsecutiveFailures{Threshold: 3, Branches: []string{"main", "master", "develop"}}, false},
		{"consecutive custom branches", cfg(model.AlertConsecutiveFailures, 2, `{"branches":["release"]}`),
			&ConsecutiveFailures{Threshold: 2, Branches: []string{"release"}}, false},
		{"queue time", cfg(model.AlertQueueTime, 30, ""), &QueueTime{ThresholdMinutes: 30}, false},
		{"consecutive zero threshold", cfg(model.AlertConsecutiveFailures, 0, ""), nil, true},
		{"negative threshold", cfg(model.AlertQueueTime, -1, ""), nil, true},
		{"bad config data", cfg(model.AlertFailureRate, 20, `{"min_executions":"five"}`), nil, true},
		{"unknown type", cfg("latency", 1, ""), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRule(tt.cfg)
			if tt.invalid {
				assert.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFailureRate(t *testing.T) {
	e := newEnv(t)
	rule := &FailureRate{Threshold: 20, Window: time.Hour, MinExecutions: 5}
	ctx := context.Background()

	// 1 of 4 failed but below min executions
	e.add(model.StatusFailure, "main", 10*time.Minute, nil)
	for i := 0; i < 3; i++ {
		e.add(model.StatusSuccess, "main", time.Duration(20+i)*time.Minute, nil)
	}
	d, err := rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.False(t, d.Triggered)

	// 1 of 5 = 20% reaches the threshold
	e.add(model.StatusSuccess, "main", 30*time.Minute, nil)
	// outside the window
	e.add(model.StatusFailure, "main", 2*time.Hour, nil)
	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.True(t, d.Triggered)
	assert.Equal(t, 20.0, d.Detail["failure_rate"])
	assert.Equal(t, 5, d.Detail["total_executions"])

	// 1 of 6 is below 20%
	e.add(model.StatusSuccess, "main", 40*time.Minute, nil)
	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.False(t, d.Triggered)
}

func TestBuildDuration_GreaterThan(t *testing.T) {
	e := newEnv(t)
	rule := &BuildDuration{Threshold: 10, Comparison: CompareGreaterThan}
	ctx := context.Background()

	d, err := rule.Evaluate(ctx, e.ctx(e.add(model.StatusSuccess, "main", 0, secs(600))))
	require.NoError(t, err)
	assert.False(t, d.Triggered, "10.0 minutes is not greater than 10")

	d, err = rule.Evaluate(ctx, e.ctx(e.add(model.StatusSuccess, "main", 0, secs(606))))
	require.NoError(t, err)
	assert.True(t, d.Triggered)

	d, err = rule.Evaluate(ctx, e.ctx(e.add(model.StatusRunning, "main", 0, nil)))
	require.NoError(t, err)
	assert.False(t, d.Triggered)

	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.False(t, d.Triggered)
}

func TestBuildDuration_PercentageIncrease(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(model.StatusSuccess, "main", 24*time.Hour, secs(240))
	e.add(model.StatusSuccess, "main", 48*time.Hour, secs(360))
	// failures and old rows are not part of the baseline
	e.add(model.StatusFailure, "main", 24*time.Hour, secs(3000))
	e.add(model.StatusSuccess, "main", 10*24*time.Hour, secs(3000))
	current := e.add(model.StatusSuccess, "main", 0, secs(450))

	tests := []struct {
		threshold float64
		want      bool
	}{
		{40, true},
		{50, true},
		{60, false},
	}
	for _, tt := range tests {
		rule := &BuildDuration{Threshold: tt.threshold, Comparison: ComparePercentageIncrease, Baseline: 7 * 24 * time.Hour}
		d, err := rule.Evaluate(ctx, e.ctx(current))
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.Triggered, "threshold %v", tt.threshold)
		if d.Triggered {
			assert.Equal(t, 5.0, d.Detail["baseline_minutes"])
			assert.Equal(t, 50.0, d.Detail["increase_percentage"])
		}
	}
}

func TestBuildDuration_NoBaseline(t *testing.T) {
	e := newEnv(t)
	current := e.add(model.StatusSuccess, "main", 0, secs(450))
	rule := &BuildDuration{Threshold: 0, Comparison: ComparePercentageIncrease, Baseline: 7 * 24 * time.Hour}
	d, err := rule.Evaluate(context.Background(), e.ctx(current))
	require.NoError(t, err)
	assert.False(t, d.Triggered, "the current execution is excluded from its own baseline")
}

func TestConsecutiveFailures(t *testing.T) {
	e := newEnv(t)
	rule := &ConsecutiveFailures{Threshold: 3, Branches: []string{"main", "develop"}}
	ctx := context.Background()

	e.add(model.StatusFailure, "main", 3*time.Minute, nil)
	e.add(model.StatusFailure, "main", 2*time.Minute, nil)
	d, err := rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.False(t, d.Triggered, "only two terminal rows")

	// running rows are not terminal and do not break the streak
	e.add(model.StatusRunning, "main", 90*time.Second, nil)
	e.add(model.StatusFailure, "main", time.Minute, nil)
	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.True(t, d.Triggered)
	assert.Equal(t, "main", d.Detail["branch"])

	e.add(model.StatusSuccess, "main", 30*time.Second, nil)
	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.False(t, d.Triggered)

	for i := 0; i < 3; i++ {
		e.add(model.StatusFailure, "develop", time.Duration(i)*time.Second, nil)
	}
	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.True(t, d.Triggered)
	assert.Equal(t, "develop", d.Detail["branch"])
}

func TestQueueTime(t *testing.T) {
	e := newEnv(t)
	rule := &QueueTime{ThresholdMinutes: 30}
	ctx := context.Background()

	e.add(model.StatusPending, "main", 10*time.Minute, nil)
	e.add(model.StatusRunning, "main", 2*time.Hour, nil)
	d, err := rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.False(t, d.Triggered)

	e.add(model.StatusPending, "main", 31*time.Minute, nil)
	d, err = rule.Evaluate(ctx, e.ctx(nil))
	require.NoError(t, err)
	assert.True(t, d.Triggered)
	assert.Equal(t, int64(1), d.Detail["stale_pending"])
}

func TestValidateConfig(t *testing.T) {
	ok := cfg(model.AlertFailureRate, 20, "")
	assert.NoError(t, ValidateConfig(ok))

	noChannels := cfg(model.AlertFailureRate, 20, "")
	noChannels.NotificationChannels = nil
	assert.ErrorIs(t, ValidateConfig(noChannels), errs.ErrValidation)

	badChannel := cfg(model.AlertFailureRate, 20, "")
	badChannel.NotificationChannels = []string{"slack", "sms"}
	assert.ErrorIs(t, ValidateConfig(badChannel), errs.ErrValidation)

	assert.ErrorIs(t, ValidateConfig(cfg(model.AlertTest, 1, "")), errs.ErrValidation)
}
