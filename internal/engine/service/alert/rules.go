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
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
)

// FailureRate fires when failed/total over the window reaches Threshold percent.
type FailureRate struct {
	Threshold     float64
	Window        time.Duration
	MinExecutions int
}

func (r *FailureRate) Type() model.AlertType { return model.AlertFailureRate }

func (r *FailureRate) Evaluate(ctx context.Context, ec EvalContext) (Decision, error) {
	rows, err := ec.Store.ListSince(ctx, ec.Project.ID, ec.Now.Add(-r.Window))
	if err != nil {
		return Decision{}, err
	}
	total := len(rows)
	if total < r.MinExecutions || total == 0 {
		return notTriggered(), nil
	}
	failed := 0
	for _, e := range rows {
		if e.Status == model.StatusFailure {
			failed++
		}
	}
	rate := float64(failed) / float64(total) * 100
	if rate < r.Threshold {
		return notTriggered(), nil
	}
	return triggered(map[string]any{
		"failure_rate":      model.Round1(rate),
		"failed_executions": failed,
		"total_executions":  total,
		"time_window":       r.Window.String(),
	}), nil
}

// BuildDuration fires on the duration of the evaluated execution.
type BuildDuration struct {
	Threshold  float64
	Comparison string
	Baseline   time.Duration
}

func (r *BuildDuration) Type() model.AlertType { return model.AlertBuildDuration }

func (r *BuildDuration) Evaluate(ctx context.Context, ec EvalContext) (Decision, error) {
	e := ec.Execution
	if e == nil || e.DurationSeconds == nil {
		return notTriggered(), nil
	}
	minutes := float64(*e.DurationSeconds) / 60

	if r.Comparison != ComparePercentageIncrease {
		if minutes <= r.Threshold {
			return notTriggered(), nil
		}
		return triggered(map[string]any{
			"duration_minutes": model.Round1(minutes),
			"comparison":       CompareGreaterThan,
		}), nil
	}

	avgSeconds, ok, err := ec.Store.SuccessfulDurationAverage(ctx, ec.Project.ID, ec.Now.Add(-r.Baseline), e.ID)
	if err != nil {
		return Decision{}, err
	}
	baseline := avgSeconds / 60
	if !ok || baseline <= 0 {
		return notTriggered(), nil
	}
	increase := (minutes - baseline) / baseline * 100
	if increase < r.Threshold {
		return notTriggered(), nil
	}
	return triggered(map[string]any{
		"duration_minutes":    model.Round1(minutes),
		"baseline_minutes":    model.Round1(baseline),
		"increase_percentage": model.Round1(increase),
		"comparison":          ComparePercentageIncrease,
	}), nil
}

// ConsecutiveFailures fires when the newest Threshold terminal executions of
// any watched branch all failed.
type ConsecutiveFailures struct {
	Threshold int
	Branches  []string
}

func (r *ConsecutiveFailures) Type() model.AlertType { return model.AlertConsecutiveFailures }

func (r *ConsecutiveFailures) Evaluate(ctx context.Context, ec EvalContext) (Decision, error) {
	for _, branch := range r.Branches {
		rows, err := ec.Store.RecentTerminalOnBranch(ctx, ec.Project.ID, branch, r.Threshold)
		if err != nil {
			return Decision{}, err
		}
		if len(rows) < r.Threshold || !allFailed(rows) {
			continue
		}
		return triggered(map[string]any{
			"branch":               branch,
			"consecutive_failures": r.Threshold,
		}), nil
	}
	return notTriggered(), nil
}

func allFailed(rows []*model.Execution) bool {
	for _, e := range rows {
		if e.Status != model.StatusFailure {
			return false
		}
	}
	return true
}

// QueueTime fires when any pending execution is older than ThresholdMinutes.
type QueueTime struct {
	ThresholdMinutes float64
}

func (r *QueueTime) Type() model.AlertType { return model.AlertQueueTime }

func (r *QueueTime) Evaluate(ctx context.Context, ec EvalContext) (Decision, error) {
	cutoff := ec.Now.Add(-time.Duration(r.ThresholdMinutes * float64(time.Minute)))
	n, err := ec.Store.CountStaleQueued(ctx, ec.Project.ID, cutoff)
	if err != nil {
		return Decision{}, err
	}
	if n == 0 {
		return notTriggered(), nil
	}
	return triggered(map[string]any{"stale_pending": n}), nil
}
