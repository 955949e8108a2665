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

package execution

import (
	"context"
	"strings"
	"time"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
)

type StepReq struct {
	StepName        string                `json:"step_name"`
	Status          model.ExecutionStatus `json:"status"`
	StartedAt       *time.Time            `json:"started_at"`
	CompletedAt     *time.Time            `json:"completed_at"`
	DurationSeconds *int                  `json:"duration_seconds"`
	LogsURL         string                `json:"logs_url"`
	StepOrder       int                   `json:"step_order"`
}

// StepLogs is the log listing of one step.
type StepLogs struct {
	StepID   uint64                `json:"step_id"`
	StepName string                `json:"step_name"`
	Status   model.ExecutionStatus `json:"status"`
	LogsURL  string                `json:"logs_url"`
}

// UpsertStep writes a step keyed by (execution, step_name).
func (s *Service) UpsertStep(ctx context.Context, executionID uint64, req *StepReq) (*model.Step, error) {
	if strings.TrimSpace(req.StepName) == "" {
		return nil, errs.Validation("step_name is required")
	}
	if !req.Status.Valid() {
		return nil, errs.Validation("unknown step status %q", req.Status)
	}
	if _, err := s.executions.Get(ctx, executionID); err != nil {
		return nil, err
	}
	step := &model.Step{
		ExecutionID:     executionID,
		StepName:        req.StepName,
		Status:          req.Status,
		StartedAt:       req.StartedAt,
		CompletedAt:     req.CompletedAt,
		DurationSeconds: req.DurationSeconds,
		LogsURL:         req.LogsURL,
		StepOrder:       req.StepOrder,
	}
	step.DeriveDuration()
	if err := s.steps.Upsert(ctx, step); err != nil {
		return nil, err
	}
	step.DurationMinutes = model.Minutes(step.DurationSeconds)
	return step, nil
}

// Logs lists the steps of an execution that point at a log location.
// stepID filters to one step when non-zero.
func (s *Service) Logs(ctx context.Context, executionID, stepID uint64) ([]StepLogs, error) {
	if _, err := s.executions.Get(ctx, executionID); err != nil {
		return nil, err
	}
	steps, err := s.steps.ListByExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}
	var out []StepLogs
	for _, st := range steps {
		if stepID != 0 && st.ID != stepID {
			continue
		}
		if st.LogsURL == "" {
			continue
		}
		out = append(out, StepLogs{StepID: st.ID, StepName: st.StepName, Status: st.Status, LogsURL: st.LogsURL})
	}
	if len(out) == 0 {
		return nil, errs.NotFound("No logs found")
	}
	return out, nil
}
