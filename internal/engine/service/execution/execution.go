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

// Package execution ingests pipeline executions and their steps.
package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
	"github.com/go-arcade/pulse/pkg/safe"
)

const (
	TriggerManualRetry = "manual_retry"

	defaultListLimit = 20
	maxListLimit     = 100
	maxCommitSHA     = 40
)

// Evaluator runs alert rules for a finished execution without blocking.
type Evaluator interface {
	Submit(e *model.Execution)
}

// MetricsRefresher keeps cached project metrics consistent with writes.
type MetricsRefresher interface {
	Invalidate(ctx context.Context, projectID uint64) error
	RecomputeProject(ctx context.Context, projectID uint64) error
}

type Service struct {
	projects    repo.IProjectRepository
	executions  repo.IExecutionRepository
	steps       repo.IStepRepository
	metrics     MetricsRefresher
	evaluator   Evaluator
	broadcaster broadcast.Broadcaster
	now         func() time.Time
}

func NewService(repos *repo.Repositories, metrics MetricsRefresher, evaluator Evaluator, b broadcast.Broadcaster) *Service {
	if b == nil {
		b = broadcast.Nop{}
	}
	return &Service{
		projects:    repos.Project,
		executions:  repos.Execution,
		steps:       repos.Step,
		metrics:     metrics,
		evaluator:   evaluator,
		broadcaster: b,
		now:         time.Now,
	}
}

func validate(e *model.Execution) error {
	if e.ProjectID == 0 {
		return errs.Validation("project_id is required")
	}
	if strings.TrimSpace(e.ExecutionID) == "" {
		return errs.Validation("execution_id is required")
	}
	if !e.Status.Valid() {
		return errs.Validation("status must be one of pending, running, success, failure, cancelled")
	}
	if len(e.CommitSHA) > maxCommitSHA {
		return errs.Validation("commit_sha must be at most %d characters", maxCommitSHA)
	}
	if e.DurationSeconds != nil && *e.DurationSeconds < 0 {
		return errs.Validation("duration_seconds must not be negative")
	}
	return nil
}

// Upsert inserts or updates e by (project_id, execution_id). applied is false
// when the stored status is further along and the event was ignored.
func (s *Service) Upsert(ctx context.Context, e *model.Execution, source string) (stored *model.Execution, applied bool, err error) {
	e.DeriveDuration()
	if err := validate(e); err != nil {
		return nil, false, err
	}
	project, err := s.projects.Get(ctx, e.ProjectID)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.executions.GetByVendorID(ctx, e.ProjectID, e.ExecutionID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, false, err
	}
	if existing != nil && !model.CanTransition(existing.Status, e.Status) {
		log.Infow("stale execution event ignored", "projectId", e.ProjectID, "executionId", e.ExecutionID,
			"stored", existing.Status, "incoming", e.Status)
		return existing, false, nil
	}

	stored, err = s.executions.Upsert(ctx, e)
	if err != nil {
		return nil, false, err
	}
	pkgmetrics.RecordExecutionIngested(source, string(stored.Status))

	finished := stored.Status.IsFinished() && (existing == nil || existing.Status != stored.Status)
	s.afterWrite(ctx, project, stored, finished)
	return stored, true, nil
}

// Create inserts a new execution. A duplicate natural key is a conflict.
func (s *Service) Create(ctx context.Context, req *model.ExecutionReq) (*model.Execution, error) {
	e := req.ToModel()
	if err := validate(e); err != nil {
		return nil, err
	}
	project, err := s.projects.Get(ctx, e.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.executions.Create(ctx, e); err != nil {
		return nil, err
	}
	pkgmetrics.RecordExecutionIngested("api", string(e.Status))
	s.afterWrite(ctx, project, e, e.Status.IsFinished())
	return s.decorate(e, project), nil
}

// afterWrite runs the post-write pipeline: cache invalidation, broadcast,
// and for finished runs alert evaluation plus a metrics recompute.
func (s *Service) afterWrite(ctx context.Context, project *model.Project, e *model.Execution, finished bool) {
	if s.metrics != nil {
		_ = s.metrics.Invalidate(ctx, e.ProjectID)
	}
	s.broadcaster.ExecutionUpdated(s.decorate(e, project))
	if !finished {
		return
	}
	if s.evaluator != nil {
		s.evaluator.Submit(e)
	}
	if s.metrics != nil {
		projectID := e.ProjectID
		safe.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.metrics.RecomputeProject(ctx, projectID); err != nil {
				log.Warnw("failed to recompute metrics", "projectId", projectID, "error", err)
			}
		})
	}
}

func (s *Service) decorate(e *model.Execution, project *model.Project) *model.Execution {
	if project != nil {
		e.ProjectName = project.Name
		e.CISystem = project.CISystem
	}
	return e.Decorate()
}

// Get returns the execution with its steps ordered by step_order.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Execution, error) {
	e, err := s.executions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	steps, err := s.steps.ListByExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Steps = steps
	project, err := s.projects.Get(ctx, e.ProjectID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, err
	}
	return s.decorate(e, project), nil
}

func (s *Service) List(ctx context.Context, q *model.ExecutionQuery) ([]*model.Execution, model.Pagination, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Status != "" && !model.ExecutionStatus(q.Status).Valid() {
		return nil, model.Pagination{}, errs.Validation("unknown status %q", q.Status)
	}

	rows, total, err := s.executions.List(ctx, q)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	if rows == nil {
		rows = []*model.Execution{}
	}

	ids := make([]uint64, 0, len(rows))
	projectIDs := make([]uint64, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.ID)
		projectIDs = append(projectIDs, e.ProjectID)
	}
	steps, err := s.steps.ListByExecutions(ctx, ids)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	projects, err := s.projects.ListByIDs(ctx, projectIDs)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	byID := make(map[uint64]*model.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	for _, e := range rows {
		e.Steps = steps[e.ID]
		if e.Steps == nil {
			e.Steps = []*model.Step{}
		}
		s.decorate(e, byID[e.ProjectID])
	}
	return rows, model.NewPagination(total, q.Limit, q.Offset), nil
}

// Update changes status, completed_at, duration_seconds and raw_data only.
func (s *Service) Update(ctx context.Context, id uint64, req *model.UpdateExecutionReq) (*model.Execution, error) {
	if req.Empty() {
		return nil, errs.Validation("No valid fields to update")
	}
	current, err := s.executions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, errs.Validation("unknown status %q", *req.Status)
		}
		if !model.CanTransition(current.Status, *req.Status) {
			return nil, errs.Validation("cannot change status from %s to %s", current.Status, *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.CompletedAt != nil {
		updates["completed_at"] = req.CompletedAt
	}
	if req.DurationSeconds != nil {
		if *req.DurationSeconds < 0 {
			return nil, errs.Validation("duration_seconds must not be negative")
		}
		updates["duration_seconds"] = req.DurationSeconds
	} else if req.CompletedAt != nil && current.StartedAt != nil && current.DurationSeconds == nil {
		probe := model.Execution{StartedAt: current.StartedAt, CompletedAt: req.CompletedAt}
		probe.DeriveDuration()
		updates["duration_seconds"] = probe.DurationSeconds
	}
	if len(req.RawData) > 0 {
		updates["raw_data"] = req.RawData
	}

	if err := s.executions.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	updated, err := s.executions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.Get(ctx, updated.ProjectID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, err
	}
	finished := updated.Status.IsFinished() && current.Status != updated.Status
	s.afterWrite(ctx, project, updated, finished)
	return updated, nil
}

// Retry creates a new pending execution copied from a finished one.
func (s *Service) Retry(ctx context.Context, id uint64, triggeredBy string) (*model.Execution, error) {
	orig, err := s.executions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if orig.Status == model.StatusPending || orig.Status == model.StatusRunning {
		return nil, errs.Validation("Cannot retry running or pending execution")
	}
	if triggeredBy == "" {
		triggeredBy = "system"
	}
	retry := &model.Execution{
		ProjectID:   orig.ProjectID,
		ExecutionID: fmt.Sprintf("%s-retry-%d", orig.ExecutionID, s.now().UnixMilli()),
		Branch:      orig.Branch,
		CommitSHA:   orig.CommitSHA,
		Status:      model.StatusPending,
		TriggerType: TriggerManualRetry,
		TriggeredBy: triggeredBy,
		RawData:     orig.RawData,
	}
	if err := s.executions.Create(ctx, retry); err != nil {
		return nil, err
	}
	project, err := s.projects.Get(ctx, retry.ProjectID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, err
	}
	s.afterWrite(ctx, project, retry, false)
	return retry, nil
}
