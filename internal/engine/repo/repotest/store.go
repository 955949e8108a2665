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

// Package repotest provides an in-memory implementation of the engine
// repositories for service tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"gorm.io/datatypes"
)

// Store keeps every table in memory behind one mutex. ExecErr, when set, is
// returned from every execution read; HistoryErr from every history insert.
type Store struct {
	mu     sync.Mutex
	nextID uint64

	Now func() time.Time

	projects   map[uint64]*model.Project
	executions map[uint64]*model.Execution
	steps      map[uint64]*model.Step
	configs    map[uint64]*model.AlertConfig
	history    []*model.AlertHistory
	daily      map[string]*model.DailyMetric

	ExecErr    error
	HistoryErr error
}

func New() *Store {
	return &Store{
		Now:        time.Now,
		projects:   make(map[uint64]*model.Project),
		executions: make(map[uint64]*model.Execution),
		steps:      make(map[uint64]*model.Step),
		configs:    make(map[uint64]*model.AlertConfig),
		daily:      make(map[string]*model.DailyMetric),
	}
}

func (s *Store) Repositories() *repo.Repositories {
	return &repo.Repositories{
		Project:      s.Projects(),
		Execution:    s.Executions(),
		Step:         s.Steps(),
		AlertConfig:  s.AlertConfigs(),
		AlertHistory: s.AlertHistory(),
		DailyMetric:  s.DailyMetrics(),
	}
}

func (s *Store) Projects() repo.IProjectRepository          { return projects{s} }
func (s *Store) Executions() repo.IExecutionRepository      { return executions{s} }
func (s *Store) Steps() repo.IStepRepository                { return steps{s} }
func (s *Store) AlertConfigs() repo.IAlertConfigRepository  { return configs{s} }
func (s *Store) AlertHistory() repo.IAlertHistoryRepository { return history{s} }
func (s *Store) DailyMetrics() repo.IDailyMetricRepository  { return daily{s} }

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// AddProject inserts an active github project.
func (s *Store) AddProject(name string) *model.Project {
	p := &model.Project{Name: name, CISystem: model.CISystemGitHub, IsActive: true,
		RepositoryURL: "https://github.com/acme/" + name}
	if err := s.Projects().Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// AddExecution inserts e as is. CreatedAt defaults to Now.
func (s *Store) AddExecution(e *model.Execution) *model.Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.Now()
	}
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.executions[e.ID] = &cp
	return e
}

func (s *Store) AddAlertConfig(c *model.AlertConfig) *model.AlertConfig {
	if err := s.AlertConfigs().Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// History returns a snapshot of the alert history rows in insert order.
func (s *Store) History() []*model.AlertHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.AlertHistory, len(s.history))
	for i, h := range s.history {
		cp := *h
		out[i] = &cp
	}
	return out
}

func (s *Store) Daily() []*model.DailyMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.DailyMetric, 0, len(s.daily))
	for _, d := range s.daily {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID < out[j].ProjectID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// projects

type projects struct{ s *Store }

func (r projects) Create(_ context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.projects {
		if existing.Name == p.Name && existing.CISystem == p.CISystem {
			return errs.Conflict("project %q already exists for %s", p.Name, p.CISystem)
		}
	}
	p.ID = r.s.id()
	p.CreatedAt = r.s.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.projects[p.ID] = &cp
	return nil
}

func (r projects) Get(_ context.Context, id uint64) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, errs.NotFound("project %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r projects) Update(_ context.Context, id uint64, updates map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "name":
			p.Name = v.(string)
		case "repository_url":
			p.RepositoryURL = v.(string)
		case "ci_system":
			p.CISystem = v.(string)
		case "webhook_secret":
			p.WebhookSecret = v.(string)
		case "api_token_encrypted":
			p.APITokenEncrypted = v.(string)
		case "is_active":
			p.IsActive = v.(bool)
		}
	}
	p.UpdatedAt = r.s.Now()
	return nil
}

func (r projects) Deactivate(ctx context.Context, id uint64) error {
	return r.Update(ctx, id, map[string]any{"is_active": false})
}

func (r projects) ListActive(_ context.Context) ([]*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Project
	for _, p := range r.s.projects {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r projects) ListByIDs(_ context.Context, ids []uint64) ([]*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Project
	for _, id := range ids {
		if p, ok := r.s.projects[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r projects) FindByRepository(_ context.Context, repositoryURL, ciSystem string) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.projects {
		if p.IsActive && p.RepositoryURL == repositoryURL && p.CISystem == ciSystem {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errs.NotFound("no %s project for repository %s", ciSystem, repositoryURL)
}

// executions

type executions struct{ s *Store }

func (r executions) filter(keep func(e *model.Execution) bool) []*model.Execution {
	var out []*model.Execution
	for _, e := range r.s.executions {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func newestFirst(in []*model.Execution) []*model.Execution {
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	return in
}

func head(in []*model.Execution, n int) []*model.Execution {
	if n >= 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func (r executions) Create(_ context.Context, e *model.Execution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.executions {
		if existing.ProjectID == e.ProjectID && existing.ExecutionID == e.ExecutionID {
			return errs.Conflict("execution %s already exists for project %d", e.ExecutionID, e.ProjectID)
		}
	}
	e.ID = r.s.id()
	e.CreatedAt = r.s.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	r.s.executions[e.ID] = &cp
	return nil
}

func (r executions) Upsert(ctx context.Context, e *model.Execution) (*model.Execution, error) {
	r.s.mu.Lock()
	for _, existing := range r.s.executions {
		if existing.ProjectID == e.ProjectID && existing.ExecutionID == e.ExecutionID {
			existing.Branch = e.Branch
			existing.CommitSHA = e.CommitSHA
			existing.Status = e.Status
			existing.StartedAt = e.StartedAt
			existing.CompletedAt = e.CompletedAt
			existing.DurationSeconds = e.DurationSeconds
			existing.TriggerType = e.TriggerType
			existing.TriggeredBy = e.TriggeredBy
			existing.RawData = e.RawData
			existing.UpdatedAt = r.s.Now()
			cp := *existing
			r.s.mu.Unlock()
			return &cp, nil
		}
	}
	r.s.mu.Unlock()
	if err := r.Create(ctx, e); err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}

func (r executions) Get(_ context.Context, id uint64) (*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.executions[id]
	if !ok {
		return nil, errs.NotFound("execution %d not found", id)
	}
	cp := *e
	return &cp, nil
}

func (r executions) GetByVendorID(_ context.Context, projectID uint64, executionID string) (*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.executions {
		if e.ProjectID == projectID && e.ExecutionID == executionID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, errs.NotFound("execution %s not found in project %d", executionID, projectID)
}

func (r executions) Update(_ context.Context, id uint64, updates map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.executions[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			e.Status = v.(model.ExecutionStatus)
		case "completed_at":
			e.CompletedAt = v.(*time.Time)
		case "duration_seconds":
			e.DurationSeconds = v.(*int)
		case "raw_data":
			e.RawData = v.(datatypes.JSON)
		}
	}
	e.UpdatedAt = r.s.Now()
	return nil
}

func (r executions) List(_ context.Context, q *model.ExecutionQuery) ([]*model.Execution, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, 0, r.s.ExecErr
	}
	rows := r.filter(func(e *model.Execution) bool {
		return (q.ProjectID == 0 || e.ProjectID == q.ProjectID) &&
			(q.Status == "" || string(e.Status) == q.Status) &&
			(q.Branch == "" || e.Branch == q.Branch)
	})
	total := int64(len(rows))
	if !strings.EqualFold(q.SortOrder, "asc") {
		rows = newestFirst(rows)
	}
	if q.Offset >= len(rows) {
		return nil, total, nil
	}
	return head(rows[q.Offset:], q.Limit), total, nil
}

func (r executions) ListSince(_ context.Context, projectID uint64, since time.Time) ([]*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	return r.filter(func(e *model.Execution) bool {
		return e.ProjectID == projectID && !e.CreatedAt.Before(since)
	}), nil
}

func (r executions) ListBetween(_ context.Context, projectID uint64, from, to time.Time) ([]*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	return r.filter(func(e *model.Execution) bool {
		return e.ProjectID == projectID && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to)
	}), nil
}

func (r executions) ListForProjectsSince(_ context.Context, projectIDs []uint64, since time.Time) ([]*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	want := make(map[uint64]bool, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = true
	}
	return r.filter(func(e *model.Execution) bool {
		return want[e.ProjectID] && !e.CreatedAt.Before(since)
	}), nil
}

func (r executions) Latest(_ context.Context, projectID uint64) (*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	rows := r.filter(func(e *model.Execution) bool { return e.ProjectID == projectID })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (r executions) Recent(_ context.Context, projectID uint64, limit int) ([]*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	rows := r.filter(func(e *model.Execution) bool { return e.ProjectID == projectID })
	return head(newestFirst(rows), limit), nil
}

func (r executions) QueueCounts(_ context.Context, projectID uint64) (model.QueueCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var qc model.QueueCounts
	if r.s.ExecErr != nil {
		return qc, r.s.ExecErr
	}
	for _, e := range r.s.executions {
		if e.ProjectID != projectID {
			continue
		}
		switch e.Status {
		case model.StatusPending:
			qc.Pending++
		case model.StatusRunning:
			qc.Running++
		}
	}
	return qc, nil
}

func (r executions) RecentDurations(_ context.Context, projectID uint64, limit int) ([]*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	rows := r.filter(func(e *model.Execution) bool {
		return e.ProjectID == projectID && e.DurationSeconds != nil
	})
	return head(newestFirst(rows), limit), nil
}

func (r executions) LatestDurations(_ context.Context, projectID uint64, since time.Time) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	var out []int
	for _, e := range r.filter(func(e *model.Execution) bool {
		return e.ProjectID == projectID && !e.CreatedAt.Before(since) && e.DurationSeconds != nil
	}) {
		out = append(out, *e.DurationSeconds)
	}
	return out, nil
}

func (r executions) RecentTerminalOnBranch(_ context.Context, projectID uint64, branch string, limit int) ([]*model.Execution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	rows := r.filter(func(e *model.Execution) bool {
		return e.ProjectID == projectID && e.Branch == branch && e.Status.IsFinished()
	})
	return head(newestFirst(rows), limit), nil
}

func (r executions) CountStaleQueued(_ context.Context, projectID uint64, createdBefore time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return 0, r.s.ExecErr
	}
	var n int64
	for _, e := range r.s.executions {
		if e.ProjectID == projectID && e.Status == model.StatusPending && e.CreatedAt.Before(createdBefore) {
			n++
		}
	}
	return n, nil
}

func (r executions) SuccessfulDurationAverage(_ context.Context, projectID uint64, since time.Time, excludeID uint64) (float64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return 0, false, r.s.ExecErr
	}
	var sum, n int
	for _, e := range r.s.executions {
		if e.ProjectID == projectID && e.Status == model.StatusSuccess && e.DurationSeconds != nil &&
			!e.CreatedAt.Before(since) && e.ID != excludeID {
			sum += *e.DurationSeconds
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(n), true, nil
}

func (r executions) Stats(_ context.Context, projectID uint64) (*model.ProjectStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ExecErr != nil {
		return nil, r.s.ExecErr
	}
	stats := &model.ProjectStats{}
	var sum, n int
	for _, e := range r.s.executions {
		if e.ProjectID != projectID {
			continue
		}
		stats.TotalExecutions++
		switch e.Status {
		case model.StatusSuccess:
			stats.SuccessfulExecutions++
		case model.StatusFailure:
			stats.FailedExecutions++
		}
		if e.DurationSeconds != nil {
			d := *e.DurationSeconds
			sum += d
			n++
			if stats.MinDuration == nil || d < *stats.MinDuration {
				stats.MinDuration = &d
			}
			if stats.MaxDuration == nil || d > *stats.MaxDuration {
				stats.MaxDuration = &d
			}
		}
	}
	if stats.TotalExecutions > 0 {
		stats.SuccessRate = model.Round1(float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions) * 100)
	}
	if n > 0 {
		stats.AvgDuration = model.Round1(float64(sum) / float64(n))
	}
	return stats, nil
}

// steps

type steps struct{ s *Store }

func (r steps) Upsert(_ context.Context, st *model.Step) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.steps {
		if existing.ExecutionID == st.ExecutionID && existing.StepName == st.StepName {
			st.ID = existing.ID
			st.CreatedAt = existing.CreatedAt
			break
		}
	}
	if st.ID == 0 {
		st.ID = r.s.id()
		st.CreatedAt = r.s.Now()
	}
	st.UpdatedAt = r.s.Now()
	cp := *st
	r.s.steps[st.ID] = &cp
	return nil
}

func (r steps) ListByExecution(ctx context.Context, executionID uint64) ([]*model.Step, error) {
	grouped, err := r.ListByExecutions(ctx, []uint64{executionID})
	if err != nil {
		return nil, err
	}
	return grouped[executionID], nil
}

func (r steps) ListByExecutions(_ context.Context, executionIDs []uint64) (map[uint64][]*model.Step, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uint64]bool, len(executionIDs))
	for _, id := range executionIDs {
		want[id] = true
	}
	grouped := make(map[uint64][]*model.Step)
	for _, st := range r.s.steps {
		if want[st.ExecutionID] {
			cp := *st
			grouped[st.ExecutionID] = append(grouped[st.ExecutionID], &cp)
		}
	}
	for _, list := range grouped {
		sort.Slice(list, func(i, j int) bool {
			if list[i].StepOrder != list[j].StepOrder {
				return list[i].StepOrder < list[j].StepOrder
			}
			return list[i].ID < list[j].ID
		})
	}
	return grouped, nil
}

// alert configs

type configs struct{ s *Store }

func (r configs) Create(_ context.Context, c *model.AlertConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	c.CreatedAt = r.s.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.s.configs[c.ID] = &cp
	return nil
}

func (r configs) Get(_ context.Context, id uint64) (*model.AlertConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.configs[id]
	if !ok {
		return nil, errs.NotFound("alert config %d not found", id)
	}
	cp := *c
	return &cp, nil
}

func (r configs) Update(_ context.Context, id uint64, updates map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.configs[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "threshold_value":
			c.ThresholdValue = v.(float64)
		case "notification_channels":
			c.NotificationChannels = v.(datatypes.JSONSlice[string])
		case "is_enabled":
			c.IsEnabled = v.(bool)
		case "config_data":
			c.ConfigData = v.(datatypes.JSON)
		}
	}
	c.UpdatedAt = r.s.Now()
	return nil
}

func (r configs) Delete(_ context.Context, id uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.configs[id]
	delete(r.s.configs, id)
	return ok, nil
}

func (r configs) list(keep func(c *model.AlertConfig) bool) []*model.AlertConfig {
	var out []*model.AlertConfig
	for _, c := range r.s.configs {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r configs) List(_ context.Context, projectID uint64) ([]*model.AlertConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(c *model.AlertConfig) bool { return projectID == 0 || c.ProjectID == projectID }), nil
}

func (r configs) ListEnabled(_ context.Context, projectID uint64) ([]*model.AlertConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(c *model.AlertConfig) bool { return c.ProjectID == projectID && c.IsEnabled }), nil
}

// alert history

type history struct{ s *Store }

func (r history) Create(_ context.Context, h *model.AlertHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.HistoryErr != nil {
		return r.s.HistoryErr
	}
	h.ID = r.s.id()
	if h.SentAt.IsZero() {
		h.SentAt = r.s.Now()
	}
	h.CreatedAt = r.s.Now()
	h.UpdatedAt = h.CreatedAt
	cp := *h
	r.s.history = append(r.s.history, &cp)
	return nil
}

func (r history) List(_ context.Context, q *model.AlertHistoryQuery) ([]*model.AlertHistory, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*model.AlertHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		h := r.s.history[i]
		if (q.ProjectID == 0 || h.ProjectID == q.ProjectID) && (q.AlertType == "" || string(h.AlertType) == q.AlertType) {
			cp := *h
			rows = append(rows, &cp)
		}
	}
	total := int64(len(rows))
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if q.Offset >= len(rows) {
		return nil, total, nil
	}
	rows = rows[q.Offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, total, nil
}

func (r history) ListSince(_ context.Context, since time.Time) ([]*model.AlertHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*model.AlertHistory
	for _, h := range r.s.history {
		if !h.SentAt.Before(since) {
			cp := *h
			rows = append(rows, &cp)
		}
	}
	return rows, nil
}

// daily metrics

type daily struct{ s *Store }

func dailyKey(projectID uint64, date time.Time) string {
	return fmt.Sprintf("%d#%s", projectID, date.Format("2006-01-02"))
}

func (r daily) Upsert(_ context.Context, rows []*model.DailyMetric) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.s.daily[dailyKey(row.ProjectID, row.Date)] = &cp
	}
	return nil
}

func (r daily) List(_ context.Context, projectID uint64, from, to time.Time) ([]*model.DailyMetric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.DailyMetric
	for _, d := range r.s.daily {
		if d.ProjectID == projectID && !d.Date.Before(from) && !d.Date.After(to) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
