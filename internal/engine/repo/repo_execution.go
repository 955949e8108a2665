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

package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IExecutionRepository is the execution store used by ingestion, the
// aggregator and the alert rules.
type IExecutionRepository interface {
	Create(ctx context.Context, e *model.Execution) error
	// Upsert inserts or updates on (project_id, execution_id) and returns the stored row.
	Upsert(ctx context.Context, e *model.Execution) (*model.Execution, error)
	Get(ctx context.Context, id uint64) (*model.Execution, error)
	GetByVendorID(ctx context.Context, projectID uint64, executionID string) (*model.Execution, error)
	Update(ctx context.Context, id uint64, updates map[string]any) error
	List(ctx context.Context, q *model.ExecutionQuery) ([]*model.Execution, int64, error)

	ListSince(ctx context.Context, projectID uint64, since time.Time) ([]*model.Execution, error)
	ListBetween(ctx context.Context, projectID uint64, from, to time.Time) ([]*model.Execution, error)
	ListForProjectsSince(ctx context.Context, projectIDs []uint64, since time.Time) ([]*model.Execution, error)
	Latest(ctx context.Context, projectID uint64) (*model.Execution, error)
	Recent(ctx context.Context, projectID uint64, limit int) ([]*model.Execution, error)
	QueueCounts(ctx context.Context, projectID uint64) (model.QueueCounts, error)
	// RecentDurations returns the newest executions that have a duration, newest first.
	RecentDurations(ctx context.Context, projectID uint64, limit int) ([]*model.Execution, error)
	// LatestDurations returns every known duration in seconds since the given time.
	LatestDurations(ctx context.Context, projectID uint64, since time.Time) ([]int, error)
	// RecentTerminalOnBranch returns success/failure executions on branch, newest first.
	RecentTerminalOnBranch(ctx context.Context, projectID uint64, branch string, limit int) ([]*model.Execution, error)
	CountStaleQueued(ctx context.Context, projectID uint64, createdBefore time.Time) (int64, error)
	// SuccessfulDurationAverage is the mean duration of successful executions
	// since the given time, excluding one execution. ok is false when there is none.
	SuccessfulDurationAverage(ctx context.Context, projectID uint64, since time.Time, excludeID uint64) (avg float64, ok bool, err error)
	Stats(ctx context.Context, projectID uint64) (*model.ProjectStats, error)
}

var executionSortColumns = map[string]string{
	"id":               "id",
	"created_at":       "created_at",
	"started_at":       "started_at",
	"completed_at":     "completed_at",
	"duration_seconds": "duration_seconds",
	"status":           "status",
	"branch":           "branch",
}

type ExecutionRepo struct {
	database.IDatabase
}

func NewExecutionRepo(db database.IDatabase) IExecutionRepository {
	return &ExecutionRepo{IDatabase: db}
}

func (r *ExecutionRepo) read(ctx context.Context) *gorm.DB {
	return database.ReadDB(r.Database().WithContext(ctx)).Model(&model.Execution{})
}

func (r *ExecutionRepo) Create(ctx context.Context, e *model.Execution) error {
	err := r.Database().WithContext(ctx).Create(e).Error
	return translate(err, "execution %s already exists for project %d", e.ExecutionID, e.ProjectID)
}

func (r *ExecutionRepo) Upsert(ctx context.Context, e *model.Execution) (*model.Execution, error) {
	err := r.Database().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "execution_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"branch", "commit_sha", "status", "started_at", "completed_at",
			"duration_seconds", "trigger_type", "triggered_by", "raw_data", "updated_at",
		}),
	}).Create(e).Error
	if err != nil {
		return nil, err
	}
	// ON DUPLICATE KEY UPDATE does not report the existing id, read it back from the primary
	var stored model.Execution
	err = database.WriteDB(r.Database().WithContext(ctx)).
		Where("project_id = ? AND execution_id = ?", e.ProjectID, e.ExecutionID).
		First(&stored).Error
	if err != nil {
		return nil, translate(err, "execution %s not found in project %d", e.ExecutionID, e.ProjectID)
	}
	return &stored, nil
}

func (r *ExecutionRepo) Get(ctx context.Context, id uint64) (*model.Execution, error) {
	var e model.Execution
	if err := r.Database().WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err, "execution %d not found", id)
	}
	return &e, nil
}

func (r *ExecutionRepo) GetByVendorID(ctx context.Context, projectID uint64, executionID string) (*model.Execution, error) {
	var e model.Execution
	err := r.Database().WithContext(ctx).
		Where("project_id = ? AND execution_id = ?", projectID, executionID).
		First(&e).Error
	if err != nil {
		return nil, translate(err, "execution %s not found in project %d", executionID, projectID)
	}
	return &e, nil
}

func (r *ExecutionRepo) Update(ctx context.Context, id uint64, updates map[string]any) error {
	return r.Database().WithContext(ctx).Model(&model.Execution{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *ExecutionRepo) List(ctx context.Context, q *model.ExecutionQuery) ([]*model.Execution, int64, error) {
	var (
		executions []*model.Execution
		total      int64
	)
	db := r.read(ctx)
	if q.ProjectID != 0 {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Branch != "" {
		db = db.Where("branch = ?", q.Branch)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := executionSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(q.SortOrder, "asc")
	err := db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&executions).Error
	return executions, total, err
}

func (r *ExecutionRepo) ListSince(ctx context.Context, projectID uint64, since time.Time) ([]*model.Execution, error) {
	var executions []*model.Execution
	err := r.read(ctx).
		Where("project_id = ? AND created_at >= ?", projectID, since).
		Order("created_at ASC").
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepo) ListBetween(ctx context.Context, projectID uint64, from, to time.Time) ([]*model.Execution, error) {
	var executions []*model.Execution
	err := r.read(ctx).
		Where("project_id = ? AND created_at >= ? AND created_at < ?", projectID, from, to).
		Order("created_at ASC").
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepo) ListForProjectsSince(ctx context.Context, projectIDs []uint64, since time.Time) ([]*model.Execution, error) {
	var executions []*model.Execution
	if len(projectIDs) == 0 {
		return executions, nil
	}
	err := r.read(ctx).
		Where("project_id IN ? AND created_at >= ?", projectIDs, since).
		Order("created_at ASC").
		Find(&executions).Error
	return executions, err
}

// Latest returns nil without error when the project has no executions.
func (r *ExecutionRepo) Latest(ctx context.Context, projectID uint64) (*model.Execution, error) {
	var e model.Execution
	err := r.read(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Order("id DESC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExecutionRepo) Recent(ctx context.Context, projectID uint64, limit int) ([]*model.Execution, error) {
	var executions []*model.Execution
	err := r.read(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepo) QueueCounts(ctx context.Context, projectID uint64) (model.QueueCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	var qc model.QueueCounts
	err := r.read(ctx).
		Select("status, COUNT(*) AS count").
		Where("project_id = ? AND status IN ?", projectID, []model.ExecutionStatus{model.StatusPending, model.StatusRunning}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return qc, err
	}
	for _, row := range rows {
		switch model.ExecutionStatus(row.Status) {
		case model.StatusPending:
			qc.Pending = row.Count
		case model.StatusRunning:
			qc.Running = row.Count
		}
	}
	return qc, nil
}

func (r *ExecutionRepo) RecentDurations(ctx context.Context, projectID uint64, limit int) ([]*model.Execution, error) {
	var executions []*model.Execution
	err := r.read(ctx).
		Where("project_id = ? AND duration_seconds IS NOT NULL", projectID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepo) LatestDurations(ctx context.Context, projectID uint64, since time.Time) ([]int, error) {
	var durations []int
	err := r.read(ctx).
		Where("project_id = ? AND created_at >= ? AND duration_seconds IS NOT NULL", projectID, since).
		Pluck("duration_seconds", &durations).Error
	return durations, err
}

func (r *ExecutionRepo) RecentTerminalOnBranch(ctx context.Context, projectID uint64, branch string, limit int) ([]*model.Execution, error) {
	var executions []*model.Execution
	err := r.read(ctx).
		Where("project_id = ? AND branch = ? AND status IN ?", projectID, branch,
			[]model.ExecutionStatus{model.StatusSuccess, model.StatusFailure}).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepo) CountStaleQueued(ctx context.Context, projectID uint64, createdBefore time.Time) (int64, error) {
	var count int64
	err := r.read(ctx).
		Where("project_id = ? AND status = ? AND created_at < ?", projectID, model.StatusPending, createdBefore).
		Count(&count).Error
	return count, err
}

func (r *ExecutionRepo) SuccessfulDurationAverage(ctx context.Context, projectID uint64, since time.Time, excludeID uint64) (float64, bool, error) {
	var row struct {
		Avg   *float64
		Count int64
	}
	err := r.read(ctx).
		Select("AVG(duration_seconds) AS avg, COUNT(*) AS count").
		Where("project_id = ? AND status = ? AND duration_seconds IS NOT NULL AND created_at >= ? AND id <> ?",
			projectID, model.StatusSuccess, since, excludeID).
		Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	if row.Count == 0 || row.Avg == nil {
		return 0, false, nil
	}
	return *row.Avg, true, nil
}

func (r *ExecutionRepo) Stats(ctx context.Context, projectID uint64) (*model.ProjectStats, error) {
	var row struct {
		Total       int64
		Successful  int64
		Failed      int64
		AvgDuration *float64
		MinDuration *int
		MaxDuration *int
	}
	err := r.read(ctx).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS successful,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed,
			AVG(duration_seconds) AS avg_duration,
			MIN(duration_seconds) AS min_duration,
			MAX(duration_seconds) AS max_duration`, model.StatusSuccess, model.StatusFailure).
		Where("project_id = ?", projectID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	stats := &model.ProjectStats{
		TotalExecutions:      row.Total,
		SuccessfulExecutions: row.Successful,
		FailedExecutions:     row.Failed,
		MinDuration:          row.MinDuration,
		MaxDuration:          row.MaxDuration,
	}
	if row.Total > 0 {
		stats.SuccessRate = model.Round1(float64(row.Successful) / float64(row.Total) * 100)
	}
	if row.AvgDuration != nil {
		stats.AvgDuration = model.Round1(*row.AvgDuration)
	}
	return stats, nil
}
