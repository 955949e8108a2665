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
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
	"gorm.io/gorm/clause"
)

type IDailyMetricRepository interface {
	Upsert(ctx context.Context, rows []*model.DailyMetric) error
	List(ctx context.Context, projectID uint64, from, to time.Time) ([]*model.DailyMetric, error)
}

type DailyMetricRepo struct {
	database.IDatabase
}

func NewDailyMetricRepo(db database.IDatabase) IDailyMetricRepository {
	return &DailyMetricRepo{IDatabase: db}
}

// Upsert 按 (project_id, date) 覆盖写入
func (r *DailyMetricRepo) Upsert(ctx context.Context, rows []*model.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}
	return r.Database().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_executions", "successful_executions", "failed_executions",
			"avg_duration_seconds", "total_duration_seconds", "updated_at",
		}),
	}).CreateInBatches(rows, 100).Error
}

func (r *DailyMetricRepo) List(ctx context.Context, projectID uint64, from, to time.Time) ([]*model.DailyMetric, error) {
	var rows []*model.DailyMetric
	err := database.ReadDB(r.Database().WithContext(ctx)).
		Where("project_id = ? AND date >= ? AND date <= ?", projectID, from, to).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
