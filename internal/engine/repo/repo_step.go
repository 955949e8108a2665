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

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
	"gorm.io/gorm/clause"
)

type IStepRepository interface {
	Upsert(ctx context.Context, s *model.Step) error
	ListByExecution(ctx context.Context, executionID uint64) ([]*model.Step, error)
	ListByExecutions(ctx context.Context, executionIDs []uint64) (map[uint64][]*model.Step, error)
}

type StepRepo struct {
	database.IDatabase
}

func NewStepRepo(db database.IDatabase) IStepRepository {
	return &StepRepo{IDatabase: db}
}

// Upsert 按 (execution_id, step_name) 插入或更新
func (r *StepRepo) Upsert(ctx context.Context, s *model.Step) error {
	return r.Database().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "execution_id"}, {Name: "step_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "started_at", "completed_at", "duration_seconds", "logs_url", "step_order", "updated_at",
		}),
	}).Create(s).Error
}

func (r *StepRepo) ListByExecution(ctx context.Context, executionID uint64) ([]*model.Step, error) {
	var steps []*model.Step
	err := database.ReadDB(r.Database().WithContext(ctx)).
		Where("execution_id = ?", executionID).
		Order("step_order ASC").Order("id ASC").
		Find(&steps).Error
	return steps, err
}

func (r *StepRepo) ListByExecutions(ctx context.Context, executionIDs []uint64) (map[uint64][]*model.Step, error) {
	grouped := make(map[uint64][]*model.Step, len(executionIDs))
	if len(executionIDs) == 0 {
		return grouped, nil
	}
	var steps []*model.Step
	err := database.ReadDB(r.Database().WithContext(ctx)).
		Where("execution_id IN ?", executionIDs).
		Order("execution_id ASC").Order("step_order ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	for _, s := range steps {
		grouped[s.ExecutionID] = append(grouped[s.ExecutionID], s)
	}
	return grouped, nil
}
