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
	"errors"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/pkg/database"
	"gorm.io/gorm"
)

// Repositories 统一管理所有 repository
type Repositories struct {
	Project      IProjectRepository
	Execution    IExecutionRepository
	Step         IStepRepository
	AlertConfig  IAlertConfigRepository
	AlertHistory IAlertHistoryRepository
	DailyMetric  IDailyMetricRepository
}

// NewRepositories 初始化所有 repository
func NewRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		Project:      NewProjectRepo(db),
		Execution:    NewExecutionRepo(db),
		Step:         NewStepRepo(db),
		AlertConfig:  NewAlertConfigRepo(db),
		AlertHistory: NewAlertHistoryRepo(db),
		DailyMetric:  NewDailyMetricRepo(db),
	}
}

// translate maps gorm errors onto the engine taxonomy.
func translate(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound(format, args...)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.Conflict(format, args...)
	default:
		return err
	}
}

func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
