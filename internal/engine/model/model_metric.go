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

package model

import "time"

// DailyMetric is the persisted per-day rollup of a project's executions.
type DailyMetric struct {
	BaseModel
	ProjectID            uint64    `gorm:"column:project_id;not null;uniqueIndex:uk_daily_metric_project_date,priority:1" json:"project_id"`
	Date                 time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uk_daily_metric_project_date,priority:2" json:"date"`
	TotalExecutions      int64     `gorm:"column:total_executions;not null;default:0" json:"total_executions"`
	SuccessfulExecutions int64     `gorm:"column:successful_executions;not null;default:0" json:"successful_executions"`
	FailedExecutions     int64     `gorm:"column:failed_executions;not null;default:0" json:"failed_executions"`
	AvgDurationSeconds   float64   `gorm:"column:avg_duration_seconds;type:decimal(10,2);not null;default:0" json:"avg_duration_seconds"`
	TotalDurationSeconds int64     `gorm:"column:total_duration_seconds;not null;default:0" json:"total_duration_seconds"`
}

func (DailyMetric) TableName() string {
	return "t_daily_metric"
}
