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

// Step is a job inside an execution, unique by name within it.
type Step struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ExecutionID     uint64          `gorm:"column:execution_id;not null;uniqueIndex:uk_step_execution_name,priority:1;index:idx_step_execution_order,priority:1" json:"execution_id"`
	StepName        string          `gorm:"column:step_name;size:255;not null;uniqueIndex:uk_step_execution_name,priority:2" json:"step_name"`
	Status          ExecutionStatus `gorm:"column:status;size:20;not null" json:"status"`
	StartedAt       *time.Time      `gorm:"column:started_at" json:"started_at"`
	CompletedAt     *time.Time      `gorm:"column:completed_at" json:"completed_at"`
	DurationSeconds *int            `gorm:"column:duration_seconds" json:"duration_seconds"`
	LogsURL         string          `gorm:"column:logs_url;size:500" json:"logs_url"`
	StepOrder       int             `gorm:"column:step_order;not null;default:0;index:idx_step_execution_order,priority:2" json:"step_order"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	DurationMinutes *float64 `gorm:"-" json:"duration_minutes"`
}

func (Step) TableName() string {
	return "t_pipeline_step"
}

func (s *Step) DeriveDuration() {
	if s.DurationSeconds != nil || s.StartedAt == nil || s.CompletedAt == nil {
		return
	}
	d := int(s.CompletedAt.Sub(*s.StartedAt) / time.Second)
	if d < 0 {
		d = 0
	}
	s.DurationSeconds = &d
}
