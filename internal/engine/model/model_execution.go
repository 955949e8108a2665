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

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusSuccess   ExecutionStatus = "success"
	StatusFailure   ExecutionStatus = "failure"
	StatusCancelled ExecutionStatus = "cancelled"
)

func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSuccess, StatusFailure, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusCancelled
}

// IsFinished reports a completed run that alert rules care about.
func (s ExecutionStatus) IsFinished() bool {
	return s == StatusSuccess || s == StatusFailure
}

func (s ExecutionStatus) stage() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	default:
		return 2
	}
}

// CanTransition allows pending -> running -> terminal and same-status
// rewrites. Moving between two terminal states is rejected.
func CanTransition(from, to ExecutionStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == "" || from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	return to.stage() >= from.stage()
}

// Execution is one pipeline run reported by a CI system.
type Execution struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID       uint64          `gorm:"column:project_id;not null;uniqueIndex:uk_execution_project_vendor,priority:1;index:idx_execution_project_status,priority:1;index:idx_execution_project_created,priority:1" json:"project_id"`
	ExecutionID     string          `gorm:"column:execution_id;size:255;not null;uniqueIndex:uk_execution_project_vendor,priority:2" json:"execution_id"`
	Branch          string          `gorm:"column:branch;size:255" json:"branch"`
	CommitSHA       string          `gorm:"column:commit_sha;size:40" json:"commit_sha"`
	Status          ExecutionStatus `gorm:"column:status;size:20;not null;index:idx_execution_project_status,priority:2" json:"status"`
	StartedAt       *time.Time      `gorm:"column:started_at" json:"started_at"`
	CompletedAt     *time.Time      `gorm:"column:completed_at" json:"completed_at"`
	DurationSeconds *int            `gorm:"column:duration_seconds" json:"duration_seconds"`
	TriggerType     string          `gorm:"column:trigger_type;size:50" json:"trigger_type"`
	TriggeredBy     string          `gorm:"column:triggered_by;size:255" json:"triggered_by"`
	RawData         datatypes.JSON  `gorm:"column:raw_data" json:"raw_data,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_execution_project_created,priority:2;index:idx_execution_created" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// filled by the service layer
	ProjectName     string   `gorm:"-" json:"project_name,omitempty"`
	CISystem        string   `gorm:"-" json:"ci_system,omitempty"`
	DurationMinutes *float64 `gorm:"-" json:"duration_minutes"`
	Steps           []*Step  `gorm:"-" json:"steps,omitempty"`
}

func (Execution) TableName() string {
	return "t_pipeline_execution"
}

// DeriveDuration fills DurationSeconds from the timestamps when it was not
// reported explicitly.
func (e *Execution) DeriveDuration() {
	if e.DurationSeconds != nil || e.StartedAt == nil || e.CompletedAt == nil {
		return
	}
	d := int(e.CompletedAt.Sub(*e.StartedAt) / time.Second)
	if d < 0 {
		d = 0
	}
	e.DurationSeconds = &d
}

// Decorate sets the derived presentation fields.
func (e *Execution) Decorate() *Execution {
	e.DurationMinutes = Minutes(e.DurationSeconds)
	for _, s := range e.Steps {
		s.DurationMinutes = Minutes(s.DurationSeconds)
	}
	return e
}

// Minutes converts seconds to minutes rounded to one decimal.
func Minutes(seconds *int) *float64 {
	if seconds == nil {
		return nil
	}
	m := Round1(float64(*seconds) / 60)
	return &m
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type ExecutionReq struct {
	ProjectID       uint64          `json:"project_id"`
	ExecutionID     string          `json:"execution_id"`
	Branch          string          `json:"branch"`
	CommitSHA       string          `json:"commit_sha"`
	Status          ExecutionStatus `json:"status"`
	StartedAt       *time.Time      `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
	DurationSeconds *int            `json:"duration_seconds"`
	TriggerType     string          `json:"trigger_type"`
	TriggeredBy     string          `json:"triggered_by"`
	RawData         datatypes.JSON  `json:"raw_data"`
}

func (r *ExecutionReq) ToModel() *Execution {
	e := &Execution{
		ProjectID:       r.ProjectID,
		ExecutionID:     r.ExecutionID,
		Branch:          r.Branch,
		CommitSHA:       r.CommitSHA,
		Status:          r.Status,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		DurationSeconds: r.DurationSeconds,
		TriggerType:     r.TriggerType,
		TriggeredBy:     r.TriggeredBy,
		RawData:         r.RawData,
	}
	e.DeriveDuration()
	return e
}

// UpdateExecutionReq carries the fields a PUT may change.
type UpdateExecutionReq struct {
	Status          *ExecutionStatus `json:"status"`
	CompletedAt     *time.Time       `json:"completed_at"`
	DurationSeconds *int             `json:"duration_seconds"`
	RawData         datatypes.JSON   `json:"raw_data"`
}

func (r *UpdateExecutionReq) Empty() bool {
	return r.Status == nil && r.CompletedAt == nil && r.DurationSeconds == nil && len(r.RawData) == 0
}

type ExecutionQuery struct {
	ProjectID uint64
	Status    string
	Branch    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// QueueCounts is the live pending/running snapshot of a project.
type QueueCounts struct {
	Pending int64 `json:"pending"`
	Running int64 `json:"running"`
}
