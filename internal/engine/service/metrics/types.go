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

package metrics

import (
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
)

type LastExecution struct {
	ID              uint64                `json:"id"`
	ExecutionID     string                `json:"execution_id"`
	Status          model.ExecutionStatus `json:"status"`
	DurationMinutes *float64              `json:"duration_minutes"`
	CompletedAt     *time.Time            `json:"completed_at"`
	Branch          string                `json:"branch"`
}

type Summary struct {
	TotalExecutions      int               `json:"total_executions"`
	SuccessfulExecutions int               `json:"successful_executions"`
	FailedExecutions     int               `json:"failed_executions"`
	SuccessRate          float64           `json:"success_rate"`
	AvgDurationMinutes   float64           `json:"avg_duration_minutes"`
	LastExecution        *LastExecution    `json:"last_execution"`
	QueueStatus          model.QueueCounts `json:"queue_status"`
}

type DailyBucket struct {
	Date        string  `json:"date"`
	Executions  int     `json:"executions"`
	SuccessRate float64 `json:"success_rate"`
	AvgDuration float64 `json:"avg_duration"`
}

type HourlyBucket struct {
	Hour        int     `json:"hour"`
	Executions  int     `json:"executions"`
	SuccessRate float64 `json:"success_rate"`
}

type StatusCount struct {
	Status model.ExecutionStatus `json:"status"`
	Count  int                   `json:"count"`
}

type DurationPoint struct {
	ExecutionID     string    `json:"execution_id"`
	DurationMinutes float64   `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

type Trends struct {
	DailyExecutions    []DailyBucket   `json:"daily_executions"`
	HourlyExecutions   []HourlyBucket  `json:"hourly_executions"`
	DurationTrend      []DurationPoint `json:"duration_trend"`
	StatusDistribution []StatusCount   `json:"status_distribution"`
}

// ProjectMetrics is the dashboard summary of one project over a period.
type ProjectMetrics struct {
	ProjectID   uint64    `json:"project_id"`
	Summary     Summary   `json:"summary"`
	Trends      Trends    `json:"trends"`
	Period      Period    `json:"period"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AggregatedMetric is the compact form read by the alert evaluator.
type AggregatedMetric struct {
	ProjectID            uint64    `json:"project_id"`
	Period               Period    `json:"period"`
	TotalExecutions      int       `json:"total_executions"`
	SuccessfulExecutions int       `json:"successful_executions"`
	FailedExecutions     int       `json:"failed_executions"`
	SuccessRate          float64   `json:"success_rate"`
	AvgDurationMinutes   float64   `json:"avg_duration_minutes"`
	MinDurationMinutes   float64   `json:"min_duration_minutes"`
	MaxDurationMinutes   float64   `json:"max_duration_minutes"`
	CalculatedAt         time.Time `json:"calculated_at"`
}

type OverviewTotals struct {
	TotalExecutions      int     `json:"total_executions"`
	SuccessfulExecutions int     `json:"successful_executions"`
	SuccessRate          float64 `json:"success_rate"`
	ActiveProjects       int     `json:"active_projects"`
	AvgDurationMinutes   float64 `json:"avg_duration_minutes"`
}

type ProjectBreakdown struct {
	ID                 uint64  `json:"id"`
	Name               string  `json:"name"`
	CISystem           string  `json:"ci_system"`
	Executions         int     `json:"executions"`
	SuccessRate        float64 `json:"success_rate"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

type Overview struct {
	Overview         OverviewTotals     `json:"overview"`
	ProjectBreakdown []ProjectBreakdown `json:"project_breakdown"`
	Period           Period             `json:"period"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

type WindowStats struct {
	TotalExecutions    int     `json:"total_executions"`
	SuccessRate        float64 `json:"success_rate"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

type Changes struct {
	SuccessRateChange     float64 `json:"success_rate_change"`
	DurationChangePercent float64 `json:"duration_change_percent"`
	ExecutionCountChange  int     `json:"execution_count_change"`
}

type Comparison struct {
	ProjectID uint64      `json:"project_id"`
	Period    Period      `json:"period"`
	Current   WindowStats `json:"current"`
	Previous  WindowStats `json:"previous"`
	Changes   Changes     `json:"changes"`
}

type TrendBucket struct {
	Date               string  `json:"date"`
	Executions         int     `json:"executions"`
	SuccessRate        float64 `json:"success_rate"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	UniqueBranches     int     `json:"unique_branches"`
}
