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

const (
	CISystemGitHub = "github"
)

// Project is a monitored repository. Deleting a project only clears IsActive.
type Project struct {
	BaseModel
	Name              string `gorm:"column:name;size:255;not null;uniqueIndex:uk_project_name_ci,priority:1" json:"name"`
	RepositoryURL     string `gorm:"column:repository_url;size:500;index:idx_project_repo" json:"repository_url"`
	CISystem          string `gorm:"column:ci_system;size:50;not null;uniqueIndex:uk_project_name_ci,priority:2" json:"ci_system"`
	WebhookSecret     string `gorm:"column:webhook_secret;size:255" json:"-"`
	APITokenEncrypted string `gorm:"column:api_token_encrypted;type:text" json:"-"`
	IsActive          bool   `gorm:"column:is_active;not null" json:"is_active"`
}

func (Project) TableName() string {
	return "t_project"
}

type CreateProjectReq struct {
	Name              string `json:"name"`
	RepositoryURL     string `json:"repository_url"`
	CISystem          string `json:"ci_system"`
	WebhookSecret     string `json:"webhook_secret"`
	APITokenEncrypted string `json:"api_token_encrypted"`
}

// UpdateProjectReq only touches the fields that are set.
type UpdateProjectReq struct {
	Name              *string `json:"name"`
	RepositoryURL     *string `json:"repository_url"`
	CISystem          *string `json:"ci_system"`
	WebhookSecret     *string `json:"webhook_secret"`
	APITokenEncrypted *string `json:"api_token_encrypted"`
	IsActive          *bool   `json:"is_active"`
}

// ProjectStats is the all-time execution summary shown next to a project.
type ProjectStats struct {
	TotalExecutions      int64      `json:"total_executions"`
	SuccessfulExecutions int64      `json:"successful_executions"`
	FailedExecutions     int64      `json:"failed_executions"`
	SuccessRate          float64    `json:"success_rate"`
	AvgDuration          float64    `json:"avg_duration"`
	MinDuration          *int       `json:"min_duration,omitempty"`
	MaxDuration          *int       `json:"max_duration,omitempty"`
	LastExecution        *Execution `json:"last_execution,omitempty"`
}

type ProjectDetail struct {
	*Project
	Stats            ProjectStats `json:"stats"`
	RecentExecutions []*Execution `json:"recent_executions,omitempty"`
}
