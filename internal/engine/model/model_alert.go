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
	"time"

	"gorm.io/datatypes"
)

type AlertType string

const (
	AlertFailureRate         AlertType = "failure_rate"
	AlertBuildDuration       AlertType = "build_duration"
	AlertConsecutiveFailures AlertType = "consecutive_failures"
	AlertQueueTime           AlertType = "queue_time"
	// AlertTest is only written by test sends, never configured.
	AlertTest AlertType = "test"
)

// Valid reports whether t can be used in an AlertConfig.
func (t AlertType) Valid() bool {
	switch t {
	case AlertFailureRate, AlertBuildDuration, AlertConsecutiveFailures, AlertQueueTime:
		return true
	}
	return false
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

func (t AlertType) Severity() Severity {
	switch t {
	case AlertConsecutiveFailures:
		return SeverityCritical
	case AlertFailureRate:
		return SeverityHigh
	case AlertBuildDuration, AlertQueueTime:
		return SeverityMedium
	default:
		return SeverityInfo
	}
}

const (
	ChannelSlack = "slack"
	ChannelEmail = "email"
)

// AlertConfig is a rule attached to a project.
type AlertConfig struct {
	BaseModel
	ProjectID            uint64                      `gorm:"column:project_id;not null;index:idx_alert_config_project_type,priority:1" json:"project_id"`
	AlertType            AlertType                   `gorm:"column:alert_type;size:50;not null;index:idx_alert_config_project_type,priority:2" json:"alert_type"`
	ThresholdValue       float64                     `gorm:"column:threshold_value;type:decimal(10,2);not null" json:"threshold_value"`
	NotificationChannels datatypes.JSONSlice[string] `gorm:"column:notification_channels" json:"notification_channels"`
	IsEnabled            bool                        `gorm:"column:is_enabled;not null" json:"is_enabled"`
	ConfigData           datatypes.JSON              `gorm:"column:config_data" json:"config_data,omitempty"`

	ProjectName string `gorm:"-" json:"project_name,omitempty"`
}

func (AlertConfig) TableName() string {
	return "t_alert_config"
}

type AlertConfigReq struct {
	ProjectID            uint64         `json:"project_id"`
	AlertType            AlertType      `json:"alert_type"`
	ThresholdValue       *float64       `json:"threshold_value"`
	NotificationChannels []string       `json:"notification_channels"`
	IsEnabled            *bool          `json:"is_enabled"`
	ConfigData           datatypes.JSON `json:"config_data"`
}

type UpdateAlertConfigReq struct {
	ThresholdValue       *float64       `json:"threshold_value"`
	NotificationChannels []string       `json:"notification_channels"`
	IsEnabled            *bool          `json:"is_enabled"`
	ConfigData           datatypes.JSON `json:"config_data"`
}

// AlertHistory is append-only. ExecutionID is a weak reference.
type AlertHistory struct {
	ID           uint64                      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID    uint64                      `gorm:"column:project_id;not null;index:idx_alert_history_project_sent,priority:1" json:"project_id"`
	ExecutionID  *uint64                     `gorm:"column:execution_id" json:"execution_id"`
	AlertType    AlertType                   `gorm:"column:alert_type;size:50;not null" json:"alert_type"`
	Message      string                      `gorm:"column:message;type:text;not null" json:"message"`
	ChannelsSent datatypes.JSONSlice[string] `gorm:"column:channels_sent" json:"channels_sent"`
	SentAt       time.Time                   `gorm:"column:sent_at;not null;index:idx_alert_history_project_sent,priority:2;index:idx_alert_history_sent" json:"sent_at"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	ProjectName string `gorm:"-" json:"project_name,omitempty"`
}

func (AlertHistory) TableName() string {
	return "t_alert_history"
}

type AlertHistoryQuery struct {
	ProjectID uint64
	AlertType string
	Limit     int
	Offset    int
}

type AlertDailyBreakdown struct {
	Date      string    `json:"date"`
	AlertType AlertType `json:"alert_type"`
	Count     int64     `json:"count"`
}

type AlertStats struct {
	Period                   string                 `json:"period"`
	TotalAlerts              int64                  `json:"total_alerts"`
	ProjectsWithAlerts       int64                  `json:"projects_with_alerts"`
	FailureRateAlerts        int64                  `json:"failure_rate_alerts"`
	DurationAlerts           int64                  `json:"duration_alerts"`
	ConsecutiveFailureAlerts int64                  `json:"consecutive_failure_alerts"`
	QueueTimeAlerts          int64                  `json:"queue_time_alerts"`
	DailyBreakdown           []*AlertDailyBreakdown `json:"daily_breakdown"`
}

// Alert is one fired alert instance. It is never persisted as is: the
// dispatcher records it as an AlertHistory row.
type Alert struct {
	AlertID        string         `json:"alert_id"`
	ProjectID      uint64         `json:"project_id"`
	ProjectName    string         `json:"project_name"`
	AlertType      AlertType      `json:"alert_type"`
	Severity       Severity       `json:"severity"`
	Message        string         `json:"message"`
	ThresholdValue float64        `json:"threshold_value"`
	Channels       []string       `json:"channels"`
	ExecutionID    *uint64        `json:"execution_id,omitempty"`
	Detail         map[string]any `json:"detail,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}
