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

package broadcast

import (
	"fmt"
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
)

const (
	EventExecutionUpdated        = "execution_updated"
	EventMetricsUpdated          = "metrics_updated"
	EventAlertTriggered          = "alert_triggered"
	EventSystemStatus            = "system_status"
	EventConnected               = "connected"
	EventSubscriptionConfirmed   = "subscription_confirmed"
	EventUnsubscriptionConfirmed = "unsubscription_confirmed"
	EventPong                    = "pong"
	EventError                   = "error"
)

const GlobalRoom = "global_updates"

func ProjectRoom(projectID uint64) string {
	return fmt.Sprintf("project_%d", projectID)
}

// Event is the envelope written to every subscriber.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans state changes out to live dashboard clients. Calls never
// block the caller on delivery.
type Broadcaster interface {
	ExecutionUpdated(e *model.Execution)
	MetricsUpdated(projectID uint64, metrics any)
	AlertTriggered(a *model.Alert)
	SystemStatus(status any)
}

type ExecutionUpdate struct {
	ID              uint64                `json:"id"`
	ProjectID       uint64                `json:"project_id"`
	ExecutionID     string                `json:"execution_id"`
	Status          model.ExecutionStatus `json:"status"`
	Branch          string                `json:"branch"`
	DurationSeconds *int                  `json:"duration_seconds"`
	StartedAt       *time.Time            `json:"started_at"`
	CompletedAt     *time.Time            `json:"completed_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func executionUpdate(e *model.Execution) ExecutionUpdate {
	return ExecutionUpdate{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		ExecutionID:     e.ExecutionID,
		Status:          e.Status,
		Branch:          e.Branch,
		DurationSeconds: e.DurationSeconds,
		StartedAt:       e.StartedAt,
		CompletedAt:     e.CompletedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

type MetricsUpdate struct {
	ProjectID uint64 `json:"project_id"`
	Metrics   any    `json:"metrics"`
}

// Nop drops every event.
type Nop struct{}

func (Nop) ExecutionUpdated(*model.Execution) {}
func (Nop) MetricsUpdated(uint64, any)        {}
func (Nop) AlertTriggered(*model.Alert)       {}
func (Nop) SystemStatus(any)                  {}
