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

// Package channel holds the notification channel capability and the
// built-in Slack and email channels.
package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
)

type Channel interface {
	// Name is the key used in notification_channels.
	Name() string
	// Send delivers one alert. It must honour ctx cancellation.
	Send(ctx context.Context, alert *model.Alert) error
	// Validate reports missing configuration.
	Validate() error
}

// SeverityColor is the hex color used by both channels.
func SeverityColor(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "#ff0000"
	case model.SeverityHigh:
		return "#ff6600"
	case model.SeverityMedium:
		return "#ffcc00"
	case model.SeverityLow:
		return "#00cc00"
	default:
		return "#666666"
	}
}

// TypeLabel renders failure_rate as FAILURE RATE.
func TypeLabel(t model.AlertType) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " "))
}

func DashboardURL(frontendURL string, projectID uint64) string {
	return fmt.Sprintf("%s/projects/%d", strings.TrimRight(frontendURL, "/"), projectID)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
