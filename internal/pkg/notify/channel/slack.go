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

package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/go-resty/resty/v2"
)

const (
	slackUsername = "CI/CD Monitor"
	slackIcon     = ":gear:"
	alertTitle    = "CI/CD Pipeline Alert"
)

type SlackChannel struct {
	webhookURL  string
	frontendURL string
	client      *resty.Client
}

func NewSlackChannel(webhookURL, frontendURL string) *SlackChannel {
	return &SlackChannel{
		webhookURL:  webhookURL,
		frontendURL: frontendURL,
		client:      resty.New(),
	}
}

func (c *SlackChannel) Name() string { return model.ChannelSlack }

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAction struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

type slackAttachment struct {
	Color   string        `json:"color"`
	Title   string        `json:"title"`
	Text    string        `json:"text"`
	Fields  []slackField  `json:"fields"`
	Actions []slackAction `json:"actions"`
}

type slackPayload struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Attachments []slackAttachment `json:"attachments"`
}

func (c *SlackChannel) payload(alert *model.Alert) slackPayload {
	return slackPayload{
		Username:  slackUsername,
		IconEmoji: slackIcon,
		Attachments: []slackAttachment{{
			Color: SeverityColor(alert.Severity),
			Title: alertTitle,
			Text:  alert.Message,
			Fields: []slackField{
				{Title: "Project", Value: alert.ProjectName, Short: true},
				{Title: "Alert Type", Value: TypeLabel(alert.AlertType), Short: true},
				{Title: "Severity", Value: strings.ToUpper(string(alert.Severity)), Short: true},
				{Title: "Time", Value: formatTime(alert.Timestamp), Short: true},
			},
			Actions: []slackAction{{
				Type: "button",
				Text: "View Dashboard",
				URL:  DashboardURL(c.frontendURL, alert.ProjectID),
			}},
		}},
	}
}

func (c *SlackChannel) Send(ctx context.Context, alert *model.Alert) error {
	if err := c.Validate(); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(c.payload(alert)).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		log.Warnw("slack webhook rejected alert", "status", resp.StatusCode(), "body", resp.String())
		return fmt.Errorf("slack request failed with status %d", resp.StatusCode())
	}

	log.Infow("slack alert sent", "project", alert.ProjectName, "alertType", alert.AlertType)
	return nil
}

func (c *SlackChannel) Validate() error {
	if c.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}
	return nil
}
