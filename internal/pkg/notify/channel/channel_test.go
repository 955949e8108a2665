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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert() *model.Alert {
	return &model.Alert{
		AlertID:     "01HX",
		ProjectID:   7,
		ProjectName: "api",
		AlertType:   model.AlertConsecutiveFailures,
		Severity:    model.SeverityCritical,
		Message:     "Consecutive failures detected in api",
		Channels:    []string{model.ChannelSlack},
		Timestamp:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity model.Severity
		want     string
	}{
		{model.SeverityCritical, "#ff0000"},
		{model.SeverityHigh, "#ff6600"},
		{model.SeverityMedium, "#ffcc00"},
		{model.SeverityLow, "#00cc00"},
		{model.SeverityInfo, "#666666"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityColor(tt.severity), tt.severity)
	}
}

func TestTypeLabelAndDashboardURL(t *testing.T) {
	assert.Equal(t, "CONSECUTIVE FAILURES", TypeLabel(model.AlertConsecutiveFailures))
	assert.Equal(t, "http://localhost:3000/projects/7", DashboardURL("http://localhost:3000/", 7))
}

func TestSlackChannel_Send(t *testing.T) {
	var got slackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(body, &got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ch := NewSlackChannel(srv.URL, "https://dash.example.com")
	require.NoError(t, ch.Send(context.Background(), testAlert()))

	assert.Equal(t, "CI/CD Monitor", got.Username)
	assert.Equal(t, ":gear:", got.IconEmoji)
	require.Len(t, got.Attachments, 1)
	att := got.Attachments[0]
	assert.Equal(t, "#ff0000", att.Color)
	assert.Equal(t, "CI/CD Pipeline Alert", att.Title)
	assert.Equal(t, "Consecutive failures detected in api", att.Text)
	require.Len(t, att.Fields, 4)
	assert.Equal(t, "CRITICAL", att.Fields[2].Value)
	require.Len(t, att.Actions, 1)
	assert.Equal(t, "https://dash.example.com/projects/7", att.Actions[0].URL)
}

func TestSlackChannel_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlackChannel(srv.URL, "").Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	err = NewSlackChannel("", "").Send(context.Background(), testAlert())
	assert.EqualError(t, err, "slack webhook URL not configured")
}

func TestSlackChannel_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, NewSlackChannel(srv.URL, "").Send(ctx, testAlert()))
}

func TestEmailChannel_Compose(t *testing.T) {
	var sent []byte
	var settings EmailSettings
	ch := NewEmailChannel(EmailSettings{Host: "smtp.example.com", User: "ops@example.com"}, "http://localhost:3000").
		WithSender(func(_ context.Context, s EmailSettings, msg []byte) error {
			settings, sent = s, msg
			return nil
		})
	require.NoError(t, ch.Send(context.Background(), testAlert()))

	assert.Equal(t, 587, settings.Port)
	assert.Equal(t, "ops@example.com", settings.From)
	assert.Equal(t, []string{"ops@example.com"}, settings.To)
	msg := string(sent)
	assert.Contains(t, msg, "Subject: [CI/CD Alert] CRITICAL: api - consecutive_failures\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "http://localhost:3000/projects/7")
	assert.True(t, strings.Contains(msg, "CONSECUTIVE FAILURES"))
}

func TestEmailChannel_NotConfigured(t *testing.T) {
	err := NewEmailChannel(EmailSettings{}, "").Send(context.Background(), testAlert())
	assert.EqualError(t, err, "email transporter not configured")
}
