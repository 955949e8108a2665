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
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/log"
)

const implicitTLSPort = 465

type EmailSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// SendFunc delivers a composed message. The default dials the SMTP server.
type SendFunc func(ctx context.Context, s EmailSettings, msg []byte) error

type EmailChannel struct {
	settings    EmailSettings
	frontendURL string
	send        SendFunc
}

// NewEmailChannel fills From and To from User when they are empty.
func NewEmailChannel(s EmailSettings, frontendURL string) *EmailChannel {
	if s.Port == 0 {
		s.Port = 587
	}
	if s.From == "" {
		s.From = s.User
	}
	if len(s.To) == 0 && s.User != "" {
		s.To = []string{s.User}
	}
	return &EmailChannel{settings: s, frontendURL: frontendURL, send: sendSMTP}
}

// WithSender replaces the SMTP transport.
func (c *EmailChannel) WithSender(fn SendFunc) *EmailChannel {
	c.send = fn
	return c
}

func (c *EmailChannel) Name() string { return model.ChannelEmail }

func (c *EmailChannel) Validate() error {
	if c.settings.Host == "" {
		return fmt.Errorf("email transporter not configured")
	}
	if c.settings.From == "" {
		return fmt.Errorf("email sender address is required")
	}
	if len(c.settings.To) == 0 {
		return fmt.Errorf("email recipients are required")
	}
	return nil
}

// Subject is [CI/CD Alert] SEVERITY: project - type.
func Subject(alert *model.Alert) string {
	return fmt.Sprintf("[CI/CD Alert] %s: %s - %s",
		strings.ToUpper(string(alert.Severity)), alert.ProjectName, alert.AlertType)
}

var emailBody = template.Must(template.New("alert").Parse(`<h2 style="color: {{.Color}};">CI/CD Pipeline Alert</h2>
<p><strong>Project:</strong> {{.Project}}</p>
<p><strong>Alert Type:</strong> {{.Type}}</p>
<p><strong>Message:</strong> {{.Message}}</p>
<p><strong>Severity:</strong> {{.Severity}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><a href="{{.URL}}" style="background: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 4px;">View Dashboard</a></p>
`))

func (c *EmailChannel) compose(alert *model.Alert) ([]byte, error) {
	var body bytes.Buffer
	err := emailBody.Execute(&body, map[string]string{
		"Color":    SeverityColor(alert.Severity),
		"Project":  alert.ProjectName,
		"Type":     TypeLabel(alert.AlertType),
		"Message":  alert.Message,
		"Severity": strings.ToUpper(string(alert.Severity)),
		"Time":     formatTime(alert.Timestamp),
		"URL":      DashboardURL(c.frontendURL, alert.ProjectID),
	})
	if err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	msg.WriteString("From: " + c.settings.From + "\r\n")
	msg.WriteString("To: " + strings.Join(c.settings.To, ", ") + "\r\n")
	msg.WriteString("Subject: " + Subject(alert) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func (c *EmailChannel) Send(ctx context.Context, alert *model.Alert) error {
	if err := c.Validate(); err != nil {
		return err
	}
	msg, err := c.compose(alert)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	if err := c.send(ctx, c.settings, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Infow("email alert sent", "project", alert.ProjectName, "recipients", len(c.settings.To))
	return nil
}

// sendSMTP uses STARTTLS when offered, implicit TLS on port 465.
func sendSMTP(ctx context.Context, s EmailSettings, msg []byte) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	dialer := &net.Dialer{}

	var conn net.Conn
	var err error
	if s.Port == implicitTLSPort {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if s.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return err
			}
		}
	}
	if s.User != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.User, s.Password, s.Host)); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(s.From); err != nil {
		return err
	}
	for _, to := range s.To {
		if err := client.Rcpt(to); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
