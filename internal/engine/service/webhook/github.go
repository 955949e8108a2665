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

// Package webhook turns CI system callbacks into execution upserts.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/execution"
	"github.com/go-arcade/pulse/pkg/log"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="

	SourceGitHub = "github"

	MsgIgnored         = "Event ignored"
	MsgProjectNotFound = "Project not found"
	MsgStale           = "stale event ignored"
	MsgProcessed       = "Webhook processed successfully"
)

// Ingester is the part of the execution service a webhook writes through.
type Ingester interface {
	Upsert(ctx context.Context, e *model.Execution, source string) (*model.Execution, bool, error)
	UpsertStep(ctx context.Context, executionID uint64, req *execution.StepReq) (*model.Step, error)
}

type workflowRun struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	HeadBranch string     `json:"head_branch"`
	HeadSHA    string     `json:"head_sha"`
	Status     string     `json:"status"`
	Conclusion string     `json:"conclusion"`
	Event      string     `json:"event"`
	HTMLURL    string     `json:"html_url"`
	JobsURL    string     `json:"jobs_url"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	Actor      *struct {
		Login string `json:"login"`
	} `json:"actor"`
}

type githubEvent struct {
	Action      string       `json:"action"`
	WorkflowRun *workflowRun `json:"workflow_run"`
	Repository  *struct {
		HTMLURL string `json:"html_url"`
	} `json:"repository"`
}

// Result tells the caller what happened to the delivery.
type Result struct {
	Message   string           `json:"message"`
	Execution *model.Execution `json:"execution,omitempty"`
}

type GitHub struct {
	projects repo.IProjectRepository
	ingester Ingester
	secret   string
}

func NewGitHub(projects repo.IProjectRepository, ingester Ingester, conf config.WebhookConfig) *GitHub {
	return &GitHub{projects: projects, ingester: ingester, secret: conf.GithubSecret}
}

// Sign returns the X-Hub-Signature-256 value of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func verify(secret, signature string, body []byte) error {
	if signature == "" {
		return errs.Unauthorized("Missing signature")
	}
	if secret == "" {
		return errs.Unauthorized("webhook secret not configured")
	}
	if !hmac.Equal([]byte(signature), []byte(Sign(secret, body))) {
		return errs.Unauthorized("Invalid signature")
	}
	return nil
}

// MapStatus converts a workflow_run status into the execution vocabulary.
func MapStatus(status, conclusion string) model.ExecutionStatus {
	switch status {
	case "queued", "waiting", "requested", "pending":
		return model.StatusPending
	case "in_progress":
		return model.StatusRunning
	case "completed":
		if conclusion == "success" {
			return model.StatusSuccess
		}
		return model.StatusFailure
	case "cancelled":
		return model.StatusCancelled
	}
	return model.ExecutionStatus(status)
}

// Handle verifies and ingests one delivery. The body must be the raw request
// bytes the signature was computed over.
func (g *GitHub) Handle(ctx context.Context, body []byte, signature string) (*Result, error) {
	var evt githubEvent
	if err := sonic.Unmarshal(body, &evt); err != nil {
		return nil, errs.Validation("malformed webhook payload: %v", err)
	}

	// the per-project secret can only be looked up after parsing
	var project *model.Project
	if evt.Repository != nil && evt.Repository.HTMLURL != "" {
		p, err := g.projects.FindByRepository(ctx, evt.Repository.HTMLURL, model.CISystemGitHub)
		if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		project = p
	}
	secret := g.secret
	if project != nil && project.WebhookSecret != "" {
		secret = project.WebhookSecret
	}
	if err := verify(secret, signature, body); err != nil {
		return nil, err
	}

	run := evt.WorkflowRun
	if run == nil {
		return &Result{Message: MsgIgnored}, nil
	}
	if project == nil {
		log.Infow("no project for repository", "repository", repositoryURL(&evt))
		return &Result{Message: MsgProjectNotFound}, nil
	}

	e := &model.Execution{
		ProjectID:   project.ID,
		ExecutionID: strconv.FormatInt(run.ID, 10),
		Branch:      run.HeadBranch,
		CommitSHA:   run.HeadSHA,
		Status:      MapStatus(run.Status, run.Conclusion),
		StartedAt:   run.CreatedAt,
		CompletedAt: run.UpdatedAt,
		TriggerType: run.Event,
		RawData:     body,
	}
	if run.Actor != nil {
		e.TriggeredBy = run.Actor.Login
	}
	if run.CreatedAt != nil && run.UpdatedAt != nil {
		d := int(math.Round(run.UpdatedAt.Sub(*run.CreatedAt).Seconds()))
		e.DurationSeconds = &d
	}

	stored, applied, err := g.ingester.Upsert(ctx, e, SourceGitHub)
	if err != nil {
		return nil, err
	}
	if !applied {
		return &Result{Message: MsgStale, Execution: stored}, nil
	}

	if run.JobsURL != "" {
		name := strings.TrimSpace(run.Name)
		if name == "" {
			name = "Workflow"
		}
		_, err := g.ingester.UpsertStep(ctx, stored.ID, &execution.StepReq{
			StepName:        name,
			Status:          stored.Status,
			StartedAt:       run.CreatedAt,
			CompletedAt:     run.UpdatedAt,
			DurationSeconds: e.DurationSeconds,
			LogsURL:         run.HTMLURL,
			StepOrder:       1,
		})
		if err != nil {
			return nil, err
		}
	}
	return &Result{Message: MsgProcessed, Execution: stored}, nil
}

func repositoryURL(evt *githubEvent) string {
	if evt.Repository == nil {
		return ""
	}
	return evt.Repository.HTMLURL
}
