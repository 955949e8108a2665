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

package webhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo/repotest"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	"github.com/go-arcade/pulse/internal/engine/service/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globalSecret = "s3cret"

func newHook(t *testing.T) (*GitHub, *repotest.Store, *model.Project) {
	t.Helper()
	store := repotest.New()
	project := store.AddProject("api")
	svc := execution.NewService(store.Repositories(), nil, nil, &broadcast.Recorder{})
	return NewGitHub(store.Projects(), svc, config.WebhookConfig{GithubSecret: globalSecret}), store, project
}

func payload(repoURL, status, conclusion string) []byte {
	return []byte(fmt.Sprintf(`{
		"action": "completed",
		"repository": {"html_url": %q},
		"workflow_run": {
			"id": 987654,
			"name": "CI",
			"head_branch": "main",
			"head_sha": "abc123",
			"status": %q,
			"conclusion": %q,
			"event": "push",
			"html_url": "https://github.com/acme/api/actions/runs/987654",
			"jobs_url": "https://api.github.com/repos/acme/api/actions/runs/987654/jobs",
			"created_at": "2025-03-10T10:00:00Z",
			"updated_at": "2025-03-10T10:04:30Z",
			"actor": {"login": "octocat"}
		}
	}`, repoURL, status, conclusion))
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status, conclusion string
		want               model.ExecutionStatus
	}{
		{"queued", "", model.StatusPending},
		{"in_progress", "", model.StatusRunning},
		{"completed", "success", model.StatusSuccess},
		{"completed", "failure", model.StatusFailure},
		{"completed", "timed_out", model.StatusFailure},
		{"cancelled", "", model.StatusCancelled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.status, tt.conclusion), tt.status+"/"+tt.conclusion)
	}
}

func TestHandle_Signature(t *testing.T) {
	hook, _, project := newHook(t)
	body := payload(project.RepositoryURL, "queued", "")

	_, err := hook.Handle(context.Background(), body, "")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = hook.Handle(context.Background(), body, Sign("wrong", body))
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	res, err := hook.Handle(context.Background(), body, Sign(globalSecret, body))
	require.NoError(t, err)
	assert.Equal(t, MsgProcessed, res.Message)
}

func TestHandle_ProjectSecretWins(t *testing.T) {
	hook, store, project := newHook(t)
	require.NoError(t, store.Projects().Update(context.Background(), project.ID, map[string]any{"webhook_secret": "per-project"}))
	body := payload(project.RepositoryURL, "queued", "")

	_, err := hook.Handle(context.Background(), body, Sign(globalSecret, body))
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = hook.Handle(context.Background(), body, Sign("per-project", body))
	assert.NoError(t, err)
}

func TestHandle_Ignored(t *testing.T) {
	hook, _, project := newHook(t)
	ctx := context.Background()

	ping := []byte(`{"zen":"Keep it logically awesome.","repository":{"html_url":"` + project.RepositoryURL + `"}}`)
	res, err := hook.Handle(ctx, ping, Sign(globalSecret, ping))
	require.NoError(t, err)
	assert.Equal(t, MsgIgnored, res.Message)

	unknown := payload("https://github.com/acme/other", "queued", "")
	res, err = hook.Handle(ctx, unknown, Sign(globalSecret, unknown))
	require.NoError(t, err)
	assert.Equal(t, MsgProjectNotFound, res.Message)

	_, err = hook.Handle(ctx, []byte("{"), "sha256=00")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestHandle_CompletedRunWithStep(t *testing.T) {
	hook, store, project := newHook(t)
	ctx := context.Background()

	body := payload(project.RepositoryURL, "completed", "failure")
	res, err := hook.Handle(ctx, body, Sign(globalSecret, body))
	require.NoError(t, err)
	require.NotNil(t, res.Execution)

	e := res.Execution
	assert.Equal(t, "987654", e.ExecutionID)
	assert.Equal(t, model.StatusFailure, e.Status)
	assert.Equal(t, 270, *e.DurationSeconds)
	assert.Equal(t, "octocat", e.TriggeredBy)
	assert.Equal(t, "push", e.TriggerType)

	steps, err := store.Steps().ListByExecution(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "CI", steps[0].StepName)
	assert.Equal(t, 1, steps[0].StepOrder)

	// a late in_progress delivery must not move the run backwards
	late := payload(project.RepositoryURL, "in_progress", "")
	res, err = hook.Handle(ctx, late, Sign(globalSecret, late))
	require.NoError(t, err)
	assert.Equal(t, MsgStale, res.Message)
	assert.Equal(t, model.StatusFailure, res.Execution.Status)
}
