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

package project

import (
	"context"
	"testing"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func secs(v int) *int { return &v }

func TestCreateProject(t *testing.T) {
	store := repotest.New()
	svc := NewProjectService(store.Repositories())
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.CreateProjectReq
		kind error
	}{
		{"ok", model.CreateProjectReq{Name: "api", CISystem: "github", RepositoryURL: "https://github.com/acme/api"}, nil},
		{"duplicate", model.CreateProjectReq{Name: "api", CISystem: "github"}, errs.ErrConflict},
		{"no name", model.CreateProjectReq{CISystem: "github"}, errs.ErrValidation},
		{"unknown ci", model.CreateProjectReq{Name: "web", CISystem: "jenkins"}, errs.ErrValidation},
		{"bad url", model.CreateProjectReq{Name: "web", CISystem: "github", RepositoryURL: "not a url"}, errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.CreateProject(ctx, &tt.req)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.IsActive)
			assert.NotZero(t, p.ID)
		})
	}
}

func TestListAndGetProject(t *testing.T) {
	store := repotest.New()
	svc := NewProjectService(store.Repositories())
	ctx := context.Background()
	api := store.AddProject("api")
	store.AddProject("idle")
	for i, st := range []model.ExecutionStatus{model.StatusSuccess, model.StatusSuccess, model.StatusFailure} {
		store.AddExecution(&model.Execution{ProjectID: api.ID, ExecutionID: string(rune('a' + i)), Status: st,
			DurationSeconds: secs(60 * (i + 1))})
	}

	list, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	byName := map[string]*ProjectWithStats{}
	for _, p := range list {
		byName[p.Name] = p
	}
	assert.Equal(t, int64(3), byName["api"].Stats.TotalExecutions)
	assert.Equal(t, 66.7, byName["api"].Stats.SuccessRate)
	assert.Equal(t, 120.0, byName["api"].Stats.AvgDuration)
	assert.NotNil(t, byName["api"].Stats.LastExecution)
	assert.Zero(t, byName["idle"].Stats.SuccessRate)
	assert.Nil(t, byName["idle"].Stats.LastExecution)

	detail, err := svc.GetProject(ctx, api.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Stats.FailedExecutions)
	assert.Equal(t, 180, *detail.Stats.MaxDuration)
	assert.Len(t, detail.RecentExecutions, 3)

	_, err = svc.GetProject(ctx, 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateAndDeleteProject(t *testing.T) {
	store := repotest.New()
	svc := NewProjectService(store.Repositories())
	ctx := context.Background()
	p := store.AddProject("api")

	_, err := svc.UpdateProject(ctx, p.ID, &model.UpdateProjectReq{})
	assert.ErrorIs(t, err, errs.ErrValidation)

	name := "api-v2"
	updated, err := svc.UpdateProject(ctx, p.ID, &model.UpdateProjectReq{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "api-v2", updated.Name)

	_, err = svc.UpdateProject(ctx, 99, &model.UpdateProjectReq{Name: &name})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, svc.DeleteProject(ctx, p.ID))
	list, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, svc.DeleteProject(ctx, 99), errs.ErrNotFound)
}
