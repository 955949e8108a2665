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
	"net/url"
	"strings"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/pkg/log"
	"golang.org/x/sync/errgroup"
)

const (
	recentExecutions = 10
	statsParallelism = 8
	maxNameLength    = 255
)

var supportedCISystems = map[string]bool{model.CISystemGitHub: true}

type ProjectService struct {
	projects   repo.IProjectRepository
	executions repo.IExecutionRepository
}

func NewProjectService(repos *repo.Repositories) *ProjectService {
	return &ProjectService{projects: repos.Project, executions: repos.Execution}
}

// ProjectWithStats is one row of the project listing.
type ProjectWithStats struct {
	*model.Project
	Stats model.ProjectStats `json:"stats"`
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.Validation("name is required")
	}
	if len(name) > maxNameLength {
		return errs.Validation("name must be at most %d characters", maxNameLength)
	}
	return nil
}

func validateCISystem(ci string) error {
	if !supportedCISystems[ci] {
		return errs.Validation("ci_system must be one of [github]")
	}
	return nil
}

func validateRepositoryURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errs.Validation("repository_url must be a valid uri")
	}
	return nil
}

// CreateProject 创建项目，(name, ci_system) 重复时返回 ErrConflict
func (s *ProjectService) CreateProject(ctx context.Context, req *model.CreateProjectReq) (*model.Project, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if err := validateCISystem(req.CISystem); err != nil {
		return nil, err
	}
	if err := validateRepositoryURL(req.RepositoryURL); err != nil {
		return nil, err
	}
	p := &model.Project{
		Name:              strings.TrimSpace(req.Name),
		RepositoryURL:     req.RepositoryURL,
		CISystem:          req.CISystem,
		WebhookSecret:     req.WebhookSecret,
		APITokenEncrypted: req.APITokenEncrypted,
		IsActive:          true,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		if !errs.IsConflict(err) {
			log.Errorw("create project failed", "name", p.Name, "error", err)
		}
		return nil, err
	}
	log.Infow("project created", "projectId", p.ID, "name", p.Name)
	return p, nil
}

// ListProjects 列出活跃项目及其统计
func (s *ProjectService) ListProjects(ctx context.Context) ([]*ProjectWithStats, error) {
	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ProjectWithStats, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsParallelism)
	for i, p := range projects {
		g.Go(func() error {
			stats, err := s.stats(gctx, p.ID)
			if err != nil {
				return err
			}
			// the listing only carries the short form
			stats.FailedExecutions = 0
			stats.MinDuration, stats.MaxDuration = nil, nil
			out[i] = &ProjectWithStats{Project: p, Stats: *stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProjectService) stats(ctx context.Context, projectID uint64) (*model.ProjectStats, error) {
	stats, err := s.executions.Stats(ctx, projectID)
	if err != nil {
		return nil, err
	}
	last, err := s.executions.Latest(ctx, projectID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, err
	}
	if last != nil {
		stats.LastExecution = last.Decorate()
	}
	return stats, nil
}

// GetProject 项目详情，包含最近 10 次执行
func (s *ProjectService) GetProject(ctx context.Context, id uint64) (*model.ProjectDetail, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.executions.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.executions.Recent(ctx, id, recentExecutions)
	if err != nil {
		return nil, err
	}
	for _, e := range recent {
		e.Decorate()
	}
	if recent == nil {
		recent = []*model.Execution{}
	}
	return &model.ProjectDetail{Project: p, Stats: *stats, RecentExecutions: recent}, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, id uint64, req *model.UpdateProjectReq) (*model.Project, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return nil, err
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.RepositoryURL != nil {
		if err := validateRepositoryURL(*req.RepositoryURL); err != nil {
			return nil, err
		}
		updates["repository_url"] = *req.RepositoryURL
	}
	if req.CISystem != nil {
		if err := validateCISystem(*req.CISystem); err != nil {
			return nil, err
		}
		updates["ci_system"] = *req.CISystem
	}
	if req.WebhookSecret != nil {
		updates["webhook_secret"] = *req.WebhookSecret
	}
	if req.APITokenEncrypted != nil {
		updates["api_token_encrypted"] = *req.APITokenEncrypted
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, errs.Validation("No valid fields to update")
	}

	if _, err := s.projects.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.projects.Get(ctx, id)
}

// DeleteProject 软删除项目
func (s *ProjectService) DeleteProject(ctx context.Context, id uint64) error {
	if _, err := s.projects.Get(ctx, id); err != nil {
		return err
	}
	if err := s.projects.Deactivate(ctx, id); err != nil {
		return err
	}
	log.Infow("project deactivated", "projectId", id)
	return nil
}
