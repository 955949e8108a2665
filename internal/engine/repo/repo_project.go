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

package repo

import (
	"context"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
)

type IProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id uint64) (*model.Project, error)
	Update(ctx context.Context, id uint64, updates map[string]any) error
	Deactivate(ctx context.Context, id uint64) error
	ListActive(ctx context.Context) ([]*model.Project, error)
	ListByIDs(ctx context.Context, ids []uint64) ([]*model.Project, error)
	FindByRepository(ctx context.Context, repositoryURL, ciSystem string) (*model.Project, error)
}

type ProjectRepo struct {
	database.IDatabase
}

func NewProjectRepo(db database.IDatabase) IProjectRepository {
	return &ProjectRepo{IDatabase: db}
}

// Create 创建项目，(name, ci_system) 重复时返回 ErrConflict
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	err := r.Database().WithContext(ctx).Create(p).Error
	return translate(err, "project %q already exists for %s", p.Name, p.CISystem)
}

// Get 根据 ID 获取项目，不过滤 is_active
func (r *ProjectRepo) Get(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	err := r.Database().WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, translate(err, "project %d not found", id)
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id uint64, updates map[string]any) error {
	err := r.Database().WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
	return translate(err, "project %d conflicts with an existing project", id)
}

// Deactivate 软删除
func (r *ProjectRepo) Deactivate(ctx context.Context, id uint64) error {
	return r.Database().WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *ProjectRepo) ListActive(ctx context.Context) ([]*model.Project, error) {
	var projects []*model.Project
	err := database.ReadDB(r.Database().WithContext(ctx)).
		Where("is_active = ?", true).
		Order("created_at DESC").Order("id DESC").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepo) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Project, error) {
	var projects []*model.Project
	if len(ids) == 0 {
		return projects, nil
	}
	err := database.ReadDB(r.Database().WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&projects).Error
	return projects, err
}

// FindByRepository matches an active project by its repository url.
func (r *ProjectRepo) FindByRepository(ctx context.Context, repositoryURL, ciSystem string) (*model.Project, error) {
	var p model.Project
	err := r.Database().WithContext(ctx).
		Where("repository_url = ? AND ci_system = ? AND is_active = ?", repositoryURL, ciSystem, true).
		First(&p).Error
	if err != nil {
		return nil, translate(err, "no %s project for repository %s", ciSystem, repositoryURL)
	}
	return &p, nil
}
