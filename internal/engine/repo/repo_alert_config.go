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

type IAlertConfigRepository interface {
	Create(ctx context.Context, c *model.AlertConfig) error
	Get(ctx context.Context, id uint64) (*model.AlertConfig, error)
	Update(ctx context.Context, id uint64, updates map[string]any) error
	Delete(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, projectID uint64) ([]*model.AlertConfig, error)
	ListEnabled(ctx context.Context, projectID uint64) ([]*model.AlertConfig, error)
}

type AlertConfigRepo struct {
	database.IDatabase
}

func NewAlertConfigRepo(db database.IDatabase) IAlertConfigRepository {
	return &AlertConfigRepo{IDatabase: db}
}

func (r *AlertConfigRepo) Create(ctx context.Context, c *model.AlertConfig) error {
	return r.Database().WithContext(ctx).Create(c).Error
}

func (r *AlertConfigRepo) Get(ctx context.Context, id uint64) (*model.AlertConfig, error) {
	var c model.AlertConfig
	if err := r.Database().WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err, "alert config %d not found", id)
	}
	return &c, nil
}

func (r *AlertConfigRepo) Update(ctx context.Context, id uint64, updates map[string]any) error {
	return r.Database().WithContext(ctx).Model(&model.AlertConfig{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete 物理删除，返回是否存在
func (r *AlertConfigRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.Database().WithContext(ctx).Where("id = ?", id).Delete(&model.AlertConfig{})
	return res.RowsAffected > 0, res.Error
}

// List 0 表示全部项目
func (r *AlertConfigRepo) List(ctx context.Context, projectID uint64) ([]*model.AlertConfig, error) {
	var configs []*model.AlertConfig
	db := database.ReadDB(r.Database().WithContext(ctx))
	if projectID != 0 {
		db = db.Where("project_id = ?", projectID)
	}
	err := db.Order("created_at DESC").Order("id DESC").Find(&configs).Error
	return configs, err
}

func (r *AlertConfigRepo) ListEnabled(ctx context.Context, projectID uint64) ([]*model.AlertConfig, error) {
	var configs []*model.AlertConfig
	err := r.Database().WithContext(ctx).
		Where("project_id = ? AND is_enabled = ?", projectID, true).
		Order("id ASC").
		Find(&configs).Error
	return configs, err
}
