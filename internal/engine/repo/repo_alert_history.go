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
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
)

type IAlertHistoryRepository interface {
	Create(ctx context.Context, h *model.AlertHistory) error
	List(ctx context.Context, q *model.AlertHistoryQuery) ([]*model.AlertHistory, int64, error)
	ListSince(ctx context.Context, since time.Time) ([]*model.AlertHistory, error)
}

type AlertHistoryRepo struct {
	database.IDatabase
}

func NewAlertHistoryRepo(db database.IDatabase) IAlertHistoryRepository {
	return &AlertHistoryRepo{IDatabase: db}
}

func (r *AlertHistoryRepo) Create(ctx context.Context, h *model.AlertHistory) error {
	if h.SentAt.IsZero() {
		h.SentAt = time.Now()
	}
	return r.Database().WithContext(ctx).Create(h).Error
}

func (r *AlertHistoryRepo) List(ctx context.Context, q *model.AlertHistoryQuery) ([]*model.AlertHistory, int64, error) {
	var (
		rows  []*model.AlertHistory
		total int64
	)
	db := database.ReadDB(r.Database().WithContext(ctx)).Model(&model.AlertHistory{})
	if q.ProjectID != 0 {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if q.AlertType != "" {
		db = db.Where("alert_type = ?", q.AlertType)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit, offset := clampPage(q.Limit, q.Offset, 50, 500)
	err := db.Order("sent_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *AlertHistoryRepo) ListSince(ctx context.Context, since time.Time) ([]*model.AlertHistory, error) {
	var rows []*model.AlertHistory
	err := database.ReadDB(r.Database().WithContext(ctx)).
		Where("sent_at >= ?", since).
		Order("sent_at ASC").
		Find(&rows).Error
	return rows, err
}
