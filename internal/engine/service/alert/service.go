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

package alert

import (
	"context"
	"sort"
	"time"

	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/pkg/log"
	"gorm.io/datatypes"
)

// Service manages alert configs and reads alert history.
type Service struct {
	projects repo.IProjectRepository
	configs  repo.IAlertConfigRepository
	history  repo.IAlertHistoryRepository
	now      func() time.Time
}

func NewService(repos *repo.Repositories) *Service {
	return &Service{
		projects: repos.Project,
		configs:  repos.AlertConfig,
		history:  repos.AlertHistory,
		now:      time.Now,
	}
}

// ValidateConfig checks type, threshold, channels and config_data shape.
func ValidateConfig(c *model.AlertConfig) error {
	if !c.AlertType.Valid() {
		return errs.Validation("alert_type must be one of failure_rate, build_duration, consecutive_failures, queue_time")
	}
	if len(c.NotificationChannels) == 0 {
		return errs.Validation("notification_channels must not be empty")
	}
	for _, ch := range c.NotificationChannels {
		if ch != model.ChannelSlack && ch != model.ChannelEmail {
			return errs.Validation("unknown notification channel %q", ch)
		}
	}
	_, err := ParseRule(c)
	return err
}

func (s *Service) CreateConfig(ctx context.Context, req *model.AlertConfigReq) (*model.AlertConfig, error) {
	if req.ThresholdValue == nil {
		return nil, errs.Validation("threshold_value is required")
	}
	project, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	cfg := &model.AlertConfig{
		ProjectID:            req.ProjectID,
		AlertType:            req.AlertType,
		ThresholdValue:       *req.ThresholdValue,
		NotificationChannels: datatypes.JSONSlice[string](req.NotificationChannels),
		IsEnabled:            true,
		ConfigData:           req.ConfigData,
	}
	if req.IsEnabled != nil {
		cfg.IsEnabled = *req.IsEnabled
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}
	cfg.ProjectName = project.Name
	log.Infow("alert config created", "configId", cfg.ID, "projectId", cfg.ProjectID, "alertType", cfg.AlertType)
	return cfg, nil
}

func (s *Service) GetConfig(ctx context.Context, id uint64) (*model.AlertConfig, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p, err := s.projects.Get(ctx, cfg.ProjectID); err == nil {
		cfg.ProjectName = p.Name
	}
	return cfg, nil
}

// UpdateConfig applies the non-nil fields and revalidates the result.
func (s *Service) UpdateConfig(ctx context.Context, id uint64, req *model.UpdateAlertConfigReq) (*model.AlertConfig, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := make(map[string]any)
	if req.ThresholdValue != nil {
		cfg.ThresholdValue = *req.ThresholdValue
		updates["threshold_value"] = *req.ThresholdValue
	}
	if req.NotificationChannels != nil {
		cfg.NotificationChannels = datatypes.JSONSlice[string](req.NotificationChannels)
		updates["notification_channels"] = cfg.NotificationChannels
	}
	if req.IsEnabled != nil {
		cfg.IsEnabled = *req.IsEnabled
		updates["is_enabled"] = *req.IsEnabled
	}
	if req.ConfigData != nil {
		cfg.ConfigData = req.ConfigData
		updates["config_data"] = req.ConfigData
	}
	if len(updates) == 0 {
		return nil, errs.Validation("No valid fields to update")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.configs.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.GetConfig(ctx, id)
}

func (s *Service) DeleteConfig(ctx context.Context, id uint64) error {
	ok, err := s.configs.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("alert config %d not found", id)
	}
	return nil
}

// ListConfigs lists configs of one project, or all when projectID is 0.
func (s *Service) ListConfigs(ctx context.Context, projectID uint64) ([]*model.AlertConfig, error) {
	cfgs, err := s.configs.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(cfgs))
	for _, c := range cfgs {
		ids = append(ids, c.ProjectID)
	}
	names, err := s.projectNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range cfgs {
		c.ProjectName = names[c.ProjectID]
	}
	return cfgs, nil
}

func (s *Service) projectNames(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	seen := make(map[uint64]bool, len(ids))
	var list []uint64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			list = append(list, id)
		}
	}
	names := make(map[uint64]string, len(list))
	if len(list) == 0 {
		return names, nil
	}
	projects, err := s.projects.ListByIDs(ctx, list)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ListHistory pages alert history newest first.
func (s *Service) ListHistory(ctx context.Context, q *model.AlertHistoryQuery) ([]*model.AlertHistory, model.Pagination, error) {
	if q.Limit <= 0 {
		q.Limit = defaultHistoryLimit
	}
	if q.Limit > maxHistoryLimit {
		q.Limit = maxHistoryLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	rows, total, err := s.history.List(ctx, q)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	if rows == nil {
		rows = []*model.AlertHistory{}
	}
	ids := make([]uint64, 0, len(rows))
	for _, h := range rows {
		ids = append(ids, h.ProjectID)
	}
	names, err := s.projectNames(ctx, ids)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	for _, h := range rows {
		h.ProjectName = names[h.ProjectID]
	}
	return rows, model.NewPagination(total, q.Limit, q.Offset), nil
}

// statsWindow maps 1d/7d/30d, anything else is 7d.
func statsWindow(period string) (string, time.Duration) {
	day := 24 * time.Hour
	switch period {
	case "1d":
		return period, day
	case "30d":
		return period, 30 * day
	default:
		return "7d", 7 * day
	}
}

// Stats summarizes alert history over the period, optionally for one project.
func (s *Service) Stats(ctx context.Context, projectID uint64, period string) (*model.AlertStats, error) {
	period, window := statsWindow(period)
	rows, err := s.history.ListSince(ctx, s.now().Add(-window))
	if err != nil {
		return nil, errs.Aggregation(err, "alert stats")
	}

	stats := &model.AlertStats{Period: period, DailyBreakdown: []*model.AlertDailyBreakdown{}}
	projects := make(map[uint64]struct{})
	type dayKey struct {
		date string
		typ  model.AlertType
	}
	daily := make(map[dayKey]*model.AlertDailyBreakdown)
	for _, h := range rows {
		if projectID != 0 && h.ProjectID != projectID {
			continue
		}
		stats.TotalAlerts++
		projects[h.ProjectID] = struct{}{}
		switch h.AlertType {
		case model.AlertFailureRate:
			stats.FailureRateAlerts++
		case model.AlertBuildDuration:
			stats.DurationAlerts++
		case model.AlertConsecutiveFailures:
			stats.ConsecutiveFailureAlerts++
		case model.AlertQueueTime:
			stats.QueueTimeAlerts++
		}
		k := dayKey{date: h.SentAt.UTC().Format("2006-01-02"), typ: h.AlertType}
		b, ok := daily[k]
		if !ok {
			b = &model.AlertDailyBreakdown{Date: k.date, AlertType: k.typ}
			daily[k] = b
			stats.DailyBreakdown = append(stats.DailyBreakdown, b)
		}
		b.Count++
	}
	stats.ProjectsWithAlerts = int64(len(projects))
	sort.Slice(stats.DailyBreakdown, func(i, j int) bool {
		a, b := stats.DailyBreakdown[i], stats.DailyBreakdown[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.AlertType < b.AlertType
	})
	return stats, nil
}
