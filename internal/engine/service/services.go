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

package service

import (
	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/alert"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	"github.com/go-arcade/pulse/internal/engine/service/execution"
	"github.com/go-arcade/pulse/internal/engine/service/metrics"
	"github.com/go-arcade/pulse/internal/engine/service/notify"
	"github.com/go-arcade/pulse/internal/engine/service/project"
	"github.com/go-arcade/pulse/internal/engine/service/webhook"
	pkgnotify "github.com/go-arcade/pulse/internal/pkg/notify"
)

// Services 统一管理所有 service
type Services struct {
	Project     *project.ProjectService
	Execution   *execution.Service
	Webhook     *webhook.GitHub
	Metrics     *metrics.Aggregator
	Alert       *alert.Service
	Evaluator   *alert.Evaluator
	Dispatcher  *notify.Dispatcher
	Broadcaster broadcast.Broadcaster
}

// Options groups the per-section configuration the services read.
type Options struct {
	Aggregator config.AggregatorConfig
	Alert      config.AlertConfig
	Notify     config.NotifyConfig
	Webhook    config.WebhookConfig
}

// NewServices 初始化所有 service
func NewServices(
	repos *repo.Repositories,
	metricsCache metrics.MetricsCache,
	cooldown alert.CooldownStore,
	registry *pkgnotify.Registry,
	broadcaster broadcast.Broadcaster,
	opts Options,
) *Services {
	if broadcaster == nil {
		broadcaster = broadcast.Nop{}
	}
	aggregator := metrics.NewAggregator(repos, metricsCache, broadcaster, opts.Aggregator)
	dispatcher := notify.NewDispatcher(registry, repos.AlertHistory, broadcaster, opts.Notify)

	// 评估器依赖通知分发，执行服务依赖评估器与指标聚合
	evaluator := alert.NewEvaluator(repos, cooldown, dispatcher, opts.Alert)
	executionService := execution.NewService(repos, aggregator, evaluator, broadcaster)

	return &Services{
		Project:     project.NewProjectService(repos),
		Execution:   executionService,
		Webhook:     webhook.NewGitHub(repos.Project, executionService, opts.Webhook),
		Metrics:     aggregator,
		Alert:       alert.NewService(repos),
		Evaluator:   evaluator,
		Dispatcher:  dispatcher,
		Broadcaster: broadcaster,
	}
}
