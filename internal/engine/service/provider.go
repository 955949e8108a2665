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
	"github.com/go-arcade/pulse/internal/engine/service/metrics"
	pkgnotify "github.com/go-arcade/pulse/internal/pkg/notify"
	"github.com/go-arcade/pulse/pkg/cache"
	"github.com/go-arcade/pulse/pkg/ws"
	"github.com/google/wire"
)

const broadcastQueueSize = 1024

// ProviderSet 提供服务层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideHub,
	ProvideWSBroadcaster,
	ProvideBroadcaster,
	ProvideMetricsCache,
	ProvideCooldownStore,
	ProvideOptions,
	ProvideServices,
)

func ProvideHub() ws.Hub {
	return ws.NewHub()
}

// ProvideWSBroadcaster returns the broadcaster and a cleanup that drains it.
func ProvideWSBroadcaster(hub ws.Hub) (*broadcast.WSBroadcaster, func()) {
	b := broadcast.NewWSBroadcaster(hub, broadcastQueueSize)
	return b, b.Close
}

func ProvideBroadcaster(b *broadcast.WSBroadcaster) broadcast.Broadcaster {
	return b
}

func ProvideMetricsCache(backend cache.ICache) metrics.MetricsCache {
	return metrics.NewMetricsCache(backend)
}

func ProvideCooldownStore(conf config.AlertConfig, backend cache.ICache) alert.CooldownStore {
	return alert.NewCooldownStore(conf, backend)
}

func ProvideOptions(
	aggregator config.AggregatorConfig,
	alertConf config.AlertConfig,
	notifyConf config.NotifyConfig,
	webhookConf config.WebhookConfig,
) Options {
	return Options{
		Aggregator: aggregator,
		Alert:      alertConf,
		Notify:     notifyConf,
		Webhook:    webhookConf,
	}
}

// ProvideServices 提供统一的 Services 实例
func ProvideServices(
	repos *repo.Repositories,
	metricsCache metrics.MetricsCache,
	cooldown alert.CooldownStore,
	registry *pkgnotify.Registry,
	broadcaster broadcast.Broadcaster,
	opts Options,
) *Services {
	return NewServices(repos, metricsCache, cooldown, registry, broadcaster, opts)
}
