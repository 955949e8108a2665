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

package config

import (
	"github.com/go-arcade/pulse/pkg/cache"
	"github.com/go-arcade/pulse/pkg/database"
	"github.com/go-arcade/pulse/pkg/http"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/go-arcade/pulse/pkg/metrics"
	"github.com/google/wire"
)

// ProviderSet 提供配置层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideHttpConfig,
	ProvideLogConfig,
	ProvideDatabaseConfig,
	ProvideRedisConfig,
	ProvideLocalCacheConfig,
	ProvideMetricsConfig,
	ProvideAggregatorConfig,
	ProvideAlertConfig,
	ProvideNotifyConfig,
	ProvideWebhookConfig,
	ProvideSchedulerConfig,
)

// ProvideConf 提供应用配置
func ProvideConf(configPath string) (*AppConfig, error) {
	return NewConf(configPath)
}

func ProvideHttpConfig(appConf *AppConfig) *http.Http {
	return &appConf.Http
}

func ProvideLogConfig(appConf *AppConfig) *log.Conf {
	return &appConf.Log
}

func ProvideDatabaseConfig(appConf *AppConfig) database.Database {
	return appConf.Database
}

func ProvideRedisConfig(appConf *AppConfig) cache.Redis {
	return appConf.Redis
}

func ProvideLocalCacheConfig(appConf *AppConfig) cache.Local {
	return appConf.Cache
}

func ProvideMetricsConfig(appConf *AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

func ProvideAggregatorConfig(appConf *AppConfig) AggregatorConfig {
	return appConf.Aggregator
}

func ProvideAlertConfig(appConf *AppConfig) AlertConfig {
	return appConf.Alert
}

func ProvideNotifyConfig(appConf *AppConfig) NotifyConfig {
	return appConf.Notify
}

func ProvideWebhookConfig(appConf *AppConfig) WebhookConfig {
	return appConf.Webhook
}

func ProvideSchedulerConfig(appConf *AppConfig) SchedulerConfig {
	return appConf.Scheduler
}
