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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/pulse/pkg/cache"
	"github.com/go-arcade/pulse/pkg/database"
	"github.com/go-arcade/pulse/pkg/http"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/go-arcade/pulse/pkg/metrics"
	"github.com/spf13/viper"
)

// AggregatorConfig 指标聚合配置，时间单位为秒
type AggregatorConfig struct {
	CacheTTL     int
	QueryTimeout int
}

func (c *AggregatorConfig) SetDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 300
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 10
	}
}

func (c *AggregatorConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (c *AggregatorConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(c.QueryTimeout) * time.Second
}

const (
	CooldownStoreMemory = "memory"
	CooldownStoreRedis  = "redis"
)

// AlertConfig 告警评估配置
type AlertConfig struct {
	CooldownMinutes   int
	CooldownStore     string // memory | redis
	EvaluationTimeout int    // seconds
}

func (c *AlertConfig) SetDefaults() {
	if c.CooldownMinutes <= 0 {
		c.CooldownMinutes = 15
	}
	if c.CooldownStore == "" {
		c.CooldownStore = CooldownStoreMemory
	}
	if c.EvaluationTimeout <= 0 {
		c.EvaluationTimeout = 30
	}
}

func (c *AlertConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

func (c *AlertConfig) EvaluationTimeoutDuration() time.Duration {
	return time.Duration(c.EvaluationTimeout) * time.Second
}

type SlackConfig struct {
	WebhookURL string
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string // comma separated
}

// NotifyConfig 通知渠道配置
type NotifyConfig struct {
	SendTimeout int // seconds
	FrontendURL string
	Slack       SlackConfig
	Email       EmailConfig
}

func (c *NotifyConfig) SetDefaults() {
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10
	}
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:3000"
	}
	if c.Email.Port == 0 {
		c.Email.Port = 587
	}
}

func (c *NotifyConfig) SendTimeoutDuration() time.Duration {
	return time.Duration(c.SendTimeout) * time.Second
}

type WebhookConfig struct {
	GithubSecret string
}

// SchedulerConfig cron 表达式，支持 @every
type SchedulerConfig struct {
	Disabled         bool
	EvaluateSpec     string
	PrecomputeSpec   string
	RollupSpec       string
	CacheCleanupSpec string
	StatusSpec       string
}

func (c *SchedulerConfig) SetDefaults() {
	if c.EvaluateSpec == "" {
		c.EvaluateSpec = "@every 5m"
	}
	if c.PrecomputeSpec == "" {
		c.PrecomputeSpec = "*/5 * * * *"
	}
	if c.RollupSpec == "" {
		c.RollupSpec = "0 * * * *"
	}
	if c.CacheCleanupSpec == "" {
		c.CacheCleanupSpec = "*/30 * * * *"
	}
	if c.StatusSpec == "" {
		c.StatusSpec = "@every 1m"
	}
}

type AppConfig struct {
	Log        log.Conf
	Http       http.Http
	Database   database.Database
	Redis      cache.Redis
	Cache      cache.Local
	Metrics    metrics.MetricsConfig
	Aggregator AggregatorConfig
	Alert      AlertConfig
	Notify     NotifyConfig
	Webhook    WebhookConfig
	Scheduler  SchedulerConfig
}

// SetDefaults fills every section.
func (c *AppConfig) SetDefaults() {
	if c.Log.Output == "" {
		c.Log = *log.SetDefaults()
	}
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Redis.SetDefaults()
	c.Metrics.SetDefaults()
	c.Aggregator.SetDefaults()
	c.Alert.SetDefaults()
	c.Notify.SetDefaults()
	c.Scheduler.SetDefaults()
}

// legacyEnv binds the plain environment names used by existing deployments.
var legacyEnv = map[string]string{
	"notify.slack.webhookurl": "SLACK_WEBHOOK_URL",
	"notify.email.host":       "SMTP_HOST",
	"notify.email.port":       "SMTP_PORT",
	"notify.email.user":       "SMTP_USER",
	"notify.email.password":   "SMTP_PASSWORD",
	"notify.email.from":       "EMAIL_FROM",
	"notify.email.to":         "ALERT_EMAIL_TO",
	"notify.frontendurl":      "FRONTEND_URL",
	"webhook.githubsecret":    "GITHUB_WEBHOOK_SECRET",
	"database.mysql.host":     "DB_HOST",
	"database.mysql.port":     "DB_PORT",
	"database.mysql.user":     "DB_USER",
	"database.mysql.password": "DB_PASSWORD",
	"database.mysql.dbname":   "DB_NAME",
	"redis.address":           "REDIS_ADDRESS",
	"redis.password":          "REDIS_PASSWORD",
}

var (
	cfg     AppConfig
	cfgMu   sync.RWMutex
	once    sync.Once
	loadErr error
)

// NewConf loads the config file once per process.
func NewConf(confFile string) (*AppConfig, error) {
	once.Do(func() {
		var c AppConfig
		c, loadErr = LoadConfigFile(confFile)
		if loadErr == nil {
			cfgMu.Lock()
			cfg = c
			cfgMu.Unlock()
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	c := cfg
	return &c, nil
}

// LoadConfigFile reads a toml file, applies PULSE_ prefixed and legacy
// environment overrides, and fills the defaults.
func LoadConfigFile(confFile string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(confFile)
	v.SetConfigType("toml")
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "PULSE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return AppConfig{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	c.SetDefaults()

	v.OnConfigChange(func(e fsnotify.Event) {
		var changed AppConfig
		if err := v.Unmarshal(&changed); err != nil {
			log.Warnw("failed to reload configuration", "file", e.Name, "error", err)
			return
		}
		changed.SetDefaults()
		cfgMu.Lock()
		cfg = changed
		cfgMu.Unlock()
		// 已注入的组件不会重建，只有通过 Current 读取的调用方能看到新值
		log.Infow("configuration reloaded", "file", e.Name)
	})
	v.WatchConfig()

	log.Infow("config file loaded", "path", confFile)
	return c, nil
}

// Current returns a copy of the latest loaded configuration.
func Current() AppConfig {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}
