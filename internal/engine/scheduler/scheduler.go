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

// Package scheduler registers the periodic background work of the engine.
package scheduler

import (
	"context"
	"runtime"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	"github.com/go-arcade/pulse/pkg/cron"
	"github.com/go-arcade/pulse/pkg/log"
)

const (
	JobEvaluate     = "alert_evaluate"
	JobPrecompute   = "metrics_precompute"
	JobRollup       = "metrics_daily_rollup"
	JobCacheCleanup = "metrics_cache_cleanup"
	JobSystemStatus = "system_status"
)

type Evaluator interface {
	EvaluateAll(ctx context.Context) error
}

type Aggregator interface {
	PrecomputeAll(ctx context.Context) error
	RollupDaily(ctx context.Context) (bool, error)
	CleanupCache(ctx context.Context) (int, error)
}

// Sweeper drops expired cooldown entries. Only the in-memory store has one.
type Sweeper interface {
	Sweep() int
}

// ConnCounter reports live websocket connections.
type ConnCounter interface {
	Count() int
}

// SystemStatus is the payload of the periodic system_status event.
type SystemStatus struct {
	Status            string    `json:"status"`
	UptimeSeconds     int64     `json:"uptime_seconds"`
	ActiveConnections int       `json:"active_connections"`
	Goroutines        int       `json:"goroutines"`
	Timestamp         time.Time `json:"timestamp"`
}

type Deps struct {
	Evaluator   Evaluator
	Aggregator  Aggregator
	// Cooldown is nil when the store expires keys on its own.
	Cooldown    Sweeper
	Broadcaster broadcast.Broadcaster
	Conns       ConnCounter
}

type Scheduler struct {
	cron      *cron.Scheduler
	deps      Deps
	startedAt time.Time
	disabled  bool
}

func New(conf config.SchedulerConfig, deps Deps) (*Scheduler, error) {
	conf.SetDefaults()
	if deps.Broadcaster == nil {
		deps.Broadcaster = broadcast.Nop{}
	}
	s := &Scheduler{
		cron:      cron.New(),
		deps:      deps,
		startedAt: time.Now(),
		disabled:  conf.Disabled,
	}

	jobs := []struct {
		name string
		spec string
		fn   cron.JobFunc
	}{
		{JobEvaluate, conf.EvaluateSpec, s.evaluate},
		{JobPrecompute, conf.PrecomputeSpec, s.precompute},
		{JobRollup, conf.RollupSpec, s.rollup},
		{JobCacheCleanup, conf.CacheCleanupSpec, s.cleanup},
		{JobSystemStatus, conf.StatusSpec, s.systemStatus},
	}
	for _, j := range jobs {
		if err := s.cron.AddJob(j.name, j.spec, j.fn); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	if s.disabled {
		log.Infow("scheduler disabled by configuration")
		return
	}
	s.cron.Start()
}

func (s *Scheduler) Stop(ctx context.Context) error {
	return s.cron.Stop(ctx)
}

// RunNow triggers one job outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	return s.cron.RunNow(name)
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) evaluate(ctx context.Context) error {
	if s.deps.Cooldown != nil {
		if n := s.deps.Cooldown.Sweep(); n > 0 {
			log.Debugw("expired cooldowns removed", "count", n)
		}
	}
	if s.deps.Evaluator == nil {
		return nil
	}
	return s.deps.Evaluator.EvaluateAll(ctx)
}

func (s *Scheduler) precompute(ctx context.Context) error {
	if s.deps.Aggregator == nil {
		return nil
	}
	return s.deps.Aggregator.PrecomputeAll(ctx)
}

func (s *Scheduler) rollup(ctx context.Context) error {
	if s.deps.Aggregator == nil {
		return nil
	}
	_, err := s.deps.Aggregator.RollupDaily(ctx)
	return err
}

func (s *Scheduler) cleanup(ctx context.Context) error {
	if s.deps.Aggregator == nil {
		return nil
	}
	_, err := s.deps.Aggregator.CleanupCache(ctx)
	return err
}

func (s *Scheduler) systemStatus(context.Context) error {
	status := SystemStatus{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(s.startedAt) / time.Second),
		Goroutines:    runtime.NumGoroutine(),
		Timestamp:     time.Now().UTC(),
	}
	if s.deps.Conns != nil {
		status.ActiveConnections = s.deps.Conns.Count()
	}
	s.deps.Broadcaster.SystemStatus(status)
	return nil
}
