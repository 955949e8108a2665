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

package metrics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	durationTrendSize = 30
	rollupDays        = 30
	defaultTrendDays  = 30
	maxTrendDays      = 365
)

// Aggregator computes time-windowed project metrics from the execution store.
type Aggregator struct {
	projects    repo.IProjectRepository
	executions  repo.IExecutionRepository
	daily       repo.IDailyMetricRepository
	cache       MetricsCache
	broadcaster broadcast.Broadcaster

	cacheTTL     time.Duration
	queryTimeout time.Duration

	group   singleflight.Group
	rolling atomic.Bool
	tracer  trace.Tracer
	now     func() time.Time
}

func NewAggregator(repos *repo.Repositories, mc MetricsCache, b broadcast.Broadcaster, conf config.AggregatorConfig) *Aggregator {
	conf.SetDefaults()
	if mc == nil {
		mc = nopCache{}
	}
	if b == nil {
		b = broadcast.Nop{}
	}
	return &Aggregator{
		projects:     repos.Project,
		executions:   repos.Execution,
		daily:        repos.DailyMetric,
		cache:        mc,
		broadcaster:  b,
		cacheTTL:     conf.CacheTTLDuration(),
		queryTimeout: conf.QueryTimeoutDuration(),
		tracer:       otel.Tracer("github.com/go-arcade/pulse/internal/engine/service/metrics"),
		now:          time.Now,
	}
}

func (a *Aggregator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// withTimeout bounds store queries by the configured query timeout.
func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.queryTimeout)
}

func (a *Aggregator) project(ctx context.Context, projectID uint64) (*model.Project, error) {
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	p, err := a.projects.Get(qctx, projectID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, err
		}
		return nil, errs.Aggregation(err, "project lookup")
	}
	return p, nil
}

// ComputeSummary returns the dashboard metrics of a project. Unknown period
// tokens fall back to 7d.
func (a *Aggregator) ComputeSummary(ctx context.Context, projectID uint64, token string) (_ *ProjectMetrics, err error) {
	period := ParsePeriod(token)
	ctx, span := a.startSpan(ctx, "metrics.ComputeSummary",
		attribute.Int64("project.id", int64(projectID)), attribute.String("period", string(period)))
	defer func() { endSpan(span, err) }()

	if _, err = a.project(ctx, projectID); err != nil {
		return nil, err
	}
	if cached, ok := a.cache.GetSummary(ctx, projectID, period); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	v, err, shared := a.group.Do(SummaryKey(projectID, period), func() (any, error) {
		return a.computeSummary(ctx, projectID, period)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))
	return v.(*ProjectMetrics), nil
}

func (a *Aggregator) computeSummary(ctx context.Context, projectID uint64, period Period) (*ProjectMetrics, error) {
	defer pkgmetrics.ObserveAggregation("summary", time.Now())

	now := a.now()
	since := period.Since(now)

	var (
		rows   []*model.Execution
		latest *model.Execution
		queue  model.QueueCounts
		recent []*model.Execution
	)
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(qctx)
	g.Go(func() (err error) {
		rows, err = a.executions.ListSince(gctx, projectID, since)
		return err
	})
	g.Go(func() (err error) {
		latest, err = a.executions.Latest(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		queue, err = a.executions.QueueCounts(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		recent, err = a.executions.RecentDurations(gctx, projectID, durationTrendSize)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Errorw("failed to compute project metrics", "projectId", projectID, "period", period, "error", err)
		return nil, errs.Aggregation(err, "summary")
	}

	trends := Trends{
		DailyExecutions:    DailyBuckets(rows),
		HourlyExecutions:   []HourlyBucket{},
		DurationTrend:      DurationTrend(recent),
		StatusDistribution: StatusDistribution(rows),
	}
	if period == Period1d {
		trends.HourlyExecutions = HourlyBuckets(rows, now.Add(-24*time.Hour))
	}
	result := &ProjectMetrics{
		ProjectID:   projectID,
		Summary:     Summarize(rows, latest, queue),
		Trends:      trends,
		Period:      period,
		GeneratedAt: now.UTC(),
	}
	a.cache.PutSummary(ctx, result, a.cacheTTL)
	return result, nil
}

// ComputeOverview aggregates every active project. It is not cached.
func (a *Aggregator) ComputeOverview(ctx context.Context, token string) (_ *Overview, err error) {
	period := ParsePeriod(token)
	ctx, span := a.startSpan(ctx, "metrics.ComputeOverview", attribute.String("period", string(period)))
	defer func() { endSpan(span, err) }()
	defer pkgmetrics.ObserveAggregation("overview", time.Now())

	now := a.now()
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()

	projects, err := a.projects.ListActive(qctx)
	if err != nil {
		return nil, errs.Aggregation(err, "overview")
	}
	ids := make([]uint64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	rows, err := a.executions.ListForProjectsSince(qctx, ids, period.Since(now))
	if err != nil {
		return nil, errs.Aggregation(err, "overview")
	}

	totals, breakdown := BuildOverview(projects, rows)
	return &Overview{
		Overview:         totals,
		ProjectBreakdown: breakdown,
		Period:           period,
		GeneratedAt:      now.UTC(),
	}, nil
}

// ComputeCalculated returns the compact metric used by alert rules.
func (a *Aggregator) ComputeCalculated(ctx context.Context, projectID uint64, token string) (*AggregatedMetric, error) {
	period := ParsePeriod(token)
	if cached, ok := a.cache.GetCalculated(ctx, projectID, period); ok {
		return cached, nil
	}
	v, err, _ := a.group.Do(CalculatedKey(projectID, period), func() (any, error) {
		return a.calculate(ctx, projectID, period)
	})
	if err != nil {
		return nil, err
	}
	return v.(*AggregatedMetric), nil
}

// calculate always hits the store and refreshes the cached entry.
func (a *Aggregator) calculate(ctx context.Context, projectID uint64, period Period) (*AggregatedMetric, error) {
	defer pkgmetrics.ObserveAggregation("calculated", time.Now())

	now := a.now()
	since := period.Since(now)
	var (
		rows      []*model.Execution
		durations []int
	)
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(qctx)
	g.Go(func() (err error) {
		rows, err = a.executions.ListSince(gctx, projectID, since)
		return err
	})
	g.Go(func() (err error) {
		durations, err = a.executions.LatestDurations(gctx, projectID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errs.Aggregation(err, "calculated")
	}

	m := Calculate(projectID, period, rows, durations, now.UTC())
	a.cache.PutCalculated(ctx, m, a.cacheTTL)
	return m, nil
}

// RecomputeProject refreshes the calculated entries of one project and
// notifies subscribers.
func (a *Aggregator) RecomputeProject(ctx context.Context, projectID uint64) error {
	out := make(map[Period]*AggregatedMetric, len(PrecomputePeriods))
	for _, p := range PrecomputePeriods {
		m, err := a.calculate(ctx, projectID, p)
		if err != nil {
			return err
		}
		out[p] = m
	}
	a.broadcaster.MetricsUpdated(projectID, out)
	return nil
}

// PrecomputeAll refreshes every active project. Failing projects are
// logged and skipped.
func (a *Aggregator) PrecomputeAll(ctx context.Context) error {
	qctx, cancel := a.withTimeout(ctx)
	projects, err := a.projects.ListActive(qctx)
	cancel()
	if err != nil {
		return errs.Aggregation(err, "precompute")
	}
	failed := 0
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.RecomputeProject(ctx, p.ID); err != nil {
			failed++
			log.Warnw("failed to precompute project metrics", "projectId", p.ID, "error", err)
		}
	}
	log.Infow("metrics precompute finished", "projects", len(projects), "failed", failed)
	return nil
}

// ComputeComparison compares the current window with the preceding one of
// equal length.
func (a *Aggregator) ComputeComparison(ctx context.Context, projectID uint64, token string) (*Comparison, error) {
	period := ParsePeriod(token)
	if _, err := a.project(ctx, projectID); err != nil {
		return nil, err
	}
	defer pkgmetrics.ObserveAggregation("comparison", time.Now())

	now := a.now()
	mid := period.Since(now)
	start := mid.Add(-period.Duration())

	var current, previous []*model.Execution
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(qctx)
	g.Go(func() (err error) {
		current, err = a.executions.ListSince(gctx, projectID, mid)
		return err
	})
	g.Go(func() (err error) {
		previous, err = a.executions.ListBetween(gctx, projectID, start, mid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errs.Aggregation(err, "comparison")
	}

	cur, prev, changes := Compare(current, previous)
	return &Comparison{
		ProjectID: projectID,
		Period:    period,
		Current:   cur,
		Previous:  prev,
		Changes:   changes,
	}, nil
}

// ComputeTrends returns daily buckets for the last days (default 30).
func (a *Aggregator) ComputeTrends(ctx context.Context, projectID uint64, days int) ([]TrendBucket, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	if _, err := a.project(ctx, projectID); err != nil {
		return nil, err
	}
	defer pkgmetrics.ObserveAggregation("trends", time.Now())

	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	rows, err := a.executions.ListSince(qctx, projectID, a.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, errs.Aggregation(err, "trends")
	}
	return TrendBuckets(rows), nil
}

// RollupDaily rewrites the last 30 days of t_daily_metric for every active
// project. It returns false when another rollup is still running.
func (a *Aggregator) RollupDaily(ctx context.Context) (bool, error) {
	if !a.rolling.CompareAndSwap(false, true) {
		log.Infow("daily rollup already in progress, skipping")
		return false, nil
	}
	defer a.rolling.Store(false)
	defer pkgmetrics.ObserveAggregation("rollup", time.Now())

	qctx, cancel := a.withTimeout(ctx)
	projects, err := a.projects.ListActive(qctx)
	cancel()
	if err != nil {
		return true, errs.Aggregation(err, "rollup")
	}

	since := a.now().AddDate(0, 0, -rollupDays)
	for _, p := range projects {
		if err := a.rollupProject(ctx, p.ID, since); err != nil {
			log.Warnw("daily rollup failed", "projectId", p.ID, "error", err)
		}
	}
	log.Infow("daily rollup finished", "projects", len(projects))
	return true, nil
}

func (a *Aggregator) rollupProject(ctx context.Context, projectID uint64, since time.Time) error {
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	rows, err := a.executions.ListSince(qctx, projectID, since)
	if err != nil {
		return err
	}
	return a.daily.Upsert(qctx, DailyRollup(projectID, rows))
}

// DailyHistory reads the persisted rollup rows.
func (a *Aggregator) DailyHistory(ctx context.Context, projectID uint64, days int) ([]*model.DailyMetric, error) {
	if days <= 0 {
		days = rollupDays
	}
	now := a.now().UTC()
	qctx, cancel := a.withTimeout(ctx)
	defer cancel()
	rows, err := a.daily.List(qctx, projectID, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, errs.Aggregation(err, "daily history")
	}
	return rows, nil
}

// Invalidate drops every cached entry of the project. Called after writes.
func (a *Aggregator) Invalidate(ctx context.Context, projectID uint64) error {
	if err := a.cache.Invalidate(ctx, projectID); err != nil {
		log.Warnw("failed to invalidate metrics cache", "projectId", projectID, "error", err)
		return err
	}
	return nil
}

// CleanupCache removes metrics keys without expiry.
func (a *Aggregator) CleanupCache(ctx context.Context) (int, error) {
	n, err := a.cache.Cleanup(ctx)
	if err != nil {
		return n, fmt.Errorf("metrics cache cleanup: %w", err)
	}
	if n > 0 {
		log.Infow("cleared stale metrics cache entries", "count", n)
	}
	return n, nil
}
