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
	"time"

	"github.com/go-arcade/pulse/pkg/cache"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
)

const keyPattern = "metrics:*"

func SummaryKey(projectID uint64, period Period) string {
	return fmt.Sprintf("metrics:%d:%s", projectID, period)
}

func CalculatedKey(projectID uint64, period Period) string {
	return fmt.Sprintf("metrics:%d:%s:calculated", projectID, period)
}

// MetricsCache sits in front of the pure aggregation functions. Lookups
// never fail: backend errors are logged and reported as a miss.
type MetricsCache interface {
	GetSummary(ctx context.Context, projectID uint64, period Period) (*ProjectMetrics, bool)
	PutSummary(ctx context.Context, m *ProjectMetrics, ttl time.Duration)
	GetCalculated(ctx context.Context, projectID uint64, period Period) (*AggregatedMetric, bool)
	PutCalculated(ctx context.Context, m *AggregatedMetric, ttl time.Duration)
	// Invalidate drops every cached form of the project for all periods.
	Invalidate(ctx context.Context, projectID uint64) error
	// Cleanup deletes metrics keys that carry no expiry and returns how many.
	Cleanup(ctx context.Context) (int, error)
}

type cacheStore struct {
	backend    cache.ICache
	summary    *cache.CachedQuery[*ProjectMetrics]
	calculated *cache.CachedQuery[*AggregatedMetric]
}

func projectPeriod(params []any) (uint64, Period) {
	return params[0].(uint64), params[1].(Period)
}

// NewMetricsCache returns a no-op cache when backend is nil.
func NewMetricsCache(backend cache.ICache) MetricsCache {
	if backend == nil {
		return nopCache{}
	}
	return &cacheStore{
		backend: backend,
		summary: cache.NewCachedQuery[*ProjectMetrics](backend,
			func(params ...any) string { return SummaryKey(projectPeriod(params)) },
			cache.WithLogPrefix[*ProjectMetrics]("[MetricsCache]"),
			cache.WithObserver[*ProjectMetrics](pkgmetrics.RecordCacheLookup),
		),
		calculated: cache.NewCachedQuery[*AggregatedMetric](backend,
			func(params ...any) string { return CalculatedKey(projectPeriod(params)) },
			cache.WithLogPrefix[*AggregatedMetric]("[MetricsCache]"),
			cache.WithObserver[*AggregatedMetric](pkgmetrics.RecordCacheLookup),
		),
	}
}

func (s *cacheStore) GetSummary(ctx context.Context, projectID uint64, period Period) (*ProjectMetrics, bool) {
	return s.summary.Peek(ctx, projectID, period)
}

func (s *cacheStore) PutSummary(ctx context.Context, m *ProjectMetrics, ttl time.Duration) {
	s.summary.Put(ctx, m, ttl, m.ProjectID, m.Period)
}

func (s *cacheStore) GetCalculated(ctx context.Context, projectID uint64, period Period) (*AggregatedMetric, bool) {
	return s.calculated.Peek(ctx, projectID, period)
}

func (s *cacheStore) PutCalculated(ctx context.Context, m *AggregatedMetric, ttl time.Duration) {
	s.calculated.Put(ctx, m, ttl, m.ProjectID, m.Period)
}

func (s *cacheStore) Invalidate(ctx context.Context, projectID uint64) error {
	var first error
	for _, p := range AllPeriods {
		if err := s.summary.Invalidate(ctx, projectID, p); err != nil && first == nil {
			first = err
		}
		if err := s.calculated.Invalidate(ctx, projectID, p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *cacheStore) Cleanup(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx, keyPattern).Result()
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, key := range keys {
		ttl, err := s.backend.TTL(ctx, key).Result()
		if err != nil {
			log.Warnw("[MetricsCache] ttl lookup failed", "key", key, "error", err)
			continue
		}
		if ttl == cache.TTLNoExpire {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	n, err := s.backend.Del(ctx, stale...).Result()
	return int(n), err
}

type nopCache struct{}

func (nopCache) GetSummary(context.Context, uint64, Period) (*ProjectMetrics, bool) { return nil, false }
func (nopCache) PutSummary(context.Context, *ProjectMetrics, time.Duration)         {}
func (nopCache) GetCalculated(context.Context, uint64, Period) (*AggregatedMetric, bool) {
	return nil, false
}
func (nopCache) PutCalculated(context.Context, *AggregatedMetric, time.Duration) {}
func (nopCache) Invalidate(context.Context, uint64) error                       { return nil }
func (nopCache) Cleanup(context.Context) (int, error)                           { return 0, nil }
