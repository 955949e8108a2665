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

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/service/alert"
	"github.com/go-arcade/pulse/internal/engine/service/broadcast"
	"github.com/go-arcade/pulse/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct{ calls atomic.Int32 }

func (f *fakeEvaluator) EvaluateAll(context.Context) error {
	f.calls.Add(1)
	return nil
}

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 2
}

type fakeAggregator struct {
	precompute, rollup, cleanup atomic.Int32
	err                         error
}

func (f *fakeAggregator) PrecomputeAll(context.Context) error {
	f.precompute.Add(1)
	return f.err
}

func (f *fakeAggregator) RollupDaily(context.Context) (bool, error) {
	f.rollup.Add(1)
	return true, f.err
}

func (f *fakeAggregator) CleanupCache(context.Context) (int, error) {
	f.cleanup.Add(1)
	return 0, f.err
}

type fixedConns int

func (c fixedConns) Count() int { return int(c) }

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(config.SchedulerConfig{}, Deps{})
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range s.Entries() {
		names[e.Name] = true
	}
	for _, want := range []string{JobEvaluate, JobPrecompute, JobRollup, JobCacheCleanup, JobSystemStatus} {
		assert.True(t, names[want], want)
	}

	_, err = New(config.SchedulerConfig{RollupSpec: "every hour"}, Deps{})
	assert.Error(t, err)
}

func TestJobs(t *testing.T) {
	ev := &fakeEvaluator{}
	agg := &fakeAggregator{err: errors.New("db down")}
	rec := &broadcast.Recorder{}
	sw := &countingSweeper{}
	s, err := New(config.SchedulerConfig{}, Deps{
		Evaluator:   ev,
		Aggregator:  agg,
		Cooldown:    sw,
		Broadcaster: rec,
		Conns:       fixedConns(3),
	})
	require.NoError(t, err)

	for _, name := range []string{JobEvaluate, JobPrecompute, JobRollup, JobCacheCleanup, JobSystemStatus} {
		require.NoError(t, s.RunNow(name))
	}
	assert.Equal(t, int32(1), ev.calls.Load())
	assert.Equal(t, int32(1), sw.calls.Load())
	assert.Equal(t, int32(1), agg.precompute.Load())
	assert.Equal(t, int32(1), agg.rollup.Load())
	assert.Equal(t, int32(1), agg.cleanup.Load())

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventSystemStatus, events[0].Type)
	assert.Equal(t, 3, events[0].Data.(SystemStatus).ActiveConnections)
}

func TestCooldownSweeper(t *testing.T) {
	assert.NotNil(t, cooldownSweeper(alert.NewMemoryCooldown()))
	assert.Nil(t, cooldownSweeper(alert.NewRedisCooldown(cache.NewFastCache(cache.FastCacheConfig{}))))

	// no sweeper configured still runs the evaluation
	ev := &fakeEvaluator{}
	s, err := New(config.SchedulerConfig{}, Deps{
		Evaluator: ev,
		Cooldown:  cooldownSweeper(alert.NewRedisCooldown(cache.NewFastCache(cache.FastCacheConfig{}))),
	})
	require.NoError(t, err)
	require.NoError(t, s.RunNow(JobEvaluate))
	assert.Equal(t, int32(1), ev.calls.Load())
}
