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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownKey(t *testing.T) {
	assert.Equal(t, "alert:cooldown:7:build_duration", CooldownKey(7, model.AlertBuildDuration))
}

func TestMemoryCooldown_SuppressionAndExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCooldown()
	clock := testNow
	m.now = func() time.Time { return clock }
	key := CooldownKey(7, model.AlertBuildDuration)

	won, err := m.CheckAndSet(ctx, key, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, won)

	clock = clock.Add(14 * time.Minute)
	active, _ := m.Active(ctx, key)
	assert.True(t, active)
	won, _ = m.CheckAndSet(ctx, key, 15*time.Minute)
	assert.False(t, won)

	// other alert types of the same project are independent
	won, _ = m.CheckAndSet(ctx, CooldownKey(7, model.AlertFailureRate), 15*time.Minute)
	assert.True(t, won)

	clock = clock.Add(time.Minute)
	active, _ = m.Active(ctx, key)
	assert.False(t, active)
	won, _ = m.CheckAndSet(ctx, key, 15*time.Minute)
	assert.True(t, won)

	clock = clock.Add(time.Hour)
	assert.Equal(t, 2, m.Sweep())
}

func TestCooldown_SingleWinner(t *testing.T) {
	stores := map[string]CooldownStore{
		"memory": NewMemoryCooldown(),
		"cache":  NewRedisCooldown(cache.NewFastCache(cache.FastCacheConfig{})),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if ok, err := store.CheckAndSet(context.Background(), "alert:cooldown:1:queue_time", time.Minute); err == nil && ok {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestRedisCooldown_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewRedisCooldown(cache.NewFastCache(cache.FastCacheConfig{}))
	key := CooldownKey(7, model.AlertBuildDuration)

	active, err := store.Active(ctx, key)
	require.NoError(t, err)
	assert.False(t, active)

	won, err := store.CheckAndSet(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, won)
	active, _ = store.Active(ctx, key)
	assert.True(t, active)

	time.Sleep(80 * time.Millisecond)
	active, _ = store.Active(ctx, key)
	assert.False(t, active)
	won, _ = store.CheckAndSet(ctx, key, time.Minute)
	assert.True(t, won)
}

func TestRedisCooldown_BehindHybridCache(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewHybridCache(
		cache.NewFastCache(cache.FastCacheConfig{}),
		cache.NewFastCache(cache.FastCacheConfig{}),
		cache.HybridCacheConfig{LocalEnabled: true, RemoteEnabled: true, LocalTTLRatio: 0.5, FillTTL: time.Minute},
	)
	store := NewRedisCooldown(backend)
	key := CooldownKey(7, model.AlertFailureRate)

	won, err := store.CheckAndSet(ctx, key, 100*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, won)

	time.Sleep(50 * time.Millisecond)
	active, err := store.Active(ctx, key)
	require.NoError(t, err)
	assert.True(t, active)
	// a read through the hybrid tier must not pin the key locally past the window
	require.NoError(t, backend.Get(ctx, key).Err())

	time.Sleep(150 * time.Millisecond)
	active, err = store.Active(ctx, key)
	require.NoError(t, err)
	assert.False(t, active)
	assert.ErrorIs(t, backend.Get(ctx, key).Err(), cache.ErrCacheMiss)
}

func TestNewCooldownStore(t *testing.T) {
	backend := cache.NewFastCache(cache.FastCacheConfig{})
	assert.IsType(t, &MemoryCooldown{}, NewCooldownStore(config.AlertConfig{}, backend))
	assert.IsType(t, &RedisCooldown{}, NewCooldownStore(config.AlertConfig{CooldownStore: "redis"}, backend))
	assert.IsType(t, &MemoryCooldown{}, NewCooldownStore(config.AlertConfig{CooldownStore: "redis"}, nil))
}
