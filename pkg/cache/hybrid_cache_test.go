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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHybrid() (*HybridCache, *FastCache, *FastCache) {
	local := NewFastCache(FastCacheConfig{MaxBytes: 1 << 20})
	remote := NewFastCache(FastCacheConfig{MaxBytes: 1 << 20})
	hc := NewHybridCache(local, remote, HybridCacheConfig{
		LocalEnabled:  true,
		RemoteEnabled: true,
		LocalTTLRatio: 0.5,
	})
	return hc, local, remote
}

func TestHybridCache_SetWritesBothTiers(t *testing.T) {
	hc, local, remote := newTestHybrid()
	ctx := context.Background()

	require.NoError(t, hc.Set(ctx, "k", "v", 10*time.Minute).Err())

	assert.Equal(t, "v", local.Get(ctx, "k").Val())
	assert.Equal(t, "v", remote.Get(ctx, "k").Val())
	assert.LessOrEqual(t, local.TTL(ctx, "k").Val(), 5*time.Minute)
	assert.Greater(t, remote.TTL(ctx, "k").Val(), 5*time.Minute)
}

func TestHybridCache_RemoteHitFillsLocal(t *testing.T) {
	hc, local, remote := newTestHybrid()
	ctx := context.Background()

	remote.Set(ctx, "k", "from-remote", time.Minute)

	got, err := hc.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "from-remote", got)
	assert.Equal(t, "from-remote", local.Get(ctx, "k").Val())
}

func TestHybridCache_FillNeverOutlivesRemote(t *testing.T) {
	ctx := context.Background()
	local := NewFastCache(FastCacheConfig{MaxBytes: 1 << 20})
	remote := NewFastCache(FastCacheConfig{MaxBytes: 1 << 20})
	hc := NewHybridCache(local, remote, HybridCacheConfig{
		LocalEnabled:  true,
		RemoteEnabled: true,
		LocalTTLRatio: 0.5,
		FillTTL:       time.Hour,
	})

	remote.Set(ctx, "short", "v", 2*time.Second)
	require.NoError(t, hc.Get(ctx, "short").Err())
	lt := local.TTL(ctx, "short").Val()
	assert.Greater(t, lt, time.Duration(0))
	assert.LessOrEqual(t, lt, time.Second)

	remote.Set(ctx, "forever", "v", 0)
	require.NoError(t, hc.Get(ctx, "forever").Err())
	assert.LessOrEqual(t, local.TTL(ctx, "forever").Val(), 30*time.Minute)
	assert.Greater(t, local.TTL(ctx, "forever").Val(), time.Duration(0))
}

func TestHybridCache_MissAndDel(t *testing.T) {
	hc, local, remote := newTestHybrid()
	ctx := context.Background()

	assert.ErrorIs(t, hc.Get(ctx, "nope").Err(), redis.Nil)

	hc.Set(ctx, "k", "v", time.Minute)
	hc.Del(ctx, "k")
	assert.ErrorIs(t, local.Get(ctx, "k").Err(), redis.Nil)
	assert.ErrorIs(t, remote.Get(ctx, "k").Err(), redis.Nil)
}

func TestHybridCache_SetNXUsesRemote(t *testing.T) {
	hc, local, remote := newTestHybrid()
	ctx := context.Background()

	assert.True(t, hc.SetNX(ctx, "lock", "1", time.Minute).Val())
	assert.False(t, hc.SetNX(ctx, "lock", "1", time.Minute).Val())
	assert.Equal(t, "1", remote.Get(ctx, "lock").Val())
	assert.ErrorIs(t, local.Get(ctx, "lock").Err(), redis.Nil)
}
