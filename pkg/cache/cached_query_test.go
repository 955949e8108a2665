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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	ProjectID   uint64  `json:"project_id"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// failingCache fails every command, as a down redis would.
type failingCache struct{ ICache }

func (failingCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	cmd.SetErr(errors.New("connection refused"))
	return cmd
}

func (failingCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	cmd.SetErr(errors.New("connection refused"))
	return cmd
}

func keyFunc(params ...any) string {
	return fmt.Sprintf("metrics:%v:%v", params[0], params[1])
}

func TestCachedQuery_GetLoadsOnceThenHits(t *testing.T) {
	fc := NewFastCache(FastCacheConfig{})
	var hits, misses int
	cq := NewCachedQuery[summary](fc, keyFunc,
		WithTTL[summary](300*time.Second),
		WithObserver[summary](func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		}),
	)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) (summary, error) {
		calls++
		return summary{ProjectID: 7, Total: 10, SuccessRate: 70.0}, nil
	}

	first, err := cq.Get(ctx, load, 7, "7d")
	require.NoError(t, err)
	second, err := cq.Get(ctx, load, 7, "7d")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	ttl := fc.TTL(ctx, "metrics:7:7d").Val()
	assert.InDelta(t, (300 * time.Second).Seconds(), ttl.Seconds(), 1)
}

func TestCachedQuery_LoadErrorDoesNotPopulate(t *testing.T) {
	fc := NewFastCache(FastCacheConfig{})
	cq := NewCachedQuery[summary](fc, keyFunc)
	ctx := context.Background()

	boom := errors.New("db down")
	_, err := cq.Get(ctx, func(ctx context.Context) (summary, error) {
		return summary{}, boom
	}, 1, "1d")
	assert.ErrorIs(t, err, boom)

	_, ok := cq.Peek(ctx, 1, "1d")
	assert.False(t, ok)
}

func TestCachedQuery_CacheFailureFallsThrough(t *testing.T) {
	cq := NewCachedQuery[summary](failingCache{}, keyFunc)

	got, err := cq.Get(context.Background(), func(ctx context.Context) (summary, error) {
		return summary{Total: 3}, nil
	}, 1, "7d")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
}

func TestCachedQuery_PutAndInvalidate(t *testing.T) {
	fc := NewFastCache(FastCacheConfig{})
	cq := NewCachedQuery[summary](fc, keyFunc)
	ctx := context.Background()

	cq.Put(ctx, summary{Total: 5}, time.Minute, 2, "30d")
	got, ok := cq.Peek(ctx, 2, "30d")
	require.True(t, ok)
	assert.Equal(t, 5, got.Total)

	require.NoError(t, cq.Invalidate(ctx, 2, "30d"))
	_, ok = cq.Peek(ctx, 2, "30d")
	assert.False(t, ok)
}

func TestCachedQuery_CorruptEntryIsMiss(t *testing.T) {
	fc := NewFastCache(FastCacheConfig{})
	cq := NewCachedQuery[summary](fc, keyFunc)
	ctx := context.Background()

	fc.Set(ctx, "metrics:3:7d", "{not json", time.Minute)
	_, ok := cq.Peek(ctx, 3, "7d")
	assert.False(t, ok)
}
