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
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/redis/go-redis/v9"
)

type HybridCacheConfig struct {
	LocalEnabled  bool
	RemoteEnabled bool
	LocalTTLRatio float64       // fraction of the remote TTL used for the local copy (0, 1]
	FillTTL       time.Duration // local TTL applied when a remote hit is copied down
}

// HybridCache keeps a short-lived local copy (L1) in front of a shared
// remote cache (L2). SetNX, Keys and TTL are answered by the remote when
// it is enabled since only it is shared between processes.
type HybridCache struct {
	local  *FastCache
	remote ICache
	config HybridCacheConfig
}

func NewHybridCache(local *FastCache, remote ICache, config HybridCacheConfig) *HybridCache {
	if config.FillTTL <= 0 {
		config.FillTTL = time.Minute
	}
	return &HybridCache{local: local, remote: remote, config: config}
}

func (hc *HybridCache) useLocal() bool  { return hc.config.LocalEnabled && hc.local != nil }
func (hc *HybridCache) useRemote() bool { return hc.config.RemoteEnabled && hc.remote != nil }

func (hc *HybridCache) localTTL(remoteTTL time.Duration) time.Duration {
	if remoteTTL > 0 && hc.config.LocalTTLRatio > 0 && hc.config.LocalTTLRatio < 1.0 {
		return time.Duration(float64(remoteTTL) * hc.config.LocalTTLRatio)
	}
	return remoteTTL
}

// fillTTL caps a local backfill at the remaining remote lifetime so the
// local copy never outlives the remote key. Unknown or missing TTLs skip the fill.
func (hc *HybridCache) fillTTL(ctx context.Context, key string) (time.Duration, bool) {
	ttl, err := hc.remote.TTL(ctx, key).Result()
	switch {
	case err != nil:
		return 0, false
	case ttl == TTLNoExpire:
		return hc.config.FillTTL, true
	case ttl > 0:
		return min(ttl, hc.config.FillTTL), true
	default:
		return 0, false
	}
}

func (hc *HybridCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if hc.useLocal() {
		if cmd := hc.local.Get(ctx, key); cmd.Err() == nil {
			log.Debugw("hybrid cache hit (local)", "key", key)
			return cmd
		}
	}

	if hc.useRemote() {
		cmd := hc.remote.Get(ctx, key)
		if cmd.Err() == nil {
			log.Debugw("hybrid cache hit (remote)", "key", key)
			if ttl, ok := hc.fillTTL(ctx, key); ok && hc.useLocal() {
				// a zero expiration would mean forever
				if lt := hc.localTTL(ttl); lt > 0 {
					hc.local.Set(ctx, key, cmd.Val(), lt)
				}
			}
			return cmd
		}
		if !errors.Is(cmd.Err(), redis.Nil) {
			return cmd
		}
	}

	cmd := redis.NewStringCmd(ctx, "get", key)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (hc *HybridCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	data, err := toBytes(value, sonic.Marshal)
	if err != nil {
		cmd := redis.NewStatusCmd(ctx, "set", key)
		cmd.SetErr(err)
		return cmd
	}

	if hc.useLocal() {
		hc.local.Set(ctx, key, data, hc.localTTL(expiration))
	}
	if hc.useRemote() {
		return hc.remote.Set(ctx, key, data, expiration)
	}

	cmd := redis.NewStatusCmd(ctx, "set", key)
	cmd.SetVal("OK")
	return cmd
}

func (hc *HybridCache) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if hc.useRemote() {
		return hc.remote.SetNX(ctx, key, value, expiration)
	}
	return hc.local.SetNX(ctx, key, value, expiration)
}

func (hc *HybridCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var local *redis.IntCmd
	if hc.useLocal() {
		local = hc.local.Del(ctx, keys...)
	}
	if hc.useRemote() {
		return hc.remote.Del(ctx, keys...)
	}
	if local != nil {
		return local
	}
	cmd := redis.NewIntCmd(ctx, "del")
	cmd.SetVal(0)
	return cmd
}

func (hc *HybridCache) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	if hc.useRemote() {
		return hc.remote.Keys(ctx, pattern)
	}
	return hc.local.Keys(ctx, pattern)
}

func (hc *HybridCache) TTL(ctx context.Context, key string) *redis.DurationCmd {
	if hc.useRemote() {
		return hc.remote.TTL(ctx, key)
	}
	return hc.local.TTL(ctx, key)
}

func (hc *HybridCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	var local *redis.BoolCmd
	if hc.useLocal() {
		local = hc.local.Expire(ctx, key, hc.localTTL(expiration))
	}
	if hc.useRemote() {
		return hc.remote.Expire(ctx, key, expiration)
	}
	if local != nil {
		return local
	}
	cmd := redis.NewBoolCmd(ctx, "expire", key)
	cmd.SetVal(false)
	return cmd
}

// SweepLocal drops expired L1 entries.
func (hc *HybridCache) SweepLocal() int {
	if !hc.useLocal() {
		return 0
	}
	return hc.local.Sweep()
}
