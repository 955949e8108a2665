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
	"path"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// fastcache refuses plain entries above 64KB; larger ones go through SetBig.
const maxSmallValue = 64*1024 - 16

type FastCacheConfig struct {
	MaxBytes int // default 16MB
}

type entryMeta struct {
	deadline time.Time // zero means no expiry
	big      bool
}

func (m entryMeta) expired(now time.Time) bool {
	return !m.deadline.IsZero() && now.After(m.deadline)
}

// FastCache is an in-process ICache backed by VictoriaMetrics/fastcache.
// fastcache has no expiry or key enumeration, so both are tracked in meta;
// expired entries are dropped lazily and by Sweep.
type FastCache struct {
	mu    sync.RWMutex
	cache *fastcache.Cache
	meta  map[string]entryMeta
	now   func() time.Time
}

func NewFastCache(conf FastCacheConfig) *FastCache {
	maxBytes := conf.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 16 * 1024 * 1024
	}
	return &FastCache{
		cache: fastcache.New(maxBytes),
		meta:  make(map[string]entryMeta),
		now:   time.Now,
	}
}

func (fc *FastCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	m, ok := fc.meta[key]
	if !ok || m.expired(fc.now()) {
		cmd.SetErr(redis.Nil)
		return cmd
	}

	var value []byte
	if m.big {
		value = fc.cache.GetBig(nil, []byte(key))
	} else {
		var found bool
		value, found = fc.cache.HasGet(nil, []byte(key))
		if !found {
			value = nil
		}
	}
	if value == nil {
		// evicted by fastcache
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(value))
	return cmd
}

func (fc *FastCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	data, err := toBytes(value, sonic.Marshal)
	if err != nil {
		cmd.SetErr(err)
		return cmd
	}

	fc.mu.Lock()
	fc.store(key, data, expiration)
	fc.mu.Unlock()

	cmd.SetVal("OK")
	return cmd
}

func (fc *FastCache) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "setnx", key)
	data, err := toBytes(value, sonic.Marshal)
	if err != nil {
		cmd.SetErr(err)
		return cmd
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if m, ok := fc.meta[key]; ok && !m.expired(fc.now()) {
		cmd.SetVal(false)
		return cmd
	}
	fc.store(key, data, expiration)
	cmd.SetVal(true)
	return cmd
}

// store must be called with mu held.
func (fc *FastCache) store(key string, data []byte, expiration time.Duration) {
	m := entryMeta{big: len(data) > maxSmallValue}
	if expiration > 0 {
		m.deadline = fc.now().Add(expiration)
	}
	if m.big {
		fc.cache.SetBig([]byte(key), data)
	} else {
		fc.cache.Set([]byte(key), data)
	}
	fc.meta[key] = m
}

func (fc *FastCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")

	fc.mu.Lock()
	defer fc.mu.Unlock()

	now := fc.now()
	var count int64
	for _, key := range keys {
		m, ok := fc.meta[key]
		if !ok {
			continue
		}
		if !m.expired(now) {
			count++
		}
		fc.remove(key)
	}
	cmd.SetVal(count)
	return cmd
}

func (fc *FastCache) remove(key string) {
	fc.cache.Del([]byte(key))
	delete(fc.meta, key)
}

// Keys matches live keys with path.Match, which agrees with redis glob
// syntax for keys without '/'.
func (fc *FastCache) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx, "keys", pattern)

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	now := fc.now()
	keys := make([]string, 0)
	for key, m := range fc.meta {
		if m.expired(now) {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			cmd.SetErr(err)
			return cmd
		}
		if ok {
			keys = append(keys, key)
		}
	}
	cmd.SetVal(keys)
	return cmd
}

func (fc *FastCache) TTL(ctx context.Context, key string) *redis.DurationCmd {
	cmd := redis.NewDurationCmd(ctx, time.Second, "ttl", key)

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	m, ok := fc.meta[key]
	switch {
	case !ok || m.expired(fc.now()):
		cmd.SetVal(TTLMissing)
	case m.deadline.IsZero():
		cmd.SetVal(TTLNoExpire)
	default:
		cmd.SetVal(m.deadline.Sub(fc.now()))
	}
	return cmd
}

func (fc *FastCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	m, ok := fc.meta[key]
	if !ok || m.expired(fc.now()) {
		cmd.SetVal(false)
		return cmd
	}
	if expiration <= 0 {
		fc.remove(key)
	} else {
		m.deadline = fc.now().Add(expiration)
		fc.meta[key] = m
	}
	cmd.SetVal(true)
	return cmd
}

// Sweep drops expired entries and returns how many were removed.
func (fc *FastCache) Sweep() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	now := fc.now()
	removed := 0
	for key, m := range fc.meta {
		if m.expired(now) {
			fc.remove(key)
			removed++
		}
	}
	return removed
}

func (fc *FastCache) Clear() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.cache.Reset()
	fc.meta = make(map[string]entryMeta)
}

func (fc *FastCache) Stats() fastcache.Stats {
	var stats fastcache.Stats
	fc.cache.UpdateStats(&stats)
	return stats
}
