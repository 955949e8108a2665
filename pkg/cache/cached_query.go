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
)

type QueryFunc[T any] func(ctx context.Context) (T, error)

type KeyFunc func(params ...any) string

// CachedQuery is a typed cache-aside wrapper. The cache is advisory: read
// and write failures are logged and never returned to the caller.
type CachedQuery[T any] struct {
	cache     ICache
	keyFunc   KeyFunc
	ttl       time.Duration
	logPrefix string
	observe   func(hit bool)
}

type CachedQueryOption[T any] func(*CachedQuery[T])

func WithTTL[T any](ttl time.Duration) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.ttl = ttl
	}
}

func WithLogPrefix[T any](prefix string) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.logPrefix = prefix
	}
}

// WithObserver registers a callback invoked on every lookup with the hit flag.
func WithObserver[T any](fn func(hit bool)) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.observe = fn
	}
}

func NewCachedQuery[T any](cache ICache, keyFunc KeyFunc, opts ...CachedQueryOption[T]) *CachedQuery[T] {
	cq := &CachedQuery[T]{
		cache:     cache,
		keyFunc:   keyFunc,
		ttl:       5 * time.Minute,
		logPrefix: "[CachedQuery]",
	}
	for _, opt := range opts {
		opt(cq)
	}
	return cq
}

func (cq *CachedQuery[T]) TTL() time.Duration { return cq.ttl }

func (cq *CachedQuery[T]) Key(params ...any) string { return cq.keyFunc(params...) }

// Peek returns the cached value without loading on a miss.
func (cq *CachedQuery[T]) Peek(ctx context.Context, params ...any) (T, bool) {
	var zero T
	if cq.cache == nil {
		return zero, false
	}
	key := cq.keyFunc(params...)

	data, err := cq.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Warnw(cq.logPrefix+" cache get error", "key", key, "error", err)
		}
		cq.record(false)
		return zero, false
	}

	var result T
	if err := sonic.UnmarshalString(data, &result); err != nil {
		log.Warnw(cq.logPrefix+" failed to unmarshal cached data", "key", key, "error", err)
		cq.record(false)
		return zero, false
	}
	log.Debugw(cq.logPrefix+" cache hit", "key", key)
	cq.record(true)
	return result, true
}

// Put stores value under the key for params with an explicit ttl.
func (cq *CachedQuery[T]) Put(ctx context.Context, value T, ttl time.Duration, params ...any) {
	if cq.cache == nil {
		return
	}
	key := cq.keyFunc(params...)

	data, err := sonic.MarshalString(value)
	if err != nil {
		log.Warnw(cq.logPrefix+" failed to marshal result for caching", "key", key, "error", err)
		return
	}
	if err := cq.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warnw(cq.logPrefix+" failed to cache result", "key", key, "error", err)
		return
	}
	log.Debugw(cq.logPrefix+" cached result", "key", key, "ttl", ttl)
}

// Get returns the cached value or calls load and caches its result.
// A load error is returned as is and leaves the cache untouched.
func (cq *CachedQuery[T]) Get(ctx context.Context, load QueryFunc[T], params ...any) (T, error) {
	if v, ok := cq.Peek(ctx, params...); ok {
		return v, nil
	}

	result, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	cq.Put(ctx, result, cq.ttl, params...)
	return result, nil
}

func (cq *CachedQuery[T]) Invalidate(ctx context.Context, params ...any) error {
	if cq.cache == nil {
		return nil
	}
	key := cq.keyFunc(params...)
	if err := cq.cache.Del(ctx, key).Err(); err != nil {
		log.Warnw(cq.logPrefix+" failed to invalidate cache", "key", key, "error", err)
		return err
	}
	log.Debugw(cq.logPrefix+" cache invalidated", "key", key)
	return nil
}

func (cq *CachedQuery[T]) record(hit bool) {
	if cq.observe != nil {
		cq.observe(hit)
	}
}
