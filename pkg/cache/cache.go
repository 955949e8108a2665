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
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = redis.Nil

// ICache is the key-value surface the services use. It mirrors the redis
// command API so RedisCache is a thin pass-through and the local caches
// can stand in for it.
type ICache interface {
	// Get 获取缓存值，不存在时返回 ErrCacheMiss
	Get(ctx context.Context, key string) *redis.StringCmd
	// Set 设置缓存值，expiration 为 0 表示不过期
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	// SetNX 仅在 key 不存在时设置
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	// Del 删除缓存
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	// Keys 按 glob 模式列出 key（redis 实现使用 SCAN）
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	// TTL 剩余过期时间；TTLNoExpire 表示无过期，TTLMissing 表示不存在
	TTL(ctx context.Context, key string) *redis.DurationCmd
	// Expire 设置过期时间
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Sentinel TTL values, matching what go-redis v9 reports for -1 and -2.
const (
	TTLNoExpire time.Duration = -1
	TTLMissing  time.Duration = -2
)

func toBytes(value any, marshal func(any) ([]byte, error)) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return marshal(v)
	}
}
