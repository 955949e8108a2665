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
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

const defaultLocalMaxBytes = 32 * 1024 * 1024

// Local configures the in-process L1 cache.
type Local struct {
	Enabled  bool
	MaxBytes int
	TTLRatio float64
}

var ProviderSet = wire.NewSet(
	ProvideRedis,
	ProvideFastCache,
	ProvideICache,
)

// ProvideRedis returns the client and a cleanup that closes it.
func ProvideRedis(conf Redis) (*redis.Client, func(), error) {
	client, err := NewRedis(conf)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideFastCache(conf Local) *FastCache {
	maxBytes := conf.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultLocalMaxBytes
	}
	return NewFastCache(FastCacheConfig{MaxBytes: maxBytes})
}

// ProvideICache layers the local cache over redis when it is enabled.
func ProvideICache(client *redis.Client, local *FastCache, conf Local) ICache {
	remote := NewRedisCache(client)
	if !conf.Enabled {
		return remote
	}
	ratio := conf.TTLRatio
	if ratio <= 0 {
		ratio = 0.8
	}
	return NewHybridCache(local, remote, HybridCacheConfig{
		LocalEnabled:  true,
		RemoteEnabled: true,
		LocalTTLRatio: ratio,
	})
}
