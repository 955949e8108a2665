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
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/cache"
)

// CooldownKey is alert:cooldown:{projectId}:{alertType}.
func CooldownKey(projectID uint64, alertType model.AlertType) string {
	return fmt.Sprintf("alert:cooldown:%d:%s", projectID, alertType)
}

// CooldownStore suppresses repeated alerts for the same key.
type CooldownStore interface {
	// Active reports whether key is still cooling down.
	Active(ctx context.Context, key string) (bool, error)
	// CheckAndSet claims key for ttl. It returns false when key was already
	// claimed and not yet expired; exactly one concurrent caller wins.
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryCooldown is a process-local cooldown table.
type MemoryCooldown struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryCooldown) Active(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(key), nil
}

func (m *MemoryCooldown) activeLocked(key string) bool {
	until, ok := m.entries[key]
	if !ok {
		return false
	}
	if !m.now().Before(until) {
		delete(m.entries, key)
		return false
	}
	return true
}

func (m *MemoryCooldown) CheckAndSet(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLocked(key) {
		return false, nil
	}
	m.entries[key] = m.now().Add(ttl)
	return true, nil
}

// Sweep drops expired entries.
func (m *MemoryCooldown) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := m.now()
	for key, until := range m.entries {
		if !now.Before(until) {
			delete(m.entries, key)
			n++
		}
	}
	return n
}

// RedisCooldown shares cooldowns across processes through SET NX PX.
type RedisCooldown struct {
	backend cache.ICache
}

func NewRedisCooldown(backend cache.ICache) *RedisCooldown {
	return &RedisCooldown{backend: backend}
}

// Active reads the remaining TTL rather than the value so a local cache tier
// in front of the backend cannot report a window that already closed remotely.
func (r *RedisCooldown) Active(ctx context.Context, key string) (bool, error) {
	ttl, err := r.backend.TTL(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return ttl > 0 || ttl == cache.TTLNoExpire, nil
}

func (r *RedisCooldown) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.backend.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// NewCooldownStore picks the store named by conf. Without a backend the
// redis store falls back to memory.
func NewCooldownStore(conf config.AlertConfig, backend cache.ICache) CooldownStore {
	if conf.CooldownStore == config.CooldownStoreRedis && backend != nil {
		return NewRedisCooldown(backend)
	}
	return NewMemoryCooldown()
}
