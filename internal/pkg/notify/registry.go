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

package notify

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-arcade/pulse/internal/pkg/notify/channel"
)

// Registry maps channel names to channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]channel.Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]channel.Channel)}
}

// Register adds or replaces ch under ch.Name(). Channels with incomplete
// configuration are accepted; their sends fail at dispatch time.
func (r *Registry) Register(ch channel.Channel) error {
	if ch == nil {
		return fmt.Errorf("channel cannot be nil")
	}
	name := ch.Name()
	if name == "" {
		return fmt.Errorf("channel name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[name] = ch
	return nil
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, name)
}

func (r *Registry) Get(name string) (channel.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Names lists registered channels, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
