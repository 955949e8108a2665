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

package broadcast

import (
	"sync"
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
)

// Recorder keeps every event in memory. Used by tests and the CLI dry run.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) record(typ string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: typ, Data: data, Timestamp: time.Now()})
}

func (r *Recorder) ExecutionUpdated(e *model.Execution) {
	r.record(EventExecutionUpdated, executionUpdate(e))
}

func (r *Recorder) MetricsUpdated(projectID uint64, metrics any) {
	r.record(EventMetricsUpdated, MetricsUpdate{ProjectID: projectID, Metrics: metrics})
}

func (r *Recorder) AlertTriggered(a *model.Alert) {
	r.record(EventAlertTriggered, a)
}

func (r *Recorder) SystemStatus(status any) {
	r.record(EventSystemStatus, status)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of the given type were recorded.
func (r *Recorder) Count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
