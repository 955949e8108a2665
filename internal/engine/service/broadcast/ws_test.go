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
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id   string
	mu   sync.Mutex
	msgs []Event
}

func (f *fakeConn) ID() string                        { return f.id }
func (f *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("closed") }
func (f *fakeConn) Close() error                      { return nil }
func (f *fakeConn) RemoteAddr() string                { return "127.0.0.1:1" }
func (f *fakeConn) Context() context.Context          { return context.Background() }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	var ev Event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, ev)
	return nil
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestWSBroadcaster_Rooms(t *testing.T) {
	hub := ws.NewHub()
	b := NewWSBroadcaster(hub, 16)

	project := &fakeConn{id: "p"}
	global := &fakeConn{id: "g"}
	idle := &fakeConn{id: "i"}
	for _, c := range []*fakeConn{project, global, idle} {
		hub.Register(c)
	}
	require.NoError(t, b.OnMessage(project, ws.TextMessage, []byte(`{"event":"subscribe_project","data":7}`)))
	require.NoError(t, b.OnMessage(global, ws.TextMessage, []byte(`{"event":"subscribe_global"}`)))

	b.ExecutionUpdated(&model.Execution{ID: 1, ProjectID: 7, ExecutionID: "run-1", Status: model.StatusRunning})
	b.ExecutionUpdated(&model.Execution{ID: 2, ProjectID: 8, ExecutionID: "run-2", Status: model.StatusRunning})
	b.AlertTriggered(&model.Alert{ProjectID: 7, AlertType: model.AlertFailureRate})
	b.SystemStatus(map[string]string{"status": "ok"})
	b.Close()

	assert.Equal(t, []string{
		EventSubscriptionConfirmed, EventExecutionUpdated, EventAlertTriggered, EventSystemStatus,
	}, project.types())
	assert.Equal(t, []string{
		EventSubscriptionConfirmed, EventExecutionUpdated, EventExecutionUpdated, EventAlertTriggered, EventSystemStatus,
	}, global.types())
	assert.Equal(t, []string{EventSystemStatus}, idle.types())
}

func TestWSBroadcaster_ClientProtocol(t *testing.T) {
	hub := ws.NewHub()
	b := NewWSBroadcaster(hub, 4)
	defer b.Close()

	c := &fakeConn{id: "c"}
	hub.Register(c)
	require.NoError(t, b.OnConnect(c))
	require.NoError(t, b.OnMessage(c, ws.TextMessage, []byte(`{"event":"subscribe_project","data":"3"}`)))
	assert.Equal(t, []string{"project_3"}, hub.Rooms("c"))

	require.NoError(t, b.OnMessage(c, ws.TextMessage, []byte(`{"event":"unsubscribe_project","data":3}`)))
	assert.Empty(t, hub.Rooms("c"))

	require.NoError(t, b.OnMessage(c, ws.TextMessage, []byte(`{"event":"ping"}`)))
	require.NoError(t, b.OnMessage(c, ws.TextMessage, []byte(`{"event":"subscribe_project","data":"abc"}`)))
	require.NoError(t, b.OnMessage(c, ws.TextMessage, []byte(`not json`)))

	assert.Equal(t, []string{
		EventConnected, EventSubscriptionConfirmed, EventUnsubscriptionConfirmed, EventPong, EventError, EventError,
	}, c.types())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var _ Broadcaster = r
	var _ Broadcaster = Nop{}

	r.ExecutionUpdated(&model.Execution{ProjectID: 1})
	r.MetricsUpdated(1, nil)
	assert.Equal(t, 1, r.Count(EventExecutionUpdated))
	assert.Len(t, r.Events(), 2)
}

func TestProjectIDOf(t *testing.T) {
	tests := []struct {
		in   any
		want uint64
		ok   bool
	}{
		{float64(5), 5, true},
		{"12", 12, true},
		{float64(1.5), 0, false},
		{"x", 0, false},
		{nil, 0, false},
		{float64(0), 0, false},
	}
	for _, tt := range tests {
		got, ok := projectIDOf(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
