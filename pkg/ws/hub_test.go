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

package ws

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	msgs   [][]byte
	closed bool
	fail   bool
}

func (f *fakeConn) ID() string { return f.id }
func (f *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("not implemented") }
func (f *fakeConn) RemoteAddr() string { return "127.0.0.1:0" }
func (f *fakeConn) Context() context.Context { return context.Background() }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail || f.closed {
		return ErrConnectionClosed
	}
	f.msgs = append(f.msgs, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func TestHub_RoomBroadcast(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	c := &fakeConn{id: "c"}
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	require.NoError(t, hub.Join("a", "project_1"))
	require.NoError(t, hub.Join("b", "project_1"))
	require.NoError(t, hub.Join("c", "global_updates"))

	assert.Equal(t, 2, hub.BroadcastRoom("project_1", TextMessage, []byte("x")))
	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
	assert.Equal(t, 0, c.received())

	assert.Equal(t, 3, hub.Broadcast(TextMessage, []byte("y")))
	assert.Equal(t, 1, c.received())
}

func TestHub_LeaveAndUnregister(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{id: "a"}
	hub.Register(a)

	require.NoError(t, hub.Join("a", "project_1"))
	require.NoError(t, hub.Join("a", "global_updates"))
	assert.Equal(t, []string{"global_updates", "project_1"}, hub.Rooms("a"))

	require.NoError(t, hub.Leave("a", "project_1"))
	assert.Equal(t, 0, hub.RoomSize("project_1"))

	hub.Unregister(a)
	assert.True(t, a.closed)
	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0, hub.RoomSize("global_updates"))
	assert.ErrorIs(t, hub.Join("a", "project_1"), ErrConnNotFound)
}

func TestHub_FailedWriteNotCounted(t *testing.T) {
	hub := NewHub()
	hub.Register(&fakeConn{id: "ok"})
	hub.Register(&fakeConn{id: "broken", fail: true})
	_ = hub.Join("ok", "r")
	_ = hub.Join("broken", "r")

	assert.Equal(t, 1, hub.BroadcastRoom("r", TextMessage, []byte("z")))
}

func TestHub_SendToID(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{id: "a"}
	hub.Register(a)

	require.NoError(t, hub.SendToID("a", TextMessage, []byte("hi")))
	assert.ErrorIs(t, hub.SendToID("missing", TextMessage, nil), ErrConnNotFound)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{id: "a"}
	hub.Register(a)
	hub.Close()
	assert.True(t, a.closed)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_BroadcastRoomsDedup(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	hub.Register(a)
	hub.Register(b)
	require.NoError(t, hub.Join("a", "project_1"))
	require.NoError(t, hub.Join("a", "global_updates"))
	require.NoError(t, hub.Join("b", "global_updates"))

	assert.Equal(t, 2, hub.BroadcastRooms([]string{"project_1", "global_updates"}, TextMessage, []byte("x")))
	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
}
