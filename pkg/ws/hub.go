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
	"sort"
	"sync"
)

// DefaultHub is a mutex guarded Hub. Writes happen outside the lock so a
// slow connection does not block registration.
type DefaultHub struct {
	mu      sync.RWMutex
	conns   map[string]Conn
	rooms   map[string]map[string]struct{} // room -> conn ids
	members map[string]map[string]struct{} // conn id -> rooms
}

func NewHub() *DefaultHub {
	return &DefaultHub{
		conns:   make(map[string]Conn),
		rooms:   make(map[string]map[string]struct{}),
		members: make(map[string]map[string]struct{}),
	}
}

func (h *DefaultHub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID()] = conn
	h.members[conn.ID()] = make(map[string]struct{})
}

func (h *DefaultHub) Unregister(conn Conn) {
	h.mu.Lock()
	id := conn.ID()
	_, ok := h.conns[id]
	if ok {
		for room := range h.members[id] {
			h.removeFromRoom(id, room)
		}
		delete(h.members, id)
		delete(h.conns, id)
	}
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
	}
}

func (h *DefaultHub) Join(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return ErrConnNotFound
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}
	h.members[connID][room] = struct{}{}
	return nil
}

func (h *DefaultHub) Leave(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return ErrConnNotFound
	}
	h.removeFromRoom(connID, room)
	return nil
}

// removeFromRoom must be called with mu held.
func (h *DefaultHub) removeFromRoom(connID, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.members[connID]; ok {
		delete(rooms, room)
	}
}

func (h *DefaultHub) Rooms(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.members[connID]))
	for room := range h.members[connID] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

func (h *DefaultHub) Broadcast(messageType int, data []byte) int {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return deliver(targets, messageType, data)
}

func (h *DefaultHub) BroadcastRoom(room string, messageType int, data []byte) int {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	return deliver(targets, messageType, data)
}

// BroadcastRooms delivers once to every connection in any of the rooms.
func (h *DefaultHub) BroadcastRooms(rooms []string, messageType int, data []byte) int {
	h.mu.RLock()
	seen := make(map[string]struct{})
	var targets []Conn
	for _, room := range rooms {
		for id := range h.rooms[room] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if c, ok := h.conns[id]; ok {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()
	return deliver(targets, messageType, data)
}

func deliver(targets []Conn, messageType int, data []byte) int {
	sent := 0
	for _, c := range targets {
		if err := c.WriteMessage(messageType, data); err == nil {
			sent++
		}
	}
	return sent
}

func (h *DefaultHub) SendToID(id string, messageType int, data []byte) error {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()

	if !ok {
		return ErrConnNotFound
	}
	return conn.WriteMessage(messageType, data)
}

func (h *DefaultHub) GetConn(id string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[id]
	return conn, ok
}

func (h *DefaultHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *DefaultHub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *DefaultHub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]Conn)
	h.rooms = make(map[string]map[string]struct{})
	h.members = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}
