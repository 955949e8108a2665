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
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
	"github.com/go-arcade/pulse/pkg/safe"
	"github.com/go-arcade/pulse/pkg/ws"
)

const defaultQueueSize = 1024

type outbound struct {
	rooms   []string // nil means every connection
	typ     string
	payload []byte
}

// WSBroadcaster publishes events over the websocket hub. Events are queued
// and written by a single goroutine; a full queue drops the event.
type WSBroadcaster struct {
	hub       ws.Hub
	queue     chan outbound
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	now       func() time.Time
}

func NewWSBroadcaster(hub ws.Hub, queueSize int) *WSBroadcaster {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	b := &WSBroadcaster{
		hub:   hub,
		queue: make(chan outbound, queueSize),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	b.wg.Add(1)
	go b.loop()
	return b
}

func (b *WSBroadcaster) loop() {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.queue:
			b.deliver(msg)
		case <-b.done:
			// drain what is already queued
			for {
				select {
				case msg := <-b.queue:
					b.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *WSBroadcaster) deliver(msg outbound) {
	safe.Do(func() {
		var sent int
		if msg.rooms == nil {
			sent = b.hub.Broadcast(ws.TextMessage, msg.payload)
		} else {
			sent = b.hub.BroadcastRooms(msg.rooms, ws.TextMessage, msg.payload)
		}
		log.Debugw("event broadcast", "type", msg.typ, "rooms", msg.rooms, "sent", sent)
	})
}

func (b *WSBroadcaster) publish(rooms []string, typ string, data any) {
	payload, err := sonic.Marshal(Event{Type: typ, Data: data, Timestamp: b.now()})
	if err != nil {
		log.Warnw("failed to encode event", "type", typ, "error", err)
		return
	}
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.queue <- outbound{rooms: rooms, typ: typ, payload: payload}:
	default:
		log.Warnw("broadcast queue full, event dropped", "type", typ)
	}
}

func (b *WSBroadcaster) ExecutionUpdated(e *model.Execution) {
	b.publish([]string{ProjectRoom(e.ProjectID), GlobalRoom}, EventExecutionUpdated, executionUpdate(e))
}

func (b *WSBroadcaster) MetricsUpdated(projectID uint64, metrics any) {
	b.publish([]string{ProjectRoom(projectID), GlobalRoom}, EventMetricsUpdated,
		MetricsUpdate{ProjectID: projectID, Metrics: metrics})
}

func (b *WSBroadcaster) AlertTriggered(a *model.Alert) {
	rooms := []string{GlobalRoom}
	if a.ProjectID != 0 {
		rooms = append([]string{ProjectRoom(a.ProjectID)}, rooms...)
	}
	b.publish(rooms, EventAlertTriggered, a)
}

func (b *WSBroadcaster) SystemStatus(status any) {
	b.publish(nil, EventSystemStatus, status)
}

// Close stops accepting events and flushes the queue.
func (b *WSBroadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
	})
}

// client protocol

type clientMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type confirmation struct {
	ProjectID any    `json:"projectId,omitempty"`
	Type      string `json:"type,omitempty"`
	Message   string `json:"message"`
}

// OnConnect implements ws.Handler.
func (b *WSBroadcaster) OnConnect(conn ws.Conn) error {
	pkgmetrics.WebsocketConnections.Inc()
	log.Infow("websocket client connected", "id", conn.ID(), "remote", conn.RemoteAddr())
	return b.reply(conn, EventConnected, map[string]any{
		"message":   "WebSocket connection established",
		"socketId":  conn.ID(),
		"timestamp": b.now(),
	})
}

func (b *WSBroadcaster) OnMessage(conn ws.Conn, messageType int, data []byte) error {
	if messageType != ws.TextMessage {
		return nil
	}
	var msg clientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return b.reply(conn, EventError, map[string]string{"message": "invalid message"})
	}

	switch msg.Event {
	case "subscribe_project":
		id, ok := projectIDOf(msg.Data)
		if !ok {
			return b.reply(conn, EventError, map[string]string{"message": "Failed to subscribe to project"})
		}
		if err := b.hub.Join(conn.ID(), ProjectRoom(id)); err != nil {
			return err
		}
		return b.reply(conn, EventSubscriptionConfirmed, confirmation{
			ProjectID: id, Message: "Successfully subscribed to project updates",
		})
	case "unsubscribe_project":
		id, ok := projectIDOf(msg.Data)
		if !ok {
			return b.reply(conn, EventError, map[string]string{"message": "Failed to unsubscribe from project"})
		}
		if err := b.hub.Leave(conn.ID(), ProjectRoom(id)); err != nil {
			return err
		}
		return b.reply(conn, EventUnsubscriptionConfirmed, confirmation{
			ProjectID: id, Message: "Successfully unsubscribed from project updates",
		})
	case "subscribe_global":
		if err := b.hub.Join(conn.ID(), GlobalRoom); err != nil {
			return err
		}
		return b.reply(conn, EventSubscriptionConfirmed, confirmation{
			Type: "global", Message: "Successfully subscribed to global updates",
		})
	case "ping":
		return b.reply(conn, EventPong, map[string]any{"timestamp": b.now()})
	default:
		log.Debugw("unknown websocket event", "id", conn.ID(), "event", msg.Event)
		return nil
	}
}

func (b *WSBroadcaster) OnDisconnect(conn ws.Conn, err error) {
	pkgmetrics.WebsocketConnections.Dec()
	log.Infow("websocket client disconnected", "id", conn.ID(), "reason", err)
}

func (b *WSBroadcaster) OnError(conn ws.Conn, err error) {
	log.Warnw("websocket handler error", "id", conn.ID(), "error", err)
}

func (b *WSBroadcaster) reply(conn ws.Conn, typ string, data any) error {
	payload, err := sonic.Marshal(Event{Type: typ, Data: data, Timestamp: b.now()})
	if err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, payload)
}

// projectIDOf accepts a number or a numeric string.
func projectIDOf(v any) (uint64, bool) {
	switch id := v.(type) {
	case float64:
		if id <= 0 || id != float64(uint64(id)) {
			return 0, false
		}
		return uint64(id), true
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}
