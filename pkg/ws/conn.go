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
	"sync"
	"time"

	"github.com/go-arcade/pulse/pkg/id"
	"github.com/go-arcade/pulse/pkg/safe"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type conn struct {
	ws        *websocket.Conn
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

const (
	readLimit  = 64 * 1024
	pongWait   = 60 * time.Second    // 等待 pong 响应的超时时间
	pingPeriod = (pongWait * 9) / 10 // ping 发送周期，应该小于 pongWait
	writeWait  = 10 * time.Second    // 写入超时时间
)

func newConn(wsConn *websocket.Conn) *conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &conn{
		ws:     wsConn,
		id:     id.GetUUID(),
		ctx:    ctx,
		cancel: cancel,
		closed: make(chan struct{}),
	}
}

func (c *conn) ID() string {
	return c.id
}

func (c *conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

// WriteMessage serializes writers; the underlying connection supports a
// single concurrent writer only.
func (c *conn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()
		c.writeMu.Lock()
		err = c.ws.Close()
		c.writeMu.Unlock()
	})
	return err
}

func (c *conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *conn) Context() context.Context {
	return c.ctx
}

// Upgrade rejects requests that are not websocket upgrades.
func Upgrade() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.NewError(fiber.StatusUpgradeRequired, ErrUpgradeRequired.Error())
	}
}

// Handle runs the read loop for every accepted connection.
func Handle(hub Hub, handler Handler) fiber.Handler {
	return websocket.New(func(wsConn *websocket.Conn) {
		c := newConn(wsConn)

		wsConn.SetReadLimit(readLimit)
		_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
		wsConn.SetPongHandler(func(string) error {
			return wsConn.SetReadDeadline(time.Now().Add(pongWait))
		})

		hub.Register(c)

		var once sync.Once
		cleanup := func(err error) {
			once.Do(func() {
				hub.Unregister(c)
				if handler != nil {
					handler.OnDisconnect(c, err)
				}
			})
		}

		if handler != nil {
			if err := handler.OnConnect(c); err != nil {
				handler.OnError(c, err)
				cleanup(err)
				return
			}
		}

		safe.Go(c.pingLoop)

		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				cleanup(err)
				return
			}
			_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))

			if handler != nil {
				if err := handler.OnMessage(c, messageType, message); err != nil {
					handler.OnError(c, err)
				}
			}
		}
	})
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.WriteMessage(PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
