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
)

type Conn interface {
	// ID 返回连接的唯一标识符
	ID() string

	// ReadMessage 读取一条消息
	ReadMessage() (messageType int, p []byte, err error)

	// WriteMessage 写入一条消息，实现需保证并发写安全
	WriteMessage(messageType int, data []byte) error

	// Close 关闭连接
	Close() error

	// RemoteAddr 返回远程地址
	RemoteAddr() string

	// Context 返回连接的上下文
	Context() context.Context
}

// Hub tracks live connections and their room membership.
type Hub interface {
	// Register 注册一个新连接
	Register(conn Conn)

	// Unregister 注销一个连接并退出其所有房间
	Unregister(conn Conn)

	// Join 将连接加入房间
	Join(connID, room string) error

	// Leave 将连接移出房间
	Leave(connID, room string) error

	// Rooms 返回连接所在的房间
	Rooms(connID string) []string

	// Broadcast 向所有连接广播消息
	Broadcast(messageType int, data []byte) int

	// BroadcastRoom 向房间内的连接广播消息，返回成功写入的连接数
	BroadcastRoom(room string, messageType int, data []byte) int
	// BroadcastRooms 向多个房间广播，同一连接只写一次
	BroadcastRooms(rooms []string, messageType int, data []byte) int

	// SendToID 向指定 ID 的连接发送消息
	SendToID(id string, messageType int, data []byte) error

	// GetConn 获取指定 ID 的连接
	GetConn(id string) (Conn, bool)

	// Count 返回当前连接数
	Count() int

	// RoomSize 返回房间内连接数
	RoomSize(room string) int

	// Close 关闭全部连接
	Close()
}

type Handler interface {
	// OnConnect 当连接建立时调用
	OnConnect(conn Conn) error

	// OnMessage 当收到消息时调用
	OnMessage(conn Conn, messageType int, data []byte) error

	// OnDisconnect 当连接断开时调用
	OnDisconnect(conn Conn, err error)

	// OnError 当发生错误时调用
	OnError(conn Conn, err error)
}

const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)
