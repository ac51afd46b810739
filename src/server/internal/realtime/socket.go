package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Socket is the slice of *websocket.Conn the gateway needs, split out
// so tests can stand in for a real network socket.
type Socket interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ Pusher = &SocketPusher{}

// SocketPusher serializes writes to one socket. Gorilla websockets
// allow only one concurrent writer, and both the read loop's pong
// replies and the fan-out push through here.
type SocketPusher struct {
	mutex  sync.Mutex
	socket Socket
}

func NewSocketPusher(socket Socket) *SocketPusher {
	return &SocketPusher{
		socket: socket,
	}
}

func (s *SocketPusher) Push(data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.socket.WriteMessage(websocket.TextMessage, data)
}

func (s *SocketPusher) Close() error {
	return s.socket.Close()
}
