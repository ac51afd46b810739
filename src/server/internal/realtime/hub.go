package realtime

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// GoneMark classifies a push to a connection this process no longer
// holds. Callers should reap the connection record and move on.
var GoneMark = errors.New("connection is gone")

// Pusher is one live client socket's write side.
type Pusher interface {
	Push(data []byte) error
	Close() error
}

// Hub is the in-process registry of live sockets, keyed by connection
// ID. Records in the connection store point back here.
type Hub struct {
	mutex   sync.RWMutex
	pushers map[string]Pusher
}

func NewHub() *Hub {
	return &Hub{
		pushers: make(map[string]Pusher),
	}
}

func (h *Hub) Register(connectionID string, pusher Pusher) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.pushers[connectionID] = pusher
}

func (h *Hub) Unregister(connectionID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.pushers, connectionID)
}

func (h *Hub) Push(connectionID string, data []byte) error {
	h.mutex.RLock()
	pusher, ok := h.pushers[connectionID]
	h.mutex.RUnlock()

	if !ok {
		return errors.Mark(errors.Newf("No live socket for connection %s", connectionID), GoneMark)
	}

	if err := pusher.Push(data); err != nil {
		return errors.Wrap(err, "Failed to write to the socket")
	}

	return nil
}

func (h *Hub) Size() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.pushers)
}
