package core

import (
	"sync"

	"github.com/gammazero/deque"
)

// DefaultHistorySize is the number of messages replayed to a new login.
const DefaultHistorySize = 50

// History is a bounded FIFO log of recent messages.
type History struct {
	mu       sync.RWMutex
	capacity int
	messages deque.Deque[Message]
}

// NewHistory creates a history holding at most capacity messages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{capacity: capacity}
}

// Append pushes msg to the tail, evicting the oldest entry when full.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages.PushBack(msg)
	for h.messages.Len() > h.capacity {
		h.messages.PopFront()
	}
}

// Snapshot returns the buffered messages oldest first. The slice is a copy.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, h.messages.Len())
	for i := range out {
		out[i] = h.messages.At(i)
	}
	return out
}

// Len returns the number of buffered messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.messages.Len()
}
