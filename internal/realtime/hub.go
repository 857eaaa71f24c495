// Package realtime fans progress updates out to a user's live connections.
package realtime

import (
	"log/slog"
	"sync"
)

const defaultBuffer = 16

// Hub routes published payloads to the subscribers of a user.
type Hub struct {
	subs   map[string]map[*subscriber]struct{}
	buffer int
	mu     sync.RWMutex
}

type subscriber struct {
	ch   chan any
	once sync.Once
}

// NewHub creates a hub whose subscriber queues hold buffer payloads. A
// non-positive buffer uses the default.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a queue for userID. The returned func removes it and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan any, func()) {
	s := &subscriber{ch: make(chan any, h.buffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()

	slog.Debug("live subscriber added", "user_id", userID)

	return s.ch, func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
		s.once.Do(func() { close(s.ch) })
	}
}

// Publish sends payload to every subscriber of userID without blocking.
// Subscribers whose queue is full miss the payload.
func (h *Hub) Publish(userID string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[userID] {
		select {
		case s.ch <- payload:
		default:
			slog.Warn("live subscriber queue full, dropping update", "user_id", userID)
		}
	}
}

// Subscribers returns how many queues userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
