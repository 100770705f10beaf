package notify

import (
	"context"
	"sync"
)

const subscriberBuffer = 8

// Hub delivers messages to in-process subscribers of a session. A slow subscriber
// misses messages rather than blocking publishers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan Message]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan Message]struct{})}
}

// Subscribe registers for messages about sessionID. The returned func must be
// called to release the subscription.
func (h *Hub) Subscribe(sessionID string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[chan Message]struct{})
	}
	h.subscribers[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[sessionID], ch)
			if len(h.subscribers[sessionID]) == 0 {
				delete(h.subscribers, sessionID)
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[sessionID])
}

func (h *Hub) Publish(ctx context.Context, message Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[message.SessionID] {
		select {
		case ch <- message:
		default:
		}
	}
	return nil
}
