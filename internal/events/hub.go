package events

import "sync"

const subscriberBuffer = 10

// Hub fans run notifications out to SSE subscribers. Slow subscribers miss
// events rather than block a run; the gap shows up in Seq.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe closes ch. Calling it twice is harmless.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish numbers e and offers it to every subscriber.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	e.Seq = h.seq
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

// Emit publishes a new event. A nil hub is a no-op.
func (h *Hub) Emit(reqID, typ string, data any) {
	if h == nil {
		return
	}
	h.Publish(New(reqID, typ, data))
}
