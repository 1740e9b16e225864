package chat

import "sync"

// Hub fans events out to the live connections of each user. Delivery is
// best-effort: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan Event]struct{}{}}
}

func (h *Hub) Subscribe(userID string, buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan Event]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(userID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[userID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, userID)
	}
}

// Publish delivers evt to every connection of the given users and reports how
// many connections received it.
func (h *Hub) Publish(userIDs []string, evt Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, userID := range userIDs {
		for ch := range h.subs[userID] {
			select {
			case ch <- evt:
				delivered++
			default:
			}
		}
	}
	return delivered
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
