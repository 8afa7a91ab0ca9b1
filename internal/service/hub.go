package service

import (
	"sync"

	"github.com/google/uuid"
)

// Event signals a subscriber that its page changed. Err is non-nil only for
// the escalated empty-cache timeout.
type Event struct {
	Err error
}

// ChangeHub is the channel-backed broadcast behind the reactive read view.
// Writers publish page keys after mutating the store; subscribers re-query
// the store on every signal. Subscriber channels are small and sends never
// block: a dropped signal is harmless because the next query reads the
// latest state anyway.
type ChangeHub struct {
	mu   sync.Mutex
	subs map[string]map[string]chan Event
}

// NewChangeHub creates an empty hub.
func NewChangeHub() *ChangeHub {
	return &ChangeHub{
		subs: make(map[string]map[string]chan Event),
	}
}

// Subscribe registers interest in a page key. The returned ID must be passed
// to Unsubscribe when the consumer goes away.
func (h *ChangeHub) Subscribe(key string) (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, 2)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[key] == nil {
		h.subs[key] = make(map[string]chan Event)
	}
	h.subs[key][id] = ch

	return id, ch
}

// Unsubscribe removes a subscription.
func (h *ChangeHub) Unsubscribe(key, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subs[key]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.subs, key)
		}
	}
}

// Publish signals all subscribers of a page that its content changed.
func (h *ChangeHub) Publish(key string) {
	h.broadcast(key, Event{})
}

// PublishError signals all subscribers of a page that the empty-cache
// timeout elapsed.
func (h *ChangeHub) PublishError(key string, err error) {
	h.broadcast(key, Event{Err: err})
}

func (h *ChangeHub) broadcast(key string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[key] {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; it will pick up the state on its
			// next signal.
		}
	}
}
