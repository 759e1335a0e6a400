package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

const DefaultSubscriberBuffer = 64

// Publisher accepts change events.
type Publisher interface {
	Publish(ev Event)
}

// Discard drops every event. Used when the database feed already
// announces writes.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Hub fans events out to subscribers. A subscriber whose buffer is full
// misses the event rather than stalling the publisher.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[uint64]chan Event),
		log:  log.With().Str("component", "realtime_hub").Logger(),
	}
}

type Subscription struct {
	id     uint64
	events chan Event
	hub    *Hub
	once   sync.Once
}

func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{id: h.nextID, events: make(chan Event, buffer), hub: h}
	h.subs[sub.id] = sub.events
	return sub
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.events)
	})
}

func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn().
				Uint64("subscriber", id).
				Str("complaint_id", ev.Complaint.ID.String()).
				Str("type", string(ev.Kind)).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
