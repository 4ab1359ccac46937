// Package hooks carries notifications from the network manager to UI
// consumers. Each consumer holds an explicit Subscription; closing it
// revokes delivery immediately, so a torn-down view never receives late
// notifications.
package hooks

import (
	"sync"

	"github.com/vovakirdan/arena-sync/internal/state"
)

// Notification is a marker interface for everything published to the UI.
type Notification interface {
	isNotification()
}

// ConnectionChanged is published on every open/close transition. The UI
// shows its connecting overlay while Open is false.
type ConnectionChanged struct {
	Open    bool
	Attempt int
	URL     string
}

// Joined is published when the server assigns the local player ID.
type Joined struct {
	LocalID uint8
}

// ChatReceived carries a new chat line.
type ChatReceived struct {
	Line state.ChatLine
}

// PlacementRejected is published when the server refuses a placement or the
// local check fails.
type PlacementRejected struct {
	Kind   uint8
	Reason string
}

// SkinReady is published once skin bytes are cached.
type SkinReady struct {
	Skin uint8
}

// Status is a periodic summary of the match for status views.
type Status struct {
	Open       bool
	LocalID    uint8
	HasLocal   bool
	LocalName  string
	Gold       uint32
	Tick       uint32
	Players    int
	Neutral    int
	Buildings  int
	Units      int
	Bullets    int
	Placements int
	Pending    bool
	Chat       []state.ChatLine
}

func (ConnectionChanged) isNotification() {}
func (Joined) isNotification()            {}
func (ChatReceived) isNotification()      {}
func (PlacementRejected) isNotification() {}
func (SkinReady) isNotification()         {}
func (Status) isNotification()            {}

// DefaultBuffer is the per-subscriber mailbox size.
const DefaultBuffer = 64

// Subscription is one consumer's mailbox. When full, the oldest
// notification is dropped so the publisher never blocks.
type Subscription struct {
	hub       *Hub
	id        uint64
	ch        chan Notification
	done      chan struct{}
	closeOnce sync.Once
}

// C returns the channel notifications arrive on.
func (s *Subscription) C() <-chan Notification {
	return s.ch
}

// Done returns a channel that closes when the subscription is revoked.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close revokes the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s.id)
		close(s.done)
	})
}

func (s *Subscription) deliver(n Notification) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.ch <- n:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- n:
		default:
		}
	}
}

// Hub fans notifications out to subscribers.
// Thread-safe for concurrent access.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a new consumer with the given buffer size.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscription{
		hub:  h,
		id:   h.nextID,
		ch:   make(chan Notification, buffer),
		done: make(chan struct{}),
	}
	h.subs[s.id] = s
	return s
}

// Publish delivers n to every live subscriber without blocking.
func (h *Hub) Publish(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		s.deliver(n)
	}
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}
