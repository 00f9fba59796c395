// Package events is the seam between the core and the presentation layer:
// the core publishes collection-changed notifications, renderers subscribe.
// The core never calls into rendering logic directly.
package events

import "sync"

// Kind represents the type of change notification produced by the core.
type Kind string

const (
	RecordsChanged  Kind = "records_changed"
	CommentsChanged Kind = "comments_changed"
	SyncState       Kind = "sync_state"
)

// Event carries the notification kind and a short human-readable detail
// (sync status text, counts). Subscribers re-query the owning component for
// full data.
type Event struct {
	Kind   Kind
	Detail string
}

// Bus is a lightweight in-process pub-sub with non-blocking publish: a slow
// subscriber drops events rather than stalling the event-handling flow.
type Bus struct {
	mu   sync.Mutex
	subs []chan Event
	buf  int
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{buf: buffer}
}

// Subscribe returns a read-only channel receiving future events.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.buf)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers evt to every subscriber without blocking. Returns the
// number of subscribers that received it.
func (b *Bus) Publish(evt Event) int {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	delivered := 0
	for _, ch := range subs {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}
