// Package notify implements the transition notification bus: an ordered
// list of subscribers that receive transition lifecycle events exactly
// once each, in registration order.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/arclight-labs/pmcore/internal/domain"
)

// Subscriber receives transition events. Callbacks run synchronously on
// the broadcasting goroutine and must be fast and non-blocking; a stalled
// subscriber stalls the entire transition.
type Subscriber interface {
	// Receive handles one event. The verdict is only consulted for
	// PhasePrepare events; Reject aborts the transition.
	Receive(event domain.TransitionEvent) domain.Verdict
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(event domain.TransitionEvent) domain.Verdict

// Receive calls f.
func (f SubscriberFunc) Receive(event domain.TransitionEvent) domain.Verdict {
	return f(event)
}

// Handle identifies a registration so it can be removed later.
type Handle struct {
	id uuid.UUID
}

type entry struct {
	id         uuid.UUID
	subscriber Subscriber
}

// Bus owns the ordered subscriber list. The zero value is not usable;
// construct with NewBus.
type Bus struct {
	mu      sync.Mutex
	entries []entry
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Register appends the subscriber to the list. Registration order is
// broadcast order.
func (b *Bus) Register(s Subscriber) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	b.entries = append(b.entries, entry{id: id, subscriber: s})
	return Handle{id: id}
}

// Unregister removes the registration identified by h. Removing an
// unknown or already-removed handle is a no-op.
func (b *Bus) Unregister(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.entries {
		if e.id == h.id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Broadcast delivers the event to subscribers in registration order.
// For PhasePrepare events the first Reject stops further delivery and
// yields domain.ErrRejected; verdicts on other phases are ignored.
// Callbacks run without the bus lock held, so subscribers may register
// or unregister from inside a callback; such changes take effect on the
// next broadcast.
func (b *Bus) Broadcast(event domain.TransitionEvent) error {
	b.mu.Lock()
	snapshot := make([]entry, len(b.entries))
	copy(snapshot, b.entries)
	b.mu.Unlock()

	for _, e := range snapshot {
		verdict := e.subscriber.Receive(event)
		if event.Phase == domain.PhasePrepare && verdict == domain.Reject {
			return domain.ErrRejected
		}
	}
	return nil
}
