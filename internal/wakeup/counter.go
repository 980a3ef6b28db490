// Package wakeup implements the race-avoidance handshake between a
// privileged client preparing a sleep transition and the detector that
// records wakeup-capable events.
//
// The client reads the counter, carries out its own preparation, then
// commits the value it read. A commit against a stale value proves that
// at least one wakeup event happened during preparation and the pending
// transition must be abandoned. This converts "did anything happen since
// I last checked" into a single atomic compare instead of a time-window
// race.
package wakeup

import (
	"sync"

	"github.com/arclight-labs/pmcore/internal/domain"
)

// Counter holds the process-wide wakeup event count and the single-slot
// armed baseline. The detector side increments the count; the client
// side reads and commits baselines. All operations are serialized by an
// internal mutex so the compare-and-commit is atomic.
type Counter struct {
	mu         sync.Mutex
	count      uint64
	inProgress int
	baseline   uint64
	armed      bool
}

// NewCounter creates a counter starting at zero with no armed baseline.
func NewCounter() *Counter {
	return &Counter{}
}

// BeginEvent marks the start of a detector-side event record. While any
// record is open, Read fails with ErrInterrupted.
func (c *Counter) BeginEvent() {
	c.mu.Lock()
	c.inProgress++
	c.mu.Unlock()
}

// EndEvent completes a detector-side event record, incrementing the
// count exactly once.
func (c *Counter) EndEvent() {
	c.mu.Lock()
	if c.inProgress > 0 {
		c.inProgress--
	}
	c.count++
	c.mu.Unlock()
}

// Read returns the current count. It fails with ErrInterrupted while a
// detector-side record is open; callers should treat that as "try
// again", not as fatal.
func (c *Counter) Read() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress > 0 {
		return 0, domain.ErrInterrupted
	}
	return c.count, nil
}

// CommitBaseline arms expected as the new baseline if and only if it
// equals the current count and no detector-side record is open.
// Otherwise it fails with ErrConflict: at least one wakeup event has
// occurred since the caller read the counter, and the caller must
// abandon its pending transition.
func (c *Counter) CommitBaseline(expected uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress > 0 || c.count != expected {
		return domain.ErrConflict
	}
	c.baseline = expected
	c.armed = true
	return nil
}

// Pending reports whether any wakeup event has been recorded since the
// baseline was armed. Downstream engines consult this to abort an
// in-flight transition; the core itself never preempts.
func (c *Counter) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed && (c.inProgress > 0 || c.count != c.baseline)
}

// Disarm clears the armed baseline, typically after a completed resume.
func (c *Counter) Disarm() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
}

// Receive disarms the baseline once a transition settles with a commit
// or an abort; prepare events pass through untouched. The counter never
// vetoes. Registering the counter on the notification bus keeps the
// armed window scoped to exactly one transition.
func (c *Counter) Receive(event domain.TransitionEvent) domain.Verdict {
	if event.Phase != domain.PhasePrepare {
		c.Disarm()
	}
	return domain.Accept
}
