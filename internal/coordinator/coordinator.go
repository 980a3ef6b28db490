// Package coordinator implements the sleep state controller: validation
// and dispatch of power-state transition requests, the transition
// lifecycle broadcast, and the small pieces of process-wide state that
// ride along with it (debug test level, async suspend flag).
package coordinator

import (
	"bytes"
	"context"
	"sync"

	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/notify"
	"github.com/arclight-labs/pmcore/internal/ports"
	"github.com/arclight-labs/pmcore/pkg/log"
)

// Capabilities enumerates what the platform supports. It replaces
// build-time feature exclusion: every capability is decided once at
// construction and checked at runtime.
type Capabilities struct {
	// ValidStates lists the volatile sleep states the platform can
	// actually enter.
	ValidStates []domain.SleepState

	// Hibernate reports whether the persist-to-storage state is
	// available.
	Hibernate bool

	// TestLevels reports whether the debug test level surface is
	// exposed.
	TestLevels bool

	// DVFS reports whether the frequency limit surface is exposed.
	DVFS bool
}

// Coordinator is the process-wide owner of transition dispatch. It is
// instantiated once at startup and shared by reference; there are no
// ambient globals.
type Coordinator struct {
	caps      Capabilities
	suspend   ports.SuspendEngine
	hibernate ports.HibernateEngine
	bus       *notify.Bus
	logger    log.Logger

	valid map[domain.SleepState]bool

	// mu serializes the scalar state below. It is never held across a
	// broadcast or an engine delegation.
	mu        sync.Mutex
	testLevel domain.TestLevel
	async     bool
}

// New creates a coordinator. The bus must be non-nil; engines may be nil
// only if the corresponding capability is absent.
func New(caps Capabilities, suspend ports.SuspendEngine, hibernate ports.HibernateEngine, bus *notify.Bus, logger log.Logger) *Coordinator {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	valid := make(map[domain.SleepState]bool, len(caps.ValidStates))
	for _, s := range caps.ValidStates {
		valid[s] = true
	}
	return &Coordinator{
		caps:      caps,
		suspend:   suspend,
		hibernate: hibernate,
		bus:       bus,
		logger:    logger,
		valid:     valid,
		async:     true,
	}
}

// Capabilities returns the platform capability set.
func (c *Coordinator) Capabilities() Capabilities {
	return c.caps
}

// ValidState reports whether the platform can enter the given volatile
// state.
func (c *Coordinator) ValidState(state domain.SleepState) bool {
	return c.valid[state]
}

// SupportedStates returns the platform-valid volatile states in enum
// order, with the persist-to-storage state appended when hibernation is
// supported.
func (c *Coordinator) SupportedStates() []domain.SleepState {
	var out []domain.SleepState
	for _, s := range domain.VolatileStates() {
		if c.valid[s] {
			out = append(out, s)
		}
	}
	if c.caps.Hibernate {
		out = append(out, domain.StateDisk)
	}
	return out
}

// RequestTransition parses token and dispatches the transition. The
// token is cut at the first line terminator. The persist-to-storage name
// is checked before the volatile-state table on every request so that a
// literal "disk" is never shadowed. Unknown tokens and platform-invalid
// states fail with domain.ErrInvalidArgument without dispatching.
func (c *Coordinator) RequestTransition(ctx context.Context, token []byte) error {
	if i := bytes.IndexByte(token, '\n'); i >= 0 {
		token = token[:i]
	}

	// Check hibernation first.
	if string(token) == domain.StateDisk.String() {
		if !c.caps.Hibernate {
			return domain.ErrInvalidArgument
		}
		return c.run(ctx, domain.StateDisk)
	}

	for _, s := range domain.VolatileStates() {
		name := s.String()
		if len(token) == len(name) && string(token) == name {
			if !c.valid[s] {
				return domain.ErrInvalidArgument
			}
			return c.run(ctx, s)
		}
	}
	return domain.ErrInvalidArgument
}

// run drives one transition through the notification lifecycle. The
// prepare broadcast may veto; engine failures abort; either way the
// full subscriber list hears about the outcome.
func (c *Coordinator) run(ctx context.Context, state domain.SleepState) error {
	c.logger.Info("transition requested", log.String("state", state.String()))

	if err := c.bus.Broadcast(domain.TransitionEvent{Phase: domain.PhasePrepare, State: state}); err != nil {
		c.logger.Warn("transition vetoed during prepare", log.String("state", state.String()))
		_ = c.bus.Broadcast(domain.TransitionEvent{Phase: domain.PhaseAbort, State: state})
		return err
	}

	var err error
	if state == domain.StateDisk {
		err = c.hibernate.Hibernate(ctx)
	} else {
		err = c.suspend.Suspend(ctx, state)
	}
	if err != nil {
		c.logger.Error("transition failed", log.String("state", state.String()), log.Err(err))
		_ = c.bus.Broadcast(domain.TransitionEvent{Phase: domain.PhaseAbort, State: state})
		return err
	}

	_ = c.bus.Broadcast(domain.TransitionEvent{Phase: domain.PhaseCommit, State: state})
	c.logger.Info("transition complete", log.String("state", state.String()))
	return nil
}

// TestLevel returns the current debug test level.
func (c *Coordinator) TestLevel() domain.TestLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.testLevel
}

// SetTestLevel matches token against the level name table with the same
// exact-match scan discipline as state parsing. Unknown names fail with
// domain.ErrInvalidArgument.
func (c *Coordinator) SetTestLevel(token []byte) error {
	if i := bytes.IndexByte(token, '\n'); i >= 0 {
		token = token[:i]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range domain.TestLevels() {
		name := l.String()
		if len(token) == len(name) && string(token) == name {
			c.testLevel = l
			return nil
		}
	}
	return domain.ErrInvalidArgument
}

// AsyncEnabled reports whether downstream device suspends may run
// concurrently. Stored here, consumed by the external device layer.
func (c *Coordinator) AsyncEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.async
}

// SetAsyncEnabled toggles the async suspend flag.
func (c *Coordinator) SetAsyncEnabled(enabled bool) {
	c.mu.Lock()
	c.async = enabled
	c.mu.Unlock()
}
