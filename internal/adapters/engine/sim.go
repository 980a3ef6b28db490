// Package engine provides simulated suspend and hibernate engines for
// running the daemon without platform firmware. They honor the debug
// test level, the async flag, and the wakeup pending check the same way
// a real engine is expected to.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/wakeup"
	"github.com/arclight-labs/pmcore/pkg/log"
)

// ErrWakeupPending is returned when a wakeup event recorded after the
// armed baseline aborts an in-flight transition.
var ErrWakeupPending = errors.New("engine: wakeup event pending, transition aborted")

// Options configure a simulated engine.
type Options struct {
	// TestLevel returns the current debug test level; at any level
	// other than TestNone the transition stops after the named stage.
	TestLevel func() domain.TestLevel

	// AsyncEnabled reports whether device suspends may run
	// concurrently. The simulation only logs the mode.
	AsyncEnabled func() bool

	// Counter is consulted for pending wakeup events between stages.
	Counter *wakeup.Counter

	// StageDelay simulates per-stage hardware latency. Zero means no
	// delay.
	StageDelay time.Duration

	Logger log.Logger
}

func (o *Options) setDefaults() {
	if o.TestLevel == nil {
		o.TestLevel = func() domain.TestLevel { return domain.TestNone }
	}
	if o.AsyncEnabled == nil {
		o.AsyncEnabled = func() bool { return true }
	}
	if o.Logger == nil {
		o.Logger = log.NewNoopLogger()
	}
}

// stages of a volatile suspend, in execution order. Each maps onto the
// test level that stops after it.
var suspendStages = []struct {
	name  string
	level domain.TestLevel
}{
	{"freeze processes", domain.TestFreezer},
	{"suspend devices", domain.TestDevices},
	{"platform prepare", domain.TestPlatform},
	{"offline processors", domain.TestProcessors},
	{"core powerdown", domain.TestCore},
}

// SimSuspend implements ports.SuspendEngine.
type SimSuspend struct {
	opts Options
}

// NewSimSuspend creates a simulated suspend engine.
func NewSimSuspend(opts Options) *SimSuspend {
	opts.setDefaults()
	return &SimSuspend{opts: opts}
}

// Suspend walks the suspend stages, aborting on a pending wakeup event
// and stopping early at the configured test level.
func (e *SimSuspend) Suspend(ctx context.Context, state domain.SleepState) error {
	level := e.opts.TestLevel()
	e.opts.Logger.Info("suspend starting",
		log.String("state", state.String()),
		log.String("test_level", level.String()),
		log.Bool("async", e.opts.AsyncEnabled()))

	for _, stage := range suspendStages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.opts.Counter != nil && e.opts.Counter.Pending() {
			e.opts.Logger.Warn("suspend aborted", log.String("stage", stage.name))
			return ErrWakeupPending
		}
		e.wait()
		e.opts.Logger.Debug("suspend stage complete", log.String("stage", stage.name))
		if level != domain.TestNone && level == stage.level {
			e.opts.Logger.Info("test level reached, resuming", log.String("stage", stage.name))
			return nil
		}
	}

	e.opts.Logger.Info("resumed", log.String("state", state.String()))
	return nil
}

// SimHibernate implements ports.HibernateEngine.
type SimHibernate struct {
	opts Options
}

// NewSimHibernate creates a simulated hibernation engine.
func NewSimHibernate(opts Options) *SimHibernate {
	opts.setDefaults()
	return &SimHibernate{opts: opts}
}

// Hibernate simulates the image write and powerdown, honoring the same
// pending-wakeup abort as the suspend path.
func (e *SimHibernate) Hibernate(ctx context.Context) error {
	level := e.opts.TestLevel()
	e.opts.Logger.Info("hibernation starting", log.String("test_level", level.String()))

	if err := ctx.Err(); err != nil {
		return err
	}
	if e.opts.Counter != nil && e.opts.Counter.Pending() {
		e.opts.Logger.Warn("hibernation aborted before image write")
		return ErrWakeupPending
	}
	e.wait()
	if level != domain.TestNone {
		e.opts.Logger.Info("test level set, skipping powerdown", log.String("level", level.String()))
		return nil
	}

	e.opts.Logger.Info("resumed from hibernation image")
	return nil
}

func (e *SimSuspend) wait()   { wait(e.opts.StageDelay) }
func (e *SimHibernate) wait() { wait(e.opts.StageDelay) }

func wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
