package ports

import (
	"context"

	"github.com/arclight-labs/pmcore/internal/domain"
)

// SuspendEngine executes a transition into a volatile sleep state.
// The call is synchronous and may take unbounded time; callers must not
// hold coordination locks across it. Once dispatched there is no
// cancellation from the core side: an in-flight wakeup is surfaced by the
// engine itself aborting and returning an error.
type SuspendEngine interface {
	// Suspend carries out the transition and returns the engine's own
	// result verbatim.
	Suspend(ctx context.Context, state domain.SleepState) error
}

// HibernateEngine executes the persist-to-storage transition.
type HibernateEngine interface {
	// Hibernate saves memory contents to storage and powers down.
	// On a successful resume it returns nil.
	Hibernate(ctx context.Context) error
}
