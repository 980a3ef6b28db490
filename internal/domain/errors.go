package domain

import "errors"

// Domain errors returned by the public API. Check with errors.Is.
// Failures reported by a downstream engine are propagated verbatim and do
// not map onto these sentinels.
var (
	// ErrInvalidArgument is returned for malformed or out-of-range input:
	// unknown state or level names, unresolvable frequencies, writes to
	// read-only endpoints. Operations failing this way change no state.
	ErrInvalidArgument = errors.New("pmcore: invalid argument")

	// ErrConflict is returned when a wakeup baseline commit observes a
	// counter value newer than the caller's snapshot. The caller must
	// restart its preparation sequence.
	ErrConflict = errors.New("pmcore: wakeup count conflict")

	// ErrInterrupted is returned when a wakeup counter read collides with
	// an in-progress event record. The caller should retry.
	ErrInterrupted = errors.New("pmcore: interrupted")

	// ErrRejected is returned when a bus subscriber vetoes a transition
	// during the prepare phase.
	ErrRejected = errors.New("pmcore: transition rejected")
)
