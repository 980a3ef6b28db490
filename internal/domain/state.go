package domain

// SleepState identifies a target system power state.
type SleepState int

const (
	// StateOn leaves the system fully running; only meaningful on
	// platforms that route display/peripheral power through the
	// coordinator.
	StateOn SleepState = iota

	// StateStandby is power-on suspend: shallow, fast resume.
	StateStandby

	// StateMem is suspend-to-RAM.
	StateMem

	// StateDisk is suspend-to-disk; memory contents are persisted to
	// storage and restored on the next boot.
	StateDisk

	stateCount
)

// stateNames holds the canonical wire names, indexed by SleepState.
// Registration order here is the order SupportedStates reports.
var stateNames = [stateCount]string{
	StateOn:      "on",
	StateStandby: "standby",
	StateMem:     "mem",
	StateDisk:    "disk",
}

// String returns the canonical name of the state, or "unknown".
func (s SleepState) String() string {
	if s < 0 || s >= stateCount {
		return "unknown"
	}
	return stateNames[s]
}

// Volatile reports whether resuming from s does not require reloading
// memory contents from storage.
func (s SleepState) Volatile() bool {
	return s == StateOn || s == StateStandby || s == StateMem
}

// VolatileStates returns the volatile states in enum order.
func VolatileStates() []SleepState {
	return []SleepState{StateOn, StateStandby, StateMem}
}

// TransitionPhase identifies a point in the transition lifecycle.
type TransitionPhase int

const (
	// PhasePrepare is broadcast before the downstream engine is invoked.
	// Subscribers may veto the transition at this phase only.
	PhasePrepare TransitionPhase = iota

	// PhaseCommit is broadcast after the engine reports success.
	PhaseCommit

	// PhaseAbort is broadcast when a subscriber rejected the prepare
	// phase or the engine reported failure. It may arrive without a
	// preceding PhasePrepare on subscribers registered mid-transition.
	PhaseAbort
)

// String returns a human-readable phase name.
func (p TransitionPhase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseCommit:
		return "commit"
	case PhaseAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// TransitionEvent is delivered synchronously to bus subscribers. It is
// constructed immediately before a downstream engine phase and discarded
// after the broadcast returns.
type TransitionEvent struct {
	Phase TransitionPhase
	State SleepState
}

// Verdict is a subscriber's answer to a transition event.
type Verdict int

const (
	// Accept lets the transition continue.
	Accept Verdict = iota

	// Reject vetoes the transition; later subscribers are not queried.
	Reject
)
