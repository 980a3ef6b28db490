package domain

// LimitUnset is the external sentinel for an unconstrained frequency
// bound, used both on the wire and in arbiter state.
const LimitUnset = -1

// LimitKind selects which frequency bound an operation addresses.
type LimitKind int

const (
	// LimitFloor is the lower bound; resolution picks the nearest valid
	// frequency at or above the request.
	LimitFloor LimitKind = iota

	// LimitCeiling is the upper bound; resolution picks the nearest
	// valid frequency at or below the request. Ceiling wins when the
	// two bounds conflict.
	LimitCeiling
)

// String returns a human-readable kind name.
func (k LimitKind) String() string {
	switch k {
	case LimitFloor:
		return "floor"
	case LimitCeiling:
		return "ceiling"
	default:
		return "unknown"
	}
}

// TestLevel selects how far a transition proceeds before being
// deliberately aborted, for validation purposes. Stored by the
// coordinator, consulted by the downstream engines.
type TestLevel int

const (
	TestNone TestLevel = iota
	TestCore
	TestProcessors
	TestPlatform
	TestDevices
	TestFreezer

	testLevelCount
)

// testLevelNames holds the wire names, indexed by TestLevel.
var testLevelNames = [testLevelCount]string{
	TestNone:       "none",
	TestCore:       "core",
	TestProcessors: "processors",
	TestPlatform:   "platform",
	TestDevices:    "devices",
	TestFreezer:    "freezer",
}

// String returns the canonical name of the level, or "unknown".
func (l TestLevel) String() string {
	if l < 0 || l >= testLevelCount {
		return "unknown"
	}
	return testLevelNames[l]
}

// TestLevels returns all levels in enum order.
func TestLevels() []TestLevel {
	levels := make([]TestLevel, 0, testLevelCount)
	for l := TestNone; l < testLevelCount; l++ {
		levels = append(levels, l)
	}
	return levels
}
