package ports

import "github.com/arclight-labs/pmcore/internal/domain"

// FrequencyTable is the oracle over the platform's ordered table of
// supported frequencies, in kHz.
type FrequencyTable interface {
	// Resolve returns the nearest valid frequency for the requested
	// bound: at or above the request for LimitFloor, at or below for
	// LimitCeiling. ok is false when no table entry satisfies the
	// request.
	Resolve(requested int, kind domain.LimitKind) (freq int, ok bool)

	// Frequencies returns all valid frequencies in ascending order.
	Frequencies() []int
}
