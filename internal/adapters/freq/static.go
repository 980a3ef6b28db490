// Package freq provides a frequency table oracle backed by a configured
// list of supported frequencies.
package freq

import (
	"fmt"
	"sort"

	"github.com/arclight-labs/pmcore/internal/domain"
)

// StaticTable implements ports.FrequencyTable over a fixed table, the
// way a platform driver would enumerate it once at boot.
type StaticTable struct {
	freqs []int // ascending, deduplicated
}

// NewStaticTable builds a table from the configured frequencies in kHz.
// The input need not be sorted. An empty or non-positive table is a
// configuration error.
func NewStaticTable(freqs []int) (*StaticTable, error) {
	if len(freqs) == 0 {
		return nil, fmt.Errorf("frequency table is empty")
	}
	sorted := make([]int, 0, len(freqs))
	seen := make(map[int]bool, len(freqs))
	for _, f := range freqs {
		if f <= 0 {
			return nil, fmt.Errorf("frequency table entry %d is not positive", f)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		sorted = append(sorted, f)
	}
	sort.Ints(sorted)
	return &StaticTable{freqs: sorted}, nil
}

// Resolve returns the nearest valid frequency for the requested bound:
// at or above for a floor, at or below for a ceiling.
func (t *StaticTable) Resolve(requested int, kind domain.LimitKind) (int, bool) {
	switch kind {
	case domain.LimitFloor:
		i := sort.SearchInts(t.freqs, requested)
		if i == len(t.freqs) {
			return 0, false
		}
		return t.freqs[i], true
	case domain.LimitCeiling:
		i := sort.SearchInts(t.freqs, requested+1)
		if i == 0 {
			return 0, false
		}
		return t.freqs[i-1], true
	default:
		return 0, false
	}
}

// Frequencies returns a copy of the table in ascending order.
func (t *StaticTable) Frequencies() []int {
	out := make([]int, len(t.freqs))
	copy(out, t.freqs)
	return out
}
