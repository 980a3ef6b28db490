// Package dvfs implements the frequency limit arbiter: two independent
// bounds (floor and ceiling) on processing-unit frequency, priority
// resolution when they conflict, and propagation of the effective
// requirement to the downstream QoS aggregator.
package dvfs

import (
	"sync"

	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/ports"
	"github.com/arclight-labs/pmcore/pkg/log"
)

// Arbiter holds the floor and ceiling limits. The ceiling always wins
// when the two conflict: the requirement pushed downstream never exceeds
// the ceiling, while the floor value stays recorded for restoration once
// the ceiling is lifted.
//
// A failed operation leaves floor, ceiling, and the override flag
// exactly as they were; the QoS push happens before any field is
// committed.
type Arbiter struct {
	table  ports.FrequencyTable
	qos    ports.QoSAggregator
	units  ports.PolicyRefresher
	client string
	logger log.Logger

	mu     sync.Mutex
	floor  int
	ceil   int
	forced bool // floor requirement currently replaced by the ceiling
	debug  bool
}

// NewArbiter creates an arbiter with both limits unconstrained. client
// names this core to the QoS aggregator.
func NewArbiter(table ports.FrequencyTable, qos ports.QoSAggregator, units ports.PolicyRefresher, client string, logger log.Logger) *Arbiter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Arbiter{
		table:  table,
		qos:    qos,
		units:  units,
		client: client,
		logger: logger,
		floor:  domain.LimitUnset,
		ceil:   domain.LimitUnset,
	}
}

// SetDebug toggles logging of resolution decisions.
func (a *Arbiter) SetDebug(enabled bool) {
	a.mu.Lock()
	a.debug = enabled
	a.mu.Unlock()
}

// Floor returns the current floor limit, or domain.LimitUnset.
func (a *Arbiter) Floor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.floor
}

// Ceiling returns the current ceiling limit, or domain.LimitUnset.
func (a *Arbiter) Ceiling() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ceil
}

// FloorOverridden reports whether the floor requirement is currently
// replaced by the ceiling value.
func (a *Arbiter) FloorOverridden() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forced
}

// SetCeiling applies a ceiling request: domain.LimitUnset unlocks, any
// non-negative value locks to the nearest valid frequency at or below
// the request. A request that resolves to no table entry fails with
// domain.ErrInvalidArgument and changes nothing.
func (a *Arbiter) SetCeiling(requested int) error {
	if requested == domain.LimitUnset {
		return a.unlockCeiling()
	}
	if requested < 0 {
		return domain.ErrInvalidArgument
	}
	return a.lockCeiling(requested)
}

// SetFloor applies a floor request: domain.LimitUnset unlocks, any
// non-negative value locks to the nearest valid frequency at or above
// the request.
func (a *Arbiter) SetFloor(requested int) error {
	if requested == domain.LimitUnset {
		return a.unlockFloor()
	}
	if requested < 0 {
		return domain.ErrInvalidArgument
	}
	return a.lockFloor(requested)
}

func (a *Arbiter) unlockCeiling() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ceil == domain.LimitUnset {
		a.logger.Info("ceiling unlock ignored, already unlocked")
		return nil
	}

	if a.forced && a.floor != domain.LimitUnset {
		// Restore the requirement the floor asked for originally.
		if err := a.qos.UpdateRequirement(a.client, a.floor); err != nil {
			return err
		}
	}
	a.ceil = domain.LimitUnset
	a.forced = false
	a.units.RefreshAll()
	a.logger.Info("ceiling unlocked")
	return nil
}

func (a *Arbiter) lockCeiling(requested int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	level, ok := a.table.Resolve(requested, domain.LimitCeiling)
	if !ok {
		a.logger.Warn("ceiling lock request is invalid", log.Int("requested_khz", requested))
		return domain.ErrInvalidArgument
	}
	if a.debug {
		a.logger.Debug("ceiling resolved",
			log.Int("requested_khz", requested),
			log.Int("matched_khz", level))
	}

	forced := a.floor != domain.LimitUnset && a.floor > level
	if forced {
		// Ceiling has priority over the floor: push the ceiling value
		// downstream and remember that the floor was displaced.
		if a.debug {
			a.logger.Debug("floor forced down by ceiling",
				log.Int("floor_khz", a.floor),
				log.Int("ceiling_khz", level))
		}
		if err := a.qos.UpdateRequirement(a.client, level); err != nil {
			return err
		}
	} else if a.forced && a.floor != domain.LimitUnset {
		// The new ceiling no longer displaces the floor; restore the
		// requirement the floor asked for originally.
		if err := a.qos.UpdateRequirement(a.client, a.floor); err != nil {
			return err
		}
	}

	a.ceil = level
	a.forced = forced
	a.units.RefreshAll()
	a.logger.Info("ceiling locked", log.Int("khz", level))
	return nil
}

func (a *Arbiter) unlockFloor() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.floor == domain.LimitUnset {
		a.logger.Info("floor unlock ignored, already unlocked")
		return nil
	}

	if err := a.qos.UpdateRequirement(a.client, a.qos.DefaultValue()); err != nil {
		return err
	}
	a.floor = domain.LimitUnset
	a.forced = false
	a.units.RefreshAll()
	a.logger.Info("floor unlocked")
	return nil
}

func (a *Arbiter) lockFloor(requested int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	level, ok := a.table.Resolve(requested, domain.LimitFloor)
	if !ok {
		a.logger.Warn("floor lock request is invalid", log.Int("requested_khz", requested))
		return domain.ErrInvalidArgument
	}
	if a.debug {
		a.logger.Debug("floor resolved",
			log.Int("requested_khz", requested),
			log.Int("matched_khz", level))
	}

	forced := a.ceil != domain.LimitUnset && level > a.ceil
	effective := level
	if forced {
		if a.debug {
			a.logger.Debug("floor forced down by ceiling",
				log.Int("floor_khz", level),
				log.Int("ceiling_khz", a.ceil))
		}
		effective = a.ceil
	}
	if err := a.qos.UpdateRequirement(a.client, effective); err != nil {
		return err
	}

	a.floor = level
	a.forced = forced
	a.units.RefreshAll()
	a.logger.Info("floor locked", log.Int("khz", level))
	return nil
}

// Table returns the valid frequencies in descending order, bounded by
// the current floor and ceiling when they are set.
func (a *Arbiter) Table() []int {
	a.mu.Lock()
	floor, ceil := a.floor, a.ceil
	a.mu.Unlock()

	ascending := a.table.Frequencies()
	out := make([]int, 0, len(ascending))
	for i := len(ascending) - 1; i >= 0; i-- {
		f := ascending[i]
		if floor != domain.LimitUnset && f < floor {
			continue
		}
		if ceil != domain.LimitUnset && f > ceil {
			continue
		}
		out = append(out, f)
	}
	return out
}
