// Package policy provides the frequency policy refresher used when no
// real governor is attached.
package policy

import (
	"fmt"

	"github.com/arclight-labs/pmcore/pkg/log"
)

// LogRefresher implements ports.PolicyRefresher by logging a refresh per
// execution unit. A platform integration would replace this with calls
// into its frequency governor.
type LogRefresher struct {
	units  int
	logger log.Logger
}

// NewLogRefresher creates a refresher for the given number of execution
// units. Unit count below one is treated as one.
func NewLogRefresher(units int, logger log.Logger) *LogRefresher {
	if units < 1 {
		units = 1
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &LogRefresher{units: units, logger: logger}
}

// RefreshAll re-evaluates the frequency policy of every execution unit.
func (r *LogRefresher) RefreshAll() {
	for i := 0; i < r.units; i++ {
		r.logger.Debug("frequency policy refreshed", log.String("unit", fmt.Sprintf("cpu%d", i)))
	}
}
