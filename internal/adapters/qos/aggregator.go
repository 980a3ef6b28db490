// Package qos provides the default in-process QoS aggregator: named
// clients submit frequency requirements and the highest one wins.
package qos

import (
	"sync"

	"github.com/arclight-labs/pmcore/pkg/log"
)

// Aggregator implements ports.QoSAggregator. Each client holds at most
// one requirement; the effective value is the maximum across clients,
// never below the platform default.
type Aggregator struct {
	def    int
	logger log.Logger

	mu   sync.Mutex
	reqs map[string]int
}

// NewAggregator creates an aggregator with the given platform default
// requirement in kHz.
func NewAggregator(def int, logger log.Logger) *Aggregator {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Aggregator{
		def:    def,
		logger: logger,
		reqs:   make(map[string]int),
	}
}

// UpdateRequirement replaces the named client's requirement.
func (a *Aggregator) UpdateRequirement(client string, freq int) error {
	a.mu.Lock()
	a.reqs[client] = freq
	effective := a.effectiveLocked()
	a.mu.Unlock()

	a.logger.Debug("qos requirement updated",
		log.String("client", client),
		log.Int("khz", freq),
		log.Int("effective_khz", effective))
	return nil
}

// RemoveRequirement drops the named client's requirement entirely.
func (a *Aggregator) RemoveRequirement(client string) {
	a.mu.Lock()
	delete(a.reqs, client)
	a.mu.Unlock()
}

// DefaultValue returns the platform default requirement.
func (a *Aggregator) DefaultValue() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.def
}

// SetDefaultValue replaces the platform default requirement. Values
// below one are ignored. Takes effect on the next floor unlock.
func (a *Aggregator) SetDefaultValue(def int) {
	if def < 1 {
		return
	}
	a.mu.Lock()
	a.def = def
	a.mu.Unlock()
	a.logger.Info("qos default updated", log.Int("khz", def))
}

// Effective returns the aggregated requirement across all clients.
func (a *Aggregator) Effective() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.effectiveLocked()
}

func (a *Aggregator) effectiveLocked() int {
	effective := a.def
	for _, freq := range a.reqs {
		if freq > effective {
			effective = freq
		}
	}
	return effective
}
