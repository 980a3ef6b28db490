package ports

// QoSAggregator is the downstream resource-QoS mechanism. The core
// submits a single requirement value under its client name; aggregation
// across clients happens behind this interface.
type QoSAggregator interface {
	// UpdateRequirement replaces the named client's requirement, in kHz.
	UpdateRequirement(client string, freq int) error

	// DefaultValue returns the platform default requirement, used when
	// the floor is unconstrained.
	DefaultValue() int
}

// PolicyRefresher pushes the current frequency bounds to every active
// processing unit. This is the mechanism by which a new bound actually
// takes effect.
type PolicyRefresher interface {
	// RefreshAll re-evaluates the frequency policy on all active units.
	RefreshAll()
}
