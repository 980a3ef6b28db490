// Package ports defines the interfaces that connect the coordination core
// to the platform-specific subsystems that actually change hardware state.
//
// The core triggers these collaborators and consumes their results; it
// never implements them. Reference adapters live in internal/adapters.
//
//   - [SuspendEngine]: executes a volatile sleep transition
//   - [HibernateEngine]: executes the persist-to-storage transition
//   - [FrequencyTable]: the ordered table of supported frequencies
//   - [QoSAggregator]: the downstream resource-QoS mechanism
//   - [PolicyRefresher]: pushes new frequency bounds to processing units
package ports
