// Package domain contains the core entities and value objects of pmcore.
//
// It is the innermost layer: no dependencies on transports, storage, or
// logging, only the vocabulary shared by every other package.
//
// # Entities
//
//   - [SleepState]: the target power states a client may request
//   - [TransitionEvent]: a phase change broadcast to bus subscribers
//   - [TestLevel]: how far a transition proceeds before a deliberate abort
//   - [LimitKind]: which frequency bound an arbiter operation addresses
package domain
