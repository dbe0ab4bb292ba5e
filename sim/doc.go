// Package sim provides the core discrete-event simulation engine for the
// multi-tenant SSD fairness simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - request.go: the Request value record flowing through the system
//   - event.go: completion events and the min-heap event queue
//   - simulator.go: the admit/dispatch/complete event loop
//
// # Architecture
//
// The package is deliberately flat. The driver (Simulator) owns one instance
// of each collaborator:
//   - ssd.go: the multi-channel fluid-bandwidth service model
//   - scheduler.go: the policy contract and the name-based factory
//   - rr.go, drr.go, wfq.go, startgap.go: the four fairness policies
//   - metrics.go: per-tenant counters, Jain's index, and result persistence
//
// Trace decoding and synthesis live in the sim/trace sub-package; the Cobra
// CLI in cmd/ is the only consumer of both.
//
// # Key Interface
//
// Scheduler is the single extension point: SetUsers / SetWeights /
// SetQuantum configure a policy, and the Enqueue -> PickUser -> Pop cycle
// drives it. StartGap shows how to compose policies by wrapping another
// Scheduler rather than subclassing it.
package sim
