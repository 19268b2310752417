// Package grid defines the read-only network model consumed by the
// sensitivity engine: typed bus, branch, interface and contingency records,
// a validated frozen Network snapshot, and immutable name↔position Index
// bijections.
//
// A Network is constructed once from pre-validated data and never mutated
// afterwards. All derived machinery (factorizations, sensitivity caches)
// treats the snapshot as static for its whole lifetime; topology changes
// require building a new Network.
//
// # Conventions
//
//   - Every branch references buses present in the bus set.
//   - The reference bus is a distinguished member of the bus set; its voltage
//     angle is fixed at zero and it is eliminated from reduced-space vectors.
//   - Index positions are dense in [0, n) and stable for the Index lifetime.
//   - BusesNoRef preserves the relative order of Buses with the reference
//     entry removed.
//
// Errors:
//
//	ErrUnknownBus      - a branch, interface or ordering references a missing bus.
//	ErrUnknownBranch   - a contingency or interface references a missing branch.
//	ErrDuplicateName   - two entities share a name within one entity class.
//	ErrZeroReactance   - a branch carries zero series reactance.
//	ErrNoReferenceBus  - the reference bus is not part of the bus set.
package grid
