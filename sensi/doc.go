// Package sensi implements the on-demand sensitivity engine for DC
// transmission-network optimization: given a frozen grid.Network snapshot it
// factors the reduced susceptance matrix once, then derives and caches
// linear sensitivity rows (PTDF, interface, loss, reactive, voltage and
// post-contingency variants) together with their constant offsets, limit
// policies and bulk flow/price evaluators.
//
// The engine exists to feed a lazy-constraint optimization loop: instead of
// materializing a dense constraint per branch up front, the model builder
// asks for individual rows only when a relaxed solve shows a violation.
// Each row costs one triangular solve against the factorization on first
// request and is cached for the engine's lifetime; topology is static, so a
// cache entry never invalidates.
//
// # Capabilities
//
// Options.Reactive selects whether the engine also owns the voltage-side
// factorization (reactive flow, reactive loss and voltage-magnitude rows).
// There is no type hierarchy: one engine, optional reactive state, and
// ErrNoReactive on reactive queries against a real-power-only engine.
//
// # Concurrency
//
// The engine is single-threaded by design. The factorizations and constant
// arrays are immutable after New returns and safe for concurrent readers,
// but the row caches use a plain check-then-compute-then-insert pattern and
// need external synchronization if shared across goroutines.
//
// # Errors
//
//	factor.ErrSingular       - network is disconnected; construction fails.
//	ErrIslandingContingency  - a registered outage disconnects the network.
//	ErrUnknownEntity         - queried key was never registered.
//	ErrUnknownContingency    - queried contingency was never registered.
//	ErrNoReactive            - reactive query on a real-power-only engine.
//	ErrDimension             - caller-supplied vector has the wrong length.
package sensi
