package sensi

import (
	"log/slog"

	"github.com/voltlab/gridsense/factor"
)

// ThresholdMode selects how the base-kv branch filter treats the two
// terminal buses of a branch.
type ThresholdMode int

const (
	// ThresholdBoth retains a branch only when both terminal buses meet the
	// kv threshold. The default.
	ThresholdBoth ThresholdMode = iota

	// ThresholdOne retains a branch when at least one terminal bus meets
	// the kv threshold.
	ThresholdOne
)

// Options configures an Engine. Zero value plus DefaultOptions covers the
// common case; normalize fills the gaps before construction.
type Options struct {
	// BasePoint selects the linearization point (flat profile or a prior
	// AC solution stored on the bus records).
	BasePoint factor.BasePoint

	// Reactive additionally builds the voltage-side factorization, enabling
	// reactive-flow, reactive-loss and voltage-magnitude rows.
	Reactive bool

	// Lazy marks the engine as feeding a lazy-constraint loop. It is
	// carried for the caller's benefit; limit arrays are computed either
	// way so the ordering invariant holds under every configuration.
	Lazy bool

	// RelFlowTol and AbsFlowTol expand nominal limits into enforced limits:
	// enforced = max(L·(1+RelFlowTol), L+AbsFlowTol).
	RelFlowTol, AbsFlowTol float64

	// LazyRelFlowTol tightens the screening (lazy) limits:
	// lazy = min(L·(1+LazyRelFlowTol), enforced).
	LazyRelFlowTol float64

	// LazyRelVmTol is the voltage-magnitude analogue of LazyRelFlowTol.
	LazyRelVmTol float64

	// RelCoefTol and AbsCoefTol truncate sensitivity rows when they are
	// materialized into linear expressions: a coefficient is kept only if
	// |c| ≥ max(AbsCoefTol, RelCoefTol·max|row|).
	RelCoefTol, AbsCoefTol float64

	// KVThreshold excludes branches below the voltage level from
	// monitoring; zero disables filtering entirely.
	KVThreshold float64

	// KVThresholdMode selects the one- or both-terminal filter rule.
	KVThresholdMode ThresholdMode

	// MaxViolationsPerIteration and IterationLimit bound the caller's
	// lazy-constraint loop; the engine only stores them.
	MaxViolationsPerIteration int
	IterationLimit            int

	// Logger receives construction progress and degraded-data warnings.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the transmission models when
// nothing is overridden.
func DefaultOptions() Options {
	return Options{
		BasePoint:                 factor.Flat,
		Lazy:                      true,
		RelFlowTol:                0,
		AbsFlowTol:                1e-3,
		LazyRelFlowTol:            0.05,
		LazyRelVmTol:              0.01,
		RelCoefTol:                1e-6,
		AbsCoefTol:                1e-10,
		KVThreshold:               0,
		KVThresholdMode:           ThresholdBoth,
		MaxViolationsPerIteration: 5,
		IterationLimit:            100000,
	}
}

// normalize fills unset fields in place.
func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxViolationsPerIteration <= 0 {
		o.MaxViolationsPerIteration = 1
	}
	if o.IterationLimit <= 0 {
		o.IterationLimit = 1
	}
}
