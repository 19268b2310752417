package grid

import "errors"

// Sentinel errors for network construction and lookup.
var (
	// ErrUnknownBus indicates a reference to a bus absent from the bus set.
	ErrUnknownBus = errors.New("grid: unknown bus")

	// ErrUnknownBranch indicates a reference to a branch absent from the branch set.
	ErrUnknownBranch = errors.New("grid: unknown branch")

	// ErrDuplicateName indicates two entities of the same class share a name.
	ErrDuplicateName = errors.New("grid: duplicate entity name")

	// ErrZeroReactance indicates a branch with zero series reactance.
	ErrZeroReactance = errors.New("grid: branch has zero reactance")

	// ErrNoReferenceBus indicates the designated reference bus is missing.
	ErrNoReferenceBus = errors.New("grid: reference bus not in bus set")
)

// Bus is one electrical node of the transmission network.
//
// VA and VM carry the linearization base point (angle in radians, magnitude
// in per-unit) when the snapshot was taken from a prior AC solution; under a
// flat start they are 0 and 1. Bs is the shunt susceptance at the bus, used
// only by the reactive-side factorization.
type Bus struct {
	// Name uniquely identifies the bus within its Network.
	Name string

	// BaseKV is the nominal voltage level, used for branch filtering.
	// Valid only when HasBaseKV is true; some data sources omit it.
	BaseKV    float64
	HasBaseKV bool

	// VMin and VMax bound the voltage magnitude in per-unit.
	VMin, VMax float64

	// VA is the base-point voltage angle in radians.
	VA float64

	// VM is the base-point voltage magnitude in per-unit (1.0 when flat).
	VM float64

	// Bs is the shunt susceptance in per-unit.
	Bs float64
}

// Branch is one transmission element connecting two buses.
//
// Flow orientation is FromBus→ToBus. A transformer carries a tap ratio and a
// phase-shift angle; for plain lines TapRatio is treated as 1 and PhaseShift
// as 0 regardless of the stored values.
type Branch struct {
	// Name uniquely identifies the branch within its Network.
	Name string

	// FromBus and ToBus name the terminal buses.
	FromBus, ToBus string

	// Reactance and Resistance are the series impedance components in per-unit.
	// Reactance must be nonzero.
	Reactance, Resistance float64

	// IsTransformer marks the branch as a transformer; only then do
	// TapRatio and PhaseShift take effect.
	IsTransformer bool

	// TapRatio is the off-nominal turns ratio (0 means nominal, 1.0).
	TapRatio float64

	// PhaseShift is the transformer phase-shift angle in degrees.
	PhaseShift float64

	// ChargingSusceptance is the total line-charging susceptance in per-unit.
	ChargingSusceptance float64

	// RatingLongTerm is the continuous thermal limit in MW.
	RatingLongTerm float64

	// RatingEmergency is the post-contingency thermal limit in MW;
	// zero means unlimited.
	RatingEmergency float64

	// BaseKV is the nominal voltage level of the branch.
	BaseKV float64
}

// Tap returns the effective tap ratio: TapRatio for transformers with a
// nonzero setting, otherwise 1.
func (b *Branch) Tap() float64 {
	if b.IsTransformer && b.TapRatio != 0 {
		return b.TapRatio
	}

	return 1
}

// InterfaceLine is one oriented member of a monitored interface.
// Orientation is +1 when the branch counts FromBus→ToBus into the interface
// flow, −1 when it counts reversed.
type InterfaceLine struct {
	Branch      string
	Orientation float64
}

// Interface is a named set of oriented branches whose summed flow is
// monitored against optional directional limits. A nil limit means
// unbounded in that direction.
type Interface struct {
	Name     string
	Lines    []InterfaceLine
	MaxLimit *float64
	MinLimit *float64
}

// Contingency is a single-branch outage scenario.
type Contingency struct {
	Name      string
	BranchOut string
}
