package sensi

import "math"

// LimitPair is an (enforced, lazy) bound pair for a one-sided quantity.
// The enforced bound is what constraints ultimately hold flows to; the lazy
// bound is the tighter screening threshold the lazy-constraint loop uses to
// decide which constraints are worth adding. For nonnegative tolerances
// nominal ≤ lazy ≤ enforced always holds.
type LimitPair struct {
	Enforced, Lazy float64
}

// BoundPair is the two-sided analogue for interface and voltage bounds.
type BoundPair struct {
	EnforcedMax, EnforcedMin float64
	LazyMax, LazyMin         float64
}

// LimitSet carries every derived limit array of one options configuration.
// Recomputed only when the engine is rebuilt with different options;
// otherwise immutable.
type LimitSet struct {
	// Branch and Contingency are indexed by monitored (masked) branch
	// position; Interface by interface position; Voltage by full bus
	// position (reactive engines only, nil otherwise).
	Branch      []LimitPair
	Contingency []LimitPair
	Interface   []BoundPair
	Voltage     []BoundPair
}

// filterBranches applies the kv-threshold mask.
//
// Rule: under ThresholdOne a branch is retained when at least one terminal
// bus has base_kv ≥ threshold; under ThresholdBoth (default) both terminals
// must qualify. A bus with no base_kv data is conservatively treated as
// large, so it always passes, with a single warning per bus.
func (e *Engine) filterBranches() {
	branches := e.net.Branches()
	nb := branches.Len()

	if e.opts.KVThreshold <= 0 {
		// nothing to filter: every branch is monitored
		e.mask = make([]int, nb)
		e.maskedKeys = branches.Keys()
		e.maskedPos = make(map[string]int, nb)
		for k := 0; k < nb; k++ {
			e.mask[k] = k
			e.maskedPos[e.maskedKeys[k]] = k
		}

		return
	}

	warned := make(map[string]bool)
	pass := func(name string) bool {
		bus, _ := e.net.Bus(name)
		if !bus.HasBaseKV {
			if !warned[name] {
				warned[name] = true
				e.opts.Logger.Warn("bus has no base_kv; treating it as large for filtering", "bus", name)
			}

			return true
		}

		return bus.BaseKV >= e.opts.KVThreshold
	}

	one := e.opts.KVThresholdMode == ThresholdOne
	e.maskedPos = make(map[string]int)
	for k := 0; k < nb; k++ {
		br, _ := e.net.Branch(branches.Name(k))
		fp, tp := pass(br.FromBus), pass(br.ToBus)

		keep := fp && tp
		if one {
			keep = fp || tp
		}
		if keep {
			e.maskedPos[br.Name] = len(e.mask)
			e.mask = append(e.mask, k)
			e.maskedKeys = append(e.maskedKeys, br.Name)
		}
	}
}

// MonitoredBranches returns the branch names retained after kv filtering,
// in branch-index order. Only these branches have limits enforced.
func (e *Engine) MonitoredBranches() []string {
	out := make([]string, len(e.maskedKeys))
	copy(out, e.maskedKeys)

	return out
}

// computeLimits derives the enforced/lazy limit arrays from the nominal
// limits and the tolerance options:
//
//	enforced = max(L·(1+rel), L+abs)
//	lazy     = min(L·(1+lazyRel), enforced)
//
// with the symmetric min/max forms for two-sided bounds. The min against
// the enforced bound guarantees the lazy bound never excludes a point that
// would violate the enforced bound, for every tolerance configuration
// including all-zero.
func (e *Engine) computeLimits() LimitSet {
	rel, abs := e.opts.RelFlowTol, e.opts.AbsFlowTol
	lazyRel := e.opts.LazyRelFlowTol

	var ls LimitSet

	ls.Branch = make([]LimitPair, len(e.mask))
	ls.Contingency = make([]LimitPair, len(e.mask))
	for m, k := range e.mask {
		ls.Branch[m] = onesided(e.branchLimits[k], rel, abs, lazyRel)
		ls.Contingency[m] = onesided(e.contLimits[k], rel, abs, lazyRel)
	}

	ls.Interface = make([]BoundPair, len(e.ifaceMax))
	for i := range e.ifaceMax {
		ls.Interface[i] = twosided(e.ifaceMax[i], e.ifaceMin[i], rel, abs, lazyRel)
	}

	if e.opts.Reactive {
		buses := e.net.Buses()
		ls.Voltage = make([]BoundPair, buses.Len())
		for i := 0; i < buses.Len(); i++ {
			bus, _ := e.net.Bus(buses.Name(i))
			ls.Voltage[i] = vmBounds(bus.VMax, bus.VMin, rel, abs, e.opts.LazyRelVmTol)
		}
	}

	return ls
}

// onesided applies the enforced/lazy formulas to a symmetric |flow| ≤ L
// limit.
func onesided(nominal, rel, abs, lazyRel float64) LimitPair {
	enforced := math.Max(nominal*(1+rel), nominal+abs)

	return LimitPair{
		Enforced: enforced,
		Lazy:     math.Min(nominal*(1+lazyRel), enforced),
	}
}

// twosided applies the directional formulas to a min ≤ flow ≤ max bound,
// expanding each side away from the feasible band by the relative tolerance
// of its own magnitude. An unbounded side stays unbounded; the arithmetic
// is skipped there since 0·Inf is NaN.
func twosided(max, min, rel, abs, lazyRel float64) BoundPair {
	bp := BoundPair{EnforcedMax: max, LazyMax: max, EnforcedMin: min, LazyMin: min}

	if !math.IsInf(max, 1) {
		absMax := math.Abs(max)
		bp.EnforcedMax = math.Max(max+rel*absMax, max+abs)
		bp.LazyMax = math.Min(max+lazyRel*absMax, bp.EnforcedMax)
	}
	if !math.IsInf(min, -1) {
		absMin := math.Abs(min)
		bp.EnforcedMin = math.Min(min-rel*absMin, min-abs)
		bp.LazyMin = math.Max(min-lazyRel*absMin, bp.EnforcedMin)
	}

	return bp
}

// vmBounds applies the voltage-magnitude variant: multiplicative expansion
// on both sides, with the vm-specific lazy tolerance.
func vmBounds(ub, lb, rel, abs, lazyRel float64) BoundPair {
	enfUB := math.Max(ub*(1+rel), ub+abs)
	enfLB := math.Min(lb*(1-rel), lb-abs)

	return BoundPair{
		EnforcedMax: enfUB,
		EnforcedMin: enfLB,
		LazyMax:     math.Min(ub*(1+lazyRel), enfUB),
		LazyMin:     math.Max(lb*(1-lazyRel), enfLB),
	}
}

// Limits returns the derived limit arrays for the current options.
func (e *Engine) Limits() LimitSet { return e.limits }

// BranchLimit returns the enforced/lazy thermal limit pair for a monitored
// branch. ErrUnknownEntity covers both never-registered and filtered-out
// branches.
func (e *Engine) BranchLimit(name string) (LimitPair, error) {
	m, ok := e.maskedPos[name]
	if !ok {
		return LimitPair{}, unknownEntity("branch", name)
	}

	return e.limits.Branch[m], nil
}

// ContingencyLimit returns the enforced/lazy emergency-rating pair for a
// monitored branch.
func (e *Engine) ContingencyLimit(name string) (LimitPair, error) {
	m, ok := e.maskedPos[name]
	if !ok {
		return LimitPair{}, unknownEntity("branch", name)
	}

	return e.limits.Contingency[m], nil
}

// InterfaceLimit returns the enforced/lazy bound pair for an interface.
func (e *Engine) InterfaceLimit(name string) (BoundPair, error) {
	i, ok := e.net.Interfaces().Position(name)
	if !ok {
		return BoundPair{}, unknownEntity("interface", name)
	}

	return e.limits.Interface[i], nil
}

// VoltageLimit returns the enforced/lazy voltage-magnitude bound pair for a
// bus. Requires a reactive engine.
func (e *Engine) VoltageLimit(name string) (BoundPair, error) {
	if !e.opts.Reactive {
		return BoundPair{}, ErrNoReactive
	}
	i, ok := e.net.Buses().Position(name)
	if !ok {
		return BoundPair{}, unknownEntity("bus", name)
	}

	return e.limits.Voltage[i], nil
}
