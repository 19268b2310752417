package sensi

import "gonum.org/v1/gonum/floats"

// LMPInputs carries the dual values of a solved optimization model: the
// system energy balance dual and the duals of every binding flow
// constraint, keyed by the entity the constraint monitors. Absent or zero
// duals contribute nothing; dual signs follow the solver's convention.
type LMPInputs struct {
	// EnergyDual is the dual of the system power balance constraint, the
	// marginal energy price.
	EnergyDual float64

	// BranchDuals and InterfaceDuals key the duals of base-case flow
	// constraints by branch and interface name.
	BranchDuals    map[string]float64
	InterfaceDuals map[string]float64

	// ContingencyDuals keys the duals of post-contingency flow constraints
	// by (contingency, monitored branch).
	ContingencyDuals map[ContingencyBranch]float64
}

// LMP computes the locational marginal price at every bus in full bus
// order:
//
//	LMP_b = energy_dual + Σ dual_c · sensitivity_row_c[b]
//
// summed over all binding branch, interface and contingency constraints.
// The reference bus carries no congestion component, so its entry is
// exactly the energy dual.
//
// The branch and interface contributions share one transpose solve over
// the dual-weighted sparse rows regardless of how many duals are binding;
// contingency contributions reuse the cached post-contingency rows, one
// solve per never-before-requested (contingency, branch) pair.
func (e *Engine) LMP(in LMPInputs) ([]float64, error) {
	busesNoRef := e.net.BusesNoRef()
	cong := make([]float64, busesNoRef.Len())

	acc := make([]float64, busesNoRef.Len())
	weighted := false
	for name, d := range in.BranchDuals {
		if d == 0 {
			continue
		}
		k, ok := e.net.Branches().Position(name)
		if !ok {
			return nil, unknownEntity("branch", name)
		}
		e.sys.BdA.Row(k, func(col int, val float64) {
			acc[col] += d * val
		})
		weighted = true
	}
	for name, d := range in.InterfaceDuals {
		if d == 0 {
			continue
		}
		i, ok := e.net.Interfaces().Position(name)
		if !ok {
			return nil, unknownEntity("interface", name)
		}
		e.sys.BdAI.Row(i, func(col int, val float64) {
			acc[col] += d * val
		})
		weighted = true
	}
	if weighted {
		lmpc, err := e.sys.F.Solve(acc, true)
		if err != nil {
			return nil, err
		}
		floats.Add(cong, lmpc)
	}

	for key, d := range in.ContingencyDuals {
		if d == 0 {
			continue
		}
		row, err := e.contRowRef(key.Contingency, key.Branch)
		if err != nil {
			return nil, err
		}
		floats.AddScaled(cong, d, row)
	}

	lmp := e.insertReference(cong, 0)
	for i := range lmp {
		lmp[i] += in.EnergyDual
	}

	return lmp, nil
}
