package sensi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// islandingTol bounds the Sherman–Morrison denominator away from zero; a
// denominator below it means the outage disconnects the network.
const islandingTol = 1e-10

// compensator holds the rank-1 correction for one registered single-branch
// outage: zeroing branch k's admittance turns the factored matrix A into
// A' = A − β·a·aᵀ with a = e_to − e_from, and the Sherman–Morrison identity
// gives
//
//	A'⁻¹ = A⁻¹ + c·w·wᵀ,  w = A⁻¹a,  c = β/(1 − β·aᵀw).
//
// Everything here is derived once at construction from the base
// factorization; post-contingency rows and flows never refactor.
type compensator struct {
	branchOut string
	outIdx    int

	w []float64 // A⁻¹·a, reduced bus space
	c float64   // β/(1 − β·aᵀw)

	// phiComp removes the outaged branch's phase-shift injection from
	// phi_adjust; vaComp = A⁻¹·phiComp is its angle response. Both nil for
	// plain lines.
	phiComp []float64
	vaComp  []float64
}

// incDot returns aᵀv for the compensator's outaged branch without
// materializing a.
func (e *Engine) incDot(k int, v []float64) float64 {
	var s float64
	if p := e.sys.ToPos[k]; p >= 0 {
		s += v[p]
	}
	if p := e.sys.FromPos[k]; p >= 0 {
		s -= v[p]
	}

	return s
}

// buildCompensators precomputes one compensator per registered contingency.
// An outage whose Sherman–Morrison denominator vanishes would island the
// network; that is fatal at construction, matching the propagation policy
// for topology errors.
func (e *Engine) buildCompensators() error {
	conts := e.net.Contingencies()
	for i := 0; i < conts.Len(); i++ {
		cn := conts.Name(i)
		cont, _ := e.net.Contingency(cn)
		k, _ := e.net.Branches().Position(cont.BranchOut)

		a := e.sys.IncidenceNoRef(k, nil)
		w, err := e.sys.F.Solve(a, false)
		if err != nil {
			return err
		}

		beta := e.sys.Susceptance[k]
		denom := 1 - beta*e.incDot(k, w)
		if math.Abs(denom) < islandingTol {
			return fmt.Errorf("%w: contingency %q (outage %q)", ErrIslandingContingency, cn, cont.BranchOut)
		}

		comp := &compensator{
			branchOut: cont.BranchOut,
			outIdx:    k,
			w:         w,
			c:         beta / denom,
		}

		if e.psfa[k] != 0 {
			phiComp := make([]float64, len(w))
			if p := e.sys.ToPos[k]; p >= 0 {
				phiComp[p] += e.psfa[k]
			}
			if p := e.sys.FromPos[k]; p >= 0 {
				phiComp[p] -= e.psfa[k]
			}
			if comp.vaComp, err = e.sys.F.Solve(phiComp, false); err != nil {
				return err
			}
			comp.phiComp = phiComp
		}

		e.comps[cn] = comp
	}

	return nil
}

// ContingencyRow returns the post-contingency PTDF row of branch under the
// named outage, indexed by BusesNoRef: the base transpose solve corrected
// by the contingency's rank-1 factors,
//
//	row' = A⁻¹·bda + c·(bdaᵀw)·w.
//
// Cached per (contingency, branch) pair; a miss costs one factorization
// solve. The returned slice is a copy.
func (e *Engine) ContingencyRow(contingency, branch string) ([]float64, error) {
	row, err := e.contRowRef(contingency, branch)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

func (e *Engine) contRowRef(contingency, branch string) ([]float64, error) {
	key := ContingencyBranch{Contingency: contingency, Branch: branch}
	if row, ok := e.contRows[key]; ok {
		return row, nil
	}

	comp, ok := e.comps[contingency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContingency, contingency)
	}
	k, ok := e.net.Branches().Position(branch)
	if !ok {
		return nil, unknownEntity("branch", branch)
	}

	row, err := e.sys.F.Solve(e.sys.BdA.DenseRow(k, nil), true)
	if err != nil {
		return nil, err
	}
	t := comp.c * e.sys.BdA.RowDot(k, comp.w)
	floats.AddScaled(row, t, comp.w)

	e.contRows[key] = row

	return row, nil
}

// ContingencyAbsMax returns max|c| over the post-contingency row.
func (e *Engine) ContingencyAbsMax(contingency, branch string) (float64, error) {
	row, err := e.contRowRef(contingency, branch)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// ContingencyConst returns the constant offset of the post-contingency flow
// expression: row·(phi_adjust + phi_compensator) + phase_shift_adjuster.
// The phi compensator is nonzero only when the outaged element is a
// phase-shifting transformer.
func (e *Engine) ContingencyConst(contingency, branch string) (float64, error) {
	key := ContingencyBranch{Contingency: contingency, Branch: branch}
	if c, ok := e.contConst[key]; ok {
		return c, nil
	}

	row, err := e.contRowRef(contingency, branch)
	if err != nil {
		return 0, err
	}
	comp := e.comps[contingency]
	k, _ := e.net.Branches().Position(branch)

	c := floats.Dot(row, e.phiAdjust) + e.psfa[k] + e.f0[k]
	if comp.phiComp != nil {
		c += floats.Dot(row, comp.phiComp)
	}
	e.contConst[key] = c

	return c, nil
}
