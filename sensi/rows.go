package sensi

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Coefficient is one (entity name, value) pair of a materialized
// sensitivity row.
type Coefficient struct {
	Name  string
	Value float64
}

// BranchRow returns the PTDF row of a branch: the dense sensitivity of its
// real-power flow to bus net injections, indexed by BusesNoRef.
//
// First request per branch performs one transpose solve against the
// factorization; the result is cached for the engine's lifetime and later
// requests are O(1). The returned slice is a copy.
func (e *Engine) BranchRow(name string) ([]float64, error) {
	row, err := e.branchRowRef(name)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

// branchRowRef is the cache-owning variant of BranchRow; callers must not
// retain or mutate the returned slice.
func (e *Engine) branchRowRef(name string) ([]float64, error) {
	if row, ok := e.branchRows[name]; ok {
		return row, nil
	}
	k, ok := e.net.Branches().Position(name)
	if !ok {
		return nil, unknownEntity("branch", name)
	}

	row, err := e.sys.F.Solve(e.sys.BdA.DenseRow(k, nil), true)
	if err != nil {
		return nil, err
	}
	e.branchRows[name] = row

	return row, nil
}

// BranchAbsMax returns max|c| over the branch's PTDF row.
func (e *Engine) BranchAbsMax(name string) (float64, error) {
	row, err := e.branchRowRef(name)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// BranchConst returns the constant offset of the branch's flow expression:
// row·phi_adjust + phase_shift_adjuster + F0. Cached after first
// computation; under a Flat base point F0 is zero and the value reduces to
// the classic PTDF constant.
func (e *Engine) BranchConst(name string) (float64, error) {
	if c, ok := e.branchConst[name]; ok {
		return c, nil
	}
	row, err := e.branchRowRef(name)
	if err != nil {
		return 0, err
	}
	k, _ := e.net.Branches().Position(name)

	c := floats.Dot(row, e.phiAdjust) + e.psfa[k] + e.f0[k]
	e.branchConst[name] = c

	return c, nil
}

// InterfaceRow returns the aggregated PTDF row of a monitored interface,
// indexed by BusesNoRef. Cached after the first transpose solve.
func (e *Engine) InterfaceRow(name string) ([]float64, error) {
	row, err := e.ifaceRowRef(name)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

func (e *Engine) ifaceRowRef(name string) ([]float64, error) {
	if row, ok := e.ifaceRows[name]; ok {
		return row, nil
	}
	i, ok := e.net.Interfaces().Position(name)
	if !ok {
		return nil, unknownEntity("interface", name)
	}

	row, err := e.sys.F.Solve(e.sys.BdAI.DenseRow(i, nil), true)
	if err != nil {
		return nil, err
	}
	e.ifaceRows[name] = row

	return row, nil
}

// InterfaceAbsMax returns max|c| over the interface's row.
func (e *Engine) InterfaceAbsMax(name string) (float64, error) {
	row, err := e.ifaceRowRef(name)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// InterfaceConst returns the constant offset of the interface's flow
// expression, folding the member branches' phase-shift and base-point
// constants through their orientations.
func (e *Engine) InterfaceConst(name string) (float64, error) {
	if c, ok := e.ifaceConst[name]; ok {
		return c, nil
	}
	row, err := e.ifaceRowRef(name)
	if err != nil {
		return 0, err
	}
	i, _ := e.net.Interfaces().Position(name)

	c := floats.Dot(row, e.phiAdjust) + e.psfaIface[i] + e.sys.IfaceInc.RowDot(i, e.f0)
	e.ifaceConst[name] = c

	return c, nil
}

// LossRow returns the loss-distribution row of a branch: the sensitivity of
// its series real loss to bus net injections, indexed by BusesNoRef.
// Identically zero under a Flat base point.
func (e *Engine) LossRow(name string) ([]float64, error) {
	row, err := e.lossRowRef(name)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

func (e *Engine) lossRowRef(name string) ([]float64, error) {
	if row, ok := e.lossRows[name]; ok {
		return row, nil
	}
	k, ok := e.net.Branches().Position(name)
	if !ok {
		return nil, unknownEntity("branch", name)
	}

	row, err := e.sys.F.Solve(e.sys.GdA.DenseRow(k, nil), true)
	if err != nil {
		return nil, err
	}
	e.lossRows[name] = row

	return row, nil
}

// LossAbsMax returns max|c| over the branch's loss row.
func (e *Engine) LossAbsMax(name string) (float64, error) {
	row, err := e.lossRowRef(name)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// LossConst returns the constant offset of the branch's loss expression:
// row·phi_adjust + L0.
func (e *Engine) LossConst(name string) (float64, error) {
	if c, ok := e.lossConst[name]; ok {
		return c, nil
	}
	row, err := e.lossRowRef(name)
	if err != nil {
		return 0, err
	}
	k, _ := e.net.Branches().Position(name)

	c := floats.Dot(row, e.phiAdjust) + e.l0[k]
	e.lossConst[name] = c

	return c, nil
}

// ReactiveRow returns the QTDF row of a branch: the sensitivity of its
// reactive flow to bus reactive injections, indexed by the full bus set.
// Requires a reactive engine.
func (e *Engine) ReactiveRow(name string) ([]float64, error) {
	row, err := e.qRowRef(name)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

func (e *Engine) qRowRef(name string) ([]float64, error) {
	if e.rsys == nil {
		return nil, ErrNoReactive
	}
	if row, ok := e.qRows[name]; ok {
		return row, nil
	}
	k, ok := e.net.Branches().Position(name)
	if !ok {
		return nil, unknownEntity("branch", name)
	}

	row, err := e.rsys.FQ.Solve(e.rsys.QBdA.DenseRow(k, nil), true)
	if err != nil {
		return nil, err
	}
	floats.Scale(-1, row) // voltage magnitudes respond inversely to draw
	e.qRows[name] = row

	return row, nil
}

// ReactiveAbsMax returns max|c| over the branch's QTDF row.
func (e *Engine) ReactiveAbsMax(name string) (float64, error) {
	row, err := e.qRowRef(name)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// ReactiveConst returns the constant offset of the branch's reactive flow
// expression: row·QM0 + H0.
func (e *Engine) ReactiveConst(name string) (float64, error) {
	if c, ok := e.qConst[name]; ok {
		return c, nil
	}
	row, err := e.qRowRef(name)
	if err != nil {
		return 0, err
	}
	k, _ := e.net.Branches().Position(name)

	c := floats.Dot(row, e.qm0) + e.h0[k]
	e.qConst[name] = c

	return c, nil
}

// ReactiveLossRow returns the reactive-loss row of a branch, indexed by the
// full bus set. Requires a reactive engine.
func (e *Engine) ReactiveLossRow(name string) ([]float64, error) {
	row, err := e.qlossRowRef(name)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

func (e *Engine) qlossRowRef(name string) ([]float64, error) {
	if e.rsys == nil {
		return nil, ErrNoReactive
	}
	if row, ok := e.qlossRows[name]; ok {
		return row, nil
	}
	k, ok := e.net.Branches().Position(name)
	if !ok {
		return nil, unknownEntity("branch", name)
	}

	row, err := e.rsys.FQ.Solve(e.rsys.QGdA.DenseRow(k, nil), true)
	if err != nil {
		return nil, err
	}
	floats.Scale(-1, row)
	e.qlossRows[name] = row

	return row, nil
}

// ReactiveLossAbsMax returns max|c| over the branch's reactive-loss row.
func (e *Engine) ReactiveLossAbsMax(name string) (float64, error) {
	row, err := e.qlossRowRef(name)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// ReactiveLossConst returns the constant offset of the branch's reactive
// loss expression: row·QM0 + K0.
func (e *Engine) ReactiveLossConst(name string) (float64, error) {
	if c, ok := e.qlossConst[name]; ok {
		return c, nil
	}
	row, err := e.qlossRowRef(name)
	if err != nil {
		return 0, err
	}
	k, _ := e.net.Branches().Position(name)

	c := floats.Dot(row, e.qm0) + e.k0[k]
	e.qlossConst[name] = c

	return c, nil
}

// VoltageRow returns the voltage-sensitivity row of a bus: the sensitivity
// of its voltage magnitude to bus reactive injections, indexed by the full
// bus set. Requires a reactive engine.
func (e *Engine) VoltageRow(name string) ([]float64, error) {
	row, err := e.vRowRef(name)
	if err != nil {
		return nil, err
	}

	return clone(row), nil
}

func (e *Engine) vRowRef(name string) ([]float64, error) {
	if e.rsys == nil {
		return nil, ErrNoReactive
	}
	if row, ok := e.vRows[name]; ok {
		return row, nil
	}
	i, ok := e.net.Buses().Position(name)
	if !ok {
		return nil, unknownEntity("bus", name)
	}

	rhs := make([]float64, e.net.Buses().Len())
	rhs[i] = 1
	row, err := e.rsys.FQ.Solve(rhs, true)
	if err != nil {
		return nil, err
	}
	floats.Scale(-1, row)
	e.vRows[name] = row

	return row, nil
}

// VoltageAbsMax returns max|c| over the bus's voltage-sensitivity row.
func (e *Engine) VoltageAbsMax(name string) (float64, error) {
	row, err := e.vRowRef(name)
	if err != nil {
		return 0, err
	}

	return absMax(row), nil
}

// VoltageConst returns the constant offset of the bus's voltage-magnitude
// expression: row·QM0.
func (e *Engine) VoltageConst(name string) (float64, error) {
	if c, ok := e.vConst[name]; ok {
		return c, nil
	}
	row, err := e.vRowRef(name)
	if err != nil {
		return 0, err
	}

	c := floats.Dot(row, e.qm0)
	e.vConst[name] = c

	return c, nil
}

// LossFactors returns the system marginal loss factors per bus (full bus
// order as a name→value map, reference entry zero) and the loss offset:
// total_loss ≈ Σ factor_b·injection_b + offset.
func (e *Engine) LossFactors() (map[string]float64, float64) {
	buses := e.net.Buses()
	out := make(map[string]float64, buses.Len())
	for i := 0; i < buses.Len(); i++ {
		out[buses.Name(i)] = e.lossFactor[i]
	}

	return out, e.lossOffset
}

// LossFactorResiduals returns the loss factors minus the contribution of
// every per-branch loss row already materialized, so a model carrying
// explicit per-branch loss constraints can use the residual for the
// remaining system loss.
func (e *Engine) LossFactorResiduals() (map[string]float64, float64, error) {
	buses := e.net.Buses()
	busesNoRef := e.net.BusesNoRef()

	resid := make(map[string]float64, buses.Len())
	for i := 0; i < buses.Len(); i++ {
		resid[buses.Name(i)] = e.lossFactor[i]
	}
	offset := e.lossOffset

	for name, row := range e.lossRows {
		for i, v := range row {
			resid[busesNoRef.Name(i)] -= v
		}
		c, err := e.LossConst(name)
		if err != nil {
			return nil, 0, err
		}
		offset -= c
	}

	return resid, offset, nil
}

// calculateLossFactors derives the system marginal loss factors: the
// transpose solve of the column sums of GdA, reinserted over the full bus
// set with a zero at the reference bus, plus the offset folding phi and the
// batched L0 constants. One factorization solve, at construction.
func (e *Engine) calculateLossFactors() error {
	ones := make([]float64, e.net.Branches().Len())
	for i := range ones {
		ones[i] = 1
	}
	colSum := e.sys.GdA.MulVecTrans(ones, nil)

	lf, err := e.sys.F.Solve(colSum, true)
	if err != nil {
		return err
	}

	e.lossOffset = floats.Dot(lf, e.phiAdjust) + floats.Sum(e.l0)
	e.lossFactor = e.insertReference(lf, 0)

	return nil
}

// Coefficients truncates a sensitivity row into (name, value) pairs,
// keeping a coefficient only when |c| ≥ max(AbsCoefTol, RelCoefTol·max|row|).
// The same rule applies everywhere a row is materialized into a linear
// expression, so repeated calls produce the identical pair set.
func (e *Engine) Coefficients(names []string, row []float64) ([]Coefficient, error) {
	if len(names) != len(row) {
		return nil, ErrDimension
	}
	cut := math.Max(e.opts.AbsCoefTol, e.opts.RelCoefTol*absMax(row))

	out := make([]Coefficient, 0, len(row))
	for i, v := range row {
		if math.Abs(v) >= cut {
			out = append(out, Coefficient{Name: names[i], Value: v})
		}
	}

	return out, nil
}

// BranchCoefficients returns the truncated PTDF row of a branch as
// (bus name, coefficient) pairs in reduced bus order.
func (e *Engine) BranchCoefficients(name string) ([]Coefficient, error) {
	row, err := e.branchRowRef(name)
	if err != nil {
		return nil, err
	}

	return e.Coefficients(e.net.BusesNoRef().Keys(), row)
}

// InterfaceCoefficients returns the truncated interface row as
// (bus name, coefficient) pairs in reduced bus order.
func (e *Engine) InterfaceCoefficients(name string) ([]Coefficient, error) {
	row, err := e.ifaceRowRef(name)
	if err != nil {
		return nil, err
	}

	return e.Coefficients(e.net.BusesNoRef().Keys(), row)
}

// ContingencyCoefficients returns the truncated post-contingency PTDF row
// as (bus name, coefficient) pairs in reduced bus order.
func (e *Engine) ContingencyCoefficients(contingency, branch string) ([]Coefficient, error) {
	row, err := e.contRowRef(contingency, branch)
	if err != nil {
		return nil, err
	}

	return e.Coefficients(e.net.BusesNoRef().Keys(), row)
}

// insertReference expands a reduced-space vector to full bus order,
// writing val at the reference position.
func (e *Engine) insertReference(reduced []float64, val float64) []float64 {
	buses := e.net.Buses()
	refPos, _ := buses.Position(e.net.ReferenceBus())

	out := make([]float64, buses.Len())
	for i, j := 0, 0; i < buses.Len(); i++ {
		if i == refPos {
			out[i] = val
			continue
		}
		out[i] = reduced[j]
		j++
	}

	return out
}

// reduceVector drops the reference entry from a full-bus vector.
func (e *Engine) reduceVector(full []float64) []float64 {
	buses := e.net.Buses()
	refPos, _ := buses.Position(e.net.ReferenceBus())

	out := make([]float64, 0, buses.Len()-1)
	for i, v := range full {
		if i == refPos {
			continue
		}
		out = append(out, v)
	}

	return out
}

// absMax returns max|v| over the vector, 0 for an empty vector.
func absMax(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}

	return floats.Norm(v, math.Inf(1))
}

// clone returns a defensive copy so cache entries stay immutable.
func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)

	return out
}
