package factor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/voltlab/gridsense/grid"
)

// BasePoint selects the linearization point of the DC approximation.
type BasePoint int

const (
	// Flat linearizes around the flat voltage profile (all angles zero,
	// all magnitudes one). Every base-point-dependent constant vanishes.
	Flat BasePoint = iota

	// Solution linearizes around the angles and magnitudes stored on the
	// bus records, normally taken from a prior AC solution.
	Solution
)

// String implements fmt.Stringer.
func (bp BasePoint) String() string {
	if bp == Solution {
		return "solution"
	}

	return "flat"
}

// System holds every artifact Build derives from a network snapshot:
// the factorization of the reduced susceptance matrix plus the sparse
// branch and interface matrices applied against its solutions.
//
// All fields are immutable after Build returns.
type System struct {
	// F factors the reduced susceptance matrix A, (n_bus−1)².
	F *Factorization

	// BdA maps reduced bus angles to branch flows: flow = BdA·θ + constants.
	BdA *CSR

	// GdA maps reduced bus angles to branch losses around the base point.
	// Identically zero under a Flat base point.
	GdA *CSR

	// BdAI aggregates BdA over oriented interface members,
	// n_interface×(n_bus−1).
	BdAI *CSR

	// IfaceInc is the n_interface×n_branch orientation matrix used to fold
	// per-branch constants into interface constants.
	IfaceInc *CSR

	// Susceptance holds β_k = 1/(x_k·τ_k) per branch.
	Susceptance []float64

	// FromPos and ToPos hold the reduced bus positions of each branch's
	// terminals; −1 marks the eliminated reference bus.
	FromPos, ToPos []int
}

// IncidenceNoRef writes the reduced incidence vector e_to − e_from of
// branch k into dst and returns it.
func (s *System) IncidenceNoRef(k int, dst []float64) []float64 {
	_, cols := s.BdA.Dims()
	if cap(dst) < cols {
		dst = make([]float64, cols)
	} else {
		dst = dst[:cols]
		for i := range dst {
			dst[i] = 0
		}
	}
	if p := s.ToPos[k]; p >= 0 {
		dst[p] = 1
	}
	if p := s.FromPos[k]; p >= 0 {
		dst[p] = -1
	}

	return dst
}

// Build assembles the DC system artifacts for net around bp.
//
// Steps:
//  1. For every branch compute β = 1/(x·τ) and the reduced terminal
//     positions.
//  2. Stamp A += β·a·aᵀ with a = e_to − e_from (reference entries dropped),
//     and BdA[k] = β·aᵀ.
//  3. Under a Solution base point, stamp GdA[k] = γ·aᵀ with
//     γ = 2·g·(θ_to⁰ − θ_from⁰), the loss-linearization coefficient.
//  4. Fold BdA rows into BdAI per oriented interface member.
//  5. Factor A; a singular A (islanded network) aborts with ErrSingular.
//
// Build is a pure function of the snapshot; it has no side effects beyond
// the returned System.
func Build(net *grid.Network, bp BasePoint) (*System, error) {
	branches := net.Branches()
	busesNoRef := net.BusesNoRef()
	nb := branches.Len()
	nr := busesNoRef.Len()

	s := &System{
		Susceptance: make([]float64, nb),
		FromPos:     make([]int, nb),
		ToPos:       make([]int, nb),
	}

	a := mat.NewDense(nr, nr, nil)
	bda := NewBuilder(nb, nr)
	gda := NewBuilder(nb, nr)

	for k := 0; k < nb; k++ {
		br, _ := net.Branch(branches.Name(k))
		beta := 1 / (br.Reactance * br.Tap())
		s.Susceptance[k] = beta

		pf := reducedPos(busesNoRef, br.FromBus)
		pt := reducedPos(busesNoRef, br.ToBus)
		s.FromPos[k], s.ToPos[k] = pf, pt

		stamp(a, pf, pf, beta)
		stamp(a, pt, pt, beta)
		stamp(a, pf, pt, -beta)
		stamp(a, pt, pf, -beta)

		bda.Add(k, pt, beta)
		bda.Add(k, pf, -beta)

		if bp == Solution {
			fb, _ := net.Bus(br.FromBus)
			tb, _ := net.Bus(br.ToBus)
			g := conductance(br)
			gamma := 2 * g * (tb.VA - fb.VA)
			gda.Add(k, pt, gamma)
			gda.Add(k, pf, -gamma)
		}
	}

	s.BdA = bda.Build()
	s.GdA = gda.Build()

	ifaces := net.Interfaces()
	inc := NewBuilder(ifaces.Len(), nb)
	bdai := NewBuilder(ifaces.Len(), nr)
	for i := 0; i < ifaces.Len(); i++ {
		iface, _ := net.Interface(ifaces.Name(i))
		for _, line := range iface.Lines {
			k, _ := branches.Position(line.Branch)
			inc.Add(i, k, line.Orientation)
			beta := s.Susceptance[k] * line.Orientation
			bdai.Add(i, s.ToPos[k], beta)
			bdai.Add(i, s.FromPos[k], -beta)
		}
	}
	s.IfaceInc = inc.Build()
	s.BdAI = bdai.Build()

	f, err := newFactorization(a, nr)
	if err != nil {
		return nil, err
	}
	s.F = f

	return s, nil
}

// ReactiveSystem holds the voltage/reactive-side artifacts: a factorization
// of the shunt-augmented susceptance matrix over the full bus set and the
// matrices mapping voltage magnitudes to reactive flows and losses.
type ReactiveSystem struct {
	// FQ factors the full-bus reactive susceptance matrix, n_bus².
	FQ *Factorization

	// QBdA maps voltage magnitudes to reactive branch flows.
	QBdA *CSR

	// QGdA maps voltage magnitudes to reactive branch losses around the
	// base point. Identically zero under a Flat base point.
	QGdA *CSR
}

// BuildReactive assembles the reactive-side system for net around bp.
//
// Unlike the real-power side, no bus is eliminated: bus shunts and line
// charging keep the matrix nonsingular for any connected network with
// reactive support. A network with no shunt elements at all yields a
// singular matrix and ErrSingular, mirroring the islanded-topology failure
// of Build.
func BuildReactive(net *grid.Network, bp BasePoint) (*ReactiveSystem, error) {
	branches := net.Branches()
	buses := net.Buses()
	nb := branches.Len()
	n := buses.Len()

	qa := mat.NewDense(n, n, nil)
	qbda := NewBuilder(nb, n)
	qgda := NewBuilder(nb, n)

	for i := 0; i < n; i++ {
		bus, _ := net.Bus(buses.Name(i))
		stamp(qa, i, i, bus.Bs)
	}

	for k := 0; k < nb; k++ {
		br, _ := net.Branch(branches.Name(k))
		betaq := 1 / (br.Reactance * br.Tap())

		pf, _ := buses.Position(br.FromBus)
		pt, _ := buses.Position(br.ToBus)

		stamp(qa, pf, pf, betaq+br.ChargingSusceptance/2)
		stamp(qa, pt, pt, betaq+br.ChargingSusceptance/2)
		stamp(qa, pf, pt, -betaq)
		stamp(qa, pt, pf, -betaq)

		qbda.Add(k, pt, betaq)
		qbda.Add(k, pf, -betaq)

		if bp == Solution {
			fb, _ := net.Bus(br.FromBus)
			tb, _ := net.Bus(br.ToBus)
			gq := reactiveConductance(br)
			gamma := 2 * gq * (tb.VM - fb.VM)
			qgda.Add(k, pt, gamma)
			qgda.Add(k, pf, -gamma)
		}
	}

	fq, err := newFactorization(qa, n)
	if err != nil {
		return nil, err
	}

	return &ReactiveSystem{FQ: fq, QBdA: qbda.Build(), QGdA: qgda.Build()}, nil
}

// reducedPos returns the reduced position of bus name, or −1 for the
// eliminated reference bus.
func reducedPos(busesNoRef *grid.Index, name string) int {
	p, ok := busesNoRef.Position(name)
	if !ok {
		return -1
	}

	return p
}

// stamp adds v at (i, j), dropping entries of the eliminated reference bus.
func stamp(a *mat.Dense, i, j int, v float64) {
	if i < 0 || j < 0 || v == 0 {
		return
	}
	a.Set(i, j, a.At(i, j)+v)
}

// conductance returns the series conductance g = r/(r²+x²) scaled by the
// tap ratio.
func conductance(br grid.Branch) float64 {
	z2 := br.Resistance*br.Resistance + br.Reactance*br.Reactance
	if z2 == 0 {
		return 0
	}

	return br.Resistance / z2 / br.Tap()
}

// reactiveConductance returns the series reactive-loss coefficient
// x/(r²+x²) scaled by the tap ratio.
func reactiveConductance(br grid.Branch) float64 {
	z2 := br.Resistance*br.Resistance + br.Reactance*br.Reactance
	if z2 == 0 {
		return 0
	}

	return math.Abs(br.Reactance) / z2 / br.Tap()
}
