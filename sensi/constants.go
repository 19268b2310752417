package sensi

import (
	"math"

	"github.com/voltlab/gridsense/factor"
	"github.com/voltlab/gridsense/grid"
)

// calculateAdjusters computes the two injection-independent constant
// families of the real-power model:
//
//   - psfa, the per-branch phase-shift flow adjuster
//     (−β·radians(shift) for phase-shifting transformers, zero otherwise);
//   - phiAdjust, the per-bus correction vector that cancels psfa in radial
//     paths so only loop flow survives (phi −= psfa_k·a_k per branch).
//
// Both are pure functions of branch attributes. psfaIface folds psfa over
// oriented interface members.
func (e *Engine) calculateAdjusters() {
	branches := e.net.Branches()
	nb := branches.Len()
	nr := e.net.BusesNoRef().Len()

	e.psfa = make([]float64, nb)
	e.phiAdjust = make([]float64, nr)

	for k := 0; k < nb; k++ {
		br, _ := e.net.Branch(branches.Name(k))
		if !br.IsTransformer || br.PhaseShift == 0 {
			continue
		}
		shift := -e.sys.Susceptance[k] * radians(br.PhaseShift)
		e.psfa[k] = shift

		if p := e.sys.ToPos[k]; p >= 0 {
			e.phiAdjust[p] -= shift
		}
		if p := e.sys.FromPos[k]; p >= 0 {
			e.phiAdjust[p] += shift
		}
	}

	e.psfaIface = e.sys.IfaceInc.MulVec(e.psfa, nil)
}

// calculateBasePointConstants batches the per-branch base-point constants
// (the F0/L0/H0/K0 families) for every branch in one pass. They are the
// residuals that make the linear model exact at the linearization point:
//
//	F0 = ac_flow(base) − linear_flow(base)
//	L0 = ac_loss(base) − linear_loss(base)
//
// and analogously for the reactive pair. Under a Flat base point every
// residual is identically zero. Each entry is a closed-form trigonometric
// expression of the branch attributes; no factorization solve is involved.
func (e *Engine) calculateBasePointConstants() {
	branches := e.net.Branches()
	nb := branches.Len()

	e.f0 = make([]float64, nb)
	e.l0 = make([]float64, nb)
	if e.opts.Reactive {
		e.h0 = make([]float64, nb)
		e.k0 = make([]float64, nb)
		e.qm0 = make([]float64, e.net.Buses().Len())
	}

	if e.opts.BasePoint != factor.Solution {
		return
	}

	va := e.anglesNoRef()
	var vmAll []float64
	if e.opts.Reactive {
		vmAll = e.magnitudes()
	}

	for k := 0; k < nb; k++ {
		br, _ := e.net.Branch(branches.Name(k))
		fb, _ := e.net.Bus(br.FromBus)
		tb, _ := e.net.Bus(br.ToBus)

		g, b := seriesAdmittance(br)
		tau := br.Tap()
		delta := fb.VA - tb.VA
		if br.IsTransformer {
			delta -= radians(br.PhaseShift)
		}
		vf, vt := fb.VM, tb.VM
		sin, cos := math.Sin(delta), math.Cos(delta)

		// real power entering the from side, full AC expression
		acFlow := g*vf*vf/(tau*tau) - (vf*vt/tau)*(g*cos+b*sin)
		linFlow := e.sys.BdA.RowDot(k, va) + e.psfa[k]
		e.f0[k] = acFlow - linFlow

		// series real loss at the base point
		acLoss := g * (vf*vf/(tau*tau) + vt*vt - 2*(vf*vt/tau)*cos)
		linLoss := e.sys.GdA.RowDot(k, va)
		e.l0[k] = acLoss - linLoss

		if !e.opts.Reactive {
			continue
		}

		// reactive power entering the from side
		acQ := -(vf * vf / (tau * tau)) * (b + br.ChargingSusceptance/2)
		acQ += (vf * vt / tau) * (b*cos - g*sin)
		linQ := e.rsys.QBdA.RowDot(k, vmAll)
		e.h0[k] = acQ - linQ

		// series reactive loss at the base point
		acQLoss := -b * (vf*vf/(tau*tau) + vt*vt - 2*(vf*vt/tau)*cos)
		linQLoss := e.rsys.QGdA.RowDot(k, vmAll)
		e.k0[k] = acQLoss - linQLoss
	}

	if e.opts.Reactive {
		buses := e.net.Buses()
		for i := 0; i < buses.Len(); i++ {
			bus, _ := e.net.Bus(buses.Name(i))
			e.qm0[i] = -bus.Bs * bus.VM
		}
	}
}

// anglesNoRef returns the base-point voltage angles in reduced bus order.
func (e *Engine) anglesNoRef() []float64 {
	busesNoRef := e.net.BusesNoRef()
	va := make([]float64, busesNoRef.Len())
	for i := range va {
		bus, _ := e.net.Bus(busesNoRef.Name(i))
		va[i] = bus.VA
	}

	return va
}

// magnitudes returns the base-point voltage magnitudes in full bus order.
func (e *Engine) magnitudes() []float64 {
	buses := e.net.Buses()
	vm := make([]float64, buses.Len())
	for i := range vm {
		bus, _ := e.net.Bus(buses.Name(i))
		vm[i] = bus.VM
	}

	return vm
}

// seriesAdmittance returns the series admittance components g+jb of the
// branch impedance r+jx.
func seriesAdmittance(br grid.Branch) (g, b float64) {
	z2 := br.Resistance*br.Resistance + br.Reactance*br.Reactance

	return br.Resistance / z2, -br.Reactance / z2
}

// radians converts degrees to radians.
func radians(deg float64) float64 { return deg * math.Pi / 180 }
