package sensi

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// FlowResult is one bulk evaluation of the linear model at a caller-supplied
// injection vector. Branch entries follow either the full branch Index or
// the monitored subset, depending on which evaluator produced the result;
// Angles always follows the full bus Index with the reference entry fixed
// at zero.
type FlowResult struct {
	// Branch holds real-power branch flows.
	Branch []float64

	// Interface holds aggregated interface flows.
	Interface []float64

	// Angles holds bus voltage angles in radians, full bus order.
	Angles []float64

	// monitored records which branch ordering Branch uses.
	monitored bool
}

// Flows evaluates branch flows, interface flows and bus angles for a net
// injection vector in full bus order (the reference entry is ignored).
//
// Steps:
//  1. Reduce the injection vector and add phi_adjust.
//  2. Solve the factorization for the reduced angle vector.
//  3. Apply BdA/BdAI plus the phase-shift and base-point constants.
//  4. Reinsert the reference bus at angle zero.
//
// One factorization solve per call; results are not cached.
func (e *Engine) Flows(injections []float64) (*FlowResult, error) {
	return e.flows(injections, false)
}

// MonitoredFlows is Flows restricted to the kv-filtered monitored branch
// subset, indexed consistently with MonitoredBranches.
func (e *Engine) MonitoredFlows(injections []float64) (*FlowResult, error) {
	return e.flows(injections, true)
}

func (e *Engine) flows(injections []float64, monitored bool) (*FlowResult, error) {
	buses := e.net.Buses()
	if len(injections) != buses.Len() {
		return nil, fmt.Errorf("%w: injections length %d, want %d", ErrDimension, len(injections), buses.Len())
	}

	rhs := e.reduceVector(injections)
	floats.Add(rhs, e.phiAdjust)

	theta, err := e.sys.F.Solve(rhs, false)
	if err != nil {
		return nil, err
	}

	flows := e.sys.BdA.MulVec(theta, nil)
	floats.Add(flows, e.psfa)
	floats.Add(flows, e.f0)

	ifaceFlows := e.sys.BdAI.MulVec(theta, nil)
	floats.Add(ifaceFlows, e.psfaIface)
	for i := range ifaceFlows {
		ifaceFlows[i] += e.sys.IfaceInc.RowDot(i, e.f0)
	}

	res := &FlowResult{
		Interface: ifaceFlows,
		Angles:    e.insertReference(theta, 0),
		monitored: monitored,
	}
	if monitored {
		res.Branch = make([]float64, len(e.mask))
		for m, k := range e.mask {
			res.Branch[m] = flows[k]
		}
	} else {
		res.Branch = flows
	}

	return res, nil
}

// FlowDelta evaluates the post-contingency flow change for every branch,
// given a base FlowResult from Flows: base.Branch[k] + delta[k] is the flow
// under the outage. The outaged branch's entry is forced to exactly cancel
// its base flow, since an outaged element carries no flow.
func (e *Engine) FlowDelta(contingency string, base *FlowResult) ([]float64, error) {
	return e.flowDelta(contingency, base, false)
}

// MonitoredFlowDelta is FlowDelta restricted to the monitored branch
// subset; base must come from MonitoredFlows.
func (e *Engine) MonitoredFlowDelta(contingency string, base *FlowResult) ([]float64, error) {
	return e.flowDelta(contingency, base, true)
}

func (e *Engine) flowDelta(contingency string, base *FlowResult, monitored bool) ([]float64, error) {
	comp, ok := e.comps[contingency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContingency, contingency)
	}
	if base == nil || base.monitored != monitored {
		return nil, fmt.Errorf("%w: base flows use the wrong branch ordering", ErrDimension)
	}

	// Post-contingency angles via Sherman–Morrison:
	// θ' = θ + vaComp + c·(aᵀ(θ + vaComp))·w.
	theta := e.reduceVector(base.Angles)
	if comp.vaComp != nil {
		floats.Add(theta, comp.vaComp)
	}

	scale := comp.c * e.incDot(comp.outIdx, theta)
	deltaTheta := make([]float64, len(theta))
	floats.AddScaled(deltaTheta, scale, comp.w)
	if comp.vaComp != nil {
		floats.Add(deltaTheta, comp.vaComp)
	}

	delta := e.sys.BdA.MulVec(deltaTheta, nil)

	if monitored {
		md := make([]float64, len(e.mask))
		for m, k := range e.mask {
			md[m] = delta[k]
		}
		delta = md
		if m, watched := e.maskedPos[comp.branchOut]; watched {
			delta[m] = -base.Branch[m]
		}
	} else {
		delta[comp.outIdx] = -base.Branch[comp.outIdx]
	}

	return delta, nil
}

// Losses evaluates the per-branch series real losses implied by a base
// FlowResult: GdA·θ + L0. Identically the L0 constants under a Flat base
// point.
func (e *Engine) Losses(base *FlowResult) ([]float64, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: nil base flows", ErrDimension)
	}

	theta := e.reduceVector(base.Angles)
	losses := e.sys.GdA.MulVec(theta, nil)
	floats.Add(losses, e.l0)

	return losses, nil
}

// ReactiveResult is one bulk evaluation of the reactive-side model.
type ReactiveResult struct {
	// Branch holds reactive branch flows, full branch order.
	Branch []float64

	// Magnitudes holds bus voltage magnitudes, full bus order.
	Magnitudes []float64
}

// ReactiveFlows evaluates reactive branch flows and voltage magnitudes for
// a reactive injection vector in full bus order. Requires a reactive
// engine; one reactive-side factorization solve per call.
func (e *Engine) ReactiveFlows(injections []float64) (*ReactiveResult, error) {
	if e.rsys == nil {
		return nil, ErrNoReactive
	}
	buses := e.net.Buses()
	if len(injections) != buses.Len() {
		return nil, fmt.Errorf("%w: injections length %d, want %d", ErrDimension, len(injections), buses.Len())
	}

	rhs := make([]float64, buses.Len())
	copy(rhs, injections)
	floats.Add(rhs, e.qm0)

	vm, err := e.rsys.FQ.Solve(rhs, false)
	if err != nil {
		return nil, err
	}
	floats.Scale(-1, vm)

	qf := e.rsys.QBdA.MulVec(vm, nil)
	floats.Add(qf, e.h0)

	return &ReactiveResult{Branch: qf, Magnitudes: vm}, nil
}
