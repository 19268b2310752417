package sensi

import (
	"math"

	"github.com/voltlab/gridsense/factor"
	"github.com/voltlab/gridsense/grid"
)

// ContingencyBranch keys a post-contingency sensitivity row: the monitored
// branch under the named single-branch outage.
type ContingencyBranch struct {
	Contingency string
	Branch      string
}

// Engine computes and caches linear sensitivities of the DC network model.
// Build one per optimization-model solve; the network snapshot is static
// for the engine's lifetime.
//
// All exported methods either read immutable construction-time state or
// populate the row caches monotonically (absent → present, never
// invalidated).
type Engine struct {
	net  *grid.Network
	opts Options

	sys  *factor.System
	rsys *factor.ReactiveSystem // nil without Options.Reactive

	// constant arrays, frozen at construction
	phiAdjust []float64 // reduced bus space
	psfa      []float64 // per-branch phase-shift flow adjuster
	psfaIface []float64 // per-interface fold of psfa
	f0, l0    []float64 // per-branch real flow / loss base-point constants
	h0, k0    []float64 // reactive analogues; nil without Reactive
	qm0       []float64 // reactive-side constant injection, full bus space

	// nominal limit arrays, ±Inf-filled where unset
	branchLimits []float64
	contLimits   []float64
	ifaceMax     []float64
	ifaceMin     []float64

	// monitored subset after kv filtering
	mask       []int
	maskedKeys []string
	maskedPos  map[string]int

	limits LimitSet

	comps map[string]*compensator

	lossFactor []float64 // full bus space, reference entry zero
	lossOffset float64

	// row caches, populated at most once per key
	branchRows map[string][]float64
	ifaceRows  map[string][]float64
	lossRows   map[string][]float64
	contRows   map[ContingencyBranch][]float64
	qRows      map[string][]float64
	qlossRows  map[string][]float64
	vRows      map[string][]float64

	// scalar constant caches
	branchConst map[string]float64
	ifaceConst  map[string]float64
	lossConst   map[string]float64
	contConst   map[ContingencyBranch]float64
	qConst      map[string]float64
	qlossConst  map[string]float64
	vConst      map[string]float64
}

// New builds an Engine over net.
//
// Steps:
//  1. Factor the reduced susceptance system (and the reactive-side system
//     when Options.Reactive is set).
//  2. Compute every constant array eagerly: phase-shift adjusters, phi
//     adjustment, base-point constants, nominal limit arrays.
//  3. Apply the kv-threshold branch filter and derive enforced/lazy limits.
//  4. Precompute one rank-1 compensator per registered contingency.
//  5. Compute system loss factors and offset.
//
// Sensitivity rows are NOT computed here; they are derived lazily and
// cached on first request. Construction failures (singular matrix,
// islanding contingency) abort entirely; no partially-built engine is
// returned.
func New(net *grid.Network, opts Options) (*Engine, error) {
	opts.normalize()
	log := opts.Logger

	log.Info("calculating sensitivity factorization",
		"buses", net.Buses().Len(),
		"branches", net.Branches().Len(),
		"base_point", opts.BasePoint.String())

	sys, err := factor.Build(net, opts.BasePoint)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		net:  net,
		opts: opts,
		sys:  sys,

		comps: make(map[string]*compensator),

		branchRows: make(map[string][]float64),
		ifaceRows:  make(map[string][]float64),
		lossRows:   make(map[string][]float64),
		contRows:   make(map[ContingencyBranch][]float64),
		qRows:      make(map[string][]float64),
		qlossRows:  make(map[string][]float64),
		vRows:      make(map[string][]float64),

		branchConst: make(map[string]float64),
		ifaceConst:  make(map[string]float64),
		lossConst:   make(map[string]float64),
		contConst:   make(map[ContingencyBranch]float64),
		qConst:      make(map[string]float64),
		qlossConst:  make(map[string]float64),
		vConst:      make(map[string]float64),
	}

	if opts.Reactive {
		log.Info("calculating reactive-side factorization")
		if e.rsys, err = factor.BuildReactive(net, opts.BasePoint); err != nil {
			return nil, err
		}
	}

	e.calculateAdjusters()
	e.calculateBasePointConstants()
	e.calculateNominalLimits()
	e.filterBranches()
	e.limits = e.computeLimits()

	if err = e.buildCompensators(); err != nil {
		return nil, err
	}
	if err = e.calculateLossFactors(); err != nil {
		return nil, err
	}

	return e, nil
}

// Network returns the frozen snapshot the engine was built from.
func (e *Engine) Network() *grid.Network { return e.net }

// Options returns the options the engine was built with.
func (e *Engine) Options() Options { return e.opts }

// Solves reports the cumulative number of factorization solves performed,
// including the reactive side. Useful for asserting cache behavior.
func (e *Engine) Solves() int {
	n := e.sys.F.Solves()
	if e.rsys != nil {
		n += e.rsys.FQ.Solves()
	}

	return n
}

// calculateNominalLimits freezes the nominal limit arrays: long-term branch
// ratings, emergency (contingency) ratings and interface bounds, with ±Inf
// standing in for absent data.
func (e *Engine) calculateNominalLimits() {
	branches := e.net.Branches()
	e.branchLimits = make([]float64, branches.Len())
	e.contLimits = make([]float64, branches.Len())
	for k := 0; k < branches.Len(); k++ {
		br, _ := e.net.Branch(branches.Name(k))
		e.branchLimits[k] = br.RatingLongTerm
		if br.RatingEmergency > 0 {
			e.contLimits[k] = br.RatingEmergency
		} else {
			e.contLimits[k] = math.Inf(1)
		}
	}

	ifaces := e.net.Interfaces()
	e.ifaceMax = make([]float64, ifaces.Len())
	e.ifaceMin = make([]float64, ifaces.Len())
	for i := 0; i < ifaces.Len(); i++ {
		iface, _ := e.net.Interface(ifaces.Name(i))
		e.ifaceMax[i] = math.Inf(1)
		e.ifaceMin[i] = math.Inf(-1)
		if iface.MaxLimit != nil {
			e.ifaceMax[i] = *iface.MaxLimit
		}
		if iface.MinLimit != nil {
			e.ifaceMin[i] = *iface.MinLimit
		}
	}
}
