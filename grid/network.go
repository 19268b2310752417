package grid

import "fmt"

// NetworkOption configures optional parts of a Network before validation.
type NetworkOption func(n *Network)

// WithInterfaces registers monitored interfaces on the Network.
func WithInterfaces(interfaces []Interface) NetworkOption {
	return func(n *Network) {
		for _, iface := range interfaces {
			n.interfaces[iface.Name] = iface
			n.interfaceOrder = append(n.interfaceOrder, iface.Name)
		}
	}
}

// WithContingencies registers single-branch outage scenarios on the Network.
func WithContingencies(contingencies []Contingency) NetworkOption {
	return func(n *Network) {
		for _, c := range contingencies {
			n.contingencies[c.Name] = c
			n.contingencyOrder = append(n.contingencyOrder, c.Name)
		}
	}
}

// WithBranchOrder overrides the dense branch ordering. Every branch must
// appear exactly once; validation enforces this.
func WithBranchOrder(names []string) NetworkOption {
	return func(n *Network) { n.branchOrder = append([]string(nil), names...) }
}

// WithBusOrder overrides the dense bus ordering. Every bus must appear
// exactly once; validation enforces this.
func WithBusOrder(names []string) NetworkOption {
	return func(n *Network) { n.busOrder = append([]string(nil), names...) }
}

// Network is a frozen, validated snapshot of the transmission system.
//
// It owns the entity maps and the Index bijections used by every derived
// vector. A Network is immutable after NewNetwork returns; accessors hand
// out copies of entity values, never internal references.
type Network struct {
	buses         map[string]Bus
	branches      map[string]Branch
	interfaces    map[string]Interface
	contingencies map[string]Contingency

	busOrder         []string
	branchOrder      []string
	interfaceOrder   []string
	contingencyOrder []string

	referenceBus string

	busIndex      *Index
	busIndexNoRef *Index
	branchIndex   *Index
	ifaceIndex    *Index
	contIndex     *Index
}

// NewNetwork validates and freezes a network snapshot.
//
// Steps:
//  1. Record entities in insertion order (or the order given by
//     WithBusOrder/WithBranchOrder).
//  2. Verify the reference bus exists.
//  3. Verify every branch references known buses and has nonzero reactance.
//  4. Verify interface members and contingency outage branches exist.
//  5. Build the four Index bijections plus the reference-eliminated bus Index.
//
// Any violation aborts construction; no partially-built Network escapes.
func NewNetwork(buses []Bus, branches []Branch, referenceBus string, opts ...NetworkOption) (*Network, error) {
	n := &Network{
		buses:         make(map[string]Bus, len(buses)),
		branches:      make(map[string]Branch, len(branches)),
		interfaces:    make(map[string]Interface),
		contingencies: make(map[string]Contingency),
		referenceBus:  referenceBus,
	}

	for _, b := range buses {
		if _, dup := n.buses[b.Name]; dup {
			return nil, fmt.Errorf("%w: bus %q", ErrDuplicateName, b.Name)
		}
		n.buses[b.Name] = b
		n.busOrder = append(n.busOrder, b.Name)
	}
	for _, br := range branches {
		if _, dup := n.branches[br.Name]; dup {
			return nil, fmt.Errorf("%w: branch %q", ErrDuplicateName, br.Name)
		}
		n.branches[br.Name] = br
		n.branchOrder = append(n.branchOrder, br.Name)
	}

	for _, opt := range opts {
		opt(n)
	}

	if _, ok := n.buses[referenceBus]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoReferenceBus, referenceBus)
	}

	for _, bn := range n.branchOrder {
		br, ok := n.branches[bn]
		if !ok {
			return nil, fmt.Errorf("%w: ordering names branch %q", ErrUnknownBranch, bn)
		}
		if _, ok = n.buses[br.FromBus]; !ok {
			return nil, fmt.Errorf("%w: branch %q from_bus %q", ErrUnknownBus, bn, br.FromBus)
		}
		if _, ok = n.buses[br.ToBus]; !ok {
			return nil, fmt.Errorf("%w: branch %q to_bus %q", ErrUnknownBus, bn, br.ToBus)
		}
		if br.Reactance == 0 {
			return nil, fmt.Errorf("%w: branch %q", ErrZeroReactance, bn)
		}
	}
	for _, bn := range n.busOrder {
		if _, ok := n.buses[bn]; !ok {
			return nil, fmt.Errorf("%w: ordering names bus %q", ErrUnknownBus, bn)
		}
	}

	for _, in := range n.interfaceOrder {
		for _, line := range n.interfaces[in].Lines {
			if _, ok := n.branches[line.Branch]; !ok {
				return nil, fmt.Errorf("%w: interface %q member %q", ErrUnknownBranch, in, line.Branch)
			}
		}
	}
	for _, cn := range n.contingencyOrder {
		if _, ok := n.branches[n.contingencies[cn].BranchOut]; !ok {
			return nil, fmt.Errorf("%w: contingency %q outage %q", ErrUnknownBranch, cn, n.contingencies[cn].BranchOut)
		}
	}

	var err error
	if n.busIndex, err = NewIndex(n.busOrder); err != nil {
		return nil, err
	}
	if len(n.busOrder) != len(n.buses) {
		return nil, fmt.Errorf("%w: bus ordering incomplete", ErrUnknownBus)
	}
	if n.busIndexNoRef, err = n.busIndex.Drop(referenceBus); err != nil {
		return nil, err
	}
	if n.branchIndex, err = NewIndex(n.branchOrder); err != nil {
		return nil, err
	}
	if len(n.branchOrder) != len(n.branches) {
		return nil, fmt.Errorf("%w: branch ordering incomplete", ErrUnknownBranch)
	}
	if n.ifaceIndex, err = NewIndex(n.interfaceOrder); err != nil {
		return nil, err
	}
	if n.contIndex, err = NewIndex(n.contingencyOrder); err != nil {
		return nil, err
	}

	return n, nil
}

// ReferenceBus returns the name of the reference bus.
func (n *Network) ReferenceBus() string { return n.referenceBus }

// Bus returns the bus record for name.
func (n *Network) Bus(name string) (Bus, bool) {
	b, ok := n.buses[name]

	return b, ok
}

// Branch returns the branch record for name.
func (n *Network) Branch(name string) (Branch, bool) {
	b, ok := n.branches[name]

	return b, ok
}

// Interface returns the interface record for name.
func (n *Network) Interface(name string) (Interface, bool) {
	i, ok := n.interfaces[name]

	return i, ok
}

// Contingency returns the contingency record for name.
func (n *Network) Contingency(name string) (Contingency, bool) {
	c, ok := n.contingencies[name]

	return c, ok
}

// Buses returns the dense bus Index (reference bus included).
func (n *Network) Buses() *Index { return n.busIndex }

// BusesNoRef returns the bus Index with the reference bus eliminated,
// preserving the relative order of Buses.
func (n *Network) BusesNoRef() *Index { return n.busIndexNoRef }

// Branches returns the dense branch Index.
func (n *Network) Branches() *Index { return n.branchIndex }

// Interfaces returns the dense interface Index.
func (n *Network) Interfaces() *Index { return n.ifaceIndex }

// Contingencies returns the dense contingency Index.
func (n *Network) Contingencies() *Index { return n.contIndex }
