package sensi_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voltlab/gridsense/grid"
	"github.com/voltlab/gridsense/sensi"
)

// quietOpts returns the default options with construction logging silenced.
func quietOpts() sensi.Options {
	opts := sensi.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	return opts
}

// radialNet is the 3-bus chain A(ref)--AB--B--BC--C with β = 10 and 5 and
// thermal ratings on both branches.
func radialNet(t *testing.T, opts ...grid.NetworkOption) *grid.Network {
	t.Helper()
	net, err := grid.NewNetwork(
		[]grid.Bus{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		[]grid.Branch{
			{Name: "AB", FromBus: "A", ToBus: "B", Reactance: 0.1, RatingLongTerm: 200, RatingEmergency: 240},
			{Name: "BC", FromBus: "B", ToBus: "C", Reactance: 0.2, RatingLongTerm: 150, RatingEmergency: 180},
		},
		"A",
		opts...,
	)
	require.NoError(t, err)

	return net
}

// meshBranches returns the five branches of the 4-bus mesh; withBD drops the
// cross branch so tests can rebuild the post-contingency network directly.
func meshBranches(withBD bool) []grid.Branch {
	branches := []grid.Branch{
		{Name: "AB", FromBus: "A", ToBus: "B", Reactance: 0.1, RatingLongTerm: 300, RatingEmergency: 360},
		{Name: "BC", FromBus: "B", ToBus: "C", Reactance: 0.2, RatingLongTerm: 200, RatingEmergency: 240},
		{Name: "CD", FromBus: "C", ToBus: "D", Reactance: 0.1, RatingLongTerm: 250, RatingEmergency: 300},
		{Name: "AD", FromBus: "A", ToBus: "D", Reactance: 0.2, RatingLongTerm: 200, RatingEmergency: 240},
	}
	if withBD {
		branches = append(branches, grid.Branch{
			Name: "BD", FromBus: "B", ToBus: "D", Reactance: 0.25, RatingLongTerm: 100, RatingEmergency: 120,
		})
	}

	return branches
}

// meshNet is a 4-bus looped network with one interface and one registered
// contingency on the cross branch BD.
func meshNet(t *testing.T, withBD bool, opts ...grid.NetworkOption) *grid.Network {
	t.Helper()
	buses := []grid.Bus{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}

	all := []grid.NetworkOption{
		grid.WithInterfaces([]grid.Interface{{
			Name: "east",
			Lines: []grid.InterfaceLine{
				{Branch: "BC", Orientation: 1},
				{Branch: "CD", Orientation: -1},
			},
		}}),
	}
	if withBD {
		all = append(all, grid.WithContingencies([]grid.Contingency{{Name: "loss-of-BD", BranchOut: "BD"}}))
	}
	all = append(all, opts...)

	net, err := grid.NewNetwork(buses, meshBranches(withBD), "A", all...)
	require.NoError(t, err)

	return net
}

// radialWithShifter is radialNet with BC turned into a phase-shifting
// transformer.
func radialWithShifter(t *testing.T) *grid.Network {
	t.Helper()
	net, err := grid.NewNetwork(
		[]grid.Bus{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		[]grid.Branch{
			{Name: "AB", FromBus: "A", ToBus: "B", Reactance: 0.1, RatingLongTerm: 200},
			{Name: "BC", FromBus: "B", ToBus: "C", Reactance: 0.2, RatingLongTerm: 150,
				IsTransformer: true, TapRatio: 1.02, PhaseShift: 10},
		},
		"A",
	)
	require.NoError(t, err)

	return net
}

// meshWithShifter is meshNet with AB turned into a phase-shifting
// transformer, keeping the interface and the BD contingency.
func meshWithShifter(t *testing.T) *grid.Network {
	t.Helper()
	buses := []grid.Bus{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}

	branches := meshBranches(true)
	for i := range branches {
		if branches[i].Name == "AB" {
			branches[i].IsTransformer = true
			branches[i].TapRatio = 1.02
			branches[i].PhaseShift = 10
		}
	}

	net, err := grid.NewNetwork(buses, branches, "A",
		grid.WithInterfaces([]grid.Interface{{
			Name: "east",
			Lines: []grid.InterfaceLine{
				{Branch: "BC", Orientation: 1},
				{Branch: "CD", Orientation: -1},
			},
		}}),
		grid.WithContingencies([]grid.Contingency{
			{Name: "loss-of-BD", BranchOut: "BD"},
			{Name: "loss-of-AB", BranchOut: "AB"},
		}),
	)
	require.NoError(t, err)

	return net
}

// newEngine builds an engine over net with quiet options.
func newEngine(t *testing.T, net *grid.Network) *sensi.Engine {
	t.Helper()
	e, err := sensi.New(net, quietOpts())
	require.NoError(t, err)

	return e
}

// netInjection asserts flow conservation: for every bus the oriented flow
// balance equals the injection (reference bus balances the rest).
func netInjection(t *testing.T, net *grid.Network, flows []float64, injections []float64) {
	t.Helper()
	buses := net.Buses()
	branches := net.Branches()

	refPos, _ := buses.Position(net.ReferenceBus())
	var total float64
	for i, p := range injections {
		if i != refPos {
			total += p
		}
	}

	for i := 0; i < buses.Len(); i++ {
		var balance float64
		for k := 0; k < branches.Len(); k++ {
			br, _ := net.Branch(branches.Name(k))
			if br.ToBus == buses.Name(i) {
				balance += flows[k]
			}
			if br.FromBus == buses.Name(i) {
				balance -= flows[k]
			}
		}

		want := injections[i]
		if i == refPos {
			want = -total
		}
		require.InDelta(t, want, balance, 1e-9, "bus %s", buses.Name(i))
	}
}
