package grid_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/voltlab/gridsense/grid"
)

// NetworkSuite exercises snapshot validation and the Index accessors.
type NetworkSuite struct {
	suite.Suite
}

func twoBuses() []grid.Bus {
	return []grid.Bus{{Name: "A"}, {Name: "B"}}
}

func oneBranch() []grid.Branch {
	return []grid.Branch{{Name: "AB", FromBus: "A", ToBus: "B", Reactance: 0.1}}
}

// TestValid verifies a minimal snapshot builds and exposes its indexes.
func (s *NetworkSuite) TestValid() {
	net, err := grid.NewNetwork(twoBuses(), oneBranch(), "A")
	require.NoError(s.T(), err)

	require.Equal(s.T(), "A", net.ReferenceBus())
	require.Equal(s.T(), []string{"A", "B"}, net.Buses().Keys())
	require.Equal(s.T(), []string{"B"}, net.BusesNoRef().Keys())
	require.Equal(s.T(), []string{"AB"}, net.Branches().Keys())
	require.Equal(s.T(), 0, net.Interfaces().Len())
	require.Equal(s.T(), 0, net.Contingencies().Len())

	br, ok := net.Branch("AB")
	require.True(s.T(), ok)
	require.Equal(s.T(), 0.1, br.Reactance)
}

// TestMissingReference verifies an absent reference bus is fatal.
func (s *NetworkSuite) TestMissingReference() {
	_, err := grid.NewNetwork(twoBuses(), oneBranch(), "Z")
	require.True(s.T(), errors.Is(err, grid.ErrNoReferenceBus))
}

// TestUnknownEndpoint verifies branches must reference known buses.
func (s *NetworkSuite) TestUnknownEndpoint() {
	bad := []grid.Branch{{Name: "AX", FromBus: "A", ToBus: "X", Reactance: 0.1}}
	_, err := grid.NewNetwork(twoBuses(), bad, "A")
	require.True(s.T(), errors.Is(err, grid.ErrUnknownBus))
}

// TestZeroReactance verifies zero series reactance is rejected.
func (s *NetworkSuite) TestZeroReactance() {
	bad := []grid.Branch{{Name: "AB", FromBus: "A", ToBus: "B"}}
	_, err := grid.NewNetwork(twoBuses(), bad, "A")
	require.True(s.T(), errors.Is(err, grid.ErrZeroReactance))
}

// TestDuplicates verifies duplicate bus and branch names are rejected.
func (s *NetworkSuite) TestDuplicates() {
	_, err := grid.NewNetwork(append(twoBuses(), grid.Bus{Name: "A"}), oneBranch(), "A")
	require.True(s.T(), errors.Is(err, grid.ErrDuplicateName))

	_, err = grid.NewNetwork(twoBuses(), append(oneBranch(), oneBranch()...), "A")
	require.True(s.T(), errors.Is(err, grid.ErrDuplicateName))
}

// TestInterfaceValidation verifies interface members must exist.
func (s *NetworkSuite) TestInterfaceValidation() {
	iface := grid.Interface{Name: "tie", Lines: []grid.InterfaceLine{{Branch: "missing", Orientation: 1}}}
	_, err := grid.NewNetwork(twoBuses(), oneBranch(), "A", grid.WithInterfaces([]grid.Interface{iface}))
	require.True(s.T(), errors.Is(err, grid.ErrUnknownBranch))

	iface.Lines[0].Branch = "AB"
	net, err := grid.NewNetwork(twoBuses(), oneBranch(), "A", grid.WithInterfaces([]grid.Interface{iface}))
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{"tie"}, net.Interfaces().Keys())
}

// TestContingencyValidation verifies contingency outage branches must exist.
func (s *NetworkSuite) TestContingencyValidation() {
	bad := []grid.Contingency{{Name: "c1", BranchOut: "missing"}}
	_, err := grid.NewNetwork(twoBuses(), oneBranch(), "A", grid.WithContingencies(bad))
	require.True(s.T(), errors.Is(err, grid.ErrUnknownBranch))

	good := []grid.Contingency{{Name: "c1", BranchOut: "AB"}}
	net, err := grid.NewNetwork(twoBuses(), oneBranch(), "A", grid.WithContingencies(good))
	require.NoError(s.T(), err)

	c, ok := net.Contingency("c1")
	require.True(s.T(), ok)
	require.Equal(s.T(), "AB", c.BranchOut)
}

// TestOrderingOverrides verifies WithBusOrder/WithBranchOrder reorder the
// dense indexes and must cover every entity.
func (s *NetworkSuite) TestOrderingOverrides() {
	net, err := grid.NewNetwork(twoBuses(), oneBranch(), "A",
		grid.WithBusOrder([]string{"B", "A"}))
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{"B", "A"}, net.Buses().Keys())
	require.Equal(s.T(), []string{"B"}, net.BusesNoRef().Keys())

	_, err = grid.NewNetwork(twoBuses(), oneBranch(), "A",
		grid.WithBusOrder([]string{"A"}))
	require.True(s.T(), errors.Is(err, grid.ErrUnknownBus))

	_, err = grid.NewNetwork(twoBuses(), oneBranch(), "A",
		grid.WithBranchOrder([]string{"AB", "XY"}))
	require.True(s.T(), errors.Is(err, grid.ErrUnknownBranch))
}

// TestTap verifies the effective tap ratio rules.
func (s *NetworkSuite) TestTap() {
	line := grid.Branch{Reactance: 0.1}
	require.Equal(s.T(), 1.0, line.Tap())

	xfmr := grid.Branch{Reactance: 0.1, IsTransformer: true, TapRatio: 1.05}
	require.Equal(s.T(), 1.05, xfmr.Tap())

	unset := grid.Branch{Reactance: 0.1, IsTransformer: true}
	require.Equal(s.T(), 1.0, unset.Tap())
}

// Entry point for running the suite.
func TestNetworkSuite(t *testing.T) {
	suite.Run(t, new(NetworkSuite))
}
