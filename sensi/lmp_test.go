package sensi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/voltlab/gridsense/sensi"
)

// LMPSuite exercises the locational-marginal-price evaluator.
type LMPSuite struct {
	suite.Suite
}

// TestEnergyOnly verifies the uncongested case prices every bus at the
// energy dual, over the full bus set.
func (s *LMPSuite) TestEnergyOnly() {
	e := newEngine(s.T(), radialNet(s.T()))

	lmp, err := e.LMP(sensi.LMPInputs{EnergyDual: 30})
	require.NoError(s.T(), err)
	require.Len(s.T(), lmp, 3, "one price per bus, reference included")
	for _, v := range lmp {
		require.Equal(s.T(), 30.0, v)
	}
}

// TestReferenceReinsertion verifies the reference entry equals the energy
// dual exactly even with binding congestion elsewhere.
func (s *LMPSuite) TestReferenceReinsertion() {
	net := meshNet(s.T(), true)
	e := newEngine(s.T(), net)

	lmp, err := e.LMP(sensi.LMPInputs{
		EnergyDual:  25,
		BranchDuals: map[string]float64{"BC": -3.5},
		ContingencyDuals: map[sensi.ContingencyBranch]float64{
			{Contingency: "loss-of-BD", Branch: "AB"}: 1.25,
		},
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), lmp, 4)

	refPos, _ := net.Buses().Position(net.ReferenceBus())
	require.Equal(s.T(), 25.0, lmp[refPos])
}

// TestSingleDualDecomposition verifies one binding branch constraint
// decomposes as lmp = energy + dual·ptdf_row.
func (s *LMPSuite) TestSingleDualDecomposition() {
	net := meshNet(s.T(), true)
	e := newEngine(s.T(), net)

	const energy, dual = 20.0, -4.0
	lmp, err := e.LMP(sensi.LMPInputs{
		EnergyDual:  energy,
		BranchDuals: map[string]float64{"BC": dual},
	})
	require.NoError(s.T(), err)

	row, err := e.BranchRow("BC")
	require.NoError(s.T(), err)

	busesNoRef := net.BusesNoRef()
	for i := 0; i < busesNoRef.Len(); i++ {
		pos, _ := net.Buses().Position(busesNoRef.Name(i))
		require.InDelta(s.T(), energy+dual*row[i], lmp[pos], 1e-9, "bus %s", busesNoRef.Name(i))
	}
}

// TestDualSuperposition verifies the multi-dual price equals the sum of the
// single-dual prices minus the duplicated energy component.
func (s *LMPSuite) TestDualSuperposition() {
	e := newEngine(s.T(), meshNet(s.T(), true))

	branch, err := e.LMP(sensi.LMPInputs{BranchDuals: map[string]float64{"AB": 2}})
	require.NoError(s.T(), err)
	iface, err := e.LMP(sensi.LMPInputs{InterfaceDuals: map[string]float64{"east": -1.5}})
	require.NoError(s.T(), err)
	cont, err := e.LMP(sensi.LMPInputs{ContingencyDuals: map[sensi.ContingencyBranch]float64{
		{Contingency: "loss-of-BD", Branch: "CD"}: 0.75,
	}})
	require.NoError(s.T(), err)

	combined, err := e.LMP(sensi.LMPInputs{
		EnergyDual:     10,
		BranchDuals:    map[string]float64{"AB": 2},
		InterfaceDuals: map[string]float64{"east": -1.5},
		ContingencyDuals: map[sensi.ContingencyBranch]float64{
			{Contingency: "loss-of-BD", Branch: "CD"}: 0.75,
		},
	})
	require.NoError(s.T(), err)

	for i := range combined {
		require.InDelta(s.T(), 10+branch[i]+iface[i]+cont[i], combined[i], 1e-9)
	}
}

// TestUnknownDualKeys verifies unknown dual keys are rejected.
func (s *LMPSuite) TestUnknownDualKeys() {
	e := newEngine(s.T(), meshNet(s.T(), true))

	_, err := e.LMP(sensi.LMPInputs{BranchDuals: map[string]float64{"nope": 1}})
	require.True(s.T(), errors.Is(err, sensi.ErrUnknownEntity))

	_, err = e.LMP(sensi.LMPInputs{ContingencyDuals: map[sensi.ContingencyBranch]float64{
		{Contingency: "nope", Branch: "AB"}: 1,
	}})
	require.True(s.T(), errors.Is(err, sensi.ErrUnknownContingency))
}

// Entry point for running the suite.
func TestLMPSuite(t *testing.T) {
	suite.Run(t, new(LMPSuite))
}
