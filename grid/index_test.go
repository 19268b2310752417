package grid_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/voltlab/gridsense/grid"
)

// IndexSuite exercises the name↔position bijection.
type IndexSuite struct {
	suite.Suite
}

// TestRoundTrip verifies Position and Name agree for every key.
func (s *IndexSuite) TestRoundTrip() {
	ix, err := grid.NewIndex([]string{"alpha", "beta", "gamma"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, ix.Len())

	for i, k := range []string{"alpha", "beta", "gamma"} {
		p, ok := ix.Position(k)
		require.True(s.T(), ok)
		require.Equal(s.T(), i, p)
		require.Equal(s.T(), k, ix.Name(i))
	}

	_, ok := ix.Position("delta")
	require.False(s.T(), ok)
}

// TestDuplicate verifies duplicate keys are rejected.
func (s *IndexSuite) TestDuplicate() {
	_, err := grid.NewIndex([]string{"a", "b", "a"})
	require.True(s.T(), errors.Is(err, grid.ErrDuplicateName))
}

// TestKeysIsACopy verifies mutating the returned key slice does not leak
// into the Index.
func (s *IndexSuite) TestKeysIsACopy() {
	ix, err := grid.NewIndex([]string{"a", "b"})
	require.NoError(s.T(), err)

	keys := ix.Keys()
	keys[0] = "mutated"
	require.Equal(s.T(), "a", ix.Name(0))
}

// TestDrop verifies Drop removes one key and preserves relative order.
func (s *IndexSuite) TestDrop() {
	ix, err := grid.NewIndex([]string{"a", "ref", "b", "c"})
	require.NoError(s.T(), err)

	reduced, err := ix.Drop("ref")
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{"a", "b", "c"}, reduced.Keys())
	require.Equal(s.T(), 4, ix.Len(), "receiver must be unchanged")

	_, err = ix.Drop("missing")
	require.True(s.T(), errors.Is(err, grid.ErrUnknownBus))
}

// Entry point for running the suite.
func TestIndexSuite(t *testing.T) {
	suite.Run(t, new(IndexSuite))
}
