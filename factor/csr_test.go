package factor_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/voltlab/gridsense/factor"
)

// CSRSuite exercises the triplet builder and the sparse kernels.
type CSRSuite struct {
	suite.Suite
}

// buildSample returns the 3×4 matrix
//
//	[ 0  1  0  2 ]
//	[ 3  0  5  0 ]
//	[ 0  0  0  0 ]
//
// assembled from out-of-order triplets with one duplicate.
func buildSample() *factor.CSR {
	b := factor.NewBuilder(3, 4)
	b.Add(1, 2, 5)
	b.Add(0, 3, 2)
	b.Add(1, 0, 1)
	b.Add(0, 1, 1)
	b.Add(1, 0, 2) // duplicate, merges to 3

	return b.Build()
}

// TestBuild verifies sorting, duplicate merging and the dense row view.
func (s *CSRSuite) TestBuild() {
	m := buildSample()

	rows, cols := m.Dims()
	require.Equal(s.T(), 3, rows)
	require.Equal(s.T(), 4, cols)
	require.Equal(s.T(), 4, m.NNZ())

	require.Equal(s.T(), []float64{0, 1, 0, 2}, m.DenseRow(0, nil))
	require.Equal(s.T(), []float64{3, 0, 5, 0}, m.DenseRow(1, nil))
	require.Equal(s.T(), []float64{0, 0, 0, 0}, m.DenseRow(2, nil))
}

// TestDenseRowReuse verifies a reused destination slice is zeroed first.
func (s *CSRSuite) TestDenseRowReuse() {
	m := buildSample()

	dst := m.DenseRow(1, nil)
	dst = m.DenseRow(2, dst)
	require.Equal(s.T(), []float64{0, 0, 0, 0}, dst)
}

// TestDuplicateMergeLaterRows verifies duplicates are summed regardless of
// which row they land in, and that the dense view, the matvec kernels and
// the row dot product all agree on the merged values.
func (s *CSRSuite) TestDuplicateMergeLaterRows() {
	b := factor.NewBuilder(2, 3)
	b.Add(0, 0, 1)
	b.Add(0, 1, 1)
	b.Add(1, 0, 1)
	b.Add(1, 0, 2)
	b.Add(1, 2, 5)
	m := b.Build()

	require.Equal(s.T(), 4, m.NNZ())
	require.Equal(s.T(), []float64{1, 1, 0}, m.DenseRow(0, nil))
	require.Equal(s.T(), []float64{3, 0, 5}, m.DenseRow(1, nil))

	// every kernel must see the same merged row
	x := []float64{1, 10, 100}
	require.Equal(s.T(), []float64{11, 503}, m.MulVec(x, nil))
	require.Equal(s.T(), 503.0, m.RowDot(1, x))
	require.Equal(s.T(), []float64{7, 1, 10}, m.MulVecTrans([]float64{1, 2}, nil))
}

// TestSameColumnAcrossRows verifies entries sharing a column in adjacent
// rows are kept distinct rather than merged.
func (s *CSRSuite) TestSameColumnAcrossRows() {
	b := factor.NewBuilder(2, 2)
	b.Add(0, 1, 3)
	b.Add(1, 1, 4)
	m := b.Build()

	require.Equal(s.T(), 2, m.NNZ())
	require.Equal(s.T(), []float64{0, 3}, m.DenseRow(0, nil))
	require.Equal(s.T(), []float64{0, 4}, m.DenseRow(1, nil))
}

// TestNegativeColumnDropped verifies entries aimed at the eliminated
// reference position are silently discarded.
func (s *CSRSuite) TestNegativeColumnDropped() {
	b := factor.NewBuilder(1, 2)
	b.Add(0, -1, 7)
	b.Add(0, 1, 4)
	m := b.Build()

	require.Equal(s.T(), 1, m.NNZ())
	require.Equal(s.T(), []float64{0, 4}, m.DenseRow(0, nil))
}

// TestKernels verifies MulVec, MulVecTrans, Row and RowDot against the
// dense arithmetic.
func (s *CSRSuite) TestKernels() {
	m := buildSample()
	x := []float64{1, 2, 3, 4}

	require.Equal(s.T(), []float64{10, 18, 0}, m.MulVec(x, nil))

	y := []float64{1, 2, 3}
	require.Equal(s.T(), []float64{6, 1, 10, 2}, m.MulVecTrans(y, nil))

	require.Equal(s.T(), 18.0, m.RowDot(1, x))

	var cols []int
	var vals []float64
	m.Row(1, func(c int, v float64) {
		cols = append(cols, c)
		vals = append(vals, v)
	})
	require.Equal(s.T(), []int{0, 2}, cols)
	require.Equal(s.T(), []float64{3, 5}, vals)
}

// Entry point for running the suite.
func TestCSRSuite(t *testing.T) {
	suite.Run(t, new(CSRSuite))
}
