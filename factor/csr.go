package factor

import "sort"

// CSR is an immutable compressed-sparse-row matrix.
//
// Row i occupies positions indptr[i]..indptr[i+1] of the parallel index
// (column) and value arrays. Columns within a row are sorted ascending and
// duplicate-free. A CSR is never mutated after Build returns.
type CSR struct {
	rows, cols int
	indptr     []int
	index      []int
	value      []float64
}

// Builder accumulates triplet entries for a CSR matrix. Entries may be added
// in any order; duplicates at the same (row, col) are summed by Build.
type Builder struct {
	rows, cols int
	entries    []triplet
}

type triplet struct {
	row, col int
	val      float64
}

// NewBuilder creates a Builder for a rows×cols matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols}
}

// Add records value v at (i, j). Entries with j < 0 are discarded, which
// lets callers stamp incidence terms of the eliminated reference bus
// without special-casing.
func (b *Builder) Add(i, j int, v float64) {
	if j < 0 || v == 0 {
		return
	}
	b.entries = append(b.entries, triplet{row: i, col: j, val: v})
}

// Build finalizes the accumulated entries into an immutable CSR.
//
// Steps:
//  1. Sort triplets by (row, col).
//  2. Merge duplicates by summation.
//  3. Lay out indptr/index/value arrays.
//
// Time Complexity: O(nnz·log nnz)
func (b *Builder) Build() *CSR {
	sort.Slice(b.entries, func(p, q int) bool {
		if b.entries[p].row != b.entries[q].row {
			return b.entries[p].row < b.entries[q].row
		}

		return b.entries[p].col < b.entries[q].col
	})

	m := &CSR{
		rows:   b.rows,
		cols:   b.cols,
		indptr: make([]int, b.rows+1),
	}
	lastRow, lastCol := -1, -1
	for _, t := range b.entries {
		if t.row == lastRow && t.col == lastCol {
			// duplicate (row, col): merge into the stored entry
			m.value[len(m.value)-1] += t.val
			continue
		}
		// indptr is built as per-row counts first, prefix-summed below
		m.index = append(m.index, t.col)
		m.value = append(m.value, t.val)
		m.indptr[t.row+1]++
		lastRow, lastCol = t.row, t.col
	}
	for i := 0; i < b.rows; i++ {
		m.indptr[i+1] += m.indptr[i]
	}

	return m
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (rows, cols int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.index) }

// DenseRow writes row i into dst and returns it. When dst is nil or too
// short a fresh slice of length cols is allocated; otherwise dst is zeroed
// first. Panics when i is out of range, matching slice semantics.
//
// Time Complexity: O(cols)
func (m *CSR) DenseRow(i int, dst []float64) []float64 {
	if cap(dst) < m.cols {
		dst = make([]float64, m.cols)
	} else {
		dst = dst[:m.cols]
		for k := range dst {
			dst[k] = 0
		}
	}
	for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
		dst[m.index[p]] = m.value[p]
	}

	return dst
}

// Row visits the stored entries of row i in ascending column order.
func (m *CSR) Row(i int, visit func(col int, val float64)) {
	for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
		visit(m.index[p], m.value[p])
	}
}

// MulVec computes y = M·x, allocating y when dst is nil.
//
// Time Complexity: O(nnz)
func (m *CSR) MulVec(x, dst []float64) []float64 {
	if cap(dst) < m.rows {
		dst = make([]float64, m.rows)
	} else {
		dst = dst[:m.rows]
	}
	for i := 0; i < m.rows; i++ {
		var s float64
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			s += m.value[p] * x[m.index[p]]
		}
		dst[i] = s
	}

	return dst
}

// MulVecTrans computes y = Mᵀ·x, allocating y when dst is nil.
//
// Time Complexity: O(nnz)
func (m *CSR) MulVecTrans(x, dst []float64) []float64 {
	if cap(dst) < m.cols {
		dst = make([]float64, m.cols)
	} else {
		dst = dst[:m.cols]
	}
	for k := range dst {
		dst[k] = 0
	}
	for i := 0; i < m.rows; i++ {
		xi := x[i]
		if xi == 0 {
			continue
		}
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			dst[m.index[p]] += m.value[p] * xi
		}
	}

	return dst
}

// RowDot returns the dot product of row i with x.
//
// Time Complexity: O(nnz(row i))
func (m *CSR) RowDot(i int, x []float64) float64 {
	var s float64
	for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
		s += m.value[p] * x[m.index[p]]
	}

	return s
}
