package factor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular indicates the reduced susceptance matrix is structurally
// singular, which happens exactly when the network is disconnected or
// islanded. Construction fails; there is nothing to retry.
var ErrSingular = errors.New("factor: reduced susceptance matrix is singular")

// maxCondition is the condition-number ceiling beyond which a factorization
// is treated as numerically singular.
const maxCondition = 1e14

// Factorization wraps an LU decomposition of the reduced susceptance
// matrix A and exposes forward and transpose solves against it.
//
// The wrapped decomposition is immutable; any number of readers may call
// Solve concurrently only with external synchronization, since the solve
// counter is a plain int by design (the engine is single-threaded, see the
// sensi package doc).
type Factorization struct {
	lu     *mat.LU
	n      int
	solves int
}

// newFactorization factors the dense n×n matrix a.
// Returns ErrSingular when a cannot be reliably solved against.
func newFactorization(a *mat.Dense, n int) (*Factorization, error) {
	lu := &mat.LU{}
	lu.Factorize(a)
	if c := lu.Cond(); math.IsInf(c, 1) || c > maxCondition {
		return nil, fmt.Errorf("%w (condition number %g)", ErrSingular, c)
	}

	return &Factorization{lu: lu, n: n}, nil
}

// N returns the dimension of the factored matrix.
func (f *Factorization) N() int { return f.n }

// Solves returns the cumulative number of Solve calls performed against
// this factorization. Row caches rely on this counter to prove their
// at-most-once-per-key behavior.
func (f *Factorization) Solves() int { return f.solves }

// Solve returns x satisfying A·x = b, or Aᵀ·x = b when transpose is set.
// The right-hand side b is not modified and the result is freshly
// allocated.
//
// Linear-algebra failures from the backend are propagated unchanged,
// except that an exactly singular system maps onto ErrSingular.
//
// Time Complexity: O(n²) back-substitution against the stored factors.
func (f *Factorization) Solve(b []float64, transpose bool) ([]float64, error) {
	if len(b) != f.n {
		return nil, fmt.Errorf("factor: rhs length %d, want %d", len(b), f.n)
	}
	f.solves++

	var dst mat.VecDense
	err := f.lu.SolveVecTo(&dst, transpose, mat.NewVecDense(f.n, b))
	var cond mat.Condition
	switch {
	case err == nil:
	case errors.As(err, &cond):
		// Ill-conditioned but solvable: the backend still produced a
		// usable solution. The construction-time condition check bounds
		// how bad this can get.
	case errors.Is(err, mat.ErrSingular):
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	default:
		return nil, err
	}

	out := make([]float64, f.n)
	copy(out, dst.RawVector().Data)

	return out, nil
}
