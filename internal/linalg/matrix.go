package linalg

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Matrix is the solver contract shared by Dense and Sparse.
//
// Every method leaves the receiver and its arguments untouched. The
// interface is sealed: only this package provides implementations.
type Matrix interface {
	// Dims returns the number of rows and columns.
	Dims() (r, c int)

	// At returns the element at (i, j). It panics on an out-of-range index.
	At(i, j int) float64

	// MultiplyByVec returns A·x. len(x) must equal the column count.
	MultiplyByVec(x []float64) ([]float64, error)

	// Multiply returns A·B in the receiver's storage form.
	Multiply(other Matrix) (Matrix, error)

	// Jacobi runs at most maxIter Jacobi sweeps from x0 and returns the
	// first iterate whose max-abs change is below eps, or the last one.
	Jacobi(b, x0 []float64, eps float64, maxIter int) ([]float64, error)

	// GaussSeidel is Jacobi with in-sweep reuse of updated components.
	GaussSeidel(b, x0 []float64, eps float64, maxIter int) ([]float64, error)

	// Gaussian solves by elimination without pivoting.
	Gaussian(b []float64) ([]float64, error)

	// PartialPivot returns a row-reordered copy of the system.
	PartialPivot(b []float64) (Matrix, []float64, error)

	// GaussianPartialPivot is PartialPivot followed by Gaussian.
	GaussianPartialPivot(b []float64) ([]float64, error)

	asGrid() grid
}

// Builder is a Matrix whose entries can still be assigned.
type Builder interface {
	Matrix
	Set(i, j int, v float64)
}

// grid is the storage surface the algorithms run against.
// scanRow visits the nonzero entries of row i with column >= from in
// ascending column order; both forms must honour that order.
type grid interface {
	dims() (int, int)
	get(i, j int) float64
	put(i, j int, v float64)
	scanRow(i, from int, fn func(j int, v float64))
	swapRows(i, k int)
	cloneGrid() grid
	empty(r, c int) grid
	asMatrix() Matrix
}

var (
	_ Builder      = (*Dense)(nil)
	_ Builder      = (*Sparse)(nil)
	_ fmt.Stringer = (*Dense)(nil)
	_ fmt.Stringer = (*Sparse)(nil)
)

// Kind selects a storage form.
type Kind int

const (
	KindDense Kind = iota
	KindSparse
)

func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindSparse:
		return "sparse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "dense" or "sparse" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense":
		return KindDense, nil
	case "sparse":
		return KindSparse, nil
	default:
		return 0, fmt.Errorf("linalg: unknown storage %q", s)
	}
}

// New returns an r×c zero matrix of the given kind.
func New(kind Kind, r, c int) (Builder, error) {
	switch kind {
	case KindSparse:
		return NewSparse(r, c)
	default:
		return NewDense(r, c)
	}
}

// FromRows builds a matrix of the given kind from a rectangular grid.
func FromRows(kind Kind, rows [][]float64) (Builder, error) {
	switch kind {
	case KindSparse:
		return SparseFromRows(rows)
	default:
		return DenseFromRows(rows)
	}
}

// ToRows copies m into a freshly allocated [][]float64.
func ToRows(m Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	g := m.asGrid()
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		g.scanRow(i, 0, func(j int, v float64) { out[i][j] = v })
	}
	return out
}

// Residual returns max_i |(A·x)_i - b_i|.
func Residual(m Matrix, x, b []float64) (float64, error) {
	ax, err := m.MultiplyByVec(x)
	if err != nil {
		return 0, err
	}
	if len(ax) != len(b) {
		return 0, opErrorf(opMatVec, ErrSize)
	}
	return floats.Distance(ax, b, math.Inf(1)), nil
}

// MaxAbsDiff returns max_i |a_i - b_i|. The slices must have equal length.
func MaxAbsDiff(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

func multiplyByVec(m grid, x []float64) ([]float64, error) {
	r, c := m.dims()
	if len(x) != c {
		return nil, opErrorf(opMatVec, ErrSize)
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		s := 0.0
		m.scanRow(i, 0, func(j int, v float64) { s += v * x[j] })
		out[i] = s
	}
	return out, nil
}

func multiply(a, b grid) (Matrix, error) {
	ar, ac := a.dims()
	br, bc := b.dims()
	if ac != br {
		return nil, opErrorf(opMultiply, ErrSize)
	}
	out := a.empty(ar, bc)
	for i := 0; i < ar; i++ {
		a.scanRow(i, 0, func(k int, v float64) {
			b.scanRow(k, 0, func(j int, w float64) {
				out.put(i, j, out.get(i, j)+v*w)
			})
		})
	}
	return out.asMatrix(), nil
}

// squareLen checks that m is a non-empty square matrix matching every vector.
func squareLen(m grid, vecs ...[]float64) (int, error) {
	r, c := m.dims()
	if r == 0 || r != c {
		return 0, ErrSize
	}
	for _, v := range vecs {
		if len(v) != r {
			return 0, ErrSize
		}
	}
	return r, nil
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
