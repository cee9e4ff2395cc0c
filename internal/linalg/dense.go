package linalg

import (
	"fmt"
	"strings"
)

// Dense is a row-major matrix. Row i occupies data[i*c : (i+1)*c].
type Dense struct {
	r, c int
	data []float64
}

// NewDense returns an r×c zero matrix.
func NewDense(r, c int) (*Dense, error) {
	if r <= 0 || c <= 0 {
		return nil, opErrorf(opFromRows, ErrSize)
	}
	return &Dense{r: r, c: c, data: make([]float64, r*c)}, nil
}

// DenseFromRows copies a rectangular grid into a new Dense.
// Ragged or empty input yields ErrSize.
func DenseFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, opErrorf(opFromRows, ErrSize)
	}
	m, err := NewDense(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != m.c {
			return nil, opErrorf(opFromRows, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), m.c, ErrSize))
		}
		for j, v := range row {
			m.put(i, j, v)
		}
	}
	return m, nil
}

func (m *Dense) Dims() (int, int) { return m.r, m.c }

func (m *Dense) At(i, j int) float64 {
	m.check(i, j)
	return m.data[i*m.c+j]
}

// Set assigns v at (i, j). It panics on an out-of-range index.
// A negative zero is stored as +0, matching Sparse, which keeps no zeros.
func (m *Dense) Set(i, j int, v float64) {
	m.check(i, j)
	m.put(i, j, v)
}

// Row returns a copy of row i.
func (m *Dense) Row(i int) []float64 {
	m.check(i, 0)
	return cloneVec(m.data[i*m.c : (i+1)*m.c])
}

// Clone returns a deep copy.
func (m *Dense) Clone() *Dense {
	return &Dense{r: m.r, c: m.c, data: cloneVec(m.data)}
}

func (m *Dense) check(i, j int) {
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		panic(fmt.Sprintf("linalg: index (%d,%d) out of range for %dx%d dense", i, j, m.r, m.c))
	}
}

func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.r; i++ {
		sb.WriteString("[")
		for j := 0; j < m.c; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%8.4f", m.data[i*m.c+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

func (m *Dense) MultiplyByVec(x []float64) ([]float64, error) { return multiplyByVec(m, x) }

func (m *Dense) Multiply(other Matrix) (Matrix, error) { return multiply(m, other.asGrid()) }

func (m *Dense) Jacobi(b, x0 []float64, eps float64, maxIter int) ([]float64, error) {
	return relaxX(m, Jacobi, b, x0, eps, maxIter)
}

func (m *Dense) GaussSeidel(b, x0 []float64, eps float64, maxIter int) ([]float64, error) {
	return relaxX(m, GaussSeidel, b, x0, eps, maxIter)
}

func (m *Dense) Gaussian(b []float64) ([]float64, error) { return gaussian(m, b) }

func (m *Dense) PartialPivot(b []float64) (Matrix, []float64, error) {
	g, rhs, err := partialPivot(m, b)
	if err != nil {
		return nil, nil, err
	}
	return g.asMatrix(), rhs, nil
}

func (m *Dense) GaussianPartialPivot(b []float64) ([]float64, error) {
	return gaussianPartialPivot(m, b)
}

// grid implementation.

func (m *Dense) asGrid() grid         { return m }
func (m *Dense) asMatrix() Matrix     { return m }
func (m *Dense) dims() (int, int)     { return m.r, m.c }
func (m *Dense) get(i, j int) float64 { return m.data[i*m.c+j] }
func (m *Dense) cloneGrid() grid      { return m.Clone() }

func (m *Dense) put(i, j int, v float64) {
	if v == 0 {
		v = 0
	}
	m.data[i*m.c+j] = v
}

func (m *Dense) empty(r, c int) grid {
	return &Dense{r: r, c: c, data: make([]float64, r*c)}
}

// scanRow skips zeros so that Dense performs exactly the operations Sparse does.
func (m *Dense) scanRow(i, from int, fn func(j int, v float64)) {
	row := m.data[i*m.c : (i+1)*m.c]
	for j := from; j < m.c; j++ {
		if v := row[j]; v != 0 {
			fn(j, v)
		}
	}
}

func (m *Dense) swapRows(i, k int) {
	if i == k {
		return
	}
	ri := m.data[i*m.c : (i+1)*m.c]
	rk := m.data[k*m.c : (k+1)*m.c]
	for j := range ri {
		ri[j], rk[j] = rk[j], ri[j]
	}
}
