package linalg

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

type index struct {
	row, col int
}

// Sparse stores only nonzero entries, keyed by (row, col).
//
// Writing exactly 0.0 removes the key, so a stored entry is never zero.
// cols[i] lists the stored columns of row i in ascending order and gives
// row scans a deterministic order.
type Sparse struct {
	r, c int
	data map[index]float64
	cols [][]int
}

// NewSparse returns an r×c matrix with no stored entries.
func NewSparse(r, c int) (*Sparse, error) {
	if r <= 0 || c <= 0 {
		return nil, opErrorf(opFromRows, ErrSize)
	}
	return &Sparse{
		r:    r,
		c:    c,
		data: make(map[index]float64, r),
		cols: make([][]int, r),
	}, nil
}

// SparseFromRows stores the nonzero entries of a rectangular grid.
func SparseFromRows(rows [][]float64) (*Sparse, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, opErrorf(opFromRows, ErrSize)
	}
	m, err := NewSparse(len(rows), len(rows[0]))
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

func (m *Sparse) Dims() (int, int) { return m.r, m.c }

// At returns 0 for any position without a stored entry.
func (m *Sparse) At(i, j int) float64 {
	m.check(i, j)
	return m.data[index{i, j}]
}

// Set assigns v at (i, j); v == 0 removes the entry.
func (m *Sparse) Set(i, j int, v float64) {
	m.check(i, j)
	m.put(i, j, v)
}

// NNZ returns the number of stored entries.
func (m *Sparse) NNZ() int { return len(m.data) }

// Clone returns a deep copy.
func (m *Sparse) Clone() *Sparse {
	out := &Sparse{
		r:    m.r,
		c:    m.c,
		data: make(map[index]float64, len(m.data)),
		cols: make([][]int, m.r),
	}
	for k, v := range m.data {
		out.data[k] = v
	}
	for i, cols := range m.cols {
		out.cols[i] = slices.Clone(cols)
	}
	return out
}

func (m *Sparse) check(i, j int) {
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		panic(fmt.Sprintf("linalg: index (%d,%d) out of range for %dx%d sparse", i, j, m.r, m.c))
	}
}

// String lists stored entries in row-major order.
func (m *Sparse) String() string {
	var sb strings.Builder
	for i, cols := range m.cols {
		for _, j := range cols {
			fmt.Fprintf(&sb, "(%d, %d): %v\n", i, j, m.data[index{i, j}])
		}
	}
	return sb.String()
}

func (m *Sparse) MultiplyByVec(x []float64) ([]float64, error) { return multiplyByVec(m, x) }

func (m *Sparse) Multiply(other Matrix) (Matrix, error) { return multiply(m, other.asGrid()) }

func (m *Sparse) Jacobi(b, x0 []float64, eps float64, maxIter int) ([]float64, error) {
	return relaxX(m, Jacobi, b, x0, eps, maxIter)
}

func (m *Sparse) GaussSeidel(b, x0 []float64, eps float64, maxIter int) ([]float64, error) {
	return relaxX(m, GaussSeidel, b, x0, eps, maxIter)
}

func (m *Sparse) Gaussian(b []float64) ([]float64, error) { return gaussian(m, b) }

func (m *Sparse) PartialPivot(b []float64) (Matrix, []float64, error) {
	g, rhs, err := partialPivot(m, b)
	if err != nil {
		return nil, nil, err
	}
	return g.asMatrix(), rhs, nil
}

func (m *Sparse) GaussianPartialPivot(b []float64) ([]float64, error) {
	return gaussianPartialPivot(m, b)
}

// grid implementation.

func (m *Sparse) asGrid() grid         { return m }
func (m *Sparse) asMatrix() Matrix     { return m }
func (m *Sparse) dims() (int, int)     { return m.r, m.c }
func (m *Sparse) get(i, j int) float64 { return m.data[index{i, j}] }
func (m *Sparse) cloneGrid() grid      { return m.Clone() }

func (m *Sparse) empty(r, c int) grid {
	return &Sparse{r: r, c: c, data: make(map[index]float64), cols: make([][]int, r)}
}

func (m *Sparse) put(i, j int, v float64) {
	k := index{i, j}
	_, stored := m.data[k]
	if v == 0 {
		if stored {
			delete(m.data, k)
			if pos, ok := slices.BinarySearch(m.cols[i], j); ok {
				m.cols[i] = slices.Delete(m.cols[i], pos, pos+1)
			}
		}
		return
	}
	if !stored {
		pos, _ := slices.BinarySearch(m.cols[i], j)
		m.cols[i] = slices.Insert(m.cols[i], pos, j)
	}
	m.data[k] = v
}

func (m *Sparse) scanRow(i, from int, fn func(j int, v float64)) {
	cols := m.cols[i]
	for _, j := range cols[sort.SearchInts(cols, from):] {
		fn(j, m.data[index{i, j}])
	}
}

// swapRows re-keys every entry of rows i and k.
func (m *Sparse) swapRows(i, k int) {
	if i == k {
		return
	}
	vi := m.rowValues(i)
	vk := m.rowValues(k)
	ci, ck := m.cols[i], m.cols[k]
	for _, j := range ci {
		delete(m.data, index{i, j})
	}
	for _, j := range ck {
		delete(m.data, index{k, j})
	}
	for n, j := range ck {
		m.data[index{i, j}] = vk[n]
	}
	for n, j := range ci {
		m.data[index{k, j}] = vi[n]
	}
	m.cols[i], m.cols[k] = ck, ci
}

func (m *Sparse) rowValues(i int) []float64 {
	vals := make([]float64, len(m.cols[i]))
	for n, j := range m.cols[i] {
		vals[n] = m.data[index{i, j}]
	}
	return vals
}
