package linalg

import "math"

func gaussian(m grid, b []float64) ([]float64, error) {
	if _, err := squareLen(m, b); err != nil {
		return nil, opErrorf(opGaussian, err)
	}
	return eliminate(m.cloneGrid(), cloneVec(b))
}

func partialPivot(m grid, b []float64) (grid, []float64, error) {
	if _, err := squareLen(m, b); err != nil {
		return nil, nil, opErrorf(opPartialPivot, err)
	}
	a, rhs := m.cloneGrid(), cloneVec(b)
	pivotRows(a, rhs)
	return a, rhs, nil
}

func gaussianPartialPivot(m grid, b []float64) ([]float64, error) {
	a, rhs, err := partialPivot(m, b)
	if err != nil {
		return nil, err
	}
	return eliminate(a, rhs)
}

// pivotRows moves, for each column i, the first row with the largest
// magnitude in that column (among rows i..n-1) into row i.
func pivotRows(a grid, rhs []float64) {
	n := len(rhs)
	for i := 0; i < n; i++ {
		maxRow, maxVal := i, math.Abs(a.get(i, i))
		for k := i + 1; k < n; k++ {
			if v := math.Abs(a.get(k, i)); v > maxVal {
				maxRow, maxVal = k, v
			}
		}
		if maxRow != i {
			a.swapRows(i, maxRow)
			rhs[i], rhs[maxRow] = rhs[maxRow], rhs[i]
		}
	}
}

// eliminate reduces a in place to upper-triangular form and back-substitutes.
// a and rhs must be owned by the caller.
func eliminate(a grid, rhs []float64) ([]float64, error) {
	n := len(rhs)
	for i := 0; i < n; i++ {
		pivot := a.get(i, i)
		if pivot == 0 {
			return nil, &PivotError{Op: opGaussian, Row: i, Err: ErrZeroPivot}
		}
		for j := i + 1; j < n; j++ {
			aji := a.get(j, i)
			if aji == 0 {
				continue
			}
			factor := aji / pivot
			a.scanRow(i, i, func(k int, v float64) {
				a.put(j, k, a.get(j, k)-factor*v)
			})
			rhs[j] -= factor * rhs[i]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := rhs[i]
		a.scanRow(i, i+1, func(j int, v float64) { s -= v * x[j] })
		x[i] = s / a.get(i, i)
		if math.IsNaN(x[i]) {
			return nil, &PivotError{Op: opGaussian, Row: i, Err: ErrUnsolvable}
		}
	}
	return x, nil
}
