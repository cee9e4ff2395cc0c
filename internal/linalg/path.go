package linalg

// MinPathSize is the smallest default path: two absorbing ends.
const MinPathSize = 2

// DensePath builds the default-path system of the given size: rows 0 and
// size-1 are identity rows (the absorbing ends) and every interior row i
// has 1 on the diagonal and -0.5 on both neighbours.
func DensePath(size int) (*Dense, error) {
	if size < MinPathSize {
		return nil, opErrorf(opPath, ErrPathTooShort)
	}
	m, err := NewDense(size, size)
	if err != nil {
		return nil, err
	}
	fillPath(m, size)
	return m, nil
}

// SparsePath is DensePath in sparse form.
func SparsePath(size int) (*Sparse, error) {
	if size < MinPathSize {
		return nil, opErrorf(opPath, ErrPathTooShort)
	}
	m, err := NewSparse(size, size)
	if err != nil {
		return nil, err
	}
	fillPath(m, size)
	return m, nil
}

// Path builds the default path in the requested form.
func Path(kind Kind, size int) (Builder, error) {
	if kind == KindSparse {
		return SparsePath(size)
	}
	return DensePath(size)
}

// PathRHS returns e_0: home at node 0 is worth 1, the well at size-1 is worth 0.
func PathRHS(size int) []float64 {
	b := make([]float64, size)
	if size > 0 {
		b[0] = 1
	}
	return b
}

func fillPath(g grid, size int) {
	g.put(0, 0, 1)
	g.put(size-1, size-1, 1)
	for i := 1; i < size-1; i++ {
		g.put(i, i-1, -0.5)
		g.put(i, i, 1)
		g.put(i, i+1, -0.5)
	}
}
