package linalg_test

import (
	"math/rand"
	"testing"

	"github.com/san-kum/homewalk/internal/linalg"
)

const tol = 1e-9

var kinds = []linalg.Kind{linalg.KindDense, linalg.KindSparse}

// mustRows builds a matrix of the given kind or fails the test.
func mustRows(t testing.TB, kind linalg.Kind, rows [][]float64) linalg.Builder {
	t.Helper()
	m, err := linalg.FromRows(kind, rows)
	if err != nil {
		t.Fatalf("FromRows(%s): %v", kind, err)
	}
	return m
}

func mustPath(t testing.TB, kind linalg.Kind, n int) linalg.Builder {
	t.Helper()
	m, err := linalg.Path(kind, n)
	if err != nil {
		t.Fatalf("Path(%s, %d): %v", kind, n, err)
	}
	return m
}

// dominantRows returns a strictly diagonally dominant n×n grid with roughly
// one third of the off-diagonal entries zero.
func dominantRows(rng *rand.Rand, n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		sum := 0.0
		for j := range rows[i] {
			if i == j || rng.Intn(3) == 0 {
				continue
			}
			v := rng.Float64()*2 - 1
			rows[i][j] = v
			if v < 0 {
				sum -= v
			} else {
				sum += v
			}
		}
		rows[i][i] = sum + 1 + rng.Float64()
	}
	return rows
}

func randomVec(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()*10 - 5
	}
	return v
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = append([]float64(nil), rows[i]...)
	}
	return out
}
