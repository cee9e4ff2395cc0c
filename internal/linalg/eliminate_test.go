package linalg_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/homewalk/internal/linalg"
)

func TestGaussianTwoByTwo(t *testing.T) {
	want := []float64{64.0 / 9, -29.0 / 9}
	for _, kind := range kinds {
		a := mustRows(t, kind, [][]float64{{2, 1}, {5, 7}})
		b := []float64{11, 13}

		x, err := a.Gaussian(b)
		require.NoError(t, err)
		require.InDeltaSlice(t, want, x, tol)

		x, err = a.GaussianPartialPivot(b)
		require.NoError(t, err)
		require.InDeltaSlice(t, want, x, tol)
	}
}

func TestGaussianZeroPivot(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			a := mustRows(t, kind, [][]float64{{0, 1}, {1, 0}})
			b := []float64{1, 2}

			x, err := a.Gaussian(b)
			require.Nil(t, x)
			require.ErrorIs(t, err, linalg.ErrZeroPivot)
			require.False(t, errors.Is(err, linalg.ErrUnsolvable))

			var pe *linalg.PivotError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, 0, pe.Row)

			x, err = a.GaussianPartialPivot(b)
			require.NoError(t, err)
			require.InDeltaSlice(t, []float64{2, 1}, x, tol)
		})
	}
}

func TestGaussianZeroPivotDuringElimination(t *testing.T) {
	rows := [][]float64{
		{1, 1, 1},
		{1, 1, 2},
		{1, 2, 3},
	}
	b := []float64{3, 4, 6}
	for _, kind := range kinds {
		a := mustRows(t, kind, rows)

		_, err := a.Gaussian(b)
		var pe *linalg.PivotError
		require.ErrorAs(t, err, &pe)
		require.ErrorIs(t, err, linalg.ErrZeroPivot)
		require.Equal(t, 1, pe.Row)

		x, err := a.GaussianPartialPivot(b)
		require.NoError(t, err)
		require.InDeltaSlice(t, []float64{1, 1, 1}, x, tol)
	}
}

func TestGaussianPartialPivotStructuralZeroColumn(t *testing.T) {
	for _, kind := range kinds {
		a := mustRows(t, kind, [][]float64{{0, 1}, {0, 2}})
		_, err := a.GaussianPartialPivot([]float64{1, 2})
		require.ErrorIs(t, err, linalg.ErrZeroPivot)
	}
}

func TestGaussianUnsolvableOnNaN(t *testing.T) {
	// x1 = Inf, then x0 = Inf - Inf.
	for _, kind := range kinds {
		a := mustRows(t, kind, [][]float64{{1, 1}, {0, 1}})
		x, err := a.Gaussian([]float64{math.Inf(1), math.Inf(1)})
		require.Nil(t, x)
		require.ErrorIs(t, err, linalg.ErrUnsolvable)
		require.False(t, errors.Is(err, linalg.ErrZeroPivot))

		var pe *linalg.PivotError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, 0, pe.Row)
	}
}

func TestGaussianSizeErrors(t *testing.T) {
	for _, kind := range kinds {
		square := mustRows(t, kind, [][]float64{{1, 0}, {0, 1}})
		_, err := square.Gaussian([]float64{1})
		require.ErrorIs(t, err, linalg.ErrSize)

		_, _, err = square.PartialPivot([]float64{1, 2, 3})
		require.ErrorIs(t, err, linalg.ErrSize)

		wide := mustRows(t, kind, [][]float64{{1, 0, 0}, {0, 1, 0}})
		_, err = wide.GaussianPartialPivot([]float64{1, 2})
		require.ErrorIs(t, err, linalg.ErrSize)
	}
}

func TestEliminationLeavesInputsUntouched(t *testing.T) {
	rows := [][]float64{{0, 2, 1}, {1, 1, 0}, {3, 0, 1}}
	b := []float64{3, 2, 4}
	for _, kind := range kinds {
		a := mustRows(t, kind, rows)
		bCopy := append([]float64(nil), b...)

		_, err := a.GaussianPartialPivot(b)
		require.NoError(t, err)
		_, _ = a.Gaussian(b)
		_, _, err = a.PartialPivot(b)
		require.NoError(t, err)

		require.Equal(t, rows, linalg.ToRows(a))
		require.Equal(t, bCopy, b)
	}
}

func TestPartialPivotTiesKeepFirstRow(t *testing.T) {
	a := mustRows(t, linalg.KindDense, [][]float64{{1, 2}, {-1, 3}})
	p, b, err := a.PartialPivot([]float64{5, 6})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 2}, {-1, 3}}, linalg.ToRows(p))
	require.Equal(t, []float64{5, 6}, b)
}

func TestEliminationIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := dominantRows(rng, 12)
	b := randomVec(rng, 12)
	for _, kind := range kinds {
		a := mustRows(t, kind, rows)
		x1, err := a.GaussianPartialPivot(b)
		require.NoError(t, err)
		x2, err := a.GaussianPartialPivot(b)
		require.NoError(t, err)
		require.Equal(t, x1, x2)
	}
}

// TestGaussianMatchesGonum checks both elimination variants against an
// independent LU solve.
func TestGaussianMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 5, 17, 40} {
		rows := dominantRows(rng, n)
		b := randomVec(rng, n)

		flat := make([]float64, 0, n*n)
		for _, r := range rows {
			flat = append(flat, r...)
		}
		var ref mat.VecDense
		if err := ref.SolveVec(mat.NewDense(n, n, flat), mat.NewVecDense(n, b)); err != nil {
			t.Fatalf("gonum SolveVec(n=%d): %v", n, err)
		}
		want := ref.RawVector().Data

		for _, kind := range kinds {
			a := mustRows(t, kind, rows)
			for name, solve := range map[string]func([]float64) ([]float64, error){
				"gaussian":    a.Gaussian,
				"gaussian-pp": a.GaussianPartialPivot,
			} {
				x, err := solve(b)
				require.NoError(t, err, "%s/%s n=%d", kind, name, n)
				require.InDeltaSlice(t, want, x, 1e-8, "%s/%s n=%d", kind, name, n)

				res, err := linalg.Residual(a, x, b)
				require.NoError(t, err)
				require.Less(t, res, 1e-8)
			}
		}
	}
}
