package linalg_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/homewalk/internal/linalg"
)

type system struct {
	rows [][]float64
	b    []float64
}

// Table entries are built before the fail handler is registered, so the
// fixtures panic instead of asserting.
func pathSystem(n int) system {
	m, err := linalg.DensePath(n)
	if err != nil {
		panic(err)
	}
	return system{rows: linalg.ToRows(m), b: linalg.PathRHS(n)}
}

func randomSystem(seed int64, n int) system {
	rng := rand.New(rand.NewSource(seed))
	return system{rows: dominantRows(rng, n), b: randomVec(rng, n)}
}

// solveBoth runs one solver against the dense and sparse form of the same
// system and returns both results.
func solveBoth(sys system, solve func(linalg.Matrix, []float64) ([]float64, error)) ([]float64, []float64) {
	d, err := linalg.DenseFromRows(sys.rows)
	Expect(err).NotTo(HaveOccurred())
	s, err := linalg.SparseFromRows(sys.rows)
	Expect(err).NotTo(HaveOccurred())

	xd, errD := solve(d, sys.b)
	xs, errS := solve(s, sys.b)
	Expect(errD).NotTo(HaveOccurred())
	Expect(errS).NotTo(HaveOccurred())
	return xd, xs
}

var solvers = map[string]func(linalg.Matrix, []float64) ([]float64, error){
	"jacobi": func(m linalg.Matrix, b []float64) ([]float64, error) {
		return m.Jacobi(b, make([]float64, len(b)), 1e-12, 5000)
	},
	"gauss-seidel": func(m linalg.Matrix, b []float64) ([]float64, error) {
		return m.GaussSeidel(b, make([]float64, len(b)), 1e-12, 5000)
	},
	"gauss": func(m linalg.Matrix, b []float64) ([]float64, error) {
		return m.Gaussian(b)
	},
	"gauss-pp": func(m linalg.Matrix, b []float64) ([]float64, error) {
		return m.GaussianPartialPivot(b)
	},
}

var _ = Describe("Dense and sparse parity", func() {
	DescribeTable("every solver returns identical vectors for both forms",
		func(sys system) {
			for name, solve := range solvers {
				By(name)
				xd, xs := solveBoth(sys, solve)
				Expect(xs).To(Equal(xd), "solver %s", name)
			}
		},
		Entry("two-node path", pathSystem(2)),
		Entry("six-node path", pathSystem(6)),
		Entry("long path", pathSystem(60)),
		Entry("small random dominant", randomSystem(1, 4)),
		Entry("medium random dominant", randomSystem(2, 25)),
		Entry("fill-in", system{rows: [][]float64{{4, 1, 1}, {1, 3, 0}, {1, 0, 2}}, b: []float64{6, 4, 3}}),
	)

	DescribeTable("every solver agrees with partial pivoting",
		func(sys system) {
			d, err := linalg.DenseFromRows(sys.rows)
			Expect(err).NotTo(HaveOccurred())
			want, err := d.GaussianPartialPivot(sys.b)
			Expect(err).NotTo(HaveOccurred())

			for name, solve := range solvers {
				got, err := solve(d, sys.b)
				Expect(err).NotTo(HaveOccurred())
				for i := range want {
					Expect(got[i]).To(BeNumerically("~", want[i], 1e-9), "solver %s component %d", name, i)
				}
			}
		},
		Entry("path", pathSystem(12)),
		Entry("random dominant", randomSystem(3, 15)),
	)

	It("pivots both forms to the same rows", func() {
		rows := [][]float64{{0, 2, 1}, {1, 1, 0}, {3, 0, 1}}
		b := []float64{3, 2, 4}
		d, err := linalg.DenseFromRows(rows)
		Expect(err).NotTo(HaveOccurred())
		s, err := linalg.SparseFromRows(rows)
		Expect(err).NotTo(HaveOccurred())

		pd, bd, err := d.PartialPivot(b)
		Expect(err).NotTo(HaveOccurred())
		ps, bs, err := s.PartialPivot(b)
		Expect(err).NotTo(HaveOccurred())

		Expect(linalg.ToRows(ps)).To(Equal(linalg.ToRows(pd)))
		Expect(bs).To(Equal(bd))
		Expect(bd).To(Equal([]float64{4, 3, 2}))
		Expect(ps).To(BeAssignableToTypeOf(&linalg.Sparse{}))
	})

	It("reports the same failure row for both forms", func() {
		rows := [][]float64{{1, 1, 1}, {1, 1, 2}, {1, 2, 3}}
		for _, kind := range kinds {
			m, err := linalg.FromRows(kind, rows)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Gaussian([]float64{3, 4, 6})
			var pe *linalg.PivotError
			Expect(err).To(BeAssignableToTypeOf(pe))
			Expect(err).To(MatchError(linalg.ErrZeroPivot))
			Expect(err.(*linalg.PivotError).Row).To(Equal(1))
		}
	})

	It("stores a negative zero diagonal the same way in both forms", func() {
		negZero := math.Copysign(0, -1)
		rows := [][]float64{{negZero, 1}, {1, 0}}
		b := []float64{1, 1}
		d, err := linalg.DenseFromRows(rows)
		Expect(err).NotTo(HaveOccurred())
		s, err := linalg.SparseFromRows(rows)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.Signbit(d.At(0, 0))).To(BeFalse())

		set, err := linalg.NewDense(2, 2)
		Expect(err).NotTo(HaveOccurred())
		set.Set(1, 1, negZero)
		Expect(math.Signbit(set.At(1, 1))).To(BeFalse())

		for _, name := range []string{"jacobi", "gauss-seidel"} {
			By(name)
			relax := func(m linalg.Matrix) ([]float64, error) {
				if name == "jacobi" {
					return m.Jacobi(b, make([]float64, 2), 1e-9, 3)
				}
				return m.GaussSeidel(b, make([]float64, 2), 1e-9, 3)
			}
			xd, errD := relax(d)
			xs, errS := relax(s)
			Expect(errS == nil).To(Equal(errD == nil))
			Expect(xs).To(Equal(xd))
		}
	})

	It("round-trips between forms", func() {
		sys := randomSystem(9, 10)
		d, err := linalg.DenseFromRows(sys.rows)
		Expect(err).NotTo(HaveOccurred())
		s, err := linalg.SparseFromRows(linalg.ToRows(d))
		Expect(err).NotTo(HaveOccurred())
		back, err := linalg.DenseFromRows(linalg.ToRows(s))
		Expect(err).NotTo(HaveOccurred())
		Expect(linalg.ToRows(back)).To(Equal(sys.rows))
	})
})
