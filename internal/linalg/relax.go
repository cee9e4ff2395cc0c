package linalg

import (
	"fmt"
	"math"
)

// Method selects a stationary relaxation scheme.
type Method int

const (
	// Jacobi updates every component from the previous full iterate.
	Jacobi Method = iota
	// GaussSeidel reuses components already updated in the current sweep.
	GaussSeidel
)

func (m Method) String() string {
	switch m {
	case Jacobi:
		return "jacobi"
	case GaussSeidel:
		return "gauss-seidel"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Observer is notified after every relaxation sweep. x is reused by later
// sweeps and must be copied if retained.
type Observer interface {
	OnSweep(iter int, x []float64, delta float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(iter int, x []float64, delta float64)

func (f ObserverFunc) OnSweep(iter int, x []float64, delta float64) { f(iter, x, delta) }

// Settings bound a relaxation run. MaxIter is a hard cap on sweeps.
type Settings struct {
	Eps      float64
	MaxIter  int
	Observer Observer
}

// Report is the outcome of a relaxation run. X is the best available
// iterate whether or not it converged.
type Report struct {
	X          []float64
	Iterations int
	Converged  bool
	Delta      float64
}

// Relax runs Jacobi or Gauss-Seidel sweeps on m from x0.
//
// After each sweep the max-abs change between iterates is compared to
// s.Eps; the first iterate below it is returned with Converged set. When
// s.MaxIter sweeps pass without that, the last iterate is returned and
// Converged is false. Non-convergence is never an error: the only errors
// are shape mismatches (ErrSize).
func Relax(m Matrix, method Method, b, x0 []float64, s Settings) (Report, error) {
	op := opJacobi
	if method == GaussSeidel {
		op = opGaussSeidel
	}
	g := m.asGrid()
	n, err := squareLen(g, b, x0)
	if err != nil {
		return Report{}, opErrorf(op, err)
	}

	x := cloneVec(x0)
	rep := Report{X: x, Delta: math.Inf(1)}
	next := make([]float64, n)
	for it := 1; it <= s.MaxIter; it++ {
		if method == GaussSeidel {
			seidelSweep(g, b, x, next)
		} else {
			jacobiSweep(g, b, x, next)
		}
		delta := MaxAbsDiff(next, x)
		x, next = next, x

		rep.X, rep.Iterations, rep.Delta = x, it, delta
		if s.Observer != nil {
			s.Observer.OnSweep(it, x, delta)
		}
		if delta < s.Eps {
			rep.Converged = true
			break
		}
	}
	return rep, nil
}

func relaxX(m Matrix, method Method, b, x0 []float64, eps float64, maxIter int) ([]float64, error) {
	rep, err := Relax(m, method, b, x0, Settings{Eps: eps, MaxIter: maxIter})
	if err != nil {
		return nil, err
	}
	return rep.X, nil
}

func jacobiSweep(g grid, b, old, out []float64) {
	for i := range out {
		s := b[i]
		g.scanRow(i, 0, func(j int, v float64) {
			if j != i {
				s -= v * old[j]
			}
		})
		out[i] = s / g.get(i, i)
	}
}

func seidelSweep(g grid, b, old, out []float64) {
	for i := range out {
		s := b[i]
		g.scanRow(i, 0, func(j int, v float64) {
			switch {
			case j < i:
				s -= v * out[j]
			case j > i:
				s -= v * old[j]
			}
		})
		out[i] = s / g.get(i, i)
	}
}
