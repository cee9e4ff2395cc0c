package experiment

import (
	"fmt"
	"slices"

	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/metrics"
)

// Solution is what a registered method returns. Sweeps is zero for direct
// methods, which always report Converged.
type Solution struct {
	X         []float64
	Sweeps    int
	Converged bool
}

// Solver solves a·x = b. Relaxation methods start from the zero vector
// and honour s; direct methods ignore it.
type Solver func(a linalg.Matrix, b []float64, s linalg.Settings) (Solution, error)

type Registry struct {
	storages map[string]linalg.Kind
	methods  map[string]Solver
	order    []string
}

func NewRegistry() *Registry {
	r := &Registry{
		storages: make(map[string]linalg.Kind),
		methods:  make(map[string]Solver),
	}

	r.storages[linalg.KindDense.String()] = linalg.KindDense
	r.storages[linalg.KindSparse.String()] = linalg.KindSparse

	r.RegisterMethod(linalg.Jacobi.String(), relaxer(linalg.Jacobi))
	r.RegisterMethod(linalg.GaussSeidel.String(), relaxer(linalg.GaussSeidel))
	r.RegisterMethod("gauss", direct(linalg.Matrix.Gaussian))
	r.RegisterMethod("gauss-pp", direct(linalg.Matrix.GaussianPartialPivot))

	return r
}

// RegisterMethod adds or replaces a method. New names list after existing ones.
func (r *Registry) RegisterMethod(name string, s Solver) {
	if _, ok := r.methods[name]; !ok {
		r.order = append(r.order, name)
	}
	r.methods[name] = s
}

func (r *Registry) GetMethod(name string) (Solver, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn, nil
}

func (r *Registry) GetStorage(name string) (linalg.Kind, error) {
	k, ok := r.storages[name]
	if !ok {
		return 0, fmt.Errorf("unknown storage: %s", name)
	}
	return k, nil
}

// ListMethods returns method names in registration order.
func (r *Registry) ListMethods() []string {
	return slices.Clone(r.order)
}

func (r *Registry) ListStorages() []string {
	names := make([]string, 0, len(r.storages))
	for name := range r.storages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultMetrics are attached to every relaxation run.
func (r *Registry) DefaultMetrics(a linalg.Matrix, b []float64) metrics.Set {
	return metrics.Set{
		metrics.NewSweeps(),
		metrics.NewContraction(16),
		metrics.NewResidual(a, b, 64),
	}
}

func relaxer(m linalg.Method) Solver {
	return func(a linalg.Matrix, b []float64, s linalg.Settings) (Solution, error) {
		rep, err := linalg.Relax(a, m, b, make([]float64, len(b)), s)
		if err != nil {
			return Solution{}, err
		}
		return Solution{X: rep.X, Sweeps: rep.Iterations, Converged: rep.Converged}, nil
	}
}

func direct(solve func(linalg.Matrix, []float64) ([]float64, error)) Solver {
	return func(a linalg.Matrix, b []float64, _ linalg.Settings) (Solution, error) {
		x, err := solve(a, b)
		if err != nil {
			return Solution{}, err
		}
		return Solution{X: x, Converged: true}, nil
	}
}
