// Package experiment runs the registered solvers side by side and checks
// them against the Monte Carlo oracle.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/logging"
	"github.com/san-kum/homewalk/internal/metrics"
	"github.com/san-kum/homewalk/internal/town"
	"github.com/san-kum/homewalk/internal/walk"
)

// Params drives one experiment. Empty Methods or Storages select every
// registered one.
type Params struct {
	Size     int
	Start    int
	Eps      float64
	MaxIter  int
	Trials   int
	Workers  int
	MaxSteps int
	Seed     int64
	Methods  []string
	Storages []string
}

func (p Params) settings() linalg.Settings {
	return linalg.Settings{Eps: p.Eps, MaxIter: p.MaxIter}
}

func (p Params) ensemble() walk.Ensemble {
	return walk.Ensemble{Workers: p.Workers, Seed: p.Seed, MaxSteps: p.MaxSteps}
}

// Comparison is the outcome of Compare or CompareTown. Exact is the closed
// form on the default path and the partial-pivoting solution on a town.
type Comparison struct {
	Size              int           `json:"size"`
	Start             int           `json:"start"`
	Exact             float64       `json:"exact"`
	MonteCarlo        walk.Estimate `json:"monte_carlo"`
	MonteCarloElapsed time.Duration `json:"monte_carlo_elapsed_ns"`
	Results           []Result      `json:"results"`
}

// VerifyRow compares the exact solution with the Monte Carlo estimate on
// one path size.
type VerifyRow struct {
	N          int     `json:"n"`
	Start      int     `json:"start"`
	Exact      float64 `json:"exact"`
	MonteCarlo float64 `json:"monte_carlo"`
	StdErr     float64 `json:"std_err"`
	AbsErr     float64 `json:"abs_err"`
}

// TimingRow holds per-method solve times in milliseconds for one size.
type TimingRow struct {
	N      int                `json:"n"`
	Millis map[string]float64 `json:"millis"`
}

// SystemFunc builds the system of size n in the given form.
type SystemFunc func(kind linalg.Kind, n int) (linalg.Matrix, []float64, error)

// PathSystem builds the default path.
func PathSystem(kind linalg.Kind, n int) (linalg.Matrix, []float64, error) {
	a, err := linalg.Path(kind, n)
	if err != nil {
		return nil, nil, err
	}
	return a, linalg.PathRHS(n), nil
}

// TownSystem builds a random town of n intersections and 3n/2 alleys per
// size. The same seed yields the same town for both forms.
func TownSystem(seed int64) SystemFunc {
	return func(kind linalg.Kind, n int) (linalg.Matrix, []float64, error) {
		t, err := town.Generate(rand.New(rand.NewSource(seed+int64(n))), n, n*3/2)
		if err != nil {
			return nil, nil, err
		}
		return t.System(kind)
	}
}

type Runner struct {
	reg       *Registry
	log       logr.Logger
	collector *metrics.Collector
}

type RunnerOption func(*Runner)

func WithLogger(l logr.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithCollector records every solve and Monte Carlo run.
func WithCollector(c *metrics.Collector) RunnerOption {
	return func(r *Runner) { r.collector = c }
}

func NewRunner(reg *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{reg: reg, log: logging.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Registry() *Registry { return r.reg }

// Compare runs every selected method and storage on the default path of
// p.Size and reads component p.Start, next to the Monte Carlo estimate and
// the closed form.
func (r *Runner) Compare(ctx context.Context, p Params) (*Comparison, error) {
	if p.Start < 0 || p.Start >= p.Size {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", walk.ErrStart, p.Start, p.Size)
	}
	results, err := r.solveAll(ctx, p, PathSystem)
	if err != nil {
		return nil, err
	}
	cmp := &Comparison{
		Size:    p.Size,
		Start:   p.Start,
		Exact:   walk.HomeProbability(p.Size, p.Start),
		Results: results,
	}
	if p.Trials > 0 {
		start := time.Now()
		est, err := p.ensemble().Path(ctx, p.Size, p.Start, p.Trials)
		if err != nil {
			return nil, fmt.Errorf("monte carlo: %w", err)
		}
		cmp.MonteCarlo, cmp.MonteCarloElapsed = est, time.Since(start)
		r.collector.ObserveTrials(est.Trials, math.Abs(est.P-cmp.Exact))
	}
	r.log.V(logging.DEBUG).Info("comparison finished", "size", p.Size, "start", p.Start,
		"exact", cmp.Exact, "monteCarlo", cmp.MonteCarlo.P)
	return cmp, nil
}

// CompareTown is Compare on t. p.Size and p.Start are taken from the town.
func (r *Runner) CompareTown(ctx context.Context, t *town.Town, p Params) (*Comparison, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	p.Size, p.Start = t.Size(), t.StartIndex()
	system := func(kind linalg.Kind, _ int) (linalg.Matrix, []float64, error) { return t.System(kind) }

	ref, b, err := t.Dense()
	if err != nil {
		return nil, err
	}
	exact, err := ref.GaussianPartialPivot(b)
	if err != nil {
		return nil, fmt.Errorf("reference solve: %w", err)
	}

	results, err := r.solveAll(ctx, p, system)
	if err != nil {
		return nil, err
	}
	cmp := &Comparison{
		Size:    p.Size,
		Start:   p.Start,
		Exact:   exact[p.Start],
		Results: results,
	}
	if p.Trials > 0 {
		start := time.Now()
		est, err := p.ensemble().Town(ctx, t, p.Trials)
		if err != nil {
			return nil, fmt.Errorf("monte carlo: %w", err)
		}
		cmp.MonteCarlo, cmp.MonteCarloElapsed = est, time.Since(start)
		r.collector.ObserveTrials(est.Trials, math.Abs(est.P-cmp.Exact))
	}
	return cmp, nil
}

// Dump solves the default path with every selected method and storage and
// returns the full solution vectors in Result.X.
func (r *Runner) Dump(ctx context.Context, p Params) ([]Result, error) {
	p.Start = 0
	return r.solveAll(ctx, p, PathSystem)
}

// Verify solves the default path of each size exactly and by Monte Carlo
// from its midpoint.
func (r *Runner) Verify(ctx context.Context, sizes []int, p Params) ([]VerifyRow, error) {
	if p.Trials <= 0 {
		return nil, walk.ErrTrials
	}
	rows := make([]VerifyRow, 0, len(sizes))
	for _, n := range sizes {
		a, b, err := PathSystem(linalg.KindSparse, n)
		if err != nil {
			return nil, fmt.Errorf("size %d: %w", n, err)
		}
		x, err := a.GaussianPartialPivot(b)
		if err != nil {
			return nil, fmt.Errorf("size %d: %w", n, err)
		}
		start := n / 2
		est, err := p.ensemble().Path(ctx, n, start, p.Trials)
		if err != nil {
			return nil, fmt.Errorf("size %d: monte carlo: %w", n, err)
		}
		row := VerifyRow{
			N:          n,
			Start:      start,
			Exact:      x[start],
			MonteCarlo: est.P,
			StdErr:     est.StdErr,
			AbsErr:     math.Abs(x[start] - est.P),
		}
		r.collector.ObserveTrials(est.Trials, row.AbsErr)
		r.log.V(logging.DEBUG).Info("verified", "n", n, "exact", row.Exact, "monteCarlo", row.MonteCarlo, "absErr", row.AbsErr)
		rows = append(rows, row)
	}
	return rows, nil
}

// Bench times every selected method on systems of each size in one
// storage form. Failed solves are recorded as NaN.
func (r *Runner) Bench(ctx context.Context, sizes []int, storage string, p Params, system SystemFunc) ([]TimingRow, error) {
	p.Storages = []string{storage}
	rows := make([]TimingRow, 0, len(sizes))
	for _, n := range sizes {
		p.Size, p.Start = n, 0
		results, err := r.solveAll(ctx, p, system)
		if err != nil {
			return nil, fmt.Errorf("size %d: %w", n, err)
		}
		row := TimingRow{N: n, Millis: make(map[string]float64, len(results))}
		for _, res := range results {
			ms := float64(res.Elapsed) / float64(time.Millisecond)
			if res.Failed() {
				ms = math.NaN()
			}
			row.Millis[res.Method] = ms
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Runner) selected(p Params) ([]string, []string) {
	methods, storages := p.Methods, p.Storages
	if len(methods) == 0 {
		methods = r.reg.ListMethods()
	}
	if len(storages) == 0 {
		storages = r.reg.ListStorages()
	}
	return methods, storages
}

// solveAll runs methods × storages. Solver failures become failed Results;
// only bad names, bad systems and cancellation abort the run.
func (r *Runner) solveAll(ctx context.Context, p Params, system SystemFunc) ([]Result, error) {
	methods, storages := r.selected(p)
	out := make([]Result, 0, len(methods)*len(storages))
	for _, method := range methods {
		solve, err := r.reg.GetMethod(method)
		if err != nil {
			return nil, err
		}
		for _, storage := range storages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			kind, err := r.reg.GetStorage(storage)
			if err != nil {
				return nil, err
			}
			a, b, err := system(kind, p.Size)
			if err != nil {
				return nil, err
			}
			out = append(out, r.solveOne(method, storage, solve, a, b, p))
		}
	}
	return out, nil
}

func (r *Runner) solveOne(method, storage string, solve Solver, a linalg.Matrix, b []float64, p Params) Result {
	res := Result{Method: method, Storage: storage, Value: math.NaN(), Residual: math.NaN()}
	obs := r.reg.DefaultMetrics(a, b)
	s := p.settings()
	s.Observer = obs

	start := time.Now()
	sol, err := solve(a, b, s)
	res.Elapsed = time.Since(start)
	r.collector.ObserveSolve(method, storage, res.Elapsed, sol.Sweeps, err)

	log := r.log.WithValues("method", method, "storage", storage)
	if err != nil {
		res.Error = err.Error()
		var pe *linalg.PivotError
		if errors.As(err, &pe) {
			log.Info("solve failed", "row", pe.Row, "reason", metrics.Reason(err))
		} else {
			log.Error(err, "solve failed")
		}
		return res
	}

	res.X, res.Sweeps, res.Converged = sol.X, sol.Sweeps, sol.Converged
	if p.Start >= 0 && p.Start < len(sol.X) {
		res.Value = sol.X[p.Start]
	}
	if rr, err := linalg.Residual(a, sol.X, b); err == nil {
		res.Residual = rr
	}
	if sol.Sweeps > 0 {
		res.Metrics = finiteValues(obs.Values())
	}
	log.V(logging.DEBUG).Info("solved", "elapsed", res.Elapsed, "sweeps", res.Sweeps,
		"converged", res.Converged, "residual", res.Residual)
	return res
}
