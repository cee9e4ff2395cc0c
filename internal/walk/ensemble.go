package walk

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/san-kum/homewalk/internal/town"
)

// Estimate is a Monte Carlo probability with its standard error.
type Estimate struct {
	P      float64
	Home   int
	Trials int
	StdErr float64
}

func newEstimate(home, trials int) Estimate {
	p := float64(home) / float64(trials)
	return Estimate{
		P:      p,
		Home:   home,
		Trials: trials,
		StdErr: math.Sqrt(p * (1 - p) / float64(trials)),
	}
}

// Ensemble splits trials across Workers goroutines. Worker i draws from
// its own source seeded Seed+i, so results depend only on Seed, Workers and
// the trial count. A zero Workers uses GOMAXPROCS, and the estimate is then
// only reproducible on machines with the same value.
type Ensemble struct {
	Workers  int
	Seed     int64
	MaxSteps int
}

func (e Ensemble) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Path estimates the home probability from start on the default path.
func (e Ensemble) Path(ctx context.Context, n, start, trials int) (Estimate, error) {
	return e.run(ctx, trials, func(w *Walker) (bool, error) { return w.Walk(n, start) })
}

// Town estimates the probability of reaching an exit from t's start.
func (e Ensemble) Town(ctx context.Context, t *town.Town, trials int) (Estimate, error) {
	if err := t.Validate(); err != nil {
		return Estimate{}, err
	}
	adj := t.Adjacency()
	return e.run(ctx, trials, func(w *Walker) (bool, error) {
		o, err := w.WalkTown(t, adj)
		return o.Home, err
	})
}

func (e Ensemble) run(ctx context.Context, trials int, trial func(*Walker) (bool, error)) (Estimate, error) {
	if trials <= 0 {
		return Estimate{}, ErrTrials
	}
	n := min(e.workers(), trials)
	homes := make([]int, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		share := trials / n
		if i < trials%n {
			share++
		}
		wg.Add(1)
		go func(idx, share int) {
			defer wg.Done()

			w := New(rand.NewSource(e.Seed+int64(idx)), WithMaxSteps(e.MaxSteps))
			homes[idx], errs[idx] = w.count(ctx, share, func() (bool, error) { return trial(w) })
		}(i, share)
	}

	wg.Wait()

	home := 0
	for i, err := range errs {
		if err != nil {
			return Estimate{}, err
		}
		home += homes[i]
	}
	return newEstimate(home, trials), nil
}
