// Package walk estimates home probabilities by simulating random walks. It
// is the independent oracle the linear solvers are checked against.
package walk

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/homewalk/internal/town"
)

var (
	ErrStart    = errors.New("walk: start outside the path")
	ErrSize     = errors.New("walk: path needs at least 2 nodes")
	ErrMaxSteps = errors.New("walk: step limit reached")
	ErrTrials   = errors.New("walk: trials must be positive")
)

// ctxCheckEvery is how many trials run between context checks.
const ctxCheckEvery = 1024

// Walker draws walks from one random source. A Walker is not safe for
// concurrent use; Ensemble gives each goroutine its own.
type Walker struct {
	rng      *rand.Rand
	maxSteps int
}

type Option func(*Walker)

// WithMaxSteps caps the number of steps in a single walk. Zero means no cap.
func WithMaxSteps(n int) Option {
	return func(w *Walker) { w.maxSteps = n }
}

func New(src rand.Source, opts ...Option) *Walker {
	w := &Walker{rng: rand.New(src)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Outcome describes a finished walk on a town.
type Outcome struct {
	Home     bool
	Steps    int
	Distance int
}

// Walk runs one symmetric walk on the path 0..n-1 from start and reports
// whether it reached home (0) before the well (n-1).
func (w *Walker) Walk(n, start int) (bool, error) {
	if n < 2 {
		return false, ErrSize
	}
	if start < 0 || start >= n {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrStart, start, n)
	}
	pos := start
	for steps := 0; ; steps++ {
		switch {
		case pos == 0:
			return true, nil
		case pos >= n-1:
			return false, nil
		}
		if w.maxSteps > 0 && steps >= w.maxSteps {
			return false, ErrMaxSteps
		}
		if w.rng.Int63()&1 == 0 {
			pos++
		} else {
			pos--
		}
	}
}

// Simulate returns the fraction of trials walks from start that get home.
func (w *Walker) Simulate(ctx context.Context, n, start, trials int) (float64, error) {
	home, err := w.count(ctx, trials, func() (bool, error) { return w.Walk(n, start) })
	if err != nil {
		return 0, err
	}
	return float64(home) / float64(trials), nil
}

// WalkTown runs one walk on t from its start. Each step takes a uniformly
// chosen alley; a step toward a trashcan is taken with probability 1/2 and
// otherwise the walker stays where it is.
func (w *Walker) WalkTown(t *town.Town, adj [][]town.Edge) (Outcome, error) {
	var out Outcome
	pos := t.StartIndex()
	for {
		in := t.Intersections[pos]
		if in.Absorbing() {
			out.Home = in.Exit
			return out, nil
		}
		if w.maxSteps > 0 && out.Steps >= w.maxSteps {
			return out, ErrMaxSteps
		}
		out.Steps++
		e := adj[pos][w.rng.Intn(len(adj[pos]))]
		if t.Intersections[e.To].Trashcan && w.rng.Int63()&1 == 0 {
			continue
		}
		pos = e.To
		out.Distance += e.Length
	}
}

// SimulateTown returns the fraction of trials walks on t that reach an exit.
func (w *Walker) SimulateTown(ctx context.Context, t *town.Town, trials int) (float64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	adj := t.Adjacency()
	home, err := w.count(ctx, trials, func() (bool, error) {
		o, err := w.WalkTown(t, adj)
		return o.Home, err
	})
	if err != nil {
		return 0, err
	}
	return float64(home) / float64(trials), nil
}

func (w *Walker) count(ctx context.Context, trials int, trial func() (bool, error)) (int, error) {
	if trials <= 0 {
		return 0, ErrTrials
	}
	home := 0
	for i := 0; i < trials; i++ {
		if i%ctxCheckEvery == 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}
		}
		ok, err := trial()
		if err != nil {
			return 0, err
		}
		if ok {
			home++
		}
	}
	return home, nil
}

// HomeProbability is the closed form for the default path: a walk from k on
// 0..n-1 gets home with probability 1 - k/(n-1).
func HomeProbability(n, k int) float64 {
	return 1 - float64(k)/float64(n-1)
}
