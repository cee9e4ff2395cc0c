// Package metrics observes relaxation sweeps and records solver runs.
package metrics

import (
	"math"

	"github.com/san-kum/homewalk/internal/linalg"
)

// Metric is a sweep observer that reduces a run to one number.
type Metric interface {
	linalg.Observer
	Name() string
	Value() float64
	Reset()
}

// Sweeps counts sweeps.
type Sweeps struct {
	n int
}

func NewSweeps() *Sweeps { return &Sweeps{} }

func (s *Sweeps) Name() string   { return "sweeps" }
func (s *Sweeps) Value() float64 { return float64(s.n) }
func (s *Sweeps) Reset()         { s.n = 0 }

func (s *Sweeps) OnSweep(iter int, x []float64, delta float64) { s.n++ }

// Contraction estimates the asymptotic convergence factor as the geometric
// mean of successive delta ratios over the last window sweeps.
type Contraction struct {
	window int
	prev   float64
	logs   []float64
}

func NewContraction(window int) *Contraction {
	if window < 1 {
		window = 1
	}
	return &Contraction{window: window}
}

func (c *Contraction) Name() string { return "contraction" }

func (c *Contraction) OnSweep(iter int, x []float64, delta float64) {
	if c.prev > 0 && delta > 0 {
		c.logs = append(c.logs, math.Log(delta/c.prev))
		if len(c.logs) > c.window {
			c.logs = c.logs[1:]
		}
	}
	c.prev = delta
}

func (c *Contraction) Value() float64 {
	if len(c.logs) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range c.logs {
		sum += l
	}
	return math.Exp(sum / float64(len(c.logs)))
}

func (c *Contraction) Reset() {
	c.prev = 0
	c.logs = c.logs[:0]
}

// Residual tracks max_i |(A·x)_i - b_i| every `every` sweeps.
type Residual struct {
	a     linalg.Matrix
	b     []float64
	every int
	last  float64
}

func NewResidual(a linalg.Matrix, b []float64, every int) *Residual {
	if every < 1 {
		every = 1
	}
	return &Residual{a: a, b: b, every: every, last: math.Inf(1)}
}

func (r *Residual) Name() string { return "residual" }

func (r *Residual) OnSweep(iter int, x []float64, delta float64) {
	if iter%r.every != 0 {
		return
	}
	if res, err := linalg.Residual(r.a, x, r.b); err == nil {
		r.last = res
	}
}

func (r *Residual) Value() float64 { return r.last }
func (r *Residual) Reset()         { r.last = math.Inf(1) }

// Trace keeps the delta of every sweep, plus a copy of the component at
// index watch when watch >= 0.
type Trace struct {
	watch  int
	deltas []float64
	values []float64
}

func NewTrace(watch int) *Trace { return &Trace{watch: watch} }

func (t *Trace) Name() string { return "trace" }

func (t *Trace) OnSweep(iter int, x []float64, delta float64) {
	t.deltas = append(t.deltas, delta)
	if t.watch >= 0 && t.watch < len(x) {
		t.values = append(t.values, x[t.watch])
	}
}

// Value returns the last delta, or +Inf before the first sweep.
func (t *Trace) Value() float64 {
	if len(t.deltas) == 0 {
		return math.Inf(1)
	}
	return t.deltas[len(t.deltas)-1]
}

func (t *Trace) Reset() {
	t.deltas = t.deltas[:0]
	t.values = t.values[:0]
}

func (t *Trace) Deltas() []float64 { return t.deltas }
func (t *Trace) Values() []float64 { return t.values }

// Set fans one sweep out to several metrics.
type Set []Metric

func (s Set) OnSweep(iter int, x []float64, delta float64) {
	for _, m := range s {
		m.OnSweep(iter, x, delta)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}
