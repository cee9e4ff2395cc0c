package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/homewalk/internal/linalg"
)

const namespace = "homewalk"

// Collector records solver and Monte Carlo runs as Prometheus series.
type Collector struct {
	solveSeconds *prometheus.HistogramVec
	sweeps       *prometheus.CounterVec
	failures     *prometheus.CounterVec
	trials       prometheus.Counter
	mcError      prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		solveSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_seconds",
			Help:      "Wall time of one solve.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"method", "storage"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relaxation_sweeps_total",
			Help:      "Relaxation sweeps performed.",
		}, []string{"method", "storage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solve_failures_total",
			Help:      "Solves that returned an error.",
		}, []string{"method", "storage", "reason"}),
		trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monte_carlo_trials_total",
			Help:      "Random walks simulated.",
		}),
		mcError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monte_carlo_abs_error",
			Help:      "Last |exact - estimate| seen by verify.",
		}),
	}
	for _, col := range []prometheus.Collector{c.solveSeconds, c.sweeps, c.failures, c.trials, c.mcError} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveSolve records one solve. sweeps is zero for direct methods.
func (c *Collector) ObserveSolve(method, storage string, elapsed time.Duration, sweeps int, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.failures.WithLabelValues(method, storage, Reason(err)).Inc()
		return
	}
	c.solveSeconds.WithLabelValues(method, storage).Observe(elapsed.Seconds())
	if sweeps > 0 {
		c.sweeps.WithLabelValues(method, storage).Add(float64(sweeps))
	}
}

func (c *Collector) ObserveTrials(n int, absErr float64) {
	if c == nil {
		return
	}
	c.trials.Add(float64(n))
	c.mcError.Set(absErr)
}

// Reason maps a solver error to a short label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, linalg.ErrZeroPivot):
		return "zero_pivot"
	case errors.Is(err, linalg.ErrUnsolvable):
		return "unsolvable"
	case errors.Is(err, linalg.ErrSize):
		return "size"
	default:
		return "other"
	}
}
