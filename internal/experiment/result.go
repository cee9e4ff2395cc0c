package experiment

import (
	"encoding/json"
	"math"
	"time"
)

// Result is one method on one storage form. A failed solve keeps its
// error text and leaves Value NaN. X is not serialised.
type Result struct {
	Method    string
	Storage   string
	Value     float64
	Elapsed   time.Duration
	Sweeps    int
	Converged bool
	Residual  float64
	Metrics   map[string]float64
	Error     string
	X         []float64
}

func (r Result) Failed() bool { return r.Error != "" }

type resultJSON struct {
	Method    string             `json:"method"`
	Storage   string             `json:"storage"`
	Value     *float64           `json:"value"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Sweeps    int                `json:"sweeps,omitempty"`
	Converged bool               `json:"converged"`
	Residual  *float64           `json:"residual"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// MarshalJSON writes NaN and infinite values as null.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Method:    r.Method,
		Storage:   r.Storage,
		Value:     finite(r.Value),
		Elapsed:   r.Elapsed,
		Sweeps:    r.Sweeps,
		Converged: r.Converged,
		Residual:  finite(r.Residual),
		Metrics:   finiteValues(r.Metrics),
		Error:     r.Error,
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var j resultJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*r = Result{
		Method:    j.Method,
		Storage:   j.Storage,
		Value:     orNaN(j.Value),
		Elapsed:   j.Elapsed,
		Sweeps:    j.Sweeps,
		Converged: j.Converged,
		Residual:  orNaN(j.Residual),
		Metrics:   j.Metrics,
		Error:     j.Error,
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// finiteValues drops NaN and infinite entries. It returns nil for an empty result.
func finiteValues(m map[string]float64) map[string]float64 {
	var out map[string]float64
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if out == nil {
			out = make(map[string]float64, len(m))
		}
		out[k] = v
	}
	return out
}
