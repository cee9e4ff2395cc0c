package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/homewalk/internal/experiment"
	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/logging"
	"github.com/san-kum/homewalk/internal/town"
	"github.com/san-kum/homewalk/internal/walk"
)

var ErrStep = errors.New("automation: invalid step")

// Scenario is a scripted sequence of experiments.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one experiment. Zero fields inherit from the base Params
// given to RunScenario.
type ScenarioStep struct {
	Kind     string   `yaml:"kind"` // compare, dump, verify, bench or town
	Size     int      `yaml:"size,omitempty"`
	Start    int      `yaml:"start,omitempty"`
	Sizes    []int    `yaml:"sizes,omitempty"`
	Methods  []string `yaml:"methods,omitempty"`
	Storages []string `yaml:"storages,omitempty"`
	Trials   int      `yaml:"trials,omitempty"`
	Seed     int64    `yaml:"seed,omitempty"`

	// Town is a YAML town file; without it a town step generates one.
	Town          string `yaml:"town,omitempty"`
	Intersections int    `yaml:"intersections,omitempty"`
	Alleys        int    `yaml:"alleys,omitempty"`
}

// StepResult holds whichever outputs the step kind produces.
type StepResult struct {
	Step       ScenarioStep
	Comparison *experiment.Comparison
	Results    []experiment.Result
	Verify     []experiment.VerifyRow
	Timing     []experiment.TimingRow
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &scenario, nil
}

func (s ScenarioStep) validate() error {
	switch s.Kind {
	case "compare", "dump", "town":
	case "verify", "bench":
		if len(s.Sizes) == 0 {
			return fmt.Errorf("%w: %s needs sizes", ErrStep, s.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrStep, s.Kind)
	}
	return nil
}

func (s ScenarioStep) params(base experiment.Params) experiment.Params {
	p := base
	if s.Size > 0 {
		p.Size = s.Size
		p.Start = s.Size / 2
	}
	if s.Start > 0 {
		p.Start = s.Start
	}
	if s.Trials > 0 {
		p.Trials = s.Trials
	}
	if s.Seed != 0 {
		p.Seed = s.Seed
	}
	if len(s.Methods) > 0 {
		p.Methods = s.Methods
	}
	if len(s.Storages) > 0 {
		p.Storages = s.Storages
	}
	return p
}

// RunScenario executes every step in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, r *experiment.Runner, base experiment.Params, log logr.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "kind", step.Kind)
		if err := step.validate(); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		res, err := runStep(ctx, step, r, step.params(base))
		if err != nil {
			return results, fmt.Errorf("step %d %s: %w", i+1, step.Kind, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func runStep(ctx context.Context, step ScenarioStep, r *experiment.Runner, p experiment.Params) (StepResult, error) {
	res := StepResult{Step: step}
	var err error
	switch step.Kind {
	case "compare":
		res.Comparison, err = r.Compare(ctx, p)
	case "dump":
		res.Results, err = r.Dump(ctx, p)
	case "verify":
		res.Verify, err = r.Verify(ctx, step.Sizes, p)
	case "bench":
		storage := linalg.KindSparse.String()
		if len(p.Storages) > 0 {
			storage = p.Storages[0]
		}
		res.Timing, err = r.Bench(ctx, step.Sizes, storage, p, experiment.PathSystem)
	case "town":
		var t *town.Town
		if t, err = stepTown(step, p.Seed); err == nil {
			res.Comparison, err = r.CompareTown(ctx, t, p)
		}
	}
	if res.Comparison != nil {
		res.Results = res.Comparison.Results
	}
	return res, err
}

func stepTown(step ScenarioStep, seed int64) (*town.Town, error) {
	if step.Town != "" {
		return town.Load(step.Town)
	}
	n, m := step.Intersections, step.Alleys
	if n == 0 {
		n = 20
	}
	if m == 0 {
		m = n * 3 / 2
	}
	return town.Generate(rand.New(rand.NewSource(seed)), n, m)
}

// ToleranceSweep relaxes the default path for each tolerance and records
// the cost and accuracy reached.
type ToleranceSweep struct {
	Method  linalg.Method
	Storage linalg.Kind
	Size    int
	Start   int
	EpsMin  float64
	EpsMax  float64
	Steps   int
	MaxIter int
}

type SweepResult struct {
	Eps       float64
	Sweeps    int
	Converged bool
	AbsErr    float64
}

// RunSweep steps eps geometrically from EpsMax down to EpsMin. AbsErr is
// measured at Start against the closed form.
func RunSweep(ctx context.Context, sweep *ToleranceSweep, log logr.Logger) ([]SweepResult, error) {
	if sweep.Steps < 2 || sweep.EpsMin <= 0 || sweep.EpsMax < sweep.EpsMin {
		return nil, fmt.Errorf("%w: sweep needs 0 < eps_min <= eps_max and at least 2 steps", ErrStep)
	}
	a, b, err := experiment.PathSystem(sweep.Storage, sweep.Size)
	if err != nil {
		return nil, err
	}
	if sweep.Start < 0 || sweep.Start >= sweep.Size {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", walk.ErrStart, sweep.Start, sweep.Size)
	}
	exact := walk.HomeProbability(sweep.Size, sweep.Start)

	ratio := math.Pow(sweep.EpsMin/sweep.EpsMax, 1/float64(sweep.Steps-1))
	results := make([]SweepResult, 0, sweep.Steps)
	eps := sweep.EpsMax
	for i := 0; i < sweep.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		rep, err := linalg.Relax(a, sweep.Method, b, make([]float64, len(b)), linalg.Settings{Eps: eps, MaxIter: sweep.MaxIter})
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{
			Eps:       eps,
			Sweeps:    rep.Iterations,
			Converged: rep.Converged,
			AbsErr:    math.Abs(rep.X[sweep.Start] - exact),
		})
		log.V(logging.DEBUG).Info("sweep", "step", i+1, "eps", eps, "sweeps", rep.Iterations)
		eps *= ratio
	}

	return results, nil
}
