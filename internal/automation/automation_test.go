package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/homewalk/internal/experiment"
	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/logging"
)

const scenarioYAML = `
name: smoke
description: compare, verify and a generated town
steps:
  - kind: compare
    size: 6
    trials: 500
  - kind: verify
    sizes: [5, 9]
    trials: 500
  - kind: bench
    sizes: [5, 10]
    methods: [gauss, gauss-pp]
  - kind: town
    intersections: 8
    alleys: 12
    trials: 200
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func base() experiment.Params {
	return experiment.Params{Size: 10, Start: 5, Eps: 1e-10, MaxIter: 100000, Workers: 2, Seed: 1}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 4 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}

	runner := experiment.NewRunner(experiment.NewRegistry())
	results, err := RunScenario(context.Background(), sc, runner, base(), logging.NewTestLogger())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 step results, got %d", len(results))
	}

	cmp := results[0].Comparison
	if cmp == nil || cmp.Size != 6 || cmp.Start != 3 {
		t.Fatalf("expected compare on n=6 start=3, got %+v", cmp)
	}
	if len(results[0].Results) != len(cmp.Results) {
		t.Error("expected compare results to be exposed")
	}
	if len(results[1].Verify) != 2 {
		t.Errorf("expected 2 verify rows, got %d", len(results[1].Verify))
	}
	if len(results[2].Timing) != 2 || len(results[2].Timing[0].Millis) != 2 {
		t.Errorf("expected 2x2 timings, got %+v", results[2].Timing)
	}
	if results[3].Comparison == nil || results[3].Comparison.Size != 8 {
		t.Errorf("expected town comparison on 8 intersections, got %+v", results[3].Comparison)
	}
}

func TestLoadScenarioRejectsBadSteps(t *testing.T) {
	cases := map[string]string{
		"unknown kind": "steps:\n  - kind: solve\n",
		"verify sizes": "steps:\n  - kind: verify\n",
		"bench sizes":  "steps:\n  - kind: bench\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadScenario(writeScenario(t, body)); !errors.Is(err, ErrStep) {
				t.Errorf("expected ErrStep, got %v", err)
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ToleranceSweep{
		Method:  linalg.GaussSeidel,
		Storage: linalg.KindSparse,
		Size:    10,
		Start:   5,
		EpsMin:  1e-10,
		EpsMax:  1e-2,
		Steps:   5,
		MaxIter: 100000,
	}
	results, err := RunSweep(context.Background(), sweep, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Eps >= results[i-1].Eps {
			t.Errorf("expected decreasing eps, got %v then %v", results[i-1].Eps, results[i].Eps)
		}
		if results[i].Sweeps < results[i-1].Sweeps {
			t.Errorf("expected tighter eps to need at least as many sweeps: %d then %d",
				results[i-1].Sweeps, results[i].Sweeps)
		}
	}
	last := results[len(results)-1]
	if !last.Converged || last.AbsErr > 1e-8 {
		t.Errorf("expected converged result within 1e-8, got %+v", last)
	}
}

func TestRunSweepValidates(t *testing.T) {
	bad := &ToleranceSweep{Method: linalg.Jacobi, Size: 10, EpsMin: 0, EpsMax: 1, Steps: 3}
	if _, err := RunSweep(context.Background(), bad, logging.NewTestLogger()); !errors.Is(err, ErrStep) {
		t.Errorf("expected ErrStep, got %v", err)
	}
}
