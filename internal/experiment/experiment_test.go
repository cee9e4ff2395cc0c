package experiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/logging"
	"github.com/san-kum/homewalk/internal/metrics"
	"github.com/san-kum/homewalk/internal/town"
	"github.com/san-kum/homewalk/internal/walk"
)

func testParams() Params {
	return Params{
		Size:    6,
		Start:   3,
		Eps:     1e-12,
		MaxIter: 100000,
		Trials:  20000,
		Workers: 2,
		Seed:    1,
	}
}

func withinSE(t *testing.T, est walk.Estimate, want float64) {
	t.Helper()
	se := math.Sqrt(want * (1 - want) / float64(est.Trials))
	if math.Abs(est.P-want) > 4*se+1e-12 {
		t.Errorf("monte carlo %f outside %f ± %f", est.P, want, 4*se)
	}
}

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	if diff := cmp.Diff([]string{"jacobi", "gauss-seidel", "gauss", "gauss-pp"}, r.ListMethods()); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dense", "sparse"}, r.ListStorages()); diff != "" {
		t.Errorf("storages mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.GetMethod("lu"); err == nil {
		t.Error("expected error for unknown method")
	}
	if _, err := r.GetStorage("csr"); err == nil {
		t.Error("expected error for unknown storage")
	}
	if k, err := r.GetStorage("sparse"); err != nil || k != linalg.KindSparse {
		t.Errorf("GetStorage(sparse) = %v, %v", k, err)
	}
}

func TestRegistryReplaceKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.RegisterMethod("gauss", direct(linalg.Matrix.GaussianPartialPivot))
	r.RegisterMethod("extra", direct(linalg.Matrix.Gaussian))
	want := []string{"jacobi", "gauss-seidel", "gauss", "gauss-pp", "extra"}
	if diff := cmp.Diff(want, r.ListMethods()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare(t *testing.T) {
	run := NewRunner(NewRegistry())
	cmpRes, err := run.Compare(context.Background(), testParams())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmpRes.Results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(cmpRes.Results))
	}
	if math.Abs(cmpRes.Exact-0.4) > 1e-12 {
		t.Errorf("expected exact 0.4, got %f", cmpRes.Exact)
	}
	byKey := map[string]float64{}
	for _, res := range cmpRes.Results {
		if res.Failed() {
			t.Fatalf("%s/%s failed: %s", res.Method, res.Storage, res.Error)
		}
		if math.Abs(res.Value-0.4) > 1e-9 {
			t.Errorf("%s/%s: expected 0.4, got %f", res.Method, res.Storage, res.Value)
		}
		if res.Residual > 1e-9 {
			t.Errorf("%s/%s: residual %g", res.Method, res.Storage, res.Residual)
		}
		isRelax := res.Method == "jacobi" || res.Method == "gauss-seidel"
		if isRelax != (res.Sweeps > 0) {
			t.Errorf("%s: unexpected sweeps %d", res.Method, res.Sweeps)
		}
		if isRelax && res.Metrics["sweeps"] != float64(res.Sweeps) {
			t.Errorf("%s: sweeps metric %v, want %d", res.Method, res.Metrics["sweeps"], res.Sweeps)
		}
		byKey[res.Method+"/"+res.Storage] = res.Value
	}
	for _, m := range []string{"jacobi", "gauss-seidel", "gauss", "gauss-pp"} {
		if byKey[m+"/dense"] != byKey[m+"/sparse"] {
			t.Errorf("%s: dense %v != sparse %v", m, byKey[m+"/dense"], byKey[m+"/sparse"])
		}
	}
	withinSE(t, cmpRes.MonteCarlo, cmpRes.Exact)
}

func TestCompareSelection(t *testing.T) {
	p := testParams()
	p.Trials = 0
	p.Methods = []string{"gauss-pp"}
	p.Storages = []string{"sparse"}
	res, err := NewRunner(NewRegistry()).Compare(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || res.MonteCarlo.Trials != 0 {
		t.Errorf("unexpected comparison %+v", res)
	}

	p.Methods = []string{"cholesky"}
	if _, err := NewRunner(NewRegistry()).Compare(context.Background(), p); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestCompareBadStart(t *testing.T) {
	p := testParams()
	p.Start = 6
	if _, err := NewRunner(NewRegistry()).Compare(context.Background(), p); !errors.Is(err, walk.ErrStart) {
		t.Errorf("expected ErrStart, got %v", err)
	}
}

func TestCompareRecordsFailures(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterMethod("broken", func(linalg.Matrix, []float64, linalg.Settings) (Solution, error) {
		return Solution{}, &linalg.PivotError{Op: "Gaussian", Row: 2, Err: linalg.ErrZeroPivot}
	})
	p := testParams()
	p.Trials = 0
	p.Methods = []string{"broken", "gauss"}

	res, err := NewRunner(reg).Compare(context.Background(), p)
	if err != nil {
		t.Fatalf("failures must not abort: %v", err)
	}
	for _, r := range res.Results {
		if r.Method == "broken" {
			if !r.Failed() || !math.IsNaN(r.Value) || !strings.Contains(r.Error, "zero pivot") {
				t.Errorf("unexpected failed result %+v", r)
			}
		} else if r.Failed() {
			t.Errorf("gauss should succeed: %s", r.Error)
		}
	}
}

func TestCompareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(NewRegistry()).Compare(ctx, testParams()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCompareTown(t *testing.T) {
	tw := &town.Town{
		Intersections: []town.Intersection{{ID: 1, Exit: true}, {ID: 2}, {ID: 3, Well: true, Trashcan: true}},
		Alleys:        []town.Alley{{A: 1, B: 2, Length: 1}, {A: 2, B: 3, Length: 1}},
		Start:         2,
	}
	res, err := NewRunner(NewRegistry()).CompareTown(context.Background(), tw, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 3 || res.Start != 1 {
		t.Errorf("expected size 3 start 1, got %d %d", res.Size, res.Start)
	}
	if math.Abs(res.Exact-2.0/3) > 1e-12 {
		t.Errorf("expected 2/3, got %f", res.Exact)
	}
	for _, r := range res.Results {
		if math.Abs(r.Value-res.Exact) > 1e-9 {
			t.Errorf("%s/%s: %f", r.Method, r.Storage, r.Value)
		}
	}
	withinSE(t, res.MonteCarlo, res.Exact)
}

func TestDump(t *testing.T) {
	p := testParams()
	p.Size = 9
	results, err := NewRunner(NewRegistry()).Dump(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	for _, r := range results {
		if len(r.X) != 9 {
			t.Fatalf("%s/%s: expected 9 components, got %d", r.Method, r.Storage, len(r.X))
		}
		if r.X[0] != 1 || r.X[8] != 0 {
			t.Errorf("%s/%s: boundaries %f %f", r.Method, r.Storage, r.X[0], r.X[8])
		}
	}
}

func TestVerify(t *testing.T) {
	p := testParams()
	rows, err := NewRunner(NewRegistry()).Verify(context.Background(), []int{5, 10, 21}, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		want := walk.HomeProbability(row.N, row.Start)
		if math.Abs(row.Exact-want) > 1e-12 {
			t.Errorf("n=%d: exact %f, want %f", row.N, row.Exact, want)
		}
		if row.AbsErr > 4*row.StdErr+1e-3 {
			t.Errorf("n=%d: |err| %f exceeds 4 se %f", row.N, row.AbsErr, row.StdErr)
		}
	}

	p.Trials = 0
	if _, err := NewRunner(NewRegistry()).Verify(context.Background(), []int{5}, p); !errors.Is(err, walk.ErrTrials) {
		t.Errorf("expected ErrTrials, got %v", err)
	}
	p.Trials = 10
	if _, err := NewRunner(NewRegistry()).Verify(context.Background(), []int{1}, p); !errors.Is(err, linalg.ErrPathTooShort) {
		t.Errorf("expected ErrPathTooShort, got %v", err)
	}
}

func TestBench(t *testing.T) {
	p := testParams()
	p.Trials = 0
	run := NewRunner(NewRegistry())
	for name, system := range map[string]SystemFunc{"path": PathSystem, "town": TownSystem(4)} {
		rows, err := run.Bench(context.Background(), []int{8, 16}, "sparse", p, system)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(rows) != 2 || rows[1].N != 16 {
			t.Fatalf("%s: unexpected rows %+v", name, rows)
		}
		for _, row := range rows {
			if len(row.Millis) != 4 {
				t.Errorf("%s: expected 4 timings, got %v", name, row.Millis)
			}
		}
	}
}

func TestRunnerLogsAndCollects(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	col, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	run := NewRunner(NewRegistry(), WithLogger(logging.NewWriter(&buf, logging.DEBUG)), WithCollector(col))

	if _, err := run.Compare(context.Background(), testParams()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "solved") {
		t.Errorf("expected debug solve logs, got %q", buf.String())
	}
	n, err := testutil.GatherAndCount(reg, "homewalk_solve_seconds")
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Errorf("expected 8 solve series, got %d", n)
	}
}

func TestResultJSON(t *testing.T) {
	in := Result{Method: "gauss", Storage: "dense", Value: math.NaN(), Residual: math.Inf(1), Error: "boom",
		Metrics: map[string]float64{"residual": math.Inf(1), "sweeps": 3}, X: []float64{1}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":null`) {
		t.Errorf("expected null value in %s", data)
	}
	var out Result
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(out.Value) || !math.IsNaN(out.Residual) || out.Error != "boom" || out.X != nil {
		t.Errorf("unexpected round trip %+v", out)
	}
	if diff := cmp.Diff(map[string]float64{"sweeps": 3}, out.Metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}
