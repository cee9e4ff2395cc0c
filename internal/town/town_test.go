package town

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/homewalk/internal/linalg"
)

const sample = `5 5
1 2 3
2 3 1
3 4 7
4 5 2
2 4 4

1 5
1 1
1 3
1 4
`

func sampleTown() *Town {
	return &Town{
		Intersections: []Intersection{
			{ID: 1, Exit: true},
			{ID: 2},
			{ID: 3},
			{ID: 4, Trashcan: true},
			{ID: 5, Well: true},
		},
		Alleys: []Alley{
			{A: 1, B: 2, Length: 3},
			{A: 2, B: 3, Length: 1},
			{A: 3, B: 4, Length: 7},
			{A: 4, B: 5, Length: 2},
			{A: 2, B: 4, Length: 4},
		},
		Start: 3,
	}
}

// line returns exit(1) - start(2) - well(3).
func line() *Town {
	return &Town{
		Intersections: []Intersection{{ID: 1, Exit: true}, {ID: 2}, {ID: 3, Well: true}},
		Alleys:        []Alley{{A: 1, B: 2, Length: 1}, {A: 2, B: 3, Length: 1}},
		Start:         2,
	}
}

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(sampleTown(), got); diff != "" {
		t.Errorf("parsed town mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("sample should be valid: %v", err)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTown().Format(&buf); err != nil {
		t.Fatalf("Format: %v", err)
	}
	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(sampleTown(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := line().Format(&buf); err != nil {
		t.Fatal(err)
	}
	want := "3 2\n1 2 1\n2 3 1\n\n1 3\n1 1\n1 2\n0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad header", "x 2"},
		{"truncated alleys", "3 2\n1 2 1\n"},
		{"two starts", "3 2\n1 2 1\n2 3 1\n\n1 3\n1 1\n2 2 2\n0\n"},
		{"well out of range", "3 2\n1 2 1\n2 3 1\n\n1 9\n1 1\n1 2\n0\n"},
		{"negative count", "3 2\n1 2 1\n2 3 1\n\n-1\n1 1\n1 2\n0\n"},
		{"zero intersections", "0 0\n"},
		{"huge intersection count", "99999999999999 0"},
		{"huge alley count", "2 99999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "town.yaml")
	if err := Save(path, sampleTown()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(sampleTown(), got); diff != "" {
		t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Town)
		want   error
	}{
		{"no intersections", func(tw *Town) { tw.Intersections = nil }, ErrInvalidTown},
		{"no exit", func(tw *Town) { tw.Intersections[0].Exit = false }, ErrNoExit},
		{"exit and well", func(tw *Town) { tw.Intersections[0].Well = true }, ErrInvalidTown},
		{"duplicate id", func(tw *Town) { tw.Intersections[1].ID = 1 }, ErrInvalidTown},
		{"id out of range", func(tw *Town) { tw.Intersections[1].ID = 7 }, ErrInvalidTown},
		{"start on exit", func(tw *Town) { tw.Start = 1 }, ErrInvalidTown},
		{"start missing", func(tw *Town) { tw.Start = 0 }, ErrInvalidTown},
		{"unknown alley end", func(tw *Town) { tw.Alleys[0].B = 9 }, ErrInvalidTown},
		{"loop", func(tw *Town) { tw.Alleys[0].B = 1 }, ErrInvalidTown},
		{"zero length", func(tw *Town) { tw.Alleys[0].Length = 0 }, ErrInvalidTown},
		{"duplicate alley", func(tw *Town) {
			tw.Alleys = append(tw.Alleys, Alley{A: 2, B: 1, Length: 1})
		}, ErrInvalidTown},
		{"isolated", func(tw *Town) {
			tw.Intersections = append(tw.Intersections, Intersection{ID: 4})
		}, ErrUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := line()
			tt.mutate(tw)
			if err := tw.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateOrdersByID(t *testing.T) {
	tw := line()
	tw.Intersections[0], tw.Intersections[2] = tw.Intersections[2], tw.Intersections[0]
	if err := tw.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for i, in := range tw.Intersections {
		if in.ID != i+1 {
			t.Errorf("index %d holds id %d", i, in.ID)
		}
	}
}

func TestSystemLine(t *testing.T) {
	for _, kind := range []linalg.Kind{linalg.KindDense, linalg.KindSparse} {
		a, b, err := line().System(kind)
		if err != nil {
			t.Fatalf("System(%s): %v", kind, err)
		}
		want := [][]float64{{1, 0, 0}, {-0.5, 1, -0.5}, {0, 0, 1}}
		if diff := cmp.Diff(want, linalg.ToRows(a)); diff != "" {
			t.Errorf("%s matrix mismatch (-want +got):\n%s", kind, diff)
		}
		if diff := cmp.Diff([]float64{1, 0, 0}, b); diff != "" {
			t.Errorf("%s rhs mismatch (-want +got):\n%s", kind, diff)
		}
		x, err := a.GaussianPartialPivot(b)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(x[1]-0.5) > 1e-12 {
			t.Errorf("%s: expected 0.5, got %f", kind, x[1])
		}
	}
}

func TestSystemTrashcanBounce(t *testing.T) {
	tw := line()
	tw.Intersections[2].Trashcan = true

	a, b, err := tw.Dense()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{1, 0, 0}, {-0.5, 0.75, -0.25}, {0, 0, 1}}
	if diff := cmp.Diff(want, linalg.ToRows(a)); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
	x, err := a.GaussianPartialPivot(b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[1]-2.0/3) > 1e-12 {
		t.Errorf("expected 2/3, got %f", x[1])
	}
}

func TestSystemRowsConserveProbability(t *testing.T) {
	tw := sampleTown()
	a, _, err := tw.Sparse()
	if err != nil {
		t.Fatal(err)
	}
	rows := linalg.ToRows(a)
	for i, row := range rows {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		want := 0.0
		if tw.Intersections[i].Absorbing() {
			want = 1
		}
		if math.Abs(sum-want) > 1e-12 {
			t.Errorf("row %d sums to %f, want %f", i, sum, want)
		}
	}
}

func TestSystemDenseSparseAgree(t *testing.T) {
	tw, err := Generate(rand.New(rand.NewSource(3)), 30, 45)
	if err != nil {
		t.Fatal(err)
	}
	d, b, err := tw.Dense()
	if err != nil {
		t.Fatal(err)
	}
	s, _, err := tw.Sparse()
	if err != nil {
		t.Fatal(err)
	}
	xd, err := d.GaussianPartialPivot(b)
	if err != nil {
		t.Fatal(err)
	}
	xs, err := s.GaussianPartialPivot(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(xd, xs); diff != "" {
		t.Errorf("dense/sparse mismatch (-dense +sparse):\n%s", diff)
	}
	for i, v := range xd {
		if v < -1e-12 || v > 1+1e-12 {
			t.Errorf("x[%d] = %f is not a probability", i, v)
		}
	}
}

func TestSystemRejectsInvalid(t *testing.T) {
	tw := line()
	tw.Start = 1
	if _, _, err := tw.System(linalg.KindDense); !errors.Is(err, ErrInvalidTown) {
		t.Errorf("expected ErrInvalidTown, got %v", err)
	}
}

func TestAdjacency(t *testing.T) {
	adj := line().Adjacency()
	want := [][]Edge{{{To: 1, Length: 1}}, {{To: 0, Length: 1}, {To: 2, Length: 1}}, {{To: 1, Length: 1}}}
	if diff := cmp.Diff(want, adj); diff != "" {
		t.Errorf("adjacency mismatch (-want +got):\n%s", diff)
	}
}
