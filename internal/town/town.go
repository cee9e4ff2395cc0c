// Package town models a town of intersections joined by alleys and turns it
// into the linear system whose solution is, per intersection, the
// probability that a random walker reaches an exit before a well.
//
// Intersection IDs are 1-based; matrix indices are ID-1.
package town

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/homewalk/internal/linalg"
)

var (
	ErrInvalidTown = errors.New("town: invalid town")
	ErrNoExit      = errors.New("town: no exit")
	ErrUnreachable = errors.New("town: intersection cannot reach an exit or well")
)

type Intersection struct {
	ID       int  `yaml:"id"`
	Exit     bool `yaml:"exit,omitempty"`
	Well     bool `yaml:"well,omitempty"`
	Trashcan bool `yaml:"trashcan,omitempty"`
}

// Absorbing reports whether a walker stops here.
func (in Intersection) Absorbing() bool { return in.Exit || in.Well }

type Alley struct {
	A      int `yaml:"a"`
	B      int `yaml:"b"`
	Length int `yaml:"length"`
}

type Town struct {
	Intersections []Intersection `yaml:"intersections"`
	Alleys        []Alley        `yaml:"alleys"`
	Start         int            `yaml:"start"`
}

// Edge is one direction of an alley, by matrix index.
type Edge struct {
	To     int
	Length int
}

func Load(path string) (*Town, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := &Town{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("town: decode %s: %w", path, err)
	}
	return t, nil
}

func Save(path string, t *Town) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (t *Town) Size() int { return len(t.Intersections) }

// StartIndex is the matrix index of the start intersection.
func (t *Town) StartIndex() int { return t.Start - 1 }

// At returns the intersection with the given ID. The town must be valid.
func (t *Town) At(id int) Intersection { return t.Intersections[t.index(id)] }

func (t *Town) index(id int) int {
	if id >= 1 && id <= len(t.Intersections) && t.Intersections[id-1].ID == id {
		return id - 1
	}
	for i, in := range t.Intersections {
		if in.ID == id {
			return i
		}
	}
	return -1
}

// Adjacency lists, per matrix index, the alleys leaving that intersection.
func (t *Town) Adjacency() [][]Edge {
	adj := make([][]Edge, len(t.Intersections))
	for _, a := range t.Alleys {
		i, j := a.A-1, a.B-1
		adj[i] = append(adj[i], Edge{To: j, Length: a.Length})
		adj[j] = append(adj[j], Edge{To: i, Length: a.Length})
	}
	return adj
}

// Validate checks that the town describes a well-posed walk. On success
// Intersections is ordered by ID.
func (t *Town) Validate() error {
	n := len(t.Intersections)
	if n == 0 {
		return fmt.Errorf("%w: no intersections", ErrInvalidTown)
	}
	seen := make([]bool, n+1)
	exits := 0
	for _, in := range t.Intersections {
		if in.ID < 1 || in.ID > n {
			return fmt.Errorf("%w: id %d outside 1..%d", ErrInvalidTown, in.ID, n)
		}
		if seen[in.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidTown, in.ID)
		}
		seen[in.ID] = true
		if in.Exit && in.Well {
			return fmt.Errorf("%w: intersection %d is both exit and well", ErrInvalidTown, in.ID)
		}
		if in.Exit {
			exits++
		}
	}
	if exits == 0 {
		return ErrNoExit
	}
	// IDs are now a permutation of 1..n; put them in index order.
	if !sortedByID(t.Intersections) {
		ordered := make([]Intersection, n)
		for _, in := range t.Intersections {
			ordered[in.ID-1] = in
		}
		t.Intersections = ordered
	}

	if t.Start < 1 || t.Start > n {
		return fmt.Errorf("%w: start %d outside 1..%d", ErrInvalidTown, t.Start, n)
	}
	if t.At(t.Start).Absorbing() {
		return fmt.Errorf("%w: start %d is an exit or well", ErrInvalidTown, t.Start)
	}

	type pair struct{ a, b int }
	alleys := make(map[pair]bool, len(t.Alleys))
	for _, a := range t.Alleys {
		if a.A < 1 || a.A > n || a.B < 1 || a.B > n {
			return fmt.Errorf("%w: alley %d-%d has an unknown end", ErrInvalidTown, a.A, a.B)
		}
		if a.A == a.B {
			return fmt.Errorf("%w: alley %d-%d is a loop", ErrInvalidTown, a.A, a.B)
		}
		if a.Length < 1 {
			return fmt.Errorf("%w: alley %d-%d has length %d", ErrInvalidTown, a.A, a.B, a.Length)
		}
		k := pair{min(a.A, a.B), max(a.A, a.B)}
		if alleys[k] {
			return fmt.Errorf("%w: duplicate alley %d-%d", ErrInvalidTown, a.A, a.B)
		}
		alleys[k] = true
	}

	return t.checkReachable()
}

// checkReachable runs a BFS outward from every absorbing intersection; any
// walkable intersection it misses would walk forever.
func (t *Town) checkReachable() error {
	adj := t.Adjacency()
	reached := make([]bool, len(t.Intersections))
	queue := make([]int, 0, len(t.Intersections))
	for i, in := range t.Intersections {
		if in.Absorbing() {
			reached[i] = true
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, e := range adj[i] {
			if !reached[e.To] {
				reached[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	for i, ok := range reached {
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnreachable, t.Intersections[i].ID)
		}
	}
	return nil
}

func sortedByID(ins []Intersection) bool {
	for i, in := range ins {
		if in.ID != i+1 {
			return false
		}
	}
	return true
}

// System builds A·x = b for the town. Exit rows are identity with b = 1,
// well rows identity with b = 0. A walkable intersection of degree d takes
// each alley with probability p = 1/d; stepping toward a trashcan succeeds
// half the time and otherwise the walker stays put.
func (t *Town) System(kind linalg.Kind) (linalg.Builder, []float64, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	n := len(t.Intersections)
	a, err := linalg.New(kind, n, n)
	if err != nil {
		return nil, nil, err
	}
	b := make([]float64, n)
	adj := t.Adjacency()
	for i, in := range t.Intersections {
		a.Set(i, i, 1)
		if in.Absorbing() {
			if in.Exit {
				b[i] = 1
			}
			continue
		}
		p := 1 / float64(len(adj[i]))
		for _, e := range adj[i] {
			if t.Intersections[e.To].Trashcan {
				a.Set(i, e.To, a.At(i, e.To)-p/2)
				a.Set(i, i, a.At(i, i)-p/2)
			} else {
				a.Set(i, e.To, a.At(i, e.To)-p)
			}
		}
	}
	return a, b, nil
}

func (t *Town) Dense() (linalg.Matrix, []float64, error)  { return t.System(linalg.KindDense) }
func (t *Town) Sparse() (linalg.Matrix, []float64, error) { return t.System(linalg.KindSparse) }
