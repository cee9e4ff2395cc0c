package town

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	MaxAlleyLength = 10
	MinGenerated   = 4

	generateAttempts = 100
)

var ErrGenerate = errors.New("town: cannot generate town")

// Generate builds a random valid town. The first alleys leave intersections
// 1..n in turn, the rest leave random intersections. Up to n/4 wells and
// n/4 exits are placed, then a start, then up to n/2 trashcans. Draws that
// fail Validate are retried.
func Generate(rng *rand.Rand, inters, alleys int) (*Town, error) {
	if inters < MinGenerated {
		return nil, fmt.Errorf("%w: need at least %d intersections, got %d", ErrGenerate, MinGenerated, inters)
	}
	if alleys < inters-1 {
		return nil, fmt.Errorf("%w: %d alleys cannot connect %d intersections", ErrGenerate, alleys, inters)
	}
	if alleys > inters*(inters-1)/2 {
		return nil, fmt.Errorf("%w: %d alleys exceed the %d possible", ErrGenerate, alleys, inters*(inters-1)/2)
	}

	var err error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		t := draw(rng, inters, alleys)
		if err = t.Validate(); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrGenerate, generateAttempts, err)
}

// pick returns a uniform id in 1..n.
func pick(rng *rand.Rand, n int) int { return rng.Intn(n) + 1 }

func draw(rng *rand.Rand, n, m int) *Town {
	t := &Town{Intersections: make([]Intersection, n)}
	for i := range t.Intersections {
		t.Intersections[i].ID = i + 1
	}

	type pair struct{ a, b int }
	used := make(map[pair]bool, m)
	degree := make([]int, n+1)
	idx := 1
	for k := 0; k < m; k++ {
		if idx > n {
			idx = pick(rng, n)
		}
		for degree[idx] == n-1 {
			idx = pick(rng, n)
		}
		other := pick(rng, n)
		for other == idx || used[pair{min(idx, other), max(idx, other)}] {
			other = pick(rng, n)
		}
		used[pair{min(idx, other), max(idx, other)}] = true
		degree[idx]++
		degree[other]++
		t.Alleys = append(t.Alleys, Alley{A: idx, B: other, Length: pick(rng, MaxAlleyLength)})
		if k < n-1 {
			idx++
		} else {
			idx = n + 1
		}
	}

	distinct := func(count int, skip func(Intersection) bool, set func(*Intersection)) {
		for c := 0; c < count; c++ {
			id := pick(rng, n)
			for skip(t.Intersections[id-1]) {
				id = pick(rng, n)
			}
			set(&t.Intersections[id-1])
		}
	}
	distinct(pick(rng, n/4),
		func(in Intersection) bool { return in.Well },
		func(in *Intersection) { in.Well = true })
	distinct(pick(rng, n/4),
		func(in Intersection) bool { return in.Exit || in.Well },
		func(in *Intersection) { in.Exit = true })

	t.Start = pick(rng, n)
	for t.At(t.Start).Absorbing() {
		t.Start = pick(rng, n)
	}

	distinct(rng.Intn(n/2+1),
		func(in Intersection) bool { return in.Trashcan },
		func(in *Intersection) { in.Trashcan = true })
	return t
}
