package town

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrSyntax = errors.New("town: malformed town file")

// MaxIntersections bounds the intersection count Parse accepts.
const MaxIntersections = 1 << 20

// Parse reads the plain-text town format:
//
//	<intersections> <alleys>
//	<a> <b> <length>          one line per alley
//
//	<k> <well ids...>
//	<k> <exit ids...>
//	1 <start>
//	<k> <trashcan ids...>
//
// Line breaks are not significant; the format is a stream of integers.
func Parse(r io.Reader) (*Town, error) {
	s := &scanner{sc: bufio.NewScanner(r)}
	s.sc.Split(bufio.ScanWords)

	n := s.next("intersection count")
	m := s.next("alley count")
	if s.err != nil {
		return nil, s.err
	}
	if n < 1 || m < 0 {
		return nil, fmt.Errorf("%w: header %d %d", ErrSyntax, n, m)
	}
	if n > MaxIntersections {
		return nil, fmt.Errorf("%w: %d intersections exceeds %d", ErrSyntax, n, MaxIntersections)
	}

	t := &Town{
		Intersections: make([]Intersection, n),
		Alleys:        make([]Alley, 0, min(m, 1024)),
	}
	for i := range t.Intersections {
		t.Intersections[i].ID = i + 1
	}
	for i := 0; i < m && s.err == nil; i++ {
		a := Alley{A: s.next("alley end"), B: s.next("alley end"), Length: s.next("alley length")}
		t.Alleys = append(t.Alleys, a)
	}

	mark := func(what string, set func(*Intersection)) {
		for _, id := range s.list(what) {
			if id < 1 || id > n {
				s.fail(fmt.Errorf("%w: %s id %d outside 1..%d", ErrSyntax, what, id, n))
				return
			}
			set(&t.Intersections[id-1])
		}
	}
	mark("well", func(in *Intersection) { in.Well = true })
	mark("exit", func(in *Intersection) { in.Exit = true })

	starts := s.list("start")
	if s.err == nil && len(starts) != 1 {
		s.fail(fmt.Errorf("%w: expected exactly one start, got %d", ErrSyntax, len(starts)))
	}
	if s.err == nil {
		t.Start = starts[0]
	}
	mark("trashcan", func(in *Intersection) { in.Trashcan = true })

	if s.err != nil {
		return nil, s.err
	}
	return t, nil
}

// Format writes t in the text form read by Parse. Flag lists are written in
// ascending ID order.
func (t *Town) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(t.Intersections), len(t.Alleys))
	for _, a := range t.Alleys {
		fmt.Fprintf(bw, "%d %d %d\n", a.A, a.B, a.Length)
	}
	fmt.Fprintln(bw)

	writeList := func(keep func(Intersection) bool) {
		var ids []int
		for _, in := range t.Intersections {
			if keep(in) {
				ids = append(ids, in.ID)
			}
		}
		fmt.Fprint(bw, len(ids))
		for _, id := range ids {
			fmt.Fprintf(bw, " %d", id)
		}
		fmt.Fprintln(bw)
	}
	writeList(func(in Intersection) bool { return in.Well })
	writeList(func(in Intersection) bool { return in.Exit })
	fmt.Fprintf(bw, "1 %d\n", t.Start)
	writeList(func(in Intersection) bool { return in.Trashcan })
	return bw.Flush()
}

// scanner reads integers and keeps the first error.
type scanner struct {
	sc  *bufio.Scanner
	err error
	pos int
}

func (s *scanner) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *scanner) next(what string) int {
	if s.err != nil {
		return 0
	}
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			s.fail(err)
		} else {
			s.fail(fmt.Errorf("%w: unexpected end of input reading %s", ErrSyntax, what))
		}
		return 0
	}
	s.pos++
	v, err := strconv.Atoi(s.sc.Text())
	if err != nil {
		s.fail(fmt.Errorf("%w: token %d (%s): %q is not an integer", ErrSyntax, s.pos, what, s.sc.Text()))
		return 0
	}
	return v
}

// list reads a count k followed by k integers.
func (s *scanner) list(what string) []int {
	k := s.next(what + " count")
	if s.err != nil {
		return nil
	}
	if k < 0 {
		s.fail(fmt.Errorf("%w: negative %s count", ErrSyntax, what))
		return nil
	}
	out := make([]int, 0, min(k, 1024))
	for i := 0; i < k && s.err == nil; i++ {
		out = append(out, s.next(what))
	}
	return out
}
