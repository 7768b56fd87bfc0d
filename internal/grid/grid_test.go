package grid

import "testing"

func TestEdgeEqualityIgnoresCopy(t *testing.T) {
	a := Edge{Source: Position{0, 0}, Target: Position{1, 0}, Copy: false}
	b := Edge{Source: Position{0, 0}, Target: Position{1, 0}, Copy: true}

	if a.Key() != b.Key() {
		t.Fatalf("expected copy flag to be excluded from edge identity")
	}
	if a == b {
		t.Fatalf("edges with differing Copy should not be == (only Key() should match)")
	}
}

func TestEdgeReverseIsFlaggedCopy(t *testing.T) {
	e := Edge{Source: Position{0, 0}, Target: Position{1, 0}}
	r := e.Reverse()

	if !r.Copy {
		t.Fatalf("reverse edge must be flagged as a copy")
	}
	if r.Source != e.Target || r.Target != e.Source {
		t.Fatalf("reverse edge endpoints swapped incorrectly: %v", r)
	}
}

func TestManhattan(t *testing.T) {
	p := Position{0, 0}
	q := Position{3, 4}
	if got := p.Manhattan(q); got != 7 {
		t.Fatalf("Manhattan(%v, %v) = %d, want 7", p, q, got)
	}
}

func TestTimedEdgeSwap(t *testing.T) {
	te := TimedEdge{Edge: Edge{Source: Position{0, 0}, Target: Position{1, 0}}, T: 3}
	swap := te.Swap()
	want := TimedEdge{Edge: Edge{Source: Position{1, 0}, Target: Position{0, 0}}, T: 3}
	if swap != want {
		t.Fatalf("Swap() = %v, want %v", swap, want)
	}
}

func TestNeighboursOrderIsDeterministic(t *testing.T) {
	p := Position{5, 5}
	got := Neighbours(p)
	want := [4]Position{{6, 5}, {4, 5}, {5, 6}, {5, 4}}
	if got != want {
		t.Fatalf("Neighbours(%v) = %v, want %v", p, got, want)
	}
}
