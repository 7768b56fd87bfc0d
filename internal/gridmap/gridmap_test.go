package gridmap

import (
	"testing"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
)

func fourConnected(width, height int) []grid.Edge {
	var edges []grid.Edge
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			p := grid.Position{X: x, Y: y}
			if x+1 < width {
				q := grid.Position{X: x + 1, Y: y}
				edges = append(edges, grid.Edge{Source: p, Target: q}, grid.Edge{Source: q, Target: p})
			}
			if y+1 < height {
				q := grid.Position{X: x, Y: y + 1}
				edges = append(edges, grid.Edge{Source: p, Target: q}, grid.Edge{Source: q, Target: p})
			}
		}
	}
	return edges
}

func TestStaticMapPassagePermittedIsSetMembership(t *testing.T) {
	m := NewMap(5, 5, fourConnected(5, 5))
	mm := NewMapManager(m, 0)

	te := grid.TimedEdge{Edge: grid.Edge{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}}, T: 3}
	if !mm.PassagePermitted(te) {
		t.Fatalf("expected static map passage to be permitted for an existing edge")
	}

	te2 := grid.TimedEdge{Edge: grid.Edge{Source: grid.Position{0, 0}, Target: grid.Position{2, 0}}, T: 3}
	if mm.PassagePermitted(te2) {
		t.Fatalf("expected passage to be denied for a nonexistent edge")
	}
}

func TestAlternatingFrequencyZeroBehavesStatic(t *testing.T) {
	m := NewMap(10, 10, fourConnected(10, 10))
	static := NewMapManager(m, 0)
	dynamic := NewMapManager(m, 0)

	for t_ := 0; t_ < 5; t_++ {
		te := grid.TimedEdge{Edge: grid.Edge{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}}, T: t_}
		if static.PassagePermitted(te) != dynamic.PassagePermitted(te) {
			t.Fatalf("f=0 should behave identically to a static map at t=%d", t_)
		}
	}
}

func TestUndirectIsIdempotent(t *testing.T) {
	m := NewMap(3, 3, []grid.Edge{{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}}})
	m.Undirect()
	firstLen := len(m.Edges)
	m.Undirect()
	if len(m.Edges) != firstLen {
		t.Fatalf("Undirect is not idempotent: %d edges became %d", firstLen, len(m.Edges))
	}
	if firstLen != 2 {
		t.Fatalf("expected exactly 2 edges after undirecting one, got %d", firstLen)
	}
}

func TestUndirectDoesNotDuplicateExistingReverse(t *testing.T) {
	m := NewMap(3, 3, []grid.Edge{
		{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}},
		{Source: grid.Position{1, 0}, Target: grid.Position{0, 0}},
	})
	m.Undirect()
	if len(m.Edges) != 2 {
		t.Fatalf("expected no new edges when both directions already exist, got %d", len(m.Edges))
	}
}

func TestDynamicDirectionAlternatesGlobally(t *testing.T) {
	m := NewMap(10, 1, []grid.Edge{
		{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}},
		{Source: grid.Position{1, 0}, Target: grid.Position{0, 0}},
	})
	mm := NewMapManager(m, 2)

	forward := grid.TimedEdge{Edge: grid.Edge{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}}, T: 0}
	backward := grid.TimedEdge{Edge: grid.Edge{Source: grid.Position{1, 0}, Target: grid.Position{0, 0}}, T: 0}

	// At any given tick exactly one of the two directions should be permitted.
	for tick := 0; tick < 4; tick++ {
		forward.T, backward.T = tick, tick
		if mm.PassagePermitted(forward) == mm.PassagePermitted(backward) {
			t.Fatalf("expected exactly one direction permitted at t=%d, forward=%v backward=%v",
				tick, mm.PassagePermitted(forward), mm.PassagePermitted(backward))
		}
	}

	// With frequency 2 the permitted direction flips after two ticks.
	forward.T = 0
	atZero := mm.PassagePermitted(forward)
	forward.T = 2
	if mm.PassagePermitted(forward) == atZero {
		t.Fatalf("expected the forward direction to flip between t=0 and t=2")
	}
}
