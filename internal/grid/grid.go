// Package grid defines the value types shared by every planner: grid
// cells, directed edges between them, and their time-stamped forms.
package grid

import "fmt"

// Position is a cell on the grid, addressed by integer coordinates.
type Position struct {
	X, Y int
}

// Manhattan returns the Manhattan distance between p and other.
func (p Position) Manhattan(other Position) int {
	return abs(p.X-other.X) + abs(p.Y-other.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Edge is a directed edge from Source to Target. The reverse edge is a
// distinct value. Copy marks an edge added while undirecting a map by
// adding reverse copies of its edges. Copy is part of the struct, so ==
// distinguishes a copy from an otherwise equal edge; Key ignores it, so
// re-undirecting an already-undirected map never adds a duplicate edge.
type Edge struct {
	Source, Target Position
	Copy           bool
}

// Key returns the equality-relevant identity of the edge, ignoring Copy.
func (e Edge) Key() [2]Position {
	return [2]Position{e.Source, e.Target}
}

// Reverse returns the edge in the opposite direction, flagged as a copy.
func (e Edge) Reverse() Edge {
	return Edge{Source: e.Target, Target: e.Source, Copy: true}
}

// Horizontal reports whether the edge connects cells on the same row.
func (e Edge) Horizontal() bool {
	return e.Source.Y == e.Target.Y
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s", e.Source, e.Target)
}

// TimedPosition is a cell together with the tick at which it is occupied.
type TimedPosition struct {
	Pos Position
	T   int
}

func (tp TimedPosition) String() string {
	return fmt.Sprintf("%s@%d", tp.Pos, tp.T)
}

// TimedEdge is a directed edge together with the tick at which the move
// from Edge.Source to Edge.Target begins (arriving at T+1).
type TimedEdge struct {
	Edge Edge
	T    int
}

// Swap returns the edge that would conflict with this one via a
// simultaneous position swap: the reverse direction at the same tick.
func (te TimedEdge) Swap() TimedEdge {
	return TimedEdge{
		Edge: Edge{Source: te.Edge.Target, Target: te.Edge.Source},
		T:    te.T,
	}
}

// Neighbours returns the four orthogonal neighbours of p, right/left/
// up/down, in that deterministic order.
func Neighbours(p Position) [4]Position {
	return [4]Position{
		{p.X + 1, p.Y},
		{p.X - 1, p.Y},
		{p.X, p.Y + 1},
		{p.X, p.Y - 1},
	}
}
