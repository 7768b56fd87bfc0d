// Package spacetime implements the single reusable timed A* engine
// shared by every planner: a 4-connected space-time search with
// waiting, parameterised by a legality predicate, a heuristic, and a
// time horizon. Each planner supplies its own legality closure (the
// reservation-table variant, the CBS constraint variant, or the
// modulo-2f alternating variant) but the search loop itself is written
// once here.
package spacetime

import (
	"container/heap"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

// Legality decides whether the move from `from` to `to`, departing at
// tick t (arriving at t+1), is permitted. For a wait action from==to.
type Legality func(from, to grid.Position, t int) bool

// GoalAcceptance decides whether the search may terminate at the goal
// position at tick t. The CA*/Token-Passing variant additionally
// requires the reservation table to be free forever from here on; other
// variants simply accept arrival.
type GoalAcceptance func(pos grid.Position, t int) bool

// Heuristic estimates the remaining cost from pos to the goal.
type Heuristic func(pos grid.Position) int

// Params bundles one search call's parameters.
type Params struct {
	Start          grid.TimedPosition
	Goal           grid.Position
	Legality       Legality
	Heuristic      Heuristic
	Horizon        int
	GoalAcceptance GoalAcceptance // nil means "arrival at Goal is always acceptance"
}

type node struct {
	tp     grid.TimedPosition
	g      int
	f      int
	index  int
}

type openHeap []*node

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	// Deterministic tie-break: lexicographic on (t, x, y), per spec §9's
	// open question on tie-breaking.
	a, b := h[i].tp, h[j].tp
	if a.T != b.T {
		return a.T < b.T
	}
	if a.Pos.X != b.Pos.X {
		return a.Pos.X < b.Pos.X
	}
	return a.Pos.Y < b.Pos.Y
}
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openHeap) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Search runs the timed A* described in spec §4.2. It returns a Plan of
// timed positions from p.Start to p.Goal, or an error — engerr.ErrHorizonExceeded
// if every open successor exceeded the horizon, engerr.ErrUnsolvable if
// the open set was exhausted first.
func Search(p Params) (*planmodel.Plan, error) {
	accept := p.GoalAcceptance
	if accept == nil {
		accept = func(grid.Position, int) bool { return true }
	}

	open := &openHeap{}
	heap.Init(open)

	startNode := &node{tp: p.Start, g: 0, f: p.Heuristic(p.Start.Pos)}
	heap.Push(open, startNode)

	closed := map[grid.TimedPosition]bool{p.Start: true}
	predecessor := map[grid.TimedPosition]grid.TimedPosition{}

	horizonExceeded := false

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)

		if current.tp.Pos == p.Goal && accept(current.tp.Pos, current.tp.T) {
			return reconstruct(p.Start, current.tp, predecessor), nil
		}

		successors := successorsOf(current.tp.Pos)
		for _, succ := range successors {
			if !p.Legality(current.tp.Pos, succ, current.tp.T) {
				continue
			}
			succTP := grid.TimedPosition{Pos: succ, T: current.tp.T + 1}

			if succTP.T > p.Horizon {
				horizonExceeded = true
				continue
			}
			if closed[succTP] {
				continue
			}
			// Record the predecessor before the closed-set check settles,
			// mirroring the Java source's eager bookkeeping; harmless
			// since we only read it from nodes we actually expand/accept.
			if _, already := predecessor[succTP]; !already {
				predecessor[succTP] = current.tp
			}
			closed[succTP] = true
			g := current.g + 1
			heap.Push(open, &node{tp: succTP, g: g, f: g + p.Heuristic(succ)})
		}
	}

	if horizonExceeded {
		return nil, engerr.ErrHorizonExceeded
	}
	return nil, engerr.ErrUnsolvable
}

// successorsOf returns the four orthogonal neighbours plus waiting in
// place, five candidates total.
func successorsOf(p grid.Position) [5]grid.Position {
	n := grid.Neighbours(p)
	return [5]grid.Position{n[0], n[1], n[2], n[3], p}
}

func reconstruct(start grid.TimedPosition, goal grid.TimedPosition, predecessor map[grid.TimedPosition]grid.TimedPosition) *planmodel.Plan {
	var reversed []grid.TimedPosition
	cur := goal
	for {
		reversed = append(reversed, cur)
		if cur == start {
			break
		}
		cur = predecessor[cur]
	}
	positions := make([]grid.TimedPosition, len(reversed))
	for i, tp := range reversed {
		positions[len(reversed)-1-i] = tp
	}
	return &planmodel.Plan{Positions: positions}
}

// Manhattan returns a Heuristic that estimates by Manhattan distance to
// goal.
func Manhattan(goal grid.Position) Heuristic {
	return func(pos grid.Position) int { return pos.Manhattan(goal) }
}
