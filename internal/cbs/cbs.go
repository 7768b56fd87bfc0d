// Package cbs implements Conflict-Based Search for the low-level
// pathfinding within a single region of the Enhanced Hierarchical
// Planner (spec §4.7). A constraint tree is searched best-first by
// solution cost; each expansion branches on the first conflict found,
// producing two children that forbid one of the two conflicting agents
// from the offending vertex or edge.
package cbs

import (
	"container/heap"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/spacetime"
)

// Traversal is a single agent's pass through one region: it may pass
// through the same region more than once, each time as a distinct
// Traversal identified by (Agent, Index).
type Traversal struct {
	Agent        planmodel.AgentID
	Index        int // position of this traversal in the agent's high-level plan
	Region       int
	Target       grid.Position
	IsGoalRegion bool // true only for the traversal in which the agent's own goal is reached
	Plan         *planmodel.Plan
}

// VertexConstraint forbids a specific traversal from a position at a tick.
type VertexConstraint struct {
	Agent planmodel.AgentID
	Index int
	Pos   grid.Position
	T     int
}

// EdgeConstraint forbids a specific traversal from an edge at a tick.
type EdgeConstraint struct {
	Agent planmodel.AgentID
	Index int
	Edge  grid.Edge
	T     int
}

type conflict struct {
	isEdge      bool
	i, j        int // indices into the traversals slice
	pos         grid.Position
	edge        grid.Edge
	t           int
}

type node struct {
	vertex   map[VertexConstraint]bool
	edge     map[EdgeConstraint]bool
	solution []*planmodel.Plan // parallel to the traversals slice
	cost     int
	index    int
}

type nodeHeap []*node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)         { n := x.(*node); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Stats collects counters about one Search call, for tests that assert
// on the constraint tree's shape rather than just its outcome.
type Stats struct {
	// Expansions is the number of constraint-tree nodes popped off the
	// open list (spec §8's 2^c node bound counts these).
	Expansions int
}

// Search resolves conflicts among the given traversals (all from the
// same region) by branching on vertex/edge constraints, never touching
// any tick earlier than startTime. It returns one plan per traversal,
// in the same order as the input slice. stats, if non-nil, is filled in
// with the search's node-expansion count.
func Search(mm *gridmap.MapManager, traversals []*Traversal, startTime, timeHorizon int, stats *Stats) ([]*planmodel.Plan, error) {
	root := &node{
		vertex:   make(map[VertexConstraint]bool),
		edge:     make(map[EdgeConstraint]bool),
		solution: clonePlans(traversals),
	}
	root.cost = sumLength(root.solution)

	tree := &nodeHeap{}
	heap.Init(tree)
	heap.Push(tree, root)

	for tree.Len() > 0 {
		cur := heap.Pop(tree).(*node)
		if stats != nil {
			stats.Expansions++
		}

		cf := validate(cur.solution, traversals, startTime)
		if cf == nil {
			return cur.solution, nil
		}

		for _, branchFirst := range []bool{true, false} {
			idx, pos, t, e := constraintTarget(cf, branchFirst)
			trav := traversals[idx]

			child := &node{
				vertex:   copyVertexSet(cur.vertex),
				edge:     copyEdgeSet(cur.edge),
				solution: clonePlansFrom(cur.solution),
			}
			if cf.isEdge {
				child.edge[EdgeConstraint{Agent: trav.Agent, Index: trav.Index, Edge: e, T: t}] = true
			} else {
				child.vertex[VertexConstraint{Agent: trav.Agent, Index: trav.Index, Pos: pos, T: t}] = true
			}

			newPlan, err := replanTraversal(mm, trav, cur.solution[idx], child.vertex, child.edge, cf.t-1, timeHorizon)
			if err != nil {
				continue
			}
			child.solution[idx] = newPlan
			child.cost = sumLength(child.solution)
			heap.Push(tree, child)
		}
	}

	return nil, engerr.ErrUnsolvable
}

// constraintTarget returns the traversal index, and (for an edge
// conflict) the edge oriented to match that traversal's own movement,
// to constrain for one branch of cf. cf.edge is recorded in cf.i's
// direction of travel (see validate's rev/fwd bookkeeping); cf.j always
// traverses it the other way, so its branch needs the edge flipped,
// otherwise the constraint would forbid a direction that traversal
// never takes and the swap conflict would survive replanning.
func constraintTarget(cf *conflict, first bool) (idx int, pos grid.Position, t int, e grid.Edge) {
	idx = cf.j
	if first {
		idx = cf.i
	}
	if cf.isEdge {
		edge := cf.edge
		if idx == cf.j {
			edge = grid.Edge{Source: cf.edge.Target, Target: cf.edge.Source}
		}
		return idx, grid.Position{}, cf.t, edge
	}
	return idx, cf.pos, cf.t, grid.Edge{}
}

func sumLength(plans []*planmodel.Plan) int {
	total := 0
	for _, p := range plans {
		total += p.Len()
	}
	return total
}

func clonePlans(traversals []*Traversal) []*planmodel.Plan {
	out := make([]*planmodel.Plan, len(traversals))
	for i, t := range traversals {
		out[i] = t.Plan.DeepCopy()
	}
	return out
}

func clonePlansFrom(plans []*planmodel.Plan) []*planmodel.Plan {
	out := make([]*planmodel.Plan, len(plans))
	for i, p := range plans {
		out[i] = p.DeepCopy()
	}
	return out
}

func copyVertexSet(m map[VertexConstraint]bool) map[VertexConstraint]bool {
	out := make(map[VertexConstraint]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func copyEdgeSet(m map[EdgeConstraint]bool) map[EdgeConstraint]bool {
	out := make(map[EdgeConstraint]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// validate finds the first vertex or edge conflict, at or after
// startTime, among the current solution's plans.
func validate(solution []*planmodel.Plan, traversals []*Traversal, startTime int) *conflict {
	last := 0
	for _, p := range solution {
		if p.Len() > 0 && p.Last().T > last {
			last = p.Last().T
		}
	}

	for t := startTime; t < last; t++ {
		positionOf := make(map[grid.Position]int)
		edgeOf := make(map[grid.Edge]int)

		for i, trav := range traversals {
			pos, ok := solution[i].Position(t, trav.IsGoalRegion)
			if !ok {
				continue
			}
			if other, taken := positionOf[pos]; taken {
				return &conflict{isEdge: false, i: other, j: i, pos: pos, t: t}
			}
			positionOf[pos] = i

			next, ok := solution[i].Position(t+1, false)
			if !ok {
				continue
			}
			rev := grid.Edge{Source: next, Target: pos}
			fwd := grid.Edge{Source: pos, Target: next}
			if other, taken := edgeOf[rev]; taken {
				return &conflict{isEdge: true, i: other, j: i, edge: rev, t: t}
			}
			if other, taken := edgeOf[fwd]; taken {
				return &conflict{isEdge: true, i: other, j: i, edge: fwd, t: t}
			}
			edgeOf[fwd] = i
		}
	}
	return nil
}

// replanTraversal keeps old's positions up to and including startTime
// fixed, then searches for a new path to trav.Target honoring the
// given constraints.
func replanTraversal(mm *gridmap.MapManager, trav *Traversal, old *planmodel.Plan, vertex map[VertexConstraint]bool, edges map[EdgeConstraint]bool, startTime, timeHorizon int) (*planmodel.Plan, error) {
	oldStart := old.Positions[0].T
	if startTime < oldStart {
		return nil, engerr.ErrUnsolvable
	}

	var fixed []grid.TimedPosition
	t := oldStart
	for t <= startTime {
		pos, ok := old.Position(t, trav.IsGoalRegion)
		if !ok {
			return old, nil
		}
		fixed = append(fixed, grid.TimedPosition{Pos: pos, T: t})
		t++
	}

	newStart := fixed[len(fixed)-1]
	legality := func(from, to grid.Position, tick int) bool {
		if !mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: from, Target: to}, T: tick}) {
			return false
		}
		if vertex[VertexConstraint{Agent: trav.Agent, Index: trav.Index, Pos: to, T: tick + 1}] {
			return false
		}
		if edges[EdgeConstraint{Agent: trav.Agent, Index: trav.Index, Edge: grid.Edge{Source: from, Target: to}, T: tick}] {
			return false
		}
		if edges[EdgeConstraint{Agent: trav.Agent, Index: trav.Index, Edge: grid.Edge{Source: to, Target: from}, T: tick}] {
			return false
		}
		return true
	}

	result, err := spacetime.Search(spacetime.Params{
		Start:     newStart,
		Goal:      trav.Target,
		Legality:  legality,
		Heuristic: spacetime.Manhattan(trav.Target),
		Horizon:   timeHorizon,
		GoalAcceptance: func(pos grid.Position, tick int) bool {
			return pos == trav.Target
		},
	})
	if err != nil {
		return nil, err
	}

	combined := append(append([]grid.TimedPosition{}, fixed[:len(fixed)-1]...), result.Positions...)
	return &planmodel.Plan{Agent: trav.Agent, Positions: combined}, nil
}
