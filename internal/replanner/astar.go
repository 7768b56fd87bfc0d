package replanner

import (
	"container/heap"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
)

type plainNode struct {
	pos   grid.Position
	g, f  int
	index int
}

type plainHeap []*plainNode

func (h plainHeap) Len() int            { return len(h) }
func (h plainHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h plainHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *plainHeap) Push(x any)         { n := x.(*plainNode); n.index = len(*h); *h = append(*h, n) }
func (h *plainHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// untimedAStar finds a shortest path from start to goal ignoring other
// agents, using plain Manhattan-distance A*. The returned sequence does
// not include the start position.
func untimedAStar(mm *gridmap.MapManager, start, goal grid.Position) ([]grid.Position, error) {
	open := &plainHeap{}
	heap.Init(open)
	heap.Push(open, &plainNode{pos: start, g: 0, f: start.Manhattan(goal)})

	closed := map[grid.Position]bool{start: true}
	predecessor := map[grid.Position]grid.Position{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*plainNode)
		if cur.pos == goal {
			return reconstructPositions(start, goal, predecessor), nil
		}
		for _, cand := range grid.Neighbours(cur.pos) {
			if closed[cand] {
				continue
			}
			if !mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: cur.pos, Target: cand}, T: 0}) {
				continue
			}
			closed[cand] = true
			predecessor[cand] = cur.pos
			g := cur.g + 1
			heap.Push(open, &plainNode{pos: cand, g: g, f: g + cand.Manhattan(goal)})
		}
	}
	return nil, engerr.ErrUnsolvable
}

func reconstructPositions(start, goal grid.Position, predecessor map[grid.Position]grid.Position) []grid.Position {
	var reversed []grid.Position
	cur := goal
	for cur != start {
		reversed = append(reversed, cur)
		cur = predecessor[cur]
	}
	out := make([]grid.Position, len(reversed))
	for i, p := range reversed {
		out[len(reversed)-1-i] = p
	}
	return out
}

// alternatingAStar finds a path from start to goal over a map whose
// edge directions alternate with frequency f, collapsing the time
// coordinate modulo 2f so the search space stays |cells|*2f states
// (spec §4.2's Alternating A* variant). startTime anchors which phase
// the search begins in. The returned sequence does not include start.
func alternatingAStar(mm *gridmap.MapManager, start, goal grid.Position, startTime, f int) ([]grid.Position, error) {
	if f <= 0 {
		return untimedAStar(mm, start, goal)
	}

	period := 2 * f

	open := &spatialHeap{}
	heap.Init(open)
	startState := altState{pos: start, ph: startTime % period}
	heap.Push(open, &spatialNode{pos: startState.pos, phase: startState.ph, g: 0, f: start.Manhattan(goal)})

	closed := map[altState]bool{startState: true}
	predecessor := map[altState]altState{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*spatialNode)
		curState := altState{pos: cur.pos, ph: cur.phase}

		if cur.pos == goal {
			return reconstructAlternating(startState, curState, predecessor), nil
		}

		absT := cur.g + startTime
		for _, cand := range grid.Neighbours(cur.pos) {
			if !mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: cur.pos, Target: cand}, T: absT}) {
				continue
			}
			nextPhase := (cur.phase + 1) % period
			ns := altState{pos: cand, ph: nextPhase}
			if closed[ns] {
				continue
			}
			closed[ns] = true
			predecessor[ns] = curState
			g := cur.g + 1
			heap.Push(open, &spatialNode{pos: cand, phase: nextPhase, g: g, f: g + cand.Manhattan(goal)})
		}

		// Waiting: the phase still advances since time passes.
		waitPhase := (cur.phase + 1) % period
		ws := altState{pos: cur.pos, ph: waitPhase}
		if !closed[ws] {
			closed[ws] = true
			predecessor[ws] = curState
			g := cur.g + 1
			heap.Push(open, &spatialNode{pos: cur.pos, phase: waitPhase, g: g, f: g + cur.pos.Manhattan(goal)})
		}
	}

	return nil, engerr.ErrUnsolvable
}

type altState struct {
	pos grid.Position
	ph  int
}

type spatialNode struct {
	pos   grid.Position
	phase int
	g, f  int
	index int
}

type spatialHeap []*spatialNode

func (h spatialHeap) Len() int           { return len(h) }
func (h spatialHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h spatialHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *spatialHeap) Push(x any) {
	n := x.(*spatialNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *spatialHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func reconstructAlternating(start, goal altState, predecessor map[altState]altState) []grid.Position {
	var reversed []grid.Position
	cur := goal
	for cur != start {
		reversed = append(reversed, cur.pos)
		cur = predecessor[cur]
	}
	out := make([]grid.Position, len(reversed))
	for i, p := range reversed {
		out[len(reversed)-1-i] = p
	}
	return out
}
