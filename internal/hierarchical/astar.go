package hierarchical

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

// highLevelAStar finds a shortest path ignoring other agents, used to
// derive the initial region sequence for each agent (spec §4.7's
// computeHighLevelPlan). The returned sequence does not include start.
func highLevelAStar(mm *gridmap.MapManager, start, goal grid.Position) ([]grid.Position, error) {
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
