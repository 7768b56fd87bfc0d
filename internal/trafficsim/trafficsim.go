// Package trafficsim implements the decentralized Traffic Simulator
// (spec §4.8): every agent computes an untimed shortest path ignoring
// other agents (but forbidden from passing through their goal cells),
// then repeatedly tries to take its next step whenever the target
// cell is free, with a final pass that detects and resolves cyclic
// blocking chains by rotating every agent in the cycle forward in
// lock-step. Complete only under the conditions spec §4.8 documents
// (disjoint start/goal sets, a clear path avoiding others' goals).
package trafficsim

import (
	"container/heap"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

// Agent is the minimal scenario view the simulator needs.
type Agent struct {
	ID    planmodel.AgentID
	Start grid.Position
	Goal  grid.Position
}

// Params bundles one simulation run's configuration.
type Params struct {
	MapManager  *gridmap.MapManager
	Agents      []Agent
	TimeHorizon int
}

type trafficAgent struct {
	id              planmodel.AgentID
	currentPosition grid.Position
	goalPosition    grid.Position
	untimedPlan     []grid.Position
	pointer         int
	active          bool
	timedPlan       *planmodel.Plan
}

func (a *trafficAgent) nextPosition() grid.Position {
	return a.untimedPlan[a.pointer+1]
}

func (a *trafficAgent) atGoal() bool {
	return a.currentPosition == a.goalPosition
}

// Run executes the Traffic Simulator's main loop.
func Run(p Params) (*planmodel.CommonPlan, error) {
	agents := createAgents(p.Agents)

	occupied := make(map[grid.Position]*trafficAgent, len(agents))
	for _, a := range agents {
		occupied[a.currentPosition] = a
	}

	if err := formUntimedPlans(p.MapManager, agents); err != nil {
		return nil, err
	}

	for _, a := range agents {
		a.timedPlan = planmodel.NewPlan(a.id, a.currentPosition, 0)
	}

	now := 1
	finished := false
	for !finished && now < p.TimeHorizon {
		movementActive := true
		for movementActive {
			movementActive = false
			for _, a := range agents {
				if !a.active {
					continue
				}
				target := a.nextPosition()
				if _, taken := occupied[target]; !taken {
					delete(occupied, a.currentPosition)
					occupied[target] = a
					a.currentPosition = target
					a.pointer++
					a.active = false
					movementActive = true
				}
			}
		}

		cyclicSteps(agents, occupied)
		protocolMovements(agents, now)
		finished = planningComplete(agents)
		now++
	}

	if !finished {
		return nil, engerr.ErrHorizonExceeded
	}
	return commonPlan(agents), nil
}

// cyclicSteps detects chains of mutually blocked agents that loop back
// on themselves and rotates every agent in such a cycle forward by one
// step in lock-step, since no agent in the cycle could otherwise ever
// move first.
func cyclicSteps(agents []*trafficAgent, occupied map[grid.Position]*trafficAgent) {
	for _, agent := range agents {
		if !agent.active {
			continue
		}

		current := agent
		blocking := map[*trafficAgent]bool{current: true}

		for {
			current = occupied[current.nextPosition()]
			if current == nil || !current.active {
				break
			}
			if blocking[current] {
				doCycleStep(current, occupied)
				break
			}
			blocking[current] = true
		}
	}
}

func doCycleStep(agent *trafficAgent, occupied map[grid.Position]*trafficAgent) {
	current := agent
	for {
		next := occupied[current.nextPosition()]
		target := current.nextPosition()
		occupied[target] = current
		current.currentPosition = target
		current.pointer++
		current.active = false
		current = next
		if current == agent {
			break
		}
	}
}

func protocolMovements(agents []*trafficAgent, now int) {
	for _, a := range agents {
		if !a.atGoal() {
			a.active = true
		}
		if !a.atGoal() || moved(a, now) {
			a.timedPlan.Append(grid.TimedPosition{Pos: a.currentPosition, T: now})
		}
	}
}

// moved reports whether a's position changed since the previous tick.
// Its timedPlan is seeded with the start position at tick 0 before the
// main loop begins, so this always has a previous entry to compare to.
func moved(a *trafficAgent, now int) bool {
	last, ok := a.timedPlan.Position(now-1, true)
	if !ok {
		return true
	}
	return a.currentPosition != last
}

func planningComplete(agents []*trafficAgent) bool {
	for _, a := range agents {
		if a.active {
			return false
		}
	}
	return true
}

func commonPlan(agents []*trafficAgent) *planmodel.CommonPlan {
	cp := planmodel.NewCommonPlan()
	for _, a := range agents {
		cp.AddPlan(a.timedPlan)
	}
	return cp
}

func createAgents(scenarioAgents []Agent) []*trafficAgent {
	agents := make([]*trafficAgent, len(scenarioAgents))
	for i, a := range scenarioAgents {
		agents[i] = &trafficAgent{
			id:              a.ID,
			currentPosition: a.Start,
			goalPosition:    a.Goal,
			active:          true,
		}
	}
	return agents
}

// formUntimedPlans computes, for every agent, a shortest path to its
// goal that does not pass through any other agent's goal cell (spec
// §4.8). It mutates each trafficAgent's untimedPlan in place.
func formUntimedPlans(mm *gridmap.MapManager, agents []*trafficAgent) error {
	goals := make(map[grid.Position]bool, len(agents))
	for _, a := range agents {
		goals[a.goalPosition] = true
	}

	for _, a := range agents {
		delete(goals, a.goalPosition)
		path, err := untimedAStarAvoiding(mm, a.currentPosition, a.goalPosition, goals)
		goals[a.goalPosition] = true
		if err != nil {
			return engerr.ErrUnsolvable
		}
		a.untimedPlan = append([]grid.Position{a.currentPosition}, path...)
	}
	return nil
}

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

func untimedAStarAvoiding(mm *gridmap.MapManager, start, goal grid.Position, forbidden map[grid.Position]bool) ([]grid.Position, error) {
	open := &plainHeap{}
	heap.Init(open)
	heap.Push(open, &plainNode{pos: start, g: 0, f: start.Manhattan(goal)})

	closed := map[grid.Position]bool{start: true}
	predecessor := map[grid.Position]grid.Position{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*plainNode)
		if cur.pos == goal {
			return reconstruct(start, goal, predecessor), nil
		}
		for _, cand := range grid.Neighbours(cur.pos) {
			if closed[cand] || forbidden[cand] {
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

func reconstruct(start, goal grid.Position, predecessor map[grid.Position]grid.Position) []grid.Position {
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
