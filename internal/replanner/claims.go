package replanner

import (
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

// edgeKey is a commutative (unordered) encoding of an edge's endpoints,
// so that claiming a->b also conflicts with a claim on b->a.
type edgeKey [2]grid.Position

func commutativeEdgeKey(e grid.Edge) edgeKey {
	a, b := e.Source, e.Target
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// claimContainer is the single-tick data structure mapping agents to at
// most one claimed position and at most one claimed (commutative) edge.
type claimContainer struct {
	positions map[grid.Position]planmodel.AgentID
	edges     map[edgeKey]planmodel.AgentID
	byAgent   map[planmodel.AgentID]claimRecord
}

type claimRecord struct {
	position grid.Position
	hasEdge  bool
	edge     edgeKey
}

func newClaimContainer() *claimContainer {
	return &claimContainer{
		positions: make(map[grid.Position]planmodel.AgentID),
		edges:     make(map[edgeKey]planmodel.AgentID),
		byAgent:   make(map[planmodel.AgentID]claimRecord),
	}
}

// noClaimsOn reports whether neither pos nor edge (if non-nil) is
// already claimed by some agent.
func (c *claimContainer) noClaimsOn(pos grid.Position, edge *grid.Edge) bool {
	if _, claimed := c.positions[pos]; claimed {
		return false
	}
	if edge != nil {
		if _, claimed := c.edges[commutativeEdgeKey(*edge)]; claimed {
			return false
		}
	}
	return true
}

func (c *claimContainer) add(agent planmodel.AgentID, pos grid.Position, edge *grid.Edge) {
	c.positions[pos] = agent
	rec := claimRecord{position: pos}
	if edge != nil {
		key := commutativeEdgeKey(*edge)
		c.edges[key] = agent
		rec.hasEdge = true
		rec.edge = key
	}
	c.byAgent[agent] = rec
}

// release removes every claim held by agent.
func (c *claimContainer) release(agent planmodel.AgentID) {
	rec, ok := c.byAgent[agent]
	if !ok {
		return
	}
	delete(c.positions, rec.position)
	if rec.hasEdge {
		delete(c.edges, rec.edge)
	}
	delete(c.byAgent, agent)
}
