// Package castar implements Cooperative A*: sequential prioritized
// planning over shuffled agent orders, using a shared reservation table
// to avoid conflicts between already-planned agents.
package castar

import (
	"math/rand"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/reservation"
	"github.com/baumann-freiburg/mapf-core/internal/spacetime"
)

// Agent is the minimal view Cooperative A* needs of a scenario agent.
type Agent struct {
	ID      planmodel.AgentID
	Start   grid.Position
	Targets []grid.Position // length 1 (classic MAPF) or 2 (MAPD pickup+delivery)
}

// Params bundles one Cooperative A* run's configuration.
type Params struct {
	MapManager  *gridmap.MapManager
	Agents      []Agent
	Horizon     int
	TrialLimit  int
	RandSource  *rand.Rand // nil uses a fresh source seeded with 1 on every call
}

// fingerprint is a comparable encoding of one shuffled agent ordering,
// used to skip orders that have already been tried (spec §4.4).
type fingerprintKey string

func fingerprint(order []planmodel.AgentID) fingerprintKey {
	b := make([]byte, 0, len(order)*8)
	for _, id := range order {
		v := uint64(id)
		for i := 0; i < 8; i++ {
			b = append(b, byte(v>>(8*i)))
		}
	}
	return fingerprintKey(b)
}

// Run executes Cooperative A*: for trialLimit shuffled agent orders,
// plan every agent sequentially against a fresh reservation table; on
// any agent's failure the whole trial is discarded. Returns
// engerr.ErrUnsolvable if every trial (or every distinct order) fails.
func Run(p Params) (*planmodel.CommonPlan, error) {
	rng := p.RandSource
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	order := make([]planmodel.AgentID, len(p.Agents))
	byID := make(map[planmodel.AgentID]Agent, len(p.Agents))
	for i, a := range p.Agents {
		order[i] = a.ID
		byID[a.ID] = a
	}

	tried := make(map[fingerprintKey]bool)

	for trial := 0; trial < p.TrialLimit; trial++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		fp := fingerprint(order)
		if tried[fp] {
			continue
		}
		tried[fp] = true

		commonPlan, ok := attemptTrial(p.MapManager, byID, order, p.Horizon)
		if ok {
			return commonPlan, nil
		}
	}

	return nil, engerr.ErrUnsolvable
}

func attemptTrial(mm *gridmap.MapManager, byID map[planmodel.AgentID]Agent, order []planmodel.AgentID, horizon int) (*planmodel.CommonPlan, bool) {
	table := reservation.NewTable()
	commonPlan := planmodel.NewCommonPlan()

	for _, id := range order {
		agent := byID[id]

		agentPlan := planmodel.NewPlan(agent.ID, agent.Start, 0)

		currentPos := agent.Start
		currentTime := 0

		for _, target := range agent.Targets {
			subPlan, err := planSubTarget(mm, table, int(agent.ID), currentPos, currentTime, target, horizon)
			if err != nil {
				table.CancelAgentReservations(int(agent.ID))
				return nil, false
			}
			agentPlan.AppendPlan(subPlan)
			last := subPlan.Last()
			currentPos = last.Pos
			currentTime = last.T
		}

		commonPlan.AddPlan(agentPlan)
	}

	return commonPlan, true
}

// planSubTarget runs Timed A* from (from, fromTime) to target using the
// CA*/Token-Passing legality variant, then reserves every cell and edge
// on the resulting path and makes the final cell a permanent-from
// reservation.
func planSubTarget(mm *gridmap.MapManager, table *reservation.Table, agentID int, from grid.Position, fromTime int, target grid.Position, horizon int) (*planmodel.Plan, error) {
	legality := func(src, dst grid.Position, t int) bool {
		if src == dst {
			return table.IsCellFree(dst, t+1)
		}
		return table.IsCellFree(dst, t+1) &&
			table.IsEdgeFree(src, dst, t) &&
			mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: src, Target: dst}, T: t})
	}
	goalAcceptance := func(pos grid.Position, t int) bool {
		return table.IsFreeForever(pos, t)
	}

	plan, err := spacetime.Search(spacetime.Params{
		Start:          grid.TimedPosition{Pos: from, T: fromTime},
		Goal:           target,
		Legality:       legality,
		Heuristic:      spacetime.Manhattan(target),
		Horizon:        horizon,
		GoalAcceptance: goalAcceptance,
	})
	if err != nil {
		return nil, err
	}

	reservePath(table, agentID, plan)
	return plan, nil
}

// reservePath reserves every cell and edge along plan, and makes the
// final cell a permanent-from reservation.
func reservePath(table *reservation.Table, agentID int, plan *planmodel.Plan) {
	for i, tp := range plan.Positions {
		permanent := i == len(plan.Positions)-1
		table.ReserveCell(agentID, tp.Pos, tp.T, permanent)
		if i > 0 {
			prev := plan.Positions[i-1]
			if prev.Pos != tp.Pos {
				table.ReserveEdge(agentID, prev.Pos, tp.Pos, prev.T)
			}
		}
	}
}
