// Package replanner implements the Runtime Replanner: each agent plans
// independently with untimed A*, then at every tick a recursive
// backtracking claim process resolves conflicts one step ahead, with
// off-track agents replanned on the fly. Both the static and the
// direction-alternating variants live here, sharing the claim/step
// machinery and differing only in the single-agent search they use.
package replanner

import (
	"sort"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

// Agent is the minimal scenario view the replanner needs. Only a single
// target is supported (classic MAPF), per spec §4.6.
type Agent struct {
	ID     planmodel.AgentID
	Start  grid.Position
	Target grid.Position
}

// Params bundles one Runtime Replanner run's configuration.
type Params struct {
	MapManager  *gridmap.MapManager
	Agents      []Agent
	TimeHorizon int
	TrialLimit  int
	// Alternating selects the direction-alternating variant: untimed
	// search uses the modulo-2f Alternating A* instead of plain
	// Manhattan-guided A*, and off-track replanning does likewise.
	Alternating bool
	Frequency   int // direction-change frequency, used only if Alternating
}

// Run executes the Runtime Replanner main loop (spec §4.6): plan every
// agent independently, then resolve conflicts tick by tick with
// backtracking, retrying with a reshuffled agent order up to TrialLimit
// times.
func Run(p Params) (*planmodel.CommonPlan, error) {
	original, err := independentPlans(p)
	if err != nil {
		return nil, err
	}

	order := make([]planmodel.AgentID, len(p.Agents))
	byID := make(map[planmodel.AgentID]Agent, len(p.Agents))
	for i, a := range p.Agents {
		order[i] = a.ID
		byID[a.ID] = a
	}

	rng := newDeterministicShuffler(1)

	for trial := 0; trial < p.TrialLimit; trial++ {
		plans := original.DeepCopy()

		success := true
		for t := 0; t < p.TimeHorizon; t++ {
			if allGoalsReached(plans, byID, t) {
				return plans, nil
			}
			if incapable := attemptStep(p, plans, order, byID, t); incapable != nil {
				success = false
				break
			}
		}
		if success && allGoalsReached(plans, byID, p.TimeHorizon) {
			return plans, nil
		}

		rng.shuffle(order)
	}

	return nil, engerr.ErrUnsolvable
}

func independentPlans(p Params) (*planmodel.CommonPlan, error) {
	cp := planmodel.NewCommonPlan()
	for _, a := range p.Agents {
		var positions []grid.Position
		var err error
		if p.Alternating {
			positions, err = alternatingAStar(p.MapManager, a.Start, a.Target, 0, p.Frequency)
		} else {
			positions, err = untimedAStar(p.MapManager, a.Start, a.Target)
		}
		if err != nil {
			return nil, engerr.ErrUnsolvable
		}
		full := append([]grid.Position{a.Start}, positions...)
		cp.AddPlan(planmodel.NewPlanFromPositions(a.ID, full, 0))
	}
	return cp, nil
}

func allGoalsReached(plans *planmodel.CommonPlan, byID map[planmodel.AgentID]Agent, t int) bool {
	for _, plan := range plans.Plans {
		pos, ok := plan.Position(t, true)
		if !ok || pos != byID[plan.Agent].Target {
			return false
		}
	}
	return true
}

// attemptStep resolves one tick's movement for every agent via the
// backtracking claim recursion, then replans off-track agents.
func attemptStep(p Params, plans *planmodel.CommonPlan, order []planmodel.AgentID, byID map[planmodel.AgentID]Agent, t int) *planmodel.AgentID {
	locations := make(map[planmodel.AgentID]grid.Position, len(order))
	claims := newClaimContainer()

	incapable := stepRecursive(p, plans, order, byID, t, 0, claims, locations)
	if incapable != nil {
		return incapable
	}

	for _, a := range p.Agents {
		plan := plans.ByAgent(a.ID)
		actual := locations[a.ID]

		if !agentOffTrack(actual, plan, t) {
			continue
		}

		plan.CutAfter(t)
		plan.FillUp(t)
		plan.Append(grid.TimedPosition{Pos: actual, T: t + 1})

		var positions []grid.Position
		var err error
		if p.Alternating {
			positions, err = alternatingAStar(p.MapManager, actual, a.Target, t+1, p.Frequency)
		} else {
			positions, err = untimedAStar(p.MapManager, actual, a.Target)
		}
		if err != nil {
			id := a.ID
			return &id
		}
		plan.AppendPlan(planmodel.NewPlanFromPositions(a.ID, append([]grid.Position{actual}, positions...), t+1))
	}

	return nil
}

// stepRecursive is the depth-first backtracking claim process (spec
// §4.6): try the agent's planned step; on failure try alternatives
// sorted by Manhattan distance to goal with wait last; propagate success
// immediately once the last agent in order succeeds.
func stepRecursive(p Params, plans *planmodel.CommonPlan, order []planmodel.AgentID, byID map[planmodel.AgentID]Agent, t, orderIndex int, claims *claimContainer, locations map[planmodel.AgentID]grid.Position) *planmodel.AgentID {
	agentID := order[orderIndex]
	agent := byID[agentID]
	plan := plans.ByAgent(agentID)

	posNow, _ := plan.Position(t, true)
	posNext, _ := plan.Position(t+1, true)

	if tryClaimAndRecurse(p, plans, order, byID, t, orderIndex, claims, locations, agentID, posNow, posNext) {
		return nil
	}

	for _, alt := range alternatives(p.MapManager, posNow, t, claims, agent.Target) {
		claims.release(agentID)
		if tryClaimAndRecurse(p, plans, order, byID, t, orderIndex, claims, locations, agentID, posNow, alt) {
			return nil
		}
	}

	claims.release(agentID)
	return &agentID
}

func tryClaimAndRecurse(p Params, plans *planmodel.CommonPlan, order []planmodel.AgentID, byID map[planmodel.AgentID]Agent, t, orderIndex int, claims *claimContainer, locations map[planmodel.AgentID]grid.Position, agentID planmodel.AgentID, posNow, posNext grid.Position) bool {
	var edge *grid.Edge
	if posNow != posNext {
		e := grid.Edge{Source: posNow, Target: posNext}
		edge = &e
	}

	if !claims.noClaimsOn(posNext, edge) {
		return false
	}
	claims.add(agentID, posNext, edge)
	locations[agentID] = posNext

	if orderIndex+1 == len(order) {
		return true
	}

	if incapable := stepRecursive(p, plans, order, byID, t, orderIndex+1, claims, locations); incapable == nil {
		return true
	}

	claims.release(agentID)
	delete(locations, agentID)
	return false
}

// alternatives returns the four orthogonal neighbours legal at tick t,
// sorted ascending by Manhattan distance to goal, followed last by the
// wait-in-place option (if not itself claimed by another agent).
func alternatives(mm *gridmap.MapManager, from grid.Position, t int, claims *claimContainer, goal grid.Position) []grid.Position {
	var moves []grid.Position
	for _, cand := range grid.Neighbours(from) {
		if !mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: from, Target: cand}, T: t}) {
			continue
		}
		edge := grid.Edge{Source: from, Target: cand}
		if !claims.noClaimsOn(cand, &edge) {
			continue
		}
		moves = append(moves, cand)
	}
	sort.Slice(moves, func(i, j int) bool {
		return moves[i].Manhattan(goal) < moves[j].Manhattan(goal)
	})

	if claims.noClaimsOn(from, nil) {
		moves = append(moves, from)
	}
	return moves
}

func agentOffTrack(actual grid.Position, plan *planmodel.Plan, t int) bool {
	expected, ok := plan.Position(t+1, true)
	return !ok || actual != expected
}
