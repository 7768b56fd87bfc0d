// Package validator checks a common plan against a scenario: per-plan
// shape invariants and cross-plan conflict freedom (spec §4.9).
package validator

import (
	"fmt"

	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

// Agent is the minimal scenario view the validator needs.
type Agent struct {
	ID      planmodel.AgentID
	Start   grid.Position
	Targets []grid.Position // ordered target sequence this agent must visit, in order
}

// Mode selects classic (single-target, final position must equal the
// sole target) or dynamic (MAPD: targets must appear as a subsequence,
// not necessarily as the final position) validation.
type Mode int

const (
	Classic Mode = iota
	Dynamic
)

// Check validates cp against the given agents and map manager. It
// returns the first violation found as an error wrapping
// engerr.ErrInvalidPlan, or nil if cp is valid.
func Check(mm *gridmap.MapManager, agents []Agent, cp *planmodel.CommonPlan, mode Mode) error {
	if len(cp.Plans) != len(agents) {
		return engerr.NewPlanError(-1, -1, fmt.Sprintf("expected %d plans, got %d", len(agents), len(cp.Plans)))
	}

	byID := make(map[planmodel.AgentID]Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}

	for _, plan := range cp.Plans {
		if err := checkPlanShape(mm, byID[plan.Agent], plan, mode); err != nil {
			return err
		}
	}

	if err := checkCrossPlanConflicts(cp); err != nil {
		return err
	}

	if mode == Dynamic {
		if err := checkAllTasksServed(agents, cp); err != nil {
			return err
		}
	}

	return nil
}

func checkPlanShape(mm *gridmap.MapManager, agent Agent, plan *planmodel.Plan, mode Mode) error {
	if plan == nil {
		return engerr.NewPlanError(int(agent.ID), -1, "agent has no plan")
	}

	if plan.Len() == 0 {
		return engerr.NewPlanError(int(agent.ID), -1, "plan has zero length")
	}

	first := plan.Positions[0]
	if first.T != 0 || first.Pos != agent.Start {
		return engerr.NewPlanError(int(agent.ID), 0,
			fmt.Sprintf("first entry %v does not equal (start=%v, t=0)", first, agent.Start))
	}

	if plan.Len() == 1 {
		if len(agent.Targets) > 0 && agent.Start != agent.Targets[len(agent.Targets)-1] && mode == Classic {
			return engerr.NewPlanError(int(agent.ID), 0, "zero-length move plan but start != goal")
		}
	}

	for i, tp := range plan.Positions {
		if tp.T != i {
			return engerr.NewPlanError(int(agent.ID), tp.T, fmt.Sprintf("tick %d is not contiguous (entry index %d)", tp.T, i))
		}
		if mm.Map.IsObstacle(tp.Pos) {
			return engerr.NewPlanError(int(agent.ID), tp.T, fmt.Sprintf("cell %v is an obstacle", tp.Pos))
		}
		if i > 0 {
			prev := plan.Positions[i-1]
			if prev.Pos != tp.Pos {
				if !mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: prev.Pos, Target: tp.Pos}, T: prev.T}) {
					return engerr.NewPlanError(int(agent.ID), prev.T,
						fmt.Sprintf("move %v -> %v at tick %d is not a permitted passage", prev.Pos, tp.Pos, prev.T))
				}
			}
		}
	}

	if mode == Classic && len(agent.Targets) > 0 {
		goal := agent.Targets[len(agent.Targets)-1]
		if plan.Last().Pos != goal {
			return engerr.NewPlanError(int(agent.ID), plan.Last().T,
				fmt.Sprintf("plan ends at %v, expected goal %v", plan.Last().Pos, goal))
		}
	}

	return nil
}

func checkCrossPlanConflicts(cp *planmodel.CommonPlan) error {
	makespan := cp.Makespan()

	for t := 0; t < makespan; t++ {
		occupied := make(map[grid.Position]planmodel.AgentID)
		for _, plan := range cp.Plans {
			pos, ok := plan.Position(t, true)
			if !ok {
				continue
			}
			if other, conflict := occupied[pos]; conflict {
				return engerr.NewPlanError(int(plan.Agent), t,
					fmt.Sprintf("agents %d and %d both occupy %v at tick %d", other, plan.Agent, pos, t))
			}
			occupied[pos] = plan.Agent
		}

		if err := checkSwaps(cp, t); err != nil {
			return err
		}
	}
	return nil
}

func checkSwaps(cp *planmodel.CommonPlan, t int) error {
	type move struct {
		from, to grid.Position
		agent    planmodel.AgentID
	}
	var moves []move
	for _, plan := range cp.Plans {
		from, ok1 := plan.Position(t, true)
		to, ok2 := plan.Position(t+1, true)
		if !ok1 || !ok2 || from == to {
			continue
		}
		moves = append(moves, move{from: from, to: to, agent: plan.Agent})
	}
	for i := 0; i < len(moves); i++ {
		for j := i + 1; j < len(moves); j++ {
			if moves[i].from == moves[j].to && moves[i].to == moves[j].from {
				return engerr.NewPlanError(int(moves[i].agent), t,
					fmt.Sprintf("agents %d and %d swap along %v<->%v at tick %d",
						moves[i].agent, moves[j].agent, moves[i].from, moves[i].to, t))
			}
		}
	}
	return nil
}

func checkAllTasksServed(agents []Agent, cp *planmodel.CommonPlan) error {
	for _, agent := range agents {
		if len(agent.Targets) == 0 {
			continue
		}
		if !subsequenceInAnyPlan(cp, agent.Targets) {
			return engerr.NewPlanError(int(agent.ID), -1,
				fmt.Sprintf("target sequence %v does not appear as a subsequence in any plan", agent.Targets))
		}
	}
	return nil
}

func subsequenceInAnyPlan(cp *planmodel.CommonPlan, targets []grid.Position) bool {
	for _, plan := range cp.Plans {
		idx := 0
		for _, tp := range plan.Positions {
			if idx < len(targets) && tp.Pos == targets[idx] {
				idx++
			}
		}
		if idx == len(targets) {
			return true
		}
	}
	return false
}
