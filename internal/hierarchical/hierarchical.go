// Package hierarchical implements the Enhanced Hierarchical Planner
// (spec §4.7): the map is divided into regions, each agent's
// independent shortest path is split into per-region traversals, and
// conflicts are resolved region-by-region with Conflict-Based Search
// (internal/cbs), splicing the repaired sub-plans back into each
// agent's plan.
package hierarchical

import (
	"github.com/baumann-freiburg/mapf-core/internal/cbs"
	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

// Agent is the minimal scenario view the planner needs. Only a single
// target is supported (classic MAPF), per spec §4.7.
type Agent struct {
	ID     planmodel.AgentID
	Start  grid.Position
	Target grid.Position
}

// Params bundles one hierarchical-planning run's configuration.
type Params struct {
	MapManager  *gridmap.MapManager
	Agents      []Agent
	TimeHorizon int
}

type agentPlan struct {
	agent      Agent
	traversals []*cbs.Traversal
	plan       *planmodel.Plan
}

// Run executes the hierarchical planner's main loop (spec §4.7):
// compute a high-level (region-sequence) plan per agent, then fix
// conflicts tick by tick by running CBS on whichever region has one,
// splicing the repaired traversal plans back in, until no conflicts
// remain or no repair is found.
func Run(p Params) (*planmodel.CommonPlan, error) {
	container, mm := buildContainer(p.MapManager)

	plans := make([]*agentPlan, 0, len(p.Agents))
	for _, a := range p.Agents {
		ap, err := computeHighLevelPlan(mm, container, a)
		if err != nil {
			return nil, err
		}
		plans = append(plans, ap)
	}

	byRegion := make(map[int][]*cbs.Traversal)
	for _, ap := range plans {
		for _, t := range ap.traversals {
			byRegion[t.Region] = append(byRegion[t.Region], t)
		}
	}

	for tck := 0; tck <= currentMakespan(plans); tck++ {
		for {
			region, ok := findConflictRegion(container, plans, tck)
			if !ok {
				break
			}

			travs := byRegion[region]
			newPlans, err := cbs.Search(mm, travs, tck, p.TimeHorizon, nil)
			if err != nil {
				return nil, engerr.ErrUnsolvable
			}
			for i, t := range travs {
				t.Plan = newPlans[i]
			}
			rebuildAgentPlans(plans)
		}
	}

	cp := planmodel.NewCommonPlan()
	for _, ap := range plans {
		cp.AddPlan(ap.plan)
	}
	return cp, nil
}

// computeHighLevelPlan finds an agent's independent shortest path and
// splits it into one Traversal per maximal run of positions within a
// single region.
func computeHighLevelPlan(mm *gridmap.MapManager, container *Container, a Agent) (*agentPlan, error) {
	positions, err := highLevelAStar(mm, a.Start, a.Target)
	if err != nil {
		return nil, err
	}
	full := append([]grid.Position{a.Start}, positions...)

	ap := &agentPlan{agent: a}

	var groupStart int
	currentRegion := container.RegionIndex(full[0])
	travIndex := 0

	flush := func(endIdx int) {
		group := full[groupStart : endIdx+1]
		plan := planmodel.NewPlanFromPositions(a.ID, group, groupStart)
		ap.traversals = append(ap.traversals, &cbs.Traversal{
			Agent:  a.ID,
			Index:  travIndex,
			Region: currentRegion,
			Target: group[len(group)-1],
			Plan:   plan,
		})
		travIndex++
	}

	for i := 1; i < len(full); i++ {
		r := container.RegionIndex(full[i])
		if r != currentRegion {
			flush(i - 1)
			groupStart = i
			currentRegion = r
		}
	}
	flush(len(full) - 1)
	ap.traversals[len(ap.traversals)-1].IsGoalRegion = true

	rebuildPlan(ap)
	return ap, nil
}

// rebuildPlan concatenates every traversal's positions, in traversal
// order, and renumbers ticks contiguously from 0, writing the same
// renumbering back into each traversal's own Plan. Renumbering (rather
// than trusting each traversal's own absolute ticks) keeps both the
// agent's full plan and every traversal's plan in the same tick space
// even after an earlier traversal's CBS repair changed its length.
func rebuildPlan(ap *agentPlan) {
	tick := 0
	var positions []grid.Position
	for _, t := range ap.traversals {
		for i := range t.Plan.Positions {
			t.Plan.Positions[i].T = tick
			positions = append(positions, t.Plan.Positions[i].Pos)
			tick++
		}
	}
	ap.plan = planmodel.NewPlanFromPositions(ap.agent.ID, positions, 0)
}

// rebuildAgentPlans recomputes every agent's full plan by concatenating
// its traversals in order. Because rebuildPlan renumbers ticks from 0,
// a traversal that grew or shrank in a CBS repair shifts the ticks of
// every later traversal of the same agent by the change in length.
func rebuildAgentPlans(plans []*agentPlan) {
	for _, ap := range plans {
		rebuildPlan(ap)
	}
}

// currentMakespan returns the longest plan length across plans,
// recomputed on every call so the outer tick loop in Run keeps
// covering a repair's extended tail instead of a bound captured before
// the first repair ran.
func currentMakespan(plans []*agentPlan) int {
	makespan := 0
	for _, ap := range plans {
		if ap.plan.Len() > makespan {
			makespan = ap.plan.Len()
		}
	}
	return makespan
}

// findConflictRegion looks for a same-cell or swap conflict at tick t
// across every agent's current plan and returns the region it occurs
// in (spec §4.7's findConflictRegion).
func findConflictRegion(container *Container, plans []*agentPlan, t int) (int, bool) {
	occupied := make(map[grid.Position]bool)
	edges := make(map[grid.Edge]bool)

	for _, ap := range plans {
		pos, ok := ap.plan.Position(t, true)
		if !ok {
			continue
		}
		next, ok := ap.plan.Position(t+1, true)
		if !ok {
			next = pos
		}

		if occupied[pos] || edges[grid.Edge{Source: next, Target: pos}] {
			return container.RegionIndex(pos), true
		}
		occupied[pos] = true
		edges[grid.Edge{Source: pos, Target: next}] = true
	}
	return 0, false
}
