// Package planmodel holds the per-agent Plan and the CommonPlan
// aggregate that every planner returns.
package planmodel

import "github.com/baumann-freiburg/mapf-core/internal/grid"

// AgentID is a stable integer handle, unique within one planner run.
// Clones (deep copies) of a Plan/CommonPlan keep the same AgentID so it
// remains a valid map key across copies.
type AgentID int

// Plan is one agent's sequence of timed positions. Times are contiguous
// ascending starting from the construction time; position(t) lookup
// within range is O(1).
type Plan struct {
	Agent     AgentID
	Positions []grid.TimedPosition
}

// NewPlan creates a plan for agent seeded with a single timed position.
func NewPlan(agent AgentID, start grid.Position, startTime int) *Plan {
	return &Plan{
		Agent:     agent,
		Positions: []grid.TimedPosition{{Pos: start, T: startTime}},
	}
}

// NewPlanFromPositions builds a plan from an untimed position sequence,
// assigning consecutive ticks starting at startTime.
func NewPlanFromPositions(agent AgentID, positions []grid.Position, startTime int) *Plan {
	p := &Plan{Agent: agent, Positions: make([]grid.TimedPosition, 0, len(positions))}
	for i, pos := range positions {
		p.Positions = append(p.Positions, grid.TimedPosition{Pos: pos, T: startTime + i})
	}
	return p
}

// Len returns the number of timed positions in the plan.
func (p *Plan) Len() int {
	return len(p.Positions)
}

// Last returns the plan's final timed position.
func (p *Plan) Last() grid.TimedPosition {
	return p.Positions[len(p.Positions)-1]
}

// StartTime returns the tick of the plan's first entry.
func (p *Plan) StartTime() int {
	return p.Positions[0].T
}

// Append adds a single timed position to the end of the plan.
func (p *Plan) Append(tp grid.TimedPosition) {
	p.Positions = append(p.Positions, tp)
}

// AppendPlan concatenates another plan's positions onto this one. The
// other plan's first entry is assumed to duplicate this plan's last
// entry's position (the sub-target boundary) and is dropped.
func (p *Plan) AppendPlan(other *Plan) {
	if len(other.Positions) == 0 {
		return
	}
	p.Positions = append(p.Positions, other.Positions[1:]...)
}

// Position returns the agent's position at tick t. If restingAssumption
// is true and t is beyond the plan's last entry, the agent is assumed to
// rest at its final position; otherwise ok is false.
func (p *Plan) Position(t int, restingAssumption bool) (grid.Position, bool) {
	start := p.Positions[0].T
	if t < start {
		return grid.Position{}, false
	}
	idx := t - start
	if idx < len(p.Positions) {
		return p.Positions[idx].Pos, true
	}
	if restingAssumption {
		return p.Positions[len(p.Positions)-1].Pos, true
	}
	return grid.Position{}, false
}

// CutAfter truncates the plan to entries up to and including tick t.
func (p *Plan) CutAfter(t int) {
	start := p.Positions[0].T
	idx := t - start + 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(p.Positions) {
		idx = len(p.Positions)
	}
	p.Positions = p.Positions[:idx]
}

// FillUp pads the plan with its last known position up to and including
// tick t, for the case where an agent reached a resting point long ago
// and its plan simply ended before t.
func (p *Plan) FillUp(t int) {
	for p.Positions[len(p.Positions)-1].T < t {
		last := p.Positions[len(p.Positions)-1]
		p.Positions = append(p.Positions, grid.TimedPosition{Pos: last.Pos, T: last.T + 1})
	}
}

// DelayFrom shifts every entry from index onward by delta ticks.
func (p *Plan) DelayFrom(index, delta int) {
	for i := index; i < len(p.Positions); i++ {
		p.Positions[i].T += delta
	}
}

// DeepCopy returns an independent copy of the plan.
func (p *Plan) DeepCopy() *Plan {
	out := &Plan{Agent: p.Agent, Positions: make([]grid.TimedPosition, len(p.Positions))}
	copy(out.Positions, p.Positions)
	return out
}

// CommonPlan is the ordered collection of per-agent plans for a
// scenario, in agent-index order.
type CommonPlan struct {
	Plans []*Plan
}

// NewCommonPlan creates an empty common plan.
func NewCommonPlan() *CommonPlan {
	return &CommonPlan{}
}

// AddPlan appends a plan to the common plan.
func (cp *CommonPlan) AddPlan(p *Plan) {
	cp.Plans = append(cp.Plans, p)
}

// Get returns the plan at the given index in agent-index order.
func (cp *CommonPlan) Get(index int) *Plan {
	return cp.Plans[index]
}

// ByAgent returns the plan owned by the given agent, or nil if absent.
func (cp *CommonPlan) ByAgent(agent AgentID) *Plan {
	for _, p := range cp.Plans {
		if p.Agent == agent {
			return p
		}
	}
	return nil
}

// Makespan returns the length of the longest plan.
func (cp *CommonPlan) Makespan() int {
	max := 0
	for _, p := range cp.Plans {
		if p.Len() > max {
			max = p.Len()
		}
	}
	return max
}

// SumOfCosts returns the sum of every plan's length.
func (cp *CommonPlan) SumOfCosts() int {
	sum := 0
	for _, p := range cp.Plans {
		sum += p.Len()
	}
	return sum
}

// DeepCopy returns an independent copy of the common plan and every
// plan it owns.
func (cp *CommonPlan) DeepCopy() *CommonPlan {
	out := &CommonPlan{Plans: make([]*Plan, len(cp.Plans))}
	for i, p := range cp.Plans {
		out.Plans[i] = p.DeepCopy()
	}
	return out
}
