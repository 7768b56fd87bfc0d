// Package tokenpassing implements the online, tick-driven Token-Passing
// scheduler for lifelong multi-agent pickup-and-delivery: free agents
// claim available tasks or fall back to resting at a free endpoint,
// using true-distance heuristics and a shared reservation table.
package tokenpassing

import (
	"sort"

	"github.com/baumann-freiburg/mapf-core/internal/distance"
	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/reservation"
	"github.com/baumann-freiburg/mapf-core/internal/spacetime"
)

// TaskID identifies one pickup-delivery task.
type TaskID int

// Task is a pickup+delivery (or single-target) task with an availability
// tick. StartedAt/CompletedAt are -1 until set.
type Task struct {
	ID           TaskID
	Targets      []grid.Position // [pickup, delivery] or [target]
	Availability int
	StartedAt    int
	CompletedAt  int
}

// Agent is the minimal scenario view Token-Passing needs.
type Agent struct {
	ID    planmodel.AgentID
	Start grid.Position
}

// Params bundles one Token-Passing run's configuration.
type Params struct {
	MapManager   *gridmap.MapManager
	Agents       []Agent
	Tasks        []Task
	TimeHorizon  int
	// TaskTimeHorizon bounds how long the engine waits after the last
	// task becomes available before giving up (spec §12 parameter
	// surface, taskTimeHorizon).
	TaskTimeHorizon int
}

// Token is the process-wide mutable state owned by one Token-Passing
// run: the reservation table, per-agent plans, and the task queues.
type Token struct {
	table *reservation.Table
	plans map[planmodel.AgentID]*planmodel.Plan

	free      map[planmodel.AgentID]bool
	available map[TaskID]*Task
	claimed   map[TaskID]*Task
	pending   []*Task // sorted by availability, not yet released

	claimedBy map[planmodel.AgentID]TaskID

	deliveryOfAvailable map[grid.Position]bool

	now int
}

// Run executes the Token-Passing main loop and returns the assembled
// common plan, or engerr.ErrUnsolvable if some free agent could neither
// claim a task nor find anywhere legal to rest.
func Run(p Params) (*planmodel.CommonPlan, error) {
	endpoints := identifyEndpoints(p)
	oracle := distance.NewOracle(p.MapManager.Map, endpoints)

	tok := newToken(p)

	taskTimeHorizon := p.TaskTimeHorizon
	if lt := lastTaskTime(p.Tasks); lt > taskTimeHorizon {
		taskTimeHorizon = lt
	}

	for tok.now <= p.TimeHorizon {
		tok.addNewTasks(tok.now)

		// First pass: free agents attempt to claim an available task.
		for _, id := range tok.freeAgentsSnapshot() {
			if tok.planForTask(p.MapManager, oracle, id) {
				continue
			}
		}

		// Second pass: remaining free agents rest or wait.
		for _, id := range tok.freeAgentsSnapshot() {
			// Per spec §9's resolved open question, evaluate blocking()
			// first: if the agent's current cell is fine to hold, give
			// it a trivial (stay-forever) plan; otherwise it must move
			// to a legal resting endpoint.
			if !tok.blocking(id) {
				tok.setTrivialPath(id)
				continue
			}
			if !tok.planForEndpoint(p.MapManager, oracle, id, endpoints) {
				return nil, engerr.ErrUnsolvable
			}
		}

		tok.step(p.Tasks)
		tok.now++

		if tok.allTasksDone() && tok.now > taskTimeHorizon {
			return tok.assembleCommonPlan(p.Agents), nil
		}
	}

	return tok.assembleCommonPlan(p.Agents), nil
}

func newToken(p Params) *Token {
	tok := &Token{
		table:               reservation.NewTable(),
		plans:               make(map[planmodel.AgentID]*planmodel.Plan),
		free:                make(map[planmodel.AgentID]bool),
		available:           make(map[TaskID]*Task),
		claimed:             make(map[TaskID]*Task),
		claimedBy:           make(map[planmodel.AgentID]TaskID),
		deliveryOfAvailable: make(map[grid.Position]bool),
	}

	pending := make([]*Task, len(p.Tasks))
	for i := range p.Tasks {
		t := p.Tasks[i]
		t.StartedAt = -1
		t.CompletedAt = -1
		pending[i] = &t
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Availability < pending[j].Availability })
	tok.pending = pending

	for _, a := range p.Agents {
		tok.plans[a.ID] = planmodel.NewPlan(a.ID, a.Start, 0)
		tok.free[a.ID] = true
		// initializeTrivialPaths: every agent starts resting forever at
		// its own start cell.
		tok.table.ReserveCell(int(a.ID), a.Start, 0, true)
	}

	return tok
}

func identifyEndpoints(p Params) []grid.Position {
	seen := make(map[grid.Position]bool)
	var out []grid.Position
	add := func(pos grid.Position) {
		if !seen[pos] {
			seen[pos] = true
			out = append(out, pos)
		}
	}
	for _, a := range p.Agents {
		add(a.Start)
	}
	for _, t := range p.Tasks {
		for _, target := range t.Targets {
			add(target)
		}
	}
	for pos := range p.MapManager.Map.ParkingSpots {
		add(pos)
	}
	return out
}

func lastTaskTime(tasks []Task) int {
	max := 0
	for _, t := range tasks {
		if t.Availability > max {
			max = t.Availability
		}
	}
	return max
}

func (tok *Token) freeAgentsSnapshot() []planmodel.AgentID {
	var out []planmodel.AgentID
	for id, isFree := range tok.free {
		if isFree {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (tok *Token) addNewTasks(now int) {
	var remaining []*Task
	for _, t := range tok.pending {
		if t.Availability == now {
			tok.available[t.ID] = t
			tok.deliveryOfAvailable[t.Targets[len(t.Targets)-1]] = true
		} else {
			remaining = append(remaining, t)
		}
	}
	tok.pending = remaining
}

func (tok *Token) allTasksDone() bool {
	return len(tok.available) == 0 && len(tok.claimed) == 0 && len(tok.pending) == 0
}

// planForTask tries to assign the nearest (by true pickup distance)
// available task, whose pickup/delivery cell is not already the
// terminal of another agent's plan, to agent id.
func (tok *Token) planForTask(mm *gridmap.MapManager, oracle *distance.Oracle, id planmodel.AgentID) bool {
	agentPlan := tok.plans[id]
	from := agentPlan.Last().Pos

	candidates := tok.taskCandidates(id, from, oracle)
	if len(candidates) == 0 {
		return false
	}

	tok.table.CancelAgentReservations(int(id))
	agentPlan.CutAfter(tok.now)

	for _, task := range candidates {
		pickup := task.Targets[0]
		delivery := task.Targets[len(task.Targets)-1]

		toPickup, err := tok.timedSearch(mm, id, from, agentPlan.Last().T, pickup, trueDistanceHeuristic(oracle, pickup))
		if err != nil {
			continue
		}

		toDelivery, err := tok.timedSearch(mm, id, pickup, toPickup.Last().T, delivery, trueDistanceHeuristic(oracle, delivery))
		if err != nil {
			tok.table.CancelAgentReservations(int(id))
			continue
		}

		agentPlan.AppendPlan(toPickup)
		agentPlan.AppendPlan(toDelivery)

		tok.claimTask(id, task)
		return true
	}

	return false
}

func (tok *Token) taskCandidates(id planmodel.AgentID, from grid.Position, oracle *distance.Oracle) []*Task {
	occupiedTerminal := make(map[grid.Position]bool)
	for otherID, plan := range tok.plans {
		if otherID == id {
			continue
		}
		occupiedTerminal[plan.Last().Pos] = true
	}

	var out []*Task
	for _, task := range tok.available {
		pickup := task.Targets[0]
		delivery := task.Targets[len(task.Targets)-1]
		if occupiedTerminal[pickup] || occupiedTerminal[delivery] {
			continue
		}
		out = append(out, task)
	}

	sort.Slice(out, func(i, j int) bool {
		di, _ := oracle.Distance(from, out[i].Targets[0])
		dj, _ := oracle.Distance(from, out[j].Targets[0])
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// planForEndpoint tries to move the agent to a legal resting endpoint,
// sorted by true distance, and finally a bare wait-in-place.
func (tok *Token) planForEndpoint(mm *gridmap.MapManager, oracle *distance.Oracle, id planmodel.AgentID, endpoints []grid.Position) bool {
	agentPlan := tok.plans[id]
	from := agentPlan.Last().Pos

	tok.table.CancelAgentReservations(int(id))
	agentPlan.CutAfter(tok.now)

	for _, endpoint := range tok.restingCandidates(endpoints, oracle, from) {
		toEndpoint, err := tok.timedSearch(mm, id, from, agentPlan.Last().T, endpoint, trueDistanceHeuristic(oracle, endpoint))
		if err != nil {
			continue
		}
		agentPlan.AppendPlan(toEndpoint)
		return true
	}

	// Nothing reachable: attempt to wait one tick in place.
	next := grid.TimedPosition{Pos: from, T: agentPlan.Last().T + 1}
	if tok.table.IsCellFree(next.Pos, next.T) {
		tok.table.ReserveCell(int(id), next.Pos, next.T, false)
		agentPlan.Append(next)
		return true
	}

	return false
}

func (tok *Token) restingCandidates(endpoints []grid.Position, oracle *distance.Oracle, from grid.Position) []grid.Position {
	var out []grid.Position
	for _, e := range endpoints {
		if tok.deliveryOfAvailable[e] {
			continue
		}
		if !tok.table.RestingAllowed(e, tok.now) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		di, _ := oracle.Distance(from, out[i])
		dj, _ := oracle.Distance(from, out[j])
		return di < dj
	})
	return out
}

func (tok *Token) timedSearch(mm *gridmap.MapManager, id planmodel.AgentID, from grid.Position, fromTime int, target grid.Position, h spacetime.Heuristic) (*planmodel.Plan, error) {
	legality := func(src, dst grid.Position, t int) bool {
		if src == dst {
			return tok.table.IsCellFree(dst, t+1)
		}
		return tok.table.IsCellFree(dst, t+1) &&
			tok.table.IsEdgeFree(src, dst, t) &&
			mm.PassagePermitted(grid.TimedEdge{Edge: grid.Edge{Source: src, Target: dst}, T: t})
	}
	goalAcceptance := func(pos grid.Position, t int) bool {
		return tok.table.IsFreeForever(pos, t)
	}

	plan, err := spacetime.Search(spacetime.Params{
		Start:          grid.TimedPosition{Pos: from, T: fromTime},
		Goal:           target,
		Legality:       legality,
		Heuristic:      h,
		Horizon:        fromTime + 10000,
		GoalAcceptance: goalAcceptance,
	})
	if err != nil {
		return nil, err
	}

	reservePath(tok.table, int(id), plan)
	return plan, nil
}

// reservePath reserves every cell/edge on plan and makes the final cell
// permanent, mirroring castar's reconstruction-time reservation.
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

func trueDistanceHeuristic(oracle *distance.Oracle, goal grid.Position) spacetime.Heuristic {
	return func(pos grid.Position) int {
		d, err := oracle.Distance(pos, goal)
		if err != nil {
			return pos.Manhattan(goal)
		}
		return d
	}
}

// blocking reports whether agent id must vacate its current cell: true
// iff resting there is not allowed, or the cell is the delivery location
// of a presently available task.
func (tok *Token) blocking(id planmodel.AgentID) bool {
	agentPlan := tok.plans[id]

	tok.table.CancelAgentReservations(int(id))
	agentPlan.CutAfter(tok.now)
	if agentPlan.Last().T < tok.now {
		agentPlan.Append(grid.TimedPosition{Pos: agentPlan.Last().Pos, T: tok.now})
	}

	pos := agentPlan.Last().Pos
	return !tok.table.RestingAllowed(pos, tok.now) || tok.deliveryOfAvailable[pos]
}

// setTrivialPath makes agent id rest at its current cell forever.
func (tok *Token) setTrivialPath(id planmodel.AgentID) {
	agentPlan := tok.plans[id]
	if agentPlan.Last().T < tok.now {
		agentPlan.Append(grid.TimedPosition{Pos: agentPlan.Last().Pos, T: tok.now})
	}
	pos := agentPlan.Last().Pos
	tok.table.ReserveCell(int(id), pos, tok.now, true)
}

func (tok *Token) claimTask(id planmodel.AgentID, task *Task) {
	delete(tok.available, task.ID)
	tok.claimed[task.ID] = task
	tok.claimedBy[id] = task.ID
	tok.free[id] = false
	delete(tok.deliveryOfAvailable, task.Targets[len(task.Targets)-1])
}

func (tok *Token) setTaskComplete(id planmodel.AgentID, taskID TaskID, now int, tasks []Task) {
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].CompletedAt = now
		}
	}
	delete(tok.claimed, taskID)
	delete(tok.claimedBy, id)
	tok.free[id] = true
}

// step advances every agent one tick, marking pickup-started and
// delivery-complete transitions.
func (tok *Token) step(tasks []Task) {
	for id, plan := range tok.plans {
		pos, _ := plan.Position(tok.now, true)

		taskID, claimed := tok.claimedBy[id]
		if claimed {
			for i := range tasks {
				if tasks[i].ID == taskID && tasks[i].StartedAt == -1 && pos == tasks[i].Targets[0] {
					tasks[i].StartedAt = tok.now
				}
			}
			if plan.Last().Pos == pos && plan.Last().T == tok.now {
				tok.setTaskComplete(id, taskID, tok.now, tasks)
			}
		}
	}
}

func (tok *Token) assembleCommonPlan(agents []Agent) *planmodel.CommonPlan {
	cp := planmodel.NewCommonPlan()
	for _, a := range agents {
		cp.AddPlan(tok.plans[a.ID])
	}
	return cp
}
