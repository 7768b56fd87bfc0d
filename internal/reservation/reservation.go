// Package reservation implements the shared space-time reservation
// substrate used by Cooperative A* and Token-Passing: cell reservations,
// edge reservations, and permanent-from reservations, each indexed by
// agent (for rollback) and by cell (for the resting/free-forever
// predicates).
package reservation

import "github.com/baumann-freiburg/mapf-core/internal/grid"

type claimKind int

const (
	kindCell claimKind = iota
	kindEdge
	kindPermanent
)

type claim struct {
	kind claimKind
	pos  grid.Position // cell or permanent
	edge grid.Edge     // edge
	t    int
}

// Table is the reservation table. It is exclusively owned by one planner
// run at a time.
type Table struct {
	all          map[claim]int
	byAgent      map[int]map[claim]int
	byPosition   map[grid.Position]map[int]struct{}
	permanent    map[grid.Position]int
	hasPermanent map[grid.Position]bool
}

// NewTable creates an empty reservation table.
func NewTable() *Table {
	return &Table{
		all:          make(map[claim]int),
		byAgent:      make(map[int]map[claim]int),
		byPosition:   make(map[grid.Position]map[int]struct{}),
		permanent:    make(map[grid.Position]int),
		hasPermanent: make(map[grid.Position]bool),
	}
}

func cellClaim(p grid.Position, t int) claim {
	return claim{kind: kindCell, pos: p, t: t}
}

func permanentClaim(p grid.Position) claim {
	return claim{kind: kindPermanent, pos: p}
}

func edgeClaim(from, to grid.Position, t int) claim {
	return claim{kind: kindEdge, edge: grid.Edge{Source: from, Target: to}, t: t}
}

// IsCellFree reports whether cell p is unreserved at tick t: no exact
// cell reservation at (p,t), and no permanent-from reservation for p
// that started at or before t.
func (tbl *Table) IsCellFree(p grid.Position, t int) bool {
	if _, reserved := tbl.all[cellClaim(p, t)]; reserved {
		return false
	}
	if start, ok := tbl.hasPermanentStart(p); ok {
		return start > t
	}
	return true
}

func (tbl *Table) hasPermanentStart(p grid.Position) (int, bool) {
	if tbl.hasPermanent[p] {
		return tbl.permanent[p], true
	}
	return 0, false
}

// IsFreeForever reports whether p is free at t and will remain
// unreserved at every tick after t. Call this before permanently
// reserving a cell.
func (tbl *Table) IsFreeForever(p grid.Position, t int) bool {
	if !tbl.IsCellFree(p, t) {
		return false
	}
	ticks, ok := tbl.byPosition[p]
	if !ok {
		return true
	}
	for rt := range ticks {
		if t < rt {
			return false
		}
	}
	return true
}

// RestingAllowed reports whether an agent may rest at p indefinitely
// starting at tick now: true iff no reservation exists for p at any tick
// strictly after now. Callers should cancel the agent's own reservations
// first so it does not block itself.
func (tbl *Table) RestingAllowed(p grid.Position, now int) bool {
	ticks, ok := tbl.byPosition[p]
	if !ok {
		return true
	}
	for t := range ticks {
		if t > now {
			return false
		}
	}
	return true
}

// IsEdgeFree reports whether the directed move from->to starting at
// tick t is unreserved, considering both this edge and the reverse
// (swap) edge at the same start time.
func (tbl *Table) IsEdgeFree(from, to grid.Position, t int) bool {
	if _, reserved := tbl.all[edgeClaim(from, to, t)]; reserved {
		return false
	}
	if _, reserved := tbl.all[edgeClaim(to, from, t)]; reserved {
		return false
	}
	return true
}

// ReserveCell reserves cell p at tick t for agent. If permanent is true,
// it also reserves p from t onward forever.
func (tbl *Table) ReserveCell(agent int, p grid.Position, t int, permanent bool) {
	c := cellClaim(p, t)
	tbl.all[c] = t
	tbl.agentMap(agent)[c] = t
	tbl.addPositional(p, t)

	if permanent {
		pc := permanentClaim(p)
		tbl.all[pc] = t
		tbl.agentMap(agent)[pc] = t
		tbl.hasPermanent[p] = true
		tbl.permanent[p] = t
	}
}

// ReserveEdge reserves the directed move from->to at tick t for agent.
func (tbl *Table) ReserveEdge(agent int, from, to grid.Position, t int) {
	c := edgeClaim(from, to, t)
	tbl.all[c] = t
	tbl.agentMap(agent)[c] = t
}

// CancelAgentReservations removes every reservation recorded under
// agent from all three indices.
func (tbl *Table) CancelAgentReservations(agent int) {
	claims := tbl.byAgent[agent]
	for c, t := range claims {
		delete(tbl.all, c)
		tbl.removePositional(c, t)
		if c.kind == kindPermanent {
			delete(tbl.hasPermanent, c.pos)
			delete(tbl.permanent, c.pos)
		}
	}
	tbl.byAgent[agent] = make(map[claim]int)
}

func (tbl *Table) agentMap(agent int) map[claim]int {
	m, ok := tbl.byAgent[agent]
	if !ok {
		m = make(map[claim]int)
		tbl.byAgent[agent] = m
	}
	return m
}

func (tbl *Table) addPositional(p grid.Position, t int) {
	ticks, ok := tbl.byPosition[p]
	if !ok {
		ticks = make(map[int]struct{})
		tbl.byPosition[p] = ticks
	}
	ticks[t] = struct{}{}
}

func (tbl *Table) removePositional(c claim, t int) {
	if c.kind != kindCell && c.kind != kindPermanent {
		return
	}
	if ticks, ok := tbl.byPosition[c.pos]; ok {
		delete(ticks, t)
	}
}
