// Package distance precomputes true-distance BFS tables from selected
// endpoints over the directed graph, used as an admissible heuristic by
// Token-Passing's Timed A* calls.
package distance

import (
	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
)

// Table holds, for a single endpoint, the shortest-path distance from
// every reachable cell to that endpoint over the directed graph.
type Table struct {
	endpoint grid.Position
	dist     map[grid.Position]int
}

// True computes the BFS distances to target over the reversed directed
// graph: a cell p is a predecessor of the current cell iff an edge
// p->current exists in the map, so expanding from the target outward
// along reversed edges yields the true shortest-path distance from any
// cell to target.
func True(m *gridmap.Map, target grid.Position) *Table {
	dist := map[grid.Position]int{target: 0}

	// A plain slice with a cursor index avoids the O(n) cost of popping
	// the head of a real queue; the list only ever grows.
	open := []grid.Position{target}
	pointer := 0

	for pointer < len(open) {
		current := open[pointer]
		d := dist[current]

		for _, candidate := range grid.Neighbours(current) {
			if !m.HasEdge(candidate, current) {
				continue
			}
			if _, seen := dist[candidate]; seen {
				continue
			}
			dist[candidate] = d + 1
			open = append(open, candidate)
		}
		pointer++
	}

	return &Table{endpoint: target, dist: dist}
}

// Distance returns the shortest-path distance from p to the table's
// endpoint, or ErrDistanceTableMiss if p cannot reach the endpoint (or
// was never registered).
func (t *Table) Distance(p grid.Position) (int, error) {
	d, ok := t.dist[p]
	if !ok {
		return 0, engerr.ErrDistanceTableMiss
	}
	return d, nil
}

// Oracle merges true-distance tables for multiple endpoints into one
// flat (position, endpoint) -> distance lookup, mirroring the Java
// source's edgeMap flattening so results from many endpoint BFS runs
// can share a single structure.
type Oracle struct {
	tables map[grid.Position]*Table
}

// NewOracle computes a true-distance table for every given endpoint.
func NewOracle(m *gridmap.Map, endpoints []grid.Position) *Oracle {
	o := &Oracle{tables: make(map[grid.Position]*Table, len(endpoints))}
	for _, e := range endpoints {
		o.tables[e] = True(m, e)
	}
	return o
}

// Distance returns the true distance from p to endpoint. endpoint must
// have been one of the endpoints passed to NewOracle.
func (o *Oracle) Distance(p, endpoint grid.Position) (int, error) {
	t, ok := o.tables[endpoint]
	if !ok {
		return 0, engerr.ErrDistanceTableMiss
	}
	return t.Distance(p)
}
