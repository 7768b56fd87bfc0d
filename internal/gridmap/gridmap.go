// Package gridmap holds the directed-edge map and the dynamic-direction
// passage predicate that every planner queries before taking a step.
package gridmap

import (
	"github.com/baumann-freiburg/mapf-core/internal/grid"
)

// Map is a directed-edge grid: the set of passable edges, the grid
// dimensions, obstacle cells, and optional parking cells.
type Map struct {
	Edges        map[[2]grid.Position]grid.Edge
	Width        int
	Height       int
	Obstacles    map[grid.Position]struct{}
	ParkingSpots map[grid.Position]struct{}
}

// NewMap builds a Map from an explicit edge list.
func NewMap(width, height int, edges []grid.Edge) *Map {
	m := &Map{
		Edges:        make(map[[2]grid.Position]grid.Edge, len(edges)),
		Width:        width,
		Height:       height,
		Obstacles:    make(map[grid.Position]struct{}),
		ParkingSpots: make(map[grid.Position]struct{}),
	}
	for _, e := range edges {
		m.Edges[e.Key()] = e
	}
	return m
}

// HasEdge reports whether the directed edge source->target is in the map.
func (m *Map) HasEdge(source, target grid.Position) bool {
	_, ok := m.Edges[[2]grid.Position{source, target}]
	return ok
}

// AddObstacle marks a cell as impassable.
func (m *Map) AddObstacle(p grid.Position) {
	m.Obstacles[p] = struct{}{}
}

// AddParkingSpot marks a cell as a parking/resting endpoint.
func (m *Map) AddParkingSpot(p grid.Position) {
	m.ParkingSpots[p] = struct{}{}
}

// IsObstacle reports whether p is an obstacle cell.
func (m *Map) IsObstacle(p grid.Position) bool {
	_, ok := m.Obstacles[p]
	return ok
}

// DeepCopy returns an independent copy of the map.
func (m *Map) DeepCopy() *Map {
	out := &Map{
		Edges:        make(map[[2]grid.Position]grid.Edge, len(m.Edges)),
		Width:        m.Width,
		Height:       m.Height,
		Obstacles:    make(map[grid.Position]struct{}, len(m.Obstacles)),
		ParkingSpots: make(map[grid.Position]struct{}, len(m.ParkingSpots)),
	}
	for k, v := range m.Edges {
		out.Edges[k] = v
	}
	for p := range m.Obstacles {
		out.Obstacles[p] = struct{}{}
	}
	for p := range m.ParkingSpots {
		out.ParkingSpots[p] = struct{}{}
	}
	return out
}

// Undirect adds, for every edge, its reverse if absent, flagged as a
// copy. Edge equality ignores the Copy flag (grid.Edge.Key), so calling
// Undirect on an already-undirected map adds nothing: that's the
// idempotence property required of this operation.
func (m *Map) Undirect() {
	additions := make([]grid.Edge, 0, len(m.Edges))
	for _, e := range m.Edges {
		rev := e.Reverse()
		if _, exists := m.Edges[rev.Key()]; !exists {
			additions = append(additions, rev)
		}
	}
	for _, e := range additions {
		m.Edges[e.Key()] = e
	}
}

// MapManager wraps a Map with a direction-change frequency and answers
// whether a directed edge is passable at a given tick.
type MapManager struct {
	Map                      *Map
	DirectionChangeFrequency int
}

// NewMapManager constructs a MapManager. A frequency of 0 means a static
// map: every edge present in the map is always passable.
func NewMapManager(m *Map, directionChangeFrequency int) *MapManager {
	return &MapManager{Map: m, DirectionChangeFrequency: directionChangeFrequency}
}

// PassagePermitted reports whether the directed edge in te may be
// traversed at te.T. It has no side effects and fails only via its
// return value.
func (mm *MapManager) PassagePermitted(te grid.TimedEdge) bool {
	if !mm.Map.HasEdge(te.Edge.Source, te.Edge.Target) {
		return false
	}

	f := mm.DirectionChangeFrequency
	if f <= 0 {
		return true
	}

	timeframe := te.T / f

	var section, axisCoord, orientation int
	var horizontal bool

	if te.Edge.Horizontal() {
		horizontal = true
		section = min(te.Edge.Source.X, te.Edge.Target.X) / f
		axisCoord = te.Edge.Source.Y
		if te.Edge.Source.X < te.Edge.Target.X {
			orientation = 1
		}
	} else {
		horizontal = false
		section = min(te.Edge.Source.Y, te.Edge.Target.Y) / f
		axisCoord = te.Edge.Source.X
		if te.Edge.Source.Y < te.Edge.Target.Y {
			orientation = 1
		}
	}

	period := timeframe + section + axisCoord + orientation
	odd := period%2 != 0

	if horizontal {
		return odd
	}
	return !odd
}
