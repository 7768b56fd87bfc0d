// Package scenario holds the algorithm-agnostic scenario representation
// every planner and the evaluation harness share: a map, a set of
// agents, and — for dynamic (MAPD) scenarios — a task pool (spec §3,
// §6).
package scenario

import (
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
)

// Algorithm names the planner to run (spec §6, grounded on
// ParameterReader.java's MAPFAlgorithm enum).
type Algorithm string

const (
	CAStar                    Algorithm = "CA_STAR"
	TokenPassing              Algorithm = "TokenPassing"
	HierarchicalPlanner       Algorithm = "HierarchicalPlanner"
	EnhancedHierarchicalPlanner Algorithm = "EnhancedHierarchicalPlanner"
	RuntimeReplanner          Algorithm = "RuntimeReplanner"
	AlternatingRuntimeReplanner Algorithm = "AlternatingRuntimeReplanner"
	TrafficSimulator          Algorithm = "TrafficSimulator"
)

// Classic reports whether the algorithm solves single-target MAPF
// scenarios (as opposed to lifelong MAPD ones).
func (a Algorithm) Classic() bool {
	switch a {
	case CAStar, HierarchicalPlanner, EnhancedHierarchicalPlanner,
		RuntimeReplanner, AlternatingRuntimeReplanner, TrafficSimulator:
		return true
	default:
		return false
	}
}

// Dynamic reports whether the algorithm supports lifelong MAPD task
// streams.
func (a Algorithm) Dynamic() bool {
	return a == TokenPassing || a == CAStar
}

// SupportsDirectionChange reports whether the algorithm can run on a
// map whose edges alternate direction (spec §11's domain stack note).
func (a Algorithm) SupportsDirectionChange() bool {
	return a == CAStar || a == AlternatingRuntimeReplanner
}

// Task is a sequence of positions a single agent must visit in order,
// available for assignment starting at Available (spec §3).
type Task struct {
	ID        int
	Targets   []grid.Position
	Available int
}

// Agent is a scenario participant: a start position and, for classic
// scenarios, its single target sequence (dynamic scenarios draw tasks
// from the scenario's Tasks pool instead).
type Agent struct {
	ID      planmodel.AgentID
	Name    string
	Start   grid.Position
	Targets []grid.Position
}

// Scenario bundles a map, its agents, and (for dynamic scenarios) the
// task pool.
type Scenario struct {
	MapManager *gridmap.MapManager
	Agents     []Agent
	Tasks      []Task
	Dynamic    bool
}

// DeepCopy returns an independent copy of the scenario, suitable for
// running under a different map-manager configuration (e.g. undirected
// vs. directed vs. dynamic edges) without disturbing the original.
func (s *Scenario) DeepCopy() *Scenario {
	out := &Scenario{
		MapManager: gridmap.NewMapManager(s.MapManager.Map.DeepCopy(), s.MapManager.DirectionChangeFrequency),
		Agents:     append([]Agent(nil), s.Agents...),
		Tasks:      append([]Task(nil), s.Tasks...),
		Dynamic:    s.Dynamic,
	}
	return out
}

// Undirected returns a deep copy of s whose map has been undirected
// (every edge gains its reverse if absent) and whose direction-change
// frequency is set to freq (0 for a static bidirectional graph, >0 for
// a dynamic alternating one).
func (s *Scenario) Undirected(freq int) *Scenario {
	out := s.DeepCopy()
	out.MapManager.Map.Undirect()
	out.MapManager.DirectionChangeFrequency = freq
	return out
}
