// Package scenarioio marshals and unmarshals scenario.Scenario to and
// from the two YAML dialects the original framework used: a classic
// dialect (fixed per-agent goal, spec §3) and a dynamic dialect
// (shared task pool, spec §6), both grounded on the YamlClassicScenario
// and YamlDynamicScenario family of loader types.
package scenarioio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/scenario"
)

// classicAgent mirrors YamlClassicAgent's fields.
type classicAgent struct {
	Name  string `yaml:"name,omitempty"`
	Start []int  `yaml:"start"`
	Goal  []int  `yaml:"goal"`
}

// dynamicAgent mirrors YamlDynamicAgent's fields.
type dynamicAgent struct {
	Name  string `yaml:"name,omitempty"`
	Start []int  `yaml:"start"`
}

// dynamicTask mirrors YamlDynamicTask's fields: positions are pairwise
// coordinates, [x0, y0, x1, y1, ...].
type dynamicTask struct {
	Available int   `yaml:"available"`
	Positions []int `yaml:"positions"`
}

// classicMap mirrors YamlClassicMap's fields.
type classicMap struct {
	Dimensions []int   `yaml:"dimensions"`
	Obstacles  [][]int `yaml:"obstacles,omitempty"`
	Edges      [][]int `yaml:"edges"`
}

// dynamicMap mirrors YamlDynamicMap's fields (adds parkingSpots).
type dynamicMap struct {
	Dimensions   []int   `yaml:"dimensions"`
	Obstacles    [][]int `yaml:"obstacles,omitempty"`
	ParkingSpots [][]int `yaml:"parkingSpots,omitempty"`
	Edges        [][]int `yaml:"edges"`
}

type classicFile struct {
	Agents []classicAgent `yaml:"agents"`
	Map    classicMap     `yaml:"map"`
}

type dynamicFile struct {
	Agents []dynamicAgent `yaml:"agents"`
	Tasks  []dynamicTask  `yaml:"tasks"`
	Map    dynamicMap     `yaml:"map"`
}

// LoadClassic parses a classic-dialect scenario file (fixed per-agent
// goal, no task pool).
func LoadClassic(path string) (*scenario.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenarioio: read %s: %w", path, err)
	}
	var f classicFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("scenarioio: parse %s: %w", path, err)
	}

	m, err := buildMap(f.Map.Dimensions, f.Map.Obstacles, nil, f.Map.Edges)
	if err != nil {
		return nil, err
	}

	agents := make([]scenario.Agent, len(f.Agents))
	for i, a := range f.Agents {
		start, err := coord2(a.Start)
		if err != nil {
			return nil, fmt.Errorf("scenarioio: agent %d start: %w", i, err)
		}
		goal, err := coord2(a.Goal)
		if err != nil {
			return nil, fmt.Errorf("scenarioio: agent %d goal: %w", i, err)
		}
		agents[i] = scenario.Agent{
			ID:      planmodel.AgentID(i),
			Name:    a.Name,
			Start:   start,
			Targets: []grid.Position{goal},
		}
	}

	return &scenario.Scenario{
		MapManager: gridmap.NewMapManager(m, 0),
		Agents:     agents,
		Dynamic:    false,
	}, nil
}

// LoadDynamic parses a dynamic-dialect scenario file (shared task
// pool, parking spots, spec §6).
func LoadDynamic(path string) (*scenario.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenarioio: read %s: %w", path, err)
	}
	var f dynamicFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("scenarioio: parse %s: %w", path, err)
	}

	m, err := buildMap(f.Map.Dimensions, f.Map.Obstacles, f.Map.ParkingSpots, f.Map.Edges)
	if err != nil {
		return nil, err
	}

	agents := make([]scenario.Agent, len(f.Agents))
	for i, a := range f.Agents {
		start, err := coord2(a.Start)
		if err != nil {
			return nil, fmt.Errorf("scenarioio: agent %d start: %w", i, err)
		}
		agents[i] = scenario.Agent{ID: planmodel.AgentID(i), Name: a.Name, Start: start}
	}

	tasks := make([]scenario.Task, len(f.Tasks))
	for i, task := range f.Tasks {
		if len(task.Positions)%2 != 0 {
			return nil, fmt.Errorf("scenarioio: task %d has an odd number of coordinates", i)
		}
		targets := make([]grid.Position, len(task.Positions)/2)
		for j := range targets {
			targets[j] = grid.Position{X: task.Positions[j*2], Y: task.Positions[j*2+1]}
		}
		tasks[i] = scenario.Task{ID: i, Targets: targets, Available: task.Available}
	}

	return &scenario.Scenario{
		MapManager: gridmap.NewMapManager(m, 0),
		Agents:     agents,
		Tasks:      tasks,
		Dynamic:    true,
	}, nil
}

// SaveClassic writes s in the classic dialect to path.
func SaveClassic(path string, s *scenario.Scenario) error {
	f := classicFile{
		Map: mapToClassic(s.MapManager),
	}
	for _, a := range s.Agents {
		goal := a.Start
		if len(a.Targets) > 0 {
			goal = a.Targets[0]
		}
		f.Agents = append(f.Agents, classicAgent{
			Name:  a.Name,
			Start: []int{a.Start.X, a.Start.Y},
			Goal:  []int{goal.X, goal.Y},
		})
	}
	return writeYAML(path, f)
}

// SaveDynamic writes s in the dynamic dialect to path.
func SaveDynamic(path string, s *scenario.Scenario) error {
	f := dynamicFile{
		Map: mapToDynamic(s.MapManager),
	}
	for _, a := range s.Agents {
		f.Agents = append(f.Agents, dynamicAgent{Name: a.Name, Start: []int{a.Start.X, a.Start.Y}})
	}
	for _, t := range s.Tasks {
		positions := make([]int, 0, len(t.Targets)*2)
		for _, p := range t.Targets {
			positions = append(positions, p.X, p.Y)
		}
		f.Tasks = append(f.Tasks, dynamicTask{Available: t.Available, Positions: positions})
	}
	return writeYAML(path, f)
}

func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("scenarioio: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("scenarioio: write %s: %w", path, err)
	}
	return nil
}

func coord2(c []int) (grid.Position, error) {
	if len(c) != 2 {
		return grid.Position{}, fmt.Errorf("expected 2 coordinates, got %d", len(c))
	}
	return grid.Position{X: c[0], Y: c[1]}, nil
}

func buildMap(dimensions []int, obstacles, parkingSpots, edgeRows [][]int) (*gridmap.Map, error) {
	if len(dimensions) != 2 {
		return nil, fmt.Errorf("scenarioio: map dimensions must have 2 entries, got %d", len(dimensions))
	}

	edges := make([]grid.Edge, 0, len(edgeRows))
	for i, row := range edgeRows {
		if len(row) != 4 {
			return nil, fmt.Errorf("scenarioio: edge %d must have 4 coordinates, got %d", i, len(row))
		}
		edges = append(edges, grid.Edge{
			Source: grid.Position{X: row[0], Y: row[1]},
			Target: grid.Position{X: row[2], Y: row[3]},
		})
	}

	m := gridmap.NewMap(dimensions[0], dimensions[1], edges)
	for i, o := range obstacles {
		p, err := coord2(o)
		if err != nil {
			return nil, fmt.Errorf("scenarioio: obstacle %d: %w", i, err)
		}
		m.AddObstacle(p)
	}
	for i, o := range parkingSpots {
		p, err := coord2(o)
		if err != nil {
			return nil, fmt.Errorf("scenarioio: parking spot %d: %w", i, err)
		}
		m.AddParkingSpot(p)
	}
	return m, nil
}

// LoadPlan parses a plan file written by SavePlan.
func LoadPlan(path string) (*planmodel.CommonPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenarioio: read %s: %w", path, err)
	}
	var f planFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("scenarioio: parse %s: %w", path, err)
	}

	cp := planmodel.NewCommonPlan()
	for _, pa := range f.Agents {
		positions := make([]grid.TimedPosition, len(pa.Positions))
		for i, triple := range pa.Positions {
			if len(triple) != 3 {
				return nil, fmt.Errorf("scenarioio: agent %d position %d must have 3 entries, got %d", pa.Agent, i, len(triple))
			}
			positions[i] = grid.TimedPosition{Pos: grid.Position{X: triple[0], Y: triple[1]}, T: triple[2]}
		}
		cp.AddPlan(&planmodel.Plan{Agent: planmodel.AgentID(pa.Agent), Positions: positions})
	}
	return cp, nil
}

func mapToClassic(mm *gridmap.MapManager) classicMap {
	m := mm.Map
	out := classicMap{Dimensions: []int{m.Width, m.Height}}
	for p := range m.Obstacles {
		out.Obstacles = append(out.Obstacles, []int{p.X, p.Y})
	}
	for _, e := range m.Edges {
		out.Edges = append(out.Edges, []int{e.Source.X, e.Source.Y, e.Target.X, e.Target.Y})
	}
	return out
}

// planAgent is one agent's timed position sequence in a saved plan
// file.
type planAgent struct {
	Agent     int     `yaml:"agent"`
	Positions [][]int `yaml:"positions"` // [x, y, t] triples
}

type planFile struct {
	Makespan int         `yaml:"makespan"`
	Flowtime int         `yaml:"flowtime"`
	Agents   []planAgent `yaml:"agents"`
}

// SavePlan writes cp to path in a simple YAML dialect: one position
// list per agent, each entry an [x, y, t] triple.
func SavePlan(path string, cp *planmodel.CommonPlan) error {
	f := planFile{Makespan: cp.Makespan(), Flowtime: cp.SumOfCosts()}
	for _, plan := range cp.Plans {
		pa := planAgent{Agent: int(plan.Agent)}
		for _, tp := range plan.Positions {
			pa.Positions = append(pa.Positions, []int{tp.Pos.X, tp.Pos.Y, tp.T})
		}
		f.Agents = append(f.Agents, pa)
	}
	return writeYAML(path, f)
}

func mapToDynamic(mm *gridmap.MapManager) dynamicMap {
	m := mm.Map
	out := dynamicMap{Dimensions: []int{m.Width, m.Height}}
	for p := range m.Obstacles {
		out.Obstacles = append(out.Obstacles, []int{p.X, p.Y})
	}
	for p := range m.ParkingSpots {
		out.ParkingSpots = append(out.ParkingSpots, []int{p.X, p.Y})
	}
	for _, e := range m.Edges {
		out.Edges = append(out.Edges, []int{e.Source.X, e.Source.Y, e.Target.X, e.Target.Y})
	}
	return out
}
