// Command gen_scenario generates deterministic open-grid MAPF/MAPD
// scenario fixtures for benchmarking and manual testing.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/scenario"
	"github.com/baumann-freiburg/mapf-core/internal/scenarioio"
)

func main() {
	var (
		seed       = flag.Int64("seed", 1, "random seed")
		width      = flag.Int("width", 16, "grid width")
		height     = flag.Int("height", 16, "grid height")
		agents     = flag.Int("agents", 8, "number of agents")
		obstacles  = flag.Float64("obstacle-density", 0.1, "fraction of cells blocked")
		dynamic    = flag.Bool("dynamic", false, "emit a dynamic (task-pool) scenario instead of a classic one")
		taskCount  = flag.Int("tasks", 20, "number of tasks (dynamic scenarios only)")
		taskWindow = flag.Int("task-window", 100, "latest availability tick a task may get (dynamic scenarios only)")
		output     = flag.String("output", "scenario.yaml", "output file path")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	m := openGrid(*width, *height)
	placeObstacles(rng, m, *obstacles)

	free := freeCells(m)
	if len(free) < *agents {
		fmt.Fprintf(os.Stderr, "gen_scenario: not enough free cells (%d) for %d agents\n", len(free), *agents)
		os.Exit(1)
	}

	s := &scenario.Scenario{
		MapManager: gridmap.NewMapManager(m, 0),
		Dynamic:    *dynamic,
	}

	starts := sampleDistinct(rng, free, *agents)
	if *dynamic {
		for i, pos := range starts {
			s.Agents = append(s.Agents, scenario.Agent{ID: planmodel.AgentID(i), Name: fmt.Sprintf("agent%d", i), Start: pos})
		}
		s.Tasks = generateTasks(rng, free, *taskCount, *taskWindow)
	} else {
		goals := sampleDistinct(rng, free, *agents)
		for i, pos := range starts {
			s.Agents = append(s.Agents, scenario.Agent{
				ID:      planmodel.AgentID(i),
				Name:    fmt.Sprintf("agent%d", i),
				Start:   pos,
				Targets: []grid.Position{goals[i]},
			})
		}
	}

	var err error
	if *dynamic {
		err = scenarioio.SaveDynamic(*output, s)
	} else {
		err = scenarioio.SaveClassic(*output, s)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen_scenario:", err)
		os.Exit(1)
	}
}

func openGrid(width, height int) *gridmap.Map {
	var edges []grid.Edge
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			p := grid.Position{X: x, Y: y}
			if x+1 < width {
				q := grid.Position{X: x + 1, Y: y}
				edges = append(edges, grid.Edge{Source: p, Target: q}, grid.Edge{Source: q, Target: p})
			}
			if y+1 < height {
				q := grid.Position{X: x, Y: y + 1}
				edges = append(edges, grid.Edge{Source: p, Target: q}, grid.Edge{Source: q, Target: p})
			}
		}
	}
	return gridmap.NewMap(width, height, edges)
}

func placeObstacles(rng *rand.Rand, m *gridmap.Map, density float64) {
	for x := 0; x < m.Width; x++ {
		for y := 0; y < m.Height; y++ {
			if rng.Float64() < density {
				m.AddObstacle(grid.Position{X: x, Y: y})
			}
		}
	}
}

func freeCells(m *gridmap.Map) []grid.Position {
	var free []grid.Position
	for x := 0; x < m.Width; x++ {
		for y := 0; y < m.Height; y++ {
			p := grid.Position{X: x, Y: y}
			if !m.IsObstacle(p) {
				free = append(free, p)
			}
		}
	}
	return free
}

func sampleDistinct(rng *rand.Rand, pool []grid.Position, n int) []grid.Position {
	shuffled := append([]grid.Position(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func generateTasks(rng *rand.Rand, free []grid.Position, count, window int) []scenario.Task {
	tasks := make([]scenario.Task, count)
	for i := range tasks {
		pair := sampleDistinct(rng, free, 2)
		tasks[i] = scenario.Task{
			ID:        i,
			Targets:   pair,
			Available: rng.Intn(window + 1),
		}
	}
	return tasks
}
