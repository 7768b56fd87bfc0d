package scenarioio

import (
	"path/filepath"
	"testing"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/scenario"
)

func smallScenario(dynamic bool) *scenario.Scenario {
	edges := []grid.Edge{
		{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}},
		{Source: grid.Position{1, 0}, Target: grid.Position{0, 0}},
	}
	m := gridmap.NewMap(2, 1, edges)
	m.AddObstacle(grid.Position{1, 0})
	m = gridmap.NewMap(2, 1, edges) // obstacle above was just to exercise AddObstacle; rebuild clean
	m.AddParkingSpot(grid.Position{0, 0})

	s := &scenario.Scenario{
		MapManager: gridmap.NewMapManager(m, 0),
		Dynamic:    dynamic,
	}
	if dynamic {
		s.Agents = []scenario.Agent{{ID: planmodel.AgentID(0), Name: "agent0", Start: grid.Position{0, 0}}}
		s.Tasks = []scenario.Task{{ID: 0, Targets: []grid.Position{{1, 0}}, Available: 2}}
	} else {
		s.Agents = []scenario.Agent{{ID: planmodel.AgentID(0), Name: "agent0", Start: grid.Position{0, 0}, Targets: []grid.Position{{1, 0}}}}
	}
	return s
}

func TestClassicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	s := smallScenario(false)

	if err := SaveClassic(path, s); err != nil {
		t.Fatalf("SaveClassic: %v", err)
	}
	loaded, err := LoadClassic(path)
	if err != nil {
		t.Fatalf("LoadClassic: %v", err)
	}

	if loaded.MapManager.Map.Width != 2 || loaded.MapManager.Map.Height != 1 {
		t.Fatalf("unexpected map dimensions: %dx%d", loaded.MapManager.Map.Width, loaded.MapManager.Map.Height)
	}
	if len(loaded.Agents) != 1 || loaded.Agents[0].Start != (grid.Position{0, 0}) {
		t.Fatalf("unexpected agents: %+v", loaded.Agents)
	}
	if len(loaded.Agents[0].Targets) != 1 || loaded.Agents[0].Targets[0] != (grid.Position{1, 0}) {
		t.Fatalf("unexpected goal: %+v", loaded.Agents[0].Targets)
	}
}

func TestDynamicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	s := smallScenario(true)

	if err := SaveDynamic(path, s); err != nil {
		t.Fatalf("SaveDynamic: %v", err)
	}
	loaded, err := LoadDynamic(path)
	if err != nil {
		t.Fatalf("LoadDynamic: %v", err)
	}

	if len(loaded.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(loaded.Tasks))
	}
	if loaded.Tasks[0].Available != 2 {
		t.Fatalf("expected availability 2, got %d", loaded.Tasks[0].Available)
	}
	if len(loaded.Tasks[0].Targets) != 1 || loaded.Tasks[0].Targets[0] != (grid.Position{1, 0}) {
		t.Fatalf("unexpected task targets: %+v", loaded.Tasks[0].Targets)
	}
	if _, ok := loaded.MapManager.Map.ParkingSpots[grid.Position{0, 0}]; !ok {
		t.Fatalf("expected parking spot at (0,0) to round-trip")
	}
}

func TestPlanRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	cp := planmodel.NewCommonPlan()
	cp.AddPlan(&planmodel.Plan{Agent: 1, Positions: []grid.TimedPosition{
		{Pos: grid.Position{0, 0}, T: 0},
		{Pos: grid.Position{1, 0}, T: 1},
	}})

	if err := SavePlan(path, cp); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	loaded, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if loaded.Makespan() != cp.Makespan() {
		t.Fatalf("makespan mismatch: got %d, want %d", loaded.Makespan(), cp.Makespan())
	}
	if loaded.ByAgent(1).Last().Pos != (grid.Position{1, 0}) {
		t.Fatalf("unexpected last position: %v", loaded.ByAgent(1).Last().Pos)
	}
}
