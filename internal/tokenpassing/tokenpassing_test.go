package tokenpassing

import (
	"testing"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

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

// TestS4LifelongMAPD mirrors spec.md S4: a grid with parking spots, two
// pickup-delivery tasks at availability 0 and 7; the returned plan must
// be non-empty and every task's pickup-then-delivery must appear in
// some agent's concatenated positions.
func TestS4LifelongMAPD(t *testing.T) {
	m := openGrid(6, 6)
	m.AddParkingSpot(grid.Position{0, 0})
	m.AddParkingSpot(grid.Position{5, 5})
	mm := gridmap.NewMapManager(m, 0)

	cp, err := Run(Params{
		MapManager: mm,
		Agents: []Agent{
			{ID: 1, Start: grid.Position{0, 0}},
			{ID: 2, Start: grid.Position{5, 5}},
		},
		Tasks: []Task{
			{ID: 1, Targets: []grid.Position{{1, 1}, {4, 4}}, Availability: 0},
			{ID: 2, Targets: []grid.Position{{4, 1}, {1, 4}}, Availability: 7},
		},
		TimeHorizon:     60,
		TaskTimeHorizon: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.Makespan() == 0 {
		t.Fatalf("expected a non-trivial common plan")
	}

	allTargets := [][]grid.Position{
		{{1, 1}, {4, 4}},
		{{4, 1}, {1, 4}},
	}
	for _, targets := range allTargets {
		if !subsequenceAppearsInAnyPlan(cp, targets) {
			t.Fatalf("task targets %v do not appear as a subsequence in any plan", targets)
		}
	}
}

func subsequenceAppearsInAnyPlan(cp *planmodel.CommonPlan, targets []grid.Position) bool {
	for _, plan := range cp.Plans {
		idx := 0
		for _, tp := range plan.Positions {
			if idx < len(targets) && tp.Pos == targets[idx] {
				idx++
			}
		}
		if idx == len(targets) {
			return true
		}
	}
	return false
}
