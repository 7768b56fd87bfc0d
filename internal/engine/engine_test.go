package engine

import (
	"testing"
	"time"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/scenario"
)

func lineScenario() *scenario.Scenario {
	edges := []grid.Edge{
		{Source: grid.Position{0, 0}, Target: grid.Position{1, 0}},
		{Source: grid.Position{1, 0}, Target: grid.Position{0, 0}},
		{Source: grid.Position{1, 0}, Target: grid.Position{2, 0}},
		{Source: grid.Position{2, 0}, Target: grid.Position{1, 0}},
	}
	m := gridmap.NewMap(3, 1, edges)
	return &scenario.Scenario{
		MapManager: gridmap.NewMapManager(m, 0),
		Agents: []scenario.Agent{
			{ID: planmodel.AgentID(0), Start: grid.Position{0, 0}, Targets: []grid.Position{{2, 0}}},
		},
	}
}

func TestMapfCAStarSolvesTrivialScenario(t *testing.T) {
	s := lineScenario()
	cp, tasks, err := Mapf(s, Params{Algorithm: scenario.CAStar, TimeHorizon: 10, TrialLimit: 5})
	if err != nil {
		t.Fatalf("Mapf: %v", err)
	}
	if tasks != nil {
		t.Errorf("expected nil tasks for CAStar, got %v", tasks)
	}
	if cp.ByAgent(planmodel.AgentID(0)).Last().Pos != (grid.Position{2, 0}) {
		t.Fatalf("agent did not reach its target: %+v", cp.ByAgent(planmodel.AgentID(0)))
	}
}

func TestMapfUnknownAlgorithm(t *testing.T) {
	s := lineScenario()
	_, _, err := Mapf(s, Params{Algorithm: scenario.Algorithm("bogus"), TimeHorizon: 10})
	if err == nil {
		t.Fatal("expected an error for an unknown algorithm")
	}
}

func TestRunWithDeadlineTimesOut(t *testing.T) {
	s := lineScenario()
	p := Params{Algorithm: scenario.CAStar, TimeHorizon: 10, TrialLimit: 5}
	deadline := time.Now().Add(-time.Second)

	cp, _, _, err := RunWithDeadline(s, p, deadline)
	if cp != nil {
		t.Errorf("expected no plan on an already-elapsed deadline, got %+v", cp)
	}
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestEvaluateCoversUndirectedAndDirectedVariants(t *testing.T) {
	s := lineScenario()
	p := Params{
		Algorithm:    scenario.CAStar,
		TimeHorizon:  10,
		TrialLimit:   5,
		RuntimeLimit: 2 * time.Second,
	}

	measures, err := Evaluate(s, p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	variants := make(map[string]bool)
	for _, m := range measures {
		variants[string(m.Variant)] = true
		if !m.Solved {
			t.Errorf("expected variant %s to be solved", m.Variant)
		}
	}
	if !variants["undirected"] || !variants["directed"] {
		t.Fatalf("expected undirected and directed measures, got %v", measures)
	}
	if variants["dynamic"] {
		t.Fatalf("dynamic variant should not run when direction change frequency is 0")
	}
}

func TestEvaluateAddsDynamicVariantWhenDirectionChangeSupported(t *testing.T) {
	s := lineScenario()
	p := Params{
		Algorithm:                scenario.CAStar,
		TimeHorizon:              10,
		TrialLimit:               5,
		RuntimeLimit:             2 * time.Second,
		DirectionChangeFrequency: 3,
	}

	measures, err := Evaluate(s, p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	found := false
	for _, m := range measures {
		if m.Variant == "dynamic" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dynamic measure for CAStar with a nonzero direction change frequency, got %v", measures)
	}
}
