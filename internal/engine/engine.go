// Package engine dispatches a scenario to the planner named by its
// algorithm parameter and, for the evaluation harness, runs it across
// all three map renderings a scenario admits (spec §12), mirroring
// MAPFWrapper and Evaluation.java.
package engine

import (
	"fmt"
	"time"

	"github.com/baumann-freiburg/mapf-core/internal/castar"
	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/evalwriter"
	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/hierarchical"
	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
	"github.com/baumann-freiburg/mapf-core/internal/replanner"
	"github.com/baumann-freiburg/mapf-core/internal/scenario"
	"github.com/baumann-freiburg/mapf-core/internal/tokenpassing"
	"github.com/baumann-freiburg/mapf-core/internal/trafficsim"
	"github.com/baumann-freiburg/mapf-core/internal/validator"
)

// Params mirrors ParameterReader.java's positional argument surface.
type Params struct {
	Algorithm                scenario.Algorithm
	TimeHorizon              int
	RuntimeLimit             time.Duration
	TrialLimit               int
	DirectionChangeFrequency int
}

// Mapf runs the algorithm named by p.Algorithm against s and returns
// the resulting common plan. Tasks is non-nil only for TokenPassing,
// whose tasks carry the StartedAt/CompletedAt timestamps runVariant
// needs for the MAPD service-time measure.
func Mapf(s *scenario.Scenario, p Params) (*planmodel.CommonPlan, []tokenpassing.Task, error) {
	switch p.Algorithm {
	case scenario.CAStar:
		agents := make([]castar.Agent, len(s.Agents))
		for i, a := range s.Agents {
			agents[i] = castar.Agent{ID: a.ID, Start: a.Start, Targets: a.Targets}
		}
		cp, err := castar.Run(castar.Params{
			MapManager: s.MapManager,
			Agents:     agents,
			Horizon:    p.TimeHorizon,
			TrialLimit: p.TrialLimit,
		})
		return cp, nil, err

	case scenario.TokenPassing:
		agents := make([]tokenpassing.Agent, len(s.Agents))
		for i, a := range s.Agents {
			agents[i] = tokenpassing.Agent{ID: a.ID, Start: a.Start}
		}
		tasks := make([]tokenpassing.Task, len(s.Tasks))
		for i, t := range s.Tasks {
			tasks[i] = tokenpassing.Task{ID: tokenpassing.TaskID(t.ID), Targets: t.Targets, Availability: t.Available}
		}
		cp, err := tokenpassing.Run(tokenpassing.Params{
			MapManager:      s.MapManager,
			Agents:          agents,
			Tasks:           tasks,
			TimeHorizon:     p.TimeHorizon,
			TaskTimeHorizon: p.TimeHorizon,
		})
		// tasks is mutated in place by Run (CompletedAt/StartedAt), so the
		// caller reads completion times off this same slice.
		return cp, tasks, err

	case scenario.RuntimeReplanner, scenario.AlternatingRuntimeReplanner:
		agents := make([]replanner.Agent, len(s.Agents))
		for i, a := range s.Agents {
			agents[i] = replanner.Agent{ID: a.ID, Start: a.Start, Target: firstTarget(a)}
		}
		cp, err := replanner.Run(replanner.Params{
			MapManager:  s.MapManager,
			Agents:      agents,
			TimeHorizon: p.TimeHorizon,
			TrialLimit:  p.TrialLimit,
			Alternating: p.Algorithm == scenario.AlternatingRuntimeReplanner,
			Frequency:   p.DirectionChangeFrequency,
		})
		return cp, nil, err

	case scenario.HierarchicalPlanner, scenario.EnhancedHierarchicalPlanner:
		agents := make([]hierarchical.Agent, len(s.Agents))
		for i, a := range s.Agents {
			agents[i] = hierarchical.Agent{ID: a.ID, Start: a.Start, Target: firstTarget(a)}
		}
		cp, err := hierarchical.Run(hierarchical.Params{
			MapManager:  s.MapManager,
			Agents:      agents,
			TimeHorizon: p.TimeHorizon,
		})
		return cp, nil, err

	case scenario.TrafficSimulator:
		agents := make([]trafficsim.Agent, len(s.Agents))
		for i, a := range s.Agents {
			agents[i] = trafficsim.Agent{ID: a.ID, Start: a.Start, Goal: firstTarget(a)}
		}
		cp, err := trafficsim.Run(trafficsim.Params{
			MapManager:  s.MapManager,
			Agents:      agents,
			TimeHorizon: p.TimeHorizon,
		})
		return cp, nil, err

	default:
		return nil, nil, fmt.Errorf("engine: unknown algorithm %q", p.Algorithm)
	}
}

func firstTarget(a scenario.Agent) grid.Position {
	if len(a.Targets) == 0 {
		return a.Start
	}
	return a.Targets[0]
}

// RunWithDeadline runs Mapf on its own goroutine and returns
// engerr.ErrTimeout if deadline elapses first, and engerr.ErrUnsolvable
// if the planner panics (the Go analogue of the original's caught
// OutOfMemoryError/StackOverflowError/NullPointerException).
func RunWithDeadline(s *scenario.Scenario, p Params, deadline time.Time) (cp *planmodel.CommonPlan, tasks []tokenpassing.Task, planningTime time.Duration, err error) {
	start := time.Now()
	type result struct {
		cp    *planmodel.CommonPlan
		tasks []tokenpassing.Task
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{nil, nil, engerr.ErrUnsolvable}
			}
		}()
		cp, tasks, err := Mapf(s, p)
		done <- result{cp, tasks, err}
	}()

	select {
	case r := <-done:
		return r.cp, r.tasks, time.Since(start), r.err
	case <-time.After(time.Until(deadline)):
		return nil, nil, time.Since(start), engerr.ErrTimeout
	}
}

// Evaluate runs the scenario through the undirected and directed
// variants, plus the dynamic variant when DirectionChangeFrequency is
// non-zero and the algorithm supports direction changes, and validates
// each resulting plan, mirroring Evaluation.java's constructor. A
// validator-detected violation is fatal to the call, the way Java's
// uncaught InvalidPlanException aborts the whole Evaluation
// construction rather than just the offending variant.
func Evaluate(directed *scenario.Scenario, p Params) ([]evalwriter.Measure, error) {
	var measures []evalwriter.Measure

	undirected := directed.Undirected(0)
	m, err := runVariant(undirected, p, evalwriter.Undirected)
	if err != nil {
		return nil, err
	}
	if m != nil {
		measures = append(measures, *m)
	}

	m, err = runVariant(directed, p, evalwriter.Directed)
	if err != nil {
		return nil, err
	}
	if m != nil {
		measures = append(measures, *m)
	}

	if p.DirectionChangeFrequency != 0 && p.Algorithm.SupportsDirectionChange() {
		dynamic := directed.Undirected(p.DirectionChangeFrequency)
		m, err = runVariant(dynamic, p, evalwriter.Dynamic)
		if err != nil {
			return nil, err
		}
		if m != nil {
			measures = append(measures, *m)
		}
	}

	return measures, nil
}

func runVariant(s *scenario.Scenario, p Params, variant evalwriter.Variant) (*evalwriter.Measure, error) {
	deadline := time.Now().Add(p.RuntimeLimit)
	cp, tasks, planningTime, err := RunWithDeadline(s, p, deadline)
	if err != nil || cp == nil {
		return &evalwriter.Measure{Variant: variant, Solved: false, PlanningTime: planningTime}, nil
	}

	m := evalwriter.Measure{
		Variant:      variant,
		Solved:       true,
		Makespan:     cp.Makespan(),
		Flowtime:     cp.SumOfCosts(),
		PlanningTime: planningTime,
	}

	agents := toValidatorAgents(s)
	if p.Algorithm.Classic() {
		m.ServiceTime = m.Flowtime / len(s.Agents)
		if err := validator.Check(s.MapManager, agents, cp, validator.Classic); err != nil {
			return nil, fmt.Errorf("engine: invalid plan for %s variant: %w", variant, err)
		}
	} else {
		m.ServiceTime = serviceTime(tasks)
		if err := validator.Check(s.MapManager, agents, cp, validator.Dynamic); err != nil {
			return nil, fmt.Errorf("engine: invalid plan for %s variant: %w", variant, err)
		}
	}
	return &m, nil
}

// serviceTime is the average number of ticks between a task becoming
// available and its completion, mirroring Evaluation.java's
// computeServiceTime(). Tasks never completed are excluded.
func serviceTime(tasks []tokenpassing.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	sum, n := 0, 0
	for _, t := range tasks {
		if t.CompletedAt < 0 {
			continue
		}
		sum += t.CompletedAt - t.Availability
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func toValidatorAgents(s *scenario.Scenario) []validator.Agent {
	out := make([]validator.Agent, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = validator.Agent{ID: a.ID, Start: a.Start, Targets: a.Targets}
	}
	return out
}
