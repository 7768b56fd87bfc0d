// Package engerr defines the sentinel error taxonomy shared by every
// planner (spec §7): callers distinguish fault kinds with errors.Is
// rather than type assertions or panics.
package engerr

import "errors"

var (
	// ErrUnsolvable means the search space, the backtracking budget, or
	// the trial budget was exhausted without finding a plan.
	ErrUnsolvable = errors.New("mapfcore: scenario unsolvable")

	// ErrHorizonExceeded means the open set contained only nodes past the
	// configured time horizon. Treated as unsolvable for the current
	// attempt; callers may retry with a different agent order.
	ErrHorizonExceeded = errors.New("mapfcore: time horizon exceeded")

	// ErrTimeout means the deadline was reached at a checkpoint.
	// Transient search state is discarded; this fault always propagates.
	ErrTimeout = errors.New("mapfcore: deadline exceeded")

	// ErrDistanceTableMiss means the true-distance oracle was queried for
	// a cell that is not a registered endpoint. This indicates a
	// programmer error and is never masked.
	ErrDistanceTableMiss = errors.New("mapfcore: distance table miss")

	// ErrInvalidPlan means the validator detected a violation in a
	// common plan.
	ErrInvalidPlan = errors.New("mapfcore: invalid plan")
)

// PlanError wraps ErrInvalidPlan with the offending agent and tick.
type PlanError struct {
	Agent   int
	Tick    int
	Message string
}

func (e *PlanError) Error() string {
	return e.Message
}

func (e *PlanError) Unwrap() error {
	return ErrInvalidPlan
}

// NewPlanError builds a PlanError identifying the offending agent/tick.
func NewPlanError(agent, tick int, message string) error {
	return &PlanError{Agent: agent, Tick: tick, Message: message}
}
