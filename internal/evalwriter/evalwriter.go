// Package evalwriter records one scenario's evaluation run across the
// three map variants the harness evaluates (undirected, directed,
// dynamic) to CSV, mirroring Evaluation.java's makespan/flowtime/
// service-time/wall-time measures (spec §12).
package evalwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// Variant names one of the three scenario renderings a run is
// evaluated under.
type Variant string

const (
	Undirected Variant = "undirected"
	Directed   Variant = "directed"
	Dynamic    Variant = "dynamic"
)

// Measure is one variant's outcome. Solved is false if the run timed
// out, hit the horizon, or otherwise produced no plan — matching
// Evaluation.java leaving the corresponding commonPlan null on
// TimeoutException/OutOfMemoryError/StackOverflowError.
type Measure struct {
	Variant     Variant
	Solved      bool
	Makespan    int
	Flowtime    int
	ServiceTime int
	PlanningTime time.Duration
}

// Row is one scenario's full evaluation: its identity plus up to three
// measures (only the variants the algorithm and the scenario's
// direction-change frequency make applicable are populated).
type Row struct {
	Scenario  string
	Algorithm string
	Agents    int
	Measures  []Measure
}

// Writer appends Rows to a CSV stream, one line per (scenario,
// variant) pair.
type Writer struct {
	w   *csv.Writer
	hdr bool
}

// New wraps w. The header row is written lazily, on the first Write
// call, so an empty run produces an empty file rather than a
// header-only one.
func New(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// Create opens path for writing and wraps it.
func Create(path string) (*Writer, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("evalwriter: create %s: %w", path, err)
	}
	return New(f), f, nil
}

var header = []string{
	"scenario", "algorithm", "agents", "variant", "solved",
	"makespan", "flowtime", "service_time", "planning_time_ms",
}

// Write appends one Row's measures as one CSV line each.
func (ew *Writer) Write(r Row) error {
	if !ew.hdr {
		if err := ew.w.Write(header); err != nil {
			return err
		}
		ew.hdr = true
	}
	for _, m := range r.Measures {
		record := []string{
			r.Scenario,
			r.Algorithm,
			fmt.Sprintf("%d", r.Agents),
			string(m.Variant),
			fmt.Sprintf("%t", m.Solved),
			fmt.Sprintf("%d", m.Makespan),
			fmt.Sprintf("%d", m.Flowtime),
			fmt.Sprintf("%d", m.ServiceTime),
			fmt.Sprintf("%d", m.PlanningTime.Milliseconds()),
		}
		if err := ew.w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying CSV writer and returns any write error
// encountered.
func (ew *Writer) Flush() error {
	ew.w.Flush()
	return ew.w.Error()
}
