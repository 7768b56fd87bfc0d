package evalwriter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestWriteProducesExpectedHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	row := Row{
		Scenario:  "maze9x5",
		Algorithm: "CA_STAR",
		Agents:    4,
		Measures: []Measure{
			{Variant: Undirected, Solved: true, Makespan: 12, Flowtime: 40, ServiceTime: 0, PlanningTime: 250 * time.Millisecond},
			{Variant: Directed, Solved: false},
		},
	}
	if err := w.Write(row); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := csv.NewReader(strings.NewReader(buf.String()))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d: %v", len(records), records)
	}
	if records[0][0] != "scenario" || records[0][3] != "variant" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "maze9x5" || records[1][3] != "undirected" || records[1][5] != "12" {
		t.Fatalf("unexpected first data row: %v", records[1])
	}
	if records[1][8] != "250" {
		t.Fatalf("expected planning_time_ms 250, got %s", records[1][8])
	}
	if records[2][3] != "directed" || records[2][4] != "false" {
		t.Fatalf("unexpected second data row: %v", records[2])
	}
}

func TestWriteWithNoMeasuresStillEmitsHeader(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	if err := w.Write(Row{Scenario: "empty", Algorithm: "CA_STAR", Agents: 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := csv.NewReader(strings.NewReader(buf.String()))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV output: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the header row, got %d: %v", len(records), records)
	}
}

func TestNoWriteProducesEmptyOutput(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output when Write was never called, got %q", buf.String())
	}
}
