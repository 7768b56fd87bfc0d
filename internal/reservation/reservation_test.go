package reservation

import (
	"testing"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
)

func TestCellReservationBlocksExactTick(t *testing.T) {
	tbl := NewTable()
	p := grid.Position{X: 1, Y: 1}
	tbl.ReserveCell(1, p, 5, false)

	if tbl.IsCellFree(p, 5) {
		t.Fatalf("expected cell to be reserved at t=5")
	}
	if !tbl.IsCellFree(p, 4) {
		t.Fatalf("expected cell to be free at t=4")
	}
}

func TestPermanentReservationDoesNotRetroactivelyBlock(t *testing.T) {
	tbl := NewTable()
	p := grid.Position{X: 2, Y: 2}
	tbl.ReserveCell(1, p, 5, true)

	if !tbl.IsCellFree(p, 4) {
		t.Fatalf("permanent-from reservation at t=5 must not block t=4")
	}
	if tbl.IsCellFree(p, 5) || tbl.IsCellFree(p, 6) || tbl.IsCellFree(p, 100) {
		t.Fatalf("permanent-from reservation must block every tick >= 5")
	}
}

func TestIsFreeForever(t *testing.T) {
	tbl := NewTable()
	p := grid.Position{X: 0, Y: 0}
	tbl.ReserveCell(1, p, 3, false)

	if tbl.IsFreeForever(p, 2) {
		t.Fatalf("expected not free forever: a future reservation exists at t=3")
	}
	if tbl.IsFreeForever(p, 3) {
		t.Fatalf("expected not free forever at the reservation's own tick: the cell itself is reserved")
	}
	if !tbl.IsFreeForever(p, 4) {
		t.Fatalf("expected free forever after the reservation's tick (no later one)")
	}
}

func TestEdgeReservationSymmetricSwapConflict(t *testing.T) {
	tbl := NewTable()
	a := grid.Position{X: 0, Y: 0}
	b := grid.Position{X: 1, Y: 0}
	tbl.ReserveEdge(1, a, b, 2)

	if tbl.IsEdgeFree(a, b, 2) {
		t.Fatalf("expected forward edge to be reserved")
	}
	if tbl.IsEdgeFree(b, a, 2) {
		t.Fatalf("expected reverse (swap) edge to be blocked by the forward reservation")
	}
}

func TestCancelAgentReservationsRestoresAllIndices(t *testing.T) {
	tbl := NewTable()
	p := grid.Position{X: 0, Y: 0}
	q := grid.Position{X: 1, Y: 0}
	tbl.ReserveCell(1, p, 0, false)
	tbl.ReserveEdge(1, p, q, 0)
	tbl.ReserveCell(1, q, 1, true)

	tbl.CancelAgentReservations(1)

	if !tbl.IsCellFree(p, 0) {
		t.Fatalf("cell reservation should be gone after cancel")
	}
	if !tbl.IsEdgeFree(p, q, 0) {
		t.Fatalf("edge reservation should be gone after cancel")
	}
	if !tbl.IsCellFree(q, 100) {
		t.Fatalf("permanent reservation should be gone after cancel")
	}
	if !tbl.RestingAllowed(q, 0) {
		t.Fatalf("resting should be allowed at q after cancel")
	}
}

func TestCancelThenReserveRestoresTableBitForBit(t *testing.T) {
	tbl := NewTable()
	p := grid.Position{X: 3, Y: 3}
	tbl.ReserveCell(1, p, 2, true)
	tbl.CancelAgentReservations(1)
	tbl.ReserveCell(1, p, 2, true)

	if tbl.IsCellFree(p, 2) {
		t.Fatalf("expected the re-reservation to hold")
	}
	if !tbl.IsCellFree(p, 1) {
		t.Fatalf("expected t=1 still free after re-reservation at t=2")
	}
}

func TestRestingAllowedFalseForFutureReservation(t *testing.T) {
	tbl := NewTable()
	p := grid.Position{X: 0, Y: 0}
	tbl.ReserveCell(2, p, 10, false)

	if tbl.RestingAllowed(p, 5) {
		t.Fatalf("resting at p should be disallowed: a future reservation exists at t=10")
	}
	if !tbl.RestingAllowed(p, 10) {
		t.Fatalf("resting at p at exactly the reserved tick should be allowed (no tick strictly after)")
	}
}
