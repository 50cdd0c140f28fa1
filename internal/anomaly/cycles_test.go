package anomaly

import (
	"reflect"
	"testing"

	"github.com/savegress/caselens/internal/config"
	"github.com/savegress/caselens/pkg/models"
)

func TestDetectCycles_NoCycle(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-1", "A", "B", 100, baseTime),
		txn("txn-2", "B", "C", 100, baseTime),
		txn("txn-3", "A", "C", 100, baseTime),
	}

	cycles, truncated := d.detectCycles(transactions)
	if len(cycles) != 0 {
		t.Errorf("expected no cycles in a DAG, got %+v", cycles)
	}
	if truncated {
		t.Error("expected truncated false")
	}
}

func TestDetectCycles_TriangleReportedOnce(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-1", "B", "C", 100, baseTime),
		txn("txn-2", "C", "A", 100, baseTime),
		txn("txn-3", "A", "B", 100, baseTime),
		// duplicate edge collapses
		txn("txn-4", "A", "B", 500, baseTime),
	}

	cycles, truncated := d.detectCycles(transactions)
	if truncated {
		t.Error("expected truncated false")
	}
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 canonical cycle, got %d: %+v", len(cycles), cycles)
	}
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(cycles[0].Path, want) {
		t.Errorf("expected canonical path %v, got %v", want, cycles[0].Path)
	}
	if cycles[0].Signature != "A->B->C" {
		t.Errorf("unexpected signature %s", cycles[0].Signature)
	}
	if cycles[0].Length != 3 {
		t.Errorf("expected length 3, got %d", cycles[0].Length)
	}
}

func TestDetectCycles_DisjointCyclesSharingNoEdge(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-1", "A", "B", 100, baseTime),
		txn("txn-2", "B", "A", 100, baseTime),
		txn("txn-3", "C", "D", 100, baseTime),
		txn("txn-4", "D", "C", 100, baseTime),
	}

	cycles, _ := d.detectCycles(transactions)
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d: %+v", len(cycles), cycles)
	}
	signatures := map[string]bool{}
	for _, c := range cycles {
		signatures[c.Signature] = true
	}
	if !signatures["A->B"] || !signatures["C->D"] {
		t.Errorf("unexpected signatures %v", signatures)
	}
}

func TestDetectCycles_DepthBoundTruncates(t *testing.T) {
	thresholds := config.DefaultThresholds()
	thresholds.MaxCycleDepth = 3
	d := NewDetector(thresholds)

	// The 4-node cycle sits beyond the depth cap.
	transactions := []models.Transaction{
		txn("txn-1", "A", "B", 100, baseTime),
		txn("txn-2", "B", "C", 100, baseTime),
		txn("txn-3", "C", "D", 100, baseTime),
		txn("txn-4", "D", "A", 100, baseTime),
	}

	cycles, truncated := d.detectCycles(transactions)
	if len(cycles) != 0 {
		t.Errorf("expected no cycles within depth 3, got %+v", cycles)
	}
	if !truncated {
		t.Error("expected truncated true when the depth cap cuts the walk")
	}
}

func TestCanonicalCycle_RotationInvariant(t *testing.T) {
	rotations := [][]string{
		{"B", "C", "A"},
		{"C", "A", "B"},
		{"A", "B", "C"},
	}
	for _, rotation := range rotations {
		got := canonicalCycle(rotation)
		if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
			t.Errorf("canonicalCycle(%v) = %v", rotation, got)
		}
	}
}
