package anomaly

import (
	"reflect"
	"testing"
	"time"

	"github.com/savegress/caselens/pkg/models"
)

func TestDetectRapidSuccessive_WindowEmits(t *testing.T) {
	d := newTestDetector() // count 3 -> window of 4, span <= 5m

	transactions := []models.Transaction{
		txn("txn-1", "ACC1", "X", 100, baseTime),
		txn("txn-2", "ACC1", "X", 100, baseTime.Add(1*time.Minute)),
		txn("txn-3", "ACC1", "X", 100, baseTime.Add(2*time.Minute)),
		txn("txn-4", "ACC1", "X", 100, baseTime.Add(4*time.Minute)),
	}

	out := d.detectRapidSuccessive(transactions)
	if len(out) != 1 {
		t.Fatalf("expected 1 rapid successive anomaly, got %d", len(out))
	}
	a := out[0]
	if a.Account != "ACC1" || a.Count != 4 {
		t.Errorf("unexpected anomaly %+v", a)
	}
	want := []string{"txn-1", "txn-2", "txn-3", "txn-4"}
	if !reflect.DeepEqual(a.TransactionIDs, want) {
		t.Errorf("expected window ids %v, got %v", want, a.TransactionIDs)
	}
}

func TestDetectRapidSuccessive_OverlappingWindowsEachEmit(t *testing.T) {
	d := newTestDetector()

	// Five transactions a minute apart: windows [1..4] and [2..5] both
	// fit in five minutes and both report.
	var transactions []models.Transaction
	for i := 0; i < 5; i++ {
		transactions = append(transactions,
			txn("txn-"+string(rune('a'+i)), "ACC1", "X", 100, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	out := d.detectRapidSuccessive(transactions)
	if len(out) != 2 {
		t.Fatalf("expected 2 overlapping windows, got %d", len(out))
	}
}

func TestDetectRapidSuccessive_SpanTooWide(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-1", "ACC1", "X", 100, baseTime),
		txn("txn-2", "ACC1", "X", 100, baseTime.Add(2*time.Minute)),
		txn("txn-3", "ACC1", "X", 100, baseTime.Add(4*time.Minute)),
		txn("txn-4", "ACC1", "X", 100, baseTime.Add(6*time.Minute)),
	}

	if out := d.detectRapidSuccessive(transactions); len(out) != 0 {
		t.Errorf("expected no anomalies for a six minute span, got %d", len(out))
	}
}

func TestDetectRapidMovement_FullChain(t *testing.T) {
	d := newTestDetector() // window 1h

	transactions := []models.Transaction{
		txn("txn-1", "A", "B", 1000, baseTime),
		txn("txn-2", "B", "C", 1000, baseTime.Add(10*time.Minute)),
		txn("txn-3", "C", "D", 1000, baseTime.Add(40*time.Minute)),
	}

	out := d.detectRapidMovement(transactions)
	if len(out) != 1 {
		t.Fatalf("expected exactly 1 chain anomaly, got %d: %+v", len(out), out)
	}
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(out[0].Path, want) {
		t.Errorf("expected path %v, got %v", want, out[0].Path)
	}
	if out[0].ElapsedHours < 0.6 || out[0].ElapsedHours > 0.7 {
		t.Errorf("expected elapsed around 0.67h, got %f", out[0].ElapsedHours)
	}
}

func TestDetectRapidMovement_HopOutsideWindow(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-1", "A", "B", 1000, baseTime),
		txn("txn-2", "B", "C", 1000, baseTime.Add(10*time.Minute)),
		txn("txn-3", "C", "D", 1000, baseTime.Add(70*time.Minute)),
	}

	out := d.detectRapidMovement(transactions)
	if len(out) != 1 {
		t.Fatalf("expected only the in-window sub-chain, got %d: %+v", len(out), out)
	}
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(out[0].Path, want) {
		t.Errorf("expected path %v, got %v", want, out[0].Path)
	}
}

func TestDetectRapidMovement_SelfLoopSkipped(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-1", "A", "B", 1000, baseTime),
		txn("txn-2", "B", "B", 1000, baseTime.Add(5*time.Minute)),
	}

	if out := d.detectRapidMovement(transactions); len(out) != 0 {
		t.Errorf("expected no chains from a self loop, got %+v", out)
	}
}
