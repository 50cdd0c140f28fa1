package anomaly

import (
	"testing"
	"time"

	"github.com/savegress/caselens/internal/config"
	"github.com/savegress/caselens/pkg/models"
	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	return NewDetector(config.DefaultThresholds())
}

func txn(id, from, to string, amount int64, date time.Time) models.Transaction {
	return models.Transaction{
		ID:          id,
		FromAccount: from,
		ToAccount:   to,
		Amount:      decimal.NewFromInt(amount),
		Date:        date,
	}
}

func TestDetect_EmptyInputs(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(nil, nil)
	if err != nil {
		t.Fatalf("Detect returned error for empty inputs: %v", err)
	}
	if len(res.HighValue) != 0 || len(res.Circular) != 0 || len(res.RapidMovement) != 0 {
		t.Error("expected empty category lists for empty inputs")
	}
	if res.Truncated {
		t.Error("expected truncated to be false for empty inputs")
	}
	if len(res.Network.Nodes) != 0 || len(res.Network.Edges) != 0 {
		t.Error("expected empty network for empty inputs")
	}
}

func TestDetect_SkippedRecords(t *testing.T) {
	d := newTestDetector()

	transactions := []models.Transaction{
		txn("txn-ok", "ACC1", "ACC2", 100, baseTime),
		{
			ID:          "txn-negative",
			FromAccount: "ACC1",
			ToAccount:   "ACC2",
			Amount:      decimal.NewFromInt(-50),
			Date:        baseTime,
		},
		{
			ID:          "txn-nodate",
			FromAccount: "ACC1",
			ToAccount:   "ACC2",
			Amount:      decimal.NewFromInt(50),
		},
	}

	res, err := d.Detect(nil, transactions)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped records, got %d", len(res.Skipped))
	}
	skippedIDs := map[string]bool{}
	for _, s := range res.Skipped {
		skippedIDs[s.TransactionID] = true
	}
	if !skippedIDs["txn-negative"] || !skippedIDs["txn-nodate"] {
		t.Errorf("unexpected skipped set: %v", res.Skipped)
	}

	// Excluded rows must not reach the network aggregation
	for _, edge := range res.Network.Edges {
		if edge.TransactionCount != 1 {
			t.Errorf("expected skipped rows excluded from edges, got count %d", edge.TransactionCount)
		}
	}
}

func TestDetect_EndToEndScenario(t *testing.T) {
	d := newTestDetector()

	now := time.Now().UTC()
	txnDate := time.Date(now.Year(), now.Month(), now.Day(), 2, 30, 0, 0, time.UTC)

	accounts := []models.Account{
		{
			AccountNumber: "ACC1",
			AccountHolder: "First Holder",
			AccountType:   models.AccountTypePersonal,
			Metadata:      models.AccountMetadata{IPCountry: "NG"},
			CreatedAt:     now.AddDate(0, 0, -2),
			CaseID:        "case-1",
		},
		{
			AccountNumber: "ACC2",
			AccountHolder: "Second Holder",
			AccountType:   models.AccountTypePersonal,
			CreatedAt:     now.AddDate(-1, 0, 0),
			CaseID:        "case-1",
		},
	}
	transactions := []models.Transaction{
		txn("txn-1", "ACC1", "ACC2", 60000, txnDate),
	}

	res, err := d.Detect(accounts, transactions)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	if len(res.HighValue) != 1 || res.HighValue[0].TransactionID != "txn-1" {
		t.Errorf("expected txn-1 in high value output, got %+v", res.HighValue)
	}

	foundGeo := false
	for _, g := range res.Geographic {
		if g.Account == "ACC1" && g.Country == "NG" {
			foundGeo = true
		}
	}
	if !foundGeo {
		t.Errorf("expected ACC1 in geographic output, got %+v", res.Geographic)
	}

	if len(res.UnusualTime) != 1 || res.UnusualTime[0].TransactionID != "txn-1" {
		t.Errorf("expected txn-1 in unusual time output, got %+v", res.UnusualTime)
	}
	if res.UnusualTime[0].Hour != 2 {
		t.Errorf("expected hour 2, got %d", res.UnusualTime[0].Hour)
	}

	if len(res.NewAccountLargeTxn) != 1 || res.NewAccountLargeTxn[0].Account != "ACC1" {
		t.Errorf("expected ACC1 in new account output, got %+v", res.NewAccountLargeTxn)
	}

	// 50 base + 20 new + 30 country + 20 high value = 120, clamped
	if res.RiskScores["ACC1"] != 100 {
		t.Errorf("expected ACC1 risk score 100, got %d", res.RiskScores["ACC1"])
	}

	if len(res.Suspicious) != 1 || res.Suspicious[0] != "txn-1" {
		t.Errorf("expected txn-1 flagged suspicious, got %v", res.Suspicious)
	}

	if len(res.Network.Nodes) != 2 {
		t.Errorf("expected 2 network nodes, got %d", len(res.Network.Nodes))
	}
	if len(res.Network.Edges) != 1 {
		t.Fatalf("expected 1 network edge, got %d", len(res.Network.Edges))
	}
	edge := res.Network.Edges[0]
	if edge.From != "ACC1" || edge.To != "ACC2" || edge.TransactionCount != 1 {
		t.Errorf("unexpected edge %+v", edge)
	}
	if !edge.TotalAmount.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("expected edge total 60000, got %s", edge.TotalAmount)
	}
}

func TestDetect_UnknownAccountsBecomePlaceholders(t *testing.T) {
	d := newTestDetector()

	accounts := []models.Account{
		{AccountNumber: "ACC1", CreatedAt: baseTime.AddDate(-1, 0, 0), CaseID: "case-1"},
	}
	transactions := []models.Transaction{
		txn("txn-1", "GHOST", "ACC1", 60000, baseTime),
	}

	res, err := d.Detect(accounts, transactions)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	var ghost *models.NetworkNode
	for i := range res.Network.Nodes {
		if res.Network.Nodes[i].Account == "GHOST" {
			ghost = &res.Network.Nodes[i]
		}
	}
	if ghost == nil {
		t.Fatal("expected placeholder node for unknown account")
	}
	if !ghost.Placeholder || ghost.RiskScore != 0 {
		t.Errorf("unexpected placeholder node %+v", ghost)
	}

	// Account-keyed checks skip unknown accounts
	if len(res.NewAccountLargeTxn) != 0 {
		t.Errorf("expected no new-account anomalies for unknown source, got %+v", res.NewAccountLargeTxn)
	}
}
