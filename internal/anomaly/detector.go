package anomaly

import (
	"sort"
	"sync"
	"time"

	"github.com/savegress/caselens/internal/config"
	"github.com/savegress/caselens/pkg/models"
)

// Detector runs all per-case pattern detectors over a closed batch of
// accounts and transactions. Detectors only read their inputs; the
// returned Anomalies value is constructed exclusively by this run.
type Detector struct {
	thresholds config.ThresholdsConfig

	// now is swappable for deterministic tests
	now func() time.Time
}

// NewDetector creates a detector with the given thresholds
func NewDetector(thresholds config.ThresholdsConfig) *Detector {
	return &Detector{
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Detect analyzes one case's accounts and transactions and returns the
// merged anomaly result. Malformed rows are excluded and reported in
// Skipped; they never abort the run. Detect is total over well-formed
// input: empty inputs yield empty category lists.
func (d *Detector) Detect(accounts []models.Account, transactions []models.Transaction) (*models.Anomalies, error) {
	valid, skipped := validateTransactions(transactions)
	accountIndex := indexAccounts(accounts)

	res := &models.Anomalies{
		Skipped: skipped,
	}
	if len(accounts) > 0 {
		res.CaseID = accounts[0].CaseID
	} else if len(valid) > 0 {
		res.CaseID = valid[0].CaseID
	}

	// Each goroutine writes a disjoint set of result fields; the
	// inputs are immutable for the duration of the run, so merging
	// is plain assignment.
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		res.HighValue = d.detectHighValue(valid)
		res.Structuring = d.detectStructuring(valid)
		res.Smurfing = d.detectSmurfing(valid)
		res.UnusualTime = d.detectUnusualTime(valid)
		res.NewAccountLargeTxn = d.detectNewAccountLarge(accountIndex, valid)
		res.FrequentTransactions = d.detectFrequentPairs(valid)
		res.Geographic = d.detectGeographic(accounts, valid)
	}()

	go func() {
		defer wg.Done()
		res.RapidSuccessive = d.detectRapidSuccessive(valid)
		res.RapidMovement = d.detectRapidMovement(valid)
	}()

	go func() {
		defer wg.Done()
		res.Circular, res.Truncated = d.detectCycles(valid)
	}()

	go func() {
		defer wg.Done()
		res.RiskScores = d.scoreAccounts(accounts, valid)
	}()

	wg.Wait()

	res.Network = d.buildNetwork(accounts, valid, res.RiskScores)
	res.Suspicious = suspiciousTransactions(valid, res)
	res.GeneratedAt = d.now()

	return res, nil
}

func validateTransactions(transactions []models.Transaction) ([]models.Transaction, []models.SkippedRecord) {
	valid := make([]models.Transaction, 0, len(transactions))
	var skipped []models.SkippedRecord
	for _, txn := range transactions {
		switch {
		case txn.Amount.IsNegative():
			skipped = append(skipped, models.SkippedRecord{
				TransactionID: txn.ID,
				Reason:        "negative amount",
			})
		case txn.Date.IsZero():
			skipped = append(skipped, models.SkippedRecord{
				TransactionID: txn.ID,
				Reason:        "missing or invalid date",
			})
		default:
			valid = append(valid, txn)
		}
	}
	return valid, skipped
}

func indexAccounts(accounts []models.Account) map[string]models.Account {
	index := make(map[string]models.Account, len(accounts))
	for _, acc := range accounts {
		index[acc.AccountNumber] = acc
	}
	return index
}

// suspiciousTransactions computes the derived per-transaction flag
// set: a transaction is suspicious when its id or either endpoint
// account appears in any category output.
func suspiciousTransactions(transactions []models.Transaction, res *models.Anomalies) []string {
	flaggedTxns := make(map[string]bool)
	flaggedAccounts := make(map[string]bool)

	for _, a := range res.HighValue {
		flaggedTxns[a.TransactionID] = true
	}
	for _, a := range res.UnusualTime {
		flaggedTxns[a.TransactionID] = true
	}
	for _, a := range res.NewAccountLargeTxn {
		flaggedTxns[a.TransactionID] = true
		flaggedAccounts[a.Account] = true
	}
	for _, a := range res.RapidSuccessive {
		for _, id := range a.TransactionIDs {
			flaggedTxns[id] = true
		}
		flaggedAccounts[a.Account] = true
	}
	for _, a := range res.Structuring {
		for _, id := range a.TransactionIDs {
			flaggedTxns[id] = true
		}
		flaggedAccounts[a.Account] = true
	}
	for _, a := range res.Smurfing {
		flaggedAccounts[a.Account] = true
	}
	for _, a := range res.Geographic {
		if a.Account != "" {
			flaggedAccounts[a.Account] = true
		}
		if a.TransactionID != "" {
			flaggedTxns[a.TransactionID] = true
		}
	}
	for _, a := range res.Circular {
		for _, acc := range a.Path {
			flaggedAccounts[acc] = true
		}
	}
	for _, a := range res.RapidMovement {
		for _, acc := range a.Path {
			flaggedAccounts[acc] = true
		}
	}
	for _, a := range res.FrequentTransactions {
		flaggedAccounts[a.FromAccount] = true
		flaggedAccounts[a.ToAccount] = true
	}

	var suspicious []string
	for _, txn := range transactions {
		if flaggedTxns[txn.ID] || flaggedAccounts[txn.FromAccount] || flaggedAccounts[txn.ToAccount] {
			suspicious = append(suspicious, txn.ID)
		}
	}
	sort.Strings(suspicious)
	return suspicious
}
