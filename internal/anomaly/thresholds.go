package anomaly

import (
	"sort"
	"time"

	"github.com/savegress/caselens/pkg/models"
	"github.com/shopspring/decimal"
)

// detectHighValue emits one record per transaction at or above the
// high-value threshold. The boundary is inclusive.
func (d *Detector) detectHighValue(transactions []models.Transaction) []models.HighValueAnomaly {
	threshold := decimal.NewFromFloat(d.thresholds.HighValue)

	var out []models.HighValueAnomaly
	for _, txn := range transactions {
		if txn.Amount.GreaterThanOrEqual(threshold) {
			out = append(out, models.HighValueAnomaly{
				TransactionID: txn.ID,
				FromAccount:   txn.FromAccount,
				ToAccount:     txn.ToAccount,
				Amount:        txn.Amount,
				Date:          txn.Date,
			})
		}
	}
	return out
}

// detectStructuring emits one record per source account with outgoing
// transactions in [0.9*limit, limit). An amount exactly at the limit
// does not count.
func (d *Detector) detectStructuring(transactions []models.Transaction) []models.StructuringAnomaly {
	limit := decimal.NewFromFloat(d.thresholds.StructuringLimit)
	lower := limit.Mul(decimal.NewFromFloat(0.9))

	byAccount := make(map[string]*models.StructuringAnomaly)
	for _, txn := range transactions {
		if txn.Amount.GreaterThanOrEqual(lower) && txn.Amount.LessThan(limit) {
			entry, ok := byAccount[txn.FromAccount]
			if !ok {
				entry = &models.StructuringAnomaly{Account: txn.FromAccount}
				byAccount[txn.FromAccount] = entry
			}
			entry.TransactionIDs = append(entry.TransactionIDs, txn.ID)
			entry.Count++
			entry.TotalAmount = entry.TotalAmount.Add(txn.Amount)
		}
	}

	out := make([]models.StructuringAnomaly, 0, len(byAccount))
	for _, entry := range byAccount {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	if len(out) == 0 {
		return nil
	}
	return out
}

// detectSmurfing counts outgoing transactions per account under the
// structuring limit and emits accounts exceeding the smurfing count.
func (d *Detector) detectSmurfing(transactions []models.Transaction) []models.SmurfingAnomaly {
	limit := decimal.NewFromFloat(d.thresholds.StructuringLimit)

	counts := make(map[string]int)
	for _, txn := range transactions {
		if txn.Amount.LessThan(limit) {
			counts[txn.FromAccount]++
		}
	}

	var out []models.SmurfingAnomaly
	for account, count := range counts {
		if count > d.thresholds.SmurfingCount {
			out = append(out, models.SmurfingAnomaly{Account: account, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// detectUnusualTime emits transactions whose hour-of-day falls inside
// the configured range, inclusive on both ends.
func (d *Detector) detectUnusualTime(transactions []models.Transaction) []models.UnusualTimeAnomaly {
	start := d.thresholds.UnusualHourStart
	end := d.thresholds.UnusualHourEnd

	var out []models.UnusualTimeAnomaly
	for _, txn := range transactions {
		hour := txn.Date.Hour()
		if hour >= start && hour <= end {
			out = append(out, models.UnusualTimeAnomaly{
				TransactionID: txn.ID,
				FromAccount:   txn.FromAccount,
				ToAccount:     txn.ToAccount,
				Hour:          hour,
				Date:          txn.Date,
			})
		}
	}
	return out
}

// detectNewAccountLarge emits transactions above the new-account
// threshold whose source account was created recently. Transactions
// referencing account numbers with no stored Account record are
// skipped, not errors.
func (d *Detector) detectNewAccountLarge(accounts map[string]models.Account, transactions []models.Transaction) []models.NewAccountAnomaly {
	threshold := decimal.NewFromFloat(d.thresholds.NewAccountHighValue)
	maxAge := time.Duration(d.thresholds.NewAccountDays) * 24 * time.Hour
	now := d.now()

	var out []models.NewAccountAnomaly
	for _, txn := range transactions {
		acc, ok := accounts[txn.FromAccount]
		if !ok {
			continue
		}
		age := now.Sub(acc.CreatedAt)
		if age <= maxAge && txn.Amount.GreaterThan(threshold) {
			out = append(out, models.NewAccountAnomaly{
				Account:        acc.AccountNumber,
				TransactionID:  txn.ID,
				Amount:         txn.Amount,
				AccountAgeDays: age.Hours() / 24,
			})
		}
	}
	return out
}

// detectFrequentPairs counts transactions per ordered (from, to) pair
// and emits pairs exceeding the configured count.
func (d *Detector) detectFrequentPairs(transactions []models.Transaction) []models.FrequentPairAnomaly {
	type pair struct{ from, to string }
	counts := make(map[pair]int)
	for _, txn := range transactions {
		counts[pair{txn.FromAccount, txn.ToAccount}]++
	}

	var out []models.FrequentPairAnomaly
	for p, count := range counts {
		if count > d.thresholds.FrequentSameAccounts {
			out = append(out, models.FrequentPairAnomaly{
				FromAccount: p.from,
				ToAccount:   p.to,
				Count:       count,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromAccount != out[j].FromAccount {
			return out[i].FromAccount < out[j].FromAccount
		}
		return out[i].ToAccount < out[j].ToAccount
	})
	return out
}

// detectGeographic emits accounts registered from high-risk countries
// and transactions whose own metadata carries one.
func (d *Detector) detectGeographic(accounts []models.Account, transactions []models.Transaction) []models.GeographicAnomaly {
	var out []models.GeographicAnomaly
	for _, acc := range accounts {
		if d.thresholds.IsHighRiskCountry(acc.Metadata.IPCountry) {
			out = append(out, models.GeographicAnomaly{
				Account: acc.AccountNumber,
				Country: acc.Metadata.IPCountry,
			})
		}
	}
	for _, txn := range transactions {
		if d.thresholds.IsHighRiskCountry(txn.Metadata.IPCountry) {
			out = append(out, models.GeographicAnomaly{
				TransactionID: txn.ID,
				Country:       txn.Metadata.IPCountry,
			})
		}
	}
	return out
}
