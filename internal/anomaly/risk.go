package anomaly

import (
	"time"

	"github.com/savegress/caselens/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	baseRiskScore      = 50
	newAccountRiskDays = 7
	busyAccountTxns    = 10
)

// scoreAccounts assigns every account a rule-based risk score:
// base 50, +20 for accounts younger than a week, +30 for a high-risk
// registration country, +10 for more than ten outgoing transactions,
// +20 when any outgoing transaction reaches the high-value threshold.
// Scores clamp to [0, 100].
func (d *Detector) scoreAccounts(accounts []models.Account, transactions []models.Transaction) map[string]int {
	highValue := decimal.NewFromFloat(d.thresholds.HighValue)
	now := d.now()

	outgoing := make(map[string][]models.Transaction)
	for _, txn := range transactions {
		outgoing[txn.FromAccount] = append(outgoing[txn.FromAccount], txn)
	}

	scores := make(map[string]int, len(accounts))
	for _, acc := range accounts {
		score := baseRiskScore

		if now.Sub(acc.CreatedAt) < newAccountRiskDays*24*time.Hour {
			score += 20
		}
		if d.thresholds.IsHighRiskCountry(acc.Metadata.IPCountry) {
			score += 30
		}

		sent := outgoing[acc.AccountNumber]
		if len(sent) > busyAccountTxns {
			score += 10
		}
		for _, txn := range sent {
			if txn.Amount.GreaterThanOrEqual(highValue) {
				score += 20
				break
			}
		}

		scores[acc.AccountNumber] = clampScore(score)
	}
	return scores
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
