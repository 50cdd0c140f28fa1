package anomaly

import (
	"sort"
	"strings"
	"time"

	"github.com/savegress/caselens/pkg/models"
)

// detectRapidSuccessive slides a fixed window of count+1 consecutive
// transactions over each source account's time-ordered activity and
// emits every window whose span fits inside the configured duration.
// Overlapping windows each emit independently; the over-reporting is
// deliberate, favoring recall over precision.
func (d *Detector) detectRapidSuccessive(transactions []models.Transaction) []models.RapidSuccessiveAnomaly {
	windowSize := d.thresholds.RapidSuccessiveCount + 1
	maxSpan := d.thresholds.RapidSuccessiveWindow

	byAccount := groupBySource(transactions)

	accounts := make([]string, 0, len(byAccount))
	for account := range byAccount {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	var out []models.RapidSuccessiveAnomaly
	for _, account := range accounts {
		txns := byAccount[account]
		if len(txns) < windowSize {
			continue
		}
		for i := 0; i+windowSize <= len(txns); i++ {
			window := txns[i : i+windowSize]
			span := window[len(window)-1].Date.Sub(window[0].Date)
			if span > maxSpan {
				continue
			}
			ids := make([]string, len(window))
			for j, txn := range window {
				ids[j] = txn.ID
			}
			out = append(out, models.RapidSuccessiveAnomaly{
				Account:        account,
				TransactionIDs: ids,
				Count:          len(ids),
				SpanMinutes:    span.Minutes(),
				WindowStart:    window[0].Date,
				WindowEnd:      window[len(window)-1].Date,
			})
		}
	}
	return out
}

type fundChain struct {
	path    []string
	startAt time.Time
}

// detectRapidMovement walks all transactions in time order and grows
// layering chains hop by hop. A chain keyed by its currently reached
// account extends whenever a transaction leaves that account within
// the movement window of the chain's start; paths of three or more
// accounts are reported. Sub-chains that were later extended collapse
// into their longest extension, so a full A->B->C->D run reports one
// anomaly, not three.
func (d *Detector) detectRapidMovement(transactions []models.Transaction) []models.RapidMovementAnomaly {
	window := d.thresholds.RapidMovementWindow

	ordered := make([]models.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	chains := make(map[string]*fundChain)
	emitted := make(map[string]models.RapidMovementAnomaly) // keyed by path signature

	for _, txn := range ordered {
		if chain, ok := chains[txn.FromAccount]; ok && txn.Date.Sub(chain.startAt) <= window {
			head := chain.path[len(chain.path)-1]
			if txn.ToAccount != head {
				extended := make([]string, 0, len(chain.path)+1)
				extended = append(extended, chain.path...)
				extended = append(extended, txn.ToAccount)
				chains[txn.ToAccount] = &fundChain{path: extended, startAt: chain.startAt}
				if len(extended) >= 3 {
					emitted[strings.Join(extended, "->")] = models.RapidMovementAnomaly{
						Path:         extended,
						ElapsedHours: txn.Date.Sub(chain.startAt).Hours(),
						StartAt:      chain.startAt,
					}
				}
			}
		}
		if _, ok := chains[txn.ToAccount]; !ok {
			chains[txn.ToAccount] = &fundChain{
				path:    []string{txn.FromAccount, txn.ToAccount},
				startAt: txn.Date,
			}
		}
	}

	// Drop chains that are strict prefixes of a longer emitted chain.
	signatures := make([]string, 0, len(emitted))
	for sig := range emitted {
		signatures = append(signatures, sig)
	}
	sort.Strings(signatures)

	var out []models.RapidMovementAnomaly
	for _, sig := range signatures {
		isPrefix := false
		for _, other := range signatures {
			if other != sig && strings.HasPrefix(other, sig+"->") {
				isPrefix = true
				break
			}
		}
		if !isPrefix {
			out = append(out, emitted[sig])
		}
	}
	return out
}

func groupBySource(transactions []models.Transaction) map[string][]models.Transaction {
	byAccount := make(map[string][]models.Transaction)
	for _, txn := range transactions {
		byAccount[txn.FromAccount] = append(byAccount[txn.FromAccount], txn)
	}
	for _, txns := range byAccount {
		sort.Slice(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })
	}
	return byAccount
}
