package compare

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/savegress/caselens/internal/config"
	"github.com/savegress/caselens/pkg/models"
)

// Comparator correlates two completed case snapshots. It never
// mutates its inputs; the ComparisonResult it returns is owned by the
// caller.
type Comparator struct {
	thresholds config.ThresholdsConfig
}

// NewComparator creates a comparator with the given thresholds
func NewComparator(thresholds config.ThresholdsConfig) *Comparator {
	return &Comparator{thresholds: thresholds}
}

// Compare runs all six cross-case analyses over two snapshots. Both
// snapshots must already carry a completed detection result; a missing
// Anomalies value is a caller contract violation and fails fast.
func (c *Comparator) Compare(caseA, caseB models.CaseSnapshot) (*models.ComparisonResult, error) {
	if caseA.Anomalies == nil {
		return nil, fmt.Errorf("case %s has no completed anomaly result", caseA.CaseID)
	}
	if caseB.Anomalies == nil {
		return nil, fmt.Errorf("case %s has no completed anomaly result", caseB.CaseID)
	}

	result := &models.ComparisonResult{
		ID:    uuid.NewString(),
		CaseA: caseA.CaseID,
		CaseB: caseB.CaseID,
	}

	// The six analyses read the same immutable snapshots and each
	// writes a distinct result field.
	var wg sync.WaitGroup
	wg.Add(6)

	go func() {
		defer wg.Done()
		result.DirectLinks = c.directLinks(caseA, caseB)
	}()
	go func() {
		defer wg.Done()
		result.PatternSimilarity = c.patternSimilarity(caseA.Anomalies, caseB.Anomalies)
	}()
	go func() {
		defer wg.Done()
		result.NetworkAnalysis = c.networkAnalysis(caseA, caseB)
	}()
	go func() {
		defer wg.Done()
		result.TemporalAnalysis = c.temporalAnalysis(caseA.Transactions, caseB.Transactions)
	}()
	go func() {
		defer wg.Done()
		result.GeographicAnalysis = c.geographicAnalysis(caseA.Accounts, caseB.Accounts)
	}()
	go func() {
		defer wg.Done()
		result.RiskAssessment = c.riskAssessment(caseA, caseB)
	}()

	wg.Wait()
	result.ComparedAt = time.Now()
	return result, nil
}

// directLinks surfaces shared accounts, shared metadata values and
// fund paths flowing from case A into case B.
func (c *Comparator) directLinks(caseA, caseB models.CaseSnapshot) models.DirectLinks {
	accountsA := accountNumberSet(caseA.Accounts)
	accountsB := accountNumberSet(caseB.Accounts)

	links := models.DirectLinks{
		SharedAccounts: intersect(accountsA, accountsB),
		SharedMetadata: models.SharedMetadata{
			Emails:      intersect(metadataValues(caseA.Accounts, func(m models.AccountMetadata) string { return m.Email }), metadataValues(caseB.Accounts, func(m models.AccountMetadata) string { return m.Email })),
			Mobiles:     intersect(metadataValues(caseA.Accounts, func(m models.AccountMetadata) string { return m.Mobile }), metadataValues(caseB.Accounts, func(m models.AccountMetadata) string { return m.Mobile })),
			IPAddresses: intersect(metadataValues(caseA.Accounts, func(m models.AccountMetadata) string { return m.IPAddress }), metadataValues(caseB.Accounts, func(m models.AccountMetadata) string { return m.IPAddress })),
		},
	}

	for _, t1 := range caseA.Transactions {
		for _, t2 := range caseB.Transactions {
			if t1.ToAccount != t2.FromAccount {
				continue
			}
			gap := t2.Date.Sub(t1.Date).Hours()
			if gap < 0 {
				gap = -gap
			}
			links.TransactionLinks = append(links.TransactionLinks, models.TransactionLink{
				Path:         []string{t1.FromAccount, t1.ToAccount, t2.ToAccount},
				TotalAmount:  t1.Amount.Add(t2.Amount),
				TimeGapHours: gap,
			})
		}
	}
	return links
}

// patternSimilarity measures behavioral overlap between the two
// completed anomaly results.
func (c *Comparator) patternSimilarity(a, b *models.Anomalies) models.PatternSimilarity {
	amountsA := make([]float64, len(a.HighValue))
	for i, hv := range a.HighValue {
		amountsA[i] = hv.Amount.InexactFloat64()
	}
	amountsB := make([]float64, len(b.HighValue))
	for i, hv := range b.HighValue {
		amountsB[i] = hv.Amount.InexactFloat64()
	}

	countsA := make([]float64, len(a.Structuring))
	for i, s := range a.Structuring {
		countsA[i] = float64(s.Count)
	}
	countsB := make([]float64, len(b.Structuring))
	for i, s := range b.Structuring {
		countsB[i] = float64(s.Count)
	}

	sigsA := make(map[string]bool, len(a.Circular))
	for _, cycle := range a.Circular {
		sigsA[cycle.Signature] = true
	}
	shared := 0
	for _, cycle := range b.Circular {
		if sigsA[cycle.Signature] {
			shared++
		}
	}
	denom := len(a.Circular)
	if denom < 1 {
		denom = 1
	}

	return models.PatternSimilarity{
		HighValueSimilarity:   cosineSimilarity(amountsA, amountsB),
		StructuringSimilarity: cosineSimilarity(countsA, countsB),
		CircularOverlap:       float64(shared) / float64(denom),
	}
}

// networkAnalysis finds high-degree connector accounts in the union
// graph and edges bridging case A accounts into case B accounts.
func (c *Comparator) networkAnalysis(caseA, caseB models.CaseSnapshot) models.NetworkAnalysis {
	degree := make(map[string]int)
	allEdges := make([]models.NetworkEdge, 0, len(caseA.Anomalies.Network.Edges)+len(caseB.Anomalies.Network.Edges))
	allEdges = append(allEdges, caseA.Anomalies.Network.Edges...)
	allEdges = append(allEdges, caseB.Anomalies.Network.Edges...)
	for _, edge := range allEdges {
		degree[edge.From]++
		degree[edge.To]++
	}

	minDegree := c.thresholds.ConnectorDegree
	if minDegree <= 0 {
		minDegree = 10
	}
	var connectors []string
	for account, deg := range degree {
		if deg > minDegree {
			connectors = append(connectors, account)
		}
	}
	sort.Strings(connectors)

	accountsA := accountNumberSet(caseA.Accounts)
	accountsB := accountNumberSet(caseB.Accounts)
	var bridges []models.NetworkEdge
	for _, edge := range allEdges {
		if accountsA[edge.From] && accountsB[edge.To] {
			bridges = append(bridges, edge)
		}
	}

	return models.NetworkAnalysis{
		ConnectorAccounts: connectors,
		BridgeEdges:       bridges,
	}
}

// riskAssessment combines shared-entity, high-value and geographic
// signals into one weighted score.
func (c *Comparator) riskAssessment(caseA, caseB models.CaseSnapshot) models.RiskAssessment {
	shared := len(intersect(accountNumberSet(caseA.Accounts), accountNumberSet(caseB.Accounts)))

	overlap := 0
	for _, t1 := range caseA.Anomalies.HighValue {
		floor := t1.Amount.Mul(highValueOverlapFactor)
		for _, t2 := range caseB.Anomalies.HighValue {
			if t2.Amount.GreaterThanOrEqual(floor) {
				overlap++
				break
			}
		}
	}

	riskCountries := make(map[string]bool)
	for _, g := range caseA.Anomalies.Geographic {
		if c.thresholds.IsHighRiskCountry(g.Country) {
			riskCountries[g.Country] = true
		}
	}
	for _, g := range caseB.Anomalies.Geographic {
		if c.thresholds.IsHighRiskCountry(g.Country) {
			riskCountries[g.Country] = true
		}
	}

	score := shared*15 + overlap*20 + len(riskCountries)*25

	level := models.RiskLevelLow
	switch {
	case score > 200:
		level = models.RiskLevelCritical
	case score > 100:
		level = models.RiskLevelHigh
	case score > 50:
		level = models.RiskLevelMedium
	}

	return models.RiskAssessment{
		Score:               score,
		Level:               level,
		SharedAccountCount:  shared,
		HighValueOverlap:    overlap,
		GeographicRiskCount: len(riskCountries),
	}
}

// temporalAnalysis compares 24-bucket hour-of-day histograms and the
// overlap of both cases' date ranges.
func (c *Comparator) temporalAnalysis(txnsA, txnsB []models.Transaction) models.TemporalAnalysis {
	histA := hourHistogram(txnsA)
	histB := hourHistogram(txnsB)

	analysis := models.TemporalAnalysis{
		HourlySimilarity: cosineSimilarity(toFloats(histA), toFloats(histB)),
		HistogramA:       histA,
		HistogramB:       histB,
	}

	rangeA, okA := dateRange(txnsA)
	rangeB, okB := dateRange(txnsB)
	if okA && okB {
		start := rangeA.Start
		if rangeB.Start.After(start) {
			start = rangeB.Start
		}
		end := rangeA.End
		if rangeB.End.Before(end) {
			end = rangeB.End
		}
		if !start.After(end) {
			analysis.Overlap = &models.TimeRange{Start: start, End: end}
		}
	}
	return analysis
}

// geographicAnalysis intersects the cases' account country footprints
// and lists high-risk countries new to case B.
func (c *Comparator) geographicAnalysis(accountsA, accountsB []models.Account) models.GeographicAnalysis {
	countriesA := metadataValues(accountsA, func(m models.AccountMetadata) string { return m.IPCountry })
	countriesB := metadataValues(accountsB, func(m models.AccountMetadata) string { return m.IPCountry })

	var newHighRisk []string
	for country := range countriesB {
		if c.thresholds.IsHighRiskCountry(country) && !countriesA[country] {
			newHighRisk = append(newHighRisk, country)
		}
	}
	sort.Strings(newHighRisk)

	return models.GeographicAnalysis{
		CommonCountries:      intersect(countriesA, countriesB),
		NewHighRiskCountries: newHighRisk,
	}
}

func accountNumberSet(accounts []models.Account) map[string]bool {
	set := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		set[acc.AccountNumber] = true
	}
	return set
}

func metadataValues(accounts []models.Account, field func(models.AccountMetadata) string) map[string]bool {
	set := make(map[string]bool)
	for _, acc := range accounts {
		if v := field(acc.Metadata); v != "" {
			set[v] = true
		}
	}
	return set
}

func hourHistogram(transactions []models.Transaction) []int {
	hist := make([]int, 24)
	for _, txn := range transactions {
		hist[txn.Date.Hour()]++
	}
	return hist
}

func dateRange(transactions []models.Transaction) (models.TimeRange, bool) {
	if len(transactions) == 0 {
		return models.TimeRange{}, false
	}
	r := models.TimeRange{Start: transactions[0].Date, End: transactions[0].Date}
	for _, txn := range transactions[1:] {
		if txn.Date.Before(r.Start) {
			r.Start = txn.Date
		}
		if txn.Date.After(r.End) {
			r.End = txn.Date
		}
	}
	return r, true
}
