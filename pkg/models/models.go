package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of account under investigation
type AccountType string

const (
	AccountTypePersonal AccountType = "personal"
	AccountTypeBusiness AccountType = "business"
)

// AccountMetadata holds contact and network attributes of an account
type AccountMetadata struct {
	Mobile    string `json:"mobile,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Email     string `json:"email,omitempty"`
	IPCountry string `json:"ip_country,omitempty"`
}

// Account represents a bank account within an investigation case
type Account struct {
	AccountNumber string          `json:"account_number"`
	AccountHolder string          `json:"account_holder"`
	AccountType   AccountType     `json:"account_type"`
	Metadata      AccountMetadata `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
	CaseID        string          `json:"case_id"`
}

// TransactionMetadata holds network attributes of a transaction
type TransactionMetadata struct {
	IPCountry string `json:"ip_country,omitempty"`
}

// Transaction represents a fund movement between two account numbers.
// FromAccount and ToAccount are plain strings and are not required to
// reference a stored Account record.
type Transaction struct {
	ID           string              `json:"id"`
	FromAccount  string              `json:"from_account"`
	ToAccount    string              `json:"to_account"`
	Amount       decimal.Decimal     `json:"amount"`
	Date         time.Time           `json:"date"`
	Metadata     TransactionMetadata `json:"metadata"`
	CaseID       string              `json:"case_id"`
	IsSuspicious bool                `json:"is_suspicious"`
}

// CaseStatus represents the lifecycle state of a case
type CaseStatus string

const (
	CaseStatusOpen      CaseStatus = "open"
	CaseStatusAnalyzing CaseStatus = "analyzing"
	CaseStatusAnalyzed  CaseStatus = "analyzed"
	CaseStatusClosed    CaseStatus = "closed"
)

// Case represents an investigation case
type Case struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	Status           CaseStatus `json:"status"`
	AccountCount     int        `json:"account_count"`
	TransactionCount int        `json:"transaction_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HighValueAnomaly flags a single transaction at or above the
// high-value threshold
type HighValueAnomaly struct {
	TransactionID string          `json:"transaction_id"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
}

// RapidSuccessiveAnomaly flags a window of consecutive transactions
// from one account within a short time span
type RapidSuccessiveAnomaly struct {
	Account        string    `json:"account"`
	TransactionIDs []string  `json:"transaction_ids"`
	Count          int       `json:"count"`
	SpanMinutes    float64   `json:"span_minutes"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
}

// StructuringAnomaly flags an account with outgoing transactions just
// under the reporting limit
type StructuringAnomaly struct {
	Account        string          `json:"account"`
	TransactionIDs []string        `json:"transaction_ids"`
	Count          int             `json:"count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// GeographicAnomaly flags an account or transaction tied to a
// high-risk country
type GeographicAnomaly struct {
	Account       string `json:"account,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Country       string `json:"country"`
}

// CircularAnomaly flags a cycle in the account transfer graph.
// Path holds the canonical rotation of the cycle, starting at its
// lexicographically smallest account.
type CircularAnomaly struct {
	Path      []string `json:"path"`
	Signature string   `json:"signature"`
	Length    int      `json:"length"`
}

// SmurfingAnomaly flags an account with many small outgoing
// transactions under the reporting limit
type SmurfingAnomaly struct {
	Account string `json:"account"`
	Count   int    `json:"count"`
}

// UnusualTimeAnomaly flags a transaction executed during unusual hours
type UnusualTimeAnomaly struct {
	TransactionID string    `json:"transaction_id"`
	FromAccount   string    `json:"from_account"`
	ToAccount     string    `json:"to_account"`
	Hour          int       `json:"hour"`
	Date          time.Time `json:"date"`
}

// RapidMovementAnomaly flags a multi-hop chain of fund movements
// completed within the layering window
type RapidMovementAnomaly struct {
	Path         []string  `json:"path"`
	ElapsedHours float64   `json:"elapsed_hours"`
	StartAt      time.Time `json:"start_at"`
}

// NewAccountAnomaly flags a large transaction from a recently created
// account
type NewAccountAnomaly struct {
	Account        string          `json:"account"`
	TransactionID  string          `json:"transaction_id"`
	Amount         decimal.Decimal `json:"amount"`
	AccountAgeDays float64         `json:"account_age_days"`
}

// FrequentPairAnomaly flags an ordered account pair with an unusually
// high transaction count
type FrequentPairAnomaly struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Count       int    `json:"count"`
}

// SkippedRecord reports a malformed input row excluded from analysis
type SkippedRecord struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason"`
}

// NetworkNode is an account node in the case transaction graph.
// Placeholder nodes stand in for account numbers referenced by
// transactions without a stored Account record.
type NetworkNode struct {
	Account       string `json:"account"`
	AccountHolder string `json:"account_holder,omitempty"`
	RiskScore     int    `json:"risk_score"`
	Placeholder   bool   `json:"placeholder,omitempty"`
}

// NetworkEdge aggregates all transactions sharing one ordered
// (from, to) pair
type NetworkEdge struct {
	From             string          `json:"from"`
	To               string          `json:"to"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TransactionCount int             `json:"transaction_count"`
}

// Network is the aggregated transaction graph of a case
type Network struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
}

// Anomalies is the complete, case-scoped detection result. It is
// produced once per detection run and treated as immutable thereafter.
type Anomalies struct {
	CaseID               string                   `json:"case_id"`
	HighValue            []HighValueAnomaly       `json:"high_value"`
	RapidSuccessive      []RapidSuccessiveAnomaly `json:"rapid_successive"`
	Structuring          []StructuringAnomaly     `json:"structuring"`
	Geographic           []GeographicAnomaly      `json:"geographic"`
	Circular             []CircularAnomaly        `json:"circular"`
	Smurfing             []SmurfingAnomaly        `json:"smurfing"`
	UnusualTime          []UnusualTimeAnomaly     `json:"unusual_time"`
	RapidMovement        []RapidMovementAnomaly   `json:"rapid_movement"`
	NewAccountLargeTxn   []NewAccountAnomaly      `json:"new_account_large_txn"`
	FrequentTransactions []FrequentPairAnomaly    `json:"frequent_transactions"`
	Network              Network                  `json:"network"`
	RiskScores           map[string]int           `json:"risk_scores"`
	Suspicious           []string                 `json:"suspicious"`
	Skipped              []SkippedRecord          `json:"skipped,omitempty"`
	Truncated            bool                     `json:"truncated,omitempty"`
	GeneratedAt          time.Time                `json:"generated_at"`
}

// CaseSnapshot bundles a case's inputs with its completed detection
// result for cross-case comparison
type CaseSnapshot struct {
	CaseID       string        `json:"case_id"`
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
	Anomalies    *Anomalies    `json:"anomalies"`
}

// RiskLevel grades a combined cross-case risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// TransactionLink is a 3-node fund path crossing from one case into
// the other
type TransactionLink struct {
	Path         []string        `json:"path"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TimeGapHours float64         `json:"time_gap_hours"`
}

// SharedMetadata lists metadata values appearing in both cases'
// accounts, per field
type SharedMetadata struct {
	Emails      []string `json:"emails,omitempty"`
	Mobiles     []string `json:"mobiles,omitempty"`
	IPAddresses []string `json:"ip_addresses,omitempty"`
}

// DirectLinks holds the direct entity overlap between two cases
type DirectLinks struct {
	SharedAccounts   []string          `json:"shared_accounts"`
	SharedMetadata   SharedMetadata    `json:"shared_metadata"`
	TransactionLinks []TransactionLink `json:"transaction_links"`
}

// PatternSimilarity quantifies behavioral overlap between two cases
type PatternSimilarity struct {
	HighValueSimilarity   float64 `json:"high_value_similarity"`
	StructuringSimilarity float64 `json:"structuring_similarity"`
	CircularOverlap       float64 `json:"circular_overlap"`
}

// NetworkAnalysis holds graph-level findings across both cases
type NetworkAnalysis struct {
	ConnectorAccounts []string      `json:"connector_accounts"`
	BridgeEdges       []NetworkEdge `json:"bridge_edges"`
}

// RiskAssessment is the combined cross-case risk verdict
type RiskAssessment struct {
	Score               int       `json:"score"`
	Level               RiskLevel `json:"level"`
	SharedAccountCount  int       `json:"shared_account_count"`
	HighValueOverlap    int       `json:"high_value_overlap"`
	GeographicRiskCount int       `json:"geographic_risk_count"`
}

// TimeRange is a closed interval of instants
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TemporalAnalysis compares the hour-of-day activity of two cases
type TemporalAnalysis struct {
	HourlySimilarity float64    `json:"hourly_similarity"`
	HistogramA       []int      `json:"histogram_a"`
	HistogramB       []int      `json:"histogram_b"`
	Overlap          *TimeRange `json:"overlap,omitempty"`
}

// GeographicAnalysis compares the country footprint of two cases.
// NewHighRiskCountries is directional: high-risk countries present in
// case B but absent from case A.
type GeographicAnalysis struct {
	CommonCountries      []string `json:"common_countries"`
	NewHighRiskCountries []string `json:"new_high_risk_countries"`
}

// ComparisonResult correlates two completed cases. It is derived,
// read-only data owned by the caller.
type ComparisonResult struct {
	ID                 string             `json:"id"`
	CaseA              string             `json:"case_a"`
	CaseB              string             `json:"case_b"`
	DirectLinks        DirectLinks        `json:"direct_links"`
	PatternSimilarity  PatternSimilarity  `json:"pattern_similarity"`
	NetworkAnalysis    NetworkAnalysis    `json:"network_analysis"`
	RiskAssessment     RiskAssessment     `json:"risk_assessment"`
	TemporalAnalysis   TemporalAnalysis   `json:"temporal_analysis"`
	GeographicAnalysis GeographicAnalysis `json:"geographic_analysis"`
	ComparedAt         time.Time          `json:"compared_at"`
}
