package cases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savegress/caselens/internal/anomaly"
	"github.com/savegress/caselens/internal/storage"
	"github.com/savegress/caselens/pkg/models"
)

var (
	// ErrCaseNotFound is returned for operations on unknown cases
	ErrCaseNotFound = errors.New("case not found")

	// ErrNoAnomalies is returned when a case has not been analyzed yet
	ErrNoAnomalies = errors.New("case has no completed anomaly result")
)

// Engine manages the case registry: ingestion, detection runs and
// snapshots for cross-case comparison. State is held in memory and
// written through to storage.
type Engine struct {
	detector *anomaly.Detector
	store    storage.CaseStorage

	mu           sync.RWMutex
	cases        map[string]*models.Case
	accounts     map[string][]models.Account
	transactions map[string][]models.Transaction
	anomalies    map[string]*models.Anomalies
}

// NewEngine creates a case engine backed by the given detector and
// storage
func NewEngine(detector *anomaly.Detector, store storage.CaseStorage) *Engine {
	return &Engine{
		detector:     detector,
		store:        store,
		cases:        make(map[string]*models.Case),
		accounts:     make(map[string][]models.Account),
		transactions: make(map[string][]models.Transaction),
		anomalies:    make(map[string]*models.Anomalies),
	}
}

// Load restores persisted cases and their documents into memory
func (e *Engine) Load(ctx context.Context) error {
	stored, err := e.store.ListCases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cases: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range stored {
		e.cases[c.ID] = c

		if accounts, err := e.store.GetAccounts(ctx, c.ID); err == nil {
			e.accounts[c.ID] = accounts
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if transactions, err := e.store.GetTransactions(ctx, c.ID); err == nil {
			e.transactions[c.ID] = transactions
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if anomalies, err := e.store.GetAnomalies(ctx, c.ID); err == nil {
			e.anomalies[c.ID] = anomalies
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

// CreateCase registers a new investigation case
func (e *Engine) CreateCase(ctx context.Context, name, description string) (*models.Case, error) {
	now := time.Now().UTC()
	c := &models.Case{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      models.CaseStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.store.SaveCase(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to persist case: %w", err)
	}

	e.mu.Lock()
	e.cases[c.ID] = c
	e.mu.Unlock()

	return c, nil
}

// GetCase returns a case by id
func (e *Engine) GetCase(id string) (*models.Case, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cases[id]
	return c, ok
}

// ListCases returns all cases, newest first
func (e *Engine) ListCases() []*models.Case {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.Case, 0, len(e.cases))
	for _, c := range e.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// DeleteCase removes a case and its documents
func (e *Engine) DeleteCase(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cases[id]; !ok {
		return ErrCaseNotFound
	}
	if err := e.store.DeleteCase(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	delete(e.cases, id)
	delete(e.accounts, id)
	delete(e.transactions, id)
	delete(e.anomalies, id)
	return nil
}

// ImportSummary reports the outcome of a CSV import
type ImportSummary struct {
	Imported int                    `json:"imported"`
	Skipped  []models.SkippedRecord `json:"skipped,omitempty"`
}

// ImportAccounts parses an accounts CSV stream and appends the rows
// to the case's account set
func (e *Engine) ImportAccounts(ctx context.Context, caseID string, r io.Reader) (*ImportSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.cases[caseID]
	if !ok {
		return nil, ErrCaseNotFound
	}

	accounts, skipped, err := parseAccountsCSV(caseID, r)
	if err != nil {
		return nil, err
	}

	merged := append(e.accounts[caseID], accounts...)
	if err := e.store.SaveAccounts(ctx, caseID, merged); err != nil {
		return nil, fmt.Errorf("failed to persist accounts: %w", err)
	}
	e.accounts[caseID] = merged

	c.AccountCount = len(merged)
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.SaveCase(ctx, c); err != nil {
		return nil, err
	}

	return &ImportSummary{Imported: len(accounts), Skipped: skipped}, nil
}

// ImportTransactions parses a transactions CSV stream and appends the
// rows to the case's transaction set
func (e *Engine) ImportTransactions(ctx context.Context, caseID string, r io.Reader) (*ImportSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.cases[caseID]
	if !ok {
		return nil, ErrCaseNotFound
	}

	transactions, skipped, err := parseTransactionsCSV(caseID, r)
	if err != nil {
		return nil, err
	}

	merged := append(e.transactions[caseID], transactions...)
	if err := e.store.SaveTransactions(ctx, caseID, merged); err != nil {
		return nil, fmt.Errorf("failed to persist transactions: %w", err)
	}
	e.transactions[caseID] = merged

	c.TransactionCount = len(merged)
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.SaveCase(ctx, c); err != nil {
		return nil, err
	}

	return &ImportSummary{Imported: len(transactions), Skipped: skipped}, nil
}

// RunDetection executes the anomaly detectors over the case's current
// accounts and transactions, applies the derived suspicious flags and
// persists the result
func (e *Engine) RunDetection(ctx context.Context, caseID string) (*models.Anomalies, error) {
	e.mu.Lock()
	c, ok := e.cases[caseID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrCaseNotFound
	}
	c.Status = models.CaseStatusAnalyzing
	accounts := e.accounts[caseID]
	transactions := e.transactions[caseID]
	e.mu.Unlock()

	result, err := e.detector.Detect(accounts, transactions)
	if err != nil {
		return nil, fmt.Errorf("detection failed for case %s: %w", caseID, err)
	}
	result.CaseID = caseID

	suspicious := make(map[string]bool, len(result.Suspicious))
	for _, id := range result.Suspicious {
		suspicious[id] = true
	}
	flagged := make([]models.Transaction, len(transactions))
	for i, txn := range transactions {
		txn.IsSuspicious = suspicious[txn.ID]
		flagged[i] = txn
	}

	if err := e.store.SaveAnomalies(ctx, caseID, result); err != nil {
		return nil, fmt.Errorf("failed to persist anomalies: %w", err)
	}
	if err := e.store.SaveTransactions(ctx, caseID, flagged); err != nil {
		return nil, fmt.Errorf("failed to persist transactions: %w", err)
	}

	e.mu.Lock()
	e.anomalies[caseID] = result
	e.transactions[caseID] = flagged
	c.Status = models.CaseStatusAnalyzed
	c.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()

	if err := e.store.SaveCase(ctx, c); err != nil {
		return nil, err
	}
	return result, nil
}

// Anomalies returns the case's completed detection result
func (e *Engine) Anomalies(caseID string) (*models.Anomalies, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.cases[caseID]; !ok {
		return nil, ErrCaseNotFound
	}
	result, ok := e.anomalies[caseID]
	if !ok {
		return nil, ErrNoAnomalies
	}
	return result, nil
}

// Transactions returns the case's current transactions
func (e *Engine) Transactions(caseID string) ([]models.Transaction, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.cases[caseID]; !ok {
		return nil, ErrCaseNotFound
	}
	return e.transactions[caseID], nil
}

// Snapshot bundles a case's inputs with its detection result for the
// comparator. The case must have been analyzed.
func (e *Engine) Snapshot(caseID string) (models.CaseSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.cases[caseID]; !ok {
		return models.CaseSnapshot{}, ErrCaseNotFound
	}
	result, ok := e.anomalies[caseID]
	if !ok {
		return models.CaseSnapshot{}, ErrNoAnomalies
	}
	return models.CaseSnapshot{
		CaseID:       caseID,
		Accounts:     e.accounts[caseID],
		Transactions: e.transactions[caseID],
		Anomalies:    result,
	}, nil
}
