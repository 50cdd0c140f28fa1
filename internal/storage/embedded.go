package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/savegress/caselens/pkg/models"
)

const (
	docKindAccounts     = "accounts"
	docKindTransactions = "transactions"
	docKindAnomalies    = "anomalies"
)

// EmbeddedStorage is a SQLite-based embedded store for cases and
// their documents. Account, transaction and anomaly sets are stored
// as JSON documents keyed by case id.
type EmbeddedStorage struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewEmbeddedStorage creates a new embedded storage under dataPath
func NewEmbeddedStorage(dataPath string) (*EmbeddedStorage, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "cases.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &EmbeddedStorage{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *EmbeddedStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cases (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		account_count INTEGER DEFAULT 0,
		transaction_count INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS case_documents (
		case_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (case_id, kind)
	);

	CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		case_a TEXT NOT NULL,
		case_b TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_cases ON comparisons(case_a, case_b);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCase inserts or updates a case record
func (s *EmbeddedStorage) SaveCase(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (id, name, description, status, account_count, transaction_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			account_count = excluded.account_count,
			transaction_count = excluded.transaction_count,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Description, string(c.Status),
		c.AccountCount, c.TransactionCount,
		c.CreatedAt.Unix(), c.UpdatedAt.Unix())
	return err
}

// GetCase returns a case by id
func (s *EmbeddedStorage) GetCase(ctx context.Context, id string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, account_count, transaction_count, created_at, updated_at
		FROM cases WHERE id = ?`, id)
	return scanCase(row)
}

// ListCases returns all cases, newest first
func (s *EmbeddedStorage) ListCases(ctx context.Context) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, status, account_count, transaction_count, created_at, updated_at
		FROM cases ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// DeleteCase removes a case and all its documents
func (s *EmbeddedStorage) DeleteCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM case_documents WHERE case_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveAccounts replaces the stored account set of a case
func (s *EmbeddedStorage) SaveAccounts(ctx context.Context, caseID string, accounts []models.Account) error {
	return s.saveDocument(ctx, caseID, docKindAccounts, accounts)
}

// GetAccounts returns a case's stored accounts
func (s *EmbeddedStorage) GetAccounts(ctx context.Context, caseID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.loadDocument(ctx, caseID, docKindAccounts, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveTransactions replaces the stored transaction set of a case
func (s *EmbeddedStorage) SaveTransactions(ctx context.Context, caseID string, transactions []models.Transaction) error {
	return s.saveDocument(ctx, caseID, docKindTransactions, transactions)
}

// GetTransactions returns a case's stored transactions
func (s *EmbeddedStorage) GetTransactions(ctx context.Context, caseID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.loadDocument(ctx, caseID, docKindTransactions, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// SaveAnomalies stores a case's detection result
func (s *EmbeddedStorage) SaveAnomalies(ctx context.Context, caseID string, anomalies *models.Anomalies) error {
	return s.saveDocument(ctx, caseID, docKindAnomalies, anomalies)
}

// GetAnomalies returns a case's stored detection result
func (s *EmbeddedStorage) GetAnomalies(ctx context.Context, caseID string) (*models.Anomalies, error) {
	var anomalies models.Anomalies
	if err := s.loadDocument(ctx, caseID, docKindAnomalies, &anomalies); err != nil {
		return nil, err
	}
	return &anomalies, nil
}

// SaveComparison stores a cross-case comparison result
func (s *EmbeddedStorage) SaveComparison(ctx context.Context, result *models.ComparisonResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode comparison: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO comparisons (id, case_a, case_b, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		result.ID, result.CaseA, result.CaseB, string(payload), result.ComparedAt.Unix())
	return err
}

// ListComparisons returns stored comparison results, newest first
func (s *EmbeddedStorage) ListComparisons(ctx context.Context) ([]*models.ComparisonResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM comparisons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ComparisonResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var result models.ComparisonResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to decode comparison: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// Close closes the storage
func (s *EmbeddedStorage) Close() error {
	return s.db.Close()
}

func (s *EmbeddedStorage) saveDocument(ctx context.Context, caseID, kind string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO case_documents (case_id, kind, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(case_id, kind) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		caseID, kind, string(payload), time.Now().Unix())
	return err
}

func (s *EmbeddedStorage) loadDocument(ctx context.Context, caseID, kind string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM case_documents WHERE case_id = ? AND kind = ?`,
		caseID, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", kind, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var c models.Case
	var status string
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.Name, &c.Description, &status,
		&c.AccountCount, &c.TransactionCount, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = models.CaseStatus(status)
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &c, nil
}
