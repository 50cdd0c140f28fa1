package storage

import (
	"context"
	"errors"

	"github.com/savegress/caselens/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// CaseStorage is the interface for case persistence backends
type CaseStorage interface {
	// SaveCase inserts or updates a case record
	SaveCase(ctx context.Context, c *models.Case) error

	// GetCase returns a case by id
	GetCase(ctx context.Context, id string) (*models.Case, error)

	// ListCases returns all cases, newest first
	ListCases(ctx context.Context) ([]*models.Case, error)

	// DeleteCase removes a case and all its documents
	DeleteCase(ctx context.Context, id string) error

	// SaveAccounts replaces the stored account set of a case
	SaveAccounts(ctx context.Context, caseID string, accounts []models.Account) error

	// GetAccounts returns a case's stored accounts
	GetAccounts(ctx context.Context, caseID string) ([]models.Account, error)

	// SaveTransactions replaces the stored transaction set of a case
	SaveTransactions(ctx context.Context, caseID string, transactions []models.Transaction) error

	// GetTransactions returns a case's stored transactions
	GetTransactions(ctx context.Context, caseID string) ([]models.Transaction, error)

	// SaveAnomalies stores a case's detection result
	SaveAnomalies(ctx context.Context, caseID string, anomalies *models.Anomalies) error

	// GetAnomalies returns a case's stored detection result
	GetAnomalies(ctx context.Context, caseID string) (*models.Anomalies, error)

	// SaveComparison stores a cross-case comparison result
	SaveComparison(ctx context.Context, result *models.ComparisonResult) error

	// ListComparisons returns stored comparison results, newest first
	ListComparisons(ctx context.Context) ([]*models.ComparisonResult, error)

	// Close closes the storage
	Close() error
}
