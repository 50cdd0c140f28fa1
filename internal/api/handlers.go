package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savegress/caselens/internal/cases"
	"github.com/savegress/caselens/internal/compare"
	"github.com/savegress/caselens/internal/storage"
	"github.com/savegress/caselens/pkg/models"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	cases      *cases.Engine
	comparator *compare.Comparator
	store      storage.CaseStorage
}

// NewHandlers creates new handlers
func NewHandlers(engine *cases.Engine, comparator *compare.Comparator, store storage.CaseStorage) *Handlers {
	return &Handlers{
		cases:      engine,
		comparator: comparator,
		store:      store,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "caselens",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Case handlers

// ListCases lists all cases
func (h *Handlers) ListCases(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.cases.ListCases())
}

// CreateCase creates a new case
func (h *Handlers) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Case name is required")
		return
	}

	c, err := h.cases.CreateCase(r.Context(), req.Name, req.Description)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusCreated, c)
}

// GetCase gets a case by ID
func (h *Handlers) GetCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, ok := h.cases.GetCase(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Case not found")
		return
	}
	respond(w, http.StatusOK, c)
}

// DeleteCase deletes a case
func (h *Handlers) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.cases.DeleteCase(r.Context(), id); err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "Case not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportAccounts ingests an accounts CSV into a case
func (h *Handlers) ImportAccounts(w http.ResponseWriter, r *http.Request) {
	h.importCSV(w, r, h.cases.ImportAccounts)
}

// ImportTransactions ingests a transactions CSV into a case
func (h *Handlers) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	h.importCSV(w, r, h.cases.ImportTransactions)
}

// importCSV accepts either a raw CSV body or a multipart upload with
// a "file" part.
func (h *Handlers) importCSV(w http.ResponseWriter, r *http.Request, ingest func(ctx context.Context, caseID string, body io.Reader) (*cases.ImportSummary, error)) {
	id := chi.URLParam(r, "id")

	var body io.Reader = r.Body
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Missing file upload")
			return
		}
		defer file.Close()
		body = file
	}

	summary, err := ingest(r.Context(), id, body)
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "Case not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, http.StatusOK, summary)
}

// RunDetection triggers a detection run for a case
func (h *Handlers) RunDetection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.cases.RunDetection(r.Context(), id)
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "Case not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, result)
}

// GetAnomalies returns a case's detection result
func (h *Handlers) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.cases.Anomalies(id)
	if err != nil {
		respondCaseError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

// GetNetwork returns a case's transaction graph
func (h *Handlers) GetNetwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.cases.Anomalies(id)
	if err != nil {
		respondCaseError(w, err)
		return
	}
	respond(w, http.StatusOK, result.Network)
}

// GetSuspiciousTransactions returns a case's flagged transactions
func (h *Handlers) GetSuspiciousTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	transactions, err := h.cases.Transactions(id)
	if err != nil {
		respondCaseError(w, err)
		return
	}

	var suspicious []models.Transaction
	for _, txn := range transactions {
		if txn.IsSuspicious {
			suspicious = append(suspicious, txn)
		}
	}
	respond(w, http.StatusOK, suspicious)
}

// Comparison handlers

// CompareCases correlates two analyzed cases
func (h *Handlers) CompareCases(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseA string `json:"case_a"`
		CaseB string `json:"case_b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CaseA == "" || req.CaseB == "" {
		respondError(w, http.StatusBadRequest, "Both case_a and case_b are required")
		return
	}

	snapA, err := h.cases.Snapshot(req.CaseA)
	if err != nil {
		respondCaseError(w, err)
		return
	}
	snapB, err := h.cases.Snapshot(req.CaseB)
	if err != nil {
		respondCaseError(w, err)
		return
	}

	result, err := h.comparator.Compare(snapA, snapB)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.store.SaveComparison(r.Context(), result); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, result)
}

// ListComparisons lists stored comparison results
func (h *Handlers) ListComparisons(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListComparisons(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, results)
}

// Helper functions

func respondCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cases.ErrCaseNotFound):
		respondError(w, http.StatusNotFound, "Case not found")
	case errors.Is(err, cases.ErrNoAnomalies):
		respondError(w, http.StatusConflict, "Case has not been analyzed yet")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
