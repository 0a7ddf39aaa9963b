package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
)

// BillingHandler handles ledger and expense HTTP requests
type BillingHandler struct {
	billingService *services.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// RecordTransaction handles POST /api/transactions
func (h *BillingHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var transaction entities.Transaction
	if err := json.NewDecoder(r.Body).Decode(&transaction); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.billingService.RecordTransaction(r.Context(), &transaction); err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, transaction)
}

// GetTransaction handles GET /api/transactions/{id}
func (h *BillingHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "transaction ID is required")
		return
	}

	transaction, err := h.billingService.GetTransaction(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, transaction)
}

// ListTransactions handles GET /api/transactions
func (h *BillingHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.TransactionFilter{
		PatientID: query.Get("patient_id"),
		Type:      entities.TransactionType(query.Get("type")),
		Status:    entities.TransactionStatus(query.Get("status")),
		Limit:     parseIntParam(query.Get("limit"), 100),
		Offset:    parseIntParam(query.Get("offset"), 0),
	}

	if from, ok := parseTimeParam(w, query.Get("from")); !ok {
		return
	} else {
		filter.From = from
	}
	if to, ok := parseTimeParam(w, query.Get("to")); !ok {
		return
	} else {
		filter.To = to
	}

	transactions, err := h.billingService.ListTransactions(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetBalance handles GET /api/patients/{id}/balance
func (h *BillingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	balance, err := h.billingService.GetBalance(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, balance)
}

// CreateExpense handles POST /api/expenses
func (h *BillingHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var expense entities.Expense
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.billingService.CreateExpense(r.Context(), &expense); err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, expense)
}

// UpdateExpense handles PUT /api/expenses/{id}
func (h *BillingHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "expense ID is required")
		return
	}

	var expense entities.Expense
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	expense.ID = id

	if err := h.billingService.UpdateExpense(r.Context(), &expense); err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, expense)
}

// DeleteExpense handles DELETE /api/expenses/{id}
func (h *BillingHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "expense ID is required")
		return
	}

	if err := h.billingService.DeleteExpense(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListExpenses handles GET /api/expenses
func (h *BillingHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.ExpenseFilter{
		Category: query.Get("category"),
		Limit:    parseIntParam(query.Get("limit"), 100),
		Offset:   parseIntParam(query.Get("offset"), 0),
	}

	if from, ok := parseTimeParam(w, query.Get("from")); !ok {
		return
	} else {
		filter.From = from
	}
	if to, ok := parseTimeParam(w, query.Get("to")); !ok {
		return
	} else {
		filter.To = to
	}

	expenses, err := h.billingService.ListExpenses(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"count":    len(expenses),
	})
}

// parseTimeParam parses an optional RFC3339 query parameter, writing a 400
// response when the value is present but malformed
func parseTimeParam(w http.ResponseWriter, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid time parameter, expected RFC3339")
		return nil, false
	}
	return &parsed, true
}
