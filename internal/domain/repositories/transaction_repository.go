package repositories

import (
	"context"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// TransactionRepository defines the interface for the patient ledger.
// Transactions are append-only; there is deliberately no update or delete.
type TransactionRepository interface {
	// Record appends a ledger entry and recomputes the patient's outstanding
	// balance in the same database transaction
	Record(ctx context.Context, transaction *entities.Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id string) (*entities.Transaction, error)

	// List retrieves transactions matching the filter, newest first
	List(ctx context.Context, filter TransactionFilter) ([]*entities.Transaction, error)

	// OutstandingBalance computes sum(charges) - sum(payments) for a patient
	// from the ledger
	OutstandingBalance(ctx context.Context, patientID string) (float64, error)
}

// TransactionFilter defines filters for listing transactions
type TransactionFilter struct {
	PatientID string
	Type      entities.TransactionType
	Status    entities.TransactionStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ExpenseRepository defines the interface for clinic expense operations
type ExpenseRepository interface {
	// Create creates a new expense
	Create(ctx context.Context, expense *entities.Expense) error

	// Update updates an expense
	Update(ctx context.Context, expense *entities.Expense) error

	// Delete deletes an expense
	Delete(ctx context.Context, id string) error

	// List retrieves expenses matching the filter, newest first
	List(ctx context.Context, filter ExpenseFilter) ([]*entities.Expense, error)
}

// ExpenseFilter defines filters for listing expenses
type ExpenseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
