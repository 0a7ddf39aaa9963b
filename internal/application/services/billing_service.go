package services

import (
	"context"
	"strings"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/google/uuid"
)

// BillingService maintains the patient ledger and the clinic expense book.
// Ledger entries are append-only; the patient's outstanding balance is
// recomputed from the ledger every time an entry is recorded.
type BillingService struct {
	transactionRepo repositories.TransactionRepository
	expenseRepo     repositories.ExpenseRepository
	patientRepo     repositories.PatientRepository
}

// NewBillingService creates a new billing service
func NewBillingService(
	transactionRepo repositories.TransactionRepository,
	expenseRepo repositories.ExpenseRepository,
	patientRepo repositories.PatientRepository,
) *BillingService {
	return &BillingService{
		transactionRepo: transactionRepo,
		expenseRepo:     expenseRepo,
		patientRepo:     patientRepo,
	}
}

// RecordTransaction appends a ledger entry for a patient. The entry and the
// balance recomputation commit together; corrections are new entries, never
// edits.
func (s *BillingService) RecordTransaction(ctx context.Context, transaction *entities.Transaction) error {
	if transaction.PatientID == "" {
		return apperrors.NewValidationError("patient id is required")
	}
	if transaction.Amount <= 0 {
		return apperrors.NewValidationError("amount must be positive")
	}
	switch transaction.Type {
	case entities.TransactionTypePayment, entities.TransactionTypeCharge:
	default:
		return apperrors.NewValidationError("type must be payment or charge")
	}
	switch transaction.Status {
	case "":
		transaction.Status = entities.TransactionStatusPaid
	case entities.TransactionStatusPaid, entities.TransactionStatusPending:
	default:
		return apperrors.NewValidationError("status must be paid or pending")
	}

	patient, err := s.patientRepo.GetByID(ctx, transaction.PatientID)
	if err != nil {
		return err
	}

	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	transaction.PatientName = patient.Name
	if transaction.Date.IsZero() {
		transaction.Date = time.Now()
	}
	transaction.CreatedAt = time.Now()

	return s.transactionRepo.Record(ctx, transaction)
}

// GetTransaction retrieves a ledger entry by ID
func (s *BillingService) GetTransaction(ctx context.Context, id string) (*entities.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, id)
}

// ListTransactions retrieves ledger entries matching the filter, newest first
func (s *BillingService) ListTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]*entities.Transaction, error) {
	return s.transactionRepo.List(ctx, filter)
}

// PatientBalance reports a patient's balance both as stored on the patient
// record and as recomputed from the ledger. The two should always agree; a
// mismatch points at writes that bypassed the ledger.
type PatientBalance struct {
	PatientID string  `json:"patient_id"`
	Stored    float64 `json:"stored"`
	Computed  float64 `json:"computed"`
}

// GetBalance returns a patient's outstanding balance
func (s *BillingService) GetBalance(ctx context.Context, patientID string) (*PatientBalance, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	computed, err := s.transactionRepo.OutstandingBalance(ctx, patientID)
	if err != nil {
		return nil, err
	}

	return &PatientBalance{
		PatientID: patientID,
		Stored:    patient.OutstandingBalance,
		Computed:  computed,
	}, nil
}

// CreateExpense records a clinic operating expense
func (s *BillingService) CreateExpense(ctx context.Context, expense *entities.Expense) error {
	if err := validateExpense(expense); err != nil {
		return err
	}

	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	return s.expenseRepo.Create(ctx, expense)
}

// UpdateExpense updates a clinic expense
func (s *BillingService) UpdateExpense(ctx context.Context, expense *entities.Expense) error {
	if err := validateExpense(expense); err != nil {
		return err
	}
	expense.UpdatedAt = time.Now()
	return s.expenseRepo.Update(ctx, expense)
}

// DeleteExpense deletes a clinic expense
func (s *BillingService) DeleteExpense(ctx context.Context, id string) error {
	return s.expenseRepo.Delete(ctx, id)
}

// ListExpenses retrieves expenses matching the filter, newest first
func (s *BillingService) ListExpenses(ctx context.Context, filter repositories.ExpenseFilter) ([]*entities.Expense, error) {
	return s.expenseRepo.List(ctx, filter)
}

func validateExpense(expense *entities.Expense) error {
	if strings.TrimSpace(expense.Description) == "" {
		return apperrors.NewValidationError("description is required")
	}
	if expense.Amount <= 0 {
		return apperrors.NewValidationError("amount must be positive")
	}
	return nil
}
