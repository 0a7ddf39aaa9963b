package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

var transactionColumns = []interface{}{
	"id", "patient_id", "patient_name", "date", "description",
	"amount", "type", "status", "created_at",
}

// TransactionAdapter implements the TransactionRepository interface
type TransactionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTransactionAdapter creates a new transaction adapter
func NewTransactionAdapter(client *postgres.Client) repositories.TransactionRepository {
	return &TransactionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Record appends a ledger entry and recomputes the patient's cached
// outstanding balance from the ledger inside the same transaction.
func (a *TransactionAdapter) Record(ctx context.Context, transaction *entities.Transaction) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, patient_id, patient_name, date, description, amount, type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		transaction.ID,
		transaction.PatientID,
		transaction.PatientName,
		transaction.Date,
		transaction.Description,
		transaction.Amount,
		transaction.Type,
		transaction.Status,
		transaction.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to record transaction", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE patients
		    SET outstanding_balance = (
		        SELECT COALESCE(SUM(CASE WHEN type = $2 THEN amount ELSE -amount END), 0)
		          FROM transactions
		         WHERE patient_id = $1
		    ),
		        updated_at = NOW()
		  WHERE id = $1`,
		transaction.PatientID,
		entities.TransactionTypeCharge,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to reconcile patient balance", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction record", err)
	}

	return nil
}

// GetByID retrieves a transaction by ID
func (a *TransactionAdapter) GetByID(ctx context.Context, id string) (*entities.Transaction, error) {
	query, args, err := a.db.Select(transactionColumns...).
		From("transactions").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	transaction, err := scanTransaction(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transaction %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get transaction", err)
	}

	return transaction, nil
}

// List retrieves transactions matching the filter, newest first
func (a *TransactionAdapter) List(ctx context.Context, filter repositories.TransactionFilter) ([]*entities.Transaction, error) {
	ds := a.db.Select(transactionColumns...).From("transactions")

	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}
	if filter.Type != "" {
		ds = ds.Where(goqu.Ex{"type": filter.Type})
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("date").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("date").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("date").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list transactions", err)
	}
	defer rows.Close()

	var transactions []*entities.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan transaction", err)
		}
		transactions = append(transactions, transaction)
	}

	return transactions, nil
}

// OutstandingBalance computes sum(charges) - sum(payments) from the ledger
func (a *TransactionAdapter) OutstandingBalance(ctx context.Context, patientID string) (float64, error) {
	var balance float64
	err := a.client.DB().QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = $2 THEN amount ELSE -amount END), 0)
		   FROM transactions
		  WHERE patient_id = $1`,
		patientID,
		entities.TransactionTypeCharge,
	).Scan(&balance)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to compute outstanding balance", err)
	}

	return balance, nil
}

func scanTransaction(row rowScanner) (*entities.Transaction, error) {
	transaction := &entities.Transaction{}
	var description sql.NullString

	err := row.Scan(
		&transaction.ID,
		&transaction.PatientID,
		&transaction.PatientName,
		&transaction.Date,
		&description,
		&transaction.Amount,
		&transaction.Type,
		&transaction.Status,
		&transaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	transaction.Description = description.String

	return transaction, nil
}
