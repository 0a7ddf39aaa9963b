package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

// ExpenseAdapter implements the ExpenseRepository interface
type ExpenseAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewExpenseAdapter creates a new expense adapter
func NewExpenseAdapter(client *postgres.Client) repositories.ExpenseRepository {
	return &ExpenseAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new expense
func (a *ExpenseAdapter) Create(ctx context.Context, expense *entities.Expense) error {
	record := goqu.Record{
		"id":          expense.ID,
		"date":        expense.Date,
		"category":    expense.Category,
		"description": expense.Description,
		"amount":      expense.Amount,
		"created_at":  expense.CreatedAt,
		"updated_at":  expense.UpdatedAt,
	}

	query, args, err := a.db.Insert("expenses").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create expense", err)
	}

	return nil
}

// Update updates an expense
func (a *ExpenseAdapter) Update(ctx context.Context, expense *entities.Expense) error {
	expense.UpdatedAt = time.Now()

	query, args, err := a.db.Update("expenses").
		Set(goqu.Record{
			"date":        expense.Date,
			"category":    expense.Category,
			"description": expense.Description,
			"amount":      expense.Amount,
			"updated_at":  expense.UpdatedAt,
		}).
		Where(goqu.Ex{"id": expense.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update expense", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("expense %s not found", expense.ID))
	}

	return nil
}

// Delete deletes an expense
func (a *ExpenseAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("expenses").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete expense", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("expense %s not found", id))
	}

	return nil
}

// List retrieves expenses matching the filter, newest first
func (a *ExpenseAdapter) List(ctx context.Context, filter repositories.ExpenseFilter) ([]*entities.Expense, error) {
	ds := a.db.Select(
		"id", "date", "category", "description", "amount", "created_at", "updated_at",
	).From("expenses")

	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
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
		return nil, apperrors.NewInternalError("failed to list expenses", err)
	}
	defer rows.Close()

	var expenses []*entities.Expense
	for rows.Next() {
		expense := &entities.Expense{}
		var description sql.NullString

		if err := rows.Scan(
			&expense.ID,
			&expense.Date,
			&expense.Category,
			&description,
			&expense.Amount,
			&expense.CreatedAt,
			&expense.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan expense", err)
		}

		expense.Description = description.String
		expenses = append(expenses, expense)
	}

	return expenses, nil
}
