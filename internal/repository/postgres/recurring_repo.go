package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
)

// RecurringRepository implements domain.RecurringRepository using PostgreSQL
type RecurringRepository struct {
	pool *pgxpool.Pool
}

// NewRecurringRepository creates a new RecurringRepository
func NewRecurringRepository(pool *pgxpool.Pool) *RecurringRepository {
	return &RecurringRepository{pool: pool}
}

const recurringColumns = "id, user_id, name, amount, currency, frequency, category_id, start_date, end_date, next_due_date, is_active, auto_create_spending, notes, created_at, updated_at, deleted_at"

func scanRecurring(row pgx.Row) (*domain.RecurringExpense, error) {
	var re domain.RecurringExpense
	var amount pgtype.Numeric
	var categoryID pgtype.Int4
	var startDate, endDate, nextDueDate pgtype.Date
	var notes pgtype.Text
	var deletedAt pgtype.Timestamptz
	if err := row.Scan(&re.ID, &re.UserID, &re.Name, &amount, &re.Currency, &re.Frequency,
		&categoryID, &startDate, &endDate, &nextDueDate, &re.IsActive, &re.AutoCreateSpending,
		&notes, &re.CreatedAt, &re.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	re.Amount = pgNumericToDecimal(amount)
	re.CategoryID = pgInt4ToPtr(categoryID)
	re.StartDate = startDate.Time
	re.EndDate = pgDateToPtr(endDate)
	re.NextDueDate = pgDateToPtr(nextDueDate)
	re.Notes = pgTextToPtr(notes)
	re.DeletedAt = pgTimestampToPtr(deletedAt)
	return &re, nil
}

// Create creates a new recurring expense
func (r *RecurringRepository) Create(re *domain.RecurringExpense) (*domain.RecurringExpense, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(re.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO recurring_expenses
			(user_id, name, amount, currency, frequency, category_id, start_date, end_date, next_due_date, is_active, auto_create_spending, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+recurringColumns,
		re.UserID, re.Name, amount, re.Currency, string(re.Frequency), pgInt4Ptr(re.CategoryID),
		pgDate(re.StartDate), pgDatePtr(re.EndDate), pgDatePtr(re.NextDueDate),
		re.IsActive, re.AutoCreateSpending, pgText(re.Notes))
	return scanRecurring(row)
}

// GetByID retrieves a recurring expense by ID scoped to the owning user
func (r *RecurringRepository) GetByID(userID uuid.UUID, id int32) (*domain.RecurringExpense, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_expenses
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	re, err := scanRecurring(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRecurringNotFound
		}
		return nil, err
	}
	return re, nil
}

// ListByUser retrieves recurring expenses, optionally only active ones
func (r *RecurringRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.RecurringExpense, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_expenses
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND ($2::bool IS NULL OR is_active = $2)
		ORDER BY next_due_date NULLS LAST, name`,
		userID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, re)
	}
	return expenses, rows.Err()
}

// Update updates a recurring expense
func (r *RecurringRepository) Update(re *domain.RecurringExpense) (*domain.RecurringExpense, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(re.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE recurring_expenses
		SET name = $3, amount = $4, currency = $5, frequency = $6, category_id = $7,
		    start_date = $8, end_date = $9, next_due_date = $10, is_active = $11,
		    auto_create_spending = $12, notes = $13, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+recurringColumns,
		re.UserID, re.ID, re.Name, amount, re.Currency, string(re.Frequency), pgInt4Ptr(re.CategoryID),
		pgDate(re.StartDate), pgDatePtr(re.EndDate), pgDatePtr(re.NextDueDate),
		re.IsActive, re.AutoCreateSpending, pgText(re.Notes))
	updated, err := scanRecurring(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRecurringNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft deletes a recurring expense
func (r *RecurringRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE recurring_expenses
		SET deleted_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecurringNotFound
	}
	return nil
}

// RecordPayment inserts the payment, the optional generated spending
// transaction, and the advanced due date in one database transaction.
func (r *RecurringRepository) RecordPayment(re *domain.RecurringExpense, payment *domain.RecurringPayment, spending *domain.SpendingTransaction) (*domain.RecurringPayment, error) {
	ctx := context.Background()
	return recordObligationPayment(ctx, r.pool, obligationUpdate{
		table:       "recurring_expenses",
		id:          re.ID,
		userID:      re.UserID,
		nextDueDate: re.NextDueDate,
		isActive:    re.IsActive,
	}, payment, spending)
}
