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

// SubscriptionRepository implements domain.SubscriptionRepository using PostgreSQL
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

const subscriptionColumns = "id, user_id, name, amount, currency, frequency, category_id, start_date, end_date, next_due_date, is_active, auto_renew, auto_create_spending, reminder_lead_days, notes, created_at, updated_at, deleted_at"

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	var amount pgtype.Numeric
	var categoryID pgtype.Int4
	var startDate, endDate, nextDueDate pgtype.Date
	var notes pgtype.Text
	var deletedAt pgtype.Timestamptz
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.Name, &amount, &sub.Currency, &sub.Frequency,
		&categoryID, &startDate, &endDate, &nextDueDate, &sub.IsActive, &sub.AutoRenew,
		&sub.AutoCreateSpending, &sub.ReminderLeadDays, &notes,
		&sub.CreatedAt, &sub.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	sub.Amount = pgNumericToDecimal(amount)
	sub.CategoryID = pgInt4ToPtr(categoryID)
	sub.StartDate = startDate.Time
	sub.EndDate = pgDateToPtr(endDate)
	sub.NextDueDate = pgDateToPtr(nextDueDate)
	sub.Notes = pgTextToPtr(notes)
	sub.DeletedAt = pgTimestampToPtr(deletedAt)
	return &sub, nil
}

// Create creates a new subscription
func (r *SubscriptionRepository) Create(sub *domain.Subscription) (*domain.Subscription, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(sub.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions
			(user_id, name, amount, currency, frequency, category_id, start_date, end_date, next_due_date, is_active, auto_renew, auto_create_spending, reminder_lead_days, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.Name, amount, sub.Currency, string(sub.Frequency), pgInt4Ptr(sub.CategoryID),
		pgDate(sub.StartDate), pgDatePtr(sub.EndDate), pgDatePtr(sub.NextDueDate),
		sub.IsActive, sub.AutoRenew, sub.AutoCreateSpending, sub.ReminderLeadDays, pgText(sub.Notes))
	return scanSubscription(row)
}

// GetByID retrieves a subscription by ID scoped to the owning user
func (r *SubscriptionRepository) GetByID(userID uuid.UUID, id int32) (*domain.Subscription, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListByUser retrieves subscriptions, optionally only active ones
func (r *SubscriptionRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.Subscription, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND ($2::bool IS NULL OR is_active = $2)
		ORDER BY next_due_date NULLS LAST, name`,
		userID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Update updates a subscription
func (r *SubscriptionRepository) Update(sub *domain.Subscription) (*domain.Subscription, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(sub.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE subscriptions
		SET name = $3, amount = $4, currency = $5, frequency = $6, category_id = $7,
		    start_date = $8, end_date = $9, next_due_date = $10, is_active = $11,
		    auto_renew = $12, auto_create_spending = $13, reminder_lead_days = $14,
		    notes = $15, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.ID, sub.Name, amount, sub.Currency, string(sub.Frequency), pgInt4Ptr(sub.CategoryID),
		pgDate(sub.StartDate), pgDatePtr(sub.EndDate), pgDatePtr(sub.NextDueDate),
		sub.IsActive, sub.AutoRenew, sub.AutoCreateSpending, sub.ReminderLeadDays, pgText(sub.Notes))
	updated, err := scanSubscription(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft deletes a subscription
func (r *SubscriptionRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions
		SET deleted_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

// RecordPayment inserts the payment, the optional generated spending
// transaction, and the advanced due date in one database transaction.
func (r *SubscriptionRepository) RecordPayment(sub *domain.Subscription, payment *domain.RecurringPayment, spending *domain.SpendingTransaction) (*domain.RecurringPayment, error) {
	ctx := context.Background()
	return recordObligationPayment(ctx, r.pool, obligationUpdate{
		table:       "subscriptions",
		id:          sub.ID,
		userID:      sub.UserID,
		nextDueDate: sub.NextDueDate,
		isActive:    sub.IsActive,
	}, payment, spending)
}
