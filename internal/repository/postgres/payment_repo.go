package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = "id, user_id, obligation_kind, obligation_id, paid_at, amount, spending_id, created_at"

func scanPayment(row pgx.Row) (*domain.RecurringPayment, error) {
	var p domain.RecurringPayment
	var paidAt pgtype.Date
	var amount pgtype.Numeric
	var spendingID pgtype.Int4
	if err := row.Scan(&p.ID, &p.UserID, &p.ObligationKind, &p.ObligationID, &paidAt, &amount, &spendingID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.PaidAt = paidAt.Time
	p.Amount = pgNumericToDecimal(amount)
	p.SpendingID = pgInt4ToPtr(spendingID)
	return &p, nil
}

// GetByID retrieves a payment by ID scoped to the owning user
func (r *PaymentRepository) GetByID(userID uuid.UUID, id int32) (*domain.RecurringPayment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM recurring_payments
		WHERE user_id = $1 AND id = $2`,
		userID, id)
	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// ListByObligation retrieves the payment history of one obligation
func (r *PaymentRepository) ListByObligation(userID uuid.UUID, kind domain.ObligationKind, obligationID int32) ([]*domain.RecurringPayment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM recurring_payments
		WHERE user_id = $1 AND obligation_kind = $2 AND obligation_id = $3
		ORDER BY paid_at DESC, id DESC`,
		userID, string(kind), obligationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListByUser retrieves payments in [start, end] across all obligations
func (r *PaymentRepository) ListByUser(userID uuid.UUID, start, end time.Time) ([]*domain.RecurringPayment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM recurring_payments
		WHERE user_id = $1 AND paid_at >= $2 AND paid_at <= $3
		ORDER BY paid_at DESC, id DESC`,
		userID, pgDate(start), pgDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*domain.RecurringPayment, error) {
	var payments []*domain.RecurringPayment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// obligationUpdate carries the due-date advancement persisted together with
// a payment for either obligation table.
type obligationUpdate struct {
	table       string
	id          int32
	userID      uuid.UUID
	nextDueDate *time.Time
	isActive    bool
}

// recordObligationPayment runs the three writes behind a recorded payment
// atomically: optional spending insert, payment insert, due-date update.
func recordObligationPayment(ctx context.Context, pool *pgxpool.Pool, upd obligationUpdate, payment *domain.RecurringPayment, spending *domain.SpendingTransaction) (*domain.RecurringPayment, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if spending != nil {
		amount, err := decimalToPgNumeric(spending.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO spending_transactions
				(user_id, date, description, category_id, amount, payment_method, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at`,
			spending.UserID, pgDate(spending.Date), spending.Description, pgInt4Ptr(spending.CategoryID),
			amount, string(spending.PaymentMethod), pgText(spending.Notes)).
			Scan(&spending.ID, &spending.CreatedAt, &spending.UpdatedAt)
		if err != nil {
			return nil, err
		}
		payment.SpendingID = &spending.ID
	}

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO recurring_payments
			(user_id, obligation_kind, obligation_id, paid_at, amount, spending_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+paymentColumns,
		payment.UserID, string(payment.ObligationKind), payment.ObligationID,
		pgDate(payment.PaidAt), amount, pgInt4Ptr(payment.SpendingID))
	created, err := scanPayment(row)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE `+upd.table+`
		SET next_due_date = $3, is_active = $4, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		upd.userID, upd.id, pgDatePtr(upd.nextDueDate), upd.isActive)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
