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

// SpendingRepository implements domain.SpendingRepository using PostgreSQL
type SpendingRepository struct {
	pool *pgxpool.Pool
}

// NewSpendingRepository creates a new SpendingRepository
func NewSpendingRepository(pool *pgxpool.Pool) *SpendingRepository {
	return &SpendingRepository{pool: pool}
}

const spendingColumns = "id, user_id, date, description, category_id, amount, payment_method, notes, receipt_path, created_at, updated_at, deleted_at"

func scanSpending(row pgx.Row) (*domain.SpendingTransaction, error) {
	var tx domain.SpendingTransaction
	var date pgtype.Date
	var categoryID pgtype.Int4
	var amount pgtype.Numeric
	var notes, receiptPath pgtype.Text
	var deletedAt pgtype.Timestamptz
	if err := row.Scan(&tx.ID, &tx.UserID, &date, &tx.Description, &categoryID, &amount,
		&tx.PaymentMethod, &notes, &receiptPath, &tx.CreatedAt, &tx.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	tx.Date = date.Time
	tx.CategoryID = pgInt4ToPtr(categoryID)
	tx.Amount = pgNumericToDecimal(amount)
	tx.Notes = pgTextToPtr(notes)
	tx.ReceiptPath = pgTextToPtr(receiptPath)
	tx.DeletedAt = pgTimestampToPtr(deletedAt)
	return &tx, nil
}

// Create creates a new spending transaction
func (r *SpendingRepository) Create(tx *domain.SpendingTransaction) (*domain.SpendingTransaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(tx.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO spending_transactions
			(user_id, date, description, category_id, amount, payment_method, notes, receipt_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+spendingColumns,
		tx.UserID, pgDate(tx.Date), tx.Description, pgInt4Ptr(tx.CategoryID),
		amount, string(tx.PaymentMethod), pgText(tx.Notes), pgText(tx.ReceiptPath))
	return scanSpending(row)
}

// GetByID retrieves a spending transaction by ID scoped to the owning user
func (r *SpendingRepository) GetByID(userID uuid.UUID, id int32) (*domain.SpendingTransaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+spendingColumns+`
		FROM spending_transactions
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	tx, err := scanSpending(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSpendingNotFound
		}
		return nil, err
	}
	return tx, nil
}

// ListByUser retrieves spending transactions with filters and pagination
func (r *SpendingRepository) ListByUser(userID uuid.UUID, filters *domain.SpendingFilters) (*domain.PaginatedSpending, error) {
	ctx := context.Background()

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	var startDate, endDate pgtype.Date
	var categoryID pgtype.Int4
	var paymentMethod pgtype.Text

	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
		startDate = pgDatePtr(filters.StartDate)
		endDate = pgDatePtr(filters.EndDate)
		categoryID = pgInt4Ptr(filters.CategoryID)
		if filters.PaymentMethod != nil {
			paymentMethod = pgtype.Text{String: string(*filters.PaymentMethod), Valid: true}
		}
	}
	offset := (page - 1) * pageSize

	const where = `
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)
		  AND ($4::int IS NULL OR category_id = $4)
		  AND ($5::text IS NULL OR payment_method = $5)`

	var totalItems int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM spending_transactions`+where,
		userID, startDate, endDate, categoryID, paymentMethod).Scan(&totalItems)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+spendingColumns+` FROM spending_transactions`+where+`
		ORDER BY date DESC, id DESC
		LIMIT $6 OFFSET $7`,
		userID, startDate, endDate, categoryID, paymentMethod, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []*domain.SpendingTransaction{}
	for rows.Next() {
		tx, err := scanSpending(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedSpending{
		Data:       transactions,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages(totalItems, pageSize),
	}, nil
}

// ListRange retrieves all spending transactions in [start, end] for aggregation
func (r *SpendingRepository) ListRange(userID uuid.UUID, start, end time.Time) ([]*domain.SpendingTransaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+spendingColumns+`
		FROM spending_transactions
		WHERE user_id = $1 AND deleted_at IS NULL AND date >= $2 AND date <= $3
		ORDER BY date, id`,
		userID, pgDate(start), pgDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.SpendingTransaction
	for rows.Next() {
		tx, err := scanSpending(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// Update updates a spending transaction
func (r *SpendingRepository) Update(tx *domain.SpendingTransaction) (*domain.SpendingTransaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(tx.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE spending_transactions
		SET date = $3, description = $4, category_id = $5, amount = $6,
		    payment_method = $7, notes = $8, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+spendingColumns,
		tx.UserID, tx.ID, pgDate(tx.Date), tx.Description, pgInt4Ptr(tx.CategoryID),
		amount, string(tx.PaymentMethod), pgText(tx.Notes))
	updated, err := scanSpending(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSpendingNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SetReceiptPath updates only the receipt object path (nil clears it)
func (r *SpendingRepository) SetReceiptPath(userID uuid.UUID, id int32, path *string) (*domain.SpendingTransaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE spending_transactions
		SET receipt_path = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+spendingColumns,
		userID, id, pgText(path))
	updated, err := scanSpending(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSpendingNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft deletes a spending transaction
func (r *SpendingRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE spending_transactions
		SET deleted_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSpendingNotFound
	}
	return nil
}
