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

// IncomeRepository implements domain.IncomeRepository using PostgreSQL
type IncomeRepository struct {
	pool *pgxpool.Pool
}

// NewIncomeRepository creates a new IncomeRepository
func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{pool: pool}
}

const incomeColumns = "id, user_id, date, client_name, service_id, category_id, price, discount, total_received, payment_method, notes, created_at, updated_at, deleted_at"

func scanIncome(row pgx.Row) (*domain.IncomeTransaction, error) {
	var tx domain.IncomeTransaction
	var date pgtype.Date
	var clientName, notes pgtype.Text
	var serviceID, categoryID pgtype.Int4
	var price, discount, total pgtype.Numeric
	var deletedAt pgtype.Timestamptz
	if err := row.Scan(&tx.ID, &tx.UserID, &date, &clientName, &serviceID, &categoryID,
		&price, &discount, &total, &tx.PaymentMethod, &notes,
		&tx.CreatedAt, &tx.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	tx.Date = date.Time
	tx.ClientName = pgTextToPtr(clientName)
	tx.ServiceID = pgInt4ToPtr(serviceID)
	tx.CategoryID = pgInt4ToPtr(categoryID)
	tx.Price = pgNumericToDecimal(price)
	tx.Discount = pgNumericToDecimal(discount)
	tx.TotalReceived = pgNumericToDecimal(total)
	tx.Notes = pgTextToPtr(notes)
	tx.DeletedAt = pgTimestampToPtr(deletedAt)
	return &tx, nil
}

// Create creates a new income transaction
func (r *IncomeRepository) Create(tx *domain.IncomeTransaction) (*domain.IncomeTransaction, error) {
	ctx := context.Background()

	price, err := decimalToPgNumeric(tx.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	discount, err := decimalToPgNumeric(tx.Discount)
	if err != nil {
		return nil, fmt.Errorf("invalid discount: %w", err)
	}
	total, err := decimalToPgNumeric(tx.TotalReceived)
	if err != nil {
		return nil, fmt.Errorf("invalid total: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO income_transactions
			(user_id, date, client_name, service_id, category_id, price, discount, total_received, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+incomeColumns,
		tx.UserID, pgDate(tx.Date), pgText(tx.ClientName), pgInt4Ptr(tx.ServiceID), pgInt4Ptr(tx.CategoryID),
		price, discount, total, string(tx.PaymentMethod), pgText(tx.Notes))
	return scanIncome(row)
}

// GetByID retrieves an income transaction by ID scoped to the owning user
func (r *IncomeRepository) GetByID(userID uuid.UUID, id int32) (*domain.IncomeTransaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+incomeColumns+`
		FROM income_transactions
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	tx, err := scanIncome(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}
	return tx, nil
}

// ListByUser retrieves income transactions with filters and pagination
func (r *IncomeRepository) ListByUser(userID uuid.UUID, filters *domain.IncomeFilters) (*domain.PaginatedIncome, error) {
	ctx := context.Background()

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	var startDate, endDate pgtype.Date
	var serviceID, categoryID pgtype.Int4
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
		serviceID = pgInt4Ptr(filters.ServiceID)
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
		  AND ($4::int IS NULL OR service_id = $4)
		  AND ($5::int IS NULL OR category_id = $5)
		  AND ($6::text IS NULL OR payment_method = $6)`

	var totalItems int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM income_transactions`+where,
		userID, startDate, endDate, serviceID, categoryID, paymentMethod).Scan(&totalItems)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+incomeColumns+` FROM income_transactions`+where+`
		ORDER BY date DESC, id DESC
		LIMIT $7 OFFSET $8`,
		userID, startDate, endDate, serviceID, categoryID, paymentMethod, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []*domain.IncomeTransaction{}
	for rows.Next() {
		tx, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedIncome{
		Data:       transactions,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages(totalItems, pageSize),
	}, nil
}

// ListRange retrieves all income transactions in [start, end] for aggregation
func (r *IncomeRepository) ListRange(userID uuid.UUID, start, end time.Time) ([]*domain.IncomeTransaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+incomeColumns+`
		FROM income_transactions
		WHERE user_id = $1 AND deleted_at IS NULL AND date >= $2 AND date <= $3
		ORDER BY date, id`,
		userID, pgDate(start), pgDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.IncomeTransaction
	for rows.Next() {
		tx, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// Update updates an income transaction
func (r *IncomeRepository) Update(tx *domain.IncomeTransaction) (*domain.IncomeTransaction, error) {
	ctx := context.Background()

	price, err := decimalToPgNumeric(tx.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	discount, err := decimalToPgNumeric(tx.Discount)
	if err != nil {
		return nil, fmt.Errorf("invalid discount: %w", err)
	}
	total, err := decimalToPgNumeric(tx.TotalReceived)
	if err != nil {
		return nil, fmt.Errorf("invalid total: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE income_transactions
		SET date = $3, client_name = $4, service_id = $5, category_id = $6,
		    price = $7, discount = $8, total_received = $9, payment_method = $10,
		    notes = $11, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+incomeColumns,
		tx.UserID, tx.ID, pgDate(tx.Date), pgText(tx.ClientName), pgInt4Ptr(tx.ServiceID), pgInt4Ptr(tx.CategoryID),
		price, discount, total, string(tx.PaymentMethod), pgText(tx.Notes))
	updated, err := scanIncome(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft deletes an income transaction
func (r *IncomeRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE income_transactions
		SET deleted_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}
