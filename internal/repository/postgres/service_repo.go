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

// ServiceRepository implements domain.ServiceRepository using PostgreSQL
type ServiceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository creates a new ServiceRepository
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const serviceColumns = "id, user_id, name, description, default_price, category_id, is_active, created_at, updated_at, deleted_at"

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	var description pgtype.Text
	var price pgtype.Numeric
	var categoryID pgtype.Int4
	var deletedAt pgtype.Timestamptz
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &description, &price, &categoryID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	s.Description = pgTextToPtr(description)
	s.DefaultPrice = pgNumericToDecimal(price)
	s.CategoryID = pgInt4ToPtr(categoryID)
	s.DeletedAt = pgTimestampToPtr(deletedAt)
	return &s, nil
}

// Create creates a new service
func (r *ServiceRepository) Create(service *domain.Service) (*domain.Service, error) {
	ctx := context.Background()

	price, err := decimalToPgNumeric(service.DefaultPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid default price: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (user_id, name, description, default_price, category_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+serviceColumns,
		service.UserID, service.Name, pgText(service.Description), price, pgInt4Ptr(service.CategoryID), service.IsActive)
	return scanService(row)
}

// GetByID retrieves a service by ID scoped to the owning user
func (r *ServiceRepository) GetByID(userID uuid.UUID, id int32) (*domain.Service, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	service, err := scanService(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return service, nil
}

// ListByUser retrieves services for a user, optionally only active ones
func (r *ServiceRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.Service, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND ($2::bool IS NULL OR is_active = $2)
		ORDER BY name`,
		userID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

// Update updates a service
func (r *ServiceRepository) Update(service *domain.Service) (*domain.Service, error) {
	ctx := context.Background()

	price, err := decimalToPgNumeric(service.DefaultPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid default price: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $3, description = $4, default_price = $5, category_id = $6, is_active = $7, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+serviceColumns,
		service.UserID, service.ID, service.Name, pgText(service.Description), price, pgInt4Ptr(service.CategoryID), service.IsActive)
	updated, err := scanService(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft deletes a service
func (r *ServiceRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET deleted_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}
