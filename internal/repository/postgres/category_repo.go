package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = "id, user_id, name, type, created_at, updated_at, deleted_at"

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var deletedAt pgtype.Timestamptz
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.CreatedAt, &c.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	c.DeletedAt = pgTimestampToPtr(deletedAt)
	return &c, nil
}

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, type)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		category.UserID, category.Name, string(category.Type))
	return scanCategory(row)
}

// GetByID retrieves a category by ID scoped to the owning user
func (r *CategoryRepository) GetByID(userID uuid.UUID, id int32) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// ListByUser retrieves categories for a user, optionally filtered by type
func (r *CategoryRepository) ListByUser(userID uuid.UUID, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND ($2::text IS NULL OR type = $2)
		ORDER BY name`,
		userID, categoryTypeArg(categoryType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates a category's name and type
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, type = $4, updated_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+categoryColumns,
		category.UserID, category.ID, category.Name, string(category.Type))
	updated, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft deletes a category
func (r *CategoryRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories
		SET deleted_at = now()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// CountReferences counts live transactions and services pointing at the category
func (r *CategoryRepository) CountReferences(userID uuid.UUID, id int32) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM income_transactions
			 WHERE user_id = $1 AND category_id = $2 AND deleted_at IS NULL) +
			(SELECT count(*) FROM spending_transactions
			 WHERE user_id = $1 AND category_id = $2 AND deleted_at IS NULL) +
			(SELECT count(*) FROM services
			 WHERE user_id = $1 AND category_id = $2 AND deleted_at IS NULL)`,
		userID, id).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func categoryTypeArg(t *domain.CategoryType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}
