package domain

import (
	"time"

	"github.com/google/uuid"
)

type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeSpending CategoryType = "spending"
)

type Category struct {
	ID        int32        `json:"id"`
	UserID    uuid.UUID    `json:"userId"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	DeletedAt *time.Time   `json:"deletedAt,omitempty"`
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID uuid.UUID, id int32) (*Category, error)
	ListByUser(userID uuid.UUID, categoryType *CategoryType) ([]*Category, error)
	Update(category *Category) (*Category, error)
	Delete(userID uuid.UUID, id int32) error
	// CountReferences returns the number of transactions and services that
	// point at the category. Deletion is blocked while it is non-zero.
	CountReferences(userID uuid.UUID, id int32) (int64, error)
}
