package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a billable catalog item referenced by income transactions.
type Service struct {
	ID           int32           `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	DefaultPrice decimal.Decimal `json:"defaultPrice"`
	CategoryID   *int32          `json:"categoryId,omitempty"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *time.Time      `json:"deletedAt,omitempty"`
}

type ServiceRepository interface {
	Create(service *Service) (*Service, error)
	GetByID(userID uuid.UUID, id int32) (*Service, error)
	ListByUser(userID uuid.UUID, activeOnly *bool) ([]*Service, error)
	Update(service *Service) (*Service, error)
	Delete(userID uuid.UUID, id int32) error
}
