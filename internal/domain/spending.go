package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpendingTransaction records money going out. Description is mandatory;
// a receipt, when attached, is stored as an object path in receipt storage.
type SpendingTransaction struct {
	ID            int32           `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	CategoryID    *int32          `json:"categoryId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         *string         `json:"notes,omitempty"`
	ReceiptPath   *string         `json:"receiptPath,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *time.Time      `json:"deletedAt,omitempty"`
}

type SpendingFilters struct {
	StartDate     *time.Time
	EndDate       *time.Time
	CategoryID    *int32
	PaymentMethod *PaymentMethod
	Page          int32
	PageSize      int32
}

type PaginatedSpending struct {
	Data       []*SpendingTransaction `json:"data"`
	Page       int32                  `json:"page"`
	PageSize   int32                  `json:"pageSize"`
	TotalItems int64                  `json:"totalItems"`
	TotalPages int32                  `json:"totalPages"`
}

type SpendingRepository interface {
	Create(tx *SpendingTransaction) (*SpendingTransaction, error)
	GetByID(userID uuid.UUID, id int32) (*SpendingTransaction, error)
	ListByUser(userID uuid.UUID, filters *SpendingFilters) (*PaginatedSpending, error)
	ListRange(userID uuid.UUID, start, end time.Time) ([]*SpendingTransaction, error)
	Update(tx *SpendingTransaction) (*SpendingTransaction, error)
	SetReceiptPath(userID uuid.UUID, id int32, path *string) (*SpendingTransaction, error)
	Delete(userID uuid.UUID, id int32) error
}
