package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodOther        PaymentMethod = "other"
)

// ValidPaymentMethod reports whether m is one of the closed enumeration.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodPaypal, PaymentMethodOther:
		return true
	}
	return false
}

// IncomeTransaction records money received for a service rendered.
// TotalReceived is always Price minus Discount.
type IncomeTransaction struct {
	ID            int32           `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Date          time.Time       `json:"date"`
	ClientName    *string         `json:"clientName,omitempty"`
	ServiceID     *int32          `json:"serviceId,omitempty"`
	CategoryID    *int32          `json:"categoryId,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Discount      decimal.Decimal `json:"discount"`
	TotalReceived decimal.Decimal `json:"totalReceived"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *time.Time      `json:"deletedAt,omitempty"`
}

type IncomeFilters struct {
	StartDate     *time.Time
	EndDate       *time.Time
	ServiceID     *int32
	CategoryID    *int32
	PaymentMethod *PaymentMethod
	Page          int32
	PageSize      int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedIncome struct {
	Data       []*IncomeTransaction `json:"data"`
	Page       int32                `json:"page"`
	PageSize   int32                `json:"pageSize"`
	TotalItems int64                `json:"totalItems"`
	TotalPages int32                `json:"totalPages"`
}

type IncomeRepository interface {
	Create(tx *IncomeTransaction) (*IncomeTransaction, error)
	GetByID(userID uuid.UUID, id int32) (*IncomeTransaction, error)
	ListByUser(userID uuid.UUID, filters *IncomeFilters) (*PaginatedIncome, error)
	ListRange(userID uuid.UUID, start, end time.Time) ([]*IncomeTransaction, error)
	Update(tx *IncomeTransaction) (*IncomeTransaction, error)
	Delete(userID uuid.UUID, id int32) error
}
