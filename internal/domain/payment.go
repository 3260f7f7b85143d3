package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationKind discriminates which table a payment's obligation lives in.
type ObligationKind string

const (
	ObligationRecurringExpense ObligationKind = "recurring_expense"
	ObligationSubscription     ObligationKind = "subscription"
)

// RecurringPayment is one realized occurrence of a recurring obligation.
// SpendingID is set when the payment auto-generated a spending transaction.
type RecurringPayment struct {
	ID             int32           `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	ObligationKind ObligationKind  `json:"obligationKind"`
	ObligationID   int32           `json:"obligationId"`
	PaidAt         time.Time       `json:"paidAt"`
	Amount         decimal.Decimal `json:"amount"`
	SpendingID     *int32          `json:"spendingId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type PaymentRepository interface {
	GetByID(userID uuid.UUID, id int32) (*RecurringPayment, error)
	ListByObligation(userID uuid.UUID, kind ObligationKind, obligationID int32) ([]*RecurringPayment, error)
	ListByUser(userID uuid.UUID, start, end time.Time) ([]*RecurringPayment, error)
}
