package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subscription has the shape of a recurring expense plus renewal metadata:
// whether it renews on its own and how many days ahead to surface a reminder.
type Subscription struct {
	ID                 int32           `json:"id"`
	UserID             uuid.UUID       `json:"userId"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Frequency          Frequency       `json:"frequency"`
	CategoryID         *int32          `json:"categoryId,omitempty"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	NextDueDate        *time.Time      `json:"nextDueDate,omitempty"`
	IsActive           bool            `json:"isActive"`
	AutoRenew          bool            `json:"autoRenew"`
	AutoCreateSpending bool            `json:"autoCreateSpending"`
	ReminderLeadDays   int32           `json:"reminderLeadDays"`
	Notes              *string         `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	DeletedAt          *time.Time      `json:"deletedAt,omitempty"`
}

type SubscriptionRepository interface {
	Create(sub *Subscription) (*Subscription, error)
	GetByID(userID uuid.UUID, id int32) (*Subscription, error)
	ListByUser(userID uuid.UUID, activeOnly *bool) ([]*Subscription, error)
	Update(sub *Subscription) (*Subscription, error)
	Delete(userID uuid.UUID, id int32) error
	RecordPayment(sub *Subscription, payment *RecurringPayment, spending *SpendingTransaction) (*RecurringPayment, error)
}
