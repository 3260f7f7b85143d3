package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ValidFrequency reports whether f is one of the closed enumeration.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringExpense is an outbound obligation that comes due on a schedule.
// NextDueDate is maintained by the service layer: it is never before
// StartDate and always strictly after the last recorded payment.
type RecurringExpense struct {
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
	AutoCreateSpending bool            `json:"autoCreateSpending"`
	Notes              *string         `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	DeletedAt          *time.Time      `json:"deletedAt,omitempty"`
}

type RecurringRepository interface {
	Create(re *RecurringExpense) (*RecurringExpense, error)
	GetByID(userID uuid.UUID, id int32) (*RecurringExpense, error)
	ListByUser(userID uuid.UUID, activeOnly *bool) ([]*RecurringExpense, error)
	Update(re *RecurringExpense) (*RecurringExpense, error)
	Delete(userID uuid.UUID, id int32) error
	// RecordPayment inserts the payment and the optionally generated
	// spending transaction, and persists the advanced due date, atomically.
	RecordPayment(re *RecurringExpense, payment *RecurringPayment, spending *SpendingTransaction) (*RecurringPayment, error)
}
