package domain

import "errors"

// Domain errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrAlreadyExists        = errors.New("resource already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInternalError        = errors.New("internal error")
	ErrUserNotFound         = errors.New("user not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrIncomeNotFound       = errors.New("income transaction not found")
	ErrSpendingNotFound     = errors.New("spending transaction not found")
	ErrRecurringNotFound    = errors.New("recurring expense not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrNameRequired         = errors.New("name is required")
	ErrNameTooLong          = errors.New("name exceeds maximum length")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrDescriptionTooLong   = errors.New("description exceeds maximum length")
	ErrNotesTooLong         = errors.New("notes exceed maximum length")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrInvalidDiscount      = errors.New("discount must be between zero and price")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction kind")
	ErrInvalidDateRange     = errors.New("end date is before start date")
	ErrCategoryInUse        = errors.New("category is referenced by transactions")
	ErrPaymentBeforeDue     = errors.New("payment date is before the current due date")
	ErrObligationInactive   = errors.New("recurring obligation is not active")
	ErrInvalidReminderLead  = errors.New("reminder lead days must not be negative")
	ErrInvalidCurrency      = errors.New("invalid currency code")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
	MaxNotesLength       = 1000
	MaxClientNameLength  = 255
)
