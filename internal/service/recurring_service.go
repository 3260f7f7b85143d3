package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// RecurringService handles recurring expense business logic
type RecurringService struct {
	recurringRepo domain.RecurringRepository
	categoryRepo  domain.CategoryRepository
	paymentRepo   domain.PaymentRepository
	publisher     websocket.EventPublisher
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(recurringRepo domain.RecurringRepository, categoryRepo domain.CategoryRepository, paymentRepo domain.PaymentRepository, publisher websocket.EventPublisher) *RecurringService {
	return &RecurringService{
		recurringRepo: recurringRepo,
		categoryRepo:  categoryRepo,
		paymentRepo:   paymentRepo,
		publisher:     publisher,
	}
}

// CreateRecurringInput holds the input for creating a recurring expense
type CreateRecurringInput struct {
	Name               string
	Amount             decimal.Decimal
	Currency           string
	Frequency          domain.Frequency
	CategoryID         *int32
	StartDate          time.Time
	EndDate            *time.Time
	AutoCreateSpending bool
	Notes              *string
}

// CreateRecurring creates a recurring expense. The first due date is the
// start date itself.
func (s *RecurringService) CreateRecurring(userID uuid.UUID, input CreateRecurringInput) (*domain.RecurringExpense, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	if !domain.ValidFrequency(input.Frequency) {
		return nil, domain.ErrInvalidFrequency
	}

	startDate := input.StartDate.UTC().Truncate(24 * time.Hour)
	endDate, err := normalizeEndDate(startDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	notes, err := trimOptional(input.Notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if err := s.checkCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	nextDue := startDate
	re := &domain.RecurringExpense{
		UserID:             userID,
		Name:               name,
		Amount:             input.Amount,
		Currency:           currency,
		Frequency:          input.Frequency,
		CategoryID:         input.CategoryID,
		StartDate:          startDate,
		EndDate:            endDate,
		NextDueDate:        &nextDue,
		IsActive:           true,
		AutoCreateSpending: input.AutoCreateSpending,
		Notes:              notes,
	}

	created, err := s.recurringRepo.Create(re)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.RecurringChanged(websocket.EventTypeCreated, created))
	return created, nil
}

// GetRecurring retrieves a recurring expense by ID
func (s *RecurringService) GetRecurring(userID uuid.UUID, id int32) (*domain.RecurringExpense, error) {
	return s.recurringRepo.GetByID(userID, id)
}

// ListRecurring retrieves recurring expenses, optionally only active ones
func (s *RecurringService) ListRecurring(userID uuid.UUID, activeOnly *bool) ([]*domain.RecurringExpense, error) {
	return s.recurringRepo.ListByUser(userID, activeOnly)
}

// UpdateRecurringInput holds the input for updating a recurring expense.
// Nil fields are left unchanged.
type UpdateRecurringInput struct {
	Name               *string
	Amount             *decimal.Decimal
	Currency           *string
	Frequency          *domain.Frequency
	CategoryID         *int32
	ClearCategory      bool
	StartDate          *time.Time
	EndDate            *time.Time
	ClearEndDate       bool
	IsActive           *bool
	AutoCreateSpending *bool
	Notes              *string
}

// UpdateRecurring updates a recurring expense. Schedule changes recompute
// the next due date from today.
func (s *RecurringService) UpdateRecurring(userID uuid.UUID, id int32, input UpdateRecurringInput) (*domain.RecurringExpense, error) {
	re, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	scheduleChanged := false

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxNameLength {
			return nil, domain.ErrNameTooLong
		}
		re.Name = name
	}

	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidAmount
		}
		re.Amount = *input.Amount
	}

	if input.Currency != nil {
		currency, err := normalizeCurrency(*input.Currency)
		if err != nil {
			return nil, err
		}
		re.Currency = currency
	}

	if input.Frequency != nil {
		if !domain.ValidFrequency(*input.Frequency) {
			return nil, domain.ErrInvalidFrequency
		}
		re.Frequency = *input.Frequency
		scheduleChanged = true
	}

	if input.ClearCategory {
		re.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
		re.CategoryID = input.CategoryID
	}

	if input.StartDate != nil {
		re.StartDate = input.StartDate.UTC().Truncate(24 * time.Hour)
		scheduleChanged = true
	}

	if input.ClearEndDate {
		re.EndDate = nil
		scheduleChanged = true
	} else if input.EndDate != nil {
		endDate, err := normalizeEndDate(re.StartDate, input.EndDate)
		if err != nil {
			return nil, err
		}
		re.EndDate = endDate
		scheduleChanged = true
	}

	if re.EndDate != nil && re.EndDate.Before(re.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	if input.IsActive != nil {
		re.IsActive = *input.IsActive
	}

	if input.AutoCreateSpending != nil {
		re.AutoCreateSpending = *input.AutoCreateSpending
	}

	if input.Notes != nil {
		notes, err := trimOptional(input.Notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
		if err != nil {
			return nil, err
		}
		re.Notes = notes
	}

	if scheduleChanged {
		nextDue, active, err := reprojectDueDate(re.StartDate, re.Frequency, re.EndDate)
		if err != nil {
			return nil, err
		}
		re.NextDueDate = nextDue
		if !active {
			re.IsActive = false
		}
	}

	updated, err := s.recurringRepo.Update(re)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.RecurringChanged(websocket.EventTypeUpdated, updated))
	return updated, nil
}

// DeleteRecurring removes a recurring expense. Past payments are kept.
func (s *RecurringService) DeleteRecurring(userID uuid.UUID, id int32) error {
	re, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.recurringRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.RecurringChanged(websocket.EventTypeDeleted, re))
	return nil
}

// RecordPaymentInput holds the input for recording a payment against a
// recurring obligation
type RecordPaymentInput struct {
	PaidAt *time.Time
	Amount *decimal.Decimal
}

// RecordPayment records a payment against a recurring expense: it inserts
// the payment, optionally generates a spending transaction, and advances
// the due date strictly past the payment date, all atomically. When the
// schedule runs past its end date the expense is deactivated.
func (s *RecurringService) RecordPayment(userID uuid.UUID, id int32, input RecordPaymentInput) (*domain.RecurringPayment, error) {
	re, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if !re.IsActive {
		return nil, domain.ErrObligationInactive
	}

	paidAt, amount, err := normalizePayment(input, re.NextDueDate, re.Amount)
	if err != nil {
		return nil, err
	}

	next, ok, err := domain.NextOccurrence(re.StartDate, re.Frequency, re.EndDate, paidAt)
	if err != nil {
		return nil, err
	}
	if ok {
		re.NextDueDate = &next
	} else {
		re.NextDueDate = nil
		re.IsActive = false
	}

	payment := &domain.RecurringPayment{
		UserID:         userID,
		ObligationKind: domain.ObligationRecurringExpense,
		ObligationID:   re.ID,
		PaidAt:         paidAt,
		Amount:         amount,
	}

	var spending *domain.SpendingTransaction
	if re.AutoCreateSpending {
		spending = spendingForPayment(userID, re.Name, re.CategoryID, paidAt, amount)
	}

	recorded, err := s.recurringRepo.RecordPayment(re, payment, spending)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.RecurringPaid(recorded))
	if spending != nil {
		s.publisher.Publish(userID, websocket.SpendingCreated(spending))
	}
	return recorded, nil
}

// ListPayments retrieves the payment history of a recurring expense
func (s *RecurringService) ListPayments(userID uuid.UUID, id int32) ([]*domain.RecurringPayment, error) {
	if _, err := s.recurringRepo.GetByID(userID, id); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByObligation(userID, domain.ObligationRecurringExpense, id)
}

func (s *RecurringService) checkCategory(userID uuid.UUID, categoryID int32) error {
	category, err := s.categoryRepo.GetByID(userID, categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if category.Type != domain.CategoryTypeSpending {
		return domain.ErrCategoryTypeMismatch
	}
	return nil
}

// normalizeCurrency upper-cases and validates a three-letter currency code
func normalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", domain.ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", domain.ErrInvalidCurrency
		}
	}
	return code, nil
}

func normalizeEndDate(startDate time.Time, endDate *time.Time) (*time.Time, error) {
	if endDate == nil {
		return nil, nil
	}
	e := endDate.UTC().Truncate(24 * time.Hour)
	if e.Before(startDate) {
		return nil, domain.ErrInvalidDateRange
	}
	return &e, nil
}

// normalizePayment applies payment defaults and validates the payment date
// against the current due date
func normalizePayment(input RecordPaymentInput, dueDate *time.Time, defaultAmount decimal.Decimal) (time.Time, decimal.Decimal, error) {
	paidAt := time.Now().UTC().Truncate(24 * time.Hour)
	if input.PaidAt != nil {
		paidAt = input.PaidAt.UTC().Truncate(24 * time.Hour)
	}
	if dueDate != nil && paidAt.Before(*dueDate) {
		return time.Time{}, decimal.Decimal{}, domain.ErrPaymentBeforeDue
	}

	amount := defaultAmount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return time.Time{}, decimal.Decimal{}, domain.ErrInvalidAmount
	}

	return paidAt, amount, nil
}

// reprojectDueDate recomputes the next due date after a schedule change:
// the first occurrence on or after today, never before the start date.
// active is false when the schedule has already run out.
func reprojectDueDate(startDate time.Time, freq domain.Frequency, endDate *time.Time) (*time.Time, bool, error) {
	ref := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	next, ok, err := domain.NextOccurrence(startDate, freq, endDate, ref)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &next, true, nil
}

// spendingForPayment builds the spending transaction generated by a paid
// recurring obligation
func spendingForPayment(userID uuid.UUID, name string, categoryID *int32, paidAt time.Time, amount decimal.Decimal) *domain.SpendingTransaction {
	return &domain.SpendingTransaction{
		UserID:        userID,
		Date:          paidAt,
		Description:   name,
		CategoryID:    categoryID,
		Amount:        amount,
		PaymentMethod: domain.PaymentMethodOther,
	}
}
