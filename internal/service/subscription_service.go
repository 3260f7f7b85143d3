package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// SubscriptionService handles subscription business logic. Subscriptions
// follow the recurring expense schedule rules plus renewal semantics: a
// non-renewing subscription deactivates after its current period is paid.
type SubscriptionService struct {
	subscriptionRepo domain.SubscriptionRepository
	categoryRepo     domain.CategoryRepository
	paymentRepo      domain.PaymentRepository
	publisher        websocket.EventPublisher
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(subscriptionRepo domain.SubscriptionRepository, categoryRepo domain.CategoryRepository, paymentRepo domain.PaymentRepository, publisher websocket.EventPublisher) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		categoryRepo:     categoryRepo,
		paymentRepo:      paymentRepo,
		publisher:        publisher,
	}
}

// CreateSubscriptionInput holds the input for creating a subscription
type CreateSubscriptionInput struct {
	Name               string
	Amount             decimal.Decimal
	Currency           string
	Frequency          domain.Frequency
	CategoryID         *int32
	StartDate          time.Time
	EndDate            *time.Time
	AutoRenew          *bool
	AutoCreateSpending bool
	ReminderLeadDays   *int32
	Notes              *string
}

// CreateSubscription creates a subscription. The first due date is the
// start date itself.
func (s *SubscriptionService) CreateSubscription(userID uuid.UUID, input CreateSubscriptionInput) (*domain.Subscription, error) {
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

	// Default auto_renew to true if not provided
	autoRenew := true
	if input.AutoRenew != nil {
		autoRenew = *input.AutoRenew
	}

	reminderLeadDays := int32(0)
	if input.ReminderLeadDays != nil {
		if *input.ReminderLeadDays < 0 {
			return nil, domain.ErrInvalidReminderLead
		}
		reminderLeadDays = *input.ReminderLeadDays
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
	sub := &domain.Subscription{
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
		AutoRenew:          autoRenew,
		AutoCreateSpending: input.AutoCreateSpending,
		ReminderLeadDays:   reminderLeadDays,
		Notes:              notes,
	}

	created, err := s.subscriptionRepo.Create(sub)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.SubscriptionChanged(websocket.EventTypeCreated, created))
	return created, nil
}

// GetSubscription retrieves a subscription by ID
func (s *SubscriptionService) GetSubscription(userID uuid.UUID, id int32) (*domain.Subscription, error) {
	return s.subscriptionRepo.GetByID(userID, id)
}

// ListSubscriptions retrieves subscriptions, optionally only active ones
func (s *SubscriptionService) ListSubscriptions(userID uuid.UUID, activeOnly *bool) ([]*domain.Subscription, error) {
	return s.subscriptionRepo.ListByUser(userID, activeOnly)
}

// UpdateSubscriptionInput holds the input for updating a subscription.
// Nil fields are left unchanged.
type UpdateSubscriptionInput struct {
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
	AutoRenew          *bool
	AutoCreateSpending *bool
	ReminderLeadDays   *int32
	Notes              *string
}

// UpdateSubscription updates a subscription. Schedule changes recompute the
// next due date from today.
func (s *SubscriptionService) UpdateSubscription(userID uuid.UUID, id int32, input UpdateSubscriptionInput) (*domain.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(userID, id)
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
		sub.Name = name
	}

	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidAmount
		}
		sub.Amount = *input.Amount
	}

	if input.Currency != nil {
		currency, err := normalizeCurrency(*input.Currency)
		if err != nil {
			return nil, err
		}
		sub.Currency = currency
	}

	if input.Frequency != nil {
		if !domain.ValidFrequency(*input.Frequency) {
			return nil, domain.ErrInvalidFrequency
		}
		sub.Frequency = *input.Frequency
		scheduleChanged = true
	}

	if input.ClearCategory {
		sub.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
		sub.CategoryID = input.CategoryID
	}

	if input.StartDate != nil {
		sub.StartDate = input.StartDate.UTC().Truncate(24 * time.Hour)
		scheduleChanged = true
	}

	if input.ClearEndDate {
		sub.EndDate = nil
		scheduleChanged = true
	} else if input.EndDate != nil {
		endDate, err := normalizeEndDate(sub.StartDate, input.EndDate)
		if err != nil {
			return nil, err
		}
		sub.EndDate = endDate
		scheduleChanged = true
	}

	if sub.EndDate != nil && sub.EndDate.Before(sub.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	if input.IsActive != nil {
		sub.IsActive = *input.IsActive
	}

	if input.AutoRenew != nil {
		sub.AutoRenew = *input.AutoRenew
	}

	if input.AutoCreateSpending != nil {
		sub.AutoCreateSpending = *input.AutoCreateSpending
	}

	if input.ReminderLeadDays != nil {
		if *input.ReminderLeadDays < 0 {
			return nil, domain.ErrInvalidReminderLead
		}
		sub.ReminderLeadDays = *input.ReminderLeadDays
	}

	if input.Notes != nil {
		notes, err := trimOptional(input.Notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
		if err != nil {
			return nil, err
		}
		sub.Notes = notes
	}

	if scheduleChanged {
		nextDue, active, err := reprojectDueDate(sub.StartDate, sub.Frequency, sub.EndDate)
		if err != nil {
			return nil, err
		}
		sub.NextDueDate = nextDue
		if !active {
			sub.IsActive = false
		}
	}

	updated, err := s.subscriptionRepo.Update(sub)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.SubscriptionChanged(websocket.EventTypeUpdated, updated))
	return updated, nil
}

// DeleteSubscription removes a subscription. Past payments are kept.
func (s *SubscriptionService) DeleteSubscription(userID uuid.UUID, id int32) error {
	sub, err := s.subscriptionRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.subscriptionRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.SubscriptionChanged(websocket.EventTypeDeleted, sub))
	return nil
}

// RecordPayment records a payment against a subscription. A non-renewing
// subscription is deactivated once the payment is recorded; otherwise the
// due date advances strictly past the payment date.
func (s *SubscriptionService) RecordPayment(userID uuid.UUID, id int32, input RecordPaymentInput) (*domain.RecurringPayment, error) {
	sub, err := s.subscriptionRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, domain.ErrObligationInactive
	}

	paidAt, amount, err := normalizePayment(input, sub.NextDueDate, sub.Amount)
	if err != nil {
		return nil, err
	}

	if !sub.AutoRenew {
		sub.NextDueDate = nil
		sub.IsActive = false
	} else {
		next, ok, err := domain.NextOccurrence(sub.StartDate, sub.Frequency, sub.EndDate, paidAt)
		if err != nil {
			return nil, err
		}
		if ok {
			sub.NextDueDate = &next
		} else {
			sub.NextDueDate = nil
			sub.IsActive = false
		}
	}

	payment := &domain.RecurringPayment{
		UserID:         userID,
		ObligationKind: domain.ObligationSubscription,
		ObligationID:   sub.ID,
		PaidAt:         paidAt,
		Amount:         amount,
	}

	var spending *domain.SpendingTransaction
	if sub.AutoCreateSpending {
		spending = spendingForPayment(userID, sub.Name, sub.CategoryID, paidAt, amount)
	}

	recorded, err := s.subscriptionRepo.RecordPayment(sub, payment, spending)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.SubscriptionPaid(recorded))
	if spending != nil {
		s.publisher.Publish(userID, websocket.SpendingCreated(spending))
	}
	return recorded, nil
}

// ListPayments retrieves the payment history of a subscription
func (s *SubscriptionService) ListPayments(userID uuid.UUID, id int32) ([]*domain.RecurringPayment, error) {
	if _, err := s.subscriptionRepo.GetByID(userID, id); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByObligation(userID, domain.ObligationSubscription, id)
}

func (s *SubscriptionService) checkCategory(userID uuid.UUID, categoryID int32) error {
	category, err := s.categoryRepo.GetByID(userID, categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if category.Type != domain.CategoryTypeSpending {
		return domain.ErrCategoryTypeMismatch
	}
	return nil
}
