package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// SpendingService handles spending transaction business logic
type SpendingService struct {
	spendingRepo domain.SpendingRepository
	categoryRepo domain.CategoryRepository
	publisher    websocket.EventPublisher
}

// NewSpendingService creates a new SpendingService
func NewSpendingService(spendingRepo domain.SpendingRepository, categoryRepo domain.CategoryRepository, publisher websocket.EventPublisher) *SpendingService {
	return &SpendingService{
		spendingRepo: spendingRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
	}
}

// CreateSpendingInput holds the input for recording spending
type CreateSpendingInput struct {
	Date          *time.Time
	Description   string
	CategoryID    *int32
	Amount        decimal.Decimal
	PaymentMethod domain.PaymentMethod
	Notes         *string
}

// CreateSpending records a spending transaction
func (s *SpendingService) CreateSpending(userID uuid.UUID, input CreateSpendingInput) (*domain.SpendingTransaction, error) {
	// Validate description (mandatory for spending)
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	// Validate amount (must be positive)
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	// Validate payment method
	if !domain.ValidPaymentMethod(input.PaymentMethod) {
		return nil, domain.ErrInvalidPaymentMethod
	}

	notes, err := trimOptional(input.Notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
	if err != nil {
		return nil, err
	}

	// Validate category: must exist and be a spending category
	if input.CategoryID != nil {
		if err := s.checkCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	// Default date to today if not provided
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if input.Date != nil {
		date = input.Date.UTC().Truncate(24 * time.Hour)
	}

	tx := &domain.SpendingTransaction{
		UserID:        userID,
		Date:          date,
		Description:   description,
		CategoryID:    input.CategoryID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		Notes:         notes,
	}

	created, err := s.spendingRepo.Create(tx)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.SpendingCreated(created))
	return created, nil
}

// GetSpending retrieves a spending transaction by ID
func (s *SpendingService) GetSpending(userID uuid.UUID, id int32) (*domain.SpendingTransaction, error) {
	return s.spendingRepo.GetByID(userID, id)
}

// ListSpending retrieves spending transactions with filters and pagination
func (s *SpendingService) ListSpending(userID uuid.UUID, filters *domain.SpendingFilters) (*domain.PaginatedSpending, error) {
	if filters == nil {
		filters = &domain.SpendingFilters{}
	}
	if filters.PaymentMethod != nil && !domain.ValidPaymentMethod(*filters.PaymentMethod) {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}
	normalizePagination(&filters.Page, &filters.PageSize)

	return s.spendingRepo.ListByUser(userID, filters)
}

// UpdateSpendingInput holds the input for updating a spending transaction.
// Nil fields are left unchanged.
type UpdateSpendingInput struct {
	Date          *time.Time
	Description   *string
	CategoryID    *int32
	ClearCategory bool
	Amount        *decimal.Decimal
	PaymentMethod *domain.PaymentMethod
	Notes         *string
}

// UpdateSpending updates a spending transaction
func (s *SpendingService) UpdateSpending(userID uuid.UUID, id int32, input UpdateSpendingInput) (*domain.SpendingTransaction, error) {
	tx, err := s.spendingRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Date != nil {
		tx.Date = input.Date.UTC().Truncate(24 * time.Hour)
	}

	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, domain.ErrDescriptionRequired
		}
		if len(description) > domain.MaxDescriptionLength {
			return nil, domain.ErrDescriptionTooLong
		}
		tx.Description = description
	}

	if input.ClearCategory {
		tx.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
		tx.CategoryID = input.CategoryID
	}

	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidAmount
		}
		tx.Amount = *input.Amount
	}

	if input.PaymentMethod != nil {
		if !domain.ValidPaymentMethod(*input.PaymentMethod) {
			return nil, domain.ErrInvalidPaymentMethod
		}
		tx.PaymentMethod = *input.PaymentMethod
	}

	if input.Notes != nil {
		notes, err := trimOptional(input.Notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
		if err != nil {
			return nil, err
		}
		tx.Notes = notes
	}

	updated, err := s.spendingRepo.Update(tx)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.SpendingUpdated(updated))
	return updated, nil
}

// DeleteSpending removes a spending transaction
func (s *SpendingService) DeleteSpending(userID uuid.UUID, id int32) error {
	tx, err := s.spendingRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.spendingRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.SpendingDeleted(tx))
	return nil
}

func (s *SpendingService) checkCategory(userID uuid.UUID, categoryID int32) error {
	category, err := s.categoryRepo.GetByID(userID, categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if category.Type != domain.CategoryTypeSpending {
		return domain.ErrCategoryTypeMismatch
	}
	return nil
}
