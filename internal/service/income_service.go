package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// IncomeService handles income transaction business logic
type IncomeService struct {
	incomeRepo   domain.IncomeRepository
	serviceRepo  domain.ServiceRepository
	categoryRepo domain.CategoryRepository
	publisher    websocket.EventPublisher
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(incomeRepo domain.IncomeRepository, serviceRepo domain.ServiceRepository, categoryRepo domain.CategoryRepository, publisher websocket.EventPublisher) *IncomeService {
	return &IncomeService{
		incomeRepo:   incomeRepo,
		serviceRepo:  serviceRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
	}
}

// CreateIncomeInput holds the input for recording income
type CreateIncomeInput struct {
	Date          *time.Time
	ClientName    *string
	ServiceID     *int32
	CategoryID    *int32
	Price         decimal.Decimal
	Discount      *decimal.Decimal
	PaymentMethod domain.PaymentMethod
	Notes         *string
}

// CreateIncome records an income transaction. The stored total is always
// price minus discount; the client never supplies it.
func (s *IncomeService) CreateIncome(userID uuid.UUID, input CreateIncomeInput) (*domain.IncomeTransaction, error) {
	// Validate price (must be positive)
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPrice
	}

	// Validate discount: zero up to the full price
	discount := decimal.Zero
	if input.Discount != nil {
		discount = *input.Discount
	}
	if discount.IsNegative() || discount.GreaterThan(input.Price) {
		return nil, domain.ErrInvalidDiscount
	}

	// Validate payment method
	if !domain.ValidPaymentMethod(input.PaymentMethod) {
		return nil, domain.ErrInvalidPaymentMethod
	}

	clientName, err := trimOptional(input.ClientName, domain.MaxClientNameLength, domain.ErrNameTooLong)
	if err != nil {
		return nil, err
	}
	notes, err := trimOptional(input.Notes, domain.MaxNotesLength, domain.ErrNotesTooLong)
	if err != nil {
		return nil, err
	}

	// Validate service reference if provided
	if input.ServiceID != nil {
		if _, err := s.serviceRepo.GetByID(userID, *input.ServiceID); err != nil {
			return nil, domain.ErrServiceNotFound
		}
	}

	// Validate category: must exist and be an income category
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

	tx := &domain.IncomeTransaction{
		UserID:        userID,
		Date:          date,
		ClientName:    clientName,
		ServiceID:     input.ServiceID,
		CategoryID:    input.CategoryID,
		Price:         input.Price,
		Discount:      discount,
		TotalReceived: input.Price.Sub(discount),
		PaymentMethod: input.PaymentMethod,
		Notes:         notes,
	}

	created, err := s.incomeRepo.Create(tx)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.IncomeCreated(created))
	return created, nil
}

// GetIncome retrieves an income transaction by ID
func (s *IncomeService) GetIncome(userID uuid.UUID, id int32) (*domain.IncomeTransaction, error) {
	return s.incomeRepo.GetByID(userID, id)
}

// ListIncome retrieves income transactions with filters and pagination
func (s *IncomeService) ListIncome(userID uuid.UUID, filters *domain.IncomeFilters) (*domain.PaginatedIncome, error) {
	if filters == nil {
		filters = &domain.IncomeFilters{}
	}
	if filters.PaymentMethod != nil && !domain.ValidPaymentMethod(*filters.PaymentMethod) {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}
	normalizePagination(&filters.Page, &filters.PageSize)

	return s.incomeRepo.ListByUser(userID, filters)
}

// UpdateIncomeInput holds the input for updating an income transaction.
// Nil fields are left unchanged.
type UpdateIncomeInput struct {
	Date          *time.Time
	ClientName    *string
	ServiceID     *int32
	ClearService  bool
	CategoryID    *int32
	ClearCategory bool
	Price         *decimal.Decimal
	Discount      *decimal.Decimal
	PaymentMethod *domain.PaymentMethod
	Notes         *string
}

// UpdateIncome updates an income transaction, recomputing the total
func (s *IncomeService) UpdateIncome(userID uuid.UUID, id int32, input UpdateIncomeInput) (*domain.IncomeTransaction, error) {
	tx, err := s.incomeRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Date != nil {
		tx.Date = input.Date.UTC().Truncate(24 * time.Hour)
	}

	if input.ClientName != nil {
		clientName, err := trimOptional(input.ClientName, domain.MaxClientNameLength, domain.ErrNameTooLong)
		if err != nil {
			return nil, err
		}
		tx.ClientName = clientName
	}

	if input.ClearService {
		tx.ServiceID = nil
	} else if input.ServiceID != nil {
		if _, err := s.serviceRepo.GetByID(userID, *input.ServiceID); err != nil {
			return nil, domain.ErrServiceNotFound
		}
		tx.ServiceID = input.ServiceID
	}

	if input.ClearCategory {
		tx.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
		tx.CategoryID = input.CategoryID
	}

	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidPrice
		}
		tx.Price = *input.Price
	}
	if input.Discount != nil {
		tx.Discount = *input.Discount
	}
	if tx.Discount.IsNegative() || tx.Discount.GreaterThan(tx.Price) {
		return nil, domain.ErrInvalidDiscount
	}
	tx.TotalReceived = tx.Price.Sub(tx.Discount)

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

	updated, err := s.incomeRepo.Update(tx)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.IncomeUpdated(updated))
	return updated, nil
}

// DeleteIncome removes an income transaction
func (s *IncomeService) DeleteIncome(userID uuid.UUID, id int32) error {
	tx, err := s.incomeRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.incomeRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.IncomeDeleted(tx))
	return nil
}

func (s *IncomeService) checkCategory(userID uuid.UUID, categoryID int32) error {
	category, err := s.categoryRepo.GetByID(userID, categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if category.Type != domain.CategoryTypeIncome {
		return domain.ErrCategoryTypeMismatch
	}
	return nil
}

// normalizePagination clamps page and page size to their valid ranges
func normalizePagination(page, pageSize *int32) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = domain.DefaultPageSize
	}
	if *pageSize > domain.MaxPageSize {
		*pageSize = domain.MaxPageSize
	}
}
