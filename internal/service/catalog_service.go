package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// CatalogService handles the billable service catalog
type CatalogService struct {
	serviceRepo  domain.ServiceRepository
	categoryRepo domain.CategoryRepository
	publisher    websocket.EventPublisher
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(serviceRepo domain.ServiceRepository, categoryRepo domain.CategoryRepository, publisher websocket.EventPublisher) *CatalogService {
	return &CatalogService{
		serviceRepo:  serviceRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
	}
}

// CreateServiceInput holds the input for creating a catalog service
type CreateServiceInput struct {
	Name         string
	Description  *string
	DefaultPrice decimal.Decimal
	CategoryID   *int32
	IsActive     *bool
}

// CreateService creates a new catalog service with validation
func (s *CatalogService) CreateService(userID uuid.UUID, input CreateServiceInput) (*domain.Service, error) {
	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate price (must be positive)
	if input.DefaultPrice.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPrice
	}

	description, err := trimOptional(input.Description, domain.MaxDescriptionLength, domain.ErrDescriptionTooLong)
	if err != nil {
		return nil, err
	}

	// Validate category if provided: must exist and be an income category
	if input.CategoryID != nil {
		if err := s.checkIncomeCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	// Default is_active to true if not provided
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	svc := &domain.Service{
		UserID:       userID,
		Name:         name,
		Description:  description,
		DefaultPrice: input.DefaultPrice,
		CategoryID:   input.CategoryID,
		IsActive:     isActive,
	}

	created, err := s.serviceRepo.Create(svc)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.ServiceChanged(websocket.EventTypeCreated, created))
	return created, nil
}

// GetService retrieves a catalog service by ID
func (s *CatalogService) GetService(userID uuid.UUID, id int32) (*domain.Service, error) {
	return s.serviceRepo.GetByID(userID, id)
}

// ListServices retrieves the user's catalog, optionally only active entries
func (s *CatalogService) ListServices(userID uuid.UUID, activeOnly *bool) ([]*domain.Service, error) {
	return s.serviceRepo.ListByUser(userID, activeOnly)
}

// UpdateServiceInput holds the input for updating a catalog service.
// Nil fields are left unchanged.
type UpdateServiceInput struct {
	Name          *string
	Description   *string
	DefaultPrice  *decimal.Decimal
	CategoryID    *int32
	ClearCategory bool
	IsActive      *bool
}

// UpdateService updates a catalog service with validation
func (s *CatalogService) UpdateService(userID uuid.UUID, id int32, input UpdateServiceInput) (*domain.Service, error) {
	svc, err := s.serviceRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxNameLength {
			return nil, domain.ErrNameTooLong
		}
		svc.Name = name
	}

	if input.Description != nil {
		description, err := trimOptional(input.Description, domain.MaxDescriptionLength, domain.ErrDescriptionTooLong)
		if err != nil {
			return nil, err
		}
		svc.Description = description
	}

	if input.DefaultPrice != nil {
		if input.DefaultPrice.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidPrice
		}
		svc.DefaultPrice = *input.DefaultPrice
	}

	if input.ClearCategory {
		svc.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkIncomeCategory(userID, *input.CategoryID); err != nil {
			return nil, err
		}
		svc.CategoryID = input.CategoryID
	}

	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}

	updated, err := s.serviceRepo.Update(svc)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.ServiceChanged(websocket.EventTypeUpdated, updated))
	return updated, nil
}

// DeleteService removes a catalog service. Income transactions keep their
// reference; the service is only soft-deleted.
func (s *CatalogService) DeleteService(userID uuid.UUID, id int32) error {
	svc, err := s.serviceRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.serviceRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.ServiceChanged(websocket.EventTypeDeleted, svc))
	return nil
}

func (s *CatalogService) checkIncomeCategory(userID uuid.UUID, categoryID int32) error {
	category, err := s.categoryRepo.GetByID(userID, categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if category.Type != domain.CategoryTypeIncome {
		return domain.ErrCategoryTypeMismatch
	}
	return nil
}

// trimOptional trims an optional text field, returning nil when the result
// is empty and tooLong when it exceeds maxLen.
func trimOptional(value *string, maxLen int, tooLong error) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxLen {
		return nil, tooLong
	}
	return &trimmed, nil
}
