package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	publisher    websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, publisher websocket.EventPublisher) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		publisher:    publisher,
	}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name string
	Type domain.CategoryType
}

// CreateCategory creates a new category with validation
func (s *CategoryService) CreateCategory(userID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate type
	if input.Type != domain.CategoryTypeIncome && input.Type != domain.CategoryTypeSpending {
		return nil, domain.ErrInvalidCategoryType
	}

	category := &domain.Category{
		UserID: userID,
		Name:   name,
		Type:   input.Type,
	}

	created, err := s.categoryRepo.Create(category)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.CategoryChanged(websocket.EventTypeCreated, created))
	return created, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(userID uuid.UUID, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(userID, id)
}

// ListCategories retrieves the user's categories, optionally filtered by type
func (s *CategoryService) ListCategories(userID uuid.UUID, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	if categoryType != nil {
		if *categoryType != domain.CategoryTypeIncome && *categoryType != domain.CategoryTypeSpending {
			return nil, domain.ErrInvalidCategoryType
		}
	}
	return s.categoryRepo.ListByUser(userID, categoryType)
}

// UpdateCategoryInput holds the input for updating a category. The type is
// immutable after creation; only the name can change.
type UpdateCategoryInput struct {
	Name string
}

// UpdateCategory renames a category
func (s *CategoryService) UpdateCategory(userID uuid.UUID, id int32, input UpdateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	category, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	category.Name = name

	updated, err := s.categoryRepo.Update(category)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.CategoryChanged(websocket.EventTypeUpdated, updated))
	return updated, nil
}

// DeleteCategory removes a category. Deletion is blocked while transactions,
// services, or recurring obligations still reference it.
func (s *CategoryService) DeleteCategory(userID uuid.UUID, id int32) error {
	category, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	refs, err := s.categoryRepo.CountReferences(userID, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.CategoryChanged(websocket.EventTypeDeleted, category))
	return nil
}
