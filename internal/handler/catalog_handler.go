package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
)

// CatalogHandler handles service catalog HTTP requests
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CreateServiceRequest represents the create service request body
type CreateServiceRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	DefaultPrice string  `json:"defaultPrice"`
	CategoryID   *int32  `json:"categoryId,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// UpdateServiceRequest represents the update service request body
type UpdateServiceRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	DefaultPrice  *string `json:"defaultPrice,omitempty"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	ClearCategory bool    `json:"clearCategory,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// ServiceResponse represents a catalog service in API responses
type ServiceResponse struct {
	ID           int32   `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	DefaultPrice string  `json:"defaultPrice"`
	CategoryID   *int32  `json:"categoryId,omitempty"`
	IsActive     bool    `json:"isActive"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// CreateService creates a new catalog service
func (h *CatalogHandler) CreateService(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	price, err := decimal.NewFromString(req.DefaultPrice)
	if err != nil {
		return NewValidationError(c, "Invalid defaultPrice", []ValidationError{
			{Field: "defaultPrice", Message: "Must be a valid decimal number"},
		})
	}

	svc, err := h.catalogService.CreateService(userID, service.CreateServiceInput{
		Name:         req.Name,
		Description:  req.Description,
		DefaultPrice: price,
		CategoryID:   req.CategoryID,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return h.mapCatalogError(c, err, "create service")
	}

	return c.JSON(http.StatusCreated, serviceToResponse(svc))
}

// GetService retrieves a catalog service by ID
func (h *CatalogHandler) GetService(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid service ID", nil)
	}

	svc, err := h.catalogService.GetService(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "get service")
	}

	return c.JSON(http.StatusOK, serviceToResponse(svc))
}

// ListServices lists the user's catalog
func (h *CatalogHandler) ListServices(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var activeOnly *bool
	if raw := c.QueryParam("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "active", Message: "Must be true or false"},
			})
		}
		activeOnly = &parsed
	}

	services, err := h.catalogService.ListServices(userID, activeOnly)
	if err != nil {
		return handleUnexpectedError(c, err, "list services")
	}

	responses := make([]ServiceResponse, 0, len(services))
	for _, svc := range services {
		responses = append(responses, serviceToResponse(svc))
	}
	return c.JSON(http.StatusOK, responses)
}

// UpdateService updates a catalog service
func (h *CatalogHandler) UpdateService(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid service ID", nil)
	}

	var req UpdateServiceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateServiceInput{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		IsActive:      req.IsActive,
	}
	if req.DefaultPrice != nil {
		price, err := decimal.NewFromString(*req.DefaultPrice)
		if err != nil {
			return NewValidationError(c, "Invalid defaultPrice", []ValidationError{
				{Field: "defaultPrice", Message: "Must be a valid decimal number"},
			})
		}
		input.DefaultPrice = &price
	}

	svc, err := h.catalogService.UpdateService(userID, id, input)
	if err != nil {
		return h.mapCatalogError(c, err, "update service")
	}

	return c.JSON(http.StatusOK, serviceToResponse(svc))
}

// DeleteService removes a catalog service
func (h *CatalogHandler) DeleteService(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid service ID", nil)
	}

	if err := h.catalogService.DeleteService(userID, id); err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "delete service")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) mapCatalogError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 1000 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidPrice):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "defaultPrice", Message: "Price must be positive"},
		})
	case errors.Is(err, domain.ErrCategoryTypeMismatch):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category must be an income category"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	}
	if detail := notFoundDetail(err); detail != "" {
		return NewNotFoundError(c, detail)
	}
	return handleUnexpectedError(c, err, action)
}

func serviceToResponse(svc *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:           svc.ID,
		Name:         svc.Name,
		Description:  svc.Description,
		DefaultPrice: svc.DefaultPrice.String(),
		CategoryID:   svc.CategoryID,
		IsActive:     svc.IsActive,
		CreatedAt:    svc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    svc.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
