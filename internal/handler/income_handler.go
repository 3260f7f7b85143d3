package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
)

// IncomeHandler handles income transaction HTTP requests
type IncomeHandler struct {
	incomeService *service.IncomeService
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(incomeService *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// CreateIncomeRequest represents the create income request body
type CreateIncomeRequest struct {
	Date          *string `json:"date,omitempty"`
	ClientName    *string `json:"clientName,omitempty"`
	ServiceID     *int32  `json:"serviceId,omitempty"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	Price         string  `json:"price"`
	Discount      *string `json:"discount,omitempty"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateIncomeRequest represents the update income request body
type UpdateIncomeRequest struct {
	Date          *string `json:"date,omitempty"`
	ClientName    *string `json:"clientName,omitempty"`
	ServiceID     *int32  `json:"serviceId,omitempty"`
	ClearService  bool    `json:"clearService,omitempty"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	ClearCategory bool    `json:"clearCategory,omitempty"`
	Price         *string `json:"price,omitempty"`
	Discount      *string `json:"discount,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// IncomeResponse represents an income transaction in API responses
type IncomeResponse struct {
	ID            int32   `json:"id"`
	Date          string  `json:"date"`
	ClientName    *string `json:"clientName,omitempty"`
	ServiceID     *int32  `json:"serviceId,omitempty"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	Price         string  `json:"price"`
	Discount      string  `json:"discount"`
	TotalReceived string  `json:"totalReceived"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// PaginatedIncomeResponse represents a page of income transactions
type PaginatedIncomeResponse struct {
	Data       []IncomeResponse `json:"data"`
	Page       int32            `json:"page"`
	PageSize   int32            `json:"pageSize"`
	TotalItems int64            `json:"totalItems"`
	TotalPages int32            `json:"totalPages"`
}

// CreateIncome records a new income transaction
func (h *IncomeHandler) CreateIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateIncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return NewValidationError(c, "Invalid price", []ValidationError{
			{Field: "price", Message: "Must be a valid decimal number"},
		})
	}

	var discount *decimal.Decimal
	if req.Discount != nil && *req.Discount != "" {
		parsed, err := decimal.NewFromString(*req.Discount)
		if err != nil {
			return NewValidationError(c, "Invalid discount", []ValidationError{
				{Field: "discount", Message: "Must be a valid decimal number"},
			})
		}
		discount = &parsed
	}

	date, err := parseDateField(req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	tx, err := h.incomeService.CreateIncome(userID, service.CreateIncomeInput{
		Date:          date,
		ClientName:    req.ClientName,
		ServiceID:     req.ServiceID,
		CategoryID:    req.CategoryID,
		Price:         price,
		Discount:      discount,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		return h.mapIncomeError(c, err, "create income")
	}

	return c.JSON(http.StatusCreated, incomeToResponse(tx))
}

// GetIncome retrieves an income transaction by ID
func (h *IncomeHandler) GetIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	tx, err := h.incomeService.GetIncome(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "get income")
	}

	return c.JSON(http.StatusOK, incomeToResponse(tx))
}

// ListIncome lists income transactions with filters and pagination
func (h *IncomeHandler) ListIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filters, err := h.parseFilters(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	page, err := h.incomeService.ListIncome(userID, filters)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPaymentMethod) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "paymentMethod", Message: "Must be one of: cash, card, bank_transfer, paypal, other"},
			})
		}
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "endDate", Message: "Must not be before startDate"},
			})
		}
		return handleUnexpectedError(c, err, "list income")
	}

	responses := make([]IncomeResponse, 0, len(page.Data))
	for _, tx := range page.Data {
		responses = append(responses, incomeToResponse(tx))
	}
	return c.JSON(http.StatusOK, PaginatedIncomeResponse{
		Data:       responses,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// UpdateIncome updates an income transaction
func (h *IncomeHandler) UpdateIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	var req UpdateIncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateIncomeInput{
		ClientName:    req.ClientName,
		ServiceID:     req.ServiceID,
		ClearService:  req.ClearService,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		Notes:         req.Notes,
	}

	date, err := parseDateField(req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	input.Date = date

	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return NewValidationError(c, "Invalid price", []ValidationError{
				{Field: "price", Message: "Must be a valid decimal number"},
			})
		}
		input.Price = &price
	}
	if req.Discount != nil {
		discount, err := decimal.NewFromString(*req.Discount)
		if err != nil {
			return NewValidationError(c, "Invalid discount", []ValidationError{
				{Field: "discount", Message: "Must be a valid decimal number"},
			})
		}
		input.Discount = &discount
	}
	if req.PaymentMethod != nil {
		method := domain.PaymentMethod(*req.PaymentMethod)
		input.PaymentMethod = &method
	}

	tx, err := h.incomeService.UpdateIncome(userID, id, input)
	if err != nil {
		return h.mapIncomeError(c, err, "update income")
	}

	return c.JSON(http.StatusOK, incomeToResponse(tx))
}

// DeleteIncome removes an income transaction
func (h *IncomeHandler) DeleteIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	if err := h.incomeService.DeleteIncome(userID, id); err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "delete income")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *IncomeHandler) parseFilters(c echo.Context) (*domain.IncomeFilters, error) {
	filters := &domain.IncomeFilters{}

	var err error
	if filters.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		return nil, err
	}
	if filters.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		return nil, err
	}

	if raw := c.QueryParam("serviceId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, errors.New("Invalid serviceId")
		}
		parsed := int32(id)
		filters.ServiceID = &parsed
	}
	if raw := c.QueryParam("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, errors.New("Invalid categoryId")
		}
		parsed := int32(id)
		filters.CategoryID = &parsed
	}
	if raw := c.QueryParam("paymentMethod"); raw != "" {
		method := domain.PaymentMethod(raw)
		filters.PaymentMethod = &method
	}

	filters.Page = parseIntQuery(c, "page", 1)
	filters.PageSize = parseIntQuery(c, "pageSize", domain.DefaultPageSize)
	return filters, nil
}

func (h *IncomeHandler) mapIncomeError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidPrice):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "price", Message: "Price must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidDiscount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "discount", Message: "Discount must be between zero and the price"},
		})
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paymentMethod", Message: "Must be one of: cash, card, bank_transfer, paypal, other"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "clientName", Message: "Client name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrNotesTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "notes", Message: "Notes must be 1000 characters or less"},
		})
	case errors.Is(err, domain.ErrServiceNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "serviceId", Message: "Service not found"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrCategoryTypeMismatch):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category must be an income category"},
		})
	}
	if detail := notFoundDetail(err); detail != "" {
		return NewNotFoundError(c, detail)
	}
	return handleUnexpectedError(c, err, action)
}

func incomeToResponse(tx *domain.IncomeTransaction) IncomeResponse {
	return IncomeResponse{
		ID:            tx.ID,
		Date:          tx.Date.Format("2006-01-02"),
		ClientName:    tx.ClientName,
		ServiceID:     tx.ServiceID,
		CategoryID:    tx.CategoryID,
		Price:         tx.Price.String(),
		Discount:      tx.Discount.String(),
		TotalReceived: tx.TotalReceived.String(),
		PaymentMethod: string(tx.PaymentMethod),
		Notes:         tx.Notes,
		CreatedAt:     tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     tx.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// parseDateField parses an optional YYYY-MM-DD request field
func parseDateField(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter
func parseDateQuery(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New("Invalid " + name + ": must be in YYYY-MM-DD format")
	}
	return &parsed, nil
}

// parseIntQuery parses an int32 query parameter with a fallback
func parseIntQuery(c echo.Context, name string, fallback int32) int32 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(parsed)
}
