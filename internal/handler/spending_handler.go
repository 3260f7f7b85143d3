package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
)

// SpendingHandler handles spending transaction HTTP requests, including
// receipt attachments
type SpendingHandler struct {
	spendingService *service.SpendingService
	receiptService  *service.ReceiptService
}

// NewSpendingHandler creates a new SpendingHandler
func NewSpendingHandler(spendingService *service.SpendingService, receiptService *service.ReceiptService) *SpendingHandler {
	return &SpendingHandler{
		spendingService: spendingService,
		receiptService:  receiptService,
	}
}

// CreateSpendingRequest represents the create spending request body
type CreateSpendingRequest struct {
	Date          *string `json:"date,omitempty"`
	Description   string  `json:"description"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	Amount        string  `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateSpendingRequest represents the update spending request body
type UpdateSpendingRequest struct {
	Date          *string `json:"date,omitempty"`
	Description   *string `json:"description,omitempty"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	ClearCategory bool    `json:"clearCategory,omitempty"`
	Amount        *string `json:"amount,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// SpendingResponse represents a spending transaction in API responses
type SpendingResponse struct {
	ID            int32   `json:"id"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	CategoryID    *int32  `json:"categoryId,omitempty"`
	Amount        string  `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         *string `json:"notes,omitempty"`
	HasReceipt    bool    `json:"hasReceipt"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// PaginatedSpendingResponse represents a page of spending transactions
type PaginatedSpendingResponse struct {
	Data       []SpendingResponse `json:"data"`
	Page       int32              `json:"page"`
	PageSize   int32              `json:"pageSize"`
	TotalItems int64              `json:"totalItems"`
	TotalPages int32              `json:"totalPages"`
}

// ReceiptURLResponse carries the short-lived receipt download URL
type ReceiptURLResponse struct {
	URL string `json:"url"`
}

// CreateSpending records a new spending transaction
func (h *SpendingHandler) CreateSpending(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateSpendingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	date, err := parseDateField(req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	tx, err := h.spendingService.CreateSpending(userID, service.CreateSpendingInput{
		Date:          date,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Amount:        amount,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		return h.mapSpendingError(c, err, "create spending")
	}

	return c.JSON(http.StatusCreated, spendingToResponse(tx))
}

// GetSpending retrieves a spending transaction by ID
func (h *SpendingHandler) GetSpending(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid spending ID", nil)
	}

	tx, err := h.spendingService.GetSpending(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "get spending")
	}

	return c.JSON(http.StatusOK, spendingToResponse(tx))
}

// ListSpending lists spending transactions with filters and pagination
func (h *SpendingHandler) ListSpending(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filters := &domain.SpendingFilters{}
	var err error
	if filters.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	if filters.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	if raw := c.QueryParam("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return NewValidationError(c, "Invalid categoryId", nil)
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

	page, err := h.spendingService.ListSpending(userID, filters)
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
		return handleUnexpectedError(c, err, "list spending")
	}

	responses := make([]SpendingResponse, 0, len(page.Data))
	for _, tx := range page.Data {
		responses = append(responses, spendingToResponse(tx))
	}
	return c.JSON(http.StatusOK, PaginatedSpendingResponse{
		Data:       responses,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// UpdateSpending updates a spending transaction
func (h *SpendingHandler) UpdateSpending(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid spending ID", nil)
	}

	var req UpdateSpendingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateSpendingInput{
		Description:   req.Description,
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

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}
	if req.PaymentMethod != nil {
		method := domain.PaymentMethod(*req.PaymentMethod)
		input.PaymentMethod = &method
	}

	tx, err := h.spendingService.UpdateSpending(userID, id, input)
	if err != nil {
		return h.mapSpendingError(c, err, "update spending")
	}

	return c.JSON(http.StatusOK, spendingToResponse(tx))
}

// DeleteSpending removes a spending transaction
func (h *SpendingHandler) DeleteSpending(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid spending ID", nil)
	}

	if err := h.spendingService.DeleteSpending(userID, id); err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "delete spending")
	}

	return c.NoContent(http.StatusNoContent)
}

// UploadReceipt attaches a receipt file to a spending transaction
func (h *SpendingHandler) UploadReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid spending ID", nil)
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "receipt", Message: "Receipt file is required"},
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return handleUnexpectedError(c, err, "open receipt upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxReceiptSize+1))
	if err != nil {
		return handleUnexpectedError(c, err, "read receipt upload")
	}

	tx, err := h.receiptService.AttachReceipt(c.Request().Context(), userID, id, data, fileHeader.Filename)
	if err != nil {
		return h.mapReceiptError(c, err, "upload receipt")
	}

	return c.JSON(http.StatusOK, spendingToResponse(tx))
}

// GetReceiptURL returns a short-lived download URL for the receipt
func (h *SpendingHandler) GetReceiptURL(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid spending ID", nil)
	}

	url, err := h.receiptService.GetReceiptURL(c.Request().Context(), userID, id)
	if err != nil {
		return h.mapReceiptError(c, err, "get receipt url")
	}

	return c.JSON(http.StatusOK, ReceiptURLResponse{URL: url})
}

// DeleteReceipt detaches and deletes the receipt
func (h *SpendingHandler) DeleteReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid spending ID", nil)
	}

	tx, err := h.receiptService.RemoveReceipt(c.Request().Context(), userID, id)
	if err != nil {
		return h.mapReceiptError(c, err, "delete receipt")
	}

	return c.JSON(http.StatusOK, spendingToResponse(tx))
}

func (h *SpendingHandler) mapSpendingError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrDescriptionRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 1000 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paymentMethod", Message: "Must be one of: cash, card, bank_transfer, paypal, other"},
		})
	case errors.Is(err, domain.ErrNotesTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "notes", Message: "Notes must be 1000 characters or less"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrCategoryTypeMismatch):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category must be a spending category"},
		})
	}
	if detail := notFoundDetail(err); detail != "" {
		return NewNotFoundError(c, detail)
	}
	return handleUnexpectedError(c, err, action)
}

func (h *SpendingHandler) mapReceiptError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrReceiptTooLarge):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "receipt", Message: "File too large. Maximum size is 10MB"},
		})
	case errors.Is(err, service.ErrInvalidReceiptFormat):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "receipt", Message: "Invalid format. Supported: JPEG, PNG, PDF"},
		})
	case errors.Is(err, service.ErrInvalidReceiptData):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "receipt", Message: "File is not a valid image"},
		})
	case errors.Is(err, service.ErrNoReceipt):
		return NewNotFoundError(c, "Spending transaction has no receipt")
	case errors.Is(err, service.ErrStorageNotConfigured):
		return NewInternalError(c, "Receipt storage is not configured")
	}
	if detail := notFoundDetail(err); detail != "" {
		return NewNotFoundError(c, detail)
	}
	return handleUnexpectedError(c, err, action)
}

func spendingToResponse(tx *domain.SpendingTransaction) SpendingResponse {
	return SpendingResponse{
		ID:            tx.ID,
		Date:          tx.Date.Format("2006-01-02"),
		Description:   tx.Description,
		CategoryID:    tx.CategoryID,
		Amount:        tx.Amount.String(),
		PaymentMethod: string(tx.PaymentMethod),
		Notes:         tx.Notes,
		HasReceipt:    tx.ReceiptPath != nil,
		CreatedAt:     tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     tx.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
