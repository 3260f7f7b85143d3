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

// RecurringHandler handles recurring expense HTTP requests
type RecurringHandler struct {
	recurringService *service.RecurringService
}

// NewRecurringHandler creates a new RecurringHandler
func NewRecurringHandler(recurringService *service.RecurringService) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// CreateRecurringRequest represents the create recurring expense request body
type CreateRecurringRequest struct {
	Name               string  `json:"name"`
	Amount             string  `json:"amount"`
	Currency           string  `json:"currency"`
	Frequency          string  `json:"frequency"`
	CategoryID         *int32  `json:"categoryId,omitempty"`
	StartDate          string  `json:"startDate"`
	EndDate            *string `json:"endDate,omitempty"`
	AutoCreateSpending bool    `json:"autoCreateSpending,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// UpdateRecurringRequest represents the update recurring expense request body
type UpdateRecurringRequest struct {
	Name               *string `json:"name,omitempty"`
	Amount             *string `json:"amount,omitempty"`
	Currency           *string `json:"currency,omitempty"`
	Frequency          *string `json:"frequency,omitempty"`
	CategoryID         *int32  `json:"categoryId,omitempty"`
	ClearCategory      bool    `json:"clearCategory,omitempty"`
	StartDate          *string `json:"startDate,omitempty"`
	EndDate            *string `json:"endDate,omitempty"`
	ClearEndDate       bool    `json:"clearEndDate,omitempty"`
	IsActive           *bool   `json:"isActive,omitempty"`
	AutoCreateSpending *bool   `json:"autoCreateSpending,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// RecordPaymentRequest represents the record payment request body
type RecordPaymentRequest struct {
	PaidAt *string `json:"paidAt,omitempty"`
	Amount *string `json:"amount,omitempty"`
}

// RecurringResponse represents a recurring expense in API responses
type RecurringResponse struct {
	ID                 int32   `json:"id"`
	Name               string  `json:"name"`
	Amount             string  `json:"amount"`
	Currency           string  `json:"currency"`
	Frequency          string  `json:"frequency"`
	CategoryID         *int32  `json:"categoryId,omitempty"`
	StartDate          string  `json:"startDate"`
	EndDate            *string `json:"endDate,omitempty"`
	NextDueDate        *string `json:"nextDueDate,omitempty"`
	IsActive           bool    `json:"isActive"`
	AutoCreateSpending bool    `json:"autoCreateSpending"`
	Notes              *string `json:"notes,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// PaymentResponse represents a recorded payment in API responses
type PaymentResponse struct {
	ID             int32  `json:"id"`
	ObligationKind string `json:"obligationKind"`
	ObligationID   int32  `json:"obligationId"`
	PaidAt         string `json:"paidAt"`
	Amount         string `json:"amount"`
	SpendingID     *int32 `json:"spendingId,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// CreateRecurring creates a recurring expense
func (h *RecurringHandler) CreateRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateRecurringRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	endDate, err := parseDateField(req.EndDate)
	if err != nil {
		return NewValidationError(c, "Invalid endDate", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	re, err := h.recurringService.CreateRecurring(userID, service.CreateRecurringInput{
		Name:               req.Name,
		Amount:             amount,
		Currency:           req.Currency,
		Frequency:          domain.Frequency(req.Frequency),
		CategoryID:         req.CategoryID,
		StartDate:          startDate,
		EndDate:            endDate,
		AutoCreateSpending: req.AutoCreateSpending,
		Notes:              req.Notes,
	})
	if err != nil {
		return mapObligationError(c, err, "create recurring expense")
	}

	return c.JSON(http.StatusCreated, recurringToResponse(re))
}

// GetRecurring retrieves a recurring expense by ID
func (h *RecurringHandler) GetRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid recurring expense ID", nil)
	}

	re, err := h.recurringService.GetRecurring(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "get recurring expense")
	}

	return c.JSON(http.StatusOK, recurringToResponse(re))
}

// ListRecurring lists recurring expenses
func (h *RecurringHandler) ListRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)

	activeOnly, err := parseActiveQuery(c)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "active", Message: "Must be true or false"},
		})
	}

	expenses, err := h.recurringService.ListRecurring(userID, activeOnly)
	if err != nil {
		return handleUnexpectedError(c, err, "list recurring expenses")
	}

	responses := make([]RecurringResponse, 0, len(expenses))
	for _, re := range expenses {
		responses = append(responses, recurringToResponse(re))
	}
	return c.JSON(http.StatusOK, responses)
}

// UpdateRecurring updates a recurring expense
func (h *RecurringHandler) UpdateRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid recurring expense ID", nil)
	}

	var req UpdateRecurringRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateRecurringInput{
		Name:               req.Name,
		Currency:           req.Currency,
		CategoryID:         req.CategoryID,
		ClearCategory:      req.ClearCategory,
		ClearEndDate:       req.ClearEndDate,
		IsActive:           req.IsActive,
		AutoCreateSpending: req.AutoCreateSpending,
		Notes:              req.Notes,
	}

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}
	if req.Frequency != nil {
		freq := domain.Frequency(*req.Frequency)
		input.Frequency = &freq
	}

	startDate, err := parseDateField(req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	input.StartDate = startDate

	endDate, err := parseDateField(req.EndDate)
	if err != nil {
		return NewValidationError(c, "Invalid endDate", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	input.EndDate = endDate

	re, err := h.recurringService.UpdateRecurring(userID, id, input)
	if err != nil {
		return mapObligationError(c, err, "update recurring expense")
	}

	return c.JSON(http.StatusOK, recurringToResponse(re))
}

// DeleteRecurring removes a recurring expense
func (h *RecurringHandler) DeleteRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid recurring expense ID", nil)
	}

	if err := h.recurringService.DeleteRecurring(userID, id); err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "delete recurring expense")
	}

	return c.NoContent(http.StatusNoContent)
}

// RecordPayment records a payment against a recurring expense
func (h *RecurringHandler) RecordPayment(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid recurring expense ID", nil)
	}

	input, err := bindPaymentInput(c)
	if err != nil {
		return err
	}

	payment, err := h.recurringService.RecordPayment(userID, id, *input)
	if err != nil {
		return mapObligationError(c, err, "record recurring payment")
	}

	return c.JSON(http.StatusCreated, paymentToResponse(payment))
}

// ListPayments lists the payment history of a recurring expense
func (h *RecurringHandler) ListPayments(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid recurring expense ID", nil)
	}

	payments, err := h.recurringService.ListPayments(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "list recurring payments")
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		responses = append(responses, paymentToResponse(payment))
	}
	return c.JSON(http.StatusOK, responses)
}

// bindPaymentInput binds and validates the record-payment body
func bindPaymentInput(c echo.Context) (*service.RecordPaymentInput, error) {
	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewValidationError(c, "Invalid request body", nil)
	}

	input := &service.RecordPaymentInput{}

	paidAt, err := parseDateField(req.PaidAt)
	if err != nil {
		return nil, NewValidationError(c, "Invalid paidAt", []ValidationError{
			{Field: "paidAt", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	input.PaidAt = paidAt

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return nil, NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}
	return input, nil
}

// mapObligationError maps recurring/subscription service errors to problem
// responses. Shared by both handlers since the validation surface is the same.
func mapObligationError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Must be a three-letter currency code"},
		})
	case errors.Is(err, domain.ErrInvalidFrequency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "frequency", Message: "Must be one of: weekly, biweekly, monthly, quarterly, yearly"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "Must not be before startDate"},
		})
	case errors.Is(err, domain.ErrInvalidReminderLead):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "reminderLeadDays", Message: "Must not be negative"},
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
	case errors.Is(err, domain.ErrObligationInactive):
		return NewConflictError(c, "Obligation is not active")
	case errors.Is(err, domain.ErrPaymentBeforeDue):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paidAt", Message: "Must not be before the current due date"},
		})
	}
	if detail := notFoundDetail(err); detail != "" {
		return NewNotFoundError(c, detail)
	}
	return handleUnexpectedError(c, err, action)
}

// parseActiveQuery parses the optional ?active= filter
func parseActiveQuery(c echo.Context) (*bool, error) {
	raw := c.QueryParam("active")
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func recurringToResponse(re *domain.RecurringExpense) RecurringResponse {
	return RecurringResponse{
		ID:                 re.ID,
		Name:               re.Name,
		Amount:             re.Amount.String(),
		Currency:           re.Currency,
		Frequency:          string(re.Frequency),
		CategoryID:         re.CategoryID,
		StartDate:          re.StartDate.Format("2006-01-02"),
		EndDate:            formatDatePtr(re.EndDate),
		NextDueDate:        formatDatePtr(re.NextDueDate),
		IsActive:           re.IsActive,
		AutoCreateSpending: re.AutoCreateSpending,
		Notes:              re.Notes,
		CreatedAt:          re.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          re.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func paymentToResponse(payment *domain.RecurringPayment) PaymentResponse {
	return PaymentResponse{
		ID:             payment.ID,
		ObligationKind: string(payment.ObligationKind),
		ObligationID:   payment.ObligationID,
		PaidAt:         payment.PaidAt.Format("2006-01-02"),
		Amount:         payment.Amount.String(),
		SpendingID:     payment.SpendingID,
		CreatedAt:      payment.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format("2006-01-02")
	return &formatted
}
