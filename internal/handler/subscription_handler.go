package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
)

// SubscriptionHandler handles subscription HTTP requests
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// CreateSubscriptionRequest represents the create subscription request body
type CreateSubscriptionRequest struct {
	Name               string  `json:"name"`
	Amount             string  `json:"amount"`
	Currency           string  `json:"currency"`
	Frequency          string  `json:"frequency"`
	CategoryID         *int32  `json:"categoryId,omitempty"`
	StartDate          string  `json:"startDate"`
	EndDate            *string `json:"endDate,omitempty"`
	AutoRenew          *bool   `json:"autoRenew,omitempty"`
	AutoCreateSpending bool    `json:"autoCreateSpending,omitempty"`
	ReminderLeadDays   *int32  `json:"reminderLeadDays,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// UpdateSubscriptionRequest represents the update subscription request body
type UpdateSubscriptionRequest struct {
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
	AutoRenew          *bool   `json:"autoRenew,omitempty"`
	AutoCreateSpending *bool   `json:"autoCreateSpending,omitempty"`
	ReminderLeadDays   *int32  `json:"reminderLeadDays,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
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
	AutoRenew          bool    `json:"autoRenew"`
	AutoCreateSpending bool    `json:"autoCreateSpending"`
	ReminderLeadDays   int32   `json:"reminderLeadDays"`
	Notes              *string `json:"notes,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// CreateSubscription creates a subscription
func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateSubscriptionRequest
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

	sub, err := h.subscriptionService.CreateSubscription(userID, service.CreateSubscriptionInput{
		Name:               req.Name,
		Amount:             amount,
		Currency:           req.Currency,
		Frequency:          domain.Frequency(req.Frequency),
		CategoryID:         req.CategoryID,
		StartDate:          startDate,
		EndDate:            endDate,
		AutoRenew:          req.AutoRenew,
		AutoCreateSpending: req.AutoCreateSpending,
		ReminderLeadDays:   req.ReminderLeadDays,
		Notes:              req.Notes,
	})
	if err != nil {
		return mapObligationError(c, err, "create subscription")
	}

	return c.JSON(http.StatusCreated, subscriptionToResponse(sub))
}

// GetSubscription retrieves a subscription by ID
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	sub, err := h.subscriptionService.GetSubscription(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "get subscription")
	}

	return c.JSON(http.StatusOK, subscriptionToResponse(sub))
}

// ListSubscriptions lists subscriptions
func (h *SubscriptionHandler) ListSubscriptions(c echo.Context) error {
	userID := middleware.GetUserID(c)

	activeOnly, err := parseActiveQuery(c)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "active", Message: "Must be true or false"},
		})
	}

	subscriptions, err := h.subscriptionService.ListSubscriptions(userID, activeOnly)
	if err != nil {
		return handleUnexpectedError(c, err, "list subscriptions")
	}

	responses := make([]SubscriptionResponse, 0, len(subscriptions))
	for _, sub := range subscriptions {
		responses = append(responses, subscriptionToResponse(sub))
	}
	return c.JSON(http.StatusOK, responses)
}

// UpdateSubscription updates a subscription
func (h *SubscriptionHandler) UpdateSubscription(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	var req UpdateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateSubscriptionInput{
		Name:               req.Name,
		Currency:           req.Currency,
		CategoryID:         req.CategoryID,
		ClearCategory:      req.ClearCategory,
		ClearEndDate:       req.ClearEndDate,
		IsActive:           req.IsActive,
		AutoRenew:          req.AutoRenew,
		AutoCreateSpending: req.AutoCreateSpending,
		ReminderLeadDays:   req.ReminderLeadDays,
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

	sub, err := h.subscriptionService.UpdateSubscription(userID, id, input)
	if err != nil {
		return mapObligationError(c, err, "update subscription")
	}

	return c.JSON(http.StatusOK, subscriptionToResponse(sub))
}

// DeleteSubscription removes a subscription
func (h *SubscriptionHandler) DeleteSubscription(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	if err := h.subscriptionService.DeleteSubscription(userID, id); err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "delete subscription")
	}

	return c.NoContent(http.StatusNoContent)
}

// RecordPayment records a payment against a subscription
func (h *SubscriptionHandler) RecordPayment(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	input, err := bindPaymentInput(c)
	if err != nil {
		return err
	}

	payment, err := h.subscriptionService.RecordPayment(userID, id, *input)
	if err != nil {
		return mapObligationError(c, err, "record subscription payment")
	}

	return c.JSON(http.StatusCreated, paymentToResponse(payment))
}

// ListPayments lists the payment history of a subscription
func (h *SubscriptionHandler) ListPayments(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	payments, err := h.subscriptionService.ListPayments(userID, id)
	if err != nil {
		if detail := notFoundDetail(err); detail != "" {
			return NewNotFoundError(c, detail)
		}
		return handleUnexpectedError(c, err, "list subscription payments")
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		responses = append(responses, paymentToResponse(payment))
	}
	return c.JSON(http.StatusOK, responses)
}

func subscriptionToResponse(sub *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 sub.ID,
		Name:               sub.Name,
		Amount:             sub.Amount.String(),
		Currency:           sub.Currency,
		Frequency:          string(sub.Frequency),
		CategoryID:         sub.CategoryID,
		StartDate:          sub.StartDate.Format("2006-01-02"),
		EndDate:            formatDatePtr(sub.EndDate),
		NextDueDate:        formatDatePtr(sub.NextDueDate),
		IsActive:           sub.IsActive,
		AutoRenew:          sub.AutoRenew,
		AutoCreateSpending: sub.AutoCreateSpending,
		ReminderLeadDays:   sub.ReminderLeadDays,
		Notes:              sub.Notes,
		CreatedAt:          sub.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          sub.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
