package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
)

// InsightsHandler handles dashboard and aggregation HTTP requests
type InsightsHandler struct {
	insightsService *service.InsightsService
}

// NewInsightsHandler creates a new InsightsHandler
func NewInsightsHandler(insightsService *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{insightsService: insightsService}
}

// Dashboard returns the combined insights payload
func (h *InsightsHandler) Dashboard(c echo.Context) error {
	userID := middleware.GetUserID(c)

	from, to, err := h.parseRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	period := h.parsePeriod(c)

	dashboard, err := h.insightsService.Dashboard(userID, from, to, period)
	if err != nil {
		return h.mapInsightsError(c, err, "dashboard")
	}

	return c.JSON(http.StatusOK, dashboard)
}

// Summary returns period totals
func (h *InsightsHandler) Summary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	from, to, err := h.parseRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	summary, err := h.insightsService.GetSummary(userID, from, to)
	if err != nil {
		return h.mapInsightsError(c, err, "summary")
	}

	return c.JSON(http.StatusOK, summary)
}

// CashFlow returns the signed per-period series
func (h *InsightsHandler) CashFlow(c echo.Context) error {
	userID := middleware.GetUserID(c)

	from, to, err := h.parseRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	period := h.parsePeriod(c)

	series, err := h.insightsService.GetCashFlow(userID, from, to, period)
	if err != nil {
		return h.mapInsightsError(c, err, "cash flow")
	}

	return c.JSON(http.StatusOK, series)
}

// CategoryBreakdown returns per-category totals for one side of the ledger
func (h *InsightsHandler) CategoryBreakdown(c echo.Context) error {
	userID := middleware.GetUserID(c)

	from, to, err := h.parseRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	kind := domain.CategoryType(c.QueryParam("kind"))
	if kind == "" {
		kind = domain.CategoryTypeSpending
	}

	buckets, err := h.insightsService.GetCategoryBreakdown(userID, from, to, kind)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategoryType) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "kind", Message: "Must be one of: income, spending"},
			})
		}
		return h.mapInsightsError(c, err, "category breakdown")
	}

	return c.JSON(http.StatusOK, buckets)
}

// UpcomingPayments returns projected obligation occurrences
func (h *InsightsHandler) UpcomingPayments(c echo.Context) error {
	userID := middleware.GetUserID(c)

	withinDays := 30
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "days", Message: "Must be between 1 and 365"},
			})
		}
		withinDays = parsed
	}

	upcoming, err := h.insightsService.GetUpcomingPayments(userID, withinDays)
	if err != nil {
		return h.mapInsightsError(c, err, "upcoming payments")
	}

	return c.JSON(http.StatusOK, upcoming)
}

// parseRange reads the from/to query parameters, defaulting to the current
// calendar month through today.
func (h *InsightsHandler) parseRange(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	if fromParam, err := parseDateQuery(c, "from"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if fromParam != nil {
		from = *fromParam
	}
	if toParam, err := parseDateQuery(c, "to"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if toParam != nil {
		to = *toParam
	}
	return from, to, nil
}

func (h *InsightsHandler) parsePeriod(c echo.Context) domain.Period {
	if raw := c.QueryParam("period"); raw != "" {
		return domain.Period(raw)
	}
	return domain.PeriodDay
}

func (h *InsightsHandler) mapInsightsError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "to", Message: "Must not be before from"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "period", Message: "Must be one of: day, week, month"},
		})
	}
	return handleUnexpectedError(c, err, action)
}
