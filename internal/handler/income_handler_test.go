package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/service"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
)

// newAuthedContext builds an echo context carrying an authenticated user,
// the way the auth middleware leaves it for handlers.
func newAuthedContext(t *testing.T, method, target string, body interface{}, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctx := context.WithValue(c.Request().Context(), middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
	return c, rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("unmarshal problem response: %v", err)
	}
	return problem
}

func firstErrorField(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	problem := decodeProblem(t, rec)
	if len(problem.Errors) == 0 {
		t.Fatalf("problem response has no field errors: %s", rec.Body.String())
	}
	return problem.Errors[0].Field
}

func amountEqual(t *testing.T, got, want string) {
	t.Helper()
	gotDec, err := decimal.NewFromString(got)
	if err != nil {
		t.Fatalf("parse amount %q: %v", got, err)
	}
	wantDec, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("parse amount %q: %v", want, err)
	}
	if !gotDec.Equal(wantDec) {
		t.Errorf("amount = %s, want %s", got, want)
	}
}

func setupIncomeHandler() (*IncomeHandler, *testutil.MockIncomeRepository, *testutil.MockCategoryRepository) {
	incomeRepo := testutil.NewMockIncomeRepository()
	serviceRepo := testutil.NewMockServiceRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	svc := service.NewIncomeService(incomeRepo, serviceRepo, categoryRepo, testutil.NewMockPublisher())
	return NewIncomeHandler(svc), incomeRepo, categoryRepo
}

func TestCreateIncomeHandler(t *testing.T) {
	h, _, _ := setupIncomeHandler()
	userID := uuid.New()

	date := "2026-01-15"
	discount := "5.50"
	c, rec := newAuthedContext(t, http.MethodPost, "/api/v1/income", CreateIncomeRequest{
		Date:          &date,
		Price:         "50.00",
		Discount:      &discount,
		PaymentMethod: "cash",
	}, userID)

	if err := h.CreateIncome(c); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp IncomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Date != "2026-01-15" {
		t.Errorf("date = %q, want 2026-01-15", resp.Date)
	}
	amountEqual(t, resp.TotalReceived, "44.50")
}

func TestCreateIncomeHandler_InvalidPriceString(t *testing.T) {
	h, _, _ := setupIncomeHandler()

	c, rec := newAuthedContext(t, http.MethodPost, "/api/v1/income", CreateIncomeRequest{
		Price:         "not-a-number",
		PaymentMethod: "cash",
	}, uuid.New())

	if err := h.CreateIncome(c); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if field := firstErrorField(t, rec); field != "price" {
		t.Errorf("error field = %q, want price", field)
	}
}

func TestCreateIncomeHandler_DiscountExceedsPrice(t *testing.T) {
	h, _, _ := setupIncomeHandler()

	discount := "20.00"
	c, rec := newAuthedContext(t, http.MethodPost, "/api/v1/income", CreateIncomeRequest{
		Price:         "10.00",
		Discount:      &discount,
		PaymentMethod: "cash",
	}, uuid.New())

	if err := h.CreateIncome(c); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if field := firstErrorField(t, rec); field != "discount" {
		t.Errorf("error field = %q, want discount", field)
	}
}

func TestCreateIncomeHandler_IncomeCategoryRequired(t *testing.T) {
	h, _, categoryRepo := setupIncomeHandler()
	userID := uuid.New()

	category, err := categoryRepo.Create(&domain.Category{
		UserID: userID,
		Name:   "Supplies",
		Type:   domain.CategoryTypeSpending,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	c, rec := newAuthedContext(t, http.MethodPost, "/api/v1/income", CreateIncomeRequest{
		CategoryID:    &category.ID,
		Price:         "50.00",
		PaymentMethod: "cash",
	}, userID)

	if err := h.CreateIncome(c); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if field := firstErrorField(t, rec); field != "categoryId" {
		t.Errorf("error field = %q, want categoryId", field)
	}
}

func TestGetIncomeHandler_NotFound(t *testing.T) {
	h, _, _ := setupIncomeHandler()

	c, rec := newAuthedContext(t, http.MethodGet, "/api/v1/income/99", nil, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := h.GetIncome(c); err != nil {
		t.Fatalf("GetIncome() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/problem+json" {
		t.Errorf("content type = %q, want application/problem+json", ct)
	}
}

func TestListIncomeHandler_Pagination(t *testing.T) {
	h, incomeRepo, _ := setupIncomeHandler()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := incomeRepo.Create(&domain.IncomeTransaction{
			UserID:        userID,
			Date:          time.Date(2026, time.January, 10+i, 0, 0, 0, 0, time.UTC),
			Price:         decimal.NewFromInt(100),
			TotalReceived: decimal.NewFromInt(100),
			PaymentMethod: domain.PaymentMethodCard,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	c, rec := newAuthedContext(t, http.MethodGet, "/api/v1/income?page=1&pageSize=2", nil, userID)
	if err := h.ListIncome(c); err != nil {
		t.Fatalf("ListIncome() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp PaginatedIncomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("page contains %d items, want 2", len(resp.Data))
	}
	if resp.TotalItems != 3 || resp.TotalPages != 2 {
		t.Errorf("totals = (%d items, %d pages), want (3, 2)", resp.TotalItems, resp.TotalPages)
	}
}

func TestListIncomeHandler_InvertedRange(t *testing.T) {
	h, _, _ := setupIncomeHandler()

	c, rec := newAuthedContext(t, http.MethodGet, "/api/v1/income?startDate=2026-03-01&endDate=2026-01-01", nil, uuid.New())
	if err := h.ListIncome(c); err != nil {
		t.Fatalf("ListIncome() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if field := firstErrorField(t, rec); field != "endDate" {
		t.Errorf("error field = %q, want endDate", field)
	}
}

func TestDeleteIncomeHandler(t *testing.T) {
	h, incomeRepo, _ := setupIncomeHandler()
	userID := uuid.New()

	tx, err := incomeRepo.Create(&domain.IncomeTransaction{
		UserID:        userID,
		Date:          time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Price:         decimal.NewFromInt(100),
		TotalReceived: decimal.NewFromInt(100),
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	id := strconv.Itoa(int(tx.ID))
	c, rec := newAuthedContext(t, http.MethodDelete, "/api/v1/income/"+id, nil, userID)
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h.DeleteIncome(c); err != nil {
		t.Fatalf("DeleteIncome() error = %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if _, ok := incomeRepo.Transactions[tx.ID]; ok {
		t.Error("transaction still present after delete")
	}
}
