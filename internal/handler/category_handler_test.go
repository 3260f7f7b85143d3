package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/service"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
)

func setupCategoryHandler() (*CategoryHandler, *testutil.MockCategoryRepository) {
	categoryRepo := testutil.NewMockCategoryRepository()
	svc := service.NewCategoryService(categoryRepo, testutil.NewMockPublisher())
	return NewCategoryHandler(svc), categoryRepo
}

func TestCreateCategoryHandler(t *testing.T) {
	h, _ := setupCategoryHandler()

	c, rec := newAuthedContext(t, http.MethodPost, "/api/v1/categories", CreateCategoryRequest{
		Name: "  Haircuts  ",
		Type: "income",
	}, uuid.New())

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp CategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Name != "Haircuts" {
		t.Errorf("name = %q, want trimmed Haircuts", resp.Name)
	}
	if resp.Type != "income" {
		t.Errorf("type = %q, want income", resp.Type)
	}
}

func TestCreateCategoryHandler_InvalidType(t *testing.T) {
	h, _ := setupCategoryHandler()

	c, rec := newAuthedContext(t, http.MethodPost, "/api/v1/categories", CreateCategoryRequest{
		Name: "Misc",
		Type: "expense",
	}, uuid.New())

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if field := firstErrorField(t, rec); field != "type" {
		t.Errorf("error field = %q, want type", field)
	}
}

func TestListCategoriesHandler_TypeFilter(t *testing.T) {
	h, categoryRepo := setupCategoryHandler()
	userID := uuid.New()

	seed := []*domain.Category{
		{UserID: userID, Name: "Haircuts", Type: domain.CategoryTypeIncome},
		{UserID: userID, Name: "Supplies", Type: domain.CategoryTypeSpending},
	}
	for _, category := range seed {
		if _, err := categoryRepo.Create(category); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	c, rec := newAuthedContext(t, http.MethodGet, "/api/v1/categories?type=spending", nil, userID)
	if err := h.ListCategories(c); err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp []CategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "Supplies" {
		t.Errorf("filtered list = %+v, want only Supplies", resp)
	}
}

func TestUpdateCategoryHandler_NotFound(t *testing.T) {
	h, _ := setupCategoryHandler()

	c, rec := newAuthedContext(t, http.MethodPut, "/api/v1/categories/42", UpdateCategoryRequest{Name: "Renamed"}, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.UpdateCategory(c); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteCategoryHandler_InUse(t *testing.T) {
	h, categoryRepo := setupCategoryHandler()
	userID := uuid.New()

	category, err := categoryRepo.Create(&domain.Category{
		UserID: userID,
		Name:   "Supplies",
		Type:   domain.CategoryTypeSpending,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	categoryRepo.References[category.ID] = 3

	id := strconv.Itoa(int(category.ID))
	c, rec := newAuthedContext(t, http.MethodDelete, "/api/v1/categories/"+id, nil, userID)
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h.DeleteCategory(c); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if _, ok := categoryRepo.Categories[category.ID]; !ok {
		t.Error("referenced category was deleted, want kept")
	}
}

func TestDeleteCategoryHandler(t *testing.T) {
	h, categoryRepo := setupCategoryHandler()
	userID := uuid.New()

	category, err := categoryRepo.Create(&domain.Category{
		UserID: userID,
		Name:   "Supplies",
		Type:   domain.CategoryTypeSpending,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	id := strconv.Itoa(int(category.ID))
	c, rec := newAuthedContext(t, http.MethodDelete, "/api/v1/categories/"+id, nil, userID)
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h.DeleteCategory(c); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
