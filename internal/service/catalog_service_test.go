package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
)

func newCatalogService() (*CatalogService, *testutil.MockCategoryRepository, uuid.UUID) {
	serviceRepo := testutil.NewMockServiceRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	publisher := testutil.NewMockPublisher()
	return NewCatalogService(serviceRepo, categoryRepo, publisher), categoryRepo, uuid.New()
}

func TestCreateService_DefaultsActive(t *testing.T) {
	svc, _, userID := newCatalogService()

	created, err := svc.CreateService(userID, CreateServiceInput{
		Name:         "Haircut",
		DefaultPrice: mustDec("25.00"),
	})
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}
	if !created.IsActive {
		t.Error("IsActive = false, want default true")
	}
}

func TestCreateService_Validation(t *testing.T) {
	svc, _, userID := newCatalogService()
	missing := int32(42)

	tests := []struct {
		name    string
		input   CreateServiceInput
		wantErr error
	}{
		{"empty name", CreateServiceInput{Name: "  ", DefaultPrice: mustDec("10.00")}, domain.ErrNameRequired},
		{"zero price", CreateServiceInput{Name: "Haircut"}, domain.ErrInvalidPrice},
		{"missing category", CreateServiceInput{Name: "Haircut", DefaultPrice: mustDec("10.00"), CategoryID: &missing}, domain.ErrCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateService(userID, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateService() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateService_RejectsSpendingCategory(t *testing.T) {
	svc, categoryRepo, userID := newCatalogService()
	category, err := categoryRepo.Create(&domain.Category{UserID: userID, Name: "Supplies", Type: domain.CategoryTypeSpending})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.CreateService(userID, CreateServiceInput{
		Name:         "Haircut",
		DefaultPrice: mustDec("25.00"),
		CategoryID:   &category.ID,
	})
	if !errors.Is(err, domain.ErrCategoryTypeMismatch) {
		t.Errorf("CreateService() error = %v, want ErrCategoryTypeMismatch", err)
	}
}

func TestUpdateService_Deactivate(t *testing.T) {
	svc, _, userID := newCatalogService()
	created, err := svc.CreateService(userID, CreateServiceInput{Name: "Haircut", DefaultPrice: mustDec("25.00")})
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}

	inactive := false
	updated, err := svc.UpdateService(userID, created.ID, UpdateServiceInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateService() error = %v", err)
	}
	if updated.IsActive {
		t.Error("IsActive = true, want false after deactivation")
	}
}

func TestListServices_ActiveFilter(t *testing.T) {
	svc, _, userID := newCatalogService()
	inactive := false

	if _, err := svc.CreateService(userID, CreateServiceInput{Name: "Haircut", DefaultPrice: mustDec("25.00")}); err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}
	if _, err := svc.CreateService(userID, CreateServiceInput{Name: "Perm", DefaultPrice: mustDec("60.00"), IsActive: &inactive}); err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}

	active := true
	services, err := svc.ListServices(userID, &active)
	if err != nil {
		t.Fatalf("ListServices() error = %v", err)
	}
	if len(services) != 1 || services[0].Name != "Haircut" {
		t.Errorf("ListServices(active) = %v, want only Haircut", services)
	}

	all, err := svc.ListServices(userID, nil)
	if err != nil {
		t.Fatalf("ListServices() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListServices(nil) returned %d entries, want 2", len(all))
	}
}
