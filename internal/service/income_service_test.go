package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
)

type incomeFixture struct {
	svc          *IncomeService
	incomeRepo   *testutil.MockIncomeRepository
	serviceRepo  *testutil.MockServiceRepository
	categoryRepo *testutil.MockCategoryRepository
	publisher    *testutil.MockPublisher
	userID       uuid.UUID
}

func newIncomeFixture() *incomeFixture {
	incomeRepo := testutil.NewMockIncomeRepository()
	serviceRepo := testutil.NewMockServiceRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	publisher := testutil.NewMockPublisher()
	return &incomeFixture{
		svc:          NewIncomeService(incomeRepo, serviceRepo, categoryRepo, publisher),
		incomeRepo:   incomeRepo,
		serviceRepo:  serviceRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
		userID:       uuid.New(),
	}
}

func decPtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func mustDec(s string) decimal.Decimal {
	return *decPtr(s)
}

func TestCreateIncome_ComputesTotal(t *testing.T) {
	f := newIncomeFixture()

	created, err := f.svc.CreateIncome(f.userID, CreateIncomeInput{
		Price:         mustDec("50.00"),
		Discount:      decPtr("5.50"),
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if !created.TotalReceived.Equal(mustDec("44.50")) {
		t.Errorf("TotalReceived = %s, want 44.50", created.TotalReceived)
	}
	if len(f.publisher.Events) != 1 || f.publisher.Events[0].Type != "income.created" {
		t.Errorf("published events = %v, want one income.created", f.publisher.Events)
	}
}

func TestCreateIncome_DefaultsDateAndDiscount(t *testing.T) {
	f := newIncomeFixture()

	created, err := f.svc.CreateIncome(f.userID, CreateIncomeInput{
		Price:         mustDec("30.00"),
		PaymentMethod: domain.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if !created.Discount.IsZero() {
		t.Errorf("Discount = %s, want 0", created.Discount)
	}
	if !created.TotalReceived.Equal(mustDec("30.00")) {
		t.Errorf("TotalReceived = %s, want 30.00", created.TotalReceived)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !created.Date.Equal(today) {
		t.Errorf("Date = %v, want today %v", created.Date, today)
	}
}

func TestCreateIncome_Validation(t *testing.T) {
	f := newIncomeFixture()
	missingService := int32(99)
	missingCategory := int32(99)

	tests := []struct {
		name    string
		input   CreateIncomeInput
		wantErr error
	}{
		{
			name:    "zero price",
			input:   CreateIncomeInput{Price: decimal.Zero, PaymentMethod: domain.PaymentMethodCash},
			wantErr: domain.ErrInvalidPrice,
		},
		{
			name:    "negative discount",
			input:   CreateIncomeInput{Price: mustDec("10.00"), Discount: decPtr("-1.00"), PaymentMethod: domain.PaymentMethodCash},
			wantErr: domain.ErrInvalidDiscount,
		},
		{
			name:    "discount above price",
			input:   CreateIncomeInput{Price: mustDec("10.00"), Discount: decPtr("10.01"), PaymentMethod: domain.PaymentMethodCash},
			wantErr: domain.ErrInvalidDiscount,
		},
		{
			name:    "unknown payment method",
			input:   CreateIncomeInput{Price: mustDec("10.00"), PaymentMethod: domain.PaymentMethod("crypto")},
			wantErr: domain.ErrInvalidPaymentMethod,
		},
		{
			name:    "missing service reference",
			input:   CreateIncomeInput{Price: mustDec("10.00"), PaymentMethod: domain.PaymentMethodCash, ServiceID: &missingService},
			wantErr: domain.ErrServiceNotFound,
		},
		{
			name:    "missing category reference",
			input:   CreateIncomeInput{Price: mustDec("10.00"), PaymentMethod: domain.PaymentMethodCash, CategoryID: &missingCategory},
			wantErr: domain.ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateIncome(f.userID, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateIncome() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateIncome_RejectsSpendingCategory(t *testing.T) {
	f := newIncomeFixture()
	category, err := f.categoryRepo.Create(&domain.Category{UserID: f.userID, Name: "Supplies", Type: domain.CategoryTypeSpending})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = f.svc.CreateIncome(f.userID, CreateIncomeInput{
		Price:         mustDec("10.00"),
		PaymentMethod: domain.PaymentMethodCash,
		CategoryID:    &category.ID,
	})
	if !errors.Is(err, domain.ErrCategoryTypeMismatch) {
		t.Errorf("CreateIncome() error = %v, want ErrCategoryTypeMismatch", err)
	}
}

func TestUpdateIncome_RevalidatesDiscountAgainstNewPrice(t *testing.T) {
	f := newIncomeFixture()
	created, err := f.svc.CreateIncome(f.userID, CreateIncomeInput{
		Price:         mustDec("50.00"),
		Discount:      decPtr("20.00"),
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}

	// Lowering the price below the existing discount must fail.
	_, err = f.svc.UpdateIncome(f.userID, created.ID, UpdateIncomeInput{Price: decPtr("15.00")})
	if !errors.Is(err, domain.ErrInvalidDiscount) {
		t.Errorf("UpdateIncome() error = %v, want ErrInvalidDiscount", err)
	}

	// Lowering both together is fine, and the total is recomputed.
	updated, err := f.svc.UpdateIncome(f.userID, created.ID, UpdateIncomeInput{
		Price:    decPtr("15.00"),
		Discount: decPtr("5.00"),
	})
	if err != nil {
		t.Fatalf("UpdateIncome() error = %v", err)
	}
	if !updated.TotalReceived.Equal(mustDec("10.00")) {
		t.Errorf("TotalReceived = %s, want 10.00", updated.TotalReceived)
	}
}

func TestUpdateIncome_ClearService(t *testing.T) {
	f := newIncomeFixture()
	svcRow, err := f.serviceRepo.Create(&domain.Service{UserID: f.userID, Name: "Haircut", DefaultPrice: mustDec("25.00"), IsActive: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	created, err := f.svc.CreateIncome(f.userID, CreateIncomeInput{
		Price:         mustDec("25.00"),
		PaymentMethod: domain.PaymentMethodCash,
		ServiceID:     &svcRow.ID,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}

	updated, err := f.svc.UpdateIncome(f.userID, created.ID, UpdateIncomeInput{ClearService: true})
	if err != nil {
		t.Fatalf("UpdateIncome() error = %v", err)
	}
	if updated.ServiceID != nil {
		t.Errorf("ServiceID = %v, want nil", updated.ServiceID)
	}
}

func TestListIncome_NormalizesPagination(t *testing.T) {
	f := newIncomeFixture()
	for i := 0; i < 3; i++ {
		if _, err := f.svc.CreateIncome(f.userID, CreateIncomeInput{
			Price:         mustDec("10.00"),
			PaymentMethod: domain.PaymentMethodCash,
		}); err != nil {
			t.Fatalf("CreateIncome() error = %v", err)
		}
	}

	page, err := f.svc.ListIncome(f.userID, &domain.IncomeFilters{Page: 0, PageSize: 0})
	if err != nil {
		t.Fatalf("ListIncome() error = %v", err)
	}
	if page.Page != 1 || page.PageSize != domain.DefaultPageSize {
		t.Errorf("pagination = (%d, %d), want (1, %d)", page.Page, page.PageSize, domain.DefaultPageSize)
	}
	if page.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", page.TotalItems)
	}

	oversized, err := f.svc.ListIncome(f.userID, &domain.IncomeFilters{Page: 1, PageSize: 1000})
	if err != nil {
		t.Fatalf("ListIncome() error = %v", err)
	}
	if oversized.PageSize != domain.MaxPageSize {
		t.Errorf("PageSize = %d, want clamped to %d", oversized.PageSize, domain.MaxPageSize)
	}
}

func TestListIncome_RejectsInvertedRange(t *testing.T) {
	f := newIncomeFixture()
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.ListIncome(f.userID, &domain.IncomeFilters{StartDate: &start, EndDate: &end})
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("ListIncome() error = %v, want ErrInvalidDateRange", err)
	}
}

func TestDeleteIncome_PublishesEvent(t *testing.T) {
	f := newIncomeFixture()
	created, err := f.svc.CreateIncome(f.userID, CreateIncomeInput{
		Price:         mustDec("10.00"),
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}

	if err := f.svc.DeleteIncome(f.userID, created.ID); err != nil {
		t.Fatalf("DeleteIncome() error = %v", err)
	}
	last := f.publisher.Events[len(f.publisher.Events)-1]
	if last.Type != "income.deleted" {
		t.Errorf("last event = %q, want income.deleted", last.Type)
	}
	if _, err := f.svc.GetIncome(f.userID, created.ID); !errors.Is(err, domain.ErrIncomeNotFound) {
		t.Errorf("GetIncome() after delete error = %v, want ErrIncomeNotFound", err)
	}
}
