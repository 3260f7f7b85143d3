package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

type recurringFixture struct {
	svc           *RecurringService
	recurringRepo *testutil.MockRecurringRepository
	paymentRepo   *testutil.MockPaymentRepository
	spendingRepo  *testutil.MockSpendingRepository
	categoryRepo  *testutil.MockCategoryRepository
	publisher     *testutil.MockPublisher
	userID        uuid.UUID
}

func newRecurringFixture() *recurringFixture {
	paymentRepo := testutil.NewMockPaymentRepository()
	spendingRepo := testutil.NewMockSpendingRepository()
	recurringRepo := testutil.NewMockRecurringRepository(paymentRepo, spendingRepo)
	categoryRepo := testutil.NewMockCategoryRepository()
	publisher := testutil.NewMockPublisher()
	return &recurringFixture{
		svc:           NewRecurringService(recurringRepo, categoryRepo, paymentRepo, publisher),
		recurringRepo: recurringRepo,
		paymentRepo:   paymentRepo,
		spendingRepo:  spendingRepo,
		categoryRepo:  categoryRepo,
		publisher:     publisher,
		userID:        uuid.New(),
	}
}

func utcDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCreateRecurring_FirstDueDateIsStart(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 15)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Rent",
		Amount:    mustDec("800.00"),
		Currency:  "eur",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}
	if created.NextDueDate == nil || !created.NextDueDate.Equal(start) {
		t.Errorf("NextDueDate = %v, want start date %v", created.NextDueDate, start)
	}
	if !created.IsActive {
		t.Error("IsActive = false, want true")
	}
	if created.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", created.Currency)
	}
}

func TestCreateRecurring_Validation(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 15)
	badEnd := utcDate(2025, time.December, 1)

	tests := []struct {
		name    string
		input   CreateRecurringInput
		wantErr error
	}{
		{
			name:    "empty name",
			input:   CreateRecurringInput{Name: " ", Amount: mustDec("10.00"), Currency: "EUR", Frequency: domain.FrequencyMonthly, StartDate: start},
			wantErr: domain.ErrNameRequired,
		},
		{
			name:    "zero amount",
			input:   CreateRecurringInput{Name: "Rent", Currency: "EUR", Frequency: domain.FrequencyMonthly, StartDate: start},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "bad currency",
			input:   CreateRecurringInput{Name: "Rent", Amount: mustDec("10.00"), Currency: "EURO", Frequency: domain.FrequencyMonthly, StartDate: start},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "bad frequency",
			input:   CreateRecurringInput{Name: "Rent", Amount: mustDec("10.00"), Currency: "EUR", Frequency: domain.Frequency("daily"), StartDate: start},
			wantErr: domain.ErrInvalidFrequency,
		},
		{
			name:    "end before start",
			input:   CreateRecurringInput{Name: "Rent", Amount: mustDec("10.00"), Currency: "EUR", Frequency: domain.FrequencyMonthly, StartDate: start, EndDate: &badEnd},
			wantErr: domain.ErrInvalidDateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateRecurring(f.userID, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateRecurring() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordPayment_AdvancesDueDate(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 15)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Rent",
		Amount:    mustDec("800.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	paidAt := utcDate(2026, time.January, 16)
	payment, err := f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &paidAt})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if !payment.Amount.Equal(mustDec("800.00")) {
		t.Errorf("payment amount = %s, want obligation amount 800.00", payment.Amount)
	}

	stored := f.recurringRepo.Expenses[created.ID]
	want := utcDate(2026, time.February, 15)
	if stored.NextDueDate == nil || !stored.NextDueDate.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", stored.NextDueDate, want)
	}
}

func TestRecordPayment_BeforeDueDateRejected(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.March, 1)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Rent",
		Amount:    mustDec("800.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	early := utcDate(2026, time.February, 20)
	_, err = f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &early})
	if !errors.Is(err, domain.ErrPaymentBeforeDue) {
		t.Errorf("RecordPayment() error = %v, want ErrPaymentBeforeDue", err)
	}
	if len(f.paymentRepo.Payments) != 0 {
		t.Errorf("payments recorded = %d, want 0", len(f.paymentRepo.Payments))
	}
}

func TestRecordPayment_DeactivatesPastEndDate(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 1)
	end := utcDate(2026, time.January, 31)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Short lease",
		Amount:    mustDec("100.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	paidAt := utcDate(2026, time.January, 1)
	if _, err := f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &paidAt}); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	stored := f.recurringRepo.Expenses[created.ID]
	if stored.IsActive {
		t.Error("IsActive = true, want false once schedule runs out")
	}
	if stored.NextDueDate != nil {
		t.Errorf("NextDueDate = %v, want nil", stored.NextDueDate)
	}

	// Further payments against the exhausted schedule are rejected.
	if _, err := f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &paidAt}); !errors.Is(err, domain.ErrObligationInactive) {
		t.Errorf("RecordPayment() error = %v, want ErrObligationInactive", err)
	}
}

func TestRecordPayment_AutoCreatesSpending(t *testing.T) {
	f := newRecurringFixture()
	category, err := f.categoryRepo.Create(&domain.Category{UserID: f.userID, Name: "Housing", Type: domain.CategoryTypeSpending})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	start := utcDate(2026, time.January, 15)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:               "Rent",
		Amount:             mustDec("800.00"),
		Currency:           "EUR",
		Frequency:          domain.FrequencyMonthly,
		CategoryID:         &category.ID,
		StartDate:          start,
		AutoCreateSpending: true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	paidAt := utcDate(2026, time.January, 15)
	payment, err := f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &paidAt})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	if payment.SpendingID == nil {
		t.Fatal("SpendingID = nil, want generated spending transaction")
	}
	spending := f.spendingRepo.Transactions[*payment.SpendingID]
	if spending == nil {
		t.Fatal("generated spending transaction not persisted")
	}
	if spending.Description != "Rent" || !spending.Amount.Equal(mustDec("800.00")) {
		t.Errorf("spending = %q/%s, want Rent/800.00", spending.Description, spending.Amount)
	}
	if spending.CategoryID == nil || *spending.CategoryID != category.ID {
		t.Errorf("spending category = %v, want %d", spending.CategoryID, category.ID)
	}

	// The spending.created event must carry the persisted row, ID included,
	// or clients cannot reconcile it with later fetches.
	var event *websocket.Event
	for i := range f.publisher.Events {
		if f.publisher.Events[i].Type == "spending.created" {
			event = &f.publisher.Events[i]
		}
	}
	if event == nil {
		t.Fatal("no spending.created event published")
	}
	payload, ok := event.Payload.(*domain.SpendingTransaction)
	if !ok {
		t.Fatalf("event payload is %T, want *domain.SpendingTransaction", event.Payload)
	}
	if payload.ID != *payment.SpendingID {
		t.Errorf("event payload ID = %d, want %d", payload.ID, *payment.SpendingID)
	}
}

func TestRecordPayment_OverrideAmount(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 15)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Utilities",
		Amount:    mustDec("60.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	paidAt := utcDate(2026, time.January, 15)
	payment, err := f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &paidAt, Amount: decPtr("72.40")})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if !payment.Amount.Equal(mustDec("72.40")) {
		t.Errorf("payment amount = %s, want override 72.40", payment.Amount)
	}

	nextPaidAt := utcDate(2026, time.February, 15)
	_, err = f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &nextPaidAt, Amount: decPtr("-1.00")})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("RecordPayment() error = %v, want ErrInvalidAmount", err)
	}
}

func TestUpdateRecurring_ScheduleChangeReprojects(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 15)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Rent",
		Amount:    mustDec("800.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	newStart := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 1, 0)
	updated, err := f.svc.UpdateRecurring(f.userID, created.ID, UpdateRecurringInput{StartDate: &newStart})
	if err != nil {
		t.Fatalf("UpdateRecurring() error = %v", err)
	}
	if updated.NextDueDate == nil || !updated.NextDueDate.Equal(newStart) {
		t.Errorf("NextDueDate = %v, want reprojected to new start %v", updated.NextDueDate, newStart)
	}
}

func TestUpdateRecurring_EndDateInPastDeactivates(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2020, time.January, 1)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Old lease",
		Amount:    mustDec("500.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	end := utcDate(2020, time.June, 1)
	updated, err := f.svc.UpdateRecurring(f.userID, created.ID, UpdateRecurringInput{EndDate: &end})
	if err != nil {
		t.Fatalf("UpdateRecurring() error = %v", err)
	}
	if updated.IsActive {
		t.Error("IsActive = true, want false for schedule that already ran out")
	}
	if updated.NextDueDate != nil {
		t.Errorf("NextDueDate = %v, want nil", updated.NextDueDate)
	}
}

func TestListPayments_RequiresOwnership(t *testing.T) {
	f := newRecurringFixture()
	start := utcDate(2026, time.January, 15)

	created, err := f.svc.CreateRecurring(f.userID, CreateRecurringInput{
		Name:      "Rent",
		Amount:    mustDec("800.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	if _, err := f.svc.ListPayments(uuid.New(), created.ID); !errors.Is(err, domain.ErrRecurringNotFound) {
		t.Errorf("ListPayments() error = %v, want ErrRecurringNotFound for other user", err)
	}

	paidAt := utcDate(2026, time.January, 15)
	if _, err := f.svc.RecordPayment(f.userID, created.ID, RecordPaymentInput{PaidAt: &paidAt}); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	payments, err := f.svc.ListPayments(f.userID, created.ID)
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("ListPayments() returned %d payments, want 1", len(payments))
	}
}
