package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/testutil"
)

type insightsFixture struct {
	svc              *InsightsService
	incomeRepo       *testutil.MockIncomeRepository
	spendingRepo     *testutil.MockSpendingRepository
	categoryRepo     *testutil.MockCategoryRepository
	recurringRepo    *testutil.MockRecurringRepository
	subscriptionRepo *testutil.MockSubscriptionRepository
	userID           uuid.UUID
}

func newInsightsFixture() *insightsFixture {
	incomeRepo := testutil.NewMockIncomeRepository()
	spendingRepo := testutil.NewMockSpendingRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	recurringRepo := testutil.NewMockRecurringRepository(paymentRepo, spendingRepo)
	subscriptionRepo := testutil.NewMockSubscriptionRepository(paymentRepo, spendingRepo)
	return &insightsFixture{
		svc:              NewInsightsService(incomeRepo, spendingRepo, categoryRepo, recurringRepo, subscriptionRepo),
		incomeRepo:       incomeRepo,
		spendingRepo:     spendingRepo,
		categoryRepo:     categoryRepo,
		recurringRepo:    recurringRepo,
		subscriptionRepo: subscriptionRepo,
		userID:           uuid.New(),
	}
}

func (f *insightsFixture) addIncome(t *testing.T, day time.Time, total string) {
	t.Helper()
	_, err := f.incomeRepo.Create(&domain.IncomeTransaction{
		UserID:        f.userID,
		Date:          day,
		Price:         mustDec(total),
		TotalReceived: mustDec(total),
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func (f *insightsFixture) addSpending(t *testing.T, day time.Time, amount string, categoryID *int32) {
	t.Helper()
	_, err := f.spendingRepo.Create(&domain.SpendingTransaction{
		UserID:        f.userID,
		Date:          day,
		Description:   "expense",
		CategoryID:    categoryID,
		Amount:        mustDec(amount),
		PaymentMethod: domain.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	f := newInsightsFixture()
	from := utcDate(2026, time.January, 1)
	to := utcDate(2026, time.January, 31)

	f.addIncome(t, utcDate(2026, time.January, 5), "100.10")
	f.addIncome(t, utcDate(2026, time.January, 10), "200.20")
	f.addSpending(t, utcDate(2026, time.January, 7), "50.05", nil)
	// Outside the range, must not count.
	f.addIncome(t, utcDate(2026, time.February, 1), "999.00")

	summary, err := f.svc.GetSummary(f.userID, from, to)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if !summary.TotalIncome.Equal(mustDec("300.30")) {
		t.Errorf("TotalIncome = %s, want 300.30", summary.TotalIncome)
	}
	if !summary.TotalSpending.Equal(mustDec("50.05")) {
		t.Errorf("TotalSpending = %s, want 50.05", summary.TotalSpending)
	}
	if !summary.Net.Equal(mustDec("250.25")) {
		t.Errorf("Net = %s, want 250.25", summary.Net)
	}
	if summary.IncomeCount != 2 || summary.SpendingCount != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", summary.IncomeCount, summary.SpendingCount)
	}
}

func TestGetSummary_InvertedRange(t *testing.T) {
	f := newInsightsFixture()
	_, err := f.svc.GetSummary(f.userID, utcDate(2026, time.March, 1), utcDate(2026, time.January, 1))
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("GetSummary() error = %v, want ErrInvalidDateRange", err)
	}
}

func TestGetCashFlow(t *testing.T) {
	f := newInsightsFixture()
	from := utcDate(2026, time.January, 1)
	to := utcDate(2026, time.January, 3)

	f.addIncome(t, utcDate(2026, time.January, 1), "100.00")
	f.addSpending(t, utcDate(2026, time.January, 3), "40.00", nil)

	points, err := f.svc.GetCashFlow(f.userID, from, to, domain.PeriodDay)
	if err != nil {
		t.Fatalf("GetCashFlow() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("GetCashFlow() returned %d points, want 3", len(points))
	}
	if !points[0].Net.Equal(mustDec("100.00")) {
		t.Errorf("day 1 net = %s, want 100.00", points[0].Net)
	}
	if !points[1].Net.IsZero() {
		t.Errorf("day 2 net = %s, want zero-filled", points[1].Net)
	}
	if !points[2].Net.Equal(mustDec("-40.00")) {
		t.Errorf("day 3 net = %s, want -40.00", points[2].Net)
	}
}

func TestGetCategoryBreakdown_UncategorizedBucket(t *testing.T) {
	f := newInsightsFixture()
	category, err := f.categoryRepo.Create(&domain.Category{UserID: f.userID, Name: "Supplies", Type: domain.CategoryTypeSpending})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	from := utcDate(2026, time.January, 1)
	to := utcDate(2026, time.January, 31)
	f.addSpending(t, utcDate(2026, time.January, 5), "30.00", &category.ID)
	f.addSpending(t, utcDate(2026, time.January, 6), "70.00", nil)

	buckets, err := f.svc.GetCategoryBreakdown(f.userID, from, to, domain.CategoryTypeSpending)
	if err != nil {
		t.Fatalf("GetCategoryBreakdown() error = %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("GetCategoryBreakdown() returned %d buckets, want 2", len(buckets))
	}
	// Sorted by total descending: Uncategorized (70) before Supplies (30).
	if buckets[0].Key != domain.UncategorizedBucket || !buckets[0].Total.Equal(mustDec("70.00")) {
		t.Errorf("first bucket = %q/%s, want Uncategorized/70.00", buckets[0].Key, buckets[0].Total)
	}
	if buckets[1].Key != "Supplies" {
		t.Errorf("second bucket = %q, want Supplies", buckets[1].Key)
	}
}

func TestGetUpcomingPayments(t *testing.T) {
	f := newInsightsFixture()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	reStart := today.AddDate(0, 0, 5)
	if _, err := f.recurringRepo.Create(&domain.RecurringExpense{
		UserID:    f.userID,
		Name:      "Rent",
		Amount:    mustDec("800.00"),
		Currency:  "EUR",
		Frequency: domain.FrequencyMonthly,
		StartDate: reStart,
		IsActive:  true,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	subStart := today.AddDate(0, 0, 3)
	if _, err := f.subscriptionRepo.Create(&domain.Subscription{
		UserID:           f.userID,
		Name:             "Booking software",
		Amount:           mustDec("29.00"),
		Currency:         "EUR",
		Frequency:        domain.FrequencyMonthly,
		StartDate:        subStart,
		IsActive:         true,
		AutoRenew:        true,
		ReminderLeadDays: 10,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	upcoming, err := f.svc.GetUpcomingPayments(f.userID, 14)
	if err != nil {
		t.Fatalf("GetUpcomingPayments() error = %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("GetUpcomingPayments() returned %d entries, want 2", len(upcoming))
	}

	// Sorted by due date: subscription in 3 days, then rent in 5.
	if upcoming[0].Name != "Booking software" {
		t.Errorf("first upcoming = %q, want Booking software", upcoming[0].Name)
	}
	if !upcoming[0].ReminderDue {
		t.Error("ReminderDue = false, want true for due date within reminder lead")
	}
	if upcoming[1].Name != "Rent" || upcoming[1].ReminderDue {
		t.Errorf("second upcoming = %q (reminder %v), want Rent without reminder", upcoming[1].Name, upcoming[1].ReminderDue)
	}
}

func TestMonthlyRecurringCost(t *testing.T) {
	recurring := []*domain.RecurringExpense{
		{Amount: mustDec("12.00"), Frequency: domain.FrequencyWeekly},   // 12 * 52/12 = 52
		{Amount: mustDec("300.00"), Frequency: domain.FrequencyMonthly}, // 300
	}
	subscriptions := []*domain.Subscription{
		{Amount: mustDec("120.00"), Frequency: domain.FrequencyYearly},  // 10
		{Amount: mustDec("90.00"), Frequency: domain.FrequencyQuarterly}, // 30
	}

	total := monthlyRecurringCost(recurring, subscriptions)
	if !total.Equal(mustDec("392.00")) {
		t.Errorf("monthlyRecurringCost() = %s, want 392.00", total)
	}
}

func TestDashboard(t *testing.T) {
	f := newInsightsFixture()
	from := utcDate(2026, time.January, 1)
	to := utcDate(2026, time.January, 31)

	f.addIncome(t, utcDate(2026, time.January, 5), "150.00")
	f.addSpending(t, utcDate(2026, time.January, 10), "60.00", nil)

	dashboard, err := f.svc.Dashboard(f.userID, from, to, domain.PeriodMonth)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if !dashboard.Summary.Net.Equal(mustDec("90.00")) {
		t.Errorf("summary net = %s, want 90.00", dashboard.Summary.Net)
	}
	if len(dashboard.CashFlow) != 1 || dashboard.CashFlow[0].Period != "2026-01" {
		t.Errorf("cash flow = %v, want single 2026-01 point", dashboard.CashFlow)
	}
	if len(dashboard.SpendingByCategory) != 1 || dashboard.SpendingByCategory[0].Key != domain.UncategorizedBucket {
		t.Errorf("spending buckets = %v, want single Uncategorized bucket", dashboard.SpendingByCategory)
	}
	if len(dashboard.ByPaymentMethod) != 2 {
		t.Errorf("payment method buckets = %d, want 2", len(dashboard.ByPaymentMethod))
	}
}

func TestDashboard_InvalidPeriod(t *testing.T) {
	f := newInsightsFixture()
	_, err := f.svc.Dashboard(f.userID, utcDate(2026, time.January, 1), utcDate(2026, time.January, 31), domain.Period("quarter"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Dashboard() error = %v, want ErrInvalidInput", err)
	}
}
