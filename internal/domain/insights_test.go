package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string {
	return &s
}

func TestGroupByCategory_ExactDecimalTotals(t *testing.T) {
	// 10.10 + 10.20 + 10.30 must be exactly 30.60, not 30.599999...
	flows := []Flow{
		{Date: date(2026, time.January, 1), Amount: dec("10.10"), CategoryName: strPtr("Supplies")},
		{Date: date(2026, time.January, 2), Amount: dec("10.20"), CategoryName: strPtr("Supplies")},
		{Date: date(2026, time.January, 3), Amount: dec("10.30"), CategoryName: strPtr("Supplies")},
	}

	buckets := GroupByCategory(flows, SortInsertion)
	if len(buckets) != 1 {
		t.Fatalf("GroupByCategory() returned %d buckets, want 1", len(buckets))
	}
	if !buckets[0].Total.Equal(dec("30.60")) {
		t.Errorf("Total = %s, want 30.60", buckets[0].Total)
	}
	if buckets[0].Count != 3 {
		t.Errorf("Count = %d, want 3", buckets[0].Count)
	}
}

func TestGroupByCategory_UncategorizedFolding(t *testing.T) {
	empty := ""
	flows := []Flow{
		{Amount: dec("5.00"), CategoryName: nil},
		{Amount: dec("3.00"), CategoryName: &empty},
		{Amount: dec("2.00"), CategoryName: strPtr("Rent")},
	}

	buckets := GroupByCategory(flows, SortInsertion)
	if len(buckets) != 2 {
		t.Fatalf("GroupByCategory() returned %d buckets, want 2", len(buckets))
	}
	if buckets[0].Key != UncategorizedBucket {
		t.Errorf("first bucket key = %q, want %q", buckets[0].Key, UncategorizedBucket)
	}
	if !buckets[0].Total.Equal(dec("8.00")) {
		t.Errorf("Uncategorized total = %s, want 8.00", buckets[0].Total)
	}
}

func TestGroupByCategory_Ordering(t *testing.T) {
	flows := []Flow{
		{Amount: dec("1.00"), CategoryName: strPtr("Zebra")},
		{Amount: dec("9.00"), CategoryName: strPtr("Apple")},
		{Amount: dec("5.00"), CategoryName: strPtr("Mango")},
	}

	tests := []struct {
		name  string
		order BucketSort
		want  []string
	}{
		{"insertion keeps first-appearance order", SortInsertion, []string{"Zebra", "Apple", "Mango"}},
		{"alphabetical", SortAlphabetical, []string{"Apple", "Mango", "Zebra"}},
		{"total descending", SortTotalDescending, []string{"Apple", "Mango", "Zebra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := GroupByCategory(flows, tt.order)
			for i, key := range tt.want {
				if buckets[i].Key != key {
					t.Errorf("bucket[%d].Key = %q, want %q", i, buckets[i].Key, key)
				}
			}
		})
	}
}

func TestGroupByCategory_EmptyInput(t *testing.T) {
	buckets := GroupByCategory(nil, SortInsertion)
	if buckets == nil {
		t.Fatal("GroupByCategory(nil) = nil, want empty slice")
	}
	if len(buckets) != 0 {
		t.Errorf("GroupByCategory(nil) returned %d buckets, want 0", len(buckets))
	}
}

func TestGroupByPaymentMethod(t *testing.T) {
	flows := []Flow{
		{Amount: dec("10.00"), PaymentMethod: PaymentMethodCash},
		{Amount: dec("20.00"), PaymentMethod: PaymentMethodCard},
		{Amount: dec("5.00"), PaymentMethod: PaymentMethodCash},
	}

	buckets := GroupByPaymentMethod(flows, SortInsertion)
	if len(buckets) != 2 {
		t.Fatalf("GroupByPaymentMethod() returned %d buckets, want 2", len(buckets))
	}
	if buckets[0].Key != string(PaymentMethodCash) || !buckets[0].Total.Equal(dec("15.00")) {
		t.Errorf("cash bucket = %q/%s, want cash/15.00", buckets[0].Key, buckets[0].Total)
	}
}

func TestGroupByPeriod_InvalidPeriod(t *testing.T) {
	_, err := GroupByPeriod(nil, Period("quarter"), SortInsertion)
	if err != ErrInvalidInput {
		t.Errorf("GroupByPeriod() error = %v, want ErrInvalidInput", err)
	}
}

func TestPeriodKey(t *testing.T) {
	d := date(2026, time.January, 7)

	tests := []struct {
		period Period
		want   string
	}{
		{PeriodDay, "2026-01-07"},
		{PeriodWeek, "2026-W02"},
		{PeriodMonth, "2026-01"},
	}

	for _, tt := range tests {
		if got := PeriodKey(d, tt.period); got != tt.want {
			t.Errorf("PeriodKey(%v, %s) = %q, want %q", d, tt.period, got, tt.want)
		}
	}
}

func TestPeriodKey_ISOWeekYearBoundary(t *testing.T) {
	// Jan 1 2027 falls in ISO week 53 of 2026.
	got := PeriodKey(date(2027, time.January, 1), PeriodWeek)
	if got != "2026-W53" {
		t.Errorf("PeriodKey() = %q, want 2026-W53", got)
	}
}

func TestCashFlowSeries_ZeroFilled(t *testing.T) {
	income := []Flow{
		{Date: date(2026, time.January, 1), Amount: dec("100.00")},
		{Date: date(2026, time.January, 3), Amount: dec("50.00")},
	}
	spending := []Flow{
		{Date: date(2026, time.January, 3), Amount: dec("30.00")},
	}

	points, err := CashFlowSeries(income, spending, PeriodDay, date(2026, time.January, 1), date(2026, time.January, 4))
	if err != nil {
		t.Fatalf("CashFlowSeries() error = %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("CashFlowSeries() returned %d points, want 4", len(points))
	}

	// Jan 2 and Jan 4 had no activity but still appear with zeros.
	if points[1].Period != "2026-01-02" || !points[1].Income.IsZero() || !points[1].Spending.IsZero() {
		t.Errorf("empty period = %+v, want zero-filled 2026-01-02", points[1])
	}
	if !points[2].Income.Equal(dec("50.00")) || !points[2].Spending.Equal(dec("30.00")) || !points[2].Net.Equal(dec("20.00")) {
		t.Errorf("Jan 3 = %+v, want income 50.00, spending 30.00, net 20.00", points[2])
	}
	if !points[0].Net.Equal(dec("100.00")) {
		t.Errorf("Jan 1 net = %s, want 100.00", points[0].Net)
	}
}

func TestCashFlowSeries_MonthlyPeriods(t *testing.T) {
	income := []Flow{
		{Date: date(2026, time.February, 15), Amount: dec("200.00")},
	}

	points, err := CashFlowSeries(income, nil, PeriodMonth, date(2026, time.January, 1), date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("CashFlowSeries() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("CashFlowSeries() returned %d points, want 3", len(points))
	}
	if points[0].Period != "2026-01" || points[1].Period != "2026-02" || points[2].Period != "2026-03" {
		t.Errorf("periods = %q %q %q, want 2026-01 2026-02 2026-03", points[0].Period, points[1].Period, points[2].Period)
	}
	if !points[1].Income.Equal(dec("200.00")) {
		t.Errorf("Feb income = %s, want 200.00", points[1].Income)
	}
}

func TestCashFlowSeries_InvalidRange(t *testing.T) {
	_, err := CashFlowSeries(nil, nil, PeriodDay, date(2026, time.March, 1), date(2026, time.January, 1))
	if err != ErrInvalidDateRange {
		t.Errorf("CashFlowSeries() error = %v, want ErrInvalidDateRange", err)
	}
}
