package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedBucket is the bucket key for flows with no category attached.
const UncategorizedBucket = "Uncategorized"

// Flow is the aggregation view of a transaction: when it happened, how much
// moved, and the attributes it can be bucketed by. Income and spending both
// reduce to Flows before grouping.
type Flow struct {
	Date          time.Time
	Amount        decimal.Decimal
	CategoryName  *string
	PaymentMethod PaymentMethod
}

// Bucket is one aggregation group with an exact decimal total.
type Bucket struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// BucketSort selects the output ordering of grouped buckets.
type BucketSort int

const (
	// SortInsertion keeps buckets ordered by first appearance in the input.
	SortInsertion BucketSort = iota
	SortAlphabetical
	SortTotalDescending
)

// Period selects the calendar bucket width for time-series grouping.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ValidPeriod reports whether p is one of the closed enumeration.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// GroupByCategory buckets flows by category name, folding flows with no
// category into the Uncategorized bucket. Empty input yields an empty slice.
func GroupByCategory(flows []Flow, order BucketSort) []Bucket {
	return groupBy(flows, order, func(f Flow) string {
		if f.CategoryName == nil || *f.CategoryName == "" {
			return UncategorizedBucket
		}
		return *f.CategoryName
	})
}

// GroupByPaymentMethod buckets flows by payment method.
func GroupByPaymentMethod(flows []Flow, order BucketSort) []Bucket {
	return groupBy(flows, order, func(f Flow) string {
		return string(f.PaymentMethod)
	})
}

// GroupByPeriod buckets flows by calendar period.
func GroupByPeriod(flows []Flow, period Period, order BucketSort) ([]Bucket, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidInput
	}
	return groupBy(flows, order, func(f Flow) string {
		return PeriodKey(f.Date, period)
	}), nil
}

func groupBy(flows []Flow, order BucketSort, keyFn func(Flow) string) []Bucket {
	buckets := []Bucket{}
	index := make(map[string]int)

	for _, f := range flows {
		key := keyFn(f)
		i, seen := index[key]
		if !seen {
			index[key] = len(buckets)
			buckets = append(buckets, Bucket{Key: key, Total: decimal.Zero})
			i = len(buckets) - 1
		}
		buckets[i].Total = buckets[i].Total.Add(f.Amount)
		buckets[i].Count++
	}

	switch order {
	case SortAlphabetical:
		sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	case SortTotalDescending:
		sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Total.GreaterThan(buckets[j].Total) })
	}
	return buckets
}

// CashFlowPoint is one period of the signed cash-flow series: income counts
// positive, spending negative, Net is their sum.
type CashFlowPoint struct {
	Period   string          `json:"period"`
	Income   decimal.Decimal `json:"income"`
	Spending decimal.Decimal `json:"spending"`
	Net      decimal.Decimal `json:"net"`
}

// CashFlowSeries combines income and spending flows into a continuous
// per-period series from `from` through `to`. Periods without activity are
// emitted with zero values so charts get an unbroken axis.
func CashFlowSeries(income, spending []Flow, period Period, from, to time.Time) ([]CashFlowPoint, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidInput
	}
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	points := []CashFlowPoint{}
	index := make(map[string]int)
	for cursor := from; !cursor.After(to); cursor = nextPeriodStart(cursor, period) {
		key := PeriodKey(cursor, period)
		if _, seen := index[key]; seen {
			continue
		}
		index[key] = len(points)
		points = append(points, CashFlowPoint{
			Period:   key,
			Income:   decimal.Zero,
			Spending: decimal.Zero,
			Net:      decimal.Zero,
		})
	}

	for _, f := range income {
		if i, ok := index[PeriodKey(f.Date, period)]; ok {
			points[i].Income = points[i].Income.Add(f.Amount)
		}
	}
	for _, f := range spending {
		if i, ok := index[PeriodKey(f.Date, period)]; ok {
			points[i].Spending = points[i].Spending.Add(f.Amount)
		}
	}
	for i := range points {
		points[i].Net = points[i].Income.Sub(points[i].Spending)
	}
	return points, nil
}

// PeriodKey renders the bucket label for a date: "2006-01-02" for days,
// ISO "2006-W02" for weeks, "2006-01" for months.
func PeriodKey(t time.Time, period Period) string {
	t = truncateDay(t)
	switch period {
	case PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case PeriodMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func nextPeriodStart(t time.Time, period Period) time.Time {
	switch period {
	case PeriodWeek:
		return t.AddDate(0, 0, 7)
	case PeriodMonth:
		return addMonthsClamped(t, 1)
	default:
		return t.AddDate(0, 0, 1)
	}
}
