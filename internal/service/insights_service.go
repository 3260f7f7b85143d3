package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// InsightsService aggregates transactions into dashboard views. All totals
// are exact decimal sums; nothing goes through floats.
type InsightsService struct {
	incomeRepo       domain.IncomeRepository
	spendingRepo     domain.SpendingRepository
	categoryRepo     domain.CategoryRepository
	recurringRepo    domain.RecurringRepository
	subscriptionRepo domain.SubscriptionRepository
}

// NewInsightsService creates a new InsightsService
func NewInsightsService(incomeRepo domain.IncomeRepository, spendingRepo domain.SpendingRepository, categoryRepo domain.CategoryRepository, recurringRepo domain.RecurringRepository, subscriptionRepo domain.SubscriptionRepository) *InsightsService {
	return &InsightsService{
		incomeRepo:       incomeRepo,
		spendingRepo:     spendingRepo,
		categoryRepo:     categoryRepo,
		recurringRepo:    recurringRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// Summary holds period totals
type Summary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalSpending decimal.Decimal `json:"totalSpending"`
	Net           decimal.Decimal `json:"net"`
	IncomeCount   int             `json:"incomeCount"`
	SpendingCount int             `json:"spendingCount"`
}

// UpcomingPayment is one projected occurrence of a recurring obligation
type UpcomingPayment struct {
	ObligationKind domain.ObligationKind `json:"obligationKind"`
	ObligationID   int32                 `json:"obligationId"`
	Name           string                `json:"name"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
	DueDate        time.Time             `json:"dueDate"`
	ReminderDue    bool                  `json:"reminderDue"`
}

// Dashboard is the combined insights payload
type Dashboard struct {
	Summary              Summary                `json:"summary"`
	CashFlow             []domain.CashFlowPoint `json:"cashFlow"`
	IncomeByCategory     []domain.Bucket        `json:"incomeByCategory"`
	SpendingByCategory   []domain.Bucket        `json:"spendingByCategory"`
	ByPaymentMethod      []domain.Bucket        `json:"byPaymentMethod"`
	UpcomingPayments     []UpcomingPayment      `json:"upcomingPayments"`
	MonthlyRecurringCost decimal.Decimal        `json:"monthlyRecurringCost"`
}

// Dashboard builds the full insights payload for a date range. The five
// repository reads run concurrently; aggregation happens in-process.
func (s *InsightsService) Dashboard(userID uuid.UUID, from, to time.Time, period domain.Period) (*Dashboard, error) {
	if !domain.ValidPeriod(period) {
		return nil, domain.ErrInvalidInput
	}
	if to.Before(from) {
		return nil, domain.ErrInvalidDateRange
	}

	var (
		income        []*domain.IncomeTransaction
		spending      []*domain.SpendingTransaction
		categories    []*domain.Category
		recurring     []*domain.RecurringExpense
		subscriptions []*domain.Subscription
	)

	activeOnly := true
	var g errgroup.Group
	g.Go(func() error {
		var err error
		income, err = s.incomeRepo.ListRange(userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		spending, err = s.spendingRepo.ListRange(userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categoryRepo.ListByUser(userID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		recurring, err = s.recurringRepo.ListByUser(userID, &activeOnly)
		return err
	})
	g.Go(func() error {
		var err error
		subscriptions, err = s.subscriptionRepo.ListByUser(userID, &activeOnly)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := categoryNames(categories)
	incomeFlows := incomeToFlows(income, names)
	spendingFlows := spendingToFlows(spending, names)

	cashFlow, err := domain.CashFlowSeries(incomeFlows, spendingFlows, period, from, to)
	if err != nil {
		return nil, err
	}

	allFlows := make([]domain.Flow, 0, len(incomeFlows)+len(spendingFlows))
	allFlows = append(allFlows, incomeFlows...)
	allFlows = append(allFlows, spendingFlows...)

	upcoming := projectUpcoming(recurring, subscriptions, time.Now().UTC(), 30)

	return &Dashboard{
		Summary:              buildSummary(from, to, incomeFlows, spendingFlows),
		CashFlow:             cashFlow,
		IncomeByCategory:     domain.GroupByCategory(incomeFlows, domain.SortTotalDescending),
		SpendingByCategory:   domain.GroupByCategory(spendingFlows, domain.SortTotalDescending),
		ByPaymentMethod:      domain.GroupByPaymentMethod(allFlows, domain.SortTotalDescending),
		UpcomingPayments:     upcoming,
		MonthlyRecurringCost: monthlyRecurringCost(recurring, subscriptions),
	}, nil
}

// GetSummary returns period totals for a date range
func (s *InsightsService) GetSummary(userID uuid.UUID, from, to time.Time) (*Summary, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidDateRange
	}

	var (
		income   []*domain.IncomeTransaction
		spending []*domain.SpendingTransaction
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		income, err = s.incomeRepo.ListRange(userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		spending, err = s.spendingRepo.ListRange(userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := buildSummary(from, to, incomeToFlows(income, nil), spendingToFlows(spending, nil))
	return &summary, nil
}

// GetCashFlow returns the signed per-period series for a date range
func (s *InsightsService) GetCashFlow(userID uuid.UUID, from, to time.Time, period domain.Period) ([]domain.CashFlowPoint, error) {
	if !domain.ValidPeriod(period) {
		return nil, domain.ErrInvalidInput
	}
	if to.Before(from) {
		return nil, domain.ErrInvalidDateRange
	}

	var (
		income   []*domain.IncomeTransaction
		spending []*domain.SpendingTransaction
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		income, err = s.incomeRepo.ListRange(userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		spending, err = s.spendingRepo.ListRange(userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.CashFlowSeries(incomeToFlows(income, nil), spendingToFlows(spending, nil), period, from, to)
}

// GetCategoryBreakdown buckets one side of the ledger by category name
func (s *InsightsService) GetCategoryBreakdown(userID uuid.UUID, from, to time.Time, kind domain.CategoryType) ([]domain.Bucket, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidDateRange
	}

	categories, err := s.categoryRepo.ListByUser(userID, nil)
	if err != nil {
		return nil, err
	}
	names := categoryNames(categories)

	switch kind {
	case domain.CategoryTypeIncome:
		income, err := s.incomeRepo.ListRange(userID, from, to)
		if err != nil {
			return nil, err
		}
		return domain.GroupByCategory(incomeToFlows(income, names), domain.SortTotalDescending), nil
	case domain.CategoryTypeSpending:
		spending, err := s.spendingRepo.ListRange(userID, from, to)
		if err != nil {
			return nil, err
		}
		return domain.GroupByCategory(spendingToFlows(spending, names), domain.SortTotalDescending), nil
	}
	return nil, domain.ErrInvalidCategoryType
}

// GetUpcomingPayments projects occurrences of active obligations due within
// the given number of days
func (s *InsightsService) GetUpcomingPayments(userID uuid.UUID, withinDays int) ([]UpcomingPayment, error) {
	if withinDays < 1 {
		withinDays = 30
	}

	activeOnly := true
	var (
		recurring     []*domain.RecurringExpense
		subscriptions []*domain.Subscription
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		recurring, err = s.recurringRepo.ListByUser(userID, &activeOnly)
		return err
	})
	g.Go(func() error {
		var err error
		subscriptions, err = s.subscriptionRepo.ListByUser(userID, &activeOnly)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return projectUpcoming(recurring, subscriptions, time.Now().UTC(), withinDays), nil
}

func buildSummary(from, to time.Time, income, spending []domain.Flow) Summary {
	totalIncome := decimal.Zero
	for _, f := range income {
		totalIncome = totalIncome.Add(f.Amount)
	}
	totalSpending := decimal.Zero
	for _, f := range spending {
		totalSpending = totalSpending.Add(f.Amount)
	}

	return Summary{
		From:          from,
		To:            to,
		TotalIncome:   totalIncome,
		TotalSpending: totalSpending,
		Net:           totalIncome.Sub(totalSpending),
		IncomeCount:   len(income),
		SpendingCount: len(spending),
	}
}

// categoryNames indexes category names by ID for flow conversion
func categoryNames(categories []*domain.Category) map[int32]string {
	names := make(map[int32]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

func incomeToFlows(income []*domain.IncomeTransaction, names map[int32]string) []domain.Flow {
	flows := make([]domain.Flow, 0, len(income))
	for _, tx := range income {
		flows = append(flows, domain.Flow{
			Date:          tx.Date,
			Amount:        tx.TotalReceived,
			CategoryName:  lookupName(names, tx.CategoryID),
			PaymentMethod: tx.PaymentMethod,
		})
	}
	return flows
}

func spendingToFlows(spending []*domain.SpendingTransaction, names map[int32]string) []domain.Flow {
	flows := make([]domain.Flow, 0, len(spending))
	for _, tx := range spending {
		flows = append(flows, domain.Flow{
			Date:          tx.Date,
			Amount:        tx.Amount,
			CategoryName:  lookupName(names, tx.CategoryID),
			PaymentMethod: tx.PaymentMethod,
		})
	}
	return flows
}

func lookupName(names map[int32]string, categoryID *int32) *string {
	if categoryID == nil || names == nil {
		return nil
	}
	if name, ok := names[*categoryID]; ok {
		return &name
	}
	return nil
}

// projectUpcoming lists occurrences of active obligations in (now, now+days],
// sorted by due date. Subscription reminders fire when the due date is
// within the reminder lead.
func projectUpcoming(recurring []*domain.RecurringExpense, subscriptions []*domain.Subscription, now time.Time, withinDays int) []UpcomingPayment {
	after := now.Truncate(24 * time.Hour).AddDate(0, 0, -1)
	through := now.Truncate(24 * time.Hour).AddDate(0, 0, withinDays)

	upcoming := []UpcomingPayment{}

	for _, re := range recurring {
		occurrences, err := domain.OccurrencesBetween(re.StartDate, re.Frequency, re.EndDate, after, through)
		if err != nil {
			continue
		}
		for _, due := range occurrences {
			upcoming = append(upcoming, UpcomingPayment{
				ObligationKind: domain.ObligationRecurringExpense,
				ObligationID:   re.ID,
				Name:           re.Name,
				Amount:         re.Amount,
				Currency:       re.Currency,
				DueDate:        due,
			})
		}
	}

	for _, sub := range subscriptions {
		occurrences, err := domain.OccurrencesBetween(sub.StartDate, sub.Frequency, sub.EndDate, after, through)
		if err != nil {
			continue
		}
		for _, due := range occurrences {
			reminderDue := sub.ReminderLeadDays > 0 &&
				!due.After(now.Truncate(24*time.Hour).AddDate(0, 0, int(sub.ReminderLeadDays)))
			upcoming = append(upcoming, UpcomingPayment{
				ObligationKind: domain.ObligationSubscription,
				ObligationID:   sub.ID,
				Name:           sub.Name,
				Amount:         sub.Amount,
				Currency:       sub.Currency,
				DueDate:        due,
				ReminderDue:    reminderDue,
			})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(upcoming[j].DueDate)
	})
	return upcoming
}

// monthlyRecurringCost normalizes all active obligations to a monthly
// figure: weekly scales by 52/12, biweekly by 26/12, quarterly by 1/3,
// yearly by 1/12.
func monthlyRecurringCost(recurring []*domain.RecurringExpense, subscriptions []*domain.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, re := range recurring {
		total = total.Add(toMonthly(re.Amount, re.Frequency))
	}
	for _, sub := range subscriptions {
		total = total.Add(toMonthly(sub.Amount, sub.Frequency))
	}
	return total
}

func toMonthly(amount decimal.Decimal, freq domain.Frequency) decimal.Decimal {
	switch freq {
	case domain.FrequencyWeekly:
		return amount.Mul(decimal.NewFromInt(52)).DivRound(decimal.NewFromInt(12), 4)
	case domain.FrequencyBiweekly:
		return amount.Mul(decimal.NewFromInt(26)).DivRound(decimal.NewFromInt(12), 4)
	case domain.FrequencyQuarterly:
		return amount.DivRound(decimal.NewFromInt(3), 4)
	case domain.FrequencyYearly:
		return amount.DivRound(decimal.NewFromInt(12), 4)
	default:
		return amount
	}
}
