package services

import (
	"database/sql"
	"time"

	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
	"github.com/username/finanzas/backend/src/utils"
)

// AnalyticsService serves the read-only aggregations. Every endpoint
// accepts a period expression; an unparseable one falls back to the
// current month in the user's timezone.
type AnalyticsService struct {
	db       *sql.DB
	notifier *NotificationService
}

func NewAnalyticsService(db *sql.DB, notifier *NotificationService) *AnalyticsService {
	return &AnalyticsService{db: db, notifier: notifier}
}

func (s *AnalyticsService) window(userID int64, period string) (string, string) {
	now := time.Now().In(s.notifier.Location(userID))
	return processors.ResolvePeriod(period, now)
}

// Indicators is the headline income/expense/net view for a period.
type Indicators struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Income      int64  `json:"income"`
	Expenses    int64  `json:"expenses"`
	Savings     int64  `json:"savings"`
	NetCashFlow int64  `json:"net_cash_flow"`
}

func (s *AnalyticsService) indicators(userID int64, from, to string) (*Indicators, error) {
	ind := &Indicators{From: from, To: to}
	rows, err := s.db.Query(`
	SELECT type, COALESCE(SUM(total_amount), 0) FROM transactions
	WHERE user_id = ? AND date BETWEEN ? AND ? GROUP BY type`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var txType int
		var total int64
		if err := rows.Scan(&txType, &total); err != nil {
			return nil, err
		}
		switch txType {
		case model.TransactionTypeIncome:
			ind.Income = total
		case model.TransactionTypeExpense:
			ind.Expenses = total
		case model.TransactionTypeSaving:
			ind.Savings = total
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ind.NetCashFlow = ind.Income - ind.Expenses
	return ind, nil
}

func (s *AnalyticsService) Indicators(userID int64, period string) (*Indicators, error) {
	from, to := s.window(userID, period)
	return s.indicators(userID, from, to)
}

// CategoryExpense is one slice of the expenses-by-category breakdown.
type CategoryExpense struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        int64   `json:"total"`
	Percentage   float64 `json:"percentage"`
}

func (s *AnalyticsService) ExpensesByCategory(userID int64, period string) ([]CategoryExpense, error) {
	from, to := s.window(userID, period)
	rows, err := s.db.Query(`
	SELECT c.id, c.name, COALESCE(SUM(t.total_amount), 0) AS total
	FROM transactions t
	JOIN categories c ON c.id = t.category_id
	WHERE t.user_id = ? AND t.type = ? AND t.date BETWEEN ? AND ?
	GROUP BY c.id, c.name
	ORDER BY total DESC`, userID, model.TransactionTypeExpense, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []CategoryExpense{}
	var grandTotal int64
	for rows.Next() {
		var e CategoryExpense
		if err := rows.Scan(&e.CategoryID, &e.CategoryName, &e.Total); err != nil {
			return nil, err
		}
		grandTotal += e.Total
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range expenses {
		if grandTotal > 0 {
			expenses[i].Percentage = utils.RoundFloat(float64(expenses[i].Total)*100/float64(grandTotal), 2)
		}
	}
	return expenses, nil
}

// DailyFlow is one day's income and expense totals.
type DailyFlow struct {
	Date     string `json:"date"`
	Income   int64  `json:"income"`
	Expenses int64  `json:"expenses"`
}

func (s *AnalyticsService) DailyFlow(userID int64, period string) ([]DailyFlow, error) {
	from, to := s.window(userID, period)
	rows, err := s.db.Query(`
	SELECT date,
		COALESCE(SUM(CASE WHEN type = ? THEN total_amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = ? THEN total_amount ELSE 0 END), 0)
	FROM transactions
	WHERE user_id = ? AND date BETWEEN ? AND ?
	GROUP BY date
	ORDER BY date ASC`,
		model.TransactionTypeIncome, model.TransactionTypeExpense, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flow := []DailyFlow{}
	for rows.Next() {
		var d DailyFlow
		if err := rows.Scan(&d.Date, &d.Income, &d.Expenses); err != nil {
			return nil, err
		}
		flow = append(flow, d)
	}
	return flow, rows.Err()
}

// PeriodComparison puts two period windows side by side.
type PeriodComparison struct {
	Current  Indicators `json:"current"`
	Previous Indicators `json:"previous"`
}

func (s *AnalyticsService) PeriodComparison(userID int64, period, comparedTo string) (*PeriodComparison, error) {
	now := time.Now().In(s.notifier.Location(userID))
	from, to := processors.ResolvePeriod(period, now)

	prevFrom, prevTo := processors.ResolvePeriod(comparedTo, now)
	if comparedTo == "" {
		// Default comparison window: the span of same length immediately
		// before the current one.
		fromDate, err := time.Parse(model.DateLayout, from)
		if err != nil {
			return nil, err
		}
		toDate, err := time.Parse(model.DateLayout, to)
		if err != nil {
			return nil, err
		}
		span := toDate.Sub(fromDate) + 24*time.Hour
		prevTo = fromDate.AddDate(0, 0, -1).Format(model.DateLayout)
		prevFrom = fromDate.Add(-span).Format(model.DateLayout)
	}

	current, err := s.indicators(userID, from, to)
	if err != nil {
		return nil, err
	}
	previous, err := s.indicators(userID, prevFrom, prevTo)
	if err != nil {
		return nil, err
	}
	return &PeriodComparison{Current: *current, Previous: *previous}, nil
}
