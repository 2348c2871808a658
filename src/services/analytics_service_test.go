package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func TestIndicatorsSplitByType(t *testing.T) {
	e := newTestEngine(t)
	analytics := NewAnalyticsService(e.db, e.notifier)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	salary := seedCategory(t, e.db, userID, "Salary", model.CategoryTypeIncome)

	_, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeIncome,
		OriginAccountID: bank.ID,
		CategoryID:      &salary.ID,
		Date:            "2025-06-01",
		BaseAmount:      int64Ptr(5000000),
	})
	require.NoError(t, err)
	spend(t, e, userID, bank.ID, food.ID, 1000000, "2025-06-10")

	ind, err := analytics.Indicators(userID, "2025-06")
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", ind.From)
	require.Equal(t, "2025-06-30", ind.To)
	require.Equal(t, int64(5000000), ind.Income)
	require.Equal(t, int64(1004000), ind.Expenses)
	require.Equal(t, int64(5000000-1004000), ind.NetCashFlow)

	// A window with no activity reports zeros.
	empty, err := analytics.Indicators(userID, "2025-01")
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.Income)
	require.Equal(t, int64(0), empty.Expenses)
}

func TestExpensesByCategoryPercentages(t *testing.T) {
	e := newTestEngine(t)
	analytics := NewAnalyticsService(e.db, e.notifier)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	transport := seedCategory(t, e.db, userID, "Transport", model.CategoryTypeExpense)

	spend(t, e, userID, bank.ID, food.ID, 3000000, "2025-06-05")
	spend(t, e, userID, bank.ID, transport.ID, 1000000, "2025-06-06")

	expenses, err := analytics.ExpensesByCategory(userID, "2025-06")
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	// Sorted by total descending; levy included in the totals keeps the
	// shares at exactly 75/25.
	require.Equal(t, food.ID, expenses[0].CategoryID)
	require.Equal(t, int64(3012000), expenses[0].Total)
	require.InDelta(t, 75.0, expenses[0].Percentage, 0.01)
	require.Equal(t, transport.ID, expenses[1].CategoryID)
	require.InDelta(t, 25.0, expenses[1].Percentage, 0.01)
}

func TestDailyFlowGroupsByDate(t *testing.T) {
	e := newTestEngine(t)
	analytics := NewAnalyticsService(e.db, e.notifier)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	salary := seedCategory(t, e.db, userID, "Salary", model.CategoryTypeIncome)

	spend(t, e, userID, bank.ID, food.ID, 100000, "2025-06-03")
	spend(t, e, userID, bank.ID, food.ID, 200000, "2025-06-03")
	_, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeIncome,
		OriginAccountID: bank.ID,
		CategoryID:      &salary.ID,
		Date:            "2025-06-04",
		BaseAmount:      int64Ptr(1000000),
	})
	require.NoError(t, err)

	flow, err := analytics.DailyFlow(userID, "2025-06")
	require.NoError(t, err)
	require.Len(t, flow, 2)
	require.Equal(t, "2025-06-03", flow[0].Date)
	require.Equal(t, int64(301200), flow[0].Expenses)
	require.Equal(t, int64(0), flow[0].Income)
	require.Equal(t, "2025-06-04", flow[1].Date)
	require.Equal(t, int64(1000000), flow[1].Income)
}

func TestPeriodComparisonDefaultsToPrecedingWindow(t *testing.T) {
	e := newTestEngine(t)
	analytics := NewAnalyticsService(e.db, e.notifier)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	spend(t, e, userID, bank.ID, food.ID, 500000, "2025-06-10")
	spend(t, e, userID, bank.ID, food.ID, 300000, "2025-05-10")

	comparison, err := analytics.PeriodComparison(userID, "2025-06", "")
	require.NoError(t, err)
	require.Equal(t, int64(502000), comparison.Current.Expenses)
	// The default previous window has the same length as the current one,
	// 30 days here, ending the day before it starts.
	require.Equal(t, "2025-05-02", comparison.Previous.From)
	require.Equal(t, "2025-05-31", comparison.Previous.To)
	require.Equal(t, int64(301200), comparison.Previous.Expenses)
}
