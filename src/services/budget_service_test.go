package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func seedBudget(t *testing.T, e *testEngine, userID, categoryID int64, limit, threshold int64) *model.Budget {
	t.Helper()
	budget, err := e.budgets.Create(userID, BudgetInput{
		CategoryID:      categoryID,
		Amount:          limit,
		Currency:        "COP",
		CalculationMode: model.BudgetModeTotal,
		Period:          model.BudgetPeriodMonthly,
		StartDate:       "2025-01-01",
		AlertThreshold:  threshold,
	})
	require.NoError(t, err)
	return budget
}

func spend(t *testing.T, e *testEngine, userID, accountID, categoryID, base int64, date string) {
	t.Helper()
	_, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: accountID,
		CategoryID:      &categoryID,
		Date:            date,
		BaseAmount:      int64Ptr(base),
	})
	require.NoError(t, err)
}

func TestBudgetWarningThenExceeded(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	budget := seedBudget(t, e, userID, food.ID, 1000000, 80)

	// First expense crosses the warning threshold.
	spend(t, e, userID, bank.ID, food.ID, 830000, "2025-06-05")
	alerts, err := model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, model.AlertTypeWarning, alerts[0].AlertType)

	// A second expense in the same month that stays below 100% must not
	// duplicate the warning.
	spend(t, e, userID, bank.ID, food.ID, 50000, "2025-06-10")
	alerts, err = model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// Crossing 100% raises a distinct exceeded alert.
	spend(t, e, userID, bank.ID, food.ID, 200000, "2025-06-20")
	alerts, err = model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	kinds := map[string]bool{}
	for _, a := range alerts {
		kinds[a.AlertType] = true
	}
	require.True(t, kinds[model.AlertTypeWarning])
	require.True(t, kinds[model.AlertTypeExceeded])

	// Every inserted alert fans out a notification.
	notifications, err := model.ListNotifications(e.db, userID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
}

func TestBudgetAlertsNotRetracted(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	budget := seedBudget(t, e, userID, food.ID, 1000000, 80)

	spend(t, e, userID, bank.ID, food.ID, 900000, "2025-06-05")
	alerts, err := model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// Deleting the expense drops consumption back to zero, but the alert
	// already raised stays.
	transactions, err := model.ListTransactions(e.db, userID, model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	require.NoError(t, e.transactions.Delete(userID, transactions[0].ID))

	alerts, err = model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
}

func TestBudgetIgnoresOtherMonths(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	budget := seedBudget(t, e, userID, food.ID, 1000000, 80)

	// Spending split across two months never crosses a threshold within
	// a single window.
	spend(t, e, userID, bank.ID, food.ID, 500000, "2025-06-28")
	spend(t, e, userID, bank.ID, food.ID, 500000, "2025-07-02")

	alerts, err := model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestBudgetSpendingBeforeStartDateIgnored(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 100000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	budget, err := e.budgets.Create(userID, BudgetInput{
		CategoryID:      food.ID,
		Amount:          1000000,
		Currency:        "COP",
		CalculationMode: model.BudgetModeTotal,
		Period:          model.BudgetPeriodMonthly,
		StartDate:       "2025-06-15",
		AlertThreshold:  80,
	})
	require.NoError(t, err)

	spend(t, e, userID, bank.ID, food.ID, 900000, "2025-06-10")
	alerts, err := model.ListAlerts(e.db, userID, budget.ID, false)
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestBudgetDuplicateWindowRejected(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)
	seedBudget(t, e, userID, food.ID, 1000000, 80)

	_, err := e.budgets.Create(userID, BudgetInput{
		CategoryID:      food.ID,
		Amount:          2000000,
		Currency:        "COP",
		CalculationMode: model.BudgetModeTotal,
		Period:          model.BudgetPeriodMonthly,
		StartDate:       "2025-01-01",
		AlertThreshold:  90,
	})
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestBudgetRejectsIncomeCategory(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	salary := seedCategory(t, e.db, userID, "Salary", model.CategoryTypeIncome)

	_, err := e.budgets.Create(userID, BudgetInput{
		CategoryID:      salary.ID,
		Amount:          1000000,
		Currency:        "COP",
		CalculationMode: model.BudgetModeTotal,
		Period:          model.BudgetPeriodMonthly,
		StartDate:       "2025-01-01",
		AlertThreshold:  80,
	})
	require.True(t, model.IsValidation(err))
}
