package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

func TestCreateExpenseDerivesTaxAndLevy(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bancolombia", "COP", 20000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-10",
		Description:     "Laptop",
		BaseAmount:      int64Ptr(10000000),
		TaxPercentage:   19,
	})
	require.NoError(t, err)
	require.Equal(t, int64(10000000), tx.BaseAmount)
	require.Equal(t, int64(1900000), tx.TaxedAmount)
	require.Equal(t, int64(47600), tx.GMFAmount)
	require.Equal(t, int64(11947600), tx.TotalAmount)

	require.Equal(t, int64(20000000-11947600), accountBalance(t, e.db, userID, bank.ID))
}

func TestCreateExpenseFromTotalBackSolvesBase(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 50000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-10",
		TotalAmount:     int64Ptr(11900000),
		TaxPercentage:   19,
	})
	require.NoError(t, err)
	require.Equal(t, int64(10000000), tx.BaseAmount)
	require.Equal(t, int64(1900000), tx.TaxedAmount)
	// Total is recomputed from the parts, including the levy.
	require.Equal(t, tx.BaseAmount+tx.TaxedAmount+tx.GMFAmount, tx.TotalAmount)
}

func TestCreateExpenseInsufficientBalance(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 1000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	_, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-10",
		BaseAmount:      int64Ptr(2000),
	})
	require.Error(t, err)
	require.True(t, model.IsValidation(err))

	// Nothing persisted, nothing moved.
	require.Equal(t, int64(1000), accountBalance(t, e.db, userID, bank.ID))
	transactions, err := model.ListTransactions(e.db, userID, model.TransactionFilter{})
	require.NoError(t, err)
	require.Empty(t, transactions)
}

func TestCreditCardPaymentSplitsCapitalAndInterest(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 5000000)
	card := seedCreditCard(t, e.db, userID, "Visa", 3000000, -1500000)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:                 model.TransactionTypeTransfer,
		OriginAccountID:      bank.ID,
		DestinationAccountID: &card.ID,
		Date:                 "2025-04-01",
		BaseAmount:           int64Ptr(1000000),
		CapitalAmount:        int64Ptr(900000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(4000), tx.GMFAmount)
	require.Equal(t, int64(1004000), tx.TotalAmount)
	require.Equal(t, int64(900000), tx.CapitalAmount)
	require.Equal(t, int64(104000), tx.InterestAmount)

	// Origin loses the full total; the card's debt shrinks only by the
	// capital portion.
	require.Equal(t, int64(5000000-1004000), accountBalance(t, e.db, userID, bank.ID))
	require.Equal(t, int64(-1500000+900000), accountBalance(t, e.db, userID, card.ID))
}

func TestTransferBetweenBanksCreditsBaseAmount(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	origin := seedBankAccount(t, e.db, userID, "Checking", "COP", 2000000)
	dest := seedBankAccount(t, e.db, userID, "Savings", "COP", 0)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:                 model.TransactionTypeTransfer,
		OriginAccountID:      origin.ID,
		DestinationAccountID: &dest.ID,
		Date:                 "2025-04-01",
		BaseAmount:           int64Ptr(1000000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(4000), tx.GMFAmount)

	// The levy never reaches the destination.
	require.Equal(t, int64(2000000-1004000), accountBalance(t, e.db, userID, origin.ID))
	require.Equal(t, int64(1000000), accountBalance(t, e.db, userID, dest.ID))
}

func TestSavingTransactionTracksGoal(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 5000000)

	goal, err := e.goals.Create(userID, GoalInput{Name: "Vacation", TargetAmount: 3000000, Currency: "COP"})
	require.NoError(t, err)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeSaving,
		OriginAccountID: bank.ID,
		GoalID:          &goal.ID,
		Date:            "2025-05-01",
		BaseAmount:      int64Ptr(500000),
	})
	require.NoError(t, err)

	// Savings move goal progress, not account money.
	require.Equal(t, int64(5000000), accountBalance(t, e.db, userID, bank.ID))
	updated, err := model.GetGoalByID(e.db, userID, goal.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500000), updated.SavedAmount)

	require.NoError(t, e.transactions.Delete(userID, tx.ID))
	updated, err = model.GetGoalByID(e.db, userID, goal.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), updated.SavedAmount)
}

func TestUpdateRebalancesAccounts(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 1000000)
	exempt := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &exempt.ID,
		Date:            "2025-03-10",
		BaseAmount:      int64Ptr(100000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000000-100400), accountBalance(t, e.db, userID, bank.ID))

	_, err = e.transactions.Update(userID, tx.ID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &exempt.ID,
		Date:            "2025-03-10",
		BaseAmount:      int64Ptr(200000),
	})
	require.NoError(t, err)

	// The old posting is fully reversed before the new one applies.
	require.Equal(t, int64(1000000-200800), accountBalance(t, e.db, userID, bank.ID))
}

func TestDeleteRestoresBalances(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 1000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-10",
		BaseAmount:      int64Ptr(100000),
	})
	require.NoError(t, err)

	require.NoError(t, e.transactions.Delete(userID, tx.ID))
	require.Equal(t, int64(1000000), accountBalance(t, e.db, userID, bank.ID))

	_, err = model.GetTransactionByID(e.db, userID, tx.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDuplicateAppliesTwice(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 1000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-10",
		BaseAmount:      int64Ptr(100000),
	})
	require.NoError(t, err)

	dup, err := e.transactions.Duplicate(userID, tx.ID)
	require.NoError(t, err)
	require.NotEqual(t, tx.ID, dup.ID)
	require.Equal(t, tx.TotalAmount, dup.TotalAmount)
	require.Equal(t, tx.Date, dup.Date)

	require.Equal(t, int64(1000000-2*100400), accountBalance(t, e.db, userID, bank.ID))
}

func TestBulkDeleteSkipsMissing(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 1000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-10",
		BaseAmount:      int64Ptr(100000),
	})
	require.NoError(t, err)

	deleted, err := e.transactions.BulkDelete(userID, []int64{tx.ID, 99999})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Equal(t, int64(1000000), accountBalance(t, e.db, userID, bank.ID))
}

func TestConversionWarningKeepsNativeAmount(t *testing.T) {
	e := newTestEngine(t) // rate provider always fails
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:                model.TransactionTypeExpense,
		OriginAccountID:     bank.ID,
		CategoryID:          &food.ID,
		Date:                "2025-03-10",
		BaseAmount:          int64Ptr(100),
		TransactionCurrency: strPtr("USD"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, tx.ConversionWarning)
	require.Nil(t, tx.ExchangeRate)
	require.NotNil(t, tx.OriginalAmount)
	require.Equal(t, int64(100), *tx.OriginalAmount)
	require.Equal(t, int64(100), tx.BaseAmount)
}

func TestConversionAppliesRate(t *testing.T) {
	e := newTestEngineWithRates(t, stubRates{rate: decimal.NewFromInt(4000)})
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:                model.TransactionTypeExpense,
		OriginAccountID:     bank.ID,
		CategoryID:          &food.ID,
		Date:                "2025-03-10",
		BaseAmount:          int64Ptr(100),
		TransactionCurrency: strPtr("USD"),
	})
	require.NoError(t, err)
	require.Empty(t, tx.ConversionWarning)
	require.NotNil(t, tx.ExchangeRate)
	require.Equal(t, "4000", *tx.ExchangeRate)
	require.Equal(t, int64(400000), tx.BaseAmount)
	require.Equal(t, int64(100), *tx.OriginalAmount)
}

func TestRuleAssignsCategoryOnCreate(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	transport := seedCategory(t, e.db, userID, "Transport", model.CategoryTypeExpense)

	rule, err := e.rules.Create(userID, RuleInput{
		Name:             "Rides",
		CriteriaType:     model.RuleCriteriaDescriptionContains,
		Keyword:          strPtr("uber"),
		ActionType:       model.RuleActionAssignCategory,
		TargetCategoryID: &transport.ID,
	})
	require.NoError(t, err)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		Date:            "2025-03-10",
		Description:     "Uber to airport",
		BaseAmount:      int64Ptr(35000),
	})
	require.NoError(t, err)
	require.NotNil(t, tx.CategoryID)
	require.Equal(t, transport.ID, *tx.CategoryID)
	require.NotNil(t, tx.AppliedRuleID)
	require.Equal(t, rule.ID, *tx.AppliedRuleID)

	// A manual category on update keeps the applied rule; a changed one
	// clears it.
	updated, err := e.transactions.Update(userID, tx.ID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &transport.ID,
		Date:            "2025-03-10",
		Description:     "Uber to airport",
		BaseAmount:      int64Ptr(35000),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AppliedRuleID)

	other := seedCategory(t, e.db, userID, "Other Expenses", model.CategoryTypeExpense)
	updated, err = e.transactions.Update(userID, tx.ID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &other.ID,
		Date:            "2025-03-10",
		Description:     "Uber to airport",
		BaseAmount:      int64Ptr(35000),
	})
	require.NoError(t, err)
	require.Nil(t, updated.AppliedRuleID)
}

func TestCategoryRuleSkippedOnTransfer(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	savings := seedBankAccount(t, e.db, userID, "Savings", "COP", 0)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	_, err := e.rules.Create(userID, RuleInput{
		Name:                  "Classify transfers",
		CriteriaType:          model.RuleCriteriaTransactionType,
		TargetTransactionType: int64Ptr(model.TransactionTypeTransfer),
		ActionType:            model.RuleActionAssignCategory,
		TargetCategoryID:      &food.ID,
	})
	require.NoError(t, err)

	// The matching rule cannot put a category on a transfer; it is
	// skipped and the posting commits unclassified.
	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:                 model.TransactionTypeTransfer,
		OriginAccountID:      bank.ID,
		DestinationAccountID: &savings.ID,
		Date:                 "2025-03-10",
		BaseAmount:           int64Ptr(1000000),
	})
	require.NoError(t, err)
	require.Nil(t, tx.CategoryID)
	require.Nil(t, tx.AppliedRuleID)
	require.Equal(t, int64(1000000), accountBalance(t, e.db, userID, savings.ID))
}

func TestCategoryRuleSkippedOnTypeMismatch(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	salary := seedCategory(t, e.db, userID, "Salary", model.CategoryTypeIncome)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	_, err := e.rules.Create(userID, RuleInput{
		Name:             "Refund",
		CriteriaType:     model.RuleCriteriaDescriptionContains,
		Keyword:          strPtr("refund"),
		ActionType:       model.RuleActionAssignCategory,
		TargetCategoryID: &salary.ID,
	})
	require.NoError(t, err)

	// An income category never lands on an expense. The rule is skipped,
	// so the failure is the ordinary missing-category one, not a
	// complaint about the rule's target.
	_, err = e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		Date:            "2025-03-11",
		Description:     "store refund fee",
		BaseAmount:      int64Ptr(20000),
	})
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "expense requires a category", vErr.Message)

	// With a manual category the same posting commits.
	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-03-11",
		Description:     "store refund fee",
		BaseAmount:      int64Ptr(20000),
	})
	require.NoError(t, err)
	require.Equal(t, food.ID, *tx.CategoryID)
	require.Nil(t, tx.AppliedRuleID)
}
