package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func TestSummaryAggregatesByKindAndCurrency(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	seedBankAccount(t, e.db, userID, "Bank COP", "COP", 5000000)
	seedBankAccount(t, e.db, userID, "Bank USD", "USD", 1200)
	seedCreditCard(t, e.db, userID, "Visa", 3000000, -500000)

	summary, err := e.accounts.Summary(userID)
	require.NoError(t, err)
	require.Equal(t, int64(5001200), summary.Assets)
	require.Equal(t, int64(500000), summary.Liabilities)
	require.Equal(t, int64(4501200), summary.NetWorth)

	cop := summary.ByCurrency["COP"]
	require.Equal(t, int64(5000000), cop.Assets)
	require.Equal(t, int64(500000), cop.Liabilities)
	require.Equal(t, int64(4500000), cop.NetWorth)

	usd := summary.ByCurrency["USD"]
	require.Equal(t, int64(1200), usd.Assets)
	require.Equal(t, int64(0), usd.Liabilities)
}

func TestSummaryCacheInvalidation(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 1000000)

	summary, err := e.accounts.Summary(userID)
	require.NoError(t, err)
	require.Equal(t, int64(1000000), summary.Assets)

	// A balance correction through the service drops the cached summary.
	require.NoError(t, e.accounts.SetBalance(userID, bank.ID, 2500000))
	summary, err = e.accounts.Summary(userID)
	require.NoError(t, err)
	require.Equal(t, int64(2500000), summary.Assets)
}

func TestCreditCardSnapshotTracksPayments(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	card := seedCreditCard(t, e.db, userID, "Visa", 3000000, -1500000)

	// Paying 900000 of capital toward the card.
	_, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:                 model.TransactionTypeTransfer,
		OriginAccountID:      bank.ID,
		DestinationAccountID: &card.ID,
		Date:                 "2025-06-01",
		BaseAmount:           int64Ptr(1000000),
		CapitalAmount:        int64Ptr(900000),
	})
	require.NoError(t, err)

	account, err := model.GetAccountByID(e.db, userID, card.ID)
	require.NoError(t, err)
	snapshot, err := e.accounts.CreditCardSnapshot(userID, account)
	require.NoError(t, err)
	require.Equal(t, int64(3000000), snapshot.CreditLimit)
	require.Equal(t, int64(600000), snapshot.UsedCredit)
	require.Equal(t, int64(2400000), snapshot.AvailableCredit)
	require.Equal(t, int64(900000), snapshot.TotalPaid)
	require.InDelta(t, 20.0, snapshot.UtilizationPct, 0.01)

	_, err = e.accounts.CreditCardSnapshot(userID, &model.Account{Category: model.AccountCategoryBank})
	require.True(t, model.IsValidation(err))
}

func TestDeleteDeactivatesReferencedAccount(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	food := seedCategory(t, e.db, userID, "Food", model.CategoryTypeExpense)

	_, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-06-01",
		BaseAmount:      int64Ptr(100000),
	})
	require.NoError(t, err)

	validation, err := e.accounts.ValidateDelete(userID, bank.ID)
	require.NoError(t, err)
	require.False(t, validation.CanDelete)
	require.NotEmpty(t, validation.Errors)

	require.NoError(t, e.accounts.Delete(userID, bank.ID))

	account, err := model.GetAccountByID(e.db, userID, bank.ID)
	require.NoError(t, err)
	require.False(t, account.IsActive)
}

func TestDeleteRemovesUnreferencedAccount(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 0)

	validation, err := e.accounts.ValidateDelete(userID, bank.ID)
	require.NoError(t, err)
	require.True(t, validation.CanDelete)

	require.NoError(t, e.accounts.Delete(userID, bank.ID))
	_, err = model.GetAccountByID(e.db, userID, bank.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}
