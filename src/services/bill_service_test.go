package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

// bogotaDate returns today+n days as YYYY-MM-DD in the timezone the
// test engine's notifier resolves for every user.
func bogotaDate(t *testing.T, n int) string {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	return time.Now().In(loc).AddDate(0, 0, n).Format(model.DateLayout)
}

func TestBillPaymentLinksTransaction(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)

	bill, err := e.bills.Create(userID, BillInput{
		Provider:           "Acme Power",
		Amount:             200000,
		DueDate:            bogotaDate(t, 10),
		ReminderDaysBefore: 3,
	})
	require.NoError(t, err)
	require.Equal(t, model.BillStatusPending, bill.Status)

	paid, tx, err := e.bills.RegisterPayment(userID, bill.ID, bank.ID, bogotaDate(t, 0), "june invoice")
	require.NoError(t, err)
	require.Equal(t, model.BillStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentTransactionID)
	require.Equal(t, tx.ID, *paid.PaymentTransactionID)
	require.Equal(t, "Acme Power bill payment", tx.Description)

	// Base 200000 plus the 4x1000 levy.
	require.Equal(t, int64(200800), tx.TotalAmount)
	require.Equal(t, int64(10000000-200800), accountBalance(t, e.db, userID, bank.ID))

	// No category on the bill means the payment lands in the default
	// expense category.
	require.NotNil(t, tx.CategoryID)
	category, err := model.GetCategoryByID(e.db, userID, *tx.CategoryID)
	require.NoError(t, err)
	require.Equal(t, "Services", category.Name)
	require.True(t, category.IsDefault)
}

func TestBillDoublePaymentConflict(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)

	bill, err := e.bills.Create(userID, BillInput{
		Provider: "Water Co",
		Amount:   100000,
		DueDate:  bogotaDate(t, 5),
	})
	require.NoError(t, err)

	_, _, err = e.bills.RegisterPayment(userID, bill.ID, bank.ID, bogotaDate(t, 0), "")
	require.NoError(t, err)

	_, _, err = e.bills.RegisterPayment(userID, bill.ID, bank.ID, bogotaDate(t, 0), "")
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestDeletingPaymentRevertsBill(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)

	bill, err := e.bills.Create(userID, BillInput{
		Provider: "Gas Co",
		Amount:   150000,
		DueDate:  bogotaDate(t, 7),
	})
	require.NoError(t, err)

	_, tx, err := e.bills.RegisterPayment(userID, bill.ID, bank.ID, bogotaDate(t, 0), "")
	require.NoError(t, err)

	require.NoError(t, e.transactions.Delete(userID, tx.ID))

	reverted, err := model.GetBillByID(e.db, userID, bill.ID)
	require.NoError(t, err)
	require.Equal(t, model.BillStatusPending, reverted.Status)
	require.Nil(t, reverted.PaymentTransactionID)
	require.Equal(t, int64(10000000), accountBalance(t, e.db, userID, bank.ID))
}

func TestBillOverdueOnCreate(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	bill, err := e.bills.Create(userID, BillInput{
		Provider: "Old Debt",
		Amount:   50000,
		DueDate:  bogotaDate(t, -5),
	})
	require.NoError(t, err)
	require.Equal(t, model.BillStatusOverdue, bill.Status)

	overdue, err := e.bills.Overdue(userID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	pending, err := e.bills.Pending(userID)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestBillValidation(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	_, err := e.bills.Create(userID, BillInput{Provider: "", Amount: 1000, DueDate: "2025-06-01"})
	require.True(t, model.IsValidation(err))

	_, err = e.bills.Create(userID, BillInput{Provider: "X", Amount: 0, DueDate: "2025-06-01"})
	require.True(t, model.IsValidation(err))

	_, err = e.bills.Create(userID, BillInput{Provider: "X", Amount: 1000, DueDate: "06/01/2025"})
	require.True(t, model.IsValidation(err))

	salary := seedCategory(t, e.db, userID, "Salary", model.CategoryTypeIncome)
	_, err = e.bills.Create(userID, BillInput{Provider: "X", Amount: 1000, DueDate: "2025-06-01", CategoryID: &salary.ID})
	require.True(t, model.IsValidation(err))
}
