package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/fx"
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/services"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// noRates never resolves a rate; the handler tests post in the account
// currency only.
type noRates struct{}

func (noRates) Rate(from, to string, on time.Time) (decimal.Decimal, error) {
	return decimal.Zero, fx.ErrRateUnavailable
}

type handlerFixture struct {
	transactions *TransactionHandler
	bills        *BillHandler
	userID       int64
	account      *model.Account
	category     *model.Category
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "finanzas_test.db"))
	db := database.DB
	t.Cleanup(func() { db.Close() })

	dispatcher := services.NewDispatcher()
	accounts := services.NewAccountService(db, cache.New(time.Minute, time.Minute))
	transactions := services.NewTransactionService(db, noRates{}, dispatcher, accounts)
	notifier := services.NewNotificationService(db, &services.MockEmailService{}, "America/Bogota")
	bills := services.NewBillService(db, transactions, notifier)

	user := &model.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, user.CreateUser(db))

	account := &model.Account{
		UserID:         user.ID,
		Name:           "Bank",
		Kind:           model.AccountKindAsset,
		Category:       model.AccountCategoryBank,
		Currency:       "COP",
		CurrentBalance: 10000000,
		IsActive:       true,
	}
	require.NoError(t, account.Create(db))

	category := &model.Category{
		UserID:   user.ID,
		Name:     "Food",
		Type:     model.CategoryTypeExpense,
		IsActive: true,
	}
	require.NoError(t, category.Create(db))

	return &handlerFixture{
		transactions: NewTransactionHandler(transactions),
		bills:        NewBillHandler(bills),
		userID:       user.ID,
		account:      account,
		category:     category,
	}
}

func authedRequest(t *testing.T, userID int64, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), userIDContextKey, userID))
}

func TestCreateTransactionSanitizesFreeText(t *testing.T) {
	f := newHandlerFixture(t)

	req := authedRequest(t, f.userID, http.MethodPost, "/api/transactions", services.CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: f.account.ID,
		CategoryID:      &f.category.ID,
		Date:            "2025-06-01",
		Description:     "\x07  Coffee shop  ",
		Note:            "\x01checked\x01",
		Tag:             "  monthly  ",
		BaseAmount:      int64Ptr(10000),
	})
	rr := httptest.NewRecorder()
	f.transactions.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var tx model.Transaction
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&tx))
	require.Equal(t, "Coffee shop", tx.Description)
	require.Equal(t, "checked", tx.Note)
	require.Equal(t, "monthly", tx.Tag)

	stored, err := model.GetTransactionByID(database.DB, f.userID, tx.ID)
	require.NoError(t, err)
	require.Equal(t, "Coffee shop", stored.Description)
}

func TestCreateBillSanitizesProvider(t *testing.T) {
	f := newHandlerFixture(t)

	req := authedRequest(t, f.userID, http.MethodPost, "/api/bills", services.BillInput{
		Provider: "\x07 Acme Power \x00",
		Amount:   100000,
		DueDate:  "2030-01-15",
	})
	rr := httptest.NewRecorder()
	f.bills.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var bill model.Bill
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&bill))
	require.Equal(t, "Acme Power", bill.Provider)
}

func int64Ptr(v int64) *int64 { return &v }
