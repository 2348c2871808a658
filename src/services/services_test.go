package services

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/fx"
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// stubRates is a deterministic RateProvider for tests.
type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s stubRates) Rate(from, to string, on time.Time) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.rate, nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "finanzas_test.db"))
	db := database.DB
	t.Cleanup(func() { db.Close() })
	return db
}

// testEngine bundles the full service graph on a throwaway database,
// wired the same way main does it.
type testEngine struct {
	db           *sql.DB
	dispatcher   *Dispatcher
	accounts     *AccountService
	transactions *TransactionService
	notifier     *NotificationService
	budgets      *BudgetService
	goals        *GoalService
	bills        *BillService
	soats        *SOATService
	reminders    *ReminderService
	rules        *RuleService
	categories   *CategoryService
}

func newTestEngine(t *testing.T) *testEngine {
	return newTestEngineWithRates(t, stubRates{err: fx.ErrRateUnavailable})
}

func newTestEngineWithRates(t *testing.T, rates fx.RateProvider) *testEngine {
	t.Helper()
	db := newTestDB(t)

	dispatcher := NewDispatcher()
	accounts := NewAccountService(db, cache.New(time.Minute, time.Minute))
	transactions := NewTransactionService(db, rates, dispatcher, accounts)
	notifier := NewNotificationService(db, &MockEmailService{}, "America/Bogota")
	budgets := NewBudgetService(db, notifier)
	goals := NewGoalService(db)
	bills := NewBillService(db, transactions, notifier)
	soats := NewSOATService(db, transactions, notifier, bills)

	dispatcher.Register(budgets)
	dispatcher.Register(goals)
	dispatcher.Register(NewPaymentLinkageHandler(db, notifier))

	return &testEngine{
		db:           db,
		dispatcher:   dispatcher,
		accounts:     accounts,
		transactions: transactions,
		notifier:     notifier,
		budgets:      budgets,
		goals:        goals,
		bills:        bills,
		soats:        soats,
		reminders:    NewReminderService(db, notifier),
		rules:        NewRuleService(db),
		categories:   NewCategoryService(db),
	}
}

func seedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "hash"}
	if err := u.CreateUser(db); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return u.ID
}

func seedBankAccount(t *testing.T, db *sql.DB, userID int64, name, currency string, balance int64) *model.Account {
	t.Helper()
	a := &model.Account{
		UserID:         userID,
		Name:           name,
		Kind:           model.AccountKindAsset,
		Category:       model.AccountCategoryBank,
		Currency:       currency,
		CurrentBalance: balance,
		IsActive:       true,
	}
	if err := a.Create(db); err != nil {
		t.Fatalf("seeding account %s: %v", name, err)
	}
	return a
}

func seedCreditCard(t *testing.T, db *sql.DB, userID int64, name string, limit, balance int64) *model.Account {
	t.Helper()
	a := &model.Account{
		UserID:         userID,
		Name:           name,
		Kind:           model.AccountKindLiability,
		Category:       model.AccountCategoryCreditCard,
		Currency:       "COP",
		CurrentBalance: balance,
		CreditLimit:    &limit,
		IsActive:       true,
	}
	if err := a.Create(db); err != nil {
		t.Fatalf("seeding credit card %s: %v", name, err)
	}
	return a
}

func seedCategory(t *testing.T, db *sql.DB, userID int64, name, categoryType string) *model.Category {
	t.Helper()
	c := &model.Category{
		UserID:   userID,
		Name:     name,
		Type:     categoryType,
		IsActive: true,
	}
	if err := c.Create(db); err != nil {
		t.Fatalf("seeding category %s: %v", name, err)
	}
	return c
}

func accountBalance(t *testing.T, db *sql.DB, userID, accountID int64) int64 {
	t.Helper()
	account, err := model.GetAccountByID(db, userID, accountID)
	if err != nil {
		t.Fatalf("reading account %d: %v", accountID, err)
	}
	return account.CurrentBalance
}
