package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
)

const (
	ckAccountSummary = "res_account_summary_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// CurrencyTotals breaks the summary down for one currency.
type CurrencyTotals struct {
	Assets      int64 `json:"assets"`
	Liabilities int64 `json:"liabilities"`
	NetWorth    int64 `json:"net_worth"`
}

// AccountSummary aggregates the user's active accounts. Top-level totals
// add across currencies; ByCurrency carries the per-currency truth.
type AccountSummary struct {
	Assets      int64                     `json:"assets"`
	Liabilities int64                     `json:"liabilities"`
	NetWorth    int64                     `json:"net_worth"`
	ByCurrency  map[string]CurrencyTotals `json:"by_currency"`
	ByCategory  map[string]int64          `json:"by_category"`
}

// CreditCardSnapshot is the derived view of one credit-card account.
type CreditCardSnapshot struct {
	AccountID       int64   `json:"account_id"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	CreditLimit     int64   `json:"credit_limit"`
	UsedCredit      int64   `json:"used_credit"`
	AvailableCredit int64   `json:"available_credit"`
	UtilizationPct  float64 `json:"utilization_pct"`
	TotalPaid       int64   `json:"total_paid"`
}

// DeleteValidation is the answer to "can this account go away".
type DeleteValidation struct {
	CanDelete bool     `json:"can_delete"`
	Warnings  []string `json:"warnings"`
	Errors    []string `json:"errors"`
}

type AccountService struct {
	db           *sql.DB
	summaryCache *cache.Cache
}

func NewAccountService(db *sql.DB, summaryCache *cache.Cache) *AccountService {
	return &AccountService{db: db, summaryCache: summaryCache}
}

// InvalidateSummary drops the cached summary after any write touching
// balances or account rows.
func (s *AccountService) InvalidateSummary(userID int64) {
	s.summaryCache.Delete(fmt.Sprintf(ckAccountSummary, userID))
}

// Summary aggregates active accounts, serving from cache when possible.
func (s *AccountService) Summary(userID int64) (*AccountSummary, error) {
	key := fmt.Sprintf(ckAccountSummary, userID)
	if cached, found := s.summaryCache.Get(key); found {
		if summary, ok := cached.(*AccountSummary); ok {
			return summary, nil
		}
	}

	accounts, err := model.ListAccounts(s.db, userID, true)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		ByCurrency: make(map[string]CurrencyTotals),
		ByCategory: make(map[string]int64),
	}
	for _, a := range accounts {
		totals := summary.ByCurrency[a.Currency]
		if a.Kind == model.AccountKindAsset {
			summary.Assets += a.CurrentBalance
			totals.Assets += a.CurrentBalance
		} else {
			summary.Liabilities -= a.CurrentBalance
			totals.Liabilities -= a.CurrentBalance
		}
		totals.NetWorth = totals.Assets - totals.Liabilities
		summary.ByCurrency[a.Currency] = totals
		summary.ByCategory[a.Category] += a.CurrentBalance
	}
	summary.NetWorth = summary.Assets - summary.Liabilities

	s.summaryCache.Set(key, summary, cache.DefaultExpiration)
	return summary, nil
}

// CreditCardSnapshot builds the derived metrics for one card. TotalPaid
// sums the capital portion of transfers into the card plus income posted
// directly on it.
func (s *AccountService) CreditCardSnapshot(userID int64, account *model.Account) (*CreditCardSnapshot, error) {
	if account.Category != model.AccountCategoryCreditCard {
		return nil, model.NewValidationError("account_id", "account is not a credit card")
	}

	var transfersPaid, incomePaid int64
	err := s.db.QueryRow(`
	SELECT COALESCE(SUM(capital_amount), 0) FROM transactions
	WHERE user_id = ? AND type = ? AND destination_account_id = ?`,
		userID, model.TransactionTypeTransfer, account.ID).Scan(&transfersPaid)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRow(`
	SELECT COALESCE(SUM(total_amount), 0) FROM transactions
	WHERE user_id = ? AND type = ? AND origin_account_id = ?`,
		userID, model.TransactionTypeIncome, account.ID).Scan(&incomePaid)
	if err != nil {
		return nil, err
	}

	snapshot := &CreditCardSnapshot{
		AccountID:       account.ID,
		Name:            account.Name,
		Currency:        account.Currency,
		UsedCredit:      account.UsedCredit(),
		AvailableCredit: account.AvailableCredit(),
		TotalPaid:       transfersPaid + incomePaid,
	}
	if account.CreditLimit != nil {
		snapshot.CreditLimit = *account.CreditLimit
		if snapshot.CreditLimit > 0 {
			snapshot.UtilizationPct = float64(snapshot.UsedCredit) * 100 / float64(snapshot.CreditLimit)
		}
	}
	return snapshot, nil
}

// CreditCardsSummary snapshots every active credit card the user holds.
func (s *AccountService) CreditCardsSummary(userID int64) ([]CreditCardSnapshot, error) {
	accounts, err := model.ListAccounts(s.db, userID, true)
	if err != nil {
		return nil, err
	}
	snapshots := []CreditCardSnapshot{}
	for i := range accounts {
		if accounts[i].Category != model.AccountCategoryCreditCard {
			continue
		}
		snapshot, err := s.CreditCardSnapshot(userID, &accounts[i])
		if err != nil {
			logger.L.Error("credit card snapshot failed", "accountID", accounts[i].ID, "error", err)
			continue
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, nil
}

// ValidateDelete checks whether an account can be removed. Referenced
// accounts can only be deactivated; a non-zero balance or being the last
// account in its currency warrants a warning, not a refusal.
func (s *AccountService) ValidateDelete(userID, accountID int64) (*DeleteValidation, error) {
	account, err := model.GetAccountByID(s.db, userID, accountID)
	if err != nil {
		return nil, err
	}

	v := &DeleteValidation{CanDelete: true, Warnings: []string{}, Errors: []string{}}

	refs, err := model.CountAccountTransactions(s.db, userID, accountID)
	if err != nil {
		return nil, err
	}
	if refs > 0 {
		v.CanDelete = false
		v.Errors = append(v.Errors, fmt.Sprintf("account has %d transactions; it will be deactivated instead", refs))
	}
	if account.CurrentBalance != 0 {
		v.Warnings = append(v.Warnings, "account balance is not zero")
	}
	sameCurrency, err := model.CountAccountsInCurrency(s.db, userID, account.Currency)
	if err != nil {
		return nil, err
	}
	if sameCurrency <= 1 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("this is your last %s account", account.Currency))
	}
	return v, nil
}

// Delete removes an unreferenced account, or deactivates one that still
// has transactions.
func (s *AccountService) Delete(userID, accountID int64) error {
	refs, err := model.CountAccountTransactions(s.db, userID, accountID)
	if err != nil {
		return err
	}
	if refs > 0 {
		err = model.DeactivateAccount(s.db, userID, accountID)
	} else {
		err = model.DeleteAccount(s.db, userID, accountID)
	}
	if err != nil {
		return err
	}
	s.InvalidateSummary(userID)
	return nil
}

// SetBalance applies an explicit balance correction outside the engine.
func (s *AccountService) SetBalance(userID, accountID, balance int64) error {
	if err := model.SetAccountBalance(s.db, userID, accountID, balance); err != nil {
		return err
	}
	s.InvalidateSummary(userID)
	return nil
}
