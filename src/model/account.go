package model

import (
	"database/sql"
	"errors"
	"time"
)

// DateLayout is the canonical storage format for date-only columns.
const DateLayout = "2006-01-02"

// ErrNotFound is returned when an entity does not exist within the
// caller's scope. Cross-user references are indistinguishable from
// missing rows on purpose.
var ErrNotFound = errors.New("not found")

const (
	AccountKindAsset     = "asset"
	AccountKindLiability = "liability"
)

const (
	AccountCategoryBank       = "bank"
	AccountCategoryCreditCard = "credit_card"
	AccountCategoryCash       = "cash"
	AccountCategoryInvestment = "investment"
	AccountCategoryOther      = "other"
)

type Account struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	Category       string    `json:"category"`
	Currency       string    `json:"currency"`
	CurrentBalance int64     `json:"current_balance"`
	CreditLimit    *int64    `json:"credit_limit,omitempty"`
	GMFExempt      bool      `json:"gmf_exempt"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UsedCredit is max(0, -balance): a credit card's outstanding debt.
func (a *Account) UsedCredit() int64 {
	if a.CurrentBalance < 0 {
		return -a.CurrentBalance
	}
	return 0
}

// AvailableCredit is credit_limit + balance (balance ≤ 0 for debt).
func (a *Account) AvailableCredit() int64 {
	if a.CreditLimit == nil {
		return 0
	}
	return *a.CreditLimit + a.CurrentBalance
}

func ValidAccountKind(kind string) bool {
	return kind == AccountKindAsset || kind == AccountKindLiability
}

func ValidAccountCategory(category string) bool {
	switch category {
	case AccountCategoryBank, AccountCategoryCreditCard, AccountCategoryCash,
		AccountCategoryInvestment, AccountCategoryOther:
		return true
	}
	return false
}

func (a *Account) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO accounts (user_id, name, kind, category, currency, current_balance, credit_limit, gmf_exempt, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Kind, a.Category, a.Currency, a.CurrentBalance, a.CreditLimit, a.GMFExempt, a.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.Category, &a.Currency,
		&a.CurrentBalance, &a.CreditLimit, &a.GMFExempt, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

const accountColumns = `id, user_id, name, kind, category, currency, current_balance, credit_limit, gmf_exempt, is_active, created_at, updated_at`

// GetAccountByID retrieves an account scoped to its owner.
func GetAccountByID(db *sql.DB, userID, id int64) (*Account, error) {
	row := db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return scanAccount(row)
}

// ListAccounts returns the user's accounts, optionally only active ones.
func ListAccounts(db *sql.DB, userID int64, activeOnly bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []Account{}
	}
	return accounts, nil
}

func (a *Account) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE accounts
	SET name = ?, kind = ?, category = ?, currency = ?, credit_limit = ?, gmf_exempt = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		a.Name, a.Kind, a.Category, a.Currency, a.CreditLimit, a.GMFExempt, a.IsActive, a.ID, a.UserID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountBalance is an explicit balance correction outside the engine.
func SetAccountBalance(db *sql.DB, userID, id, balance int64) error {
	res, err := db.Exec(`UPDATE accounts SET current_balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		balance, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateAccount soft-deletes an account that is still referenced.
func DeactivateAccount(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`UPDATE accounts SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount hard-deletes an unreferenced account.
func DeleteAccount(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAccountTransactions reports how many transactions reference the
// account as origin or destination.
func CountAccountTransactions(db *sql.DB, userID, accountID int64) (int64, error) {
	var count int64
	err := db.QueryRow(`
	SELECT COUNT(*) FROM transactions
	WHERE user_id = ? AND (origin_account_id = ? OR destination_account_id = ?)`,
		userID, accountID, accountID).Scan(&count)
	return count, err
}

// CountAccountsInCurrency counts the user's active accounts in a currency.
func CountAccountsInCurrency(db *sql.DB, userID int64, currency string) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM accounts WHERE user_id = ? AND currency = ? AND is_active = TRUE`,
		userID, currency).Scan(&count)
	return count, err
}
