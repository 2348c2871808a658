package model

import (
	"database/sql"
	"strings"
	"time"
)

const (
	TransactionTypeIncome   = 1
	TransactionTypeExpense  = 2
	TransactionTypeTransfer = 3
	TransactionTypeSaving   = 4
)

func ValidTransactionType(t int) bool {
	return t >= TransactionTypeIncome && t <= TransactionTypeSaving
}

type Transaction struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	OriginAccountID      int64     `json:"origin_account_id"`
	DestinationAccountID *int64    `json:"destination_account_id,omitempty"`
	CategoryID           *int64    `json:"category_id,omitempty"`
	AppliedRuleID        *int64    `json:"applied_rule_id,omitempty"`
	GoalID               *int64    `json:"goal_id,omitempty"`
	Type                 int       `json:"type"`
	Date                 string    `json:"date"` // YYYY-MM-DD
	Description          string    `json:"description"`
	Tag                  string    `json:"tag"`
	Note                 string    `json:"note"`
	BaseAmount           int64     `json:"base_amount"`
	TaxPercentage        int64     `json:"tax_percentage"`
	TaxedAmount          int64     `json:"taxed_amount"`
	GMFAmount            int64     `json:"gmf_amount"`
	CapitalAmount        int64     `json:"capital_amount"`
	InterestAmount       int64     `json:"interest_amount"`
	TotalAmount          int64     `json:"total_amount"`
	TransactionCurrency  *string   `json:"transaction_currency,omitempty"`
	ExchangeRate         *string   `json:"exchange_rate,omitempty"`
	OriginalAmount       *int64    `json:"original_amount,omitempty"`
	ConversionWarning    string    `json:"conversion_warning,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

const transactionColumns = `id, user_id, origin_account_id, destination_account_id, category_id, applied_rule_id, goal_id,
	type, date, description, tag, note,
	base_amount, tax_percentage, taxed_amount, gmf_amount, capital_amount, interest_amount, total_amount,
	transaction_currency, exchange_rate, original_amount, conversion_warning, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*Transaction, error) {
	var tx Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.OriginAccountID, &tx.DestinationAccountID, &tx.CategoryID,
		&tx.AppliedRuleID, &tx.GoalID, &tx.Type, &tx.Date, &tx.Description, &tx.Tag, &tx.Note,
		&tx.BaseAmount, &tx.TaxPercentage, &tx.TaxedAmount, &tx.GMFAmount, &tx.CapitalAmount,
		&tx.InterestAmount, &tx.TotalAmount, &tx.TransactionCurrency, &tx.ExchangeRate,
		&tx.OriginalAmount, &tx.ConversionWarning, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func GetTransactionByID(db *sql.DB, userID, id int64) (*Transaction, error) {
	row := db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Type       int
	CategoryID int64
	AccountID  int64
	RuleID     int64
	DateFrom   string
	DateTo     string
	Search     string
	Limit      int
}

func ListTransactions(db *sql.DB, userID int64, filter TransactionFilter) ([]Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`)
	args := []any{userID}

	if filter.Type != 0 {
		sb.WriteString(` AND type = ?`)
		args = append(args, filter.Type)
	}
	if filter.CategoryID != 0 {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, filter.CategoryID)
	}
	if filter.AccountID != 0 {
		sb.WriteString(` AND (origin_account_id = ? OR destination_account_id = ?)`)
		args = append(args, filter.AccountID, filter.AccountID)
	}
	if filter.RuleID != 0 {
		sb.WriteString(` AND applied_rule_id = ?`)
		args = append(args, filter.RuleID)
	}
	if filter.DateFrom != "" {
		sb.WriteString(` AND date >= ?`)
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		sb.WriteString(` AND date <= ?`)
		args = append(args, filter.DateTo)
	}
	if filter.Search != "" {
		sb.WriteString(` AND description LIKE ?`)
		args = append(args, "%"+filter.Search+"%")
	}
	sb.WriteString(` ORDER BY date DESC, id DESC`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []Transaction{}
	}
	return transactions, nil
}

// SumCategoryExpenses totals the user's expense transactions for one
// category and currency within an inclusive date window. Mode selects the
// summed column; transfers never count toward budgets.
func SumCategoryExpenses(db *sql.DB, userID, categoryID int64, currency, from, to, mode string) (int64, error) {
	column := "t.base_amount"
	if mode == BudgetModeTotal {
		column = "t.total_amount"
	}
	var sum int64
	err := db.QueryRow(`
	SELECT COALESCE(SUM(`+column+`), 0)
	FROM transactions t
	JOIN accounts a ON a.id = t.origin_account_id
	WHERE t.user_id = ? AND t.type = ? AND t.category_id = ? AND a.currency = ? AND t.date BETWEEN ? AND ?`,
		userID, TransactionTypeExpense, categoryID, currency, from, to).Scan(&sum)
	return sum, err
}
