package model

import (
	"database/sql"
	"time"
)

const (
	BudgetModeBase  = "base"
	BudgetModeTotal = "total"

	BudgetPeriodMonthly = "monthly"
	BudgetPeriodYearly  = "yearly"
)

type Budget struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	CategoryID      int64     `json:"category_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	CalculationMode string    `json:"calculation_mode"`
	Period          string    `json:"period"`
	StartDate       string    `json:"start_date"`
	AlertThreshold  int64     `json:"alert_threshold"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

func ValidBudgetMode(mode string) bool {
	return mode == BudgetModeBase || mode == BudgetModeTotal
}

func ValidBudgetPeriod(period string) bool {
	return period == BudgetPeriodMonthly || period == BudgetPeriodYearly
}

const budgetColumns = `id, user_id, category_id, amount, currency, calculation_mode, period, start_date, alert_threshold, is_active, created_at`

func scanBudget(row interface{ Scan(...any) error }) (*Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Currency,
		&b.CalculationMode, &b.Period, &b.StartDate, &b.AlertThreshold, &b.IsActive, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (b *Budget) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO budgets (user_id, category_id, amount, currency, calculation_mode, period, start_date, alert_threshold, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount, b.Currency, b.CalculationMode, b.Period, b.StartDate, b.AlertThreshold, b.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func GetBudgetByID(db *sql.DB, userID, id int64) (*Budget, error) {
	row := db.QueryRow(`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	return scanBudget(row)
}

func ListBudgets(db *sql.DB, userID int64, activeOnly bool) ([]Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY id ASC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if budgets == nil {
		budgets = []Budget{}
	}
	return budgets, nil
}

// ListBudgetsForCategory returns active budgets matching the evaluator's
// selection: owner, category and currency.
func ListBudgetsForCategory(db *sql.DB, userID, categoryID int64, currency string) ([]Budget, error) {
	rows, err := db.Query(`SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND category_id = ? AND currency = ? AND is_active = TRUE`,
		userID, categoryID, currency)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (b *Budget) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE budgets SET amount = ?, calculation_mode = ?, period = ?, start_date = ?, alert_threshold = ?, is_active = ?
	WHERE id = ? AND user_id = ?`,
		b.Amount, b.CalculationMode, b.Period, b.StartDate, b.AlertThreshold, b.IsActive, b.ID, b.UserID)
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

func DeleteBudget(db *sql.DB, userID, id int64) error {
	if _, err := db.Exec(`DELETE FROM alerts WHERE budget_id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
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
