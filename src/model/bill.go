package model

import (
	"database/sql"
	"time"
)

const (
	BillStatusPending = "pending"
	BillStatusPaid    = "paid"
	BillStatusOverdue = "overdue"
)

type Bill struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	Provider             string    `json:"provider"`
	Amount               int64     `json:"amount"`
	DueDate              string    `json:"due_date"`
	SuggestedAccountID   *int64    `json:"suggested_account_id,omitempty"`
	CategoryID           *int64    `json:"category_id,omitempty"`
	ReminderDaysBefore   int64     `json:"reminder_days_before"`
	IsRecurring          bool      `json:"is_recurring"`
	Status               string    `json:"status"`
	PaymentTransactionID *int64    `json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (b *Bill) IsPaid() bool {
	return b.PaymentTransactionID != nil
}

const billColumns = `id, user_id, provider, amount, due_date, suggested_account_id, category_id, reminder_days_before, is_recurring, status, payment_transaction_id, created_at, updated_at`

func scanBill(row interface{ Scan(...any) error }) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.UserID, &b.Provider, &b.Amount, &b.DueDate,
		&b.SuggestedAccountID, &b.CategoryID, &b.ReminderDaysBefore, &b.IsRecurring,
		&b.Status, &b.PaymentTransactionID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (b *Bill) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO bills (user_id, provider, amount, due_date, suggested_account_id, category_id, reminder_days_before, is_recurring, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Provider, b.Amount, b.DueDate, b.SuggestedAccountID, b.CategoryID,
		b.ReminderDaysBefore, b.IsRecurring, b.Status)
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

func GetBillByID(db *sql.DB, userID, id int64) (*Bill, error) {
	row := db.QueryRow(`SELECT `+billColumns+` FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	return scanBill(row)
}

// ListBills returns bills for a user, optionally filtered by status.
func ListBills(db *sql.DB, userID int64, status string) ([]Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY due_date ASC, id ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []Bill{}
	}
	return bills, nil
}

// ListUnpaidBills returns every bill without a payment transaction, across
// all users, for the reminder scan.
func ListUnpaidBills(db *sql.DB) ([]Bill, error) {
	rows, err := db.Query(`SELECT ` + billColumns + ` FROM bills WHERE payment_transaction_id IS NULL ORDER BY user_id, due_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (b *Bill) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE bills SET provider = ?, amount = ?, due_date = ?, suggested_account_id = ?, category_id = ?,
		reminder_days_before = ?, is_recurring = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		b.Provider, b.Amount, b.DueDate, b.SuggestedAccountID, b.CategoryID,
		b.ReminderDaysBefore, b.IsRecurring, b.Status, b.ID, b.UserID)
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

// UpdateBillStatus persists a recomputed status, and the payment link when set.
func UpdateBillStatus(db *sql.DB, userID, id int64, status string, paymentTransactionID *int64) error {
	res, err := db.Exec(`
	UPDATE bills SET status = ?, payment_transaction_id = COALESCE(?, payment_transaction_id), updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		status, paymentTransactionID, id, userID)
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

func DeleteBill(db *sql.DB, userID, id int64) error {
	if _, err := db.Exec(`DELETE FROM bill_reminders WHERE bill_id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM bills WHERE id = ? AND user_id = ?`, id, userID)
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

// GetBillByPaymentTransaction returns the bill linked to a payment
// transaction, or ErrNotFound.
func GetBillByPaymentTransaction(db *sql.DB, userID, transactionID int64) (*Bill, error) {
	row := db.QueryRow(`SELECT `+billColumns+` FROM bills WHERE payment_transaction_id = ? AND user_id = ?`, transactionID, userID)
	return scanBill(row)
}

// ClearBillPayment unlinks a deleted payment transaction and resets the
// status to the given unpaid value.
func ClearBillPayment(db *sql.DB, userID, id int64, status string) error {
	res, err := db.Exec(`UPDATE bills SET payment_transaction_id = NULL, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		status, id, userID)
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
