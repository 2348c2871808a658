package model

import (
	"database/sql"
	"time"
)

const (
	AlertTypeWarning  = "warning"
	AlertTypeExceeded = "exceeded"
)

// Bill reminder kinds.
const (
	ReminderTypeUpcoming = "upcoming"
	ReminderTypeDueToday = "due_today"
	ReminderTypeOverdue  = "overdue"
)

// SOAT alert kinds mirror the derived statuses.
const (
	SOATAlertExpiringSoon = "expiring_soon"
	SOATAlertPaymentDue   = "payment_due"
	SOATAlertExpired      = "expired"
	SOATAlertOverdue      = "overdue"
)

// Alert is a budget-threshold record, unique per
// (user, budget, type, year, month).
type Alert struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BudgetID   int64      `json:"budget_id"`
	AlertType  string     `json:"alert_type"`
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Percentage float64    `json:"percentage"`
	Spent      int64      `json:"spent"`
	Message    string     `json:"message"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type BillReminder struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	BillID       int64      `json:"bill_id"`
	ReminderType string     `json:"reminder_type"`
	Message      string     `json:"message"`
	IsRead       bool       `json:"is_read"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type SOATAlert struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	SOATID    int64      `json:"soat_id"`
	AlertType string     `json:"alert_type"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// InsertAlertIfAbsent creates a budget alert unless one already exists for
// the (user, budget, type, year, month) key. The unique index makes the
// check-and-insert a single serialized step; it returns whether a row was
// actually inserted.
func InsertAlertIfAbsent(db *sql.DB, a *Alert) (bool, error) {
	res, err := db.Exec(`
	INSERT OR IGNORE INTO alerts (user_id, budget_id, alert_type, year, month, percentage, spent, message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.BudgetID, a.AlertType, a.Year, a.Month, a.Percentage, a.Spent, a.Message)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	a.ID = id
	return true, nil
}

const alertColumns = `id, user_id, budget_id, alert_type, year, month, percentage, spent, message, is_read, read_at, created_at`

func scanAlert(row interface{ Scan(...any) error }) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.UserID, &a.BudgetID, &a.AlertType, &a.Year, &a.Month,
		&a.Percentage, &a.Spent, &a.Message, &a.IsRead, &a.ReadAt, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns the user's budget alerts newest first. budgetID and
// unreadOnly are optional filters.
func ListAlerts(db *sql.DB, userID int64, budgetID int64, unreadOnly bool) ([]Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = ?`
	args := []any{userID}
	if budgetID != 0 {
		query += ` AND budget_id = ?`
		args = append(args, budgetID)
	}
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

func MarkAlertRead(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`UPDATE alerts SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`, id, userID)
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

func MarkAllAlertsRead(db *sql.DB, userID int64) error {
	_, err := db.Exec(`UPDATE alerts SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE user_id = ? AND is_read = FALSE`, userID)
	return err
}

func DeleteAlert(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`DELETE FROM alerts WHERE id = ? AND user_id = ?`, id, userID)
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

// sqliteTimestamp renders t the way CURRENT_TIMESTAMP stores rows: UTC,
// no zone suffix. Window comparisons against created_at must bind this
// form or the lexical comparison skews by the host's zone offset.
func sqliteTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// HasRecentBillReminder reports whether a reminder of the same kind was
// created for the bill within the given window. Best-effort: the window
// query can race under concurrency, and a duplicate reminder is harmless.
func HasRecentBillReminder(db *sql.DB, billID int64, reminderType string, window time.Duration) (bool, error) {
	var count int64
	err := db.QueryRow(`
	SELECT COUNT(*) FROM bill_reminders
	WHERE bill_id = ? AND reminder_type = ? AND created_at > ?`,
		billID, reminderType, sqliteTimestamp(time.Now().Add(-window))).Scan(&count)
	return count > 0, err
}

func (r *BillReminder) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO bill_reminders (user_id, bill_id, reminder_type, message)
	VALUES (?, ?, ?, ?)`,
		r.UserID, r.BillID, r.ReminderType, r.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func ListBillReminders(db *sql.DB, userID int64, unreadOnly bool) ([]BillReminder, error) {
	query := `SELECT id, user_id, bill_id, reminder_type, message, is_read, read_at, created_at
	FROM bill_reminders WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []BillReminder
	for rows.Next() {
		var r BillReminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.BillID, &r.ReminderType, &r.Message, &r.IsRead, &r.ReadAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []BillReminder{}
	}
	return reminders, nil
}

func MarkBillReminderRead(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`UPDATE bill_reminders SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`, id, userID)
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

func MarkAllBillRemindersRead(db *sql.DB, userID int64) error {
	_, err := db.Exec(`UPDATE bill_reminders SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE user_id = ? AND is_read = FALSE`, userID)
	return err
}

// HasRecentSOATAlert mirrors HasRecentBillReminder for SOAT alerts.
func HasRecentSOATAlert(db *sql.DB, soatID int64, alertType string, window time.Duration) (bool, error) {
	var count int64
	err := db.QueryRow(`
	SELECT COUNT(*) FROM soat_alerts
	WHERE soat_id = ? AND alert_type = ? AND created_at > ?`,
		soatID, alertType, sqliteTimestamp(time.Now().Add(-window))).Scan(&count)
	return count > 0, err
}

func (a *SOATAlert) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO soat_alerts (user_id, soat_id, alert_type, message)
	VALUES (?, ?, ?, ?)`,
		a.UserID, a.SOATID, a.AlertType, a.Message)
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

func ListSOATAlerts(db *sql.DB, userID int64, unreadOnly bool) ([]SOATAlert, error) {
	query := `SELECT id, user_id, soat_id, alert_type, message, is_read, read_at, created_at
	FROM soat_alerts WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []SOATAlert
	for rows.Next() {
		var a SOATAlert
		if err := rows.Scan(&a.ID, &a.UserID, &a.SOATID, &a.AlertType, &a.Message, &a.IsRead, &a.ReadAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []SOATAlert{}
	}
	return alerts, nil
}

func MarkSOATAlertRead(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`UPDATE soat_alerts SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`, id, userID)
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

func MarkAllSOATAlertsRead(db *sql.DB, userID int64) error {
	_, err := db.Exec(`UPDATE soat_alerts SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE user_id = ? AND is_read = FALSE`, userID)
	return err
}
