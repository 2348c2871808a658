package model

import (
	"database/sql"
	"time"
)

// Notification is a user-visible message fanned out from alerts and
// reminders. Append-only.
type Notification struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Kind          string     `json:"kind"`
	ReferenceType string     `json:"reference_type"`
	ReferenceID   int64      `json:"reference_id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	IsRead        bool       `json:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NotificationPreferences holds per-user delivery settings, including the
// timezone every "today" computation must use.
type NotificationPreferences struct {
	ID                  int64  `json:"id"`
	UserID              int64  `json:"user_id"`
	Timezone            string `json:"timezone"`
	EmailEnabled        bool   `json:"email_enabled"`
	BudgetAlertsEnabled bool   `json:"budget_alerts_enabled"`
	BillRemindersEnabled bool  `json:"bill_reminders_enabled"`
	SOATAlertsEnabled   bool   `json:"soat_alerts_enabled"`
}

func (n *Notification) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO notifications (user_id, kind, reference_type, reference_id, title, body)
	VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Kind, n.ReferenceType, n.ReferenceID, n.Title, n.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func ListNotifications(db *sql.DB, userID int64, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, user_id, kind, reference_type, reference_id, title, body, is_read, read_at, created_at
	FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.ReferenceType, &n.ReferenceID,
			&n.Title, &n.Body, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	return notifications, nil
}

func MarkNotificationRead(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`UPDATE notifications SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`, id, userID)
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

func MarkAllNotificationsRead(db *sql.DB, userID int64) error {
	_, err := db.Exec(`UPDATE notifications SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE user_id = ? AND is_read = FALSE`, userID)
	return err
}

func DeleteNotification(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
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

// GetNotificationPreferences returns the user's preferences, creating the
// default row on first access.
func GetNotificationPreferences(db *sql.DB, userID int64, defaultTimezone string) (*NotificationPreferences, error) {
	row := db.QueryRow(`
	SELECT id, user_id, timezone, email_enabled, budget_alerts_enabled, bill_reminders_enabled, soat_alerts_enabled
	FROM notification_preferences WHERE user_id = ?`, userID)

	var p NotificationPreferences
	err := row.Scan(&p.ID, &p.UserID, &p.Timezone, &p.EmailEnabled,
		&p.BudgetAlertsEnabled, &p.BillRemindersEnabled, &p.SOATAlertsEnabled)
	if err == nil {
		return &p, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	res, insertErr := db.Exec(`
	INSERT INTO notification_preferences (user_id, timezone) VALUES (?, ?)`,
		userID, defaultTimezone)
	if insertErr != nil {
		return nil, insertErr
	}
	id, _ := res.LastInsertId()
	return &NotificationPreferences{
		ID:                   id,
		UserID:               userID,
		Timezone:             defaultTimezone,
		EmailEnabled:         false,
		BudgetAlertsEnabled:  true,
		BillRemindersEnabled: true,
		SOATAlertsEnabled:    true,
	}, nil
}

func (p *NotificationPreferences) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE notification_preferences
	SET timezone = ?, email_enabled = ?, budget_alerts_enabled = ?, bill_reminders_enabled = ?, soat_alerts_enabled = ?
	WHERE user_id = ?`,
		p.Timezone, p.EmailEnabled, p.BudgetAlertsEnabled, p.BillRemindersEnabled, p.SOATAlertsEnabled, p.UserID)
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
