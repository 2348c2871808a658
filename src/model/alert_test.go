package model

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "finanzas_test.db"))
	db := database.DB
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHasRecentBillReminderWindow(t *testing.T) {
	db := newTestDB(t)

	user := &User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, user.CreateUser(db))
	bill := &Bill{
		UserID:   user.ID,
		Provider: "Acme Power",
		Amount:   100000,
		DueDate:  "2030-01-15",
		Status:   BillStatusPending,
	}
	require.NoError(t, bill.Create(db))

	reminder := &BillReminder{
		UserID:       user.ID,
		BillID:       bill.ID,
		ReminderType: ReminderTypeUpcoming,
		Message:      "Acme Power is due on 2030-01-15",
	}
	require.NoError(t, reminder.Create(db))

	// Rows are written with CURRENT_TIMESTAMP (UTC); the window bind must
	// compare in the same form regardless of the host timezone.
	recent, err := HasRecentBillReminder(db, bill.ID, ReminderTypeUpcoming, 24*time.Hour)
	require.NoError(t, err)
	require.True(t, recent)

	// A different kind is outside the dedup key.
	recent, err = HasRecentBillReminder(db, bill.ID, ReminderTypeOverdue, 24*time.Hour)
	require.NoError(t, err)
	require.False(t, recent)

	// Backdating the row past the window frees the kind again.
	_, err = db.Exec(`UPDATE bill_reminders SET created_at = datetime('now', '-2 days') WHERE id = ?`, reminder.ID)
	require.NoError(t, err)
	recent, err = HasRecentBillReminder(db, bill.ID, ReminderTypeUpcoming, 24*time.Hour)
	require.NoError(t, err)
	require.False(t, recent)
}
