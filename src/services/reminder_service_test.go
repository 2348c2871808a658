package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func TestReminderScanEmitsOnceInsideWindow(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	_, err := e.bills.Create(userID, BillInput{
		Provider:           "Acme Power",
		Amount:             100000,
		DueDate:            bogotaDate(t, 2),
		ReminderDaysBefore: 3,
	})
	require.NoError(t, err)

	vehicle := seedVehicle(t, e, userID, "ABC123")
	seedSOAT(t, e, userID, vehicle.ID, 10, 30)

	result := e.reminders.Scan()
	require.Equal(t, 1, result.BillReminders)
	require.Equal(t, 1, result.SOATAlerts)
	require.Equal(t, 0, result.ItemsWithError)

	reminders, err := model.ListBillReminders(e.db, userID, false)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	require.Equal(t, model.ReminderTypeUpcoming, reminders[0].ReminderType)

	alerts, err := model.ListSOATAlerts(e.db, userID, false)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, model.SOATAlertPaymentDue, alerts[0].AlertType)

	notifications, err := model.ListNotifications(e.db, userID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// A rerun inside the dedup window emits nothing new.
	again := e.reminders.Scan()
	require.Equal(t, 0, again.BillReminders)
	require.Equal(t, 0, again.SOATAlerts)
}

func TestReminderScanSkipsQuietItems(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	// Due date outside the reminder window, policy outside the alert
	// window.
	_, err := e.bills.Create(userID, BillInput{
		Provider:           "Water Co",
		Amount:             100000,
		DueDate:            bogotaDate(t, 20),
		ReminderDaysBefore: 3,
	})
	require.NoError(t, err)

	vehicle := seedVehicle(t, e, userID, "QQQ222")
	seedSOAT(t, e, userID, vehicle.ID, 120, 30)

	result := e.reminders.Scan()
	require.Equal(t, 0, result.BillReminders)
	require.Equal(t, 0, result.SOATAlerts)
}

func TestReminderScanFlagsOverdue(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	_, err := e.bills.Create(userID, BillInput{
		Provider: "Old Debt",
		Amount:   50000,
		DueDate:  bogotaDate(t, -2),
	})
	require.NoError(t, err)

	result := e.reminders.Scan()
	require.Equal(t, 1, result.BillReminders)

	reminders, err := model.ListBillReminders(e.db, userID, false)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	require.Equal(t, model.ReminderTypeOverdue, reminders[0].ReminderType)
}

func TestReminderScanSkipsPaidBills(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)

	bill, err := e.bills.Create(userID, BillInput{
		Provider:           "Gas Co",
		Amount:             80000,
		DueDate:            bogotaDate(t, 1),
		ReminderDaysBefore: 3,
	})
	require.NoError(t, err)

	_, _, err = e.bills.RegisterPayment(userID, bill.ID, bank.ID, bogotaDate(t, 0), "")
	require.NoError(t, err)

	result := e.reminders.Scan()
	require.Equal(t, 0, result.BillReminders)
}
