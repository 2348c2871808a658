package processors

import (
	"time"

	"github.com/username/finanzas/backend/src/model"
)

// DateOnly truncates t to midnight of its calendar day, keeping the
// location. Status computations compare whole days, never clock times.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole days from today until the given date.
// Negative when the date has passed.
func DaysUntil(date string, today time.Time) (int64, error) {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return 0, model.NewValidationError("date", "invalid date")
	}
	t := DateOnly(today)
	return int64(d.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)).Hours() / 24), nil
}

// BillStatus derives the status from payment state and the due date as
// seen in the user's timezone.
func BillStatus(isPaid bool, dueDate string, today time.Time) (string, error) {
	if isPaid {
		return model.BillStatusPaid, nil
	}
	days, err := DaysUntil(dueDate, today)
	if err != nil {
		return "", err
	}
	if days < 0 {
		return model.BillStatusOverdue, nil
	}
	return model.BillStatusPending, nil
}

// BillReminderKind returns the reminder a bill calls for today, or ""
// when none is due yet.
func BillReminderKind(dueDate string, reminderDaysBefore int64, today time.Time) (string, error) {
	days, err := DaysUntil(dueDate, today)
	if err != nil {
		return "", err
	}
	switch {
	case days < 0:
		return model.ReminderTypeOverdue, nil
	case days == 0:
		return model.ReminderTypeDueToday, nil
	case days <= reminderDaysBefore:
		return model.ReminderTypeUpcoming, nil
	default:
		return "", nil
	}
}

// SOATStatus derives the policy status from payment state and days until
// expiry relative to the alert window.
func SOATStatus(isPaid bool, daysUntilExpiry, alertDaysBefore int64) string {
	switch {
	case daysUntilExpiry < 0 && !isPaid:
		return model.SOATStatusAtrasado
	case daysUntilExpiry < 0:
		return model.SOATStatusVencido
	case daysUntilExpiry <= alertDaysBefore && !isPaid:
		return model.SOATStatusPendientePago
	case daysUntilExpiry <= alertDaysBefore:
		return model.SOATStatusPorVencer
	default:
		return model.SOATStatusVigente
	}
}

// SOATAlertKind maps a derived status to the alert it should emit, or ""
// for statuses that need no alert.
func SOATAlertKind(status string) string {
	switch status {
	case model.SOATStatusPorVencer:
		return model.SOATAlertExpiringSoon
	case model.SOATStatusPendientePago:
		return model.SOATAlertPaymentDue
	case model.SOATStatusVencido:
		return model.SOATAlertExpired
	case model.SOATStatusAtrasado:
		return model.SOATAlertOverdue
	default:
		return ""
	}
}
