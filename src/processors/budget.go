package processors

import (
	"math"
	"time"

	"github.com/username/finanzas/backend/src/model"
)

// PeriodWindow returns the inclusive [from, to] window of the budget
// period containing txDate. Monthly budgets track calendar months; yearly
// budgets track twelve-month spans anchored at the start date's month.
func PeriodWindow(period string, startDate string, txDate time.Time) (time.Time, time.Time, error) {
	switch period {
	case model.BudgetPeriodMonthly:
		from := time.Date(txDate.Year(), txDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, -1), nil
	case model.BudgetPeriodYearly:
		start, err := time.Parse(model.DateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewValidationError("start_date", "invalid date")
		}
		anchor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		months := (txDate.Year()-anchor.Year())*12 + int(txDate.Month()-anchor.Month())
		years := months / 12
		if months < 0 && months%12 != 0 {
			years--
		}
		from := anchor.AddDate(years, 0, 0)
		return from, from.AddDate(1, 0, -1), nil
	default:
		return time.Time{}, time.Time{}, model.NewValidationError("period", "unknown budget period")
	}
}

// BudgetPercentage returns spent as a percentage of the limit, rounded to
// two decimal places. A non-positive limit yields 0.
func BudgetPercentage(spent, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Round(float64(spent)*100*100/float64(limit)) / 100
}

// DesiredAlertType maps a budget percentage to the alert kind it calls
// for, or "" when the threshold has not been reached.
func DesiredAlertType(percentage float64, alertThreshold int64) string {
	switch {
	case percentage >= 100:
		return model.AlertTypeExceeded
	case percentage >= float64(alertThreshold):
		return model.AlertTypeWarning
	default:
		return ""
	}
}
