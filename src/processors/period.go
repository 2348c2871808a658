package processors

import (
	"strings"
	"time"

	"github.com/username/finanzas/backend/src/model"
)

// ResolvePeriod parses a period expression into an inclusive [from, to]
// date range. Accepted forms: current_month, last_month, current_year,
// last_7_days, last_30_days, YYYY-MM, YYYY, and "YYYY-MM-DD,YYYY-MM-DD".
// Any parse failure falls back to the current month.
func ResolvePeriod(expr string, now time.Time) (string, string) {
	today := DateOnly(now)

	switch strings.TrimSpace(expr) {
	case "", "current_month":
		return currentMonth(today)
	case "last_month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return first.Format(model.DateLayout), first.AddDate(0, 1, -1).Format(model.DateLayout)
	case "current_year":
		first := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return first.Format(model.DateLayout), first.AddDate(1, 0, -1).Format(model.DateLayout)
	case "last_7_days":
		return today.AddDate(0, 0, -6).Format(model.DateLayout), today.Format(model.DateLayout)
	case "last_30_days":
		return today.AddDate(0, 0, -29).Format(model.DateLayout), today.Format(model.DateLayout)
	}

	expr = strings.TrimSpace(expr)

	if from, to, ok := parseRange(expr); ok {
		return from, to
	}
	if month, err := time.Parse("2006-01", expr); err == nil {
		return month.Format(model.DateLayout), month.AddDate(0, 1, -1).Format(model.DateLayout)
	}
	if year, err := time.Parse("2006", expr); err == nil {
		return year.Format(model.DateLayout), year.AddDate(1, 0, -1).Format(model.DateLayout)
	}

	return currentMonth(today)
}

func currentMonth(today time.Time) (string, string) {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.Format(model.DateLayout), first.AddDate(0, 1, -1).Format(model.DateLayout)
}

func parseRange(expr string) (string, string, bool) {
	parts := strings.Split(expr, ",")
	if len(parts) != 2 {
		return "", "", false
	}
	from, err := time.Parse(model.DateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return "", "", false
	}
	to, err := time.Parse(model.DateLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", false
	}
	if to.Before(from) {
		return "", "", false
	}
	return from.Format(model.DateLayout), to.Format(model.DateLayout), true
}
