package processors

import (
	"testing"
	"time"

	"github.com/username/finanzas/backend/src/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestPeriodWindowMonthly(t *testing.T) {
	from, to, err := PeriodWindow(model.BudgetPeriodMonthly, "2025-01-15", mustDate(t, "2025-11-10"))
	if err != nil {
		t.Fatalf("PeriodWindow: %v", err)
	}
	if got := from.Format(model.DateLayout); got != "2025-11-01" {
		t.Errorf("from = %s, want 2025-11-01", got)
	}
	if got := to.Format(model.DateLayout); got != "2025-11-30" {
		t.Errorf("to = %s, want 2025-11-30", got)
	}
}

func TestPeriodWindowYearly(t *testing.T) {
	tests := []struct {
		start, tx, wantFrom, wantTo string
	}{
		{"2024-03-01", "2024-07-10", "2024-03-01", "2025-02-28"},
		{"2024-03-01", "2025-02-15", "2024-03-01", "2025-02-28"},
		{"2024-03-01", "2025-03-01", "2025-03-01", "2026-02-28"},
		{"2024-01-01", "2024-12-31", "2024-01-01", "2024-12-31"},
	}
	for _, tt := range tests {
		from, to, err := PeriodWindow(model.BudgetPeriodYearly, tt.start, mustDate(t, tt.tx))
		if err != nil {
			t.Fatalf("PeriodWindow(%s, %s): %v", tt.start, tt.tx, err)
		}
		if got := from.Format(model.DateLayout); got != tt.wantFrom {
			t.Errorf("start=%s tx=%s: from = %s, want %s", tt.start, tt.tx, got, tt.wantFrom)
		}
		if got := to.Format(model.DateLayout); got != tt.wantTo {
			t.Errorf("start=%s tx=%s: to = %s, want %s", tt.start, tt.tx, got, tt.wantTo)
		}
	}
}

func TestBudgetPercentage(t *testing.T) {
	tests := []struct {
		spent, limit int64
		want         float64
	}{
		{32000000, 40000000, 80},
		{42000000, 40000000, 105},
		{1, 3, 33.33},
		{0, 40000000, 0},
		{100, 0, 0},
	}
	for _, tt := range tests {
		if got := BudgetPercentage(tt.spent, tt.limit); got != tt.want {
			t.Errorf("BudgetPercentage(%d, %d) = %v, want %v", tt.spent, tt.limit, got, tt.want)
		}
	}
}

func TestDesiredAlertType(t *testing.T) {
	tests := []struct {
		percentage float64
		threshold  int64
		want       string
	}{
		{79.99, 80, ""},
		{80, 80, model.AlertTypeWarning},
		{99.99, 80, model.AlertTypeWarning},
		{100, 80, model.AlertTypeExceeded},
		{105, 80, model.AlertTypeExceeded},
		{50, 0, model.AlertTypeWarning},
	}
	for _, tt := range tests {
		if got := DesiredAlertType(tt.percentage, tt.threshold); got != tt.want {
			t.Errorf("DesiredAlertType(%v, %d) = %q, want %q", tt.percentage, tt.threshold, got, tt.want)
		}
	}
}
