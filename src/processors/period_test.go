package processors

import (
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		expr     string
		wantFrom string
		wantTo   string
	}{
		{"current_month", "2025-11-01", "2025-11-30"},
		{"", "2025-11-01", "2025-11-30"},
		{"last_month", "2025-10-01", "2025-10-31"},
		{"current_year", "2025-01-01", "2025-12-31"},
		{"last_7_days", "2025-11-09", "2025-11-15"},
		{"last_30_days", "2025-10-17", "2025-11-15"},
		{"2025-02", "2025-02-01", "2025-02-28"},
		{"2024-02", "2024-02-01", "2024-02-29"},
		{"2024", "2024-01-01", "2024-12-31"},
		{"2025-03-05,2025-04-10", "2025-03-05", "2025-04-10"},
		// Parse failures fall back to the current month.
		{"garbage", "2025-11-01", "2025-11-30"},
		{"2025-13", "2025-11-01", "2025-11-30"},
		{"2025-04-10,2025-03-05", "2025-11-01", "2025-11-30"},
		{"2025-03-05,nope", "2025-11-01", "2025-11-30"},
	}
	for _, tt := range tests {
		from, to := ResolvePeriod(tt.expr, now)
		if from != tt.wantFrom || to != tt.wantTo {
			t.Errorf("ResolvePeriod(%q) = (%s, %s), want (%s, %s)", tt.expr, from, to, tt.wantFrom, tt.wantTo)
		}
	}
}
