package processors

import (
	"testing"
	"time"

	"github.com/username/finanzas/backend/src/model"
)

func TestBillStatus(t *testing.T) {
	today := time.Date(2025, 12, 4, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		isPaid  bool
		dueDate string
		want    string
	}{
		{"paid regardless of date", true, "2025-11-01", model.BillStatusPaid},
		{"due tomorrow", false, "2025-12-05", model.BillStatusPending},
		{"due today", false, "2025-12-04", model.BillStatusPending},
		{"past due", false, "2025-12-03", model.BillStatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BillStatus(tt.isPaid, tt.dueDate, today)
			if err != nil {
				t.Fatalf("BillStatus: %v", err)
			}
			if got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBillReminderKind(t *testing.T) {
	today := time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dueDate string
		days    int64
		want    string
	}{
		{"far out", "2025-12-20", 3, ""},
		{"inside window", "2025-12-06", 3, model.ReminderTypeUpcoming},
		{"due today", "2025-12-04", 3, model.ReminderTypeDueToday},
		{"past due", "2025-12-01", 3, model.ReminderTypeOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BillReminderKind(tt.dueDate, tt.days, today)
			if err != nil {
				t.Fatalf("BillReminderKind: %v", err)
			}
			if got != tt.want {
				t.Errorf("kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSOATStatus(t *testing.T) {
	tests := []struct {
		name   string
		isPaid bool
		days   int64
		alert  int64
		want   string
	}{
		{"expired unpaid", false, -1, 7, model.SOATStatusAtrasado},
		{"expired paid", true, -1, 7, model.SOATStatusVencido},
		{"window unpaid", false, 6, 7, model.SOATStatusPendientePago},
		{"window edge unpaid", false, 0, 7, model.SOATStatusPendientePago},
		{"window paid", true, 6, 7, model.SOATStatusPorVencer},
		{"outside window unpaid", false, 8, 7, model.SOATStatusVigente},
		{"outside window paid", true, 8, 7, model.SOATStatusVigente},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SOATStatus(tt.isPaid, tt.days, tt.alert); got != tt.want {
				t.Errorf("SOATStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSOATStatusTransitions(t *testing.T) {
	// Policy issued 2024-12-01, expires 2025-12-01, 7-day alert window.
	expiry := "2025-12-01"

	before, err := DaysUntil(expiry, time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if before != 6 {
		t.Fatalf("days until = %d, want 6", before)
	}
	if got := SOATStatus(false, before, 7); got != model.SOATStatusPendientePago {
		t.Errorf("status on 2025-11-25 = %q, want pendiente_pago", got)
	}

	after, err := DaysUntil(expiry, time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got := SOATStatus(false, after, 7); got != model.SOATStatusAtrasado {
		t.Errorf("status on 2025-12-02 = %q, want atrasado", got)
	}
}

func TestSOATAlertKind(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{model.SOATStatusPorVencer, model.SOATAlertExpiringSoon},
		{model.SOATStatusPendientePago, model.SOATAlertPaymentDue},
		{model.SOATStatusVencido, model.SOATAlertExpired},
		{model.SOATStatusAtrasado, model.SOATAlertOverdue},
		{model.SOATStatusVigente, ""},
	}
	for _, tt := range tests {
		if got := SOATAlertKind(tt.status); got != tt.want {
			t.Errorf("SOATAlertKind(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
