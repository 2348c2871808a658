package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

const reminderDedupWindow = 24 * time.Hour

// ReminderService is the periodic scan over unpaid bills and SOAT
// policies. It is idempotent: re-running inside the dedup window emits
// nothing new. Item failures are logged and never abort the scan.
type ReminderService struct {
	db       *sql.DB
	notifier *NotificationService
}

func NewReminderService(db *sql.DB, notifier *NotificationService) *ReminderService {
	return &ReminderService{db: db, notifier: notifier}
}

// ScanResult counts what one scan run produced.
type ScanResult struct {
	BillReminders  int `json:"bill_reminders"`
	SOATAlerts     int `json:"soat_alerts"`
	StatusUpdates  int `json:"status_updates"`
	ItemsWithError int `json:"items_with_error"`
}

// Scan walks every user's unpaid bills and all SOAT policies, updating
// statuses and emitting due reminders.
func (s *ReminderService) Scan() *ScanResult {
	started := time.Now()
	result := &ScanResult{}
	locations := map[int64]*time.Location{}
	today := func(userID int64) time.Time {
		loc, ok := locations[userID]
		if !ok {
			loc = s.notifier.Location(userID)
			locations[userID] = loc
		}
		return time.Now().In(loc)
	}

	s.scanBills(result, today)
	s.scanSOATs(result, today)

	logger.L.Info("reminder scan finished",
		"billReminders", result.BillReminders, "soatAlerts", result.SOATAlerts,
		"statusUpdates", result.StatusUpdates, "errors", result.ItemsWithError,
		"duration", time.Since(started).String())
	return result
}

func (s *ReminderService) scanBills(result *ScanResult, today func(int64) time.Time) {
	bills, err := model.ListUnpaidBills(s.db)
	if err != nil {
		logger.L.Error("reminder scan: listing unpaid bills", "error", err)
		result.ItemsWithError++
		return
	}
	for i := range bills {
		if err := s.scanBill(&bills[i], today(bills[i].UserID), result); err != nil {
			logger.L.Error("reminder scan: bill", "billID", bills[i].ID, "error", err)
			result.ItemsWithError++
		}
	}
}

func (s *ReminderService) scanBill(bill *model.Bill, today time.Time, result *ScanResult) error {
	status, err := processors.BillStatus(false, bill.DueDate, today)
	if err != nil {
		return err
	}
	if status != bill.Status {
		if err := model.UpdateBillStatus(s.db, bill.UserID, bill.ID, status, nil); err != nil {
			return err
		}
		result.StatusUpdates++
	}

	kind, err := processors.BillReminderKind(bill.DueDate, bill.ReminderDaysBefore, today)
	if err != nil {
		return err
	}
	if kind == "" {
		return nil
	}
	recent, err := model.HasRecentBillReminder(s.db, bill.ID, kind, reminderDedupWindow)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	reminder := &model.BillReminder{
		UserID:       bill.UserID,
		BillID:       bill.ID,
		ReminderType: kind,
		Message:      billReminderMessage(bill, kind),
	}
	if err := reminder.Create(s.db); err != nil {
		return err
	}
	result.BillReminders++

	s.notifier.Notify(bill.UserID, NotificationKindBillReminder, "bill", bill.ID,
		fmt.Sprintf("Bill %s: %s", kind, bill.Provider), reminder.Message)
	return nil
}

func billReminderMessage(bill *model.Bill, kind string) string {
	switch kind {
	case model.ReminderTypeDueToday:
		return fmt.Sprintf("%s is due today", bill.Provider)
	case model.ReminderTypeOverdue:
		return fmt.Sprintf("%s was due on %s and is unpaid", bill.Provider, bill.DueDate)
	default:
		return fmt.Sprintf("%s is due on %s", bill.Provider, bill.DueDate)
	}
}

func (s *ReminderService) scanSOATs(result *ScanResult, today func(int64) time.Time) {
	soats, err := model.ListAllSOATs(s.db)
	if err != nil {
		logger.L.Error("reminder scan: listing SOAT policies", "error", err)
		result.ItemsWithError++
		return
	}
	for i := range soats {
		if err := s.scanSOAT(&soats[i], today(soats[i].UserID), result); err != nil {
			logger.L.Error("reminder scan: SOAT", "soatID", soats[i].ID, "error", err)
			result.ItemsWithError++
		}
	}
}

func (s *ReminderService) scanSOAT(soat *model.SOAT, today time.Time, result *ScanResult) error {
	days, err := processors.DaysUntil(soat.ExpiryDate, today)
	if err != nil {
		return err
	}
	status := processors.SOATStatus(soat.IsPaid(), days, soat.AlertDaysBefore)
	if status != soat.Status {
		if err := model.UpdateSOATStatus(s.db, soat.UserID, soat.ID, status, nil); err != nil {
			return err
		}
		result.StatusUpdates++
		soat.Status = status
	}

	kind := processors.SOATAlertKind(status)
	if kind == "" {
		return nil
	}
	recent, err := model.HasRecentSOATAlert(s.db, soat.ID, kind, reminderDedupWindow)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	alert := &model.SOATAlert{
		UserID:    soat.UserID,
		SOATID:    soat.ID,
		AlertType: kind,
		Message:   soatAlertMessage(soat, kind),
	}
	if err := alert.Create(s.db); err != nil {
		return err
	}
	result.SOATAlerts++

	s.notifier.Notify(soat.UserID, NotificationKindSOATAlert, "soat", soat.ID,
		"SOAT "+kind, alert.Message)
	return nil
}

func soatAlertMessage(soat *model.SOAT, kind string) string {
	switch kind {
	case model.SOATAlertExpired, model.SOATAlertOverdue:
		return fmt.Sprintf("SOAT expired on %s", soat.ExpiryDate)
	default:
		return fmt.Sprintf("SOAT expires on %s", soat.ExpiryDate)
	}
}
