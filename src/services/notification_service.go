package services

import (
	"database/sql"
	"time"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
)

// Notification kinds as stored on the notifications table.
const (
	NotificationKindBudgetAlert  = "budget_alert"
	NotificationKindBillReminder = "bill_reminder"
	NotificationKindSOATAlert    = "soat_alert"
)

// NotificationService fans alerts and reminders out to the user-visible
// notification feed and, when opted in, to email. Every failure here is
// logged and swallowed: notification delivery never breaks a producer.
type NotificationService struct {
	db              *sql.DB
	email           EmailService
	defaultTimezone string
}

func NewNotificationService(db *sql.DB, email EmailService, defaultTimezone string) *NotificationService {
	return &NotificationService{db: db, email: email, defaultTimezone: defaultTimezone}
}

func (s *NotificationService) Preferences(userID int64) (*model.NotificationPreferences, error) {
	return model.GetNotificationPreferences(s.db, userID, s.defaultTimezone)
}

// Location resolves the user's timezone for "today" computations,
// falling back to UTC when the stored zone is unknown.
func (s *NotificationService) Location(userID int64) *time.Location {
	prefs, err := s.Preferences(userID)
	if err != nil {
		logger.L.Warn("loading notification preferences", "userID", userID, "error", err)
		return time.UTC
	}
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		logger.L.Warn("unknown timezone on preferences", "userID", userID, "timezone", prefs.Timezone)
		return time.UTC
	}
	return loc
}

// Notify appends a notification for the user, honoring the per-kind
// opt-outs, and emails it when the user asked for that.
func (s *NotificationService) Notify(userID int64, kind, referenceType string, referenceID int64, title, body string) {
	prefs, err := s.Preferences(userID)
	if err != nil {
		logger.L.Error("loading notification preferences", "userID", userID, "error", err)
		return
	}
	if !s.kindEnabled(prefs, kind) {
		return
	}

	n := &model.Notification{
		UserID:        userID,
		Kind:          kind,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Title:         title,
		Body:          body,
	}
	if err := n.Create(s.db); err != nil {
		logger.L.Error("creating notification", "userID", userID, "kind", kind, "error", err)
		return
	}

	if prefs.EmailEnabled {
		user, err := model.GetUserByID(s.db, userID)
		if err != nil {
			logger.L.Warn("loading user for notification email", "userID", userID, "error", err)
			return
		}
		if err := s.email.SendNotificationEmail(user.Email, title, body); err != nil {
			logger.L.Warn("sending notification email", "userID", userID, "error", err)
		}
	}
}

func (s *NotificationService) kindEnabled(prefs *model.NotificationPreferences, kind string) bool {
	switch kind {
	case NotificationKindBudgetAlert:
		return prefs.BudgetAlertsEnabled
	case NotificationKindBillReminder:
		return prefs.BillRemindersEnabled
	case NotificationKindSOATAlert:
		return prefs.SOATAlertsEnabled
	default:
		return true
	}
}
