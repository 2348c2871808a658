package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	notifications, err := model.ListNotifications(database.DB, userID, queryBool(r, "unread_only"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid notification id", http.StatusBadRequest)
		return
	}
	if err := model.MarkNotificationRead(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := model.MarkAllNotificationsRead(database.DB, userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid notification id", http.StatusBadRequest)
		return
	}
	if err := model.DeleteNotification(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	prefs, err := h.service.Preferences(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, prefs)
}

func (h *NotificationHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var payload struct {
		Timezone             string `json:"timezone"`
		EmailEnabled         bool   `json:"email_enabled"`
		BudgetAlertsEnabled  bool   `json:"budget_alerts_enabled"`
		BillRemindersEnabled bool   `json:"bill_reminders_enabled"`
		SOATAlertsEnabled    bool   `json:"soat_alerts_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := time.LoadLocation(payload.Timezone); err != nil {
		utils.SendValidationError(w, "timezone", "unknown timezone", http.StatusBadRequest)
		return
	}

	prefs, err := h.service.Preferences(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	prefs.Timezone = payload.Timezone
	prefs.EmailEnabled = payload.EmailEnabled
	prefs.BudgetAlertsEnabled = payload.BudgetAlertsEnabled
	prefs.BillRemindersEnabled = payload.BillRemindersEnabled
	prefs.SOATAlertsEnabled = payload.SOATAlertsEnabled
	if err := prefs.Update(database.DB); err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, prefs)
}
