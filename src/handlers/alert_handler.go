package handlers

import (
	"net/http"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/utils"
)

// AlertHandler serves the budget alerts raised by the evaluator.
type AlertHandler struct{}

func NewAlertHandler() *AlertHandler {
	return &AlertHandler{}
}

func (h *AlertHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	alerts, err := model.ListAlerts(database.DB, userID, queryInt(r, "budget_id"), queryBool(r, "unread_only"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid alert id", http.StatusBadRequest)
		return
	}
	if err := model.MarkAlertRead(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := model.MarkAllAlertsRead(database.DB, userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid alert id", http.StatusBadRequest)
		return
	}
	if err := model.DeleteAlert(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
