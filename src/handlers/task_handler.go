package handlers

import (
	"net/http"

	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

// TaskHandler triggers background jobs on demand. The reminder scan
// also runs on a timer; this endpoint exists for manual runs and tests.
type TaskHandler struct {
	reminders *services.ReminderService
}

func NewTaskHandler(reminders *services.ReminderService) *TaskHandler {
	return &TaskHandler{reminders: reminders}
}

func (h *TaskHandler) HandleRunReminderScan(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	result := h.reminders.Scan()
	utils.WriteJSON(w, http.StatusOK, result)
}
