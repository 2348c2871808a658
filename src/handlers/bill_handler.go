package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/security/validation"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type BillHandler struct {
	service *services.BillService
}

func NewBillHandler(service *services.BillService) *BillHandler {
	return &BillHandler{service: service}
}

func (h *BillHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	bills, err := model.ListBills(database.DB, userID, r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bills)
}

func (h *BillHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid bill id", http.StatusBadRequest)
		return
	}
	bill, err := model.GetBillByID(database.DB, userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *BillHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var input services.BillInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	input.Provider = validation.SanitizeDescription(input.Provider)
	bill, err := h.service.Create(userID, input)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, bill)
}

func (h *BillHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid bill id", http.StatusBadRequest)
		return
	}
	var input services.BillInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	input.Provider = validation.SanitizeDescription(input.Provider)
	bill, err := h.service.Update(userID, id, input)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *BillHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid bill id", http.StatusBadRequest)
		return
	}
	if err := model.DeleteBill(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BillHandler) HandleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid bill id", http.StatusBadRequest)
		return
	}
	var payload struct {
		AccountID int64  `json:"account_id"`
		Date      string `json:"date"`
		Note      string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	bill, tx, err := h.service.RegisterPayment(userID, id, payload.AccountID, payload.Date,
		validation.SanitizeDescription(payload.Note))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bill":        bill,
		"transaction": tx,
	})
}

func (h *BillHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid bill id", http.StatusBadRequest)
		return
	}
	bill, err := h.service.UpdateStatus(userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *BillHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	bills, err := h.service.Pending(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bills)
}

func (h *BillHandler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	bills, err := h.service.Overdue(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bills)
}

func (h *BillHandler) HandleListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	reminders, err := model.ListBillReminders(database.DB, userID, queryBool(r, "unread_only"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reminders)
}

func (h *BillHandler) HandleMarkReminderRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid reminder id", http.StatusBadRequest)
		return
	}
	if err := model.MarkBillReminderRead(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BillHandler) HandleMarkAllRemindersRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := model.MarkAllBillRemindersRead(database.DB, userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
