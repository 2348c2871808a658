package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type BudgetHandler struct {
	service *services.BudgetService
}

func NewBudgetHandler(service *services.BudgetService) *BudgetHandler {
	return &BudgetHandler{service: service}
}

func (h *BudgetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	activeOnly := !queryBool(r, "include_inactive")
	budgets, err := model.ListBudgets(database.DB, userID, activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, budgets)
}

func (h *BudgetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid budget id", http.StatusBadRequest)
		return
	}
	budget, err := model.GetBudgetByID(database.DB, userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var input services.BudgetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	budget, err := h.service.Create(userID, input)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, budget)
}

func (h *BudgetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid budget id", http.StatusBadRequest)
		return
	}
	var input services.BudgetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	budget, err := h.service.Update(userID, id, input)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid budget id", http.StatusBadRequest)
		return
	}
	if err := model.DeleteBudget(database.DB, userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BudgetHandler) HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid budget id", http.StatusBadRequest)
		return
	}
	budget, err := h.service.ToggleActive(userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	stats, err := h.service.Stats(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *BudgetHandler) HandleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	year := int(queryInt(r, "year"))
	month := int(queryInt(r, "month"))
	if year < 2000 || month < 1 || month > 12 {
		utils.SendValidationError(w, "month", "year and month query parameters are required", http.StatusBadRequest)
		return
	}
	summary, err := h.service.MonthlySummary(userID, year, month)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *BudgetHandler) HandleCategoriesWithoutBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	categories, err := h.service.CategoriesWithoutBudget(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}
