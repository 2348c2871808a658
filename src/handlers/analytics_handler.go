package handlers

import (
	"net/http"

	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type AnalyticsHandler struct {
	service *services.AnalyticsService
}

func NewAnalyticsHandler(service *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	indicators, err := h.service.Indicators(userID, r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, indicators)
}

func (h *AnalyticsHandler) HandleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	expenses, err := h.service.ExpensesByCategory(userID, r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, expenses)
}

func (h *AnalyticsHandler) HandleDailyFlow(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	flow, err := h.service.DailyFlow(userID, r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, flow)
}

func (h *AnalyticsHandler) HandlePeriodComparison(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	comparison, err := h.service.PeriodComparison(userID, q.Get("period"), q.Get("compared_to"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, comparison)
}
