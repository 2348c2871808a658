package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type AccountHandler struct {
	service *services.AccountService
}

func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

type accountPayload struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Category       string `json:"category"`
	Currency       string `json:"currency"`
	CurrentBalance int64  `json:"current_balance"`
	CreditLimit    *int64 `json:"credit_limit"`
	GMFExempt      bool   `json:"gmf_exempt"`
}

func validateAccountPayload(p accountPayload) error {
	if strings.TrimSpace(p.Name) == "" {
		return model.NewValidationError("name", "required")
	}
	if !model.ValidAccountKind(p.Kind) {
		return model.NewValidationError("kind", "must be asset or liability")
	}
	if !model.ValidAccountCategory(p.Category) {
		return model.NewValidationError("category", "unknown account category")
	}
	if p.Currency == "" {
		return model.NewValidationError("currency", "required")
	}
	if p.Category == model.AccountCategoryCreditCard {
		if p.Kind != model.AccountKindLiability {
			return model.NewValidationError("kind", "credit card accounts must be liability")
		}
		if p.CreditLimit == nil || *p.CreditLimit <= 0 {
			return model.NewValidationError("credit_limit", "required for credit card accounts")
		}
	}
	return nil
}

func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	activeOnly := !queryBool(r, "include_inactive")
	accounts, err := model.ListAccounts(database.DB, userID, activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	account, err := model.GetAccountByID(database.DB, userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var payload accountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateAccountPayload(payload); err != nil {
		respondError(w, err)
		return
	}

	account := &model.Account{
		UserID:         userID,
		Name:           strings.TrimSpace(payload.Name),
		Kind:           payload.Kind,
		Category:       payload.Category,
		Currency:       payload.Currency,
		CurrentBalance: payload.CurrentBalance,
		CreditLimit:    payload.CreditLimit,
		GMFExempt:      payload.GMFExempt,
		IsActive:       true,
	}
	if err := account.Create(database.DB); err != nil {
		respondError(w, err)
		return
	}
	h.service.InvalidateSummary(userID)
	utils.WriteJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var payload accountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateAccountPayload(payload); err != nil {
		respondError(w, err)
		return
	}

	account, err := model.GetAccountByID(database.DB, userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	account.Name = strings.TrimSpace(payload.Name)
	account.Kind = payload.Kind
	account.Category = payload.Category
	account.Currency = payload.Currency
	account.CreditLimit = payload.CreditLimit
	account.GMFExempt = payload.GMFExempt
	if err := account.Update(database.DB); err != nil {
		respondError(w, err)
		return
	}
	h.service.InvalidateSummary(userID)
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleSetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Balance int64 `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.SetBalance(userID, id, payload.Balance); err != nil {
		respondError(w, err)
		return
	}
	account, err := model.GetAccountByID(database.DB, userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleValidateDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	validation, err := h.service.ValidateDelete(userID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, validation)
}

func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	summary, err := h.service.Summary(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) HandleCreditCardsSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	snapshots, err := h.service.CreditCardsSummary(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, snapshots)
}
