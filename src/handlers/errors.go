package handlers

import (
	"errors"
	"net/http"

	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/utils"
)

// respondError maps service and model errors onto HTTP responses.
// Validation errors carry the offending field; anything unclassified
// is hidden behind a correlation id.
func respondError(w http.ResponseWriter, err error) {
	var vErr *model.ValidationError
	switch {
	case errors.As(err, &vErr):
		utils.SendValidationError(w, vErr.Field, vErr.Message, http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		utils.SendJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, model.ErrConflict):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	default:
		utils.SendServerError(w, err)
	}
}
