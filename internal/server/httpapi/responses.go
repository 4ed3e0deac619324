package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/registrar/internal/common"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: detail})
}

// writeError maps a service error onto a status code. Server-side failures
// are logged and answered with a generic body.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *common.ConflictError

	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		unauthorized(w, "Incorrect username or password")
	case errors.Is(err, common.ErrorUnauthorized):
		unauthorized(w, "Could not validate credentials")
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Detail: conflict.Field + " already registered", Field: conflict.Field})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "not found"})
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}
