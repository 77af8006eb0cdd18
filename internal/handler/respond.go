package handler

import (
	"encoding/json"
	"net/http"

	"portfolio-backend/internal/util"
)

// errorBody is the uniform error shape: a short machine-stable string, never
// internal details.
type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		util.Error("failed to encode response", util.ErrorField(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}
