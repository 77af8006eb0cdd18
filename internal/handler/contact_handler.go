package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

// ContactHandler accepts public contact form submissions.
type ContactHandler struct {
	contact *service.ContactService
	logger  *zap.Logger
}

// NewContactHandler creates the contact HTTP handler.
func NewContactHandler(contact *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{contact: contact, logger: logger}
}

// Submit validates and stores a submission. Oversized messages get 413, all
// other validation failures 400, before any side effect.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.contact.Submit(r.Context(), &req)
	switch {
	case err == nil:
		w.Header().Set("Cache-Control", "no-store")
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, service.ErrMessageTooLong):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrNameLength),
		errors.Is(err, service.ErrMessageTooShort):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("contact submission failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
