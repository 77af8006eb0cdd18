package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

// MessageHandler exposes the admin inbox over contact submissions.
type MessageHandler struct {
	contact *service.ContactService
	logger  *zap.Logger
}

// NewMessageHandler creates the message HTTP handler.
func NewMessageHandler(contact *service.ContactService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{contact: contact, logger: logger}
}

// List returns all messages, newest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contact.List(r.Context())
	if err != nil {
		h.logger.Error("message list failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

type readUpdateRequest struct {
	Read *bool `json:"read"`
}

// SetRead updates a message's read flag.
func (h *MessageHandler) SetRead(w http.ResponseWriter, r *http.Request) {
	var req readUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Read == nil {
		respondError(w, http.StatusBadRequest, "Invalid read value")
		return
	}

	msg, err := h.contact.SetRead(r.Context(), chi.URLParam(r, "id"), *req.Read)
	if errors.Is(err, sqlite.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		h.logger.Error("message update failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// Delete removes a message.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.contact.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		h.logger.Error("message delete failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
