package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

// SettingsHandler exposes the public feature flags and the admin flag editor.
type SettingsHandler struct {
	settings *service.SettingsService
	logger   *zap.Logger
}

// NewSettingsHandler creates the settings HTTP handler.
func NewSettingsHandler(settings *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Public returns the flags the public site reads.
func (h *SettingsHandler) Public(w http.ResponseWriter, r *http.Request) {
	flags, err := h.settings.PublicFlags(r.Context())
	if err != nil {
		h.logger.Error("public settings read failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, flags)
}

// AdminList returns every stored setting.
func (h *SettingsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.All(r.Context())
	if err != nil {
		h.logger.Error("settings read failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

type settingUpdateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AdminUpdate upserts one allow-listed flag.
func (h *SettingsHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		respondError(w, http.StatusBadRequest, "Invalid key or value")
		return
	}

	setting, err := h.settings.Update(r.Context(), req.Key, req.Value)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, setting)
	case errors.Is(err, service.ErrInvalidSettingKey):
		respondError(w, http.StatusBadRequest, "Invalid setting key")
	case errors.Is(err, service.ErrInvalidSettingValue):
		respondError(w, http.StatusBadRequest, "Invalid setting value")
	default:
		h.logger.Error("setting update failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
