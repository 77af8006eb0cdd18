package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

const defaultWindowDays = 7

// AnalyticsHandler exposes tracking ingestion and the admin analytics reads.
type AnalyticsHandler struct {
	analytics     *service.AnalyticsService
	retentionDays int
	logger        *zap.Logger
}

// NewAnalyticsHandler creates the analytics HTTP handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, retentionDays int, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:     analytics,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

type trackRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// Track ingests one client-side navigation ping. Recording is fire and
// forget: the response never waits on, or fails with, storage.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		respondError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	// Admin navigation is accepted but never recorded.
	if strings.HasPrefix(req.Path, "/admin") {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	h.analytics.RecordPageView(req.Path, req.Referrer, r.UserAgent(), ClientIP(r))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Traffic returns the aggregated traffic summary for ?days=N (default 7).
func (h *AnalyticsHandler) Traffic(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.TrafficSummary(r.Context(), windowDays(r))
	if err != nil {
		h.logger.Error("traffic summary failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Security returns the aggregated security summary for ?days=N (default 7).
func (h *AnalyticsHandler) Security(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.SecuritySummary(r.Context(), windowDays(r))
	if err != nil {
		h.logger.Error("security summary failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Purge deletes events past the retention horizon. Unlike recording, this is
// an explicit admin action, so failures must surface.
func (h *AnalyticsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	result, err := h.analytics.Purge(r.Context(), h.retentionDays)
	if err != nil {
		h.logger.Error("purge failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"purged": result})
}

func windowDays(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		return defaultWindowDays
	}
	return days
}
