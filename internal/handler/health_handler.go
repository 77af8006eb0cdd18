package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"portfolio-backend/internal/client"
)

// HealthHandler reports dependency health for uptime checks.
type HealthHandler struct {
	db    *sqlx.DB
	redis *client.RedisClient // nil when the in-process limiter is used
}

// NewHealthHandler creates the health HTTP handler.
func NewHealthHandler(db *sqlx.DB, redis *client.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"db": h.db.PingContext(r.Context()) == nil,
	}
	if h.redis != nil {
		checks["redis"] = h.redis.HealthCheck(r.Context()) == nil
	}

	healthy := true
	for _, ok := range checks {
		healthy = healthy && ok
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}
