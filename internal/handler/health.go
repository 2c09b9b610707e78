package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/affiliateportal/internal/domain"
)

// HealthHandler serves liveness and readiness probes. Liveness only reports
// that the process runs; readiness also reports remote store connectivity,
// which is informational because the portal serves from local state either
// way.
type HealthHandler struct {
	remote domain.RemoteStore
	logger *slog.Logger
}

// NewHealthHandler creates the health handler. remote may be nil when the
// portal runs local-only.
func NewHealthHandler(remote domain.RemoteStore, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{remote: remote, logger: logger}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"local_state": "ok"}
	if h.remote != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if h.remote.HealthCheck(ctx) {
			checks["remote_store"] = "ok"
		} else {
			checks["remote_store"] = "unreachable"
		}
	} else {
		checks["remote_store"] = "disabled"
	}

	// Remote trouble never fails readiness: local state keeps serving.
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}
