// internal/api/health.go
package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const readyTimeout = 3 * time.Second

// Health reports liveness only.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.checkTime().Format(time.RFC3339),
	})
}

// Ready runs every registered check and answers 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	status, code := "ready", http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = err.Error()
			status, code = "not ready", http.StatusServiceUnavailable
			h.logger.Warn("readiness check failed", map[string]interface{}{"check": name, "error": err.Error()})
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
		"time":   h.checkTime().Format(time.RFC3339),
	})
}
