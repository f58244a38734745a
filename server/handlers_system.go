package server

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthzHandler handles GET /healthz. Each registered dependency is pinged.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		failed := make(map[string]string)
		for name, check := range s.checks {
			if err := check.Ping(ctx); err != nil {
				s.logger.Error().Err(err).Str("check", name).Msg("health check failed")
				failed[name] = "unavailable"
			}
		}

		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NotFoundHandler answers anything the mux routes here but no route owns
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "not_found", "Not found", http.StatusNotFound)
	}
}
