package api

import (
	"net/http"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/session"
)

// health is a simple health check endpoint for Docker/Kubernetes probes.
// Returns 200 OK with {"status":"ok"}.
func health(logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	})
}

// readiness reports whether the server can take traffic. All state is
// process-local, so this only confirms the process is responsive and
// reports the live session count.
func readiness(registry *session.Registry, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ready",
			"sessions": registry.Len(),
		}, logger)
	})
}
