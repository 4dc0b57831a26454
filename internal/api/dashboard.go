package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/koopa0/finsight/internal/dashboard"
	"github.com/koopa0/finsight/internal/log"
)

type dashboardHandler struct {
	service SnapshotService
	logger  log.Logger
}

// snapshot handles GET /api/dashboard. Failures stay generic toward the
// client except for naming the source tool that failed; the cause is
// only logged.
func (h *dashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required", h.logger)
		return
	}

	summary, err := h.service.Snapshot(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("dashboard snapshot failed", "session", sessionID, "error", err)

		var toolErr *dashboard.ToolError
		if errors.As(err, &toolErr) {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("dashboard source failed: %s", toolErr.Tool), h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to build dashboard", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary, h.logger)
}
