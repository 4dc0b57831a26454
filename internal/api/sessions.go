package api

import (
	"net/http"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/session"
)

type sessionsHandler struct {
	registry *session.Registry
	logger   log.Logger
}

// list handles GET /api/sessions, returning the live sessions most
// recently used first.
func (h *sessionsHandler) list(w http.ResponseWriter, _ *http.Request) {
	items := h.registry.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	}, h.logger)
}
