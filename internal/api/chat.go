package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/session"
)

// maxChatBodyBytes bounds the POST /api/chat request body.
const maxChatBodyBytes = 1 << 20

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// chatResponse is the POST /api/chat success body.
type chatResponse struct {
	Reply string `json:"reply"`
}

type chatHandler struct {
	agent    ChatAgent
	registry *session.Registry
	logger   log.Logger
}

// send handles POST /api/chat. Input validation happens before any
// session or model work, so a bad request never reaches the agent.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", h.logger)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required", h.logger)
		return
	}

	sess := h.registry.GetOrCreate(req.SessionID)
	reply, err := h.agent.Chat(r.Context(), sess, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process message", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply}, h.logger)
}
