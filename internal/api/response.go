package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/koopa0/finsight/internal/log"
)

// writeJSON writes a JSON response with the given status code.
// Uses buffer-first strategy to ensure headers are only sent after successful encoding.
// This allows returning a proper 500 error if JSON encoding fails.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected
		logger.Debug("writing response body", "error", err)
	}
}

// writeError writes the flat error envelope {"error": message}.
func writeError(w http.ResponseWriter, status int, message string, logger log.Logger) {
	writeJSON(w, status, map[string]string{"error": message}, logger)
}
