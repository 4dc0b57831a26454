package fidev

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// JSON-RPC error codes used by the dialect.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxRequestBytes bounds the accepted request body.
const maxRequestBytes = 1 << 20

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResult struct {
	Content []contentPart `json:"content"`
}

// Handler returns the HTTP surface of the dev service: POST /mcp/stream
// speaking the same dialect the relay client sends.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp/stream", s.handleStream)
	return mux
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, nil, codeParseError, "parse error")
		return
	}

	if req.Method != "tools/call" {
		s.writeError(w, req.ID, codeMethodNotFound, "method not found: "+req.Method)
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		s.writeError(w, req.ID, codeInvalidRequest, "missing Mcp-Session-Id header")
		return
	}

	fixture, ok := s.fixtures[req.Params.Name]
	if !ok {
		s.writeError(w, req.ID, codeInvalidParams, "unknown tool: "+req.Params.Name)
		return
	}

	s.logger.Debug("serving fixture", "tool", req.Params.Name, "session_id", sessionID)
	s.writeResult(w, req.ID, callResult{
		Content: []contentPart{{Type: "text", Text: string(fixture)}},
	})
}

func (s *Service) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	s.writeJSON(w, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Service) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	s.writeJSON(w, rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcErrorBody{Code: code, Message: message}})
}

// writeJSON encodes to a buffer first so headers are only sent after
// successful encoding.
func (s *Service) writeJSON(w http.ResponseWriter, resp rpcResponse) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(resp); err != nil {
		s.logger.Error("failed to encode rpc response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("failed to write rpc response", "error", err)
	}
}
