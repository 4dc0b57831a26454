package relay

import (
	"encoding/json"
	"strings"
)

// Content represents a single content part returned from a tool invocation.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallResult captures the structured output of a tool invocation.
// The financial service nests the usable payload as a JSON document inside
// the first text part; use PrimaryText to retrieve it.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text concatenates text parts within the result. Multiple segments are
// joined with a newline to preserve ordering.
func (r CallResult) Text() string {
	var segments []string
	for _, part := range r.Content {
		if part.Type != "text" {
			continue
		}
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return strings.Join(segments, "\n")
}

// PrimaryText returns the first text part of the result, which carries the
// tool's JSON payload on the wire.
func (r CallResult) PrimaryText() string {
	for _, part := range r.Content {
		if part.Type == "text" && part.Text != "" {
			return part.Text
		}
	}
	return ""
}

// request is a JSON-RPC 2.0 request as the tool service expects it.
type request struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      uint64     `json:"id"`
	Method  string     `json:"method"`
	Params  callParams `json:"params"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type responseEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
