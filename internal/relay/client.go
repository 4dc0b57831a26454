// Package relay bridges tool calls to the remote financial data service.
//
// The service speaks a streamable JSON-RPC dialect: every call is a
// POST to {base}/mcp/stream with method "tools/call", and the caller's
// session ID travels in the Mcp-Session-Id header so the service can
// correlate requests from the same conversation. Responses nest the
// usable payload as a JSON document inside result.content[0].text.
//
// The client is deliberately hand-rolled: the official MCP SDK client
// drives its own initialize handshake and session lifecycle, which this
// service does not speak.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/koopa0/finsight/internal/log"
)

const (
	// streamPath is appended to the configured base URL for every call.
	streamPath = "/mcp/stream"

	// sessionHeader correlates calls from one conversation on the service side.
	sessionHeader = "Mcp-Session-Id"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Config holds the settings for a relay client.
type Config struct {
	// BaseURL is the tool service root, e.g. http://localhost:8090
	BaseURL string
	// Timeout bounds each HTTP call. Zero means 30 seconds.
	Timeout time.Duration
}

// Client invokes tools on the remote financial data service.
// Safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	logger   log.Logger
	tracer   trace.Tracer
	nextID   atomic.Uint64
}

// New creates a relay client. The logger must not be nil.
func New(cfg Config, logger log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("relay: base URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("relay: logger is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + streamPath,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		tracer:   otel.Tracer("finsight/relay"),
	}, nil
}

// CallTool invokes a named tool and returns its result. The sessionID is
// forwarded in the correlation header; arguments may be nil for tools that
// take none. All error returns are prefixed with the tool name so fan-out
// callers can attribute failures.
func (c *Client) CallTool(ctx context.Context, sessionID, name string, arguments map[string]any) (CallResult, error) {
	ctx, span := c.tracer.Start(ctx, "relay.CallTool",
		trace.WithAttributes(attribute.String("tool.name", name)))
	defer span.End()

	result, err := c.callTool(ctx, sessionID, name, arguments)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("tool call failed", "tool", name, "error", err)
		return CallResult{}, fmt.Errorf("tool %s: %w", name, err)
	}

	c.logger.Debug("tool call completed", "tool", name, "parts", len(result.Content))
	return result, nil
}

func (c *Client) callTool(ctx context.Context, sessionID, name string, arguments map[string]any) (CallResult, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}

	payload, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "tools/call",
		Params:  callParams{Name: name, Arguments: arguments},
	})
	if err != nil {
		return CallResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return CallResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return CallResult{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CallResult{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var env responseEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		return CallResult{}, fmt.Errorf("decode response: %w", err)
	}

	if env.Error != nil {
		return CallResult{}, fmt.Errorf("%w: %d %s", ErrRPC, env.Error.Code, env.Error.Message)
	}

	var result CallResult
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, &result); err != nil {
			return CallResult{}, fmt.Errorf("decode result: %w", err)
		}
	}

	if result.IsError {
		message := strings.TrimSpace(result.Text())
		if message == "" {
			message = "tool reported an error"
		}
		return CallResult{}, fmt.Errorf("%w: %s", ErrToolFailed, message)
	}

	if len(result.Content) == 0 {
		return CallResult{}, ErrEmptyResult
	}

	return result, nil
}
