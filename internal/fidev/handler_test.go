package fidev

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/relay"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return svc
}

// postStream sends a raw JSON-RPC body to the handler and decodes the envelope.
func postStream(t *testing.T, handler http.Handler, sessionID, body string) (int, map[string]any) {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/mcp/stream", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		r.Header.Set("Mcp-Session-Id", sessionID)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	var env map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope: %v\nbody: %s", err, w.Body.String())
	}
	return w.Code, env
}

func callBody(tool string) string {
	return `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"` + tool + `","arguments":{}}}`
}

func TestHandler_ServesFixture(t *testing.T) {
	svc := newTestService(t)

	status, env := postStream(t, svc.Handler(), "session-1", callBody(relay.ToolNetWorth))
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	result, ok := env["result"].(map[string]any)
	if !ok {
		t.Fatalf("envelope missing result: %v", env)
	}
	content, ok := result["content"].([]any)
	if !ok || len(content) == 0 {
		t.Fatalf("result missing content parts: %v", result)
	}
	part := content[0].(map[string]any)
	if part["type"] != "text" {
		t.Errorf("content[0].type = %v, want text", part["type"])
	}

	// The text part must itself be a JSON document with the expected shape
	var payload map[string]any
	if err := json.Unmarshal([]byte(part["text"].(string)), &payload); err != nil {
		t.Fatalf("content[0].text is not JSON: %v", err)
	}
	if _, ok := payload["netWorthResponse"]; !ok {
		t.Error("net worth fixture missing netWorthResponse")
	}

	if got := env["id"]; got != float64(7) {
		t.Errorf("envelope id = %v, want 7 (echoed)", got)
	}
}

func TestHandler_MissingSessionHeader(t *testing.T) {
	svc := newTestService(t)

	status, env := postStream(t, svc.Handler(), "", callBody(relay.ToolNetWorth))
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (rpc-level error)", status)
	}

	rpcErr, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected rpc error, got: %v", env)
	}
	if rpcErr["code"] != float64(codeInvalidRequest) {
		t.Errorf("error code = %v, want %d", rpcErr["code"], codeInvalidRequest)
	}
	if !strings.Contains(rpcErr["message"].(string), "Mcp-Session-Id") {
		t.Errorf("error message %q should name the missing header", rpcErr["message"])
	}
}

func TestHandler_UnknownTool(t *testing.T) {
	svc := newTestService(t)

	_, env := postStream(t, svc.Handler(), "s1", callBody("fetch_lottery_numbers"))

	rpcErr, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected rpc error, got: %v", env)
	}
	if rpcErr["code"] != float64(codeInvalidParams) {
		t.Errorf("error code = %v, want %d", rpcErr["code"], codeInvalidParams)
	}
}

func TestHandler_UnknownMethod(t *testing.T) {
	svc := newTestService(t)

	_, env := postStream(t, svc.Handler(), "s1",
		`{"jsonrpc":"2.0","id":1,"method":"resources/list","params":{}}`)

	rpcErr, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected rpc error, got: %v", env)
	}
	if rpcErr["code"] != float64(codeMethodNotFound) {
		t.Errorf("error code = %v, want %d", rpcErr["code"], codeMethodNotFound)
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	svc := newTestService(t)

	_, env := postStream(t, svc.Handler(), "s1", `{not json`)

	rpcErr, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected rpc error, got: %v", env)
	}
	if rpcErr["code"] != float64(codeParseError) {
		t.Errorf("error code = %v, want %d", rpcErr["code"], codeParseError)
	}
}

// TestHandler_RelayRoundTrip proves the dev service and the relay client
// speak the same dialect end to end.
func TestHandler_RelayRoundTrip(t *testing.T) {
	svc := newTestService(t)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	client, err := relay.New(relay.Config{BaseURL: srv.URL}, log.NewNop())
	if err != nil {
		t.Fatalf("relay.New() error: %v", err)
	}

	for _, tool := range relay.Catalog() {
		result, err := client.CallTool(t.Context(), "round-trip", tool.Name, nil)
		if err != nil {
			t.Fatalf("CallTool(%s) error: %v", tool.Name, err)
		}
		if !json.Valid([]byte(result.PrimaryText())) {
			t.Errorf("CallTool(%s) payload is not valid JSON", tool.Name)
		}
	}
}

func TestFixture_AllCatalogToolsCovered(t *testing.T) {
	svc := newTestService(t)

	for _, tool := range relay.Catalog() {
		if _, ok := svc.Fixture(tool.Name); !ok {
			t.Errorf("no fixture for catalog tool %s", tool.Name)
		}
	}
	if _, ok := svc.Fixture("fetch_lottery_numbers"); ok {
		t.Error("Fixture() returned data for an unknown tool")
	}
}
