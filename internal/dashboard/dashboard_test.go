package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/koopa0/finsight/internal/fidev"
	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/relay"
)

// fakeToolCaller serves canned payloads per tool and records calls.
type fakeToolCaller struct {
	mu       sync.Mutex
	payloads map[string]string
	fail     map[string]error
	calls    []string
	sessions []string
}

func (f *fakeToolCaller) CallTool(_ context.Context, sessionID, name string, _ map[string]any) (relay.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, name)
	f.sessions = append(f.sessions, sessionID)
	if err, ok := f.fail[name]; ok {
		return relay.CallResult{}, fmt.Errorf("tool %s: %w", name, err)
	}
	payload, ok := f.payloads[name]
	if !ok {
		return relay.CallResult{}, fmt.Errorf("tool %s: no payload", name)
	}
	return relay.CallResult{Content: []relay.Content{{Type: "text", Text: payload}}}, nil
}

// fixtureCaller serves the embedded development fixtures.
func fixtureCaller(t *testing.T) *fakeToolCaller {
	t.Helper()
	svc, err := fidev.New(log.NewNop())
	if err != nil {
		t.Fatalf("fidev.New() error: %v", err)
	}

	payloads := make(map[string]string)
	for _, tool := range relay.Catalog() {
		raw, ok := svc.Fixture(tool.Name)
		if !ok {
			t.Fatalf("no fixture for %s", tool.Name)
		}
		payloads[tool.Name] = string(raw)
	}
	return &fakeToolCaller{payloads: payloads}
}

func newTestService(t *testing.T, tools ToolCaller) *Service {
	t.Helper()
	svc, err := New(tools, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return svc
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, log.NewNop()); err == nil {
		t.Error("New() with nil tools should fail")
	}
	if _, err := New(&fakeToolCaller{}, nil); err == nil {
		t.Error("New() with nil logger should fail")
	}
}

func TestSnapshot_Fixtures(t *testing.T) {
	caller := fixtureCaller(t)
	svc := newTestService(t, caller)

	summary, err := svc.Snapshot(t.Context(), "s1")
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	if summary.NetWorth != 1676000 {
		t.Errorf("NetWorth = %d, want 1676000", summary.NetWorth)
	}
	if summary.CreditScore != 746 {
		t.Errorf("CreditScore = %d, want 746", summary.CreditScore)
	}

	want := []Asset{
		{Type: "MUTUAL_FUND", Value: 840000},
		{Type: "EPF", Value: 355000},
		{Type: "INDIAN_SECURITIES", Value: 225000},
		{Type: "SAVINGS_ACCOUNTS", Value: 436000},
	}
	if len(summary.Assets) != len(want) {
		t.Fatalf("Assets = %v, want %v", summary.Assets, want)
	}
	for i, asset := range summary.Assets {
		if asset != want[i] {
			t.Errorf("Assets[%d] = %v, want %v", i, asset, want[i])
		}
	}

	// Exactly the two source tools, both under the caller's session.
	if len(caller.calls) != 2 {
		t.Fatalf("tool calls = %v, want 2 calls", caller.calls)
	}
	for i, name := range caller.calls {
		if name != relay.ToolNetWorth && name != relay.ToolCreditReport {
			t.Errorf("unexpected tool call %s", name)
		}
		if caller.sessions[i] != "s1" {
			t.Errorf("call %s carried session %q, want s1", name, caller.sessions[i])
		}
	}
}

func TestSnapshot_ToolFailureNamesTool(t *testing.T) {
	caller := fixtureCaller(t)
	caller.fail = map[string]error{relay.ToolCreditReport: errors.New("connection refused")}
	svc := newTestService(t, caller)

	_, err := svc.Snapshot(t.Context(), "s1")
	if err == nil {
		t.Fatal("Snapshot() should fail when a source tool fails")
	}
	if !strings.Contains(err.Error(), relay.ToolCreditReport) {
		t.Errorf("error %q should name the failed tool", err)
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error %v should be a *ToolError", err)
	}
	if toolErr.Tool != relay.ToolCreditReport {
		t.Errorf("ToolError.Tool = %q, want %q", toolErr.Tool, relay.ToolCreditReport)
	}
}

func TestSnapshot_MalformedPayload(t *testing.T) {
	caller := fixtureCaller(t)
	caller.payloads[relay.ToolNetWorth] = `{"unexpected":"shape"}`
	svc := newTestService(t, caller)

	_, err := svc.Snapshot(t.Context(), "s1")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Snapshot() error = %v, want ErrMalformedPayload", err)
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error %v should be a *ToolError", err)
	}
	if toolErr.Tool != relay.ToolNetWorth {
		t.Errorf("ToolError.Tool = %q, want %q", toolErr.Tool, relay.ToolNetWorth)
	}
}

func TestParseNetWorth_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{
			name:     "not json",
			raw:      "<html>",
			wantPath: "malformed tool payload",
		},
		{
			name:     "missing envelope",
			raw:      `{}`,
			wantPath: "netWorthResponse",
		},
		{
			name:     "missing total",
			raw:      `{"netWorthResponse":{"assetValues":[]}}`,
			wantPath: "netWorthResponse.totalNetWorthValue",
		},
		{
			name:     "malformed total units",
			raw:      `{"netWorthResponse":{"totalNetWorthValue":{"units":"lots"}}}`,
			wantPath: "netWorthResponse.totalNetWorthValue.units",
		},
		{
			name:     "missing attribute",
			raw:      `{"netWorthResponse":{"totalNetWorthValue":{"units":"10"},"assetValues":[{"value":{"units":"5"}}]}}`,
			wantPath: "netWorthResponse.assetValues[0].netWorthAttribute",
		},
		{
			name:     "malformed asset units",
			raw:      `{"netWorthResponse":{"totalNetWorthValue":{"units":"10"},"assetValues":[{"netWorthAttribute":"ASSET_TYPE_EPF","value":{}}]}}`,
			wantPath: "netWorthResponse.assetValues[0].value.units",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseNetWorth(tt.raw)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("parseNetWorth() error = %v, want ErrMalformedPayload", err)
			}
			if !strings.Contains(err.Error(), tt.wantPath) {
				t.Errorf("error %q should contain %q", err, tt.wantPath)
			}
		})
	}
}

func TestParseNetWorth_FiltersAndStrips(t *testing.T) {
	raw := `{"netWorthResponse":{
		"totalNetWorthValue":{"units":"150"},
		"assetValues":[
			{"netWorthAttribute":"ASSET_TYPE_EPF","value":{"units":"200"}},
			{"netWorthAttribute":"LIABILITY_TYPE_HOME_LOAN","value":{"units":"50"}},
			{"netWorthAttribute":"SAVINGS","value":{"units":"10"}}
		]}}`

	total, assets, err := parseNetWorth(raw)
	if err != nil {
		t.Fatalf("parseNetWorth() error: %v", err)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}
	want := []Asset{{Type: "EPF", Value: 200}, {Type: "SAVINGS", Value: 10}}
	if len(assets) != len(want) {
		t.Fatalf("assets = %v, want %v", assets, want)
	}
	for i, asset := range assets {
		if asset != want[i] {
			t.Errorf("assets[%d] = %v, want %v", i, asset, want[i])
		}
	}
	// Liability values never leak into the asset list.
	for _, asset := range assets {
		if strings.Contains(asset.Type, "LOAN") {
			t.Errorf("liability %v survived the filter", asset)
		}
	}
}

func TestParseCreditScore_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{"not json", "oops", "malformed tool payload"},
		{"empty reports", `{"creditReports":[]}`, "creditReports"},
		{"missing score", `{"creditReports":[{"creditReportData":{}}]}`, "creditReports[0].creditReportData.score"},
		{"non-numeric score", `{"creditReports":[{"creditReportData":{"score":{"bureauScore":"excellent"}}}]}`, "bureauScore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCreditScore(tt.raw)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("parseCreditScore() error = %v, want ErrMalformedPayload", err)
			}
			if !strings.Contains(err.Error(), tt.wantPath) {
				t.Errorf("error %q should contain %q", err, tt.wantPath)
			}
		})
	}
}

func TestSummary_WireShape(t *testing.T) {
	raw, err := json.Marshal(Summary{
		NetWorth:    1676000,
		Assets:      []Asset{{Type: "EPF", Value: 355000}},
		CreditScore: 746,
	})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"netWorth":1676000,"assets":[{"type":"EPF","value":355000}],"creditScore":746}`
	if string(raw) != want {
		t.Errorf("Summary JSON = %s, want %s", raw, want)
	}

	// No assets still serializes as an array.
	raw, err = json.Marshal(Summary{Assets: []Asset{}})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(raw), `"assets":[]`) {
		t.Errorf("empty assets serialized as %s, want []", raw)
	}
}
