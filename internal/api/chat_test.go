package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestChat_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.agent.reply = "Your net worth is ₹16,76,000."

	w := ts.do(http.MethodPost, "/api/chat", `{"message":"net worth?","sessionId":"s1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}

	var body struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Reply != "Your net worth is ₹16,76,000." {
		t.Errorf("reply = %q", body.Reply)
	}
	if ts.agent.lastMsg != "net worth?" {
		t.Errorf("agent saw message %q", ts.agent.lastMsg)
	}
	// The session now exists in the registry.
	if ts.registry.Len() != 1 {
		t.Errorf("registry length = %d, want 1", ts.registry.Len())
	}
}

func TestChat_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing message", `{"sessionId":"s1"}`, "message is required"},
		{"missing sessionId", `{"message":"hi"}`, "sessionId is required"},
		{"blank message", `{"message":"   ","sessionId":"s1"}`, "message is required"},
		{"blank sessionId", `{"message":"hi","sessionId":" "}`, "sessionId is required"},
		{"empty body", `{}`, "message is required"},
		{"malformed json", `{"message":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			w := ts.do(http.MethodPost, "/api/chat", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if got := decodeError(t, w); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			// Bad input never reaches the agent.
			if ts.agent.callCount() != 0 {
				t.Errorf("agent called %d times, want 0", ts.agent.callCount())
			}
		})
	}
}

func TestChat_AgentFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.agent.err = errors.New("generate content: quota exceeded")

	w := ts.do(http.MethodPost, "/api/chat", `{"message":"hi","sessionId":"s1"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	got := decodeError(t, w)
	if got != "failed to process message" {
		t.Errorf("error = %q, want generic message", got)
	}
	// Upstream details stay out of the response body.
	if strings.Contains(w.Body.String(), "quota") {
		t.Errorf("response leaked upstream error: %s", w.Body.String())
	}
}

func TestChat_OversizedBody(t *testing.T) {
	ts := newTestServer(t)

	padding := strings.Repeat("x", maxChatBodyBytes+1024)
	body := `{"message":"` + padding + `","sessionId":"s1"}`

	w := ts.do(http.MethodPost, "/api/chat", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if ts.agent.callCount() != 0 {
		t.Errorf("agent called %d times, want 0", ts.agent.callCount())
	}
}

func TestChat_SameSessionReused(t *testing.T) {
	ts := newTestServer(t)

	for range 2 {
		if w := ts.do(http.MethodPost, "/api/chat", `{"message":"hi","sessionId":"s1"}`); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}

	if ts.registry.Len() != 1 {
		t.Errorf("registry length = %d, want 1 (same sessionId reuses state)", ts.registry.Len())
	}
	if ts.agent.callCount() != 2 {
		t.Errorf("agent called %d times, want 2", ts.agent.callCount())
	}
}
