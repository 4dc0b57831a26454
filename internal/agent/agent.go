// Package agent runs the conversational tool loop against the Gemini API.
//
// One Agent serves all sessions. Each Chat call replays the session's
// history, sends the new user message, and loops: when the model requests
// tool invocations they are relayed in parallel, the results are fed back
// as function responses, and generation resumes. The loop ends when the
// model answers with text, or errors out at the iteration cap.
//
// Tool failures do not abort a turn. A failed relay call is returned to
// the model as an {"error": ...} function response so it can explain or
// retry, and the failure is logged with the tool name.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/relay"
	"github.com/koopa0/finsight/internal/session"
)

const (
	// maxToolIterations caps how many tool rounds one chat turn may take.
	maxToolIterations = 8

	// fallbackReply is returned when the model produces an empty response.
	fallbackReply = "I couldn't generate a response. Please try rephrasing your question."
)

// systemInstruction fixes the assistant's behavior for every session.
const systemInstruction = `You are FinSight, a personal finance assistant. You answer questions about the user's net worth, assets, liabilities, bank transactions, EPF balance, credit report, mutual funds, and stock holdings.

Rules:
1. When you are missing data, call the available tools to fetch it. Never mention tool names, data fetching, or any internal mechanics in your reply.
2. When the user asks for a chart, graph, or any other visualization, reply with exactly one well-formed JSON object and nothing else, shaped as {"type": "chart", "title": "...", "summary": "...", "data": [{"name": "...", "value": 123, "color": "#4F8EF7"}, ...]}.
3. Otherwise reply in plain analytical text grounded in the fetched data.`

// Generator is the slice of the Gemini client the agent needs.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ToolCaller invokes a named tool on the remote data service.
// *relay.Client satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, sessionID, name string, arguments map[string]any) (relay.CallResult, error)
}

// Config contains all required parameters for the agent.
type Config struct {
	Generator Generator
	Tools     ToolCaller
	Logger    log.Logger

	Model       string  // Gemini model name, e.g. gemini-2.5-flash
	Temperature float32 // sampling temperature, 0 to 2
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Tools == nil {
		return errors.New("tool caller is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Model == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent answers chat messages, fetching financial data through tools as
// needed. Safe for concurrent use; per-conversation state lives in the
// session, not here.
type Agent struct {
	generator Generator
	tools     ToolCaller
	logger    log.Logger
	tracer    trace.Tracer

	// Captured immutably at construction.
	model     string
	genConfig *genai.GenerateContentConfig
}

// New creates an agent with required configuration. The generation config
// (tool declarations, temperature, system instruction) is built once here
// and reused across all calls.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	return &Agent{
		generator: cfg.Generator,
		tools:     cfg.Tools,
		logger:    cfg.Logger,
		tracer:    otel.Tracer("finsight/agent"),
		model:     cfg.Model,
		genConfig: &genai.GenerateContentConfig{
			Tools:             declarations(),
			Temperature:       ptrFloat(cfg.Temperature),
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	}, nil
}

// Chat runs one conversational turn. The session's history is replayed to
// the model and, on success, extended with everything this turn produced:
// the user message, each model step, each batch of function responses.
// The returned reply has any wrapping markdown code fence removed.
func (a *Agent) Chat(ctx context.Context, sess *session.Session, message string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "agent.Chat",
		trace.WithAttributes(attribute.String("session.id", sess.ID())))
	defer span.End()

	contents := sess.History()
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	// New contents are committed to the session only when the turn
	// succeeds, starting from the user message.
	turn := contents[len(contents)-1:]

	for range maxToolIterations {
		resp, err := a.generator.GenerateContent(ctx, a.model, contents, a.genConfig)
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", ErrNoResponse
		}

		modelContent := resp.Candidates[0].Content
		contents = append(contents, modelContent)
		turn = append(turn, modelContent)

		calls := extractFunctionCalls(modelContent)
		if len(calls) == 0 {
			reply := stripFences(extractText(modelContent))
			if reply == "" {
				reply = fallbackReply
			}
			sess.Append(turn...)
			return reply, nil
		}

		a.logger.Debug("model requested tools", "session", sess.ID(), "count", len(calls))

		// All calls in one round run in parallel. Results are slotted
		// by index so responses stay keyed to their requests.
		parts := make([]*genai.Part, len(calls))
		var wg sync.WaitGroup
		for i, call := range calls {
			wg.Add(1)
			go func() {
				defer wg.Done()
				parts[i] = a.callTool(ctx, sess.ID(), call)
			}()
		}
		wg.Wait()

		funcContent := &genai.Content{Role: genai.RoleUser, Parts: parts}
		contents = append(contents, funcContent)
		turn = append(turn, funcContent)
	}

	return "", fmt.Errorf("%w (%d rounds)", ErrToolLoopExceeded, maxToolIterations)
}

// callTool relays one function call and shapes the outcome as a function
// response part. Failures become {"error": ...} payloads instead of
// aborting the batch.
func (a *Agent) callTool(ctx context.Context, sessionID string, call *genai.FunctionCall) *genai.Part {
	result, err := a.tools.CallTool(ctx, sessionID, call.Name, call.Args)
	if err != nil {
		a.logger.Warn("tool call failed", "session", sessionID, "tool", call.Name, "error", err)
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			Name:     call.Name,
			Response: map[string]any{"error": err.Error()},
		}}
	}

	// Tool payloads are JSON documents. Hand the model the parsed object
	// when possible, the raw text otherwise.
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.PrimaryText()), &payload); err != nil {
		payload = map[string]any{"result": result.PrimaryText()}
	}
	return &genai.Part{FunctionResponse: &genai.FunctionResponse{
		Name:     call.Name,
		Response: payload,
	}}
}

// declarations exposes the relay catalog to the model. None of the tools
// take arguments, so the parameter schemas stay empty.
func declarations() []*genai.Tool {
	tools := relay.Catalog()
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func extractFunctionCalls(c *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, p := range c.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

func extractText(c *genai.Content) string {
	for _, p := range c.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// stripFences removes a markdown code fence wrapping the whole reply,
// with or without a language tag. Inner fences are left alone.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:] // drop the language tag line
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func ptrFloat(f float32) *float32 { return &f }
