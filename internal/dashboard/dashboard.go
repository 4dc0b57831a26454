// Package dashboard assembles the financial overview snapshot.
//
// A snapshot is derived from exactly two tool results, fetched in
// parallel: net worth (which carries the asset breakdown) and the credit
// report. The raw payloads are decoded into typed structures and any
// missing or malformed field fails the snapshot with an error naming the
// offending JSON path.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/relay"
)

// ToolCaller invokes a named tool on the remote data service.
// *relay.Client satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, sessionID, name string, arguments map[string]any) (relay.CallResult, error)
}

// Summary is the dashboard payload.
type Summary struct {
	NetWorth    int64   `json:"netWorth"`
	Assets      []Asset `json:"assets"`
	CreditScore int     `json:"creditScore"`
}

// Asset is one asset category and its current value. Type is the
// category label with the wire prefix stripped, e.g. MUTUAL_FUND.
type Asset struct {
	Type  string `json:"type"`
	Value int64  `json:"value"`
}

// Service builds dashboard snapshots. Safe for concurrent use.
type Service struct {
	tools  ToolCaller
	logger log.Logger
	tracer trace.Tracer
}

// New creates a dashboard service.
func New(tools ToolCaller, logger log.Logger) (*Service, error) {
	if tools == nil {
		return nil, errors.New("dashboard: tool caller is required")
	}
	if logger == nil {
		return nil, errors.New("dashboard: logger is required")
	}
	return &Service{
		tools:  tools,
		logger: logger,
		tracer: otel.Tracer("finsight/dashboard"),
	}, nil
}

// Snapshot fetches both source tools in parallel and reshapes their
// payloads. A failed fetch surfaces the relay error, which names the
// tool; a shape mismatch surfaces the JSON path that was missing or
// malformed.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (Summary, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Snapshot",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	var netWorthRaw, creditRaw string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		result, err := s.tools.CallTool(egCtx, sessionID, relay.ToolNetWorth, nil)
		if err != nil {
			return &ToolError{Tool: relay.ToolNetWorth, Err: err}
		}
		netWorthRaw = result.PrimaryText()
		return nil
	})
	eg.Go(func() error {
		result, err := s.tools.CallTool(egCtx, sessionID, relay.ToolCreditReport, nil)
		if err != nil {
			return &ToolError{Tool: relay.ToolCreditReport, Err: err}
		}
		creditRaw = result.PrimaryText()
		return nil
	})
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		s.logger.Warn("dashboard fetch failed", "session", sessionID, "error", err)
		return Summary{}, err
	}

	netWorth, assets, err := parseNetWorth(netWorthRaw)
	if err != nil {
		span.RecordError(err)
		return Summary{}, &ToolError{Tool: relay.ToolNetWorth, Err: fmt.Errorf("tool %s: %w", relay.ToolNetWorth, err)}
	}
	score, err := parseCreditScore(creditRaw)
	if err != nil {
		span.RecordError(err)
		return Summary{}, &ToolError{Tool: relay.ToolCreditReport, Err: fmt.Errorf("tool %s: %w", relay.ToolCreditReport, err)}
	}

	return Summary{NetWorth: netWorth, Assets: assets, CreditScore: score}, nil
}
