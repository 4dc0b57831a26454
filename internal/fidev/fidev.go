// Package fidev is the bundled development stand-in for the remote
// financial data service.
//
// It serves canned fixture data for every tool in the relay catalog over
// two exposures: an HTTP handler speaking the exact streamable JSON-RPC
// dialect the relay client expects (run by `finsight mcp`), and an MCP
// SDK server for SDK transports such as stdio (`finsight mcp -stdio`).
// Fixtures are embedded so the backend runs offline out of the box.
package fidev

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/relay"
)

//go:embed data/*.json
var fixtureFS embed.FS

// Service holds the fixture payloads keyed by tool name.
type Service struct {
	fixtures map[string][]byte
	logger   log.Logger
}

// New loads the embedded fixtures for every catalog tool.
// A missing or malformed fixture is a build defect, not a runtime
// condition, so it fails construction.
func New(logger log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	fixtures := make(map[string][]byte)
	for _, tool := range relay.Catalog() {
		raw, err := fixtureFS.ReadFile("data/" + tool.Name + ".json")
		if err != nil {
			return nil, fmt.Errorf("fidev: fixture for %s: %w", tool.Name, err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("fidev: fixture for %s is not valid JSON", tool.Name)
		}
		fixtures[tool.Name] = raw
	}

	return &Service{fixtures: fixtures, logger: logger}, nil
}

// Fixture returns the raw JSON payload for a tool.
func (s *Service) Fixture(tool string) ([]byte, bool) {
	raw, ok := s.fixtures[tool]
	return raw, ok
}
