package fidev

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koopa0/finsight/internal/relay"
)

// emptyInput is the argument schema for tools that take none.
type emptyInput struct{}

// Server returns an MCP SDK server exposing the catalog tools over any
// SDK transport. Each tool answers with its embedded fixture, same as
// the HTTP dialect.
func (s *Service) Server(version string) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "finsight-fidev",
		Version: version,
	}, nil)

	inputSchema, err := jsonschema.For[emptyInput](nil)
	if err != nil {
		return nil, fmt.Errorf("fidev: input schema: %w", err)
	}

	for _, tool := range relay.Catalog() {
		fixture, ok := s.fixtures[tool.Name]
		if !ok {
			return nil, fmt.Errorf("fidev: no fixture for %s", tool.Name)
		}
		text := string(fixture)

		mcp.AddTool(server, &mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: inputSchema,
		}, func(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
			}, nil, nil
		})
	}

	return server, nil
}
