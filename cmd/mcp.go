package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koopa0/finsight/internal/fidev"
)

// defaultMCPAddr matches the relay.base_url default, so `finsight serve`
// finds the dev service without any configuration.
const defaultMCPAddr = "127.0.0.1:8090"

// parseMCPFlags parses the mcp subcommand flags.
func parseMCPFlags(args []string) (addr string, stdio bool, err error) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.StringVar(&addr, "addr", defaultMCPAddr, "HTTP listen address")
	fs.BoolVar(&stdio, "stdio", false, "serve over stdio instead of HTTP")
	if err := fs.Parse(args); err != nil {
		return "", false, err
	}
	return addr, stdio, nil
}

// runMCP starts the bundled development tool service, either as an HTTP
// server speaking the relay wire dialect or on stdio for MCP clients.
func runMCP(args []string) error {
	addr, stdio, err := parseMCPFlags(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	svc, err := fidev.New(logger)
	if err != nil {
		return fmt.Errorf("creating dev tool service: %w", err)
	}

	if stdio {
		server, err := svc.Server(Version)
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		logger.Info("dev tool service ready", "transport", "stdio", "version", Version)
		if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		logger.Info("dev tool service shut down gracefully")
		return nil
	}

	logger.Info("dev tool service ready", "addr", addr, "endpoint", "/mcp/stream")
	return serveHTTP(ctx, newHTTPServer(addr, svc.Handler()), logger, "dev tool service")
}
