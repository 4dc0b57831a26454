// Package cmd provides CLI commands for finsight.
//
// Commands:
//   - serve: HTTP API server bridging chat and dashboard to the tool relay
//   - mcp: bundled development tool service with canned financial data
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/koopa0/finsight/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Execute is the main entry point for the finsight CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "mcp":
		return runMCP(os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("FinSight - financial insight backend")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  finsight serve           Start the HTTP API server (default: 127.0.0.1:8080)")
	fmt.Println("  finsight mcp [flags]     Start the bundled dev tool service")
	fmt.Println("      -addr string         HTTP listen address (default: 127.0.0.1:8090)")
	fmt.Println("      -stdio               Serve over stdio instead of HTTP")
	fmt.Println("  finsight --version       Show version information")
	fmt.Println("  finsight --help          Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY           Required for serve: Gemini API key")
	fmt.Println("  FINSIGHT_RELAY_URL       Optional: tool service base URL")
	fmt.Println("  FINSIGHT_HOST            Optional: API listen host")
	fmt.Println("  FINSIGHT_PORT            Optional: API listen port")
	fmt.Println("  DEBUG                    Optional: enable debug logging")
	fmt.Println()
	fmt.Println("Configuration file: ~/.finsight/config.yaml (or ./config.yaml)")
}
