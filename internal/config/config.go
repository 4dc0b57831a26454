// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.finsight/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Server: HTTP listen address, CORS, rate limiting
//   - Gemini: model selection, temperature, API key
//   - Relay: remote tool service endpoint and timeout
//   - Sessions: in-memory registry capacity and TTL
//   - Otel: OTLP trace export
//
// Security: sensitive data (API keys) is never logged; the config directory
// uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModel indicates the model name is invalid.
	ErrInvalidModel = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidPort indicates the HTTP listen port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidRateLimit indicates the rate limit settings are out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidRelayURL indicates the tool relay base URL is invalid.
	ErrInvalidRelayURL = errors.New("invalid relay URL")

	// ErrInvalidRelayTimeout indicates the relay timeout is out of range.
	ErrInvalidRelayTimeout = errors.New("invalid relay timeout")

	// ErrInvalidSessionCapacity indicates the session registry capacity is out of range.
	ErrInvalidSessionCapacity = errors.New("invalid session capacity")

	// ErrInvalidSessionTTL indicates the session TTL is out of range.
	ErrInvalidSessionTTL = errors.New("invalid session TTL")
)

// ServerConfig holds the HTTP server settings for serve mode.
type ServerConfig struct {
	// Host is the listen address (default: 127.0.0.1)
	Host string `mapstructure:"host" json:"host"`
	// Port is the listen port (default: 8080)
	Port int `mapstructure:"port" json:"port"`
	// CORSOrigins is the allowed origin list for browser clients
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	// TrustProxy trusts X-Real-IP/X-Forwarded-For (set true behind reverse proxy)
	TrustProxy bool `mapstructure:"trust_proxy" json:"trust_proxy"`
	// RateRPS is the per-IP sustained request rate (tokens per second)
	RateRPS float64 `mapstructure:"rate_rps" json:"rate_rps"`
	// RateBurst is the per-IP burst size
	RateBurst int `mapstructure:"rate_burst" json:"rate_burst"`
}

// GeminiConfig holds the model adapter settings.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API (env: GEMINI_API_KEY)
	APIKey string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	// Model is the Gemini model identifier (default: gemini-2.5-flash)
	Model string `mapstructure:"model" json:"model"`
	// Temperature controls sampling randomness, 0.0 to 2.0
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
}

// RelayConfig holds the remote tool service settings.
type RelayConfig struct {
	// BaseURL is the tool service root; calls go to {BaseURL}/mcp/stream
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// TimeoutSeconds bounds each relay HTTP call
	TimeoutSeconds int `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// SessionsConfig holds the in-memory session registry settings.
type SessionsConfig struct {
	// Capacity is the maximum number of live sessions before LRU eviction
	Capacity int `mapstructure:"capacity" json:"capacity"`
	// TTLMinutes is the idle lifetime of a session
	TTLMinutes int `mapstructure:"ttl_minutes" json:"ttl_minutes"`
}

// OtelConfig holds OTLP trace export settings.
// An empty Endpoint disables tracing.
type OtelConfig struct {
	// Endpoint is the OTLP/HTTP collector address (e.g. localhost:4318)
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// ServiceName tags exported spans (default: finsight)
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	// Environment is the deployment environment tag (default: dev)
	Environment string `mapstructure:"environment" json:"environment"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update GeminiConfig.MarshalJSON
// or the owning section's MarshalJSON.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Gemini   GeminiConfig   `mapstructure:"gemini" json:"gemini"`
	Relay    RelayConfig    `mapstructure:"relay" json:"relay"`
	Sessions SessionsConfig `mapstructure:"sessions" json:"sessions"`
	Otel     OtelConfig     `mapstructure:"otel" json:"otel"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.finsight/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".finsight")

	// Ensure directory exists (0750 keeps the key file group-readable at most)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	// Configure Viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	// Set default values
	setDefaults()

	// Bind environment variables
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	// Use Unmarshal to automatically map to struct (type-safe)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	viper.SetDefault("server.trust_proxy", false)
	viper.SetDefault("server.rate_rps", 10.0)
	viper.SetDefault("server.rate_burst", 30)

	// Gemini defaults
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.temperature", 0.2)

	// Relay defaults (matches the bundled dev tool service, `finsight mcp`)
	viper.SetDefault("relay.base_url", "http://localhost:8090")
	viper.SetDefault("relay.timeout_seconds", 30)

	// Session registry defaults
	viper.SetDefault("sessions.capacity", 512)
	viper.SetDefault("sessions.ttl_minutes", 30)

	// Otel defaults (empty endpoint = tracing disabled)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.service_name", "finsight")
	viper.SetDefault("otel.environment", "dev")
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is the only secret; the FINSIGHT_* variables are
// deployment overrides for values that are awkward to ship in a file.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	// Gemini API key
	mustBind("gemini.api_key", "GEMINI_API_KEY")
	mustBind("gemini.model", "FINSIGHT_MODEL")

	// Server overrides
	mustBind("server.host", "FINSIGHT_HOST")
	mustBind("server.port", "FINSIGHT_PORT")
	mustBind("server.cors_origins", "FINSIGHT_CORS_ORIGINS")
	mustBind("server.trust_proxy", "FINSIGHT_TRUST_PROXY")

	// Tool relay endpoint
	mustBind("relay.base_url", "FINSIGHT_RELAY_URL")

	// OTLP collector (standard variable name)
	mustBind("otel.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// Addr returns the HTTP listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// RelayTimeout returns the relay call timeout as a duration.
func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.Relay.TimeoutSeconds) * time.Second
}

// SessionTTL returns the session idle lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLMinutes) * time.Minute
}

// maskedValue is the placeholder for masked sensitive data.
// Using ████████ (full-width blocks U+2588) to avoid substring matching
// with characters that can appear in real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters, masks the rest.
// SECURITY: For secrets <=8 chars, fully masks to prevent substring attacks.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	// Fully mask short secrets to prevent substring matching attacks
	if len(s) <= 8 {
		return maskedValue
	}
	// For longer secrets, show first/last 2 chars for debug utility
	// Example: "AIzaSyD-1234567890" → "AI<████████>90"
	prefix := make([]byte, 2)
	suffix := make([]byte, 2)
	copy(prefix, s[:2])
	copy(suffix, s[len(s)-2:])
	return string(prefix) + "<" + maskedValue + ">" + string(suffix)
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (g GeminiConfig) MarshalJSON() ([]byte, error) {
	type alias GeminiConfig
	a := alias(g)
	a.APIKey = maskSecret(a.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
