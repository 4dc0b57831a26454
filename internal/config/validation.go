package config

import (
	"fmt"
	"net/url"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Nil config
	if c == nil {
		return ErrConfigNil
	}

	// 1. API key (required for all model operations)
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// 2. Model configuration
	if c.Gemini.Model == "" {
		return fmt.Errorf("%w: gemini.model cannot be empty", ErrInvalidModel)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	// Reference: Gemini API documentation
	if c.Gemini.Temperature < 0.0 || c.Gemini.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f",
			ErrInvalidTemperature, c.Gemini.Temperature)
	}

	// 3. Server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d",
			ErrInvalidPort, c.Server.Port)
	}

	if c.Server.RateRPS <= 0 {
		return fmt.Errorf("%w: rate_rps must be positive, got %g",
			ErrInvalidRateLimit, c.Server.RateRPS)
	}

	if c.Server.RateBurst < 1 {
		return fmt.Errorf("%w: rate_burst must be at least 1, got %d",
			ErrInvalidRateLimit, c.Server.RateBurst)
	}

	// 4. Relay configuration
	if c.Relay.BaseURL == "" {
		return fmt.Errorf("%w: relay.base_url cannot be empty", ErrInvalidRelayURL)
	}

	u, err := url.Parse(c.Relay.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRelayURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q",
			ErrInvalidRelayURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidRelayURL, c.Relay.BaseURL)
	}

	if c.Relay.TimeoutSeconds < 1 || c.Relay.TimeoutSeconds > 300 {
		return fmt.Errorf("%w: must be between 1 and 300 seconds, got %d",
			ErrInvalidRelayTimeout, c.Relay.TimeoutSeconds)
	}

	// 5. Session registry configuration
	if c.Sessions.Capacity < 1 {
		return fmt.Errorf("%w: must be at least 1, got %d",
			ErrInvalidSessionCapacity, c.Sessions.Capacity)
	}

	if c.Sessions.TTLMinutes < 1 {
		return fmt.Errorf("%w: must be at least 1 minute, got %d",
			ErrInvalidSessionTTL, c.Sessions.TTLMinutes)
	}

	return nil
}
