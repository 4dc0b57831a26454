// Package api provides the JSON HTTP server for FinSight.
//
// # Architecture
//
// The server uses Go 1.22+ method routing with a layered middleware
// stack:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux, ensuring they remain fast and unthrottled.
//
// # Endpoints
//
// Health probes (no middleware):
//   - GET /health — returns {"status":"ok"}
//   - GET /ready  — returns {"status":"ready"} with the session count
//
// Chat:
//   - POST /api/chat — body {"message":..., "sessionId":...}, returns
//     {"reply":...}; both fields are required.
//
// Dashboard:
//   - GET /api/dashboard?sessionId=... — returns {"netWorth":...,
//     "assets":[{"type":...,"value":...}], "creditScore":...}.
//
// Sessions:
//   - GET /api/sessions — returns {"items":[...], "total":n} with
//     the live sessions, most recently used first.
//
// # Error Handling
//
// Errors use a flat envelope: {"error": "message"}. Missing or invalid
// client input yields 400; everything else yields 500 with a generic
// message, the cause logged server-side. When a dashboard source tool
// fails, the 500 message names the tool but not the underlying cause.
//
// # Security
//
// The middleware stack enforces per-IP rate limiting (token bucket),
// CORS with an explicit origin allowlist, and standard security
// headers. HSTS is left to the TLS-terminating proxy.
package api
