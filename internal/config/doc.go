// Package config provides 12-factor configuration management for the
// kernel simulator.
//
// Configuration is loaded from environment variables with sensible
// defaults; CLI flags can override individual values for development.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, connection cap)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Sim: Workload manifest discovery and script limits
//   - Trace: Event trace output path and codec
//   - Telemetry: Report delivery endpoint
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, MAX_CONNS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SIM_MANIFEST_DIR, SIM_MANIFEST_GLOB, SIM_SCENARIO, SIM_SCRIPT_TIMEOUT
//   - TRACE_PATH, TRACE_CODEC
//   - TELEMETRY_URL, TELEMETRY_TIMEOUT, TELEMETRY_RETRIES
package config
