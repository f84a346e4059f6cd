// Package config provides 12-factor configuration for the sandbox daemon.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Sandbox: host engine root, shell command, probed ports, terminal size
//   - Autorun: command issued after the shell attaches and its settle delay
//   - Timeline: pacing of the simulated install/start transcript
//   - Templates: starter directory, default template, manifest watching
//   - Assistant: Ollama-compatible completion/chat server
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST
//   - SANDBOX_ROOT, SANDBOX_SHELL, SANDBOX_PORTS, SANDBOX_URL_TEMPLATE
//   - AUTORUN_COMMAND, AUTORUN_SETTLE_DELAY
//   - TEMPLATES_ROOT, TEMPLATE
//   - OLLAMA_URL, OLLAMA_MODEL
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
package config
