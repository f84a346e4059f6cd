// Package main is the entry point for clio-sandboxd, the playground daemon
// behind the browser editor.
//
// The daemon boots a sandbox on the host, mounts the project tree the
// editor sends, attaches an interactive shell and exposes it over
// WebSocket, and reports when a dev server inside the sandbox becomes
// reachable.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve on the default port
//	clio-sandboxd serve
//
//	# Development mode (colored logs, debug level) with local starters
//	clio-sandboxd serve --dev --starters ./starters --template VUE
//
//	# List the starter catalog
//	clio-sandboxd templates --starters ./starters
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
