/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the sandbox
daemon, tracking HTTP requests, assistant calls, sandbox lifecycle events and
attached terminals.

# Features

- HTTP request metrics (latency, throughput, size)
- Service call metrics for the assistant proxy (duration, errors)
- Sandbox boots and mounts by outcome
- Shell spawns and command issues by trigger
- Server-ready notifications
- WebSocket terminal attachments

# Usage

	// Create metrics collector on a registry
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record sandbox events
	metrics.RecordBoot("success", time.Since(start))
	metrics.RecordCommand("manual")

	// Time an assistant call
	call := metrics.StartCall("assistant", "suggest")
	// ... perform request ...
	call.Finish(err, "timeout")

All recording methods are safe to call on a nil *Metrics.

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
