// Package logging builds the daemon's zap loggers.
//
// Production logs are JSON for machine parsing; development logs are colored
// console output. Components receive a *zap.Logger and attach their own
// name with Named so every line carries the emitting subsystem.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Named("sandbox").Info("instance booted", zap.String("instance_id", id))
package logging
