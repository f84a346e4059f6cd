// Package middleware provides the gin middleware stack of the sandbox daemon.
//
//   - CORS: cross-origin access for the editor frontend
//   - RateLimit: per-IP token buckets, idle clients evicted
//   - RequestID: X-Request-ID propagation with prefixed ULIDs
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
