package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/harshit-164/clio-agent-editor/internal/shared/id"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

type ctxKey struct{}

// RequestID reuses a well-formed incoming X-Request-ID or assigns a new
// one, and exposes it on the response, the gin context and the request
// context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := id.RequestID(c.GetHeader(RequestIDHeader))
		if rid == "" || !id.IsValid(string(rid)) {
			rid = id.NewRequestID()
		}

		c.Set(requestIDKey, rid)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), rid))
		c.Header(RequestIDHeader, rid.String())
		c.Next()
	}
}

// WithRequestID stores rid in ctx.
func WithRequestID(ctx context.Context, rid id.RequestID) context.Context {
	return context.WithValue(ctx, ctxKey{}, rid)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) (id.RequestID, bool) {
	rid, ok := ctx.Value(ctxKey{}).(id.RequestID)
	return rid, ok
}

// GetRequestID returns the request id assigned by RequestID.
func GetRequestID(c *gin.Context) id.RequestID {
	if v, ok := c.Get(requestIDKey); ok {
		if rid, ok := v.(id.RequestID); ok {
			return rid
		}
	}
	return ""
}
