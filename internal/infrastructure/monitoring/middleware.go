package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// Middleware records per-route request metrics. Routes are labelled by their
// registered pattern so file paths do not explode label cardinality.
// WebSocket terminal streams are skipped; they live for the whole session and
// are tracked by the terminal attachment gauge instead.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.IsWebsocket() {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		in := max(c.Request.ContentLength, 0)
		began := time.Now()

		c.Next()

		out := max(int64(c.Writer.Size()), 0)
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
			time.Since(began), in, out)
	}
}

// Call times one outbound request to the assistant model.
type Call struct {
	metrics *Metrics
	service string
	method  string
	began   time.Time
}

// StartCall begins timing an outbound call. It is safe on a nil *Metrics.
func (m *Metrics) StartCall(service, method string) Call {
	return Call{metrics: m, service: service, method: method, began: time.Now()}
}

// Finish records the outcome of the call. kind labels the failure and is
// ignored when err is nil.
func (c Call) Finish(err error, kind string) time.Duration {
	elapsed := time.Since(c.began)
	status := "success"
	if err != nil {
		status = "error"
		c.metrics.RecordServiceError(c.service, c.method, kind)
	}
	c.metrics.RecordServiceCall(c.service, c.method, status, elapsed)
	return elapsed
}
