package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordBoot("success", time.Second)
		m.RecordMount("success")
		m.RecordSpawn("success")
		m.RecordShellExit()
		m.RecordCommand("auto")
		m.RecordServerReady()
		m.RecordTimelineLine()
		m.IncWSConnections()
		m.DecWSConnections()
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond, 0, 0)
		m.StartCall("assistant", "suggest").Finish(errors.New("down"), "transport")
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestSandboxCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordBoot("success", 10*time.Millisecond)
	m.RecordBoot("error", time.Millisecond)
	m.RecordSpawn("success")
	m.RecordSpawn("error")
	m.RecordCommand("auto")
	m.RecordCommand("manual")
	m.RecordCommand("manual")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Boots.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Boots.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShellsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("manual")))

	m.RecordShellExit()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ShellsActive))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Boots)
	assert.Equal(t, int64(1), snap.ShellSpawns)
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/files/*path", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/src/a.js", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/files/*path", "404")))
	assert.Equal(t, int64(1), m.Snapshot().TotalErrors)
}

func TestMiddlewareLabelsUnmatchedAndSkipsWebsocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/ws/terminal", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	req := httptest.NewRequest(http.MethodGet, "/ws/terminal", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int64(1), m.Snapshot().TotalRequests)
}

func TestCallFinish(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.StartCall("assistant", "suggest").Finish(nil, "")
	m.StartCall("assistant", "suggest").Finish(errors.New("deadline"), "timeout")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceCalls.WithLabelValues("assistant", "suggest", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceCalls.WithLabelValues("assistant", "suggest", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceErrors.WithLabelValues("assistant", "suggest", "timeout")))
}
