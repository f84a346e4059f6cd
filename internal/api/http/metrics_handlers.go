package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/resilience"
)

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ActiveConnections int64   `json:"active_connections"`
	Boots             int64   `json:"boots"`
	ShellSpawns       int64   `json:"shell_spawns"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// MetricsSnapshot is the JSON counterpart of /metrics.
type MetricsSnapshot struct {
	Timestamp  time.Time      `json:"timestamp"`
	Summary    MetricsSummary `json:"summary"`
	Playground gin.H          `json:"playground"`
	Assistant  gin.H          `json:"assistant,omitempty"`
}

type breakerStater interface {
	BreakerState() resilience.State
}

// MetricsJSON returns a summary of the daemon's counters.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	st := h.session.State()
	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Summary:   h.calculateSummary(),
		Playground: gin.H{
			"opened":    st.Opened,
			"mounted":   st.Mounted,
			"connected": st.Connected,
			"shell":     st.ShellState,
			"ready_url": st.ReadyURL,
		},
	}
	if b, ok := h.assistant.(breakerStater); ok {
		snapshot.Assistant = gin.H{"breaker": b.BreakerState().String()}
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handlers) calculateSummary() MetricsSummary {
	snapshot := h.metrics.Snapshot()

	var avgLatency float64
	if snapshot.RequestCount > 0 {
		avgLatency = (snapshot.TotalDuration / float64(snapshot.RequestCount)) * 1000
	}

	var errorRate float64
	if snapshot.TotalRequests > 0 {
		errorRate = float64(snapshot.TotalErrors) / float64(snapshot.TotalRequests)
	}

	return MetricsSummary{
		TotalRequests:     snapshot.TotalRequests,
		AverageLatencyMs:  avgLatency,
		ErrorRate:         errorRate,
		ActiveConnections: snapshot.ActiveConnections,
		Boots:             snapshot.Boots,
		ShellSpawns:       snapshot.ShellSpawns,
		UptimeSeconds:     h.metrics.UptimeSeconds(),
	}
}
