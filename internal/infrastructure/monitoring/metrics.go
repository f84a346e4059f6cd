package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceErrors   *prometheus.CounterVec

	// Sandbox metrics
	Boots         *prometheus.CounterVec
	BootDuration  prometheus.Histogram
	Mounts        *prometheus.CounterVec
	ShellSpawns   *prometheus.CounterVec
	ShellsActive  prometheus.Gauge
	Commands      *prometheus.CounterVec
	ServerReady   prometheus.Counter
	TimelineLines prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	Boots             int64   `json:"boots"`
	ShellSpawns       int64   `json:"shell_spawns"`
	TotalDuration     float64 `json:"total_duration_seconds"`
	RequestCount      int64   `json:"request_count"`
}

// NewMetrics creates a new metrics collector registered on reg. Tests pass
// a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandboxd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandboxd_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandboxd_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_service_calls_total",
				Help: "Total number of outbound service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandboxd_service_duration_seconds",
				Help:    "Outbound service call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "method"},
		),
		ServiceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_service_errors_total",
				Help: "Total number of outbound service errors",
			},
			[]string{"service", "method", "error_type"},
		),

		// Sandbox metrics
		Boots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_engine_boots_total",
				Help: "Sandbox engine boots by outcome",
			},
			[]string{"status"},
		),
		BootDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sandboxd_engine_boot_duration_seconds",
				Help:    "Sandbox engine boot duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			},
		),
		Mounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_mounts_total",
				Help: "File tree mounts by outcome",
			},
			[]string{"status"},
		),
		ShellSpawns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_shell_spawns_total",
				Help: "Shell spawns by outcome",
			},
			[]string{"status"},
		),
		ShellsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandboxd_shells_active",
				Help: "Number of live shell processes",
			},
		),
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_commands_issued_total",
				Help: "Install and start commands written to the shell",
			},
			[]string{"trigger"},
		),
		ServerReady: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sandboxd_server_ready_total",
				Help: "Server-ready notifications received from the engine",
			},
		),
		TimelineLines: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sandboxd_activity_lines_total",
				Help: "Activity transcript lines written to terminals",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandboxd_ws_connections",
				Help: "Number of attached WebSocket terminals",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandboxd_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandboxd_uptime_seconds",
				Help: "Daemon uptime in seconds",
			},
		),
	}

	return m
}

// StartUptime updates the uptime gauge every second until stop is closed.
func (m *Metrics) StartUptime(stop <-chan struct{}) {
	if m == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Uptime.Set(time.Since(m.startTime).Seconds())
			case <-stop:
				return
			}
		}
	}()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records an outbound service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordServiceError records an outbound service error
func (m *Metrics) RecordServiceError(service, method, errorType string) {
	if m == nil {
		return
	}
	m.ServiceErrors.WithLabelValues(service, method, errorType).Inc()
}

// RecordBoot records a finished engine boot
func (m *Metrics) RecordBoot(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Boots.WithLabelValues(status).Inc()
	m.BootDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Boots++
	m.mu.Unlock()
}

// RecordMount records a mount attempt
func (m *Metrics) RecordMount(status string) {
	if m == nil {
		return
	}
	m.Mounts.WithLabelValues(status).Inc()
}

// RecordSpawn records a shell spawn attempt
func (m *Metrics) RecordSpawn(status string) {
	if m == nil {
		return
	}
	m.ShellSpawns.WithLabelValues(status).Inc()
	if status == "success" {
		m.ShellsActive.Inc()
		m.mu.Lock()
		m.snapshot.ShellSpawns++
		m.mu.Unlock()
	}
}

// RecordShellExit records a shell exiting
func (m *Metrics) RecordShellExit() {
	if m == nil {
		return
	}
	m.ShellsActive.Dec()
}

// RecordCommand records the install/start command being written, by
// trigger ("auto" or "manual")
func (m *Metrics) RecordCommand(trigger string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(trigger).Inc()
}

// RecordServerReady records a server-ready notification
func (m *Metrics) RecordServerReady() {
	if m == nil {
		return
	}
	m.ServerReady.Inc()
}

// RecordTimelineLine records one activity line written
func (m *Metrics) RecordTimelineLine() {
	if m == nil {
		return
	}
	m.TimelineLines.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON health endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeSeconds returns the time since the collector was created.
func (m *Metrics) UptimeSeconds() float64 {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime).Seconds()
}
