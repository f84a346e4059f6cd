package sandbox

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
)

// Ready is the last server-ready notification. The zero value means no
// server has been reported.
type Ready struct {
	Port int    `json:"port"`
	URL  string `json:"url"`
}

// ReadyWatcher subscribes once to an instance's server-ready events and
// keeps the latest one. Later notifications overwrite earlier ones.
type ReadyWatcher struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
	once    sync.Once

	mu          sync.RWMutex
	current     Ready
	known       bool
	listeners   []func(Ready)
	unsubscribe func()
}

// NewReadyWatcher creates an idle watcher.
func NewReadyWatcher(logger *zap.Logger) *ReadyWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadyWatcher{logger: logger.Named("ready")}
}

// WithMetrics adds metrics tracking to the watcher
func (w *ReadyWatcher) WithMetrics(metrics *monitoring.Metrics) *ReadyWatcher {
	w.metrics = metrics
	return w
}

// Watch subscribes to inst. Only the first call has an effect.
func (w *ReadyWatcher) Watch(inst engine.Instance) {
	w.once.Do(func() {
		unsub := inst.OnServerReady(w.record)
		w.mu.Lock()
		w.unsubscribe = unsub
		w.mu.Unlock()
	})
}

func (w *ReadyWatcher) record(port int, url string) {
	ready := Ready{Port: port, URL: url}

	w.mu.Lock()
	w.current = ready
	w.known = true
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	w.metrics.RecordServerReady()
	w.logger.Info("Server ready", zap.Int("port", port), zap.String("url", url))

	for _, fn := range listeners {
		fn(ready)
	}
}

// Current returns the latest notification and whether there has been one.
func (w *ReadyWatcher) Current() (Ready, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current, w.known
}

// OnChange registers fn for every later notification.
func (w *ReadyWatcher) OnChange(fn func(Ready)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Close drops the engine subscription.
func (w *ReadyWatcher) Close() {
	w.mu.Lock()
	unsub := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
