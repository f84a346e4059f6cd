package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
)

// ErrNotBooted is returned by operations that need a booted instance.
var ErrNotBooted = errors.New("sandbox engine not booted")

const bootKey = "boot"

// Manager shares one engine instance across all callers.
type Manager struct {
	engine  engine.Engine
	logger  *zap.Logger
	metrics *monitoring.Metrics
	flight  singleflight.Group

	mu       sync.RWMutex
	instance engine.Instance // Protected by mu

	mountMu sync.Mutex
	mounted bool // Protected by mountMu
}

// NewManager creates a manager for eng.
func NewManager(eng engine.Engine, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		engine: eng,
		logger: logger.Named("sandbox"),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Acquire returns the booted instance, booting it on first use. Callers
// that arrive while a boot is in flight wait for that same boot. The boot
// itself is not bound to any caller's context: a caller whose ctx ends gets
// ctx.Err() while the boot carries on for everyone else. A failed boot is
// reported to every waiter and forgotten, so the next call boots again.
func (m *Manager) Acquire(ctx context.Context) (engine.Instance, error) {
	if inst := m.Instance(); inst != nil {
		return inst, nil
	}

	ch := m.flight.DoChan(bootKey, func() (interface{}, error) {
		if inst := m.Instance(); inst != nil {
			return inst, nil
		}
		return m.boot(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(engine.Instance), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) boot(ctx context.Context) (engine.Instance, error) {
	m.logger.Info("Booting sandbox engine")
	start := time.Now()

	inst, err := m.engine.Boot(ctx)
	if err != nil {
		m.metrics.RecordBoot("error", time.Since(start))
		m.logger.Error("Sandbox boot failed", zap.Error(err))
		return nil, fmt.Errorf("boot sandbox: %w", err)
	}

	m.metrics.RecordBoot("success", time.Since(start))
	m.logger.Info("Sandbox engine booted", zap.Duration("took", time.Since(start)))

	m.mu.Lock()
	m.instance = inst
	m.mu.Unlock()
	return inst, nil
}

// Instance returns the booted instance or nil.
func (m *Manager) Instance() engine.Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instance
}

// Mount writes tree into inst unless a mount already succeeded in this
// process. Concurrent callers are serialized; a failed mount leaves the
// manager unmounted so a later call retries.
func (m *Manager) Mount(ctx context.Context, inst engine.Instance, tree engine.Tree) error {
	if inst == nil {
		return ErrNotBooted
	}

	m.mountMu.Lock()
	defer m.mountMu.Unlock()

	if m.mounted {
		m.logger.Debug("File tree already mounted")
		return nil
	}

	if err := inst.Mount(ctx, tree); err != nil {
		m.metrics.RecordMount("error")
		m.logger.Error("Mount failed", zap.Error(err))
		return fmt.Errorf("mount file tree: %w", err)
	}

	m.mounted = true
	m.metrics.RecordMount("success")
	m.logger.Info("File tree mounted", zap.Int("entries", tree.Count()))
	return nil
}

// Mounted reports whether a mount has succeeded. It never reverts to false.
func (m *Manager) Mounted() bool {
	m.mountMu.Lock()
	defer m.mountMu.Unlock()
	return m.mounted
}
