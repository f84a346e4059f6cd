package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
)

// Config configures the host engine.
type Config struct {
	// Root holds one directory per booted instance.
	Root string
	// Ports are probed for listening servers.
	Ports         []int
	ProbeInterval time.Duration
	// URLTemplate formats the public URL of a ready port.
	URLTemplate string
	// KeepFiles leaves instance directories in place on shutdown.
	KeepFiles bool
}

// DefaultConfig returns probing for the usual dev server ports.
func DefaultConfig() Config {
	return Config{
		Root:          filepath.Join(os.TempDir(), "clio-sandbox"),
		Ports:         []int{3000, 5173, 4200, 8080, 8787},
		ProbeInterval: 500 * time.Millisecond,
		URLTemplate:   "http://localhost:%d",
	}
}

// Engine boots host instances.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	instances []*Instance // Protected by mu
}

var _ engine.Engine = (*Engine)(nil)

// New creates a host engine.
func New(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Root == "" {
		cfg.Root = def.Root
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = def.ProbeInterval
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = def.URLTemplate
	}
	return &Engine{cfg: cfg, logger: logger.Named("engine")}
}

// Boot creates a fresh instance directory and starts its port prober.
func (e *Engine) Boot(ctx context.Context) (engine.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	instanceID := uuid.New().String()
	dir := filepath.Join(e.cfg.Root, instanceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create instance dir: %w", err)
	}

	inst := newInstance(instanceID, dir, e.cfg, e.logger)
	inst.startProbe()

	e.mu.Lock()
	e.instances = append(e.instances, inst)
	e.mu.Unlock()

	e.logger.Info("Sandbox instance booted", zap.String("instance", instanceID), zap.String("dir", dir))
	return inst, nil
}

// Shutdown stops every booted instance.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	instances := e.instances
	e.instances = nil
	e.mu.Unlock()

	var firstErr error
	for _, inst := range instances {
		if err := inst.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
