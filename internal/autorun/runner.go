package autorun

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/shared/clock"
)

const (
	DefaultCommand     = "npm install && npm run dev"
	DefaultSettleDelay = 1500 * time.Millisecond
)

var ErrEmptyCommand = errors.New("autorun command is empty")

// Target is the shell the command is written into.
type Target interface {
	WriteInput(p []byte) error
	Connected() bool
	Clear()
}

// Timeline is the synthetic transcript reset by a manual rerun.
type Timeline interface {
	Cancel()
	Restart()
}

// Config holds the command line and the settle delay.
type Config struct {
	Command     string
	SettleDelay time.Duration
}

// Validate checks that the command parses as a shell line.
func (c Config) Validate() error {
	words, err := shellquote.Split(c.Command)
	if err != nil {
		return fmt.Errorf("parse autorun command: %w", err)
	}
	if len(words) == 0 {
		return ErrEmptyCommand
	}
	return nil
}

// Option configures a Runner.
type Option func(*Runner)

func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l.Named("autorun") }
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// Runner writes the command line into the shell.
type Runner struct {
	cfg      Config
	target   Target
	timeline Timeline
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu      sync.Mutex
	issued  bool        // Protected by mu
	pending clock.Timer // Protected by mu
	gen     uint64      // Protected by mu; identifies the live pending timer
	writes  int         // Protected by mu
}

// NewRunner creates a runner. An empty command falls back to
// DefaultCommand and a non-positive delay to DefaultSettleDelay.
func NewRunner(cfg Config, target Target, timeline Timeline, opts ...Option) *Runner {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	r := &Runner{
		cfg:      cfg,
		target:   target,
		timeline: timeline,
		clock:    clock.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Command returns the command line without the trailing carriage return.
func (r *Runner) Command() string { return r.cfg.Command }

// OnShellAttached schedules the automatic issue. Only the first call in a
// session has any effect; the flag is set before the delay starts.
func (r *Runner) OnShellAttached() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.issued {
		return
	}
	r.issued = true

	r.gen++
	gen := r.gen
	r.pending = r.clock.AfterFunc(r.cfg.SettleDelay, func() { r.fireAuto(gen) })
	r.logger.Debug("Autorun scheduled", zap.Duration("delay", r.cfg.SettleDelay))
}

func (r *Runner) fireAuto(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// superseded by a manual rerun
	if r.pending == nil || r.gen != gen {
		return
	}
	r.pending = nil
	if err := r.issueLocked("auto"); err != nil {
		r.logger.Warn("Autorun write failed", zap.Error(err))
	}
}

// ManualRerun cancels the timeline, clears the terminal, restarts the
// timeline and writes the command again if a shell is attached. A pending
// automatic issue is dropped so one boot never receives the command twice.
func (r *Runner) ManualRerun() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
		r.gen++
	}

	r.timeline.Cancel()
	r.target.Clear()
	r.timeline.Restart()

	if !r.target.Connected() {
		r.logger.Info("Rerun without an attached shell, transcript restarted only")
		return nil
	}
	r.issued = true
	return r.issueLocked("manual")
}

func (r *Runner) issueLocked(trigger string) error {
	words, _ := shellquote.Split(r.cfg.Command)
	r.logger.Info("Issuing command", zap.String("trigger", trigger), zap.Strings("argv", words))

	if err := r.target.WriteInput([]byte(r.cfg.Command + "\r")); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	r.writes++
	r.metrics.RecordCommand(trigger)
	return nil
}

// Issued reports whether the automatic issue has been claimed.
func (r *Runner) Issued() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issued
}

// Writes returns how many times the command was written.
func (r *Runner) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
