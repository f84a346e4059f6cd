package activitylog

import (
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/shared/clock"
)

// LineWriter receives transcript lines. terminal.View implements it.
type LineWriter interface {
	WriteLine(s string)
}

// Config sets the pacing of a timeline.
type Config struct {
	InstallMin time.Duration
	InstallMax time.Duration
	PhasePause time.Duration
	StartStep  time.Duration
}

// DefaultConfig returns the standard pacing.
func DefaultConfig() Config {
	return Config{
		InstallMin: 20 * time.Millisecond,
		InstallMax: 80 * time.Millisecond,
		PhasePause: time.Second,
		StartStep:  300 * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	if c.InstallMin < time.Millisecond {
		c.InstallMin = time.Millisecond
	}
	if c.InstallMax < c.InstallMin {
		c.InstallMax = c.InstallMin
	}
	if c.StartStep < time.Millisecond {
		c.StartStep = time.Millisecond
	}
	if c.PhasePause < 0 {
		c.PhasePause = 0
	}
	return c
}

// Entry is one scheduled line, Delay after the timeline (re)started.
type Entry struct {
	Delay time.Duration
	Text  string
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(t *Timeline) { t.clock = c }
}

// WithRand replaces the source of install jitter.
func WithRand(r *rand.Rand) Option {
	return func(t *Timeline) { t.rng = r }
}

// WithConfig sets the pacing.
func WithConfig(cfg Config) Option {
	return func(t *Timeline) { t.cfg = cfg.normalized() }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Timeline) { t.logger = l.Named("activity") }
}

// WithMetrics counts written lines.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(t *Timeline) { t.metrics = m }
}

// Timeline schedules a Script into a LineWriter.
type Timeline struct {
	script  Script
	out     LineWriter
	cfg     Config
	clock   clock.Clock
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	rng     *rand.Rand    // Protected by mu
	gen     uint64        // Protected by mu
	handles []clock.Timer // Protected by mu
	written int           // Protected by mu
}

// NewTimeline creates an idle timeline.
func NewTimeline(script Script, out LineWriter, opts ...Option) *Timeline {
	t := &Timeline{
		script: script,
		out:    out,
		cfg:    DefaultConfig(),
		clock:  clock.New(),
		logger: zap.NewNop(),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Plan computes a fresh schedule starting from zero. Install offsets are
// strictly increasing; start lines follow after the phase pause.
func (t *Timeline) Plan() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plan()
}

func (t *Timeline) plan() []Entry {
	entries := make([]Entry, 0, t.script.Len())

	var at time.Duration
	for _, line := range t.script.Install {
		at += t.jitter()
		entries = append(entries, Entry{Delay: at, Text: line})
	}

	at += t.cfg.PhasePause
	for i, line := range t.script.Start {
		if i > 0 {
			at += t.cfg.StartStep
		}
		entries = append(entries, Entry{Delay: at, Text: line})
	}
	return entries
}

func (t *Timeline) jitter() time.Duration {
	span := int64(t.cfg.InstallMax - t.cfg.InstallMin)
	if span <= 0 {
		return t.cfg.InstallMin
	}
	return t.cfg.InstallMin + time.Duration(t.rng.Int64N(span+1))
}

// Start cancels any running schedule and starts over from zero.
func (t *Timeline) Start() {
	t.Restart()
}

// Restart cancels any pending lines and schedules the whole script again
// from base delay zero.
func (t *Timeline) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.written = 0
	gen := t.gen
	for _, e := range t.plan() {
		text := e.Text
		t.handles = append(t.handles, t.clock.AfterFunc(e.Delay, func() {
			t.fire(gen, text)
		}))
	}
	t.logger.Debug("Activity timeline started", zap.Int("lines", len(t.handles)))
}

// Cancel stops every pending line. Once it returns, no line from an
// earlier schedule is written.
func (t *Timeline) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Timeline) cancelLocked() {
	for _, h := range t.handles {
		h.Stop()
	}
	t.handles = nil
	t.gen++
}

func (t *Timeline) fire(gen uint64, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// a callback already running when Cancel stopped its timer lands here
	if gen != t.gen {
		return
	}
	t.out.WriteLine(text)
	t.written++
	t.metrics.RecordTimelineLine()
}

// Written returns how many lines the current schedule has written.
func (t *Timeline) Written() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}
