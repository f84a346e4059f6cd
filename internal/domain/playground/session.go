package playground

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/activitylog"
	"github.com/harshit-164/clio-agent-editor/internal/autorun"
	"github.com/harshit-164/clio-agent-editor/internal/domain/filetree"
	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/preview"
	"github.com/harshit-164/clio-agent-editor/internal/sandbox"
	"github.com/harshit-164/clio-agent-editor/internal/shared/clock"
	"github.com/harshit-164/clio-agent-editor/internal/shared/id"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

var (
	ErrNotOpened     = errors.New("playground not opened")
	ErrAlreadyOpened = errors.New("a different playground is already open")
)

// Config collects the tunables of the session's collaborators.
type Config struct {
	Shell    terminal.Config
	Autorun  autorun.Config
	Timeline activitylog.Config
}

// Option configures a Session.
type Option func(*Session)

func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithActivity(c *activitylog.Catalog) Option {
	return func(s *Session) { s.activity = c }
}

func WithPreviews(sel *preview.Selector) Option {
	return func(s *Session) { s.previews = sel }
}

// Session is the daemon's single playground.
type Session struct {
	id       id.PlaygroundID
	cfg      Config
	manager  *sandbox.Manager
	shell    *terminal.Shell
	watcher  *sandbox.ReadyWatcher
	activity *activitylog.Catalog
	previews *preview.Selector
	clock    clock.Clock
	rng      *rand.Rand
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu              sync.RWMutex
	opened          bool                  // Protected by mu
	kind            template.Kind         // Protected by mu
	files           int                   // Protected by mu
	booting         bool                  // Protected by mu
	lastErr         error                 // Protected by mu
	mount           engine.Tree           // Protected by mu
	timeline        *activitylog.Timeline // Protected by mu
	runner          *autorun.Runner       // Protected by mu
	timelineStarted bool                  // Protected by mu

	subMu     sync.Mutex
	nextID    int
	subs      map[int]chan State // Protected by subMu
	subClosed bool               // Protected by subMu
}

// NewSession creates an unopened session around manager.
func NewSession(manager *sandbox.Manager, cfg Config, opts ...Option) *Session {
	s := &Session{
		id:      id.NewPlaygroundID(),
		cfg:     cfg,
		manager: manager,
		clock:   clock.New(),
		logger:  zap.NewNop(),
		subs:    make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.activity == nil {
		s.activity = activitylog.DefaultCatalog()
	}
	if s.previews == nil {
		s.previews = preview.NewSelector(nil)
	}
	s.logger = s.logger.Named("playground").With(zap.String("playground", s.id.String()))

	s.shell = terminal.NewShell(cfg.Shell, s.logger).WithMetrics(s.metrics)
	s.watcher = sandbox.NewReadyWatcher(s.logger).WithMetrics(s.metrics)

	s.shell.OnAttached(s.onShellAttached)
	s.shell.OnChange(s.notify)
	s.watcher.OnChange(func(sandbox.Ready) { s.notify() })
	return s
}

// ID returns the playground id.
func (s *Session) ID() id.PlaygroundID { return s.id }

// Open starts the playground for kind with tree. Boot and mount run in the
// background. Opening again with the same kind is a no-op; a different
// kind returns ErrAlreadyOpened.
func (s *Session) Open(ctx context.Context, kind template.Kind, tree *filetree.Folder) error {
	if tree == nil {
		tree = filetree.NewFolder("")
	}
	if err := tree.Validate(); err != nil {
		return fmt.Errorf("invalid file tree: %w", err)
	}
	mount, err := tree.MountTree()
	if err != nil {
		return fmt.Errorf("convert file tree: %w", err)
	}
	kind = kind.Resolve()

	s.mu.Lock()
	if s.opened {
		same := s.kind == kind
		s.mu.Unlock()
		if same {
			return nil
		}
		return ErrAlreadyOpened
	}
	s.opened = true
	s.kind = kind
	s.files = tree.FileCount()
	s.mount = mount
	s.booting = true
	s.timeline = s.newTimeline(kind)
	s.runner = autorun.NewRunner(s.cfg.Autorun, s.shell, s.timeline,
		autorun.WithClock(s.clock),
		autorun.WithLogger(s.logger),
		autorun.WithMetrics(s.metrics))
	s.mu.Unlock()

	s.logger.Info("Playground opened", zap.String("template", kind.String()), zap.Int("files", tree.FileCount()))
	s.notify()

	go s.start(context.WithoutCancel(ctx), mount)
	return nil
}

func (s *Session) newTimeline(kind template.Kind) *activitylog.Timeline {
	opts := []activitylog.Option{
		activitylog.WithClock(s.clock),
		activitylog.WithConfig(s.cfg.Timeline),
		activitylog.WithLogger(s.logger),
		activitylog.WithMetrics(s.metrics),
	}
	if s.rng != nil {
		opts = append(opts, activitylog.WithRand(s.rng))
	}
	return activitylog.NewTimeline(s.activity.Script(kind), s.shell, opts...)
}

// start boots, subscribes to server-ready and mounts, then connects the
// shell if a terminal is already attached.
func (s *Session) start(ctx context.Context, tree engine.Tree) {
	inst, err := s.manager.Acquire(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	s.watcher.Watch(inst)

	if err := s.manager.Mount(ctx, inst, tree); err != nil {
		s.fail(err)
		return
	}

	s.mu.Lock()
	s.booting = false
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()

	if s.shell.View() != nil {
		s.connect(ctx)
	}
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.booting = false
	s.lastErr = err
	s.mu.Unlock()

	s.logger.Error("Playground start failed", zap.Error(err))
	s.notify()
}

// Retry re-runs a failed boot or mount with the tree given to Open. It is
// a no-op while booting or once mounted.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return ErrNotOpened
	}
	if s.booting || s.manager.Mounted() {
		s.mu.Unlock()
		return nil
	}
	s.booting = true
	s.lastErr = nil
	mount := s.mount
	s.mu.Unlock()

	s.logger.Info("Retrying playground start")
	s.notify()
	go s.start(context.WithoutCancel(ctx), mount)
	return nil
}

// connect spawns the shell once the tree is mounted.
func (s *Session) connect(ctx context.Context) {
	inst := s.manager.Instance()
	if inst == nil || !s.manager.Mounted() {
		return
	}
	if s.shell.State() == terminal.StateShellAttached {
		return
	}
	if err := s.shell.Connect(ctx, inst); err != nil {
		s.logger.Warn("Shell not connected", zap.Error(err))
	}
}

func (s *Session) onShellAttached() {
	s.mu.Lock()
	timeline, runner := s.timeline, s.runner
	first := !s.timelineStarted && timeline != nil
	if first {
		s.timelineStarted = true
	}
	s.mu.Unlock()

	if first {
		timeline.Start()
	}
	if runner != nil {
		runner.OnShellAttached()
	}
}

// Attach subscribes a terminal surface. The first attachment creates the
// terminal view; if the tree is already mounted the shell is connected.
// Closing the attachment leaves the shell running.
func (s *Session) Attach(ctx context.Context) *terminal.Attachment {
	a := s.shell.Attach()
	s.connect(ctx)
	return a
}

// Resize forwards the terminal size.
func (s *Session) Resize(size engine.TerminalSize) error {
	return s.shell.Resize(size)
}

// ManualRerun restarts the transcript and re-issues the command.
func (s *Session) ManualRerun() error {
	s.mu.RLock()
	runner := s.runner
	s.mu.RUnlock()

	if runner == nil {
		return ErrNotOpened
	}
	return runner.ManualRerun()
}

// Clear clears the terminal view.
func (s *Session) Clear() { s.shell.Clear() }

// Selection copies a range of the visible screen.
func (s *Session) Selection(r terminal.Range) string {
	if view := s.shell.View(); view != nil {
		return view.Selection(r)
	}
	return ""
}

// Find searches the terminal buffer.
func (s *Session) Find(term string) []terminal.Match {
	if view := s.shell.View(); view != nil {
		return view.Find(term)
	}
	return nil
}

// Download returns the terminal log as plain text.
func (s *Session) Download() []byte {
	if view := s.shell.View(); view != nil {
		return view.Download()
	}
	return nil
}

// WriteFile saves an editor change into the sandbox.
func (s *Session) WriteFile(ctx context.Context, path, content string) error {
	inst := s.manager.Instance()
	if inst == nil {
		return sandbox.ErrNotBooted
	}
	if err := inst.FS().WriteFile(ctx, path, content); err != nil {
		s.logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Debug("File written", zap.String("path", path), zap.Int("bytes", len(content)))
	return nil
}

// Preview decides what the preview pane shows.
func (s *Session) Preview() preview.Decision {
	st := s.State()
	return s.previews.Choose(preview.Input{
		Booting:  st.Loading,
		ReadyURL: st.ReadyURL,
		Template: st.Template,
	})
}

// Close cancels the transcript and drops the server-ready subscription.
// The shell and the engine instance are left to the engine's shutdown.
func (s *Session) Close() {
	s.mu.RLock()
	timeline := s.timeline
	s.mu.RUnlock()

	if timeline != nil {
		timeline.Cancel()
	}
	s.watcher.Close()

	s.subMu.Lock()
	s.subClosed = true
	for key, ch := range s.subs {
		close(ch)
		delete(s.subs, key)
	}
	s.subMu.Unlock()
}

// Runner returns the command runner, or nil before Open.
func (s *Session) Runner() *autorun.Runner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runner
}
