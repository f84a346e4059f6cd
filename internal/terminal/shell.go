package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/shared/id"
)

var (
	ErrNotAttached = errors.New("no shell attached")
	ErrNoView      = errors.New("terminal view not initialized")
	ErrNoInstance  = errors.New("sandbox instance not available")
)

// State is the shell session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateTerminalReady
	StateShellAttached
	StateExited
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTerminalReady:
		return "terminal-ready"
	case StateShellAttached:
		return "shell-attached"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "uninitialized":
		*s = StateUninitialized
	case "terminal-ready":
		*s = StateTerminalReady
	case "shell-attached":
		*s = StateShellAttached
	case "exited":
		*s = StateExited
	default:
		return fmt.Errorf("unknown shell state %q", text)
	}
	return nil
}

// Config describes the shell to spawn.
type Config struct {
	Command    string
	Args       []string
	Env        map[string]string
	Size       engine.TerminalSize
	Scrollback int
}

// Shell is the session's interactive shell. At most one shell process is
// live at a time; a new one is spawned only after the previous exited.
type Shell struct {
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu         sync.Mutex
	state      State          // Protected by mu
	view       *View          // Protected by mu
	proc       engine.Process // Protected by mu
	spawning   bool           // Protected by mu
	lastErr    error          // Protected by mu
	exitCode   int            // Protected by mu
	onAttached []func()
	onChange   []func()
}

// NewShell creates an uninitialized shell session.
func NewShell(cfg Config, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Size.Validate() != nil {
		cfg.Size = DefaultSize
	}
	return &Shell{
		cfg:    cfg,
		logger: logger.Named("shell"),
	}
}

// WithMetrics adds metrics tracking to the shell
func (s *Shell) WithMetrics(metrics *monitoring.Metrics) *Shell {
	s.metrics = metrics
	return s
}

// OnAttached registers fn to run after each successful spawn.
func (s *Shell) OnAttached(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAttached = append(s.onAttached, fn)
}

// OnChange registers fn to run after every state transition.
func (s *Shell) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Attach returns a new subscriber of the terminal view, creating the view
// on first use.
func (s *Shell) Attach() *Attachment {
	view, changed := s.ensureView()
	if changed {
		s.notify()
	}

	a := &Attachment{
		ID:    id.NewAttachmentID(),
		shell: s,
		view:  view,
	}
	a.out = view.subscribe(a.ID)
	s.logger.Debug("Terminal attached", zap.String("attachment", a.ID.String()))
	return a
}

func (s *Shell) ensureView() (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != nil {
		return s.view, false
	}
	s.view = NewView(s.cfg.Size, s.cfg.Scrollback)
	s.state = StateTerminalReady
	return s.view, true
}

// Connect spawns the shell in inst unless one is live or being spawned.
// It needs the view to exist. A spawn failure is written into the view and
// leaves the session disconnected.
func (s *Shell) Connect(ctx context.Context, inst engine.Instance) error {
	if inst == nil {
		return ErrNoInstance
	}

	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return ErrNoView
	}
	if s.state == StateShellAttached || s.spawning {
		s.mu.Unlock()
		return nil
	}
	s.spawning = true
	view := s.view
	size := view.Size()
	s.mu.Unlock()

	proc, err := inst.Spawn(ctx, s.cfg.Command, s.cfg.Args, engine.SpawnOptions{
		Terminal: size,
		Env:      s.cfg.Env,
	})
	if err != nil {
		s.mu.Lock()
		s.spawning = false
		s.lastErr = err
		s.mu.Unlock()

		s.metrics.RecordSpawn("error")
		s.logger.Error("Shell spawn failed", zap.String("command", s.cfg.Command), zap.Error(err))
		view.WriteLine(fmt.Sprintf("\x1b[31mFailed to start shell: %v\x1b[0m", err))
		s.notify()
		return fmt.Errorf("spawn shell: %w", err)
	}

	s.mu.Lock()
	s.spawning = false
	s.lastErr = nil
	s.proc = proc
	s.state = StateShellAttached
	hooks := append([]func(){}, s.onAttached...)
	s.mu.Unlock()

	s.metrics.RecordSpawn("success")
	s.logger.Info("Shell attached", zap.String("command", s.cfg.Command))

	// the view may have been resized while the spawn was in flight
	if current := view.Size(); current != size {
		if err := proc.Resize(current); err != nil {
			s.logger.Warn("Failed to sync shell size", zap.Error(err))
		}
	}

	pumped := make(chan struct{})
	go s.pump(proc, view, pumped)
	go s.wait(proc, view, pumped)

	s.notify()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// pump copies process output into the view until the output closes.
func (s *Shell) pump(proc engine.Process, view *View, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 4096)
	for {
		n, err := proc.Output().Read(buf)
		if n > 0 {
			view.Write(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("Shell output closed", zap.Error(err))
			}
			return
		}
	}
}

// wait marks the session exited once the process ends.
func (s *Shell) wait(proc engine.Process, view *View, pumped <-chan struct{}) {
	<-proc.Done()

	select {
	case <-pumped:
	case <-time.After(time.Second):
	}

	code := proc.ExitCode()
	s.mu.Lock()
	if s.proc == proc {
		s.proc = nil
		s.state = StateExited
		s.exitCode = code
	}
	s.mu.Unlock()

	s.metrics.RecordShellExit()
	s.logger.Info("Shell exited", zap.Int("code", code))
	view.WriteLine(fmt.Sprintf("\r\n[Process exited with code %d]", code))
	s.notify()
}

// Resize forwards a new size to the view and the live process. Repeating
// the current size is a no-op.
func (s *Shell) Resize(size engine.TerminalSize) error {
	if err := size.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	view, proc := s.view, s.proc
	if view == nil {
		s.cfg.Size = size
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	changed, err := view.Resize(size)
	if err != nil || !changed {
		return err
	}
	if proc != nil {
		if err := proc.Resize(size); err != nil {
			return fmt.Errorf("resize shell: %w", err)
		}
	}
	return nil
}

// WriteInput sends p to the live shell.
func (s *Shell) WriteInput(p []byte) error {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()

	if proc == nil {
		return ErrNotAttached
	}
	if _, err := proc.Input().Write(p); err != nil {
		return fmt.Errorf("write shell input: %w", err)
	}
	return nil
}

// WriteLine writes a line into the view. Lines written before the first
// Attach are dropped.
func (s *Shell) WriteLine(line string) {
	if view := s.View(); view != nil {
		view.WriteLine(line)
	}
}

// Clear clears the view without touching the process.
func (s *Shell) Clear() {
	if view := s.View(); view != nil {
		view.Clear()
	}
}

// State returns the lifecycle state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether a shell process is live.
func (s *Shell) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// ExitCode returns the exit code of the last shell once it has exited.
func (s *Shell) ExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.state == StateExited
}

// Err returns the last spawn failure, cleared by a successful spawn.
func (s *Shell) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// View returns the terminal view, or nil before the first Attach.
func (s *Shell) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Shell) notify() {
	s.mu.Lock()
	fns := append([]func(){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Attachment is one surface subscribed to the view.
type Attachment struct {
	ID id.AttachmentID

	shell *Shell
	view  *View
	out   <-chan []byte
	once  sync.Once
}

// Output delivers the scrollback replay followed by live output. It is
// closed when the attachment is closed or falls too far behind.
func (a *Attachment) Output() <-chan []byte { return a.out }

// Input forwards keystrokes to the shell.
func (a *Attachment) Input(p []byte) error {
	return a.shell.WriteInput(p)
}

// Close releases the subscriber. The shell keeps running.
func (a *Attachment) Close() {
	a.once.Do(func() {
		a.view.unsubscribe(a.ID)
		a.shell.logger.Debug("Terminal detached", zap.String("attachment", a.ID.String()))
	})
}
