package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
)

// Instance is one host sandbox.
type Instance struct {
	id     string
	dir    string
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	listeners map[int]engine.ServerReadyFunc // Protected by mu
	nextID    int                            // Protected by mu
	procs     map[*Process]struct{}          // Protected by mu
	cancel    context.CancelFunc
	probeDone chan struct{}
}

var _ engine.Instance = (*Instance)(nil)

func newInstance(id, dir string, cfg Config, logger *zap.Logger) *Instance {
	return &Instance{
		id:        id,
		dir:       dir,
		cfg:       cfg,
		logger:    logger.With(zap.String("instance", id)),
		listeners: make(map[int]engine.ServerReadyFunc),
		procs:     make(map[*Process]struct{}),
	}
}

// ID returns the instance id.
func (i *Instance) ID() string { return i.id }

// Dir returns the instance's filesystem root.
func (i *Instance) Dir() string { return i.dir }

// resolve maps a sandbox path into the instance directory. Symlinks and
// ".." segments cannot escape the root.
func (i *Instance) resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.ContainsRune(p, 0) {
		return "", engine.ErrInvalidPath
	}
	full, err := securejoin.SecureJoin(i.dir, filepath.FromSlash(p))
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrInvalidPath, err)
	}
	if full == i.dir {
		return "", engine.ErrInvalidPath
	}
	return full, nil
}

// Mount writes tree into the instance directory.
func (i *Instance) Mount(ctx context.Context, tree engine.Tree) error {
	var firstErr error
	tree.Walk(func(p string, n engine.Node) {
		if firstErr != nil {
			return
		}
		if err := ctx.Err(); err != nil {
			firstErr = err
			return
		}

		full, err := i.resolve(p)
		if err != nil {
			firstErr = fmt.Errorf("mount %s: %w", p, err)
			return
		}
		if n.IsDir() {
			firstErr = os.MkdirAll(full, 0o755)
			return
		}
		firstErr = writeFile(full, n.File.Contents)
	})
	if firstErr != nil {
		return firstErr
	}

	i.logger.Info("Tree mounted", zap.Int("entries", tree.Count()))
	return nil
}

func writeFile(full, content string) error {
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

// Spawn starts command under a pseudo-terminal in the instance directory.
// The process is not tied to ctx; it runs until it exits or the instance
// shuts down.
func (i *Instance) Spawn(ctx context.Context, command string, args []string, opts engine.SpawnOptions) (engine.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := opts.Terminal.Validate(); err != nil {
		return nil, err
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = i.dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "HOME="+i.dir)
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, winsize(opts.Terminal))
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	proc := &Process{cmd: cmd, ptmx: ptmx, done: make(chan struct{}), exitCode: -1}

	i.mu.Lock()
	i.procs[proc] = struct{}{}
	i.mu.Unlock()

	go func() {
		proc.wait()
		i.mu.Lock()
		delete(i.procs, proc)
		i.mu.Unlock()
		i.logger.Debug("Process exited", zap.String("command", command), zap.Int("code", proc.ExitCode()))
	}()

	i.logger.Info("Process spawned",
		zap.String("command", command),
		zap.Strings("args", args),
		zap.Int("pid", cmd.Process.Pid))
	return proc, nil
}

// OnServerReady registers fn for server-ready notifications.
func (i *Instance) OnServerReady(fn engine.ServerReadyFunc) func() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.nextID++
	key := i.nextID
	i.listeners[key] = fn
	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.listeners, key)
	}
}

func (i *Instance) emitServerReady(port int, url string) {
	i.mu.Lock()
	fns := make([]engine.ServerReadyFunc, 0, len(i.listeners))
	for _, fn := range i.listeners {
		fns = append(fns, fn)
	}
	i.mu.Unlock()

	i.logger.Info("Server ready", zap.Int("port", port), zap.String("url", url))
	for _, fn := range fns {
		fn(port, url)
	}
}

// FS returns the instance filesystem.
func (i *Instance) FS() engine.FileSystem { return fileSystem{i} }

type fileSystem struct{ inst *Instance }

func (f fileSystem) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.inst.resolve(path)
	if err != nil {
		return err
	}
	return writeFile(full, content)
}

// Shutdown stops the prober, kills live processes and removes the
// instance directory unless KeepFiles is set.
func (i *Instance) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	cancel, probeDone := i.cancel, i.probeDone
	procs := make([]*Process, 0, len(i.procs))
	for p := range i.procs {
		procs = append(procs, p)
	}
	i.mu.Unlock()

	if cancel != nil {
		cancel()
		<-probeDone
	}
	for _, p := range procs {
		p.Kill()
		select {
		case <-p.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if i.cfg.KeepFiles {
		return nil
	}
	return os.RemoveAll(i.dir)
}
