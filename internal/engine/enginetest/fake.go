// Package enginetest provides a scriptable in-memory engine for tests.
package enginetest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
)

// ErrBoot is a ready-made boot failure.
var ErrBoot = errors.New("fake boot failed")

// Engine counts boots and hands out fake instances.
type Engine struct {
	mu        sync.Mutex
	boots     int
	gate      chan struct{}
	failures  []error
	instances []*Instance
}

// New returns a fake engine whose boots succeed immediately.
func New() *Engine {
	return &Engine{}
}

// Hold makes subsequent boots block until the returned release func is
// called.
func (e *Engine) Hold() (release func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	gate := make(chan struct{})
	e.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if e.gate == gate {
				e.gate = nil
			}
			e.mu.Unlock()
			close(gate)
		})
	}
}

// FailNextBoot queues err for the next boot.
func (e *Engine) FailNextBoot(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, err)
}

// Boots returns how many times Boot has started.
func (e *Engine) Boots() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boots
}

// Instance returns the most recently booted instance, or nil.
func (e *Engine) Instance() *Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.instances) == 0 {
		return nil
	}
	return e.instances[len(e.instances)-1]
}

func (e *Engine) Boot(ctx context.Context) (engine.Instance, error) {
	e.mu.Lock()
	e.boots++
	gate := e.gate
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.failures) > 0 {
		err := e.failures[0]
		e.failures = e.failures[1:]
		return nil, err
	}

	inst := NewInstance()
	e.instances = append(e.instances, inst)
	return inst, nil
}

// Instance records mounts, spawns and writes.
type Instance struct {
	mu        sync.Mutex
	mounts    []engine.Tree
	mountErrs []error
	spawnErrs []error
	processes []*Process
	files     map[string]string
	listeners map[int]engine.ServerReadyFunc
	nextID    int
}

// NewInstance returns an empty fake instance.
func NewInstance() *Instance {
	return &Instance{
		files:     make(map[string]string),
		listeners: make(map[int]engine.ServerReadyFunc),
	}
}

// FailNextMount queues err for the next Mount.
func (i *Instance) FailNextMount(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mountErrs = append(i.mountErrs, err)
}

// FailNextSpawn queues err for the next Spawn.
func (i *Instance) FailNextSpawn(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.spawnErrs = append(i.spawnErrs, err)
}

func (i *Instance) Mount(ctx context.Context, tree engine.Tree) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.mountErrs) > 0 {
		err := i.mountErrs[0]
		i.mountErrs = i.mountErrs[1:]
		return err
	}
	i.mounts = append(i.mounts, tree)
	tree.Walk(func(p string, n engine.Node) {
		if !n.IsDir() {
			i.files[p] = n.File.Contents
		}
	})
	return nil
}

// Mounts returns the successfully mounted trees.
func (i *Instance) Mounts() []engine.Tree {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]engine.Tree(nil), i.mounts...)
}

func (i *Instance) Spawn(ctx context.Context, command string, args []string, opts engine.SpawnOptions) (engine.Process, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.spawnErrs) > 0 {
		err := i.spawnErrs[0]
		i.spawnErrs = i.spawnErrs[1:]
		return nil, err
	}

	p := newProcess(command, args, opts.Terminal)
	i.processes = append(i.processes, p)
	return p, nil
}

// Processes returns every spawned process in spawn order.
func (i *Instance) Processes() []*Process {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]*Process(nil), i.processes...)
}

func (i *Instance) OnServerReady(fn engine.ServerReadyFunc) func() {
	i.mu.Lock()
	defer i.mu.Unlock()

	id := i.nextID
	i.nextID++
	i.listeners[id] = fn
	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.listeners, id)
	}
}

// Listeners returns the number of server-ready subscriptions.
func (i *Instance) Listeners() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.listeners)
}

// EmitServerReady notifies every subscriber synchronously.
func (i *Instance) EmitServerReady(port int, url string) {
	i.mu.Lock()
	fns := make([]engine.ServerReadyFunc, 0, len(i.listeners))
	for _, fn := range i.listeners {
		fns = append(fns, fn)
	}
	i.mu.Unlock()

	for _, fn := range fns {
		fn(port, url)
	}
}

func (i *Instance) FS() engine.FileSystem { return fakeFS{i} }

// File returns the contents written at path by Mount or WriteFile.
func (i *Instance) File(path string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	content, ok := i.files[path]
	return content, ok
}

type fakeFS struct{ i *Instance }

func (f fakeFS) WriteFile(ctx context.Context, path, content string) error {
	if strings.Contains(path, "..") {
		return engine.ErrInvalidPath
	}
	f.i.mu.Lock()
	defer f.i.mu.Unlock()
	f.i.files[strings.TrimPrefix(path, "/")] = content
	return nil
}

// Process is a fake shell. Output is fed with Emit; input is recorded.
type Process struct {
	Command string
	Args    []string

	mu     sync.Mutex
	input  strings.Builder
	sizes  []engine.TerminalSize
	outR   *io.PipeReader
	outW   *io.PipeWriter
	done   chan struct{}
	code   int
	exited bool
}

func newProcess(command string, args []string, size engine.TerminalSize) *Process {
	r, w := io.Pipe()
	return &Process{
		Command: command,
		Args:    args,
		sizes:   []engine.TerminalSize{size},
		outR:    r,
		outW:    w,
		done:    make(chan struct{}),
	}
}

func (p *Process) Input() io.Writer  { return inputWriter{p} }
func (p *Process) Output() io.Reader { return p.outR }

type inputWriter struct{ p *Process }

func (w inputWriter) Write(b []byte) (int, error) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	if w.p.exited {
		return 0, engine.ErrProcessEnded
	}
	return w.p.input.Write(b)
}

// Written returns everything written to the process input.
func (p *Process) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input.String()
}

func (p *Process) Resize(size engine.TerminalSize) error {
	if err := size.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, size)
	return nil
}

// Sizes returns the spawn size followed by every resize.
func (p *Process) Sizes() []engine.TerminalSize {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.TerminalSize(nil), p.sizes...)
}

// Emit writes s to the process output. It blocks until the reader consumes
// it.
func (p *Process) Emit(s string) error {
	_, err := io.WriteString(p.outW, s)
	return err
}

// Exit ends the process with code.
func (p *Process) Exit(code int) {
	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		return
	}
	p.exited = true
	p.code = code
	p.mu.Unlock()

	p.outW.Close()
	close(p.done)
}

func (p *Process) Done() <-chan struct{} { return p.done }

func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}
