// Package engine defines the boundary to the sandbox engine: the runtime
// that hosts the project's files, runs its shell and serves its dev server.
//
// The orchestration layers only talk to these interfaces. The host engine
// lives in engine/local; engine/enginetest provides a scriptable fake.
package engine

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidSize  = errors.New("terminal size out of range")
	ErrInvalidPath  = errors.New("invalid sandbox path")
	ErrProcessEnded = errors.New("process has exited")
)

// Engine boots sandbox instances. Boot is expensive and the orchestration
// layer calls it at most once per process.
type Engine interface {
	Boot(ctx context.Context) (Instance, error)
}

// Instance is a booted sandbox.
type Instance interface {
	// Mount writes tree into the sandbox filesystem root.
	Mount(ctx context.Context, tree Tree) error

	// Spawn starts command with a pseudo-terminal of the requested size.
	Spawn(ctx context.Context, command string, args []string, opts SpawnOptions) (Process, error)

	// OnServerReady registers fn for every server-ready notification.
	// The returned func unregisters it.
	OnServerReady(fn ServerReadyFunc) (unsubscribe func())

	FS() FileSystem
}

// ServerReadyFunc receives the port and URL of a server that became
// reachable inside the sandbox.
type ServerReadyFunc func(port int, url string)

// FileSystem is the sandbox's writable filesystem.
type FileSystem interface {
	WriteFile(ctx context.Context, path, content string) error
}

// MaxTerminalDimension bounds each terminal dimension. The view allocates
// cols*rows cells and the pseudo-terminal stores 16-bit sizes.
const MaxTerminalDimension = 1000

// TerminalSize is a column/row pair.
type TerminalSize struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Validate reports whether both dimensions lie in 1..MaxTerminalDimension.
func (s TerminalSize) Validate() error {
	if s.Cols <= 0 || s.Rows <= 0 {
		return ErrInvalidSize
	}
	if s.Cols > MaxTerminalDimension || s.Rows > MaxTerminalDimension {
		return ErrInvalidSize
	}
	return nil
}

// SpawnOptions configures a spawned process.
type SpawnOptions struct {
	Terminal TerminalSize
	Env      map[string]string
}

// Process is a running sandbox process attached to a pseudo-terminal.
type Process interface {
	// Input is the writable side of the terminal.
	Input() io.Writer

	// Output streams terminal output until the process exits.
	Output() io.Reader

	Resize(size TerminalSize) error

	// Done is closed once the process has exited.
	Done() <-chan struct{}

	// ExitCode is valid after Done is closed.
	ExitCode() int
}
