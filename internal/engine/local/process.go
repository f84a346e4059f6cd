package local

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
)

// Process is a command running under a pseudo-terminal.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File
	done chan struct{}

	mu       sync.Mutex
	exitCode int  // Protected by mu
	exited   bool // Protected by mu
}

var _ engine.Process = (*Process)(nil)

func winsize(size engine.TerminalSize) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(size.Rows), Cols: uint16(size.Cols)}
}

func (p *Process) Input() io.Writer  { return p.ptmx }
func (p *Process) Output() io.Reader { return p.ptmx }

// Resize changes the pseudo-terminal dimensions.
func (p *Process) Resize(size engine.TerminalSize) error {
	if err := size.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return engine.ErrProcessEnded
	}
	return pty.Setsize(p.ptmx, winsize(size))
}

func (p *Process) Done() <-chan struct{} { return p.done }

// ExitCode returns the exit status, or -1 while running.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Kill terminates the process.
func (p *Process) Kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

func (p *Process) wait() {
	_ = p.cmd.Wait()

	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}

	p.mu.Lock()
	p.exited = true
	p.exitCode = code
	p.mu.Unlock()

	p.ptmx.Close()
	close(p.done)
}
