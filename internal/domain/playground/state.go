package playground

import (
	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
	"github.com/harshit-164/clio-agent-editor/internal/shared/id"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

// State is the externally visible playground status.
type State struct {
	ID          id.PlaygroundID `json:"id"`
	Opened      bool            `json:"opened"`
	Template    template.Kind   `json:"template,omitempty"`
	Files       int             `json:"files"`
	Mounted     bool            `json:"mounted"`
	Connected   bool            `json:"connected"`
	ShellState  terminal.State  `json:"shell_state"`
	ExitCode    *int            `json:"exit_code,omitempty"`
	ReadyURL    string          `json:"ready_url,omitempty"`
	ReadyPort   int             `json:"ready_port,omitempty"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
	Attachments int             `json:"attachments"`
	Commands    int             `json:"commands"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	st := State{
		ID:       s.id,
		Opened:   s.opened,
		Template: s.kind,
		Files:    s.files,
		Loading:  s.booting,
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	runner := s.runner
	s.mu.RUnlock()

	st.Mounted = s.manager.Mounted()
	st.Connected = s.shell.Connected()
	st.ShellState = s.shell.State()
	if code, exited := s.shell.ExitCode(); exited {
		st.ExitCode = &code
	}
	if spawnErr := s.shell.Err(); spawnErr != nil && st.Error == "" {
		st.Error = spawnErr.Error()
	}
	if ready, ok := s.watcher.Current(); ok {
		st.ReadyURL = ready.URL
		st.ReadyPort = ready.Port
	}
	if view := s.shell.View(); view != nil {
		st.Attachments = view.Subscribers()
	}
	if runner != nil {
		st.Commands = runner.Writes()
	}
	return st
}

// Subscribe returns a channel receiving the latest state after every
// change. Slow readers only see the most recent state. After Close the
// channel carries the final state and is already closed.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	ch <- s.State()

	s.subMu.Lock()
	if s.subClosed {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.nextID++
	key := s.nextID
	s.subs[key] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[key]; ok {
			delete(s.subs, key)
			close(ch)
		}
	}
}

func (s *Session) notify() {
	st := s.State()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		// keep only the newest state
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
