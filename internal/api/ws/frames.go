package ws

import (
	"time"

	"github.com/harshit-164/clio-agent-editor/internal/domain/playground"
)

// Client frame types
const (
	TypeInput  = "input"
	TypeResize = "resize"
	TypeRerun  = "rerun"
	TypeClear  = "clear"
	TypePing   = "ping"
)

// Server frame types
const (
	TypeStatus = "status"
	TypeExit   = "exit"
	TypePong   = "pong"
	TypeError  = "error"
)

// ClientFrame is a control message from the browser.
type ClientFrame struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

// ServerFrame is a control message to the browser.
type ServerFrame struct {
	Type      string            `json:"type"`
	State     *playground.State `json:"state,omitempty"`
	ExitCode  *int              `json:"exit_code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

func newFrame(typ string) ServerFrame {
	return ServerFrame{Type: typ, Timestamp: time.Now().Unix()}
}

func errorFrame(msg string) ServerFrame {
	f := newFrame(TypeError)
	f.Message = msg
	return f
}
