package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/domain/playground"
	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs origins
	},
}

// Handler serves terminal WebSocket connections.
type Handler struct {
	session *playground.Session
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(session *playground.Session, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{session: session, logger: logger.Named("ws")}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// conn is one attached terminal surface. Only the write loop writes to
// the socket.
type conn struct {
	h       *Handler
	ws      *websocket.Conn
	attach  *terminal.Attachment
	control chan ServerFrame
	logger  *zap.Logger
}

// HandleConnection upgrades the request and attaches a terminal surface
// until either side closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the shell outlives this connection
	a := h.session.Attach(context.WithoutCancel(c.Request.Context()))
	cn := &conn{
		h:       h,
		ws:      wsConn,
		attach:  a,
		control: make(chan ServerFrame, 16),
		logger:  h.logger.With(zap.String("attachment", a.ID.String())),
	}
	h.metrics.IncWSConnections()
	cn.logger.Info("Terminal connected")

	defer func() {
		a.Close()
		wsConn.Close()
		h.metrics.DecWSConnections()
		cn.logger.Info("Terminal disconnected")
	}()

	states, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		cn.writeLoop(ctx, states)
		// unblock the read loop
		wsConn.Close()
	}()

	cn.readLoop()
	cancel()
	<-writerDone
}

func (cn *conn) readLoop() {
	cn.ws.SetReadLimit(maxMessageSize)
	_ = cn.ws.SetReadDeadline(time.Now().Add(pongWait))
	cn.ws.SetPongHandler(func(string) error {
		return cn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, data, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cn.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		switch typ {
		case websocket.BinaryMessage:
			cn.h.metrics.RecordWSMessage("in", TypeInput)
			cn.input(data)
		case websocket.TextMessage:
			var f ClientFrame
			if err := sonic.Unmarshal(data, &f); err != nil {
				cn.send(errorFrame("malformed frame"))
				continue
			}
			cn.h.metrics.RecordWSMessage("in", f.Type)
			cn.dispatch(f)
		}
	}
}

func (cn *conn) dispatch(f ClientFrame) {
	s := cn.h.session
	switch f.Type {
	case TypeInput:
		cn.input([]byte(f.Data))
	case TypeResize:
		if err := s.Resize(engine.TerminalSize{Cols: f.Cols, Rows: f.Rows}); err != nil {
			cn.send(errorFrame(err.Error()))
		}
	case TypeRerun:
		if err := s.ManualRerun(); err != nil {
			cn.send(errorFrame(err.Error()))
		}
	case TypeClear:
		s.Clear()
	case TypePing:
		cn.send(newFrame(TypePong))
	default:
		cn.send(errorFrame("unknown message type"))
	}
}

func (cn *conn) input(p []byte) {
	if err := cn.attach.Input(p); err != nil {
		cn.send(errorFrame(err.Error()))
	}
}

// send queues a control frame, dropping it if the writer is backed up.
func (cn *conn) send(f ServerFrame) {
	select {
	case cn.control <- f:
	default:
		cn.logger.Warn("Dropping control frame", zap.String("type", f.Type))
	}
}

func (cn *conn) writeLoop(ctx context.Context, states <-chan playground.State) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var lastShell terminal.State = -1
	output := cn.attach.Output()
	for {
		select {
		case <-ctx.Done():
			cn.closeWith(websocket.CloseNormalClosure, "")
			return

		case chunk, ok := <-output:
			if !ok {
				cn.closeWith(websocket.CloseTryAgainLater, "terminal output lagged")
				return
			}
			if err := cn.write(websocket.BinaryMessage, chunk); err != nil {
				return
			}

		case st, ok := <-states:
			if !ok {
				cn.closeWith(websocket.CloseGoingAway, "playground closed")
				return
			}
			f := newFrame(TypeStatus)
			f.State = &st
			if err := cn.writeFrame(f); err != nil {
				return
			}
			if st.ShellState == terminal.StateExited && lastShell != terminal.StateExited {
				exit := newFrame(TypeExit)
				exit.ExitCode = st.ExitCode
				if err := cn.writeFrame(exit); err != nil {
					return
				}
			}
			lastShell = st.ShellState

		case f := <-cn.control:
			if err := cn.writeFrame(f); err != nil {
				return
			}

		case <-ticker.C:
			if err := cn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (cn *conn) writeFrame(f ServerFrame) error {
	data, err := sonic.Marshal(f)
	if err != nil {
		cn.logger.Error("Failed to encode frame", zap.Error(err))
		return nil
	}
	cn.h.metrics.RecordWSMessage("out", f.Type)
	return cn.write(websocket.TextMessage, data)
}

func (cn *conn) write(typ int, data []byte) error {
	_ = cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return cn.ws.WriteMessage(typ, data)
}

func (cn *conn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = cn.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
