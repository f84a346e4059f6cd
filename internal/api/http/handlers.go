package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/domain/playground"
	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/providers/assistant"
	"github.com/harshit-164/clio-agent-editor/internal/sandbox"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

const (
	serviceName = "clio-sandboxd"
	version     = "0.1.0"
)

// Assistant is the completion and chat backend.
type Assistant interface {
	Suggest(ctx context.Context, req assistant.SuggestionRequest) (*assistant.Suggestion, error)
	Chat(ctx context.Context, message string, history []assistant.Message) (*assistant.Reply, error)
	Enhance(ctx context.Context, prompt string) string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	session   *playground.Session
	catalog   *template.Catalog
	assistant Assistant
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	fallback  template.Kind
}

// NewHandlers creates a new handler set. assistant may be nil, in which
// case the assistant routes answer 503.
func NewHandlers(session *playground.Session, catalog *template.Catalog, asst Assistant, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		session:   session,
		catalog:   catalog,
		assistant: asst,
		logger:    logger.Named("http"),
		fallback:  template.Fallback,
	}
}

// WithDefaultTemplate sets the kind opened when a request names none.
func (h *Handlers) WithDefaultTemplate(k template.Kind) *Handlers {
	h.fallback = k.Resolve()
	return h
}

// WithMetrics adds metrics tracking to the handlers
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	st := h.session.State()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"playground": gin.H{
			"opened":    st.Opened,
			"mounted":   st.Mounted,
			"connected": st.Connected,
		},
		"templates": gin.H{"source": h.catalog.Source()},
		"assistant": gin.H{"configured": h.assistant != nil},
		"metrics":   h.metrics.Snapshot(),
	})
}

// fail writes the error body and status matching err.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, playground.ErrNotOpened),
		errors.Is(err, sandbox.ErrNotBooted),
		errors.Is(err, terminal.ErrNoView):
		return http.StatusConflict
	case errors.Is(err, playground.ErrAlreadyOpened):
		return http.StatusConflict
	case errors.Is(err, template.ErrUnknownTemplate):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidSize),
		errors.Is(err, engine.ErrInvalidPath),
		errors.Is(err, assistant.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, terminal.ErrNotAttached):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
