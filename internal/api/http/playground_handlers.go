package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/domain/filetree"
	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/preview"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

// OpenRequest opens the playground. Without files the starter for the
// template is loaded from the catalog.
type OpenRequest struct {
	Template string           `json:"template"`
	Files    *filetree.Folder `json:"files,omitempty"`
}

// WriteFileRequest carries editor content for a sandbox file.
type WriteFileRequest struct {
	Content *string `json:"content"`
}

// OpenPlayground boots the sandbox, mounts the tree and starts the
// terminal pipeline. It answers 202 while boot and mount continue in the
// background.
func (h *Handlers) OpenPlayground(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	kind := h.fallback
	if req.Template != "" {
		kind = template.KindOrFallback(req.Template)
	}
	tree := req.Files
	if tree == nil {
		loaded, err := h.catalog.Load(c.Request.Context(), kind)
		if err != nil {
			h.logger.Warn("Starter unavailable, opening empty project",
				zap.String("template", kind.String()),
				zap.Error(err))
			loaded = filetree.NewFolder(kind.String())
		}
		tree = loaded
	}

	if err := h.session.Open(c.Request.Context(), kind, tree); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"state":   h.session.State(),
	})
}

// GetPlayground returns the current playground state.
func (h *Handlers) GetPlayground(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   h.session.State(),
	})
}

// RetryPlayground repeats a failed boot or mount.
func (h *Handlers) RetryPlayground(c *gin.Context) {
	if err := h.session.Retry(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"state":   h.session.State(),
	})
}

// Preview returns the preview decision. With render=1 the placeholder
// document is served directly, or the client is redirected to the live
// server.
func (h *Handlers) Preview(c *gin.Context) {
	d := h.session.Preview()
	if c.Query("render") != "1" {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"kind":     d.Kind,
			"url":      d.URL,
			"message":  d.Message,
			"document": d.Document,
		})
		return
	}

	switch d.Kind {
	case preview.KindURL:
		c.Redirect(http.StatusTemporaryRedirect, d.URL)
	case preview.KindPlaceholder:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(d.Document))
	default:
		c.Header("Retry-After", "1")
		c.String(http.StatusServiceUnavailable, d.Message)
	}
}

// WriteFile saves editor content into the sandbox.
func (h *Handlers) WriteFile(c *gin.Context) {
	path := c.Param("path")
	var req WriteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		badRequest(c, "content is required")
		return
	}

	if err := h.session.WriteFile(c.Request.Context(), path, *req.Content); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"path":    path,
		"bytes":   len(*req.Content),
	})
}

// Rerun restarts the transcript and re-issues the command.
func (h *Handlers) Rerun(c *gin.Context) {
	if err := h.session.ManualRerun(); err != nil {
		h.fail(c, err)
		return
	}
	st := h.session.State()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"connected": st.Connected,
		"commands":  st.Commands,
	})
}

// Clear clears the terminal view.
func (h *Handlers) Clear(c *gin.Context) {
	h.session.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Resize forwards a new terminal size.
func (h *Handlers) Resize(c *gin.Context) {
	var size engine.TerminalSize
	if err := c.ShouldBindJSON(&size); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := h.session.Resize(size); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cols": size.Cols, "rows": size.Rows})
}

// Selection copies a range of the visible screen.
func (h *Handlers) Selection(c *gin.Context) {
	var r terminal.Range
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"text":    h.session.Selection(r),
	})
}

// Search finds a term in the terminal scrollback.
func (h *Handlers) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		badRequest(c, "q is required")
		return
	}
	matches := h.session.Find(q)
	if matches == nil {
		matches = []terminal.Match{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"query":   q,
		"count":   len(matches),
		"matches": matches,
	})
}
