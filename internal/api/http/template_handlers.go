package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
)

// ListTemplates lists the starter catalog.
func (h *Handlers) ListTemplates(c *gin.Context) {
	templates := h.catalog.List()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"source":    h.catalog.Source(),
		"templates": templates,
		"count":     len(templates),
	})
}

// GetTemplate returns one starter with its file tree.
func (h *Handlers) GetTemplate(c *gin.Context) {
	kind, ok := template.ParseKind(c.Param("kind"))
	if !ok {
		h.fail(c, template.ErrUnknownTemplate)
		return
	}
	meta, err := h.catalog.Get(kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	tree, err := h.catalog.Load(c.Request.Context(), kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"template": meta,
		"files":    tree,
	})
}
