package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harshit-164/clio-agent-editor/internal/providers/assistant"
)

// ChatRequest is a chat turn or, with action "enhance", a prompt rewrite.
type ChatRequest struct {
	Action  string              `json:"action,omitempty"`
	Message string              `json:"message,omitempty"`
	Prompt  string              `json:"prompt,omitempty"`
	History []assistant.Message `json:"history,omitempty"`
}

func (h *Handlers) assistantUnavailable(c *gin.Context) bool {
	if h.assistant != nil {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"error":   "assistant not configured",
	})
	return true
}

// CodeSuggestion returns a completion for the cursor position.
func (h *Handlers) CodeSuggestion(c *gin.Context) {
	if h.assistantUnavailable(c) {
		return
	}
	var req assistant.SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	s, err := h.assistant.Suggest(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestion": s.Text,
		"context":    s.Context,
		"metadata": gin.H{
			"language":    s.Context.Language,
			"framework":   s.Context.Framework,
			"position":    s.Context.CursorPosition,
			"generatedAt": s.GeneratedAt,
			"offline":     s.Offline,
		},
	})
}

// Chat answers a message or enhances a prompt.
func (h *Handlers) Chat(c *gin.Context) {
	if h.assistantUnavailable(c) {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	if req.Action == "enhance" {
		c.JSON(http.StatusOK, gin.H{
			"enhancedPrompt": h.assistant.Enhance(c.Request.Context(), req.Prompt),
		})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "Message is required")
		return
	}
	reply, err := h.assistant.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		if errors.Is(err, assistant.ErrInvalidRequest) {
			h.fail(c, err)
			return
		}
		h.logger.Sugar().Errorw("Chat failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to generate AI response",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, reply)
}
