package http

import "github.com/gin-gonic/gin"

// Register mounts the REST routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics/json", h.MetricsJSON)

	api := r.Group("/api")
	api.GET("/templates", h.ListTemplates)
	api.GET("/templates/:kind", h.GetTemplate)

	pg := api.Group("/playground")
	pg.POST("", h.OpenPlayground)
	pg.GET("", h.GetPlayground)
	pg.POST("/retry", h.RetryPlayground)
	pg.GET("/preview", h.Preview)
	pg.PUT("/files/*path", h.WriteFile)

	term := pg.Group("/terminal")
	term.POST("/rerun", h.Rerun)
	term.POST("/clear", h.Clear)
	term.POST("/resize", h.Resize)
	term.POST("/selection", h.Selection)
	term.GET("/search", h.Search)
	term.GET("/log", h.DownloadLog)

	api.POST("/code-suggestion", h.CodeSuggestion)
	api.POST("/chat", h.Chat)
}
