// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, h *Handler) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", h.HandleHealth)

	// Upload workspaces
	ws := apiGroup.Group("/workspaces")
	ws.POST("", h.HandleCreateWorkspace)
	ws.GET("/:id/files", h.HandleListWorkspaceFiles)
	ws.POST("/:id/files", h.HandleUploadFiles)
	ws.DELETE("/:id", h.HandleDeleteWorkspace)

	// Loaded collections
	col := apiGroup.Group("/collections")
	col.GET("", h.HandleListCollections)
	col.POST("", h.HandleLoadCollection)
	col.GET("/:id", h.HandleGetCollection)
	col.POST("/:id/reload", h.HandleReloadCollection)
	col.DELETE("/:id", h.HandleDeleteCollection)
	col.GET("/:id/columns", h.HandleGetColumns)
	col.GET("/:id/series", h.HandleGetSeries)
	col.GET("/:id/series/msgpack", h.HandleGetSeriesMsgpack)
	col.GET("/:id/plot.png", h.HandleGetPlot)
	col.GET("/:id/export.xlsx", h.HandleGetExport)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
