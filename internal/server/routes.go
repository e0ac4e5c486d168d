package server

import (
	"github.com/graphmind/graphmind/internal/server/middleware"
	"github.com/graphmind/graphmind/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(app.Metrics.Handler()))

	apiRoutes := e.Group("/api")

	// Stateless routes
	apiRoutes.POST("/extract-entities", routes.ExtractEntitiesHandler)
	apiRoutes.POST("/answer-question", routes.AnswerQuestionHandler)
	apiRoutes.GET("/demo-data", routes.GetDemoDataHandler)
	apiRoutes.POST("/fetch-url", routes.FetchURLHandler)

	// Session routes
	sessionRoutes := apiRoutes.Group("/session")
	sessionRoutes.GET("", routes.GetSessionHandler)
	sessionRoutes.POST("/documents", routes.AddDocumentsHandler)
	sessionRoutes.POST("/files", routes.UploadFilesHandler)
	sessionRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)
	sessionRoutes.POST("/demo/:dataset", routes.LoadDemoHandler)
	sessionRoutes.POST("/selection", routes.SelectNodeHandler)
	sessionRoutes.DELETE("/selection", routes.ClearSelectionHandler)
	sessionRoutes.GET("/selection/neighbors", routes.GetNeighborsHandler)
}
