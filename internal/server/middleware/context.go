package middleware

import (
	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/loader"
	"github.com/graphmind/graphmind/pkg/loader/web"
	"github.com/graphmind/graphmind/pkg/query"
	"github.com/graphmind/graphmind/pkg/session"

	"github.com/labstack/echo/v4"
)

// App holds the collaborators shared by every request.
//
// AiClient may be nil when no credentials are configured. Extractor serves
// /api/extract-entities; the session controller owns its own extractor.
type App struct {
	AiClient  ai.GraphAIClient
	Extractor *graph.AIExtractor
	Session   *session.Controller
	Answers   *query.StreamManager
	Web       *web.WebLoader
	Files     loader.TextLoader
	PDF       loader.TextLoader
	Metrics   *metrics.Collector
	MaxTokens int
}

type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware exposes app to handlers through AppContext.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

// GetApp returns the App of the request.
func GetApp(c echo.Context) *App {
	return c.(*AppContext).App
}
