package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/metrics"
	mid "github.com/graphmind/graphmind/internal/server/middleware"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/loader/io"
	"github.com/graphmind/graphmind/pkg/loader/pdf"
	"github.com/graphmind/graphmind/pkg/loader/web"
	"github.com/graphmind/graphmind/pkg/logger"
	"github.com/graphmind/graphmind/pkg/query"
	"github.com/graphmind/graphmind/pkg/session"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewApp wires the shared collaborators from cfg.
func NewApp(cfg config.Config, collector *metrics.Collector) (*mid.App, error) {
	aiClient, err := cfg.NewAIClient()
	if err != nil {
		return nil, err
	}

	files := io.NewIOTextLoader()
	graphClient := cfg.NewGraphClient(collector)

	return &mid.App{
		AiClient:  aiClient,
		Extractor: graph.NewAIExtractor(aiClient),
		Session: session.NewController(session.NewControllerParams{
			GraphClient: graphClient,
			Extractor:   cfg.NewExtractor(aiClient),
			Metrics:     collector,
		}),
		Answers:   query.NewStreamManager(query.NewGraphQueryClient(aiClient), collector),
		Web:       web.NewWebLoader(nil),
		Files:     files,
		PDF:       pdf.NewPDFTextLoader(files),
		Metrics:   collector,
		MaxTokens: graphClient.MaxTokens(),
	}, nil
}

// New creates the echo instance with middleware and routes.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("110M"))

	RegisterRoutes(e, app)
	return e
}

func Init(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(cfg, metrics.Default())
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}
	defer app.Session.Close()

	e := New(app)

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	app.Answers.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
