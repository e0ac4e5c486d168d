package routes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/internal/server/middleware"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ExtractEntitiesHandler extracts entities and relationships from one chunk
// of text. Without model credentials it answers with the mock payload.
func ExtractEntitiesHandler(c echo.Context) error {
	type extractErrorResponse struct {
		Entities      []common.Entity       `json:"entities"`
		Relationships []common.Relationship `json:"relationships"`
		Error         string                `json:"error"`
	}

	data := new(graph.ExtractRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if strings.TrimSpace(data.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No text provided"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := middleware.GetApp(c)
	start := time.Now()
	res, err := app.Extractor.Extract(c.Request().Context(), data.Text, data.ChunkIndex, data.TotalChunks)
	took := time.Since(start)

	switch {
	case errors.Is(err, graph.ErrUnparseableExtraction):
		app.Metrics.ObserveExtraction(metrics.ExtractionUnparseable, took)
		logger.Warn("[Extract] Unparseable model response", "chunk", data.ChunkIndex, "total", data.TotalChunks)
		return c.JSON(http.StatusOK, extractErrorResponse{
			Entities:      []common.Entity{},
			Relationships: []common.Relationship{},
			Error:         "Failed to parse response",
		})
	case err != nil:
		app.Metrics.ObserveExtraction(metrics.ExtractionFailed, took)
		logger.Error("[Extract] Extraction failed", "chunk", data.ChunkIndex, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to extract entities",
			"details": err.Error(),
		})
	}

	status := metrics.ExtractionOK
	if res.Warning != "" {
		status = metrics.ExtractionMock
	}
	app.Metrics.ObserveExtraction(status, took)

	if res.Entities == nil {
		res.Entities = []common.Entity{}
	}
	if res.Relationships == nil {
		res.Relationships = []common.Relationship{}
	}
	return c.JSON(http.StatusOK, res)
}
