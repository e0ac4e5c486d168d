package routes

import (
	"errors"
	"net/http"

	"github.com/graphmind/graphmind/internal/server/middleware"
	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/logger"
	"github.com/graphmind/graphmind/pkg/query"

	"github.com/labstack/echo/v4"
)

// AnswerQuestionHandler streams the model's answer as raw text fragments.
//
// The graph and document summaries come from the request body, or from the
// server session when useSession is set. A newer question cancels the
// stream of the previous one.
func AnswerQuestionHandler(c echo.Context) error {
	type answerQuestionRequest struct {
		Question          string            `json:"question"`
		GraphData         *common.GraphData `json:"graphData"`
		DocumentSummaries string            `json:"documentSummaries"`
		UseSession        bool              `json:"useSession"`
	}

	data := new(answerQuestionRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := middleware.GetApp(c)
	graphData, summaries := data.GraphData, data.DocumentSummaries
	if data.UseSession {
		state := app.Session.Snapshot()
		graphData, summaries = state.GraphData, state.Summary
	}

	stream, err := app.Answers.Ask(c.Request().Context(), data.Question, graphData, summaries)
	switch {
	case errors.Is(err, query.ErrEmptyQuestion):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No question provided"})
	case errors.Is(err, ai.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "AI credentials not configured"})
	case err != nil:
		logger.Error("[Query] Failed to start answer", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to answer question",
			"details": err.Error(),
		})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for ev := range stream {
		if ev.Type != ai.StreamEventContent || ev.Content == "" {
			continue
		}
		if _, err := res.Write([]byte(ev.Content)); err != nil {
			logger.Debug("[Query] Client went away", "err", err)
			for range stream {
			}
			return nil
		}
		res.Flush()
	}
	return nil
}
