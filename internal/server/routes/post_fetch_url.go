package routes

import (
	"errors"
	"net/http"

	"github.com/graphmind/graphmind/internal/server/middleware"
	"github.com/graphmind/graphmind/pkg/loader/web"
	"github.com/graphmind/graphmind/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FetchURLHandler downloads a page and returns its readable text.
func FetchURLHandler(c echo.Context) error {
	type fetchURLRequest struct {
		URL string `json:"url"`
	}

	data := new(fetchURLRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if _, err := web.ParseURL(data.URL); err != nil {
		if errors.Is(err, web.ErrEmptyURL) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "No URL provided"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid URL"})
	}

	page, err := middleware.GetApp(c).Web.Fetch(c.Request().Context(), data.URL)
	if err != nil {
		logger.Error("[Fetch] URL fetch failed", "url", data.URL, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch URL",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, page)
}
