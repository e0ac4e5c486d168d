package routes

import (
	"net/http"

	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/demo"

	"github.com/labstack/echo/v4"
)

// GetDemoDataHandler returns a demo dataset by id.
func GetDemoDataHandler(c echo.Context) error {
	type demoDataParams struct {
		Dataset string `query:"dataset"`
	}

	type demoDataResponse struct {
		Content       string                `json:"content"`
		Entities      []common.Entity       `json:"entities"`
		Relationships []common.Relationship `json:"relationships"`
		Name          string                `json:"name"`
		Description   string                `json:"description"`
	}

	params := new(demoDataParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid dataset"})
	}

	ds, ok := demo.Lookup(params.Dataset)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid dataset"})
	}

	return c.JSON(http.StatusOK, demoDataResponse{
		Content:       ds.Content,
		Entities:      ds.Entities,
		Relationships: ds.Relationships,
		Name:          ds.Name,
		Description:   ds.Description,
	})
}
