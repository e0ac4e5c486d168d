package routes

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/graphmind/graphmind/internal/server/middleware"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/loader"
	"github.com/graphmind/graphmind/pkg/loader/web"
	"github.com/graphmind/graphmind/pkg/logger"
	"github.com/graphmind/graphmind/pkg/session"

	"github.com/labstack/echo/v4"
)

// GetSessionHandler returns the current session state.
func GetSessionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.GetApp(c).Session.Snapshot())
}

// AddDocumentsHandler adds pasted text and URLs to the session and starts a
// rebuild. URLs are fetched before the build starts.
func AddDocumentsHandler(c echo.Context) error {
	type sessionDocument struct {
		Type    string `json:"type" validate:"required,oneof=text url"`
		Name    string `json:"name"`
		Content string `json:"content"`
		URL     string `json:"url"`
	}

	type addDocumentsRequest struct {
		Documents []sessionDocument `json:"documents" validate:"required,min=1,dive"`
	}

	data := new(addDocumentsRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := middleware.GetApp(c)
	sources := make([]loader.Source, 0, len(data.Documents))
	for _, d := range data.Documents {
		var (
			src loader.Source
			err error
		)
		switch d.Type {
		case string(common.DocumentTypeURL):
			if _, err := web.ParseURL(d.URL); err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid URL"})
			}
			src, err = loader.NewURLSource(loader.NewSourceParams{
				Name:     d.Name,
				Location: strings.TrimSpace(d.URL),
				Loader:   app.Web,
			})
		default:
			if strings.TrimSpace(d.Content) == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "No text provided"})
			}
			name := d.Name
			if name == "" {
				name = "Pasted text"
			}
			src, err = loader.NewTextSource(loader.NewSourceParams{
				Name: name,
				Data: []byte(d.Content),
			})
		}
		if err != nil {
			logger.Error("[Session] Failed to create source", "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		sources = append(sources, src)
	}

	return addSources(c, app, sources)
}

// UploadFilesHandler adds uploaded TXT, MD and PDF files to the session.
func UploadFilesHandler(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid multipart form"})
	}
	files := form.File["files"]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No files provided"})
	}

	sizes := make([]int64, 0, len(files))
	kinds := make([]loader.FileKind, 0, len(files))
	for _, fh := range files {
		kind, ok := loader.DetectFileKind(fh.Filename, fh.Header.Get(echo.HeaderContentType))
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": loader.ErrUnsupportedFile.Error(),
				"file":  fh.Filename,
			})
		}
		kinds = append(kinds, kind)
		sizes = append(sizes, fh.Size)
	}
	if err := loader.CheckUploadSize(sizes...); err != nil {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": loader.ErrUploadTooLarge.Error()})
	}

	app := middleware.GetApp(c)
	sources := make([]loader.Source, 0, len(files))
	for i, fh := range files {
		content, err := readUpload(fh)
		if err != nil {
			logger.Error("[Session] Failed to read upload", "file", fh.Filename, "err", err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read file", "file": fh.Filename})
		}

		textLoader := app.Files
		if kinds[i] == loader.FileKindPDF {
			textLoader = app.PDF
		}
		src, err := loader.NewFileSource(loader.NewSourceParams{
			Name:   fh.Filename,
			Data:   content,
			Loader: textLoader,
		})
		if err != nil {
			logger.Error("[Session] Failed to create source", "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		sources = append(sources, src)
	}

	return addSources(c, app, sources)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// addSources loads every source, then hands the documents to the session in
// one step so a single rebuild covers them all.
func addSources(c echo.Context, app *middleware.App, sources []loader.Source) error {
	docs, err := loadDocuments(c.Request().Context(), sources, app.MaxTokens)
	if err != nil {
		if errors.Is(err, loader.ErrEmptyContent) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logger.Error("[Session] Failed to load documents", "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error":   "Failed to load document",
			"details": err.Error(),
		})
	}

	state, err := app.Session.AddDocuments(c.Request().Context(), docs)
	if err != nil {
		logger.Error("[Session] Failed to add documents", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusAccepted, state)
}

func loadDocuments(ctx context.Context, sources []loader.Source, maxTokens int) ([]common.Document, error) {
	docs := make([]common.Document, 0, len(sources))
	for i := range sources {
		doc, err := sources[i].Document(ctx)
		if err != nil {
			return nil, err
		}
		doc.Chunks = graph.ChunkText(doc.Content, maxTokens)
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocumentHandler removes a document and rebuilds from the rest.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	state, err := middleware.GetApp(c).Session.RemoveDocument(c.Request().Context(), params.ID)
	if errors.Is(err, session.ErrUnknownDocument) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
	}
	if err != nil {
		logger.Error("[Session] Failed to remove document", "id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, state)
}

// LoadDemoHandler replaces the session with a demo dataset.
func LoadDemoHandler(c echo.Context) error {
	type loadDemoParams struct {
		Dataset string `param:"dataset" validate:"required"`
	}

	params := new(loadDemoParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid dataset"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid dataset"})
	}

	state, err := middleware.GetApp(c).Session.LoadDemo(params.Dataset)
	if errors.Is(err, session.ErrUnknownDataset) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid dataset"})
	}
	if err != nil {
		logger.Error("[Session] Failed to load demo", "dataset", params.Dataset, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, state)
}

// SelectNodeHandler selects a node of the current graph.
func SelectNodeHandler(c echo.Context) error {
	type selectNodeRequest struct {
		NodeID string `json:"nodeId" validate:"required"`
	}

	data := new(selectNodeRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	state, err := middleware.GetApp(c).Session.Select(data.NodeID)
	if err != nil {
		return selectionError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// ClearSelectionHandler drops the selected node.
func ClearSelectionHandler(c echo.Context) error {
	state, err := middleware.GetApp(c).Session.ClearSelection()
	if err != nil {
		return selectionError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func selectionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrUnknownNode):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Node not found"})
	case errors.Is(err, session.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, map[string]string{"error": "No graph is ready"})
	}
	logger.Error("[Session] Selection failed", "err", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

// GetNeighborsHandler returns the selected node with its linked nodes.
func GetNeighborsHandler(c echo.Context) error {
	type neighborsResponse struct {
		Node      common.GraphNode `json:"node"`
		Neighbors []graph.Neighbor `json:"neighbors"`
	}

	state := middleware.GetApp(c).Session.Snapshot()
	if state.SelectedNode == nil || state.GraphData == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No node selected"})
	}

	return c.JSON(http.StatusOK, neighborsResponse{
		Node:      *state.SelectedNode,
		Neighbors: graph.Neighbors(*state.GraphData, state.SelectedNode.ID),
	})
}
