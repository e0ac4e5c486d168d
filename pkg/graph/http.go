package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/graphmind/graphmind/internal/util"
	"github.com/graphmind/graphmind/pkg/common"
)

// ExtractRequest is the body sent to a remote extraction service.
type ExtractRequest struct {
	Text        string `json:"text" validate:"required"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
}

// HTTPExtractor calls an extraction service over HTTP.
//
// Any non-2xx status is an error. 4xx answers are not retried.
type HTTPExtractor struct {
	endpoint string
	client   *http.Client
}

// NewHTTPExtractor creates an extractor posting to endpoint. A nil client
// uses one with a two minute timeout.
func NewHTTPExtractor(endpoint string, client *http.Client) *HTTPExtractor {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HTTPExtractor{endpoint: endpoint, client: client}
}

func (h *HTTPExtractor) Extract(
	ctx context.Context,
	chunk string,
	chunkIndex int,
	totalChunks int,
) (common.ExtractionResult, error) {
	body, err := json.Marshal(ExtractRequest{
		Text:        chunk,
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
	})
	if err != nil {
		return common.ExtractionResult{}, util.NoRetry(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return common.ExtractionResult{}, util.NoRetry(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return common.ExtractionResult{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.ExtractionResult{}, fmt.Errorf("failed to read extraction response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("extraction service returned %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return common.ExtractionResult{}, util.NoRetry(err)
		}
		return common.ExtractionResult{}, err
	}

	return ParseExtraction(string(data))
}
