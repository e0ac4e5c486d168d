package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/pkg/common"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type funcExtractor func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error)

func (f funcExtractor) Extract(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
	return f(ctx, chunk, index, total)
}

func singleEntity(name string) common.ExtractionResult {
	return common.ExtractionResult{
		Entities: []common.Entity{{ID: name, Name: name, Type: common.EntityTypeConcept, Importance: 0.5}},
	}
}

func TestProcessDocumentsHTTPFailureOnOneChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ExtractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.TotalChunks != 3 {
			t.Errorf("totalChunks = %d, want 3", req.TotalChunks)
		}
		if req.ChunkIndex == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(singleEntity(req.Text))
	}))
	defer srv.Close()

	collector := metrics.NewCollector()
	client := NewGraphClient(NewGraphClientParams{
		MaxTokens:          1,
		ParallelAiRequests: 3,
		MaxRetries:         1,
		Metrics:            collector,
	})

	docs := []common.Document{{ID: "d1", Name: "doc", Content: "aaaa\n\nbbbb\n\ncccc", Type: common.DocumentTypeText}}
	res, err := client.ProcessDocuments(context.Background(), docs, NewHTTPExtractor(srv.URL, srv.Client()))
	if err != nil {
		t.Fatalf("ProcessDocuments() error = %v", err)
	}

	if got := entityNames(res.Entities); !reflect.DeepEqual(got, []string{"aaaa", "cccc"}) {
		t.Fatalf("entities = %v, want chunks 1 and 3 in order", got)
	}
	if res.Stats.Chunks != 3 || res.Stats.FailedChunks != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if got := testutil.ToFloat64(collector.Extractions(metrics.ExtractionFailed)); got != 1 {
		t.Fatalf("failed counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Extractions(metrics.ExtractionOK)); got != 2 {
		t.Fatalf("ok counter = %v, want 2", got)
	}
}

func TestProcessDocumentsKeepsDocumentAndChunkOrder(t *testing.T) {
	client := NewGraphClient(NewGraphClientParams{MaxTokens: 1, ParallelAiRequests: 8})

	var calls atomic.Int32
	extractor := funcExtractor(func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
		calls.Add(1)
		return singleEntity(fmt.Sprintf("%s#%d/%d", chunk, index, total)), nil
	})

	docs := []common.Document{
		{ID: "1", Name: "first", Content: "aaaa\n\nbbbb"},
		{ID: "2", Name: "second", Content: "cccc"},
		{ID: "3", Name: "empty", Content: "   "},
	}
	res, err := client.ProcessDocuments(context.Background(), docs, extractor)
	if err != nil {
		t.Fatalf("ProcessDocuments() error = %v", err)
	}

	want := []string{"aaaa#1/2", "bbbb#2/2", "cccc#1/1"}
	if got := entityNames(res.Entities); !reflect.DeepEqual(got, want) {
		t.Fatalf("entities = %v, want %v", got, want)
	}
	if calls.Load() != 3 {
		t.Fatalf("extractor calls = %d, want 3", calls.Load())
	}
	if res.Stats.Documents != 3 || res.Stats.FailedChunks != 0 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if len(res.Documents[0].Chunks) != 2 {
		t.Fatalf("chunked documents not returned: %+v", res.Documents)
	}
}

func TestProcessDocumentsRespectsParallelLimit(t *testing.T) {
	client := NewGraphClient(NewGraphClientParams{MaxTokens: 1, ParallelAiRequests: 2})

	var mu sync.Mutex
	inFlight, peak := 0, 0
	extractor := funcExtractor(func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		return singleEntity(chunk), nil
	})

	docs := []common.Document{{Content: "aaaa\n\nbbbb\n\ncccc\n\ndddd\n\neeee"}}
	if _, err := client.ProcessDocuments(context.Background(), docs, extractor); err != nil {
		t.Fatalf("ProcessDocuments() error = %v", err)
	}
	if peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestProcessDocumentsRetriesTransientErrors(t *testing.T) {
	client := NewGraphClient(NewGraphClientParams{MaxRetries: 3})

	var calls atomic.Int32
	extractor := funcExtractor(func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
		if calls.Add(1) < 3 {
			return common.ExtractionResult{}, errors.New("temporary")
		}
		return singleEntity("ok"), nil
	})

	res, err := client.ProcessDocuments(context.Background(), []common.Document{{Content: "hello"}}, extractor)
	if err != nil {
		t.Fatalf("ProcessDocuments() error = %v", err)
	}
	if calls.Load() != 3 || len(res.Entities) != 1 || res.Stats.FailedChunks != 0 {
		t.Fatalf("calls = %d, result = %+v", calls.Load(), res)
	}
}

func TestProcessDocumentsCancelled(t *testing.T) {
	client := NewGraphClient(NewGraphClientParams{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := funcExtractor(func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
		return singleEntity(chunk), nil
	})
	_, err := client.ProcessDocuments(ctx, []common.Document{{Content: "hello"}}, extractor)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestExtractChunkStatuses(t *testing.T) {
	collector := metrics.NewCollector()
	client := NewGraphClient(NewGraphClientParams{
		MaxRetries: 1,
		Metrics:    collector,
		Breaker: &BreakerParams{
			MaxRequests:      1,
			Interval:         0,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      1,
		},
	})
	ctx := context.Background()

	mock := NewAIExtractor(nil)
	res, status, err := client.extractChunk(ctx, mock, "doc", "text", 1, 1)
	if err != nil || status != metrics.ExtractionMock || len(res.Entities) != 2 {
		t.Fatalf("mock: status = %q, err = %v, res = %+v", status, err, res)
	}

	garbage := funcExtractor(func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
		return ParseExtraction("no json here")
	})
	_, status, err = client.extractChunk(ctx, garbage, "doc", "text", 1, 1)
	if err != nil || status != metrics.ExtractionUnparseable {
		t.Fatalf("unparseable: status = %q, err = %v", status, err)
	}

	failing := funcExtractor(func(ctx context.Context, chunk string, index, total int) (common.ExtractionResult, error) {
		return common.ExtractionResult{}, errors.New("down")
	})
	res, status, err = client.extractChunk(ctx, failing, "doc", "text", 1, 1)
	if err != nil || status != metrics.ExtractionFailed || len(res.Entities) != 0 {
		t.Fatalf("failed: status = %q, err = %v", status, err)
	}

	// 2 failures out of 4 requests reaches the 0.5 threshold
	_, status, _ = client.extractChunk(ctx, failing, "doc", "text", 1, 1)
	if status != metrics.ExtractionFailed {
		t.Fatalf("second failure: status = %q", status)
	}

	_, status, err = client.extractChunk(ctx, mock, "doc", "text", 1, 1)
	if err != nil || status != metrics.ExtractionRejected {
		t.Fatalf("open breaker: status = %q, err = %v", status, err)
	}

	if got := testutil.ToFloat64(collector.Extractions(metrics.ExtractionRejected)); got != 1 {
		t.Fatalf("rejected counter = %v, want 1", got)
	}
}
