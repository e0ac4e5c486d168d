package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/internal/util"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// ProcessStats summarises one pipeline run.
type ProcessStats struct {
	Documents    int `json:"documents"`
	Chunks       int `json:"chunks"`
	FailedChunks int `json:"failedChunks"`
	Characters   int `json:"characters"`
}

// ProcessResult holds the raw, unreconciled extraction output of a run in
// (document, chunk) order.
type ProcessResult struct {
	Documents     []common.Document
	Entities      []common.Entity
	Relationships []common.Relationship
	Stats         ProcessStats
}

type chunkSlot struct {
	doc    int
	index  int
	total  int
	text   string
	result common.ExtractionResult
	status string
}

// ProcessDocuments chunks docs and extracts every chunk concurrently, at most
// ParallelAiRequests at a time.
//
// A chunk that fails is logged and contributes nothing; it never fails the
// run. The only error returned is the cancellation of ctx.
func (g *GraphClient) ProcessDocuments(
	ctx context.Context,
	docs []common.Document,
	extractor Extractor,
) (*ProcessResult, error) {
	chunked, docStats := ChunkDocuments(docs, g.maxTokens)

	slots := make([]chunkSlot, 0, docStats.TotalChunks)
	for d, doc := range chunked {
		for i, text := range doc.Chunks {
			slots = append(slots, chunkSlot{
				doc:   d,
				index: i + 1,
				total: len(doc.Chunks),
				text:  text,
			})
		}
	}

	logger.Info("[Graph] Processing documents", "documents", len(chunked), "chunks", len(slots))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelAiRequests)
	for i := range slots {
		slot := &slots[i]
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			res, status, err := g.extractChunk(egCtx, extractor, chunked[slot.doc].Name, slot.text, slot.index, slot.total)
			if err != nil {
				return err
			}
			slot.result = res
			slot.status = status
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("document processing cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("document processing cancelled: %w", err)
	}

	result := &ProcessResult{
		Documents:     chunked,
		Entities:      make([]common.Entity, 0),
		Relationships: make([]common.Relationship, 0),
		Stats: ProcessStats{
			Documents:  docStats.Documents,
			Chunks:     docStats.TotalChunks,
			Characters: docStats.TotalCharacters,
		},
	}
	for _, slot := range slots {
		switch slot.status {
		case metrics.ExtractionFailed, metrics.ExtractionRejected, metrics.ExtractionUnparseable:
			result.Stats.FailedChunks++
		}
		result.Entities = append(result.Entities, slot.result.Entities...)
		result.Relationships = append(result.Relationships, slot.result.Relationships...)
	}

	logger.Info(
		"[Graph] Extraction finished",
		"chunks", result.Stats.Chunks,
		"failed", result.Stats.FailedChunks,
		"entities", len(result.Entities),
		"relationships", len(result.Relationships),
	)

	return result, nil
}

// extractChunk runs one extraction behind the retry loop and the circuit
// breaker. Every failure except cancellation is degraded to an empty result;
// status reports what happened.
func (g *GraphClient) extractChunk(
	ctx context.Context,
	extractor Extractor,
	docName string,
	chunk string,
	chunkIndex int,
	totalChunks int,
) (common.ExtractionResult, string, error) {
	start := time.Now()
	unparseable := false

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return util.RetryWithContext(ctx, g.maxRetries, g.retryBackoff, func(ctx context.Context) (common.ExtractionResult, error) {
			res, err := safeExtract(ctx, extractor, chunk, chunkIndex, totalChunks)
			if errors.Is(err, ErrUnparseableExtraction) {
				unparseable = true
				return res, nil
			}
			return res, err
		})
	})
	took := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return common.ExtractionResult{}, "", ctxErr
	}

	if err != nil {
		status := metrics.ExtractionFailed
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = metrics.ExtractionRejected
		}
		g.metrics.ObserveExtraction(status, took)
		logger.Error(
			"[Extract] Chunk extraction failed",
			"document", docName,
			"chunk", chunkIndex,
			"total", totalChunks,
			"err", err,
		)
		return emptyExtraction(), status, nil
	}

	res, _ := out.(common.ExtractionResult)

	status := metrics.ExtractionOK
	switch {
	case unparseable:
		status = metrics.ExtractionUnparseable
		logger.Warn("[Extract] Could not parse extraction response", "document", docName, "chunk", chunkIndex)
	case res.Warning == MockWarning:
		status = metrics.ExtractionMock
	}
	if res.Warning != "" {
		logger.Warn("[Extract] Extraction warning", "document", docName, "chunk", chunkIndex, "warning", res.Warning)
	}
	g.metrics.ObserveExtraction(status, took)

	return res, status, nil
}

func safeExtract(
	ctx context.Context,
	extractor Extractor,
	chunk string,
	chunkIndex int,
	totalChunks int,
) (res common.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.NoRetry(fmt.Errorf("extractor panicked: %v", r))
		}
	}()
	return extractor.Extract(ctx, chunk, chunkIndex, totalChunks)
}
