package query

import (
	"context"
	"sync"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/logger"
)

// Answer stream outcomes.
const (
	AnswerOK        = "ok"
	AnswerError     = "error"
	AnswerCancelled = "cancelled"
	AnswerRejected  = "rejected"
)

// StreamManager allows one answer stream at a time. Asking a new question
// cancels the stream of the previous one.
type StreamManager struct {
	client  *GraphQueryClient
	metrics *metrics.Collector

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewStreamManager creates a manager around client. m may be nil.
func NewStreamManager(client *GraphQueryClient, m *metrics.Collector) *StreamManager {
	return &StreamManager{client: client, metrics: m}
}

// Ask cancels any in-flight answer and starts a new one. The returned
// channel is closed when the answer is complete, when ctx is done or when a
// later Ask replaces it.
func (m *StreamManager) Ask(
	ctx context.Context,
	question string,
	g *common.GraphData,
	summaries string,
) (<-chan ai.StreamEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	streamCtx, cancel := context.WithCancel(ctx)
	src, err := m.client.AnswerStream(streamCtx, question, g, summaries)
	if err != nil {
		cancel()
		m.metrics.ObserveAnswer(AnswerRejected)
		return nil, err
	}

	m.seq++
	id := m.seq
	m.cancel = cancel

	out := make(chan ai.StreamEvent, 10)
	go m.forward(streamCtx, id, cancel, src, out)
	return out, nil
}

// Cancel stops the in-flight answer, if any.
func (m *StreamManager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *StreamManager) forward(
	ctx context.Context,
	id uint64,
	cancel context.CancelFunc,
	src <-chan ai.StreamEvent,
	out chan<- ai.StreamEvent,
) {
	defer close(out)

	status := AnswerOK
	defer func() {
		if ctx.Err() != nil && status == AnswerOK {
			status = AnswerCancelled
		}
		m.metrics.ObserveAnswer(status)
		m.release(id, cancel)
	}()

	for {
		select {
		case <-ctx.Done():
			go drain(src)
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			if ev.Type == ai.StreamEventError {
				status = AnswerError
				logger.Error("[Query] Answer stream failed", "err", ev.Content)
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				go drain(src)
				return
			}
		}
	}
}

// release drops the cancel func if it still belongs to stream id.
func (m *StreamManager) release(id uint64, cancel context.CancelFunc) {
	cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq == id {
		m.cancel = nil
	}
}

func drain(ch <-chan ai.StreamEvent) {
	for range ch {
	}
}

