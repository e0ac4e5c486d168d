package graph

import (
	"time"

	"github.com/graphmind/graphmind/internal/metrics"

	"github.com/sony/gobreaker"
)

// GraphClient turns documents into a graph. It owns the chunking budget,
// the extraction fan-out limit and the retry and circuit breaker policy
// wrapped around every extraction call.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	maxTokens          int
	parallelAiRequests int
	maxRetries         int
	retryBackoff       time.Duration

	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Collector
}

// BreakerParams configures the circuit breaker in front of the extraction
// service. After MinRequests calls within Interval, a failure ratio of at
// least FailureThreshold opens the breaker for Timeout; while open, chunks
// are skipped immediately instead of waiting on a failing service.
type BreakerParams struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerParams returns a lenient breaker that only trips on a
// sustained outage.
func DefaultBreakerParams() BreakerParams {
	return BreakerParams{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      10,
	}
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// MaxTokens is the chunk budget in estimated tokens (4 characters each).
// ParallelAiRequests limits concurrent extraction calls.
// MaxRetries is the number of attempts per chunk before it is given up.
type NewGraphClientParams struct {
	MaxTokens          int
	ParallelAiRequests int
	MaxRetries         int
	RetryBackoff       time.Duration
	Breaker            *BreakerParams
	Metrics            *metrics.Collector
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client := graph.NewGraphClient(graph.NewGraphClientParams{
//		MaxTokens:          2000,
//		ParallelAiRequests: 8,
//	})
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	parallel := params.ParallelAiRequests
	if parallel <= 0 {
		parallel = 4
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	bp := DefaultBreakerParams()
	if params.Breaker != nil {
		bp = *params.Breaker
	}

	return &GraphClient{
		maxTokens:          maxTokens,
		parallelAiRequests: parallel,
		maxRetries:         maxRetries,
		retryBackoff:       params.RetryBackoff,
		breaker:            newBreaker("extraction", bp),
		metrics:            params.Metrics,
	}
}

// MaxTokens is the configured chunk budget.
func (g *GraphClient) MaxTokens() int {
	return g.maxTokens
}

// RetryBackoff is the wait before the second attempt at a chunk.
func (g *GraphClient) RetryBackoff() time.Duration {
	return g.retryBackoff
}
