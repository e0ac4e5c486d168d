package graph

import (
	"context"
	"errors"

	"github.com/graphmind/graphmind/pkg/logger"

	"github.com/sony/gobreaker"
)

func newBreaker(name string, p BreakerParams) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: p.MaxRequests,
		Interval:    p.Interval,
		Timeout:     p.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < p.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= p.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("[Extract] Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
