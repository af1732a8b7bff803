package client

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// newBreaker only ever sees transport errors: HTTP error statuses are
// decoded after Execute returns and never count as failures.
func newBreaker(cfg Config, logger *zap.Logger) *gobreaker.CircuitBreaker {
	timeout := cfg.BreakerOpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxFailures := uint32(cfg.BreakerMaxFailures)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "task-api",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}
