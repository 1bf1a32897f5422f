// Package provider holds the HTTP plumbing shared by the upstream data
// clients (The Odds API, nflverse, Sleeper).
package provider

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Provider string
	Path     string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Provider, e.Path, e.Status, e.Body)
}

// NewBreaker returns a circuit breaker that opens after at least 5 requests
// with a 60% failure ratio and half-opens after 30 seconds.
func NewBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Provider circuit breaker state changed",
				"provider", name, "from", from.String(), "to", to.String())
		},
	})
}

// Truncate returns a truncated string representation for error messages.
func Truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
