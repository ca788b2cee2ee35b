// Package breaker builds the circuit breakers that guard upstream APIs.
package breaker

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Settings tune when a breaker opens and how long it stays open.
type Settings struct {
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
	Interval            time.Duration
	OpenTimeout         time.Duration

	// IsSuccessful classifies errors that should not count against the
	// upstream, such as client errors. Nil counts every error.
	IsSuccessful func(err error) bool
}

// DefaultSettings trip after 5 consecutive failures, or more than half of at
// least 20 requests failing within a minute.
func DefaultSettings() Settings {
	return Settings{
		ConsecutiveFailures: 5,
		MinRequests:         20,
		FailureRatio:        0.5,
		Interval:            60 * time.Second,
		OpenTimeout:         30 * time.Second,
	}
}

// IsOpen reports whether err was returned because the breaker rejected the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// New creates a named breaker that logs state changes.
func New(name string, s Settings, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     s.Interval,
		Timeout:      s.OpenTimeout,
		IsSuccessful: s.IsSuccessful,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if s.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= s.ConsecutiveFailures {
			return true
		}
		if counts.Requests < s.MinRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > s.FailureRatio
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
	return gobreaker.NewCircuitBreaker(st)
}
