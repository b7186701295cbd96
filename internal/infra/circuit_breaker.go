package infra

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Wraps sony/gobreaker for calls to remote collaborators (image upload,
// hosted auth logout). Closed → Open after FailureThreshold consecutive
// failures; Half-Open after OpenTimeout lets SuccessThreshold trial requests through.

// ErrCircuitOpen is returned when Execute is called while the CB is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds tunable parameters.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures to trip open (default: 5)
	SuccessThreshold uint32        // trial requests allowed in half-open (default: 2)
	OpenTimeout      time.Duration // how long to stay open before probing (default: 60s)
}

// DefaultCBConfig returns sensible defaults for remote HTTP collaborators.
func DefaultCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.SuccessThreshold,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit_breaker: state change")
		},
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[any](st)}
}

// Execute runs fn through the breaker. Open or saturated half-open states
// fail fast with ErrCircuitOpen.
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns "closed", "half-open" or "open" for health endpoints and logs.
func (b *CircuitBreaker) State() string {
	return b.cb.State().String()
}

func (b *CircuitBreaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

func (b *CircuitBreaker) Name() string {
	return b.cb.Name()
}
