package resilience

import (
	"context"
	"sync/atomic"
	"time"

	commonerrors "github.com/AlibekovAA/refresh-token-service/internal/common/errors"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
	"github.com/AlibekovAA/refresh-token-service/internal/observability/metrics"
)

type CircuitBreaker struct {
	failures    atomic.Int32
	lastFailure atomic.Int64
	threshold   int32
	timeout     time.Duration
	resetAfter  time.Duration
	name        string
	ignore      func(error) bool
	log         *logger.Logger
}

type CircuitBreakerConfig struct {
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Name       string
	// IgnoreError marks errors that are answers rather than outages
	// (not found, conflicts, validation); they do not count as failures.
	IgnoreError func(error) bool
	Logger      *logger.Logger
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	log := config.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		ignore:     config.IgnoreError,
		log:        log,
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	if cb.threshold <= 0 || cb.failures.Load() < cb.threshold {
		cb.setState(0)
		return false
	}

	lastFailure := cb.lastFailure.Load()
	if lastFailure == 0 {
		cb.setState(0)
		return false
	}

	if time.Since(time.Unix(0, lastFailure)) > cb.resetAfter {
		cb.reset()
		cb.setState(0)
		return false
	}

	cb.setState(1)
	return true
}

func (cb *CircuitBreaker) setState(state float64) {
	if cb.name != "" {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(state)
	}
}

func (cb *CircuitBreaker) recordFailure(err error) {
	cb.failures.Add(1)
	cb.lastFailure.Store(time.Now().UnixNano())
	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}
	cb.log.WithFields(context.Background(), logger.Fields{
		"breaker": cb.name,
		"error":   err.Error(),
		"action":  "circuit_breaker_failure",
	}).Warn("circuit breaker failure recorded")
}

func (cb *CircuitBreaker) reset() {
	cb.failures.Store(0)
	cb.lastFailure.Store(0)
}

func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if cb.IsOpen() {
		cb.log.Warnf("circuit breaker [%s]: circuit is open, rejecting request", cb.name)
		return commonerrors.ErrCircuitOpen
	}

	callCtx := ctx
	if cb.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err != nil {
		if cb.ignore == nil || !cb.ignore(err) {
			cb.recordFailure(err)
		}
		return err
	}

	cb.reset()
	return nil
}
