package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tiktip/pkg/logger"
	"tiktip/pkg/metrics"

	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name                string
	MaxRequests         uint32        // requests allowed while half-open
	Interval            time.Duration // closed-state counter reset
	Timeout             time.Duration // open -> half-open
	ConsecutiveFailures uint32        // trips the breaker
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:                name,
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerProvider guards a Provider with a circuit breaker so an outage at the
// gateway fails fast instead of piling up request goroutines.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[interface{}]
	name  string
}

func NewBreakerProvider(inner Provider, settings BreakerSettings, log *logger.Logger) *BreakerProvider {
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("[CIRCUIT BREAKER] %s state transition %s -> %s", name, from.String(), to.String())
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// Rejections such as an invalid email are the caller's fault and must
		// not open the circuit.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, ErrReferenceNotFound) || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Retryable()
			}
			return false
		},
	})

	return &BreakerProvider{inner: inner, cb: cb, name: settings.Name}
}

func (b *BreakerProvider) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	res, err := b.execute("initialize", func() (interface{}, error) {
		return b.inner.InitializeTransaction(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*InitializeResponse), nil
}

func (b *BreakerProvider) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	res, err := b.execute("verify", func() (interface{}, error) {
		return b.inner.VerifyTransaction(ctx, reference)
	})
	if err != nil {
		return nil, err
	}
	return res.(*VerifyResponse), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerProvider) State() string {
	return b.cb.State().String()
}

func (b *BreakerProvider) execute(operation string, fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequestsTotal.WithLabelValues(operation, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s circuit %v", ErrProviderUnavailable, b.name, err)
		}
		metrics.ProviderRequestsTotal.WithLabelValues(operation, "failure").Inc()
		return nil, err
	}
	metrics.ProviderRequestsTotal.WithLabelValues(operation, "success").Inc()
	return res, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
