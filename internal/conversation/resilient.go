package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrRateLimited is returned when the local rate limit rejects a request.
var ErrRateLimited = errors.New("generator rate limit exceeded")

// ResilientGenerator wraps a Generator with fortify resilience patterns.
type ResilientGenerator struct {
	gen            Generator
	circuitBreaker circuitbreaker.CircuitBreaker[*Reply]
	retrier        retry.Retry[*Reply]
	bulkhead       bulkhead.Bulkhead[*Reply]
	rateLimit      ratelimit.RateLimiter
	logger         *slog.Logger
}

// ResilientConfig tunes the wrapper. Zero values take the defaults.
type ResilientConfig struct {
	MaxAttempts   int           // retry attempts, default 3
	InitialDelay  time.Duration // first retry delay, default 500ms
	MaxConcurrent int           // bulkhead size, default 4
	RatePerSecond int           // default 5
	FailThreshold uint32        // consecutive failures that open the breaker, default 3
	OpenTimeout   time.Duration // how long the breaker stays open, default 30s
	Logger        *slog.Logger
}

// DefaultResilientConfig returns the defaults used for zero fields.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxConcurrent: 4,
		RatePerSecond: 5,
		FailThreshold: 3,
		OpenTimeout:   30 * time.Second,
	}
}

func (c ResilientConfig) withDefaults() ResilientConfig {
	def := DefaultResilientConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = def.RatePerSecond
	}
	if c.FailThreshold == 0 {
		c.FailThreshold = def.FailThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// NewResilientGenerator wraps gen with rate limiting, a bulkhead, retries
// and a circuit breaker.
func NewResilientGenerator(gen Generator, cfg ResilientConfig) *ResilientGenerator {
	cfg = cfg.withDefaults()
	rg := &ResilientGenerator{gen: gen, logger: cfg.Logger}

	rg.circuitBreaker = circuitbreaker.New[*Reply](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailThreshold
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			rg.logger.Warn("circuit breaker state change",
				"generator", gen.Name(),
				"from", from.String(),
				"to", to.String())
		},
	})

	rg.retrier = retry.New[*Reply](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})

	rg.bulkhead = bulkhead.New[*Reply](bulkhead.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		MaxQueue:      cfg.MaxConcurrent * 2,
		QueueTimeout:  10 * time.Second,
	})

	rg.rateLimit = ratelimit.New(&ratelimit.Config{
		Rate:     cfg.RatePerSecond,
		Burst:    cfg.RatePerSecond * 2,
		Interval: time.Second,
	})

	return rg
}

func (g *ResilientGenerator) Name() string {
	return g.gen.Name()
}

// Generate runs the wrapped generator inside the breaker, retrying
// transient failures within the bulkhead.
func (g *ResilientGenerator) Generate(ctx context.Context, req *Request) (*Reply, error) {
	if !g.rateLimit.Allow(ctx, g.gen.Name()) {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, g.gen.Name())
	}

	operation := func(ctx context.Context) (*Reply, error) {
		return g.bulkhead.Execute(ctx, func(ctx context.Context) (*Reply, error) {
			return g.gen.Generate(ctx, req)
		})
	}

	return g.circuitBreaker.Execute(ctx, func(ctx context.Context) (*Reply, error) {
		return g.retrier.Do(ctx, operation)
	})
}

// Close releases the rate limiter.
func (g *ResilientGenerator) Close() error {
	return g.rateLimit.Close()
}

// isRetryable reports whether err is worth another attempt: throttling,
// server errors and network failures are; client errors and empty replies
// are not.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyReply) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}
