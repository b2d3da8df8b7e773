package conversation

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns errs in order, then succeeds.
type scriptedGenerator struct {
	errs  []error
	calls atomic.Int32
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, req *Request) (*Reply, error) {
	n := int(g.calls.Add(1)) - 1
	if n < len(g.errs) && g.errs[n] != nil {
		return nil, g.errs[n]
	}
	return &Reply{Text: "ok"}, nil
}

func fastConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		RatePerSecond: 100,
	}
}

func TestResilientGenerator_RetriesTransientErrors(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		&StatusError{Code: http.StatusServiceUnavailable},
		&StatusError{Code: http.StatusTooManyRequests},
	}}
	rg := NewResilientGenerator(gen, fastConfig())
	defer rg.Close()

	reply, err := rg.Generate(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Equal(t, int32(3), gen.calls.Load())
	assert.Equal(t, "scripted", rg.Name())
}

func TestResilientGenerator_DoesNotRetryClientErrors(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{&StatusError{Code: http.StatusBadRequest}}}
	rg := NewResilientGenerator(gen, fastConfig())
	defer rg.Close()

	_, err := rg.Generate(context.Background(), &Request{})
	require.Error(t, err)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestResilientGenerator_CircuitOpens(t *testing.T) {
	bad := &StatusError{Code: http.StatusBadRequest}
	gen := &scriptedGenerator{errs: []error{bad, bad, bad, bad, bad}}
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	cfg.FailThreshold = 2
	cfg.OpenTimeout = time.Minute
	rg := NewResilientGenerator(gen, cfg)
	defer rg.Close()

	for range 4 {
		_, err := rg.Generate(context.Background(), &Request{})
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), gen.calls.Load(), "open breaker must short-circuit calls")
}

func TestResilientGenerator_RateLimited(t *testing.T) {
	gen := &scriptedGenerator{}
	cfg := fastConfig()
	cfg.RatePerSecond = 1
	rg := NewResilientGenerator(gen, cfg)
	defer rg.Close()

	_, err := rg.Generate(context.Background(), &Request{})
	require.NoError(t, err)

	var limited bool
	for range 10 {
		if _, err := rg.Generate(context.Background(), &Request{}); errors.Is(err, ErrRateLimited) {
			limited = true
			break
		}
	}
	assert.True(t, limited, "expected the rate limit to reject a burst")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"empty reply", ErrEmptyReply, false},
		{"429", &StatusError{Code: 429}, true},
		{"500", &StatusError{Code: 500}, true},
		{"504", &StatusError{Code: 504}, true},
		{"404", &StatusError{Code: 404}, false},
		{"network", errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}
