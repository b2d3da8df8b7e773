package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role"` // "learner" or "partner"
	Content string `json:"content"`
}

// Request asks a generator for the partner's next line.
type Request struct {
	UserID      uuid.UUID   `json:"user_id"`
	Constraints Constraints `json:"constraints"`
	History     []Turn      `json:"history,omitempty"`
}

// Reply is a generated partner line.
type Reply struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// Generator produces conversation responses. Its internals are opaque to
// the engine.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Reply, error)
}

// ErrEmptyReply is returned when a generator answers without text.
var ErrEmptyReply = errors.New("generator returned an empty reply")

// StatusError reports a non-2xx answer from an HTTP generator.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generator returned status %d: %s", e.Code, e.Body)
}

// HTTPGenerator posts requests as JSON to a remote endpoint.
type HTTPGenerator struct {
	url        string
	httpClient *http.Client
}

// NewHTTPGenerator creates a generator for endpoint. A non-positive timeout
// defaults to 30s.
func NewHTTPGenerator(endpoint string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 4,
	}
	return &HTTPGenerator{
		url:        endpoint,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}
}

func (g *HTTPGenerator) Name() string {
	return "http"
}

// httpRequest is the wire body: the request fields plus the rendered prompt.
type httpRequest struct {
	System string `json:"system"`
	Request
}

// Generate sends the request and decodes the reply.
func (g *HTTPGenerator) Generate(ctx context.Context, req *Request) (*Reply, error) {
	body, err := json.Marshal(httpRequest{System: req.Constraints.SystemPrompt, Request: *req})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if reply.Text == "" {
		return nil, ErrEmptyReply
	}
	return &reply, nil
}
