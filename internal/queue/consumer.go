package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// SessionHandler records queued sessions. adaptive.Service implements it.
type SessionHandler interface {
	RecordSession(ctx context.Context, m domain.ConversationMetrics) (*domain.ConversationMetrics, error)
	Recommend(ctx context.Context, userID uuid.UUID) (*domain.RecommendationRecord, error)
}

// Consumer drains the session queue with a pool of workers.
type Consumer struct {
	conn       *Connection
	handler    SessionHandler
	workers    int
	prefetch   int
	jobTimeout time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers    int           // concurrent workers
	Prefetch   int           // unacked deliveries per channel
	JobTimeout time.Duration // per-message processing bound
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:    2,
		Prefetch:   4,
		JobTimeout: 30 * time.Second,
	}
}

// NewConsumer creates a new queue consumer. Zero config fields take defaults.
func NewConsumer(conn *Connection, handler SessionHandler, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}

	return &Consumer{
		conn:       conn,
		handler:    handler,
		workers:    cfg.Workers,
		prefetch:   cfg.Prefetch,
		jobTimeout: cfg.JobTimeout,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		SessionQueueName,
		"",    // consumer tag (auto-generated)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting session queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := range c.workers {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker stopping", "worker_id", id)
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

// outcome is what happens to a delivery after processing.
type outcome int

const (
	outcomeAck outcome = iota
	outcomeReject
	outcomeRequeue
)

// classify maps a handler error onto a delivery outcome. Bad input will
// never succeed and is dropped; anything else may be transient.
func classify(err error) outcome {
	switch {
	case err == nil, errors.Is(err, domain.ErrDuplicateSession):
		return outcomeAck
	case errors.Is(err, domain.ErrInvalidMetrics),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrLevelNotFound):
		return outcomeReject
	default:
		return outcomeRequeue
	}
}

func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) outcome {
	var job SessionJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to unmarshal session job", "worker_id", workerID, "error", err)
		_ = msg.Reject(false)
		return outcomeReject
	}

	jobCtx, cancel := context.WithTimeout(ctx, c.jobTimeout)
	defer cancel()

	start := time.Now()
	err := c.handle(jobCtx, &job)
	result := classify(err)

	logger := slog.With("worker_id", workerID, "job_id", job.ID, "user_id", job.Metrics.UserID, "duration", time.Since(start))
	switch result {
	case outcomeAck:
		if err != nil {
			logger.Info("duplicate session skipped", "session_id", job.Metrics.SessionID)
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error("failed to ack message", "error", ackErr)
		}
	case outcomeReject:
		logger.Warn("session job rejected", "error", err)
		_ = msg.Reject(false)
	case outcomeRequeue:
		logger.Error("session job failed, requeueing", "error", err)
		_ = msg.Nack(false, true)
	}
	return result
}

func (c *Consumer) handle(ctx context.Context, job *SessionJob) error {
	if _, err := c.handler.RecordSession(ctx, job.Metrics); err != nil {
		return err
	}
	if !job.Recommend {
		return nil
	}
	// The session is stored; a failed recommendation is picked up by the next sweep.
	if _, err := c.handler.Recommend(ctx, job.Metrics.UserID); err != nil {
		slog.Warn("recommendation after queued session failed", "user_id", job.Metrics.UserID, "error", err)
	}
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}
