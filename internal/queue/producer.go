package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// publishTimeout bounds event publishing, which has no caller context.
const publishTimeout = 5 * time.Second

// Publisher is the part of Connection the producer needs.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, messageID string, data any) error
}

// Producer publishes session jobs and recommendation events.
type Producer struct {
	pub Publisher
}

// NewProducer creates a new queue producer
func NewProducer(pub Publisher) *Producer {
	return &Producer{pub: pub}
}

// PublishSessionCompleted hands a finished session to the workers.
func (p *Producer) PublishSessionCompleted(ctx context.Context, job *SessionJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	if err := p.pub.PublishJSON(ctx, SessionQueueName, job.ID.String(), job); err != nil {
		return fmt.Errorf("failed to publish session job: %w", err)
	}

	slog.Info("published session job",
		"job_id", job.ID,
		"user_id", job.Metrics.UserID,
		"session_id", job.Metrics.SessionID,
	)
	return nil
}

// PublishEvent forwards a domain event to the recommendations queue.
func (p *Producer) PublishEvent(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := EventMessage{
		EventID:    event.EventID(),
		Type:       event.EventType(),
		UserID:     event.AggregateID(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}
	if err := p.pub.PublishJSON(ctx, RecommendationQueueName, msg.EventID.String(), msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", msg.Type, err)
	}
	return nil
}

// Publish implements adaptive.EventPublisher. Only recommendation and level
// change events leave the process; failures are logged.
func (p *Producer) Publish(event domain.Event) {
	switch event.EventType() {
	case domain.EventRecommendationIssued, domain.EventLevelChanged:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, event); err != nil {
		slog.Error("event publish failed", "type", event.EventType(), "user_id", event.AggregateID(), "error", err)
	}
}
