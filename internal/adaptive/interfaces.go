package adaptive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// ProfileStore persists learner profiles.
// Both the SQLite and PostgreSQL backends implement this.
type ProfileStore interface {
	// Create inserts a new profile, failing with ErrProfileAlreadyExists
	Create(ctx context.Context, p *domain.UserProfile) error
	// Get returns ErrProfileNotFound when the user has no profile
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	// Save updates an existing profile
	Save(ctx context.Context, p *domain.UserProfile) error
	// ListAutoAdjust returns every profile with adaptive auto-adjust enabled
	ListAutoAdjust(ctx context.Context) ([]*domain.UserProfile, error)
}

// MetricsStore is the append-only log of session metrics.
type MetricsStore interface {
	// Append stores one session, failing with ErrDuplicateSession on a repeated session ID
	Append(ctx context.Context, m *domain.ConversationMetrics) error
	// Recent returns up to limit sessions, newest first
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationMetrics, error)
	// CountSince counts sessions recorded strictly after since
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// RecommendationStore keeps the history of issued recommendations.
type RecommendationStore interface {
	// Save inserts or updates a record
	Save(ctx context.Context, r *domain.RecommendationRecord) error
	// Get returns ErrRecommendationNotFound for unknown IDs
	Get(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error)
	// Latest returns the newest record for a user or ErrRecommendationNotFound
	Latest(ctx context.Context, userID uuid.UUID) (*domain.RecommendationRecord, error)
	// List returns up to limit records, newest first
	List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RecommendationRecord, error)
}

// EventPublisher receives domain events. domain.EventDispatcher implements it.
type EventPublisher interface {
	Publish(event domain.Event)
}

var _ EventPublisher = (*domain.EventDispatcher)(nil)
