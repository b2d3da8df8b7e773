package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// MetricsRepository implements adaptive.MetricsStore using PostgreSQL
type MetricsRepository struct {
	db *sql.DB
}

// NewMetricsRepository creates a new MetricsRepository
func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// Append stores one session
func (r *MetricsRepository) Append(ctx context.Context, m *domain.ConversationMetrics) error {
	query := `
		INSERT INTO conversation_metrics (id, session_id, user_id, difficulty_level_id,
			comprehension_score, response_time_seconds, grammar_accuracy, engagement_level,
			vocabulary_usage_count, user_feedback, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.SessionID, m.UserID, m.DifficultyLevelID,
		m.ComprehensionScore, m.ResponseTimeSeconds, m.GrammarAccuracy, m.EngagementLevel,
		m.VocabularyUsageCount, string(m.UserFeedback), m.RecordedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrDuplicateSession
	case isForeignKeyViolation(err):
		return domain.ErrProfileNotFound
	default:
		return fmt.Errorf("insert metrics: %w", err)
	}
}

// Recent returns up to limit sessions, newest first
func (r *MetricsRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationMetrics, error) {
	query := `
		SELECT id, session_id, user_id, difficulty_level_id, comprehension_score,
			response_time_seconds, grammar_accuracy, engagement_level,
			vocabulary_usage_count, user_feedback, recorded_at
		FROM conversation_metrics
		WHERE user_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select metrics: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ConversationMetrics, 0, limit)
	for rows.Next() {
		var (
			m        domain.ConversationMetrics
			feedback string
		)
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.UserID, &m.DifficultyLevelID, &m.ComprehensionScore,
			&m.ResponseTimeSeconds, &m.GrammarAccuracy, &m.EngagementLevel,
			&m.VocabularyUsageCount, &feedback, &m.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		m.UserFeedback = domain.Feedback(feedback)
		result = append(result, m)
	}
	return result, rows.Err()
}

// CountSince counts sessions recorded strictly after since
func (r *MetricsRepository) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_metrics WHERE user_id = $1 AND recorded_at > $2`,
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count metrics: %w", err)
	}
	return n, nil
}
