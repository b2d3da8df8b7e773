package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// MetricsStore is the SQLite-backed session log.
type MetricsStore struct {
	db *DB
}

// NewMetricsStore creates a new SQLite-backed metrics store.
func NewMetricsStore(db *DB) *MetricsStore {
	return &MetricsStore{db: db}
}

type metricsRow struct {
	ID                   string    `db:"id"`
	SessionID            string    `db:"session_id"`
	UserID               string    `db:"user_id"`
	DifficultyLevelID    string    `db:"difficulty_level_id"`
	ComprehensionScore   float64   `db:"comprehension_score"`
	ResponseTimeSeconds  float64   `db:"response_time_seconds"`
	GrammarAccuracy      float64   `db:"grammar_accuracy"`
	EngagementLevel      float64   `db:"engagement_level"`
	VocabularyUsageCount int       `db:"vocabulary_usage_count"`
	UserFeedback         string    `db:"user_feedback"`
	RecordedAt           time.Time `db:"recorded_at"`
}

const metricsColumns = `id, session_id, user_id, difficulty_level_id, comprehension_score,
	response_time_seconds, grammar_accuracy, engagement_level, vocabulary_usage_count,
	user_feedback, recorded_at`

func (r metricsRow) toDomain() (domain.ConversationMetrics, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.ConversationMetrics{}, fmt.Errorf("parse id: %w", err)
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return domain.ConversationMetrics{}, fmt.Errorf("parse user_id: %w", err)
	}
	return domain.ConversationMetrics{
		ID:                   id,
		SessionID:            r.SessionID,
		UserID:               userID,
		DifficultyLevelID:    r.DifficultyLevelID,
		ComprehensionScore:   r.ComprehensionScore,
		ResponseTimeSeconds:  r.ResponseTimeSeconds,
		GrammarAccuracy:      r.GrammarAccuracy,
		EngagementLevel:      r.EngagementLevel,
		VocabularyUsageCount: r.VocabularyUsageCount,
		UserFeedback:         domain.Feedback(r.UserFeedback),
		RecordedAt:           r.RecordedAt,
	}, nil
}

// Append stores one session. A repeated (user, session) pair fails with
// ErrDuplicateSession and an unknown user with ErrProfileNotFound.
func (s *MetricsStore) Append(ctx context.Context, m *domain.ConversationMetrics) error {
	row := metricsRow{
		ID:                   m.ID.String(),
		SessionID:            m.SessionID,
		UserID:               m.UserID.String(),
		DifficultyLevelID:    m.DifficultyLevelID,
		ComprehensionScore:   m.ComprehensionScore,
		ResponseTimeSeconds:  m.ResponseTimeSeconds,
		GrammarAccuracy:      m.GrammarAccuracy,
		EngagementLevel:      m.EngagementLevel,
		VocabularyUsageCount: m.VocabularyUsageCount,
		UserFeedback:         string(m.UserFeedback),
		RecordedAt:           m.RecordedAt.UTC(),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO conversation_metrics (`+metricsColumns+`)
		VALUES (:id, :session_id, :user_id, :difficulty_level_id, :comprehension_score,
			:response_time_seconds, :grammar_accuracy, :engagement_level, :vocabulary_usage_count,
			:user_feedback, :recorded_at)`, row)
	if err != nil {
		if code, ok := constraintCode(err); ok {
			switch code {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return domain.ErrDuplicateSession
			case sqlite3.ErrConstraintForeignKey:
				return domain.ErrProfileNotFound
			}
		}
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions for the user, newest first.
func (s *MetricsStore) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationMetrics, error) {
	var rows []metricsRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+metricsColumns+` FROM conversation_metrics
		WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("select metrics: %w", err)
	}

	out := make([]domain.ConversationMetrics, 0, len(rows))
	for _, r := range rows {
		m, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// CountSince counts sessions recorded strictly after since.
func (s *MetricsStore) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM conversation_metrics WHERE user_id = ? AND recorded_at > ?`,
		userID.String(), since.UTC())
	if err != nil {
		return 0, fmt.Errorf("count metrics: %w", err)
	}
	return n, nil
}
