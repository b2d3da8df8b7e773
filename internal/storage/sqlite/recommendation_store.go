package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// RecommendationStore keeps issued recommendations in SQLite.
type RecommendationStore struct {
	db *DB
}

// NewRecommendationStore creates a new SQLite-backed recommendation store.
func NewRecommendationStore(db *DB) *RecommendationStore {
	return &RecommendationStore{db: db}
}

type recommendationRow struct {
	ID              string       `db:"id"`
	UserID          string       `db:"user_id"`
	PreviousLevelID string       `db:"previous_level_id"`
	NewLevelID      string       `db:"new_level_id"`
	Direction       int          `db:"direction"`
	Reason          string       `db:"reason"`
	Confidence      int          `db:"confidence"`
	Adjustments     string       `db:"adjustments"`
	SessionCount    int          `db:"session_count"`
	Applied         bool         `db:"applied"`
	CreatedAt       time.Time    `db:"created_at"`
	AppliedAt       sql.NullTime `db:"applied_at"`
}

const recommendationColumns = `id, user_id, previous_level_id, new_level_id, direction, reason,
	confidence, adjustments, session_count, applied, created_at, applied_at`

func toRecommendationRow(r *domain.RecommendationRecord) (recommendationRow, error) {
	adjustments, err := json.Marshal(r.Recommendation.Adjustments)
	if err != nil {
		return recommendationRow{}, fmt.Errorf("marshal adjustments: %w", err)
	}
	row := recommendationRow{
		ID:              r.ID.String(),
		UserID:          r.UserID.String(),
		PreviousLevelID: r.Recommendation.PreviousDifficultyID,
		NewLevelID:      r.Recommendation.NewDifficultyID,
		Direction:       int(r.Recommendation.Direction),
		Reason:          r.Recommendation.Reason,
		Confidence:      r.Recommendation.Confidence,
		Adjustments:     string(adjustments),
		SessionCount:    r.SessionCount,
		Applied:         r.Applied,
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.AppliedAt != nil {
		row.AppliedAt = sql.NullTime{Time: r.AppliedAt.UTC(), Valid: true}
	}
	return row, nil
}

func (r recommendationRow) toDomain() (domain.RecommendationRecord, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.RecommendationRecord{}, fmt.Errorf("parse id: %w", err)
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return domain.RecommendationRecord{}, fmt.Errorf("parse user_id: %w", err)
	}
	rec := domain.RecommendationRecord{
		ID:     id,
		UserID: userID,
		Recommendation: domain.AdjustmentRecommendation{
			NewDifficultyID:      r.NewLevelID,
			PreviousDifficultyID: r.PreviousLevelID,
			Direction:            domain.Direction(r.Direction),
			Reason:               r.Reason,
			Confidence:           r.Confidence,
		},
		SessionCount: r.SessionCount,
		Applied:      r.Applied,
		CreatedAt:    r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Adjustments), &rec.Recommendation.Adjustments); err != nil {
		return domain.RecommendationRecord{}, fmt.Errorf("unmarshal adjustments: %w", err)
	}
	if rec.Recommendation.Adjustments == nil {
		rec.Recommendation.Adjustments = map[domain.Axis]domain.Adjustment{}
	}
	if r.AppliedAt.Valid {
		t := r.AppliedAt.Time
		rec.AppliedAt = &t
	}
	return rec, nil
}

// Save inserts a record or updates its applied state.
func (s *RecommendationStore) Save(ctx context.Context, r *domain.RecommendationRecord) error {
	row, err := toRecommendationRow(r)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO recommendations (`+recommendationColumns+`)
		VALUES (:id, :user_id, :previous_level_id, :new_level_id, :direction, :reason,
			:confidence, :adjustments, :session_count, :applied, :created_at, :applied_at)
		ON CONFLICT(id) DO UPDATE SET
			applied = excluded.applied,
			applied_at = excluded.applied_at`, row)
	if err != nil {
		if code, ok := constraintCode(err); ok && code == sqlite3.ErrConstraintForeignKey {
			return domain.ErrProfileNotFound
		}
		return fmt.Errorf("upsert recommendation: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *RecommendationStore) Get(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	var row recommendationRow
	err := s.db.GetContext(ctx, &row, `SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Latest returns the newest record for the user.
func (s *RecommendationStore) Latest(ctx context.Context, userID uuid.UUID) (*domain.RecommendationRecord, error) {
	recs, err := s.List(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrRecommendationNotFound
	}
	return &recs[0], nil
}

// List returns up to limit records for the user, newest first.
func (s *RecommendationStore) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RecommendationRecord, error) {
	var rows []recommendationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+recommendationColumns+` FROM recommendations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	out := make([]domain.RecommendationRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
