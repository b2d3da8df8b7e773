package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// RecommendationRepository implements adaptive.RecommendationStore using PostgreSQL
type RecommendationRepository struct {
	db *sql.DB
}

// NewRecommendationRepository creates a new RecommendationRepository
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

const selectRecommendation = `
	SELECT id, user_id, previous_level_id, new_level_id, direction, reason, confidence,
		adjustments, session_count, applied, created_at, applied_at
	FROM recommendations`

// Save inserts a record or updates its applied state
func (r *RecommendationRepository) Save(ctx context.Context, rec *domain.RecommendationRecord) error {
	adjustments, err := marshalAdjustments(rec.Recommendation.Adjustments)
	if err != nil {
		return fmt.Errorf("marshal adjustments: %w", err)
	}

	query := `
		INSERT INTO recommendations (id, user_id, previous_level_id, new_level_id, direction,
			reason, confidence, adjustments, session_count, applied, created_at, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			applied = EXCLUDED.applied,
			applied_at = EXCLUDED.applied_at
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Recommendation.PreviousDifficultyID, rec.Recommendation.NewDifficultyID,
		int(rec.Recommendation.Direction), rec.Recommendation.Reason, rec.Recommendation.Confidence,
		adjustments, rec.SessionCount, rec.Applied, rec.CreatedAt, ptrToNullTime(rec.AppliedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert recommendation: %w", err)
	}
	return nil
}

// Get retrieves a record by ID
func (r *RecommendationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	rec, err := scanRecommendation(r.db.QueryRowContext(ctx, selectRecommendation+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecommendationNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the newest record for a user
func (r *RecommendationRepository) Latest(ctx context.Context, userID uuid.UUID) (*domain.RecommendationRecord, error) {
	recs, err := r.List(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrRecommendationNotFound
	}
	return &recs[0], nil
}

// List returns up to limit records, newest first
func (r *RecommendationRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RecommendationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectRecommendation+` WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var result []domain.RecommendationRecord
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(row rowScanner) (*domain.RecommendationRecord, error) {
	var (
		rec         domain.RecommendationRecord
		direction   int
		adjustments pqtype.NullRawMessage
		appliedAt   sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Recommendation.PreviousDifficultyID, &rec.Recommendation.NewDifficultyID,
		&direction, &rec.Recommendation.Reason, &rec.Recommendation.Confidence,
		&adjustments, &rec.SessionCount, &rec.Applied, &rec.CreatedAt, &appliedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Recommendation.Direction = domain.Direction(direction)
	rec.Recommendation.Adjustments, err = unmarshalAdjustments(adjustments)
	if err != nil {
		return nil, fmt.Errorf("unmarshal adjustments: %w", err)
	}
	rec.AppliedAt = nullTimeToPtr(appliedAt)
	return &rec, nil
}
