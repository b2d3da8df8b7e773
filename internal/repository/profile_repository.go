package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// ProfileRepository implements adaptive.ProfileStore using PostgreSQL
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const selectProfile = `
	SELECT user_id, current_level_id, strengths, weaknesses, preferred_challenge,
		adaptive_auto_adjust, persona, created_at, updated_at
	FROM user_profiles`

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, current_level_id, strengths, weaknesses,
			preferred_challenge, adaptive_auto_adjust, persona, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		p.UserID, p.CurrentLevelID, p.Strengths.Slice(), p.Weaknesses.Slice(),
		string(p.PreferredChallenge), p.AdaptiveAutoAdjust, p.Persona.String(),
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrProfileAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Save updates an existing profile
func (r *ProfileRepository) Save(ctx context.Context, p *domain.UserProfile) error {
	query := `
		UPDATE user_profiles SET
			current_level_id = $2, strengths = $3, weaknesses = $4,
			preferred_challenge = $5, adaptive_auto_adjust = $6, persona = $7,
			updated_at = $8
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		p.UserID, p.CurrentLevelID, p.Strengths.Slice(), p.Weaknesses.Slice(),
		string(p.PreferredChallenge), p.AdaptiveAutoAdjust, p.Persona.String(),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// ListAutoAdjust returns profiles that accept automatic level changes
func (r *ProfileRepository) ListAutoAdjust(ctx context.Context) ([]*domain.UserProfile, error) {
	rows, err := r.pool.Query(ctx, selectProfile+` WHERE adaptive_auto_adjust ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var result []*domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProfile(row pgx.Row) (*domain.UserProfile, error) {
	var (
		p                     domain.UserProfile
		strengths, weaknesses []string
		preference, persona   string
	)
	err := row.Scan(
		&p.UserID, &p.CurrentLevelID, &strengths, &weaknesses, &preference,
		&p.AdaptiveAutoAdjust, &persona, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Persona, err = domain.ParsePersona(persona)
	if err != nil {
		return nil, err
	}
	p.PreferredChallenge = domain.ChallengePreference(preference)
	p.Strengths = domain.NewSkillSet(strengths...)
	p.Weaknesses = domain.NewSkillSet(weaknesses...)
	return &p, nil
}
