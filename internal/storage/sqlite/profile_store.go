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

// ProfileStore persists learner profiles in SQLite.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new SQLite-backed profile store.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

type profileRow struct {
	UserID             string    `db:"user_id"`
	CurrentLevelID     string    `db:"current_level_id"`
	Strengths          string    `db:"strengths"`
	Weaknesses         string    `db:"weaknesses"`
	PreferredChallenge string    `db:"preferred_challenge"`
	AutoAdjust         bool      `db:"adaptive_auto_adjust"`
	Persona            string    `db:"persona"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

const profileColumns = `user_id, current_level_id, strengths, weaknesses,
	preferred_challenge, adaptive_auto_adjust, persona, created_at, updated_at`

func toProfileRow(p *domain.UserProfile) (profileRow, error) {
	strengths, err := json.Marshal(p.Strengths)
	if err != nil {
		return profileRow{}, fmt.Errorf("marshal strengths: %w", err)
	}
	weaknesses, err := json.Marshal(p.Weaknesses)
	if err != nil {
		return profileRow{}, fmt.Errorf("marshal weaknesses: %w", err)
	}
	return profileRow{
		UserID:             p.UserID.String(),
		CurrentLevelID:     p.CurrentLevelID,
		Strengths:          string(strengths),
		Weaknesses:         string(weaknesses),
		PreferredChallenge: string(p.PreferredChallenge),
		AutoAdjust:         p.AdaptiveAutoAdjust,
		Persona:            p.Persona.String(),
		CreatedAt:          p.CreatedAt.UTC(),
		UpdatedAt:          p.UpdatedAt.UTC(),
	}, nil
}

func (r profileRow) toDomain() (*domain.UserProfile, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	persona, err := domain.ParsePersona(r.Persona)
	if err != nil {
		return nil, err
	}
	p := &domain.UserProfile{
		UserID:             userID,
		CurrentLevelID:     r.CurrentLevelID,
		PreferredChallenge: domain.ChallengePreference(r.PreferredChallenge),
		AdaptiveAutoAdjust: r.AutoAdjust,
		Persona:            persona,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Strengths), &p.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Weaknesses), &p.Weaknesses); err != nil {
		return nil, fmt.Errorf("unmarshal weaknesses: %w", err)
	}
	return p, nil
}

// Create inserts a new profile.
func (s *ProfileStore) Create(ctx context.Context, p *domain.UserProfile) error {
	row, err := toProfileRow(p)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO user_profiles (`+profileColumns+`)
		VALUES (:user_id, :current_level_id, :strengths, :weaknesses,
			:preferred_challenge, :adaptive_auto_adjust, :persona, :created_at, :updated_at)`, row)
	if err != nil {
		if code, ok := constraintCode(err); ok && (code == sqlite3.ErrConstraintPrimaryKey || code == sqlite3.ErrConstraintUnique) {
			return domain.ErrProfileAlreadyExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (s *ProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ?`, userID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return row.toDomain()
}

// Save updates an existing profile. created_at is never rewritten.
func (s *ProfileStore) Save(ctx context.Context, p *domain.UserProfile) error {
	row, err := toProfileRow(p)
	if err != nil {
		return err
	}
	result, err := s.db.NamedExecContext(ctx, `
		UPDATE user_profiles SET
			current_level_id = :current_level_id,
			strengths = :strengths,
			weaknesses = :weaknesses,
			preferred_challenge = :preferred_challenge,
			adaptive_auto_adjust = :adaptive_auto_adjust,
			persona = :persona,
			updated_at = :updated_at
		WHERE user_id = :user_id`, row)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// ListAutoAdjust returns all profiles that accept automatic level changes.
func (s *ProfileStore) ListAutoAdjust(ctx context.Context) ([]*domain.UserProfile, error) {
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+profileColumns+` FROM user_profiles WHERE adaptive_auto_adjust = 1 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]*domain.UserProfile, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete removes a profile together with its sessions and recommendations.
func (s *ProfileStore) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM user_profiles WHERE user_id = ?", userID.String())
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
