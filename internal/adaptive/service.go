package adaptive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/difficulty"
	"github.com/felixgeelhaar/parley/internal/domain"
)

// Limits applied to list queries.
const (
	DefaultWindowSize   = 5
	DefaultHistoryLimit = 20
	MaxListLimit        = 200
)

// Config tunes the service.
type Config struct {
	WindowSize int           // sessions fed to the engine
	Policy     MetricsPolicy // handling of out-of-range metrics
	StartLevel string        // level assigned to new profiles
}

// Dependencies are the collaborators a Service is built from.
type Dependencies struct {
	Engine          *difficulty.Engine
	Profiles        ProfileStore
	Metrics         MetricsStore
	Recommendations RecommendationStore
	Events          EventPublisher // optional
	Logger          *slog.Logger   // optional, defaults to slog.Default()
}

// Service runs the adaptive difficulty workflow: it records sessions,
// asks the engine for recommendations and applies them to profiles.
type Service struct {
	engine   *difficulty.Engine
	planner  *difficulty.Planner
	catalog  *difficulty.Catalog
	profiles ProfileStore
	metrics  MetricsStore
	recs     RecommendationStore
	events   EventPublisher
	logger   *slog.Logger
	cfg      Config
}

// NewService creates a new adaptive service
func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyClamp
	}
	catalog := deps.Engine.Catalog()
	if cfg.StartLevel == "" {
		cfg.StartLevel = catalog.AllLevels()[0].ID
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:   deps.Engine,
		planner:  difficulty.NewPlanner(catalog),
		catalog:  catalog,
		profiles: deps.Profiles,
		metrics:  deps.Metrics,
		recs:     deps.Recommendations,
		events:   deps.Events,
		logger:   logger,
		cfg:      cfg,
	}
}

// Catalog returns the difficulty catalog the service works against.
func (s *Service) Catalog() *difficulty.Catalog {
	return s.catalog
}

// CreateProfileRequest describes a new learner.
type CreateProfileRequest struct {
	UserID       uuid.UUID // generated when nil
	StartLevelID string    // defaults to the configured start level
	Persona      *domain.Persona
	Preference   domain.ChallengePreference
	AutoAdjust   *bool
	Strengths    []string
	Weaknesses   []string
}

// CreateProfile registers a learner. When no start level is given the
// configured one is used, moved into the persona's range if needed.
func (s *Service) CreateProfile(ctx context.Context, req CreateProfileRequest) (*domain.UserProfile, error) {
	userID := req.UserID
	if userID == uuid.Nil {
		userID = uuid.New()
	}

	persona := domain.PersonaMaya
	if req.Persona != nil {
		if !req.Persona.Valid() {
			return nil, fmt.Errorf("%w: %d", domain.ErrUnknownPersona, int(*req.Persona))
		}
		persona = *req.Persona
	}

	levelID := req.StartLevelID
	explicit := levelID != ""
	if !explicit {
		levelID = s.cfg.StartLevel
	}
	level, err := s.catalog.GetLevel(levelID)
	if err != nil {
		return nil, err
	}
	if !persona.Allows(level.Complexity) {
		if explicit {
			return nil, fmt.Errorf("%w: persona %s does not offer level %s", domain.ErrInvalidInput, persona, levelID)
		}
		level = s.catalog.ForPersona(persona)[0]
	}

	p := domain.NewUserProfile(userID, level.ID)
	p.Persona = persona
	if req.Preference != "" {
		if !req.Preference.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPreference, req.Preference)
		}
		p.PreferredChallenge = req.Preference
	}
	if req.AutoAdjust != nil {
		p.AdaptiveAutoAdjust = *req.AutoAdjust
	}
	p.Strengths = domain.NewSkillSet(req.Strengths...)
	p.Weaknesses = domain.NewSkillSet(req.Weaknesses...)

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("profile created", "user_id", userID, "level", level.ID, "persona", persona.String())
	return p, nil
}

// GetProfile returns the learner's profile
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	return s.profiles.Get(ctx, userID)
}

// PreferencesUpdate changes learner preferences. Nil fields are left unchanged.
type PreferencesUpdate struct {
	Preference *domain.ChallengePreference
	AutoAdjust *bool
	Persona    *domain.Persona
	Strengths  []string
	Weaknesses []string
}

// UpdatePreferences applies a partial update to a profile.
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, upd PreferencesUpdate) (*domain.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Preference != nil {
		if !upd.Preference.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPreference, *upd.Preference)
		}
		p.PreferredChallenge = *upd.Preference
	}
	if upd.AutoAdjust != nil {
		p.AdaptiveAutoAdjust = *upd.AutoAdjust
	}
	if upd.Persona != nil {
		if !upd.Persona.Valid() {
			return nil, fmt.Errorf("%w: %d", domain.ErrUnknownPersona, int(*upd.Persona))
		}
		p.Persona = *upd.Persona
	}
	if upd.Strengths != nil {
		p.Strengths = domain.NewSkillSet(upd.Strengths...)
	}
	if upd.Weaknesses != nil {
		p.Weaknesses = domain.NewSkillSet(upd.Weaknesses...)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// RecordSession validates and stores the metrics of one finished session.
// An empty DifficultyLevelID is filled from the learner's current level.
func (s *Service) RecordSession(ctx context.Context, m domain.ConversationMetrics) (*domain.ConversationMetrics, error) {
	if m.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}

	p, err := s.profiles.Get(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	if m.DifficultyLevelID == "" {
		m.DifficultyLevelID = p.CurrentLevelID
	}
	if _, err := s.catalog.GetLevel(m.DifficultyLevelID); err != nil {
		return nil, err
	}

	if verr := m.Validate(); verr != nil {
		switch s.cfg.Policy {
		case PolicyReject:
			return nil, verr
		case PolicyClamp:
			s.logger.Warn("clamping out-of-range metrics",
				"user_id", m.UserID, "session_id", m.SessionID, "error", verr)
			m = m.Clamp()
		}
	}

	m.ID = uuid.New()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now().UTC()
	}

	if err := s.metrics.Append(ctx, &m); err != nil {
		return nil, fmt.Errorf("append metrics: %w", err)
	}

	s.publish(domain.NewSessionRecordedEvent(m))
	s.logger.Debug("session recorded", "user_id", m.UserID, "session_id", m.SessionID, "level", m.DifficultyLevelID)
	return &m, nil
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Service) RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationMetrics, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.metrics.Recent(ctx, userID, clampLimit(limit, s.cfg.WindowSize))
}

// Recommend runs the engine over the learner's recent sessions and stores
// the result. With auto-adjust on, a level change is applied immediately.
func (s *Service) Recommend(ctx context.Context, userID uuid.UUID) (*domain.RecommendationRecord, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.metrics.Recent(ctx, userID, s.cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("load recent metrics: %w", err)
	}

	rec := s.engine.Recommend(*p, recent)
	record := domain.NewRecommendationRecord(userID, rec, len(recent))

	autoApply := p.AdaptiveAutoAdjust && rec.Changed()
	if autoApply {
		record.MarkApplied()
	}

	// The record goes first: a learner is only moved once a record of the
	// move exists, so a later sweep never re-reads the same sessions.
	if err := s.recs.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save recommendation: %w", err)
	}

	if autoApply {
		p.ApplyLevel(rec.NewDifficultyID)
		if err := s.profiles.Save(ctx, p); err != nil {
			record.Applied, record.AppliedAt = false, nil
			if rerr := s.recs.Save(ctx, record); rerr != nil {
				s.logger.Error("unmark recommendation", "recommendation_id", record.ID, "error", rerr)
			}
			return nil, fmt.Errorf("apply recommendation: %w", err)
		}
		s.publish(domain.NewLevelChangedEvent(userID, rec.PreviousDifficultyID, rec.NewDifficultyID, domain.LevelChangeAuto))
	}
	s.publish(domain.NewRecommendationIssuedEvent(record))

	s.logger.Info("recommendation issued",
		"user_id", userID,
		"from", rec.PreviousDifficultyID,
		"to", rec.NewDifficultyID,
		"direction", rec.Direction.String(),
		"confidence", rec.Confidence,
		"sessions", len(recent),
		"applied", record.Applied,
	)
	return record, nil
}

// ApplyRecommendation moves the learner to a previously issued recommendation.
// It fails with ErrConflict when the learner's level changed since it was issued.
func (s *Service) ApplyRecommendation(ctx context.Context, userID, recommendationID uuid.UUID) (*domain.UserProfile, error) {
	record, err := s.recs.Get(ctx, recommendationID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, domain.ErrRecommendationNotFound
	}
	if record.Applied {
		return nil, domain.ErrRecommendationApplied
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec := record.Recommendation
	if p.CurrentLevelID != rec.PreviousDifficultyID {
		return nil, fmt.Errorf("%w: learner moved from %s to %s since the recommendation",
			domain.ErrConflict, rec.PreviousDifficultyID, p.CurrentLevelID)
	}

	if rec.Changed() {
		p.ApplyLevel(rec.NewDifficultyID)
		if err := s.profiles.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}
		s.publish(domain.NewLevelChangedEvent(userID, rec.PreviousDifficultyID, rec.NewDifficultyID, domain.LevelChangeManual))
	}

	record.MarkApplied()
	if err := s.recs.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save recommendation: %w", err)
	}

	s.logger.Info("recommendation applied", "user_id", userID, "recommendation_id", recommendationID, "level", p.CurrentLevelID)
	return p, nil
}

// History returns past recommendations, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RecommendationRecord, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.recs.List(ctx, userID, clampLimit(limit, DefaultHistoryLimit))
}

// SuggestProgression proposes the learner's next level and focus areas.
func (s *Service) SuggestProgression(ctx context.Context, userID uuid.UUID) (domain.ProgressionPlan, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.ProgressionPlan{}, err
	}
	return s.planner.SuggestProgression(p.CurrentLevelID, p.Strengths), nil
}

// PlanJump proposes a multi-level move toward targetLevelID.
func (s *Service) PlanJump(ctx context.Context, userID uuid.UUID, targetLevelID string) (domain.ProgressionPlan, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.ProgressionPlan{}, err
	}
	return s.planner.PlanJump(p.CurrentLevelID, targetLevelID, p.Strengths)
}

// RecommendPending issues a recommendation for every auto-adjusting learner
// with sessions newer than their latest recommendation. It keeps going past
// individual failures and returns them joined.
func (s *Service) RecommendPending(ctx context.Context) (int, error) {
	profiles, err := s.profiles.ListAutoAdjust(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	var errs []error
	issued := 0
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return issued, err
		}

		var since time.Time
		latest, err := s.recs.Latest(ctx, p.UserID)
		switch {
		case err == nil:
			since = latest.CreatedAt
		case !errors.Is(err, domain.ErrRecommendationNotFound):
			errs = append(errs, fmt.Errorf("user %s: %w", p.UserID, err))
			continue
		}

		fresh, err := s.metrics.CountSince(ctx, p.UserID, since)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", p.UserID, err))
			continue
		}
		if fresh == 0 {
			continue
		}

		if _, err := s.Recommend(ctx, p.UserID); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", p.UserID, err))
			continue
		}
		issued++
	}

	return issued, errors.Join(errs...)
}

func (s *Service) publish(e domain.Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, MaxListLimit)
}
