package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/domain"
)

func seedProfile(t *testing.T, store *ProfileStore, autoAdjust bool) *domain.UserProfile {
	t.Helper()
	p := domain.NewUserProfile(uuid.New(), "b1-intermediate")
	p.AdaptiveAutoAdjust = autoAdjust
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func TestProfileStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewProfileStore(openTestDB(t))

	p := domain.NewUserProfile(uuid.New(), "a2-elementary")
	p.Persona = domain.PersonaLuna
	p.PreferredChallenge = domain.PreferIntensive
	p.Strengths = domain.NewSkillSet(domain.SkillGrammar, domain.SkillVocabulary)
	p.Weaknesses = domain.NewSkillSet(domain.SkillPronunciation)

	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded, err := store.Get(ctx, p.UserID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.CurrentLevelID != "a2-elementary" {
		t.Errorf("CurrentLevelID = %q; want a2-elementary", loaded.CurrentLevelID)
	}
	if loaded.Persona != domain.PersonaLuna {
		t.Errorf("Persona = %v; want luna", loaded.Persona)
	}
	if loaded.PreferredChallenge != domain.PreferIntensive {
		t.Errorf("PreferredChallenge = %q; want intensive", loaded.PreferredChallenge)
	}
	if !loaded.AdaptiveAutoAdjust {
		t.Error("AdaptiveAutoAdjust = false; want true")
	}
	if !loaded.Strengths.Has(domain.SkillGrammar) || !loaded.Weaknesses.Has(domain.SkillPronunciation) {
		t.Errorf("skills = %v / %v", loaded.Strengths.Slice(), loaded.Weaknesses.Slice())
	}
	if !loaded.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt = %v; want %v", loaded.CreatedAt, p.CreatedAt)
	}
}

func TestProfileStore_CreateDuplicate(t *testing.T) {
	store := NewProfileStore(openTestDB(t))
	p := seedProfile(t, store, true)

	err := store.Create(context.Background(), p)
	if !errors.Is(err, domain.ErrProfileAlreadyExists) {
		t.Errorf("Create() error = %v; want ErrProfileAlreadyExists", err)
	}
}

func TestProfileStore_GetNotFound(t *testing.T) {
	store := NewProfileStore(openTestDB(t))

	_, err := store.Get(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Get() error = %v; want ErrProfileNotFound", err)
	}
}

func TestProfileStore_Save(t *testing.T) {
	ctx := context.Background()
	store := NewProfileStore(openTestDB(t))
	p := seedProfile(t, store, true)

	p.ApplyLevel("b1-confident")
	p.AdaptiveAutoAdjust = false
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Get(ctx, p.UserID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.CurrentLevelID != "b1-confident" {
		t.Errorf("CurrentLevelID = %q; want b1-confident", loaded.CurrentLevelID)
	}
	if loaded.AdaptiveAutoAdjust {
		t.Error("AdaptiveAutoAdjust = true; want false")
	}

	missing := domain.NewUserProfile(uuid.New(), "a1-starter")
	if err := store.Save(ctx, missing); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Save(missing) error = %v; want ErrProfileNotFound", err)
	}
}

func TestProfileStore_ListAutoAdjust(t *testing.T) {
	store := NewProfileStore(openTestDB(t))
	auto := seedProfile(t, store, true)
	seedProfile(t, store, false)

	list, err := store.ListAutoAdjust(context.Background())
	if err != nil {
		t.Fatalf("ListAutoAdjust() error = %v", err)
	}
	if len(list) != 1 || list[0].UserID != auto.UserID {
		t.Errorf("ListAutoAdjust() = %d profiles; want only %s", len(list), auto.UserID)
	}
}

func TestProfileStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	profiles := NewProfileStore(db)
	metrics := NewMetricsStore(db)
	p := seedProfile(t, profiles, true)

	m := newMetrics(p.UserID, "s1", time.Now())
	if err := metrics.Append(ctx, &m); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := profiles.Delete(ctx, p.UserID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := profiles.Delete(ctx, p.UserID); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("second Delete() error = %v; want ErrProfileNotFound", err)
	}

	n, err := metrics.CountSince(ctx, p.UserID, time.Time{})
	if err != nil {
		t.Fatalf("CountSince() error = %v", err)
	}
	if n != 0 {
		t.Errorf("CountSince() = %d after delete; want 0", n)
	}
}

func newMetrics(userID uuid.UUID, sessionID string, at time.Time) domain.ConversationMetrics {
	return domain.ConversationMetrics{
		ID:                   uuid.New(),
		SessionID:            sessionID,
		UserID:               userID,
		DifficultyLevelID:    "b1-intermediate",
		ComprehensionScore:   82.5,
		ResponseTimeSeconds:  3.2,
		GrammarAccuracy:      74,
		EngagementLevel:      66,
		VocabularyUsageCount: 12,
		UserFeedback:         domain.FeedbackJustRight,
		RecordedAt:           at,
	}
}

func TestMetricsStore_AppendRecent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := seedProfile(t, NewProfileStore(db), true)
	store := NewMetricsStore(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i, sid := range []string{"s1", "s2", "s3"} {
		m := newMetrics(p.UserID, sid, base.Add(time.Duration(i)*time.Minute))
		if err := store.Append(ctx, &m); err != nil {
			t.Fatalf("Append(%s) error = %v", sid, err)
		}
	}

	recent, err := store.Recent(ctx, p.UserID, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent() returned %d; want 2", len(recent))
	}
	if recent[0].SessionID != "s3" || recent[1].SessionID != "s2" {
		t.Errorf("Recent() order = %s, %s; want s3, s2", recent[0].SessionID, recent[1].SessionID)
	}
	if recent[0].ComprehensionScore != 82.5 || recent[0].VocabularyUsageCount != 12 {
		t.Errorf("Recent()[0] = %+v", recent[0])
	}
	if recent[0].UserFeedback != domain.FeedbackJustRight {
		t.Errorf("UserFeedback = %q; want just_right", recent[0].UserFeedback)
	}
}

func TestMetricsStore_AppendErrors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := seedProfile(t, NewProfileStore(db), true)
	store := NewMetricsStore(db)

	m := newMetrics(p.UserID, "dup", time.Now())
	if err := store.Append(ctx, &m); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	again := newMetrics(p.UserID, "dup", time.Now())
	if err := store.Append(ctx, &again); !errors.Is(err, domain.ErrDuplicateSession) {
		t.Errorf("Append(duplicate) error = %v; want ErrDuplicateSession", err)
	}

	orphan := newMetrics(uuid.New(), "s1", time.Now())
	if err := store.Append(ctx, &orphan); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Append(orphan) error = %v; want ErrProfileNotFound", err)
	}
}

func TestMetricsStore_CountSince(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := seedProfile(t, NewProfileStore(db), true)
	store := NewMetricsStore(db)

	cutoff := time.Now().UTC().Add(-30 * time.Minute)
	for i, at := range []time.Time{cutoff.Add(-time.Minute), cutoff, cutoff.Add(time.Minute)} {
		m := newMetrics(p.UserID, uuid.NewString(), at)
		if err := store.Append(ctx, &m); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	n, err := store.CountSince(ctx, p.UserID, cutoff)
	if err != nil {
		t.Fatalf("CountSince() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountSince() = %d; want 1", n)
	}
}

func TestRecommendationStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := seedProfile(t, NewProfileStore(db), false)
	store := NewRecommendationStore(db)

	older := domain.NewRecommendationRecord(p.UserID, domain.AdjustmentRecommendation{
		NewDifficultyID:      "b1-intermediate",
		PreviousDifficultyID: "b1-intermediate",
		Reason:               "no recent data",
		Confidence:           50,
		Adjustments:          map[domain.Axis]domain.Adjustment{},
	}, 0)
	older.CreatedAt = older.CreatedAt.Add(-time.Minute)

	newer := domain.NewRecommendationRecord(p.UserID, domain.AdjustmentRecommendation{
		NewDifficultyID:      "b1-confident",
		PreviousDifficultyID: "b1-intermediate",
		Direction:            domain.DirectionUp,
		Reason:               "strong performance across all metrics",
		Confidence:           80,
		Adjustments: map[domain.Axis]domain.Adjustment{
			domain.AxisVocabulary: domain.AdjustIncrease,
		},
	}, 5)

	for _, r := range []*domain.RecommendationRecord{older, newer} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	latest, err := store.Latest(ctx, p.UserID)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != newer.ID {
		t.Errorf("Latest() = %s; want %s", latest.ID, newer.ID)
	}
	if latest.Recommendation.Direction != domain.DirectionUp || latest.SessionCount != 5 {
		t.Errorf("Latest() = %+v", latest)
	}
	if latest.Recommendation.Adjustments[domain.AxisVocabulary] != domain.AdjustIncrease {
		t.Errorf("Adjustments = %v", latest.Recommendation.Adjustments)
	}

	newer.MarkApplied()
	if err := store.Save(ctx, newer); err != nil {
		t.Fatalf("Save(applied) error = %v", err)
	}
	got, err := store.Get(ctx, newer.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Applied || got.AppliedAt == nil {
		t.Errorf("Get() applied = %v at %v; want applied", got.Applied, got.AppliedAt)
	}

	list, err := store.List(ctx, p.UserID, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[1].ID != older.ID {
		t.Errorf("List() = %d records, want newest first", len(list))
	}
	if list[1].Recommendation.Adjustments == nil {
		t.Error("empty adjustments decoded as nil map")
	}
}

func TestRecommendationStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewRecommendationStore(openTestDB(t))

	if _, err := store.Get(ctx, uuid.New()); !errors.Is(err, domain.ErrRecommendationNotFound) {
		t.Errorf("Get() error = %v; want ErrRecommendationNotFound", err)
	}
	if _, err := store.Latest(ctx, uuid.New()); !errors.Is(err, domain.ErrRecommendationNotFound) {
		t.Errorf("Latest() error = %v; want ErrRecommendationNotFound", err)
	}
}
