package difficulty

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/parley/internal/domain"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testCatalog(t), DefaultThresholds())
}

func profileAt(levelID string, pref domain.ChallengePreference) domain.UserProfile {
	p := domain.NewUserProfile(uuid.New(), levelID)
	p.PreferredChallenge = pref
	return *p
}

func repeat(m domain.ConversationMetrics, n int) []domain.ConversationMetrics {
	out := make([]domain.ConversationMetrics, n)
	for i := range out {
		out[i] = m
	}
	return out
}

func TestRecommend_NoData(t *testing.T) {
	e := testEngine(t)

	for _, levelID := range []string{"b1-intermediate", "not-a-level"} {
		rec := e.Recommend(profileAt(levelID, domain.PreferIntensive), nil)
		assert.Equal(t, levelID, rec.NewDifficultyID)
		assert.Equal(t, 50, rec.Confidence)
		assert.Equal(t, ReasonNoData, rec.Reason)
		assert.Equal(t, domain.DirectionMaintain, rec.Direction)
		assert.NotNil(t, rec.Adjustments)
		assert.Empty(t, rec.Adjustments)
	}
}

func TestRecommend_StrongPerformance(t *testing.T) {
	e := testEngine(t)
	window := repeat(session(95, 90, 85, 1.5, domain.FeedbackNone), 5)

	rec := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)

	assert.Equal(t, domain.DirectionUp, rec.Direction)
	assert.Equal(t, 80, rec.Confidence)
	assert.Equal(t, ReasonStrong, rec.Reason)
	assert.Equal(t, "b1-confident", rec.NewDifficultyID)
	assert.Equal(t, "b1-intermediate", rec.PreviousDifficultyID)
	assert.Equal(t, map[domain.Axis]domain.Adjustment{
		domain.AxisVocabulary:    domain.AdjustIncrease,
		domain.AxisGrammar:       domain.AdjustIncrease,
		domain.AxisSpeakingSpeed: domain.AdjustIncrease,
	}, rec.Adjustments)
}

func TestRecommend_LowComprehension(t *testing.T) {
	e := testEngine(t)
	window := repeat(session(50, 55, 60, 9, domain.FeedbackNone), 3)

	rec := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)

	assert.Equal(t, domain.DirectionDown, rec.Direction)
	assert.Equal(t, 75, rec.Confidence)
	assert.Equal(t, ReasonLow, rec.Reason)
	assert.Equal(t, "a2-conversational", rec.NewDifficultyID)
	assert.Equal(t, map[domain.Axis]domain.Adjustment{
		domain.AxisVocabulary:    domain.AdjustDecrease,
		domain.AxisGrammar:       domain.AdjustDecrease,
		domain.AxisSpeakingSpeed: domain.AdjustDecrease,
	}, rec.Adjustments)
}

func TestRecommend_Maintain(t *testing.T) {
	e := testEngine(t)
	window := repeat(session(75, 70, 60, 4, domain.FeedbackJustRight), 4)

	rec := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)

	assert.Equal(t, domain.DirectionMaintain, rec.Direction)
	assert.Equal(t, 50, rec.Confidence)
	assert.Equal(t, ReasonWithinRange, rec.Reason)
	assert.Equal(t, "b1-intermediate", rec.NewDifficultyID)
	assert.Empty(t, rec.Adjustments)
}

func TestRecommend_FeedbackTooHard(t *testing.T) {
	e := testEngine(t)
	window := repeat(session(75, 70, 60, 4, domain.FeedbackTooHard), 3)

	require.Equal(t, 1.0, Aggregate(window).Feedback.HardRatio())
	rec := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)

	assert.Equal(t, domain.DirectionDown, rec.Direction)
	assert.GreaterOrEqual(t, rec.Confidence, 85)
	assert.Equal(t, ReasonFeedbackHard, rec.Reason)
	assert.Equal(t, "a2-conversational", rec.NewDifficultyID)
}

func TestRecommend_FeedbackOverridesPerformance(t *testing.T) {
	e := testEngine(t)
	window := repeat(session(50, 45, 60, 5, domain.FeedbackTooEasy), 4)

	rec := e.Recommend(profileAt("a2-conversational", domain.PreferChallenging), window)

	assert.Equal(t, domain.DirectionUp, rec.Direction)
	assert.Equal(t, 85, rec.Confidence)
	assert.Equal(t, ReasonFeedbackEasy, rec.Reason)
	assert.Equal(t, "b1-intermediate", rec.NewDifficultyID)
}

func TestRecommend_FeedbackRatioBoundary(t *testing.T) {
	e := testEngine(t)
	window := append(
		repeat(session(75, 70, 60, 4, domain.FeedbackTooEasy), 3),
		repeat(session(75, 70, 60, 4, domain.FeedbackJustRight), 2)...,
	)

	rec := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)

	assert.Equal(t, domain.DirectionMaintain, rec.Direction, "a ratio of exactly 0.6 must not override")
}

func TestRecommend_PreferenceBias(t *testing.T) {
	e := testEngine(t)
	neutral := repeat(session(75, 70, 60, 4, domain.FeedbackNone), 3)
	strong := repeat(session(95, 90, 85, 1.5, domain.FeedbackNone), 3)
	weak := repeat(session(50, 55, 60, 4, domain.FeedbackNone), 3)

	tests := []struct {
		name       string
		pref       domain.ChallengePreference
		window     []domain.ConversationMetrics
		wantDir    domain.Direction
		wantReason string
	}{
		{"intensive lifts maintain", domain.PreferIntensive, neutral, domain.DirectionUp, ReasonWithinRange + "; preference: intensive"},
		{"intensive keeps increase", domain.PreferIntensive, strong, domain.DirectionUp, ReasonStrong + "; preference: intensive"},
		{"intensive ignores decrease", domain.PreferIntensive, weak, domain.DirectionDown, ReasonLow},
		{"comfortable lowers maintain", domain.PreferComfortable, neutral, domain.DirectionDown, ReasonWithinRange + "; preference: comfortable"},
		{"comfortable ignores increase", domain.PreferComfortable, strong, domain.DirectionUp, ReasonStrong},
		{"challenging has no bias", domain.PreferChallenging, neutral, domain.DirectionMaintain, ReasonWithinRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.Recommend(profileAt("b1-intermediate", tt.pref), tt.window)
			assert.Equal(t, tt.wantDir, rec.Direction)
			assert.Equal(t, tt.wantReason, rec.Reason)
		})
	}
}

func TestRecommend_ClampsAtEdges(t *testing.T) {
	e := testEngine(t)

	top := e.Recommend(profileAt("c2-mastery", domain.PreferChallenging), repeat(session(95, 90, 85, 1.5, ""), 3))
	assert.Equal(t, "c2-mastery", top.NewDifficultyID)
	assert.False(t, top.Changed())

	bottom := e.Recommend(profileAt("a1-starter", domain.PreferChallenging), repeat(session(40, 40, 40, 9, ""), 3))
	assert.Equal(t, "a1-starter", bottom.NewDifficultyID)
}

func TestRecommend_UnknownLevelTreatedAsFirst(t *testing.T) {
	e := testEngine(t)

	rec := e.Recommend(profileAt("legacy-level", domain.PreferChallenging), repeat(session(95, 90, 85, 1.5, ""), 2))
	assert.Equal(t, "a1-explorer", rec.NewDifficultyID)
	assert.Equal(t, "legacy-level", rec.PreviousDifficultyID)

	rec = e.Recommend(profileAt("legacy-level", domain.PreferChallenging), repeat(session(75, 70, 60, 4, ""), 2))
	assert.Equal(t, "a1-starter", rec.NewDifficultyID)
}

func TestRecommend_TopicDepth(t *testing.T) {
	e := testEngine(t)

	up := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), repeat(session(88, 82, 95, 2.5, ""), 2))
	assert.Equal(t, map[domain.Axis]domain.Adjustment{domain.AxisTopicDepth: domain.AdjustIncrease}, up.Adjustments)

	down := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), repeat(session(72, 45, 30, 5, ""), 2))
	assert.Equal(t, map[domain.Axis]domain.Adjustment{
		domain.AxisGrammar:    domain.AdjustDecrease,
		domain.AxisTopicDepth: domain.AdjustDecrease,
	}, down.Adjustments)
}

func TestRecommend_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.StrongComprehension = 70
	th.StrongGrammar = 65
	th.StrongEngagement = 55
	th.StrongResponseTime = 5
	e := NewEngine(testCatalog(t), th)

	rec := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), repeat(session(75, 70, 60, 4, ""), 3))
	assert.Equal(t, domain.DirectionUp, rec.Direction)
}

func TestRecommend_Idempotent(t *testing.T) {
	e := testEngine(t)
	profile := profileAt("b2-upper", domain.PreferIntensive)
	window := []domain.ConversationMetrics{
		session(91, 88, 72, 2.8, domain.FeedbackTooEasy),
		session(83, 79, 90, 1.2, domain.FeedbackJustRight),
		session(66, 58, 40, 8.5, ""),
	}

	first := e.Recommend(profile, window)
	second := e.Recommend(profile, window)
	assert.Equal(t, first, second)
}

func TestRecommend_Concurrent(t *testing.T) {
	e := testEngine(t)
	window := repeat(session(95, 90, 85, 1.5, ""), 5)
	want := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := e.Recommend(profileAt("b1-intermediate", domain.PreferChallenging), window)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.FeedbackRatio = 0
	bad.GrammarDown = 90
	bad.StrongComprehension = 120
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feedback_ratio")
	assert.Contains(t, err.Error(), "grammar_down")
	assert.Contains(t, err.Error(), "strong_comprehension")
}
