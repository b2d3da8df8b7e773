package difficulty

import (
	"github.com/felixgeelhaar/parley/internal/domain"
)

// Reasons reported with a recommendation.
const (
	ReasonNoData          = "no recent data"
	ReasonWithinRange     = "performance within target range"
	ReasonStrong          = "strong performance"
	ReasonLow             = "low comprehension"
	ReasonFeedbackEasy    = "feedback: too easy"
	ReasonFeedbackHard    = "feedback: too hard"
	noteIntensive         = "preference: intensive"
	noteComfortable       = "preference: comfortable"
	confidenceBaseline    = 50
	confidenceStrong      = 80
	confidenceLow         = 75
	confidenceFeedbackMin = 85
)

// Engine turns a profile and a window of session metrics into a
// recommendation. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	catalog    *Catalog
	thresholds Thresholds
}

// NewEngine creates an engine over catalog using the given thresholds.
func NewEngine(catalog *Catalog, thresholds Thresholds) *Engine {
	return &Engine{catalog: catalog, thresholds: thresholds}
}

// Catalog returns the catalog the engine resolves levels against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Recommend decides whether the learner's next conversation should be
// harder, easier or unchanged. It never fails: bad references degrade to
// the softest level or to the current one.
func (e *Engine) Recommend(profile domain.UserProfile, recent []domain.ConversationMetrics) domain.AdjustmentRecommendation {
	if len(recent) == 0 {
		return domain.AdjustmentRecommendation{
			NewDifficultyID:      profile.CurrentLevelID,
			PreviousDifficultyID: profile.CurrentLevelID,
			Direction:            domain.DirectionMaintain,
			Reason:               ReasonNoData,
			Confidence:           confidenceBaseline,
			Adjustments:          map[domain.Axis]domain.Adjustment{},
		}
	}

	signals := Aggregate(recent)
	t := e.thresholds

	direction := domain.DirectionMaintain
	confidence := confidenceBaseline
	reason := ReasonWithinRange

	switch {
	case signals.Comprehension > t.StrongComprehension &&
		signals.GrammarAccuracy > t.StrongGrammar &&
		signals.Engagement > t.StrongEngagement &&
		signals.ResponseTime < t.StrongResponseTime:
		direction, confidence, reason = domain.DirectionUp, confidenceStrong, ReasonStrong
	case signals.Comprehension < t.WeakComprehension || signals.GrammarAccuracy < t.WeakGrammar:
		direction, confidence, reason = domain.DirectionDown, confidenceLow, ReasonLow
	}

	// Learner feedback outranks measured performance.
	switch {
	case signals.Feedback.EasyRatio() > t.FeedbackRatio:
		direction, confidence, reason = domain.DirectionUp, max(confidence, confidenceFeedbackMin), ReasonFeedbackEasy
	case signals.Feedback.HardRatio() > t.FeedbackRatio:
		direction, confidence, reason = domain.DirectionDown, max(confidence, confidenceFeedbackMin), ReasonFeedbackHard
	}

	switch {
	case profile.PreferredChallenge == domain.PreferIntensive && direction >= domain.DirectionMaintain:
		direction = max(direction, domain.DirectionUp)
		reason += "; " + noteIntensive
	case profile.PreferredChallenge == domain.PreferComfortable && direction <= domain.DirectionMaintain:
		direction = min(direction, domain.DirectionDown)
		reason += "; " + noteComfortable
	}

	current, _ := e.catalog.complexityOf(profile.CurrentLevelID)
	newID := profile.CurrentLevelID
	if level, err := e.catalog.LevelForComplexity(current + int(direction)); err == nil {
		newID = level.ID
	}

	return domain.AdjustmentRecommendation{
		NewDifficultyID:      newID,
		PreviousDifficultyID: profile.CurrentLevelID,
		Direction:            direction,
		Reason:               reason,
		Confidence:           confidence,
		Adjustments:          e.axisAdjustments(direction, signals),
	}
}

// axisAdjustments lists the axes whose own signal supports the overall direction.
func (e *Engine) axisAdjustments(direction domain.Direction, s Signals) map[domain.Axis]domain.Adjustment {
	adj := make(map[domain.Axis]domain.Adjustment)
	t := e.thresholds

	switch {
	case direction > 0:
		if s.Comprehension > t.VocabularyUp {
			adj[domain.AxisVocabulary] = domain.AdjustIncrease
		}
		if s.GrammarAccuracy > t.GrammarUp {
			adj[domain.AxisGrammar] = domain.AdjustIncrease
		}
		if s.ResponseTime < t.SpeedUpResponse {
			adj[domain.AxisSpeakingSpeed] = domain.AdjustIncrease
		}
		if s.Engagement > t.TopicDepthUp {
			adj[domain.AxisTopicDepth] = domain.AdjustIncrease
		}
	case direction < 0:
		if s.Comprehension < t.VocabularyDown {
			adj[domain.AxisVocabulary] = domain.AdjustDecrease
		}
		if s.GrammarAccuracy < t.GrammarDown {
			adj[domain.AxisGrammar] = domain.AdjustDecrease
		}
		if s.ResponseTime > t.SpeedDownResponse {
			adj[domain.AxisSpeakingSpeed] = domain.AdjustDecrease
		}
		if s.Engagement < t.TopicDepthDown {
			adj[domain.AxisTopicDepth] = domain.AdjustDecrease
		}
	}
	return adj
}
