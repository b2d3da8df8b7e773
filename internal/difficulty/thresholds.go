package difficulty

import (
	"errors"
	"fmt"
)

// Thresholds are the cut-offs the recommendation rules compare against.
// Scores are percentages, response times are seconds, ratios are 0..1.
type Thresholds struct {
	// Strong performance: all four must hold to step up.
	StrongComprehension float64 `yaml:"strong_comprehension" json:"strong_comprehension"`
	StrongGrammar       float64 `yaml:"strong_grammar" json:"strong_grammar"`
	StrongEngagement    float64 `yaml:"strong_engagement" json:"strong_engagement"`
	StrongResponseTime  float64 `yaml:"strong_response_time" json:"strong_response_time"`

	// Weak performance: either one steps down.
	WeakComprehension float64 `yaml:"weak_comprehension" json:"weak_comprehension"`
	WeakGrammar       float64 `yaml:"weak_grammar" json:"weak_grammar"`

	// Share of sessions with the same feedback needed to override performance.
	FeedbackRatio float64 `yaml:"feedback_ratio" json:"feedback_ratio"`

	// Per-axis signals.
	VocabularyUp      float64 `yaml:"vocabulary_up" json:"vocabulary_up"`
	VocabularyDown    float64 `yaml:"vocabulary_down" json:"vocabulary_down"`
	GrammarUp         float64 `yaml:"grammar_up" json:"grammar_up"`
	GrammarDown       float64 `yaml:"grammar_down" json:"grammar_down"`
	SpeedUpResponse   float64 `yaml:"speed_up_response" json:"speed_up_response"`
	SpeedDownResponse float64 `yaml:"speed_down_response" json:"speed_down_response"`
	TopicDepthUp      float64 `yaml:"topic_depth_up" json:"topic_depth_up"`
	TopicDepthDown    float64 `yaml:"topic_depth_down" json:"topic_depth_down"`
}

// DefaultThresholds returns the standard rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongComprehension: 85,
		StrongGrammar:       80,
		StrongEngagement:    70,
		StrongResponseTime:  3,
		WeakComprehension:   60,
		WeakGrammar:         50,
		FeedbackRatio:       0.6,
		VocabularyUp:        90,
		VocabularyDown:      70,
		GrammarUp:           85,
		GrammarDown:         60,
		SpeedUpResponse:     2,
		SpeedDownResponse:   8,
		TopicDepthUp:        85,
		TopicDepthDown:      50,
	}
}

// Validate checks that every threshold is in range and that each up/down
// pair leaves a band between them.
func (t Thresholds) Validate() error {
	var errs []error
	percent := func(name string, v float64) {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s %.2f outside [0,100]", name, v))
		}
	}
	percent("strong_comprehension", t.StrongComprehension)
	percent("strong_grammar", t.StrongGrammar)
	percent("strong_engagement", t.StrongEngagement)
	percent("weak_comprehension", t.WeakComprehension)
	percent("weak_grammar", t.WeakGrammar)
	percent("vocabulary_up", t.VocabularyUp)
	percent("vocabulary_down", t.VocabularyDown)
	percent("grammar_up", t.GrammarUp)
	percent("grammar_down", t.GrammarDown)
	percent("topic_depth_up", t.TopicDepthUp)
	percent("topic_depth_down", t.TopicDepthDown)

	if t.StrongResponseTime <= 0 {
		errs = append(errs, fmt.Errorf("strong_response_time must be > 0, got %.2f", t.StrongResponseTime))
	}
	if t.FeedbackRatio <= 0 || t.FeedbackRatio > 1 {
		errs = append(errs, fmt.Errorf("feedback_ratio must be in (0,1], got %.2f", t.FeedbackRatio))
	}
	if t.WeakComprehension >= t.StrongComprehension {
		errs = append(errs, errors.New("weak_comprehension must be below strong_comprehension"))
	}
	if t.VocabularyDown >= t.VocabularyUp {
		errs = append(errs, errors.New("vocabulary_down must be below vocabulary_up"))
	}
	if t.GrammarDown >= t.GrammarUp {
		errs = append(errs, errors.New("grammar_down must be below grammar_up"))
	}
	if t.SpeedUpResponse >= t.SpeedDownResponse {
		errs = append(errs, errors.New("speed_up_response must be below speed_down_response"))
	}
	if t.TopicDepthDown >= t.TopicDepthUp {
		errs = append(errs, errors.New("topic_depth_down must be below topic_depth_up"))
	}
	return errors.Join(errs...)
}
