package difficulty

import "github.com/felixgeelhaar/parley/internal/domain"

// FeedbackTally counts the feedback values in a window.
type FeedbackTally struct {
	TooEasy   int `json:"too_easy"`
	JustRight int `json:"just_right"`
	TooHard   int `json:"too_hard"`
}

// Total is the number of sessions that carried feedback.
func (f FeedbackTally) Total() int {
	return f.TooEasy + f.JustRight + f.TooHard
}

// EasyRatio is TooEasy/Total, or 0 when no feedback was given.
func (f FeedbackTally) EasyRatio() float64 {
	if f.Total() == 0 {
		return 0
	}
	return float64(f.TooEasy) / float64(f.Total())
}

// HardRatio is TooHard/Total, or 0 when no feedback was given.
func (f FeedbackTally) HardRatio() float64 {
	if f.Total() == 0 {
		return 0
	}
	return float64(f.TooHard) / float64(f.Total())
}

// Signals are the averaged values of a metrics window. When HasData is false
// every other field is meaningless and no change should be recommended.
type Signals struct {
	HasData         bool          `json:"has_data"`
	SessionCount    int           `json:"session_count"`
	Comprehension   float64       `json:"comprehension"`
	ResponseTime    float64       `json:"response_time"`
	GrammarAccuracy float64       `json:"grammar_accuracy"`
	Engagement      float64       `json:"engagement"`
	VocabularyUsage float64       `json:"vocabulary_usage"`
	Feedback        FeedbackTally `json:"feedback"`
}

// Aggregate computes plain arithmetic means over recent. The order of the
// window does not matter.
func Aggregate(recent []domain.ConversationMetrics) Signals {
	if len(recent) == 0 {
		return Signals{}
	}

	var s Signals
	for _, m := range recent {
		s.Comprehension += m.ComprehensionScore
		s.ResponseTime += m.ResponseTimeSeconds
		s.GrammarAccuracy += m.GrammarAccuracy
		s.Engagement += m.EngagementLevel
		s.VocabularyUsage += float64(m.VocabularyUsageCount)

		switch m.UserFeedback {
		case domain.FeedbackTooEasy:
			s.Feedback.TooEasy++
		case domain.FeedbackJustRight:
			s.Feedback.JustRight++
		case domain.FeedbackTooHard:
			s.Feedback.TooHard++
		}
	}

	n := float64(len(recent))
	s.HasData = true
	s.SessionCount = len(recent)
	s.Comprehension /= n
	s.ResponseTime /= n
	s.GrammarAccuracy /= n
	s.Engagement /= n
	s.VocabularyUsage /= n
	return s
}
