package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Feedback is the learner's self-report after a session. The zero value means
// no feedback was given.
type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackTooEasy   Feedback = "too_easy"
	FeedbackJustRight Feedback = "just_right"
	FeedbackTooHard   Feedback = "too_hard"
)

// Valid reports whether f is a known value or absent.
func (f Feedback) Valid() bool {
	switch f {
	case FeedbackNone, FeedbackTooEasy, FeedbackJustRight, FeedbackTooHard:
		return true
	}
	return false
}

// ParseFeedback validates a feedback value; the empty string is accepted.
func ParseFeedback(s string) (Feedback, error) {
	f := Feedback(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeedback, s)
	}
	return f, nil
}

// Score bounds for the percentage metrics.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ConversationMetrics is the immutable record of one completed session.
type ConversationMetrics struct {
	ID                   uuid.UUID `json:"id"`
	SessionID            string    `json:"session_id"`
	UserID               uuid.UUID `json:"user_id"`
	DifficultyLevelID    string    `json:"difficulty_level_id"`
	ComprehensionScore   float64   `json:"comprehension_score"`
	ResponseTimeSeconds  float64   `json:"response_time_seconds"`
	GrammarAccuracy      float64   `json:"grammar_accuracy"`
	EngagementLevel      float64   `json:"engagement_level"`
	VocabularyUsageCount int       `json:"vocabulary_usage_count"`
	UserFeedback         Feedback  `json:"user_feedback,omitempty"`
	RecordedAt           time.Time `json:"recorded_at"`
}

// Validate reports every out-of-range value in one error wrapping ErrInvalidMetrics.
func (m ConversationMetrics) Validate() error {
	var errs []error
	checkScore := func(name string, v float64) {
		if v < MinScore || v > MaxScore {
			errs = append(errs, fmt.Errorf("%s %.2f outside [0,100]", name, v))
		}
	}
	checkScore("comprehension_score", m.ComprehensionScore)
	checkScore("grammar_accuracy", m.GrammarAccuracy)
	checkScore("engagement_level", m.EngagementLevel)
	if m.ResponseTimeSeconds < 0 {
		errs = append(errs, fmt.Errorf("response_time_seconds %.2f is negative", m.ResponseTimeSeconds))
	}
	if m.VocabularyUsageCount < 0 {
		errs = append(errs, fmt.Errorf("vocabulary_usage_count %d is negative", m.VocabularyUsageCount))
	}
	if !m.UserFeedback.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownFeedback, m.UserFeedback))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidMetrics, errors.Join(errs...))
}

// Clamp returns a copy with every value forced into range. Unknown feedback is dropped.
func (m ConversationMetrics) Clamp() ConversationMetrics {
	m.ComprehensionScore = clampScore(m.ComprehensionScore)
	m.GrammarAccuracy = clampScore(m.GrammarAccuracy)
	m.EngagementLevel = clampScore(m.EngagementLevel)
	m.ResponseTimeSeconds = max(m.ResponseTimeSeconds, 0)
	m.VocabularyUsageCount = max(m.VocabularyUsageCount, 0)
	if !m.UserFeedback.Valid() {
		m.UserFeedback = FeedbackNone
	}
	return m
}

func clampScore(v float64) float64 {
	return min(max(v, MinScore), MaxScore)
}
