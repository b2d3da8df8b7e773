package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdjustmentRecommendation is the engine's output for one request.
// Adjustments only carries axes that have a qualifying signal.
type AdjustmentRecommendation struct {
	NewDifficultyID      string              `json:"new_difficulty_id"`
	PreviousDifficultyID string              `json:"previous_difficulty_id"`
	Direction            Direction           `json:"direction"`
	Reason               string              `json:"reason"`
	Confidence           int                 `json:"confidence"`
	Adjustments          map[Axis]Adjustment `json:"adjustments"`
}

// Changed reports whether the recommendation moves the learner.
func (r AdjustmentRecommendation) Changed() bool {
	return r.NewDifficultyID != r.PreviousDifficultyID
}

// RecommendationRecord is a persisted recommendation with its outcome.
type RecommendationRecord struct {
	ID             uuid.UUID                `json:"id"`
	UserID         uuid.UUID                `json:"user_id"`
	Recommendation AdjustmentRecommendation `json:"recommendation"`
	SessionCount   int                      `json:"session_count"`
	Applied        bool                     `json:"applied"`
	CreatedAt      time.Time                `json:"created_at"`
	AppliedAt      *time.Time               `json:"applied_at,omitempty"`
}

// NewRecommendationRecord wraps a recommendation for persistence.
func NewRecommendationRecord(userID uuid.UUID, rec AdjustmentRecommendation, sessions int) *RecommendationRecord {
	return &RecommendationRecord{
		ID:             uuid.New(),
		UserID:         userID,
		Recommendation: rec,
		SessionCount:   sessions,
		CreatedAt:      time.Now().UTC(),
	}
}

// MarkApplied records that the learner's level was moved.
func (r *RecommendationRecord) MarkApplied() {
	now := time.Now().UTC()
	r.Applied = true
	r.AppliedAt = &now
}

// ProgressionPlan suggests the next level and what to practice to reach it.
type ProgressionPlan struct {
	CurrentLevelID string   `json:"current_level_id"`
	NextLevelID    string   `json:"next_level_id"`
	FocusAreas     []string `json:"focus_areas"`
	TimeEstimate   string   `json:"time_estimate"`
}
