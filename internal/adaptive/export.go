package adaptive

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// exportLimit caps the rows pulled for a learner export.
const exportLimit = 5000

// LearnerExport is everything recorded about one learner.
type LearnerExport struct {
	Profile         *domain.UserProfile           `json:"profile"`
	Sessions        []domain.ConversationMetrics  `json:"sessions"`
	Recommendations []domain.RecommendationRecord `json:"recommendations"`
}

// Export gathers a learner's profile, sessions and recommendation history.
func (s *Service) Export(ctx context.Context, userID uuid.UUID) (*LearnerExport, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.metrics.Recent(ctx, userID, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	recs, err := s.recs.List(ctx, userID, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	return &LearnerExport{Profile: p, Sessions: sessions, Recommendations: recs}, nil
}
