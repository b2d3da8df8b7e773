package repository

import "github.com/felixgeelhaar/parley/internal/adaptive"

var (
	_ adaptive.ProfileStore        = (*ProfileRepository)(nil)
	_ adaptive.MetricsStore        = (*MetricsRepository)(nil)
	_ adaptive.RecommendationStore = (*RecommendationRepository)(nil)
)
