package sqlite

import "github.com/felixgeelhaar/parley/internal/adaptive"

var (
	_ adaptive.ProfileStore        = (*ProfileStore)(nil)
	_ adaptive.MetricsStore        = (*MetricsStore)(nil)
	_ adaptive.RecommendationStore = (*RecommendationStore)(nil)
)
