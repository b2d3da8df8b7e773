package adaptive

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/difficulty"
	"github.com/felixgeelhaar/parley/internal/domain"
)

// Trend labels comparing the latest window against the one before it.
const (
	TrendNew       = "new"
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// trendMargin is the comprehension change, in points, that counts as movement.
const trendMargin = 5.0

// overviewSessions bounds how much history an overview reads.
const overviewSessions = MaxListLimit

// Overview summarizes a learner's recorded sessions.
type Overview struct {
	UserID         uuid.UUID          `json:"user_id"`
	CurrentLevelID string             `json:"current_level_id"`
	TotalSessions  int                `json:"total_sessions"`
	Current        difficulty.Signals `json:"current"`
	Previous       difficulty.Signals `json:"previous"`
	Trend          string             `json:"trend"`
	// Levels covers at most the newest overviewSessions sessions.
	Levels []LevelStat `json:"levels"`
}

// LevelStat summarizes the sessions played at one level.
type LevelStat struct {
	LevelID          string  `json:"level_id"`
	Complexity       int     `json:"complexity"`
	Sessions         int     `json:"sessions"`
	AvgComprehension float64 `json:"avg_comprehension"`
}

// Overview compares the learner's latest window with the previous one and
// breaks sessions down by level.
func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.metrics.Recent(ctx, userID, overviewSessions)
	if err != nil {
		return nil, err
	}
	total, err := s.metrics.CountSince(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	window := s.cfg.WindowSize
	current := sessions[:min(window, len(sessions))]
	var previous []domain.ConversationMetrics
	if len(sessions) > window {
		previous = sessions[window:min(2*window, len(sessions))]
	}

	o := &Overview{
		UserID:         userID,
		CurrentLevelID: p.CurrentLevelID,
		TotalSessions:  total,
		Current:        difficulty.Aggregate(current),
		Previous:       difficulty.Aggregate(previous),
		Levels:         s.levelStats(sessions),
	}
	o.Trend = trend(o.Current, o.Previous)
	return o, nil
}

func trend(current, previous difficulty.Signals) string {
	if !current.HasData || !previous.HasData {
		return TrendNew
	}
	delta := current.Comprehension - previous.Comprehension
	switch {
	case delta > trendMargin:
		return TrendImproving
	case delta < -trendMargin:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func (s *Service) levelStats(sessions []domain.ConversationMetrics) []LevelStat {
	byLevel := make(map[string]*LevelStat)
	for _, m := range sessions {
		st, ok := byLevel[m.DifficultyLevelID]
		if !ok {
			st = &LevelStat{LevelID: m.DifficultyLevelID}
			if level, err := s.catalog.GetLevel(m.DifficultyLevelID); err == nil {
				st.Complexity = level.Complexity
			}
			byLevel[m.DifficultyLevelID] = st
		}
		st.Sessions++
		st.AvgComprehension += m.ComprehensionScore
	}

	out := make([]LevelStat, 0, len(byLevel))
	for _, st := range byLevel {
		st.AvgComprehension /= float64(st.Sessions)
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b LevelStat) int {
		return cmp.Or(cmp.Compare(a.Complexity, b.Complexity), strings.Compare(a.LevelID, b.LevelID))
	})
	return out
}
