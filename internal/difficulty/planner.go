package difficulty

import (
	"github.com/felixgeelhaar/parley/internal/domain"
)

// Time estimates for reaching a target level.
const (
	EstimateOngoing  = "ongoing"
	EstimateOneStep  = "2-4 weeks"
	EstimateTwoSteps = "1-2 months"
	EstimateLongHaul = "2-3 months"
	defaultFocusArea = "conversation practice"
)

// focusAreas maps each tracked skill to the practice suggested when it is
// not yet a strength. Order is the order focus areas are reported in.
var focusAreas = []struct {
	skill string
	focus string
}{
	{domain.SkillVocabulary, "vocabulary expansion"},
	{domain.SkillGrammar, "grammar accuracy"},
	{domain.SkillPronunciation, "pronunciation practice"},
	{domain.SkillCulturalKnowledge, "cultural context"},
}

// Planner suggests what a learner should work toward next.
type Planner struct {
	catalog *Catalog
}

// NewPlanner creates a planner over catalog.
func NewPlanner(catalog *Catalog) *Planner {
	return &Planner{catalog: catalog}
}

// SuggestProgression proposes the level one step above currentLevelID.
// Unknown IDs are treated as the first level.
func (p *Planner) SuggestProgression(currentLevelID string, strengths domain.SkillSet) domain.ProgressionPlan {
	current, _ := p.catalog.complexityOf(currentLevelID)
	return p.plan(currentLevelID, current, current+1, strengths)
}

// PlanJump proposes a move from currentLevelID straight to targetLevelID,
// which may be several levels away. A target at or below the current level
// yields an ongoing plan that stays put.
func (p *Planner) PlanJump(currentLevelID, targetLevelID string, strengths domain.SkillSet) (domain.ProgressionPlan, error) {
	target, err := p.catalog.GetLevel(targetLevelID)
	if err != nil {
		return domain.ProgressionPlan{}, err
	}
	current, _ := p.catalog.complexityOf(currentLevelID)
	return p.plan(currentLevelID, current, target.Complexity, strengths), nil
}

func (p *Planner) plan(currentLevelID string, current, target int, strengths domain.SkillSet) domain.ProgressionPlan {
	plan := domain.ProgressionPlan{
		CurrentLevelID: currentLevelID,
		NextLevelID:    currentLevelID,
		FocusAreas:     FocusAreas(strengths),
		TimeEstimate:   EstimateOngoing,
	}

	if known, ok := p.levelID(current); ok {
		plan.CurrentLevelID = known
		plan.NextLevelID = known
	}
	if target <= current || target > MaxComplexity {
		return plan
	}

	if next, ok := p.levelID(target); ok {
		plan.NextLevelID = next
		plan.TimeEstimate = EstimateTime(target - current)
	}
	return plan
}

func (p *Planner) levelID(complexity int) (string, bool) {
	i, ok := p.catalog.byComplexity[complexity]
	if !ok {
		return "", false
	}
	return p.catalog.levels[i].ID, true
}

// FocusAreas lists practice suggestions for every tracked skill missing from strengths.
func FocusAreas(strengths domain.SkillSet) []string {
	var out []string
	for _, fa := range focusAreas {
		if !strengths.Has(fa.skill) {
			out = append(out, fa.focus)
		}
	}
	if len(out) == 0 {
		return []string{defaultFocusArea}
	}
	return out
}

// EstimateTime converts a complexity gap into a rough duration.
func EstimateTime(gap int) string {
	switch {
	case gap <= 0:
		return EstimateOngoing
	case gap == 1:
		return EstimateOneStep
	case gap == 2:
		return EstimateTwoSteps
	default:
		return EstimateLongHaul
	}
}
