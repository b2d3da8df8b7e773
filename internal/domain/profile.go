package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChallengePreference biases recommendations toward easier or harder levels.
type ChallengePreference string

const (
	PreferComfortable ChallengePreference = "comfortable"
	PreferChallenging ChallengePreference = "challenging"
	PreferIntensive   ChallengePreference = "intensive"
)

// Valid reports whether the preference is defined.
func (c ChallengePreference) Valid() bool {
	switch c {
	case PreferComfortable, PreferChallenging, PreferIntensive:
		return true
	}
	return false
}

// ParseChallengePreference validates a preference name.
func ParseChallengePreference(s string) (ChallengePreference, error) {
	c := ChallengePreference(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, s)
	}
	return c, nil
}

// Skill areas tracked as learner strengths or weaknesses.
const (
	SkillVocabulary        = "vocabulary"
	SkillGrammar           = "grammar"
	SkillPronunciation     = "pronunciation"
	SkillCulturalKnowledge = "cultural_knowledge"
)

// SkillSet is a set of skill-area tags.
type SkillSet map[string]struct{}

// NewSkillSet builds a set from tags, ignoring blanks.
func NewSkillSet(tags ...string) SkillSet {
	s := make(SkillSet, len(tags))
	for _, tag := range tags {
		s.Add(tag)
	}
	return s
}

// Add inserts a normalized tag.
func (s SkillSet) Add(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return
	}
	s[tag] = struct{}{}
}

// Has reports membership. A nil set has no members.
func (s SkillSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Slice returns the tags sorted.
func (s SkillSet) Slice() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of tags.
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewSkillSet(tags...)
	return nil
}

// UserProfile is the learner state the engine reads.
type UserProfile struct {
	UserID             uuid.UUID           `json:"user_id"`
	CurrentLevelID     string              `json:"current_level_id"`
	Strengths          SkillSet            `json:"strengths"`
	Weaknesses         SkillSet            `json:"weaknesses"`
	PreferredChallenge ChallengePreference `json:"preferred_challenge"`
	AdaptiveAutoAdjust bool                `json:"adaptive_auto_adjust"`
	Persona            Persona             `json:"persona"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// NewUserProfile creates a profile at the given starting level with default preferences.
func NewUserProfile(userID uuid.UUID, startLevelID string) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		UserID:             userID,
		CurrentLevelID:     startLevelID,
		Strengths:          NewSkillSet(),
		Weaknesses:         NewSkillSet(),
		PreferredChallenge: PreferChallenging,
		AdaptiveAutoAdjust: true,
		Persona:            PersonaMaya,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ApplyLevel moves the learner to a new level.
func (p *UserProfile) ApplyLevel(levelID string) {
	p.CurrentLevelID = levelID
	p.UpdatedAt = time.Now().UTC()
}
