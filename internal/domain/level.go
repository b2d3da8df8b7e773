package domain

import (
	"fmt"
	"strings"
)

// AxisLevel is an ordinal setting on one difficulty axis.
// Values compare with the usual integer operators: basic < intermediate < advanced < expert.
type AxisLevel int

const (
	AxisBasic AxisLevel = iota + 1
	AxisIntermediate
	AxisAdvanced
	AxisExpert
)

var axisLevelNames = map[AxisLevel]string{
	AxisBasic:        "basic",
	AxisIntermediate: "intermediate",
	AxisAdvanced:     "advanced",
	AxisExpert:       "expert",
}

// Valid reports whether l is one of the four defined settings.
func (l AxisLevel) Valid() bool {
	_, ok := axisLevelNames[l]
	return ok
}

func (l AxisLevel) String() string {
	if name, ok := axisLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("AxisLevel(%d)", int(l))
}

// MarshalText encodes the level by name.
func (l AxisLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid axis level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *AxisLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseAxisLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseAxisLevel converts a name such as "advanced" to its AxisLevel.
func ParseAxisLevel(s string) (AxisLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range axisLevelNames {
		if name == s {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: axis level %q", ErrInvalidInput, s)
}

// Axis names one independently adjustable difficulty dimension.
type Axis string

const (
	AxisVocabulary      Axis = "vocabulary"
	AxisGrammar         Axis = "grammar"
	AxisTopicDepth      Axis = "topic_depth"
	AxisSpeakingSpeed   Axis = "speaking_speed"
	AxisCulturalDensity Axis = "cultural_density"
)

// AllAxes returns every axis in display order.
func AllAxes() []Axis {
	return []Axis{AxisVocabulary, AxisGrammar, AxisTopicDepth, AxisSpeakingSpeed, AxisCulturalDensity}
}

// Adjustment is the recommended change on a single axis.
type Adjustment string

const (
	AdjustIncrease Adjustment = "increase"
	AdjustDecrease Adjustment = "decrease"
	AdjustMaintain Adjustment = "maintain"
)

// Direction is the overall step applied to a learner's level.
type Direction int

const (
	DirectionDown     Direction = -1
	DirectionMaintain Direction = 0
	DirectionUp       Direction = 1
)

func (d Direction) String() string {
	switch {
	case d > 0:
		return "increase"
	case d < 0:
		return "decrease"
	default:
		return "maintain"
	}
}

// Adjustment converts the direction to its per-axis equivalent.
func (d Direction) Adjustment() Adjustment {
	return Adjustment(d.String())
}

// DifficultyLevel is an immutable catalog entry. Complexity is the sole
// ordering key and runs from 1 (easiest) to 10.
type DifficultyLevel struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Complexity      int       `json:"complexity"`
	Vocabulary      AxisLevel `json:"vocabulary"`
	Grammar         AxisLevel `json:"grammar"`
	TopicDepth      AxisLevel `json:"topic_depth"`
	SpeakingSpeed   AxisLevel `json:"speaking_speed"`
	CulturalDensity AxisLevel `json:"cultural_density"`
	Description     string    `json:"description"`
}

// Setting returns the level's setting on the given axis.
func (l DifficultyLevel) Setting(axis Axis) (AxisLevel, bool) {
	switch axis {
	case AxisVocabulary:
		return l.Vocabulary, true
	case AxisGrammar:
		return l.Grammar, true
	case AxisTopicDepth:
		return l.TopicDepth, true
	case AxisSpeakingSpeed:
		return l.SpeakingSpeed, true
	case AxisCulturalDensity:
		return l.CulturalDensity, true
	}
	return 0, false
}
