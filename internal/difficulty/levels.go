package difficulty

import "github.com/felixgeelhaar/parley/internal/domain"

// Complexity bounds for a valid catalog.
const (
	MinComplexity = 1
	MaxComplexity = 10
)

const (
	basic        = domain.AxisBasic
	intermediate = domain.AxisIntermediate
	advanced     = domain.AxisAdvanced
	expert       = domain.AxisExpert
)

// DefaultLevels returns the built-in ten-level table, ordered by complexity.
func DefaultLevels() []domain.DifficultyLevel {
	return []domain.DifficultyLevel{
		{
			ID: "a1-starter", Name: "Starter", Complexity: 1,
			Vocabulary: basic, Grammar: basic, TopicDepth: basic, SpeakingSpeed: basic, CulturalDensity: basic,
			Description: "Greetings, numbers and short present-tense sentences at a slow pace.",
		},
		{
			ID: "a1-explorer", Name: "Explorer", Complexity: 2,
			Vocabulary: intermediate, Grammar: basic, TopicDepth: basic, SpeakingSpeed: basic, CulturalDensity: basic,
			Description: "Everyday objects and routines with a wider word bank.",
		},
		{
			ID: "a2-elementary", Name: "Elementary", Complexity: 3,
			Vocabulary: intermediate, Grammar: basic, TopicDepth: intermediate, SpeakingSpeed: basic, CulturalDensity: basic,
			Description: "Simple stories about the past and plans for the weekend.",
		},
		{
			ID: "a2-conversational", Name: "Conversational", Complexity: 4,
			Vocabulary: intermediate, Grammar: intermediate, TopicDepth: intermediate, SpeakingSpeed: intermediate, CulturalDensity: basic,
			Description: "Back-and-forth small talk with compound sentences.",
		},
		{
			ID: "b1-intermediate", Name: "Intermediate", Complexity: 5,
			Vocabulary: intermediate, Grammar: intermediate, TopicDepth: intermediate, SpeakingSpeed: intermediate, CulturalDensity: intermediate,
			Description: "Opinions, travel situations and first cultural references.",
		},
		{
			ID: "b1-confident", Name: "Confident", Complexity: 6,
			Vocabulary: advanced, Grammar: intermediate, TopicDepth: advanced, SpeakingSpeed: intermediate, CulturalDensity: intermediate,
			Description: "Longer explanations and topic changes without scaffolding.",
		},
		{
			ID: "b2-upper", Name: "Upper Intermediate", Complexity: 7,
			Vocabulary: advanced, Grammar: advanced, TopicDepth: advanced, SpeakingSpeed: advanced, CulturalDensity: intermediate,
			Description: "Hypotheticals, subordinate clauses and near-natural pace.",
		},
		{
			ID: "b2-fluent", Name: "Fluent", Complexity: 8,
			Vocabulary: advanced, Grammar: advanced, TopicDepth: advanced, SpeakingSpeed: advanced, CulturalDensity: advanced,
			Description: "Debates on current events with idioms and regional expressions.",
		},
		{
			ID: "c1-advanced", Name: "Advanced", Complexity: 9,
			Vocabulary: expert, Grammar: advanced, TopicDepth: expert, SpeakingSpeed: expert, CulturalDensity: advanced,
			Description: "Abstract topics, humor and fast native delivery.",
		},
		{
			ID: "c2-mastery", Name: "Mastery", Complexity: 10,
			Vocabulary: expert, Grammar: expert, TopicDepth: expert, SpeakingSpeed: expert, CulturalDensity: expert,
			Description: "Unrestricted native conversation, including wordplay and dialect.",
		},
	}
}
