package conversation

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// Constraints are the concrete limits a generator must respect for one level.
type Constraints struct {
	LevelID          string `json:"level_id"`
	LevelName        string `json:"level_name"`
	Persona          string `json:"persona"`
	MaxSentenceWords int    `json:"max_sentence_words"`
	SpeakingRateWPM  int    `json:"speaking_rate_wpm"`
	VocabularyBand   string `json:"vocabulary_band"`
	GrammarScope     string `json:"grammar_scope"`
	TopicScope       string `json:"topic_scope"`
	AllowIdioms      bool   `json:"allow_idioms"`
	CulturalNote     string `json:"cultural_note"`
	SystemPrompt     string `json:"system_prompt"`
}

// axisTable holds one value per AxisLevel, indexed from AxisBasic.
type axisTable[T any] [4]T

func (t axisTable[T]) at(l domain.AxisLevel) T {
	i := int(l) - int(domain.AxisBasic)
	i = max(0, min(i, len(t)-1))
	return t[i]
}

var (
	sentenceWords = axisTable[int]{8, 14, 22, 32}
	speakingWPM   = axisTable[int]{90, 120, 150, 175}
	vocabBands    = axisTable[string]{
		"the 500 most common words",
		"the 2,000 most common words",
		"the 5,000 most common words plus topic terms",
		"unrestricted, including rare and literary words",
	}
	grammarScopes = axisTable[string]{
		"present tense and simple connectors",
		"past and future tenses with common clauses",
		"conditionals, passive voice and subordinate clauses",
		"the full range, including subjunctive and stylistic inversion",
	}
	topicScopes = axisTable[string]{
		"concrete everyday topics",
		"familiar topics with simple opinions",
		"abstract topics and supported arguments",
		"specialist and nuanced topics",
	}
	culturalNotes = axisTable[string]{
		"avoid cultural references",
		"mention customs occasionally and explain them",
		"use customs and common idioms freely",
		"weave in history, regional expressions and wordplay",
	}
)

// Configure turns a level's axis settings into generation limits for persona.
func Configure(level domain.DifficultyLevel, persona domain.Persona) Constraints {
	spec := persona.Spec()
	c := Constraints{
		LevelID:          level.ID,
		LevelName:        level.Name,
		Persona:          spec.Key,
		MaxSentenceWords: sentenceWords.at(level.Grammar),
		SpeakingRateWPM:  speakingWPM.at(level.SpeakingSpeed),
		VocabularyBand:   vocabBands.at(level.Vocabulary),
		GrammarScope:     grammarScopes.at(level.Grammar),
		TopicScope:       topicScopes.at(level.TopicDepth),
		AllowIdioms:      level.CulturalDensity >= domain.AxisAdvanced,
		CulturalNote:     culturalNotes.at(level.CulturalDensity),
	}
	// A cultural guide always brings some culture, explained at low levels.
	if spec.Role == domain.RoleCulturalGuide && level.CulturalDensity < domain.AxisIntermediate {
		c.CulturalNote = culturalNotes.at(domain.AxisIntermediate)
	}
	c.SystemPrompt = renderPrompt(c, spec)
	return c
}

func renderPrompt(c Constraints, spec domain.PersonaSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.\n", spec.Name, spec.Style)
	fmt.Fprintf(&b, "The learner is at level %q (%s).\n", c.LevelName, c.LevelID)
	fmt.Fprintf(&b, "- Keep sentences under %d words.\n", c.MaxSentenceWords)
	fmt.Fprintf(&b, "- Speak at about %d words per minute.\n", c.SpeakingRateWPM)
	fmt.Fprintf(&b, "- Use vocabulary from %s.\n", c.VocabularyBand)
	fmt.Fprintf(&b, "- Grammar: %s.\n", c.GrammarScope)
	fmt.Fprintf(&b, "- Topics: %s.\n", c.TopicScope)
	fmt.Fprintf(&b, "- Culture: %s.\n", c.CulturalNote)
	if !c.AllowIdioms {
		b.WriteString("- Do not use idioms.\n")
	}
	return b.String()
}
