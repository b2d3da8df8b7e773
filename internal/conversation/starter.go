package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/parley/internal/difficulty"
	"github.com/felixgeelhaar/parley/internal/domain"
)

// Opening is the configuration and first partner line of a new conversation.
type Opening struct {
	Constraints Constraints `json:"constraints"`
	Reply       *Reply      `json:"reply,omitempty"`
}

// Starter prepares the next conversation for a learner.
type Starter struct {
	catalog   *difficulty.Catalog
	generator Generator
}

// NewStarter creates a starter. gen may be nil, in which case Start only
// returns constraints.
func NewStarter(catalog *difficulty.Catalog, gen Generator) *Starter {
	return &Starter{catalog: catalog, generator: gen}
}

// Start resolves the level the profile's persona can offer and asks the
// generator for an opening line.
func (s *Starter) Start(ctx context.Context, profile *domain.UserProfile) (*Opening, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: profile is required", domain.ErrInvalidInput)
	}

	level, err := s.levelFor(profile)
	if err != nil {
		return nil, err
	}

	opening := &Opening{Constraints: Configure(level, profile.Persona)}
	if s.generator == nil {
		return opening, nil
	}

	reply, err := s.generator.Generate(ctx, &Request{
		UserID:      profile.UserID,
		Constraints: opening.Constraints,
	})
	if err != nil {
		return nil, fmt.Errorf("generate opening: %w", err)
	}
	opening.Reply = reply
	return opening, nil
}

// levelFor returns the profile's level moved into the persona's range.
// An unknown level counts as the easiest one.
func (s *Starter) levelFor(profile *domain.UserProfile) (domain.DifficultyLevel, error) {
	complexity := difficulty.MinComplexity
	level, err := s.catalog.GetLevel(profile.CurrentLevelID)
	switch {
	case err == nil:
		complexity = level.Complexity
	case !errors.Is(err, domain.ErrLevelNotFound):
		return domain.DifficultyLevel{}, err
	}

	spec := profile.Persona.Spec()
	complexity = min(max(complexity, spec.MinComplexity), spec.MaxComplexity)
	return s.catalog.LevelForComplexity(complexity)
}
