package difficulty

import (
	"fmt"
	"slices"
	"strings"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// Catalog is the validated, read-only set of difficulty levels. It is safe
// for concurrent use once constructed.
type Catalog struct {
	levels       []domain.DifficultyLevel // ordered by complexity
	byID         map[string]int
	byComplexity map[int]int
}

// NewCatalog validates levels and builds a catalog. Every problem found is
// reported in the returned error.
func NewCatalog(levels []domain.DifficultyLevel) (*Catalog, error) {
	if err := validateLevels(levels); err != nil {
		return nil, err
	}

	sorted := slices.Clone(levels)
	slices.SortFunc(sorted, func(a, b domain.DifficultyLevel) int {
		return a.Complexity - b.Complexity
	})

	c := &Catalog{
		levels:       sorted,
		byID:         make(map[string]int, len(sorted)),
		byComplexity: make(map[int]int, len(sorted)),
	}
	for i, l := range sorted {
		c.byID[l.ID] = i
		c.byComplexity[l.Complexity] = i
	}
	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on an invalid table.
func MustNewCatalog(levels []domain.DifficultyLevel) *Catalog {
	c, err := NewCatalog(levels)
	if err != nil {
		panic(err)
	}
	return c
}

// NewDefaultCatalog builds the catalog from DefaultLevels.
func NewDefaultCatalog() (*Catalog, error) {
	return NewCatalog(DefaultLevels())
}

// GetLevel returns the level with the given ID.
func (c *Catalog) GetLevel(id string) (domain.DifficultyLevel, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.DifficultyLevel{}, fmt.Errorf("%w: %q", domain.ErrLevelNotFound, id)
	}
	return c.levels[i], nil
}

// AllLevels returns every level ordered by complexity.
func (c *Catalog) AllLevels() []domain.DifficultyLevel {
	return slices.Clone(c.levels)
}

// LevelForComplexity returns the level at complexity n, clamped to the valid range.
func (c *Catalog) LevelForComplexity(n int) (domain.DifficultyLevel, error) {
	n = clampComplexity(n)
	i, ok := c.byComplexity[n]
	if !ok {
		return domain.DifficultyLevel{}, fmt.Errorf("%w: complexity %d", domain.ErrLevelNotFound, n)
	}
	return c.levels[i], nil
}

// ForPersona returns the levels the persona offers, ordered by complexity.
func (c *Catalog) ForPersona(p domain.Persona) []domain.DifficultyLevel {
	out := make([]domain.DifficultyLevel, 0, len(c.levels))
	for _, l := range c.levels {
		if p.Allows(l.Complexity) {
			out = append(out, l)
		}
	}
	return out
}

// Len returns the number of levels.
func (c *Catalog) Len() int {
	return len(c.levels)
}

// complexityOf resolves a level ID to its complexity. Unknown IDs resolve
// to MinComplexity.
func (c *Catalog) complexityOf(id string) (int, bool) {
	i, ok := c.byID[id]
	if !ok {
		return MinComplexity, false
	}
	return c.levels[i].Complexity, true
}

func clampComplexity(n int) int {
	return min(max(n, MinComplexity), MaxComplexity)
}

func validateLevels(levels []domain.DifficultyLevel) error {
	var errs []string

	idSet := make(map[string]bool, len(levels))
	complexitySet := make(map[int]string, len(levels))

	for _, l := range levels {
		if l.ID == "" {
			errs = append(errs, fmt.Sprintf("level at complexity %d has empty ID", l.Complexity))
		} else if idSet[l.ID] {
			errs = append(errs, fmt.Sprintf("duplicate level ID: %q", l.ID))
		}
		idSet[l.ID] = true

		if l.Complexity < MinComplexity || l.Complexity > MaxComplexity {
			errs = append(errs, fmt.Sprintf("level %q complexity %d outside [%d,%d]", l.ID, l.Complexity, MinComplexity, MaxComplexity))
			continue
		}
		if other, dup := complexitySet[l.Complexity]; dup {
			errs = append(errs, fmt.Sprintf("levels %q and %q share complexity %d", other, l.ID, l.Complexity))
			continue
		}
		complexitySet[l.Complexity] = l.ID

		for _, axis := range domain.AllAxes() {
			if setting, _ := l.Setting(axis); !setting.Valid() {
				errs = append(errs, fmt.Sprintf("level %q has invalid %s setting %d", l.ID, axis, int(setting)))
			}
		}
	}

	// Check complexity is contiguous
	for n := MinComplexity; n <= MaxComplexity; n++ {
		if _, ok := complexitySet[n]; !ok {
			errs = append(errs, fmt.Sprintf("no level at complexity %d", n))
		}
	}

	// Check axis settings never get easier as complexity rises
	for n := MinComplexity + 1; n <= MaxComplexity; n++ {
		prevID, okPrev := complexitySet[n-1]
		curID, okCur := complexitySet[n]
		if !okPrev || !okCur {
			continue
		}
		prev := findLevel(levels, prevID)
		cur := findLevel(levels, curID)
		for _, axis := range domain.AllAxes() {
			a, _ := prev.Setting(axis)
			b, _ := cur.Setting(axis)
			if b < a {
				errs = append(errs, fmt.Sprintf("level %q lowers %s from %s to %s", cur.ID, axis, a, b))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  %s", domain.ErrInvalidCatalog, strings.Join(errs, "\n  "))
	}
	return nil
}

func findLevel(levels []domain.DifficultyLevel, id string) domain.DifficultyLevel {
	for _, l := range levels {
		if l.ID == id {
			return l
		}
	}
	return domain.DifficultyLevel{}
}
