package domain

import (
	"fmt"
	"strings"
)

// Persona is the conversation partner a learner talks to. The set is closed;
// every value has exactly one entry in personaTable.
type Persona int

const (
	PersonaMaya Persona = iota
	PersonaAlex
	PersonaLuna

	personaCount
)

// PersonaRole describes what kind of partner a persona plays.
type PersonaRole string

const (
	RoleTeacher       PersonaRole = "teacher"
	RoleCasual        PersonaRole = "casual"
	RoleCulturalGuide PersonaRole = "cultural_guide"
)

// PersonaSpec holds the fixed traits of a persona.
type PersonaSpec struct {
	Key           string      `json:"key"`
	Name          string      `json:"name"`
	Role          PersonaRole `json:"role"`
	MinComplexity int         `json:"min_complexity"`
	MaxComplexity int         `json:"max_complexity"`
	Style         string      `json:"style"`
}

var personaTable = [...]PersonaSpec{
	PersonaMaya: {
		Key:           "maya",
		Name:          "Maya",
		Role:          RoleTeacher,
		MinComplexity: 1,
		MaxComplexity: 10,
		Style:         "patient teacher who corrects gently and explains grammar when asked",
	},
	PersonaAlex: {
		Key:           "alex",
		Name:          "Alex",
		Role:          RoleCasual,
		MinComplexity: 1,
		MaxComplexity: 6,
		Style:         "relaxed friend who keeps things light and everyday",
	},
	PersonaLuna: {
		Key:           "luna",
		Name:          "Luna",
		Role:          RoleCulturalGuide,
		MinComplexity: 4,
		MaxComplexity: 10,
		Style:         "local guide who weaves customs, history and idioms into the talk",
	},
}

// Fails to compile when a persona is added without a table entry.
var _ = [1]struct{}{}[len(personaTable)-int(personaCount)]

// AllPersonas returns every persona in declaration order.
func AllPersonas() []Persona {
	out := make([]Persona, 0, personaCount)
	for p := Persona(0); p < personaCount; p++ {
		out = append(out, p)
	}
	return out
}

// ParsePersona resolves a persona key such as "luna".
func ParsePersona(s string) (Persona, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p := Persona(0); p < personaCount; p++ {
		if personaTable[p].Key == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

// Valid reports whether p is a defined persona.
func (p Persona) Valid() bool {
	return p >= 0 && p < personaCount
}

// Spec returns the persona's traits. Invalid values fall back to Maya.
func (p Persona) Spec() PersonaSpec {
	if !p.Valid() {
		return personaTable[PersonaMaya]
	}
	return personaTable[p]
}

func (p Persona) String() string {
	return p.Spec().Key
}

// Allows reports whether the persona offers a level of the given complexity.
func (p Persona) Allows(complexity int) bool {
	spec := p.Spec()
	return complexity >= spec.MinComplexity && complexity <= spec.MaxComplexity
}

// MarshalText encodes the persona by key.
func (p Persona) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPersona, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a persona key.
func (p *Persona) UnmarshalText(text []byte) error {
	parsed, err := ParsePersona(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
