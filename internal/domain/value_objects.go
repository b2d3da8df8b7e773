package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ParseUserID parses a user identifier, rejecting the nil UUID.
func ParseUserID(s string) (uuid.UUID, error) {
	return parseID("user", s)
}

// ParseRecommendationID parses a recommendation identifier.
func ParseRecommendationID(s string) (uuid.UUID, error) {
	return parseID("recommendation", s)
}

func parseID(kind, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s ID %q", ErrInvalidID, kind, s)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s ID must not be nil", ErrInvalidID, kind)
	}
	return id, nil
}
