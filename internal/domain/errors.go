package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrLevelNotFound  = errors.New("difficulty level not found")
	ErrInvalidCatalog = errors.New("invalid difficulty catalog")
)

// Profile errors
var (
	ErrProfileNotFound      = errors.New("user profile not found")
	ErrProfileAlreadyExists = errors.New("user profile already exists")
	ErrUnknownPersona       = errors.New("unknown persona")
	ErrUnknownPreference    = errors.New("unknown challenge preference")
)

// Metrics errors
var (
	ErrInvalidMetrics   = errors.New("invalid conversation metrics")
	ErrDuplicateSession = errors.New("session metrics already recorded")
	ErrUnknownFeedback  = errors.New("unknown feedback value")
)

// Recommendation errors
var (
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrRecommendationApplied  = errors.New("recommendation already applied")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidID    = errors.New("invalid identifier format")
)
