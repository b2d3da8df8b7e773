// Package mcp exposes the adaptive difficulty engine as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/domain"
)

// Server wraps the MCP server with parley tools.
type Server struct {
	mcpServer *server.Server
	service   *adaptive.Service
}

// Config contains configuration for the MCP server.
type Config struct {
	Service *adaptive.Service
	Version string
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg Config) *Server {
	s := &Server{service: cfg.Service}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s.mcpServer = server.New(server.Info{
		Name:    "parley",
		Version: version,
	}, server.WithInstructions(`
Parley adapts conversation difficulty to a language learner.

Available tools:
- parley_levels: List difficulty levels, optionally for one persona
- parley_create_profile: Create a learner profile
- parley_record_session: Record metrics for a finished conversation
- parley_recommend: Recommend the next conversation's difficulty
- parley_progression: Suggest the next level and what to practice

Levels run from complexity 1 (a1-starter) to 10 (c2-mastery).
Personas: maya (1-10), alex (1-6), luna (4-10).
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("parley_levels").
		Description("List difficulty levels ordered by complexity.").
		Handler(s.handleLevels)

	s.mcpServer.Tool("parley_create_profile").
		Description("Create a learner profile at a starting level.").
		Handler(s.handleCreateProfile)

	s.mcpServer.Tool("parley_record_session").
		Description("Record the metrics of one completed conversation.").
		Handler(s.handleRecordSession)

	s.mcpServer.Tool("parley_recommend").
		Description("Recommend whether the next conversation should be harder, easier or the same.").
		Handler(s.handleRecommend)

	s.mcpServer.Tool("parley_progression").
		Description("Suggest the learner's next level, focus areas and a time estimate.").
		Handler(s.handleProgression)
}

type LevelsInput struct {
	Persona string `json:"persona,omitempty" jsonschema:"description=Only levels this persona offers,enum=maya,enum=alex,enum=luna"`
}

type LevelSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Complexity  int    `json:"complexity"`
	Description string `json:"description"`
}

type LevelsOutput struct {
	Levels []LevelSummary `json:"levels"`
}

type CreateProfileInput struct {
	StartLevel         string   `json:"start_level,omitempty" jsonschema:"description=Starting level ID (default: first level the persona offers)"`
	Persona            string   `json:"persona,omitempty" jsonschema:"description=Conversation partner,enum=maya,enum=alex,enum=luna"`
	PreferredChallenge string   `json:"preferred_challenge,omitempty" jsonschema:"description=Challenge preference,enum=comfortable,enum=challenging,enum=intensive"`
	AutoAdjust         *bool    `json:"adaptive_auto_adjust,omitempty" jsonschema:"description=Apply level changes automatically (default: true)"`
	Strengths          []string `json:"strengths,omitempty" jsonschema:"description=Skill areas the learner is strong in"`
}

type ProfileOutput struct {
	UserID             string `json:"user_id"`
	CurrentLevelID     string `json:"current_level_id"`
	Persona            string `json:"persona"`
	PreferredChallenge string `json:"preferred_challenge"`
	AutoAdjust         bool   `json:"adaptive_auto_adjust"`
}

type RecordSessionInput struct {
	UserID        string  `json:"user_id" jsonschema:"description=Learner ID from parley_create_profile"`
	SessionID     string  `json:"session_id" jsonschema:"description=Caller-supplied conversation ID"`
	LevelID       string  `json:"difficulty_level_id,omitempty" jsonschema:"description=Level the conversation ran at (default: current level)"`
	Comprehension float64 `json:"comprehension_score" jsonschema:"description=Comprehension percentage 0-100"`
	Grammar       float64 `json:"grammar_accuracy" jsonschema:"description=Grammar accuracy percentage 0-100"`
	Engagement    float64 `json:"engagement_level" jsonschema:"description=Engagement percentage 0-100"`
	ResponseTime  float64 `json:"response_time_seconds" jsonschema:"description=Average response time in seconds"`
	Vocabulary    int     `json:"vocabulary_usage_count,omitempty" jsonschema:"description=Distinct vocabulary items used"`
	Feedback      string  `json:"user_feedback,omitempty" jsonschema:"description=Learner self-report,enum=too_easy,enum=just_right,enum=too_hard"`
}

type RecordSessionOutput struct {
	MetricsID string `json:"metrics_id"`
	LevelID   string `json:"difficulty_level_id"`
	Message   string `json:"message"`
}

type UserInput struct {
	UserID string `json:"user_id" jsonschema:"description=Learner ID from parley_create_profile"`
}

type RecommendOutput struct {
	RecommendationID string            `json:"recommendation_id"`
	PreviousLevelID  string            `json:"previous_level_id"`
	NewLevelID       string            `json:"new_level_id"`
	Direction        string            `json:"direction"`
	Confidence       int               `json:"confidence"`
	Reason           string            `json:"reason"`
	Adjustments      map[string]string `json:"adjustments"`
	Applied          bool              `json:"applied"`
}

type ProgressionInput struct {
	UserID string `json:"user_id" jsonschema:"description=Learner ID from parley_create_profile"`
	Target string `json:"target_level,omitempty" jsonschema:"description=Plan a jump to this level instead of the next one"`
}

type ProgressionOutput struct {
	CurrentLevelID string   `json:"current_level_id"`
	NextLevelID    string   `json:"next_level_id"`
	FocusAreas     []string `json:"focus_areas"`
	TimeEstimate   string   `json:"time_estimate"`
}

func (s *Server) handleLevels(ctx context.Context, input LevelsInput) (LevelsOutput, error) {
	catalog := s.service.Catalog()
	levels := catalog.AllLevels()
	if input.Persona != "" {
		persona, err := domain.ParsePersona(input.Persona)
		if err != nil {
			return LevelsOutput{}, err
		}
		levels = catalog.ForPersona(persona)
	}

	out := LevelsOutput{Levels: make([]LevelSummary, 0, len(levels))}
	for _, l := range levels {
		out.Levels = append(out.Levels, LevelSummary{
			ID:          l.ID,
			Name:        l.Name,
			Complexity:  l.Complexity,
			Description: l.Description,
		})
	}
	return out, nil
}

func (s *Server) handleCreateProfile(ctx context.Context, input CreateProfileInput) (ProfileOutput, error) {
	req := adaptive.CreateProfileRequest{
		StartLevelID: input.StartLevel,
		AutoAdjust:   input.AutoAdjust,
		Strengths:    input.Strengths,
	}
	if input.Persona != "" {
		persona, err := domain.ParsePersona(input.Persona)
		if err != nil {
			return ProfileOutput{}, err
		}
		req.Persona = &persona
	}
	if input.PreferredChallenge != "" {
		pref, err := domain.ParseChallengePreference(input.PreferredChallenge)
		if err != nil {
			return ProfileOutput{}, err
		}
		req.Preference = pref
	}

	p, err := s.service.CreateProfile(ctx, req)
	if err != nil {
		return ProfileOutput{}, fmt.Errorf("failed to create profile: %w", err)
	}
	return ProfileOutput{
		UserID:             p.UserID.String(),
		CurrentLevelID:     p.CurrentLevelID,
		Persona:            p.Persona.String(),
		PreferredChallenge: string(p.PreferredChallenge),
		AutoAdjust:         p.AdaptiveAutoAdjust,
	}, nil
}

func (s *Server) handleRecordSession(ctx context.Context, input RecordSessionInput) (RecordSessionOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return RecordSessionOutput{}, err
	}

	m, err := s.service.RecordSession(ctx, domain.ConversationMetrics{
		SessionID:            input.SessionID,
		UserID:               userID,
		DifficultyLevelID:    input.LevelID,
		ComprehensionScore:   input.Comprehension,
		GrammarAccuracy:      input.Grammar,
		EngagementLevel:      input.Engagement,
		ResponseTimeSeconds:  input.ResponseTime,
		VocabularyUsageCount: input.Vocabulary,
		UserFeedback:         domain.Feedback(input.Feedback),
	})
	if err != nil {
		return RecordSessionOutput{}, fmt.Errorf("failed to record session: %w", err)
	}

	return RecordSessionOutput{
		MetricsID: m.ID.String(),
		LevelID:   m.DifficultyLevelID,
		Message:   fmt.Sprintf("Recorded session %s at %s", m.SessionID, m.DifficultyLevelID),
	}, nil
}

func (s *Server) handleRecommend(ctx context.Context, input UserInput) (RecommendOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return RecommendOutput{}, err
	}

	record, err := s.service.Recommend(ctx, userID)
	if err != nil {
		return RecommendOutput{}, fmt.Errorf("failed to recommend: %w", err)
	}

	rec := record.Recommendation
	adjustments := make(map[string]string, len(rec.Adjustments))
	for axis, adj := range rec.Adjustments {
		adjustments[string(axis)] = string(adj)
	}
	return RecommendOutput{
		RecommendationID: record.ID.String(),
		PreviousLevelID:  rec.PreviousDifficultyID,
		NewLevelID:       rec.NewDifficultyID,
		Direction:        rec.Direction.String(),
		Confidence:       rec.Confidence,
		Reason:           rec.Reason,
		Adjustments:      adjustments,
		Applied:          record.Applied,
	}, nil
}

func (s *Server) handleProgression(ctx context.Context, input ProgressionInput) (ProgressionOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return ProgressionOutput{}, err
	}

	var plan domain.ProgressionPlan
	if target := strings.TrimSpace(input.Target); target != "" {
		plan, err = s.service.PlanJump(ctx, userID, target)
	} else {
		plan, err = s.service.SuggestProgression(ctx, userID)
	}
	if err != nil {
		return ProgressionOutput{}, fmt.Errorf("failed to plan progression: %w", err)
	}

	return ProgressionOutput{
		CurrentLevelID: plan.CurrentLevelID,
		NextLevelID:    plan.NextLevelID,
		FocusAreas:     plan.FocusAreas,
		TimeEstimate:   plan.TimeEstimate,
	}, nil
}

// ServeStdio serves the tools on stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP serves the tools over HTTP on addr.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.Server {
	return s.mcpServer
}
