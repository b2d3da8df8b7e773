package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/conversation"
	"github.com/felixgeelhaar/parley/internal/domain"
)

const maxBodyBytes = 1 << 20

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrLevelNotFound),
		errors.Is(err, domain.ErrRecommendationNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProfileAlreadyExists),
		errors.Is(err, domain.ErrDuplicateSession),
		errors.Is(err, domain.ErrRecommendationApplied),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidMetrics),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrUnknownPersona),
		errors.Is(err, domain.ErrUnknownPreference),
		errors.Is(err, domain.ErrUnknownFeedback):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, message string, err error) {
	s.jsonError(w, statusFor(err), message, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func pathUserID(r *http.Request) (uuid.UUID, error) {
	return domain.ParseUserID(r.PathValue("id"))
}

// queryLimit reads ?limit=; zero means the service default.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit %q", domain.ErrInvalidInput, raw)
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "running",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"storage":        s.cfg.Storage.Driver,
		"levels":         s.service.Catalog().Len(),
		"window_size":    s.cfg.Engine.WindowSize,
		"metrics_policy": s.cfg.Engine.MetricsPolicy,
	})
}

// Catalog handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	catalog := s.service.Catalog()
	levels := catalog.AllLevels()

	if key := r.URL.Query().Get("persona"); key != "" {
		persona, err := domain.ParsePersona(key)
		if err != nil {
			s.fail(w, "unknown persona", err)
			return
		}
		levels = catalog.ForPersona(persona)
	}

	writeJSON(w, http.StatusOK, map[string]any{"levels": levels})
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := s.service.Catalog().GetLevel(r.PathValue("id"))
	if err != nil {
		s.fail(w, "level not found", err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// Profile handlers

type createProfileRequest struct {
	UserID             *uuid.UUID                 `json:"user_id,omitempty"`
	StartLevel         string                     `json:"start_level,omitempty"`
	Persona            *domain.Persona            `json:"persona,omitempty"`
	PreferredChallenge domain.ChallengePreference `json:"preferred_challenge,omitempty"`
	AdaptiveAutoAdjust *bool                      `json:"adaptive_auto_adjust,omitempty"`
	Strengths          []string                   `json:"strengths,omitempty"`
	Weaknesses         []string                   `json:"weaknesses,omitempty"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "invalid request body", err)
		return
	}

	create := adaptive.CreateProfileRequest{
		StartLevelID: req.StartLevel,
		Persona:      req.Persona,
		Preference:   req.PreferredChallenge,
		AutoAdjust:   req.AdaptiveAutoAdjust,
		Strengths:    req.Strengths,
		Weaknesses:   req.Weaknesses,
	}
	if req.UserID != nil {
		create.UserID = *req.UserID
	}

	profile, err := s.service.CreateProfile(r.Context(), create)
	if err != nil {
		s.fail(w, "failed to create profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	profile, err := s.service.GetProfile(r.Context(), userID)
	if err != nil {
		s.fail(w, "failed to get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type preferencesRequest struct {
	PreferredChallenge *domain.ChallengePreference `json:"preferred_challenge,omitempty"`
	AdaptiveAutoAdjust *bool                       `json:"adaptive_auto_adjust,omitempty"`
	Persona            *domain.Persona             `json:"persona,omitempty"`
	Strengths          []string                    `json:"strengths,omitempty"`
	Weaknesses         []string                    `json:"weaknesses,omitempty"`
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	var req preferencesRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "invalid request body", err)
		return
	}

	profile, err := s.service.UpdatePreferences(r.Context(), userID, adaptive.PreferencesUpdate{
		Preference: req.PreferredChallenge,
		AutoAdjust: req.AdaptiveAutoAdjust,
		Persona:    req.Persona,
		Strengths:  req.Strengths,
		Weaknesses: req.Weaknesses,
	})
	if err != nil {
		s.fail(w, "failed to update preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Session handlers

type recordSessionRequest struct {
	SessionID            string     `json:"session_id"`
	DifficultyLevelID    string     `json:"difficulty_level_id,omitempty"`
	ComprehensionScore   float64    `json:"comprehension_score"`
	ResponseTimeSeconds  float64    `json:"response_time_seconds"`
	GrammarAccuracy      float64    `json:"grammar_accuracy"`
	EngagementLevel      float64    `json:"engagement_level"`
	VocabularyUsageCount int        `json:"vocabulary_usage_count"`
	UserFeedback         string     `json:"user_feedback,omitempty"`
	RecordedAt           *time.Time `json:"recorded_at,omitempty"`
}

func (req recordSessionRequest) metrics(userID uuid.UUID) domain.ConversationMetrics {
	m := domain.ConversationMetrics{
		SessionID:            req.SessionID,
		UserID:               userID,
		DifficultyLevelID:    req.DifficultyLevelID,
		ComprehensionScore:   req.ComprehensionScore,
		ResponseTimeSeconds:  req.ResponseTimeSeconds,
		GrammarAccuracy:      req.GrammarAccuracy,
		EngagementLevel:      req.EngagementLevel,
		VocabularyUsageCount: req.VocabularyUsageCount,
		UserFeedback:         domain.Feedback(req.UserFeedback),
	}
	if req.RecordedAt != nil {
		m.RecordedAt = req.RecordedAt.UTC()
	}
	return m
}

func (s *Server) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	var req recordSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "invalid request body", err)
		return
	}

	recorded, err := s.service.RecordSession(r.Context(), req.metrics(userID))
	if err != nil {
		s.fail(w, "failed to record session", err)
		return
	}
	writeJSON(w, http.StatusCreated, recorded)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		s.fail(w, "invalid limit", err)
		return
	}

	sessions, err := s.service.RecentSessions(r.Context(), userID, limit)
	if err != nil {
		s.fail(w, "failed to list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// Recommendation handlers

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	record, err := s.service.Recommend(r.Context(), userID)
	if err != nil {
		s.fail(w, "failed to recommend", err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		s.fail(w, "invalid limit", err)
		return
	}

	history, err := s.service.History(r.Context(), userID, limit)
	if err != nil {
		s.fail(w, "failed to list recommendations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": history})
}

func (s *Server) handleApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	recID, err := domain.ParseRecommendationID(r.PathValue("recID"))
	if err != nil {
		s.fail(w, "invalid recommendation id", err)
		return
	}

	profile, err := s.service.ApplyRecommendation(r.Context(), userID, recID)
	if err != nil {
		s.fail(w, "failed to apply recommendation", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleProgression suggests the next level, or a jump when ?target= is set.
func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}

	var plan domain.ProgressionPlan
	if target := r.URL.Query().Get("target"); target != "" {
		plan, err = s.service.PlanJump(r.Context(), userID, target)
	} else {
		plan, err = s.service.SuggestProgression(r.Context(), userID)
	}
	if err != nil {
		s.fail(w, "failed to plan progression", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	overview, err := s.service.Overview(r.Context(), userID)
	if err != nil {
		s.fail(w, "failed to build overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Conversation handlers

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.fail(w, "invalid user id", err)
		return
	}
	profile, err := s.service.GetProfile(r.Context(), userID)
	if err != nil {
		s.fail(w, "failed to get profile", err)
		return
	}

	opening, err := s.starter.Start(r.Context(), profile)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		s.jsonError(w, status, "failed to start conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, opening)
}
