package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/difficulty"
	"github.com/felixgeelhaar/parley/internal/domain"
	"github.com/felixgeelhaar/parley/internal/storage/sqlite"
)

// setupTestServer creates an MCP server over a temp-dir SQLite database.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "parley.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	catalog, err := difficulty.NewDefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc := adaptive.NewService(adaptive.Dependencies{
		Engine:          difficulty.NewEngine(catalog, difficulty.DefaultThresholds()),
		Profiles:        sqlite.NewProfileStore(db),
		Metrics:         sqlite.NewMetricsStore(db),
		Recommendations: sqlite.NewRecommendationStore(db),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, adaptive.Config{})

	return NewServer(Config{Service: svc, Version: "test"})
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server.MCPServer() == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if server.service == nil {
		t.Fatal("expected non-nil service")
	}
}

func TestHandleLevels(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		persona string
		count   int
		first   string
	}{
		{"", 10, "a1-starter"},
		{"maya", 10, "a1-starter"},
		{"alex", 6, "a1-starter"},
		{"luna", 7, "a2-conversational"},
	}
	for _, tt := range tests {
		t.Run("persona="+tt.persona, func(t *testing.T) {
			out, err := server.handleLevels(ctx, LevelsInput{Persona: tt.persona})
			if err != nil {
				t.Fatalf("handleLevels() error = %v", err)
			}
			if len(out.Levels) != tt.count {
				t.Errorf("got %d levels, want %d", len(out.Levels), tt.count)
			}
			if out.Levels[0].ID != tt.first {
				t.Errorf("first level = %q, want %q", out.Levels[0].ID, tt.first)
			}
		})
	}

	if _, err := server.handleLevels(ctx, LevelsInput{Persona: "zed"}); !errors.Is(err, domain.ErrUnknownPersona) {
		t.Errorf("error = %v, want ErrUnknownPersona", err)
	}
}

func TestHandleCreateProfile(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	out, err := server.handleCreateProfile(ctx, CreateProfileInput{Persona: "luna", PreferredChallenge: "intensive"})
	if err != nil {
		t.Fatalf("handleCreateProfile() error = %v", err)
	}
	if out.CurrentLevelID != "a2-conversational" {
		t.Errorf("level = %q, want a2-conversational", out.CurrentLevelID)
	}
	if out.Persona != "luna" || out.PreferredChallenge != "intensive" || !out.AutoAdjust {
		t.Errorf("profile = %+v", out)
	}

	if _, err := server.handleCreateProfile(ctx, CreateProfileInput{PreferredChallenge: "extreme"}); !errors.Is(err, domain.ErrUnknownPreference) {
		t.Errorf("error = %v, want ErrUnknownPreference", err)
	}
	if _, err := server.handleCreateProfile(ctx, CreateProfileInput{StartLevel: "zz"}); !errors.Is(err, domain.ErrLevelNotFound) {
		t.Errorf("error = %v, want ErrLevelNotFound", err)
	}
}

func TestRecordRecommendProgression(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	p, err := server.handleCreateProfile(ctx, CreateProfileInput{StartLevel: "b1-intermediate"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	for i := range 5 {
		out, err := server.handleRecordSession(ctx, RecordSessionInput{
			UserID:        p.UserID,
			SessionID:     fmt.Sprintf("s-%d", i),
			Comprehension: 95,
			Grammar:       92,
			Engagement:    88,
			ResponseTime:  1.5,
		})
		if err != nil {
			t.Fatalf("record session %d: %v", i, err)
		}
		if out.LevelID != "b1-intermediate" {
			t.Errorf("session level = %q", out.LevelID)
		}
	}

	rec, err := server.handleRecommend(ctx, UserInput{UserID: p.UserID})
	if err != nil {
		t.Fatalf("handleRecommend() error = %v", err)
	}
	if rec.NewLevelID != "b1-confident" || rec.Direction != "increase" || rec.Confidence != 80 {
		t.Errorf("recommendation = %+v", rec)
	}
	if !rec.Applied {
		t.Error("expected auto-adjust to apply the recommendation")
	}
	if rec.Adjustments["vocabulary"] != "increase" {
		t.Errorf("adjustments = %v", rec.Adjustments)
	}

	plan, err := server.handleProgression(ctx, ProgressionInput{UserID: p.UserID})
	if err != nil {
		t.Fatalf("handleProgression() error = %v", err)
	}
	if plan.CurrentLevelID != "b1-confident" || plan.NextLevelID != "b2-upper" {
		t.Errorf("plan = %+v", plan)
	}

	jump, err := server.handleProgression(ctx, ProgressionInput{UserID: p.UserID, Target: "c2-mastery"})
	if err != nil {
		t.Fatalf("handleProgression(target) error = %v", err)
	}
	if jump.NextLevelID != "c2-mastery" || jump.TimeEstimate != difficulty.EstimateLongHaul {
		t.Errorf("jump = %+v", jump)
	}
}

func TestHandlers_InvalidUserID(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	if _, err := server.handleRecommend(ctx, UserInput{UserID: "nope"}); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("handleRecommend error = %v, want ErrInvalidID", err)
	}
	if _, err := server.handleProgression(ctx, ProgressionInput{UserID: ""}); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("handleProgression error = %v, want ErrInvalidID", err)
	}
	if _, err := server.handleRecordSession(ctx, RecordSessionInput{UserID: "x", SessionID: "s"}); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("handleRecordSession error = %v, want ErrInvalidID", err)
	}
}
