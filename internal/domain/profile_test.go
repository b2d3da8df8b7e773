package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewUserProfile(t *testing.T) {
	userID := uuid.New()
	p := NewUserProfile(userID, "a1-starter")

	if p.UserID != userID {
		t.Errorf("UserID = %v, want %v", p.UserID, userID)
	}
	if p.CurrentLevelID != "a1-starter" {
		t.Errorf("CurrentLevelID = %q, want a1-starter", p.CurrentLevelID)
	}
	if p.PreferredChallenge != PreferChallenging {
		t.Errorf("PreferredChallenge = %q, want challenging", p.PreferredChallenge)
	}
	if !p.AdaptiveAutoAdjust {
		t.Error("AdaptiveAutoAdjust should default to true")
	}
	if p.Persona != PersonaMaya {
		t.Errorf("Persona = %v, want maya", p.Persona)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestUserProfile_ApplyLevel(t *testing.T) {
	p := NewUserProfile(uuid.New(), "a1-starter")
	before := p.UpdatedAt

	p.ApplyLevel("a1-explorer")

	if p.CurrentLevelID != "a1-explorer" {
		t.Errorf("CurrentLevelID = %q, want a1-explorer", p.CurrentLevelID)
	}
	if p.UpdatedAt.Before(before) {
		t.Error("UpdatedAt should not move backwards")
	}
}

func TestSkillSet(t *testing.T) {
	s := NewSkillSet("Grammar", " vocabulary ", "", "grammar")

	if len(s) != 2 {
		t.Errorf("len = %d, want 2", len(s))
	}
	if !s.Has(SkillGrammar) || !s.Has(SkillVocabulary) {
		t.Errorf("set = %v, want grammar and vocabulary", s.Slice())
	}

	var nilSet SkillSet
	if nilSet.Has(SkillGrammar) {
		t.Error("nil set should have no members")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["grammar","vocabulary"]` {
		t.Errorf("Marshal() = %s", data)
	}

	var decoded SkillSet
	if err := json.Unmarshal([]byte(`["pronunciation"]`), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded.Has(SkillPronunciation) {
		t.Errorf("decoded = %v, want pronunciation", decoded.Slice())
	}
}

func TestParseChallengePreference(t *testing.T) {
	got, err := ParseChallengePreference("Intensive")
	if err != nil || got != PreferIntensive {
		t.Errorf("ParseChallengePreference(Intensive) = %q, %v", got, err)
	}
	if _, err := ParseChallengePreference("lazy"); !errors.Is(err, ErrUnknownPreference) {
		t.Errorf("error = %v, want ErrUnknownPreference", err)
	}
}

func TestParseUserID(t *testing.T) {
	id := uuid.New()
	got, err := ParseUserID(id.String())
	if err != nil || got != id {
		t.Errorf("ParseUserID() = %v, %v", got, err)
	}
	if _, err := ParseUserID("nope"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("error = %v, want ErrInvalidID", err)
	}
	if _, err := ParseUserID(uuid.Nil.String()); !errors.Is(err, ErrInvalidID) {
		t.Errorf("nil UUID error = %v, want ErrInvalidID", err)
	}
}

func TestAxisLevel(t *testing.T) {
	if !(AxisBasic < AxisIntermediate && AxisIntermediate < AxisAdvanced && AxisAdvanced < AxisExpert) {
		t.Error("axis levels must be ordered basic < intermediate < advanced < expert")
	}
	if AxisLevel(0).Valid() {
		t.Error("zero AxisLevel should be invalid")
	}
	got, err := ParseAxisLevel("Advanced")
	if err != nil || got != AxisAdvanced {
		t.Errorf("ParseAxisLevel(Advanced) = %v, %v", got, err)
	}
	if DirectionUp.Adjustment() != AdjustIncrease || DirectionDown.Adjustment() != AdjustDecrease {
		t.Error("direction to adjustment mapping is wrong")
	}
}
