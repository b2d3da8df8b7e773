// Package report renders learner history as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// Sheet names, in workbook order.
const (
	SheetProfile         = "Profile"
	SheetSessions        = "Sessions"
	SheetRecommendations = "Recommendations"
)

const defaultSheet = "Sheet1"

var sessionHeader = []any{
	"Recorded at", "Session", "Level", "Comprehension", "Grammar",
	"Engagement", "Response time (s)", "Vocabulary used", "Feedback",
}

var recommendationHeader = []any{
	"Issued at", "From", "To", "Direction", "Confidence", "Reason",
	"Axis adjustments", "Sessions", "Applied", "Applied at",
}

// WriteWorkbook writes the learner's profile, sessions and recommendation
// history as an .xlsx document to w.
func WriteWorkbook(w io.Writer, profile *domain.UserProfile, sessions []domain.ConversationMetrics, history []domain.RecommendationRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(defaultSheet, SheetProfile)
	if err := writeProfile(f, profile); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSessions); err != nil {
		return fmt.Errorf("create sessions sheet: %w", err)
	}
	sessionRows := make([][]any, 0, len(sessions))
	for _, m := range sessions {
		sessionRows = append(sessionRows, []any{
			formatTime(m.RecordedAt), m.SessionID, m.DifficultyLevelID,
			m.ComprehensionScore, m.GrammarAccuracy, m.EngagementLevel,
			m.ResponseTimeSeconds, m.VocabularyUsageCount, string(m.UserFeedback),
		})
	}
	if err := writeTable(f, SheetSessions, sessionHeader, sessionRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetRecommendations); err != nil {
		return fmt.Errorf("create recommendations sheet: %w", err)
	}
	recRows := make([][]any, 0, len(history))
	for _, r := range history {
		appliedAt := ""
		if r.AppliedAt != nil {
			appliedAt = formatTime(*r.AppliedAt)
		}
		rec := r.Recommendation
		recRows = append(recRows, []any{
			formatTime(r.CreatedAt), rec.PreviousDifficultyID, rec.NewDifficultyID,
			rec.Direction.String(), rec.Confidence, rec.Reason,
			formatAdjustments(rec.Adjustments), r.SessionCount, r.Applied, appliedAt,
		})
	}
	if err := writeTable(f, SheetRecommendations, recommendationHeader, recRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeProfile(f *excelize.File, p *domain.UserProfile) error {
	rows := [][]any{
		{"User", p.UserID.String()},
		{"Current level", p.CurrentLevelID},
		{"Persona", p.Persona.Spec().Name},
		{"Challenge preference", string(p.PreferredChallenge)},
		{"Auto-adjust", p.AdaptiveAutoAdjust},
		{"Strengths", strings.Join(p.Strengths.Slice(), ", ")},
		{"Weaknesses", strings.Join(p.Weaknesses.Slice(), ", ")},
		{"Created", formatTime(p.CreatedAt)},
		{"Updated", formatTime(p.UpdatedAt)},
	}
	for i, row := range rows {
		if err := setRow(f, SheetProfile, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetProfile, "A", "B", 24)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// formatAdjustments renders axis adjustments in axis order, e.g. "vocabulary:increase".
func formatAdjustments(adj map[domain.Axis]domain.Adjustment) string {
	var parts []string
	for _, axis := range domain.AllAxes() {
		if a, ok := adj[axis]; ok {
			parts = append(parts, string(axis)+":"+string(a))
		}
	}
	return strings.Join(parts, ", ")
}
