package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/domain"
	"github.com/felixgeelhaar/parley/internal/queue"
)

var recordCmd = &cobra.Command{
	Use:   "record <user-id>",
	Short: "Record the metrics of a finished conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		m, err := metricsFromFlags(cmd)
		if err != nil {
			return err
		}
		m.UserID = userID
		recommend, _ := cmd.Flags().GetBool("recommend")

		if async, _ := cmd.Flags().GetBool("async"); async {
			return publishSession(cmd, m, recommend)
		}

		return withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			recorded, err := a.service.RecordSession(ctx, m)
			if err != nil {
				return err
			}
			if !recommend {
				if wantJSON(cmd) {
					return printJSON(cmd.OutOrStdout(), recorded)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded session %s at %s\n", recorded.SessionID, recorded.DifficultyLevelID)
				return nil
			}

			record, err := a.service.Recommend(ctx, userID)
			if err != nil {
				return err
			}
			return printRecommendation(cmd, record)
		})(cmd, args)
	},
}

func metricsFromFlags(cmd *cobra.Command) (domain.ConversationMetrics, error) {
	f := cmd.Flags()
	var m domain.ConversationMetrics
	m.SessionID, _ = f.GetString("session")
	m.DifficultyLevelID, _ = f.GetString("level")
	m.ComprehensionScore, _ = f.GetFloat64("comprehension")
	m.GrammarAccuracy, _ = f.GetFloat64("grammar")
	m.EngagementLevel, _ = f.GetFloat64("engagement")
	m.ResponseTimeSeconds, _ = f.GetFloat64("response-time")
	m.VocabularyUsageCount, _ = f.GetInt("vocabulary")

	raw, _ := f.GetString("feedback")
	feedback, err := domain.ParseFeedback(raw)
	if err != nil {
		return m, err
	}
	m.UserFeedback = feedback
	return m, nil
}

// publishSession hands the session to the queue workers instead of storing it.
func publishSession(cmd *cobra.Command, m domain.ConversationMetrics, recommend bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	conn, err := queue.NewConnection(cfg.Queue.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	m.RecordedAt = time.Now().UTC()
	job := &queue.SessionJob{Metrics: m, Recommend: recommend}
	if err := queue.NewProducer(conn).PublishSessionCompleted(ctx, job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued session %s (job %s)\n", m.SessionID, job.ID)
	return nil
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Recommend the next conversation's difficulty",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		record, err := a.service.Recommend(ctx, userID)
		if err != nil {
			return err
		}
		return printRecommendation(cmd, record)
	}),
}

var applyCmd = &cobra.Command{
	Use:   "apply <user-id> <recommendation-id>",
	Short: "Apply a pending recommendation",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		recID, err := domain.ParseRecommendationID(args[1])
		if err != nil {
			return err
		}
		p, err := a.service.ApplyRecommendation(ctx, userID, recID)
		if err != nil {
			return err
		}
		return printProfile(cmd, p)
	}),
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "List past recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		history, err := a.service.History(ctx, userID, limit)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), history)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tFROM\tTO\tCONF\tAPPLIED\tREASON")
		for _, r := range history {
			rec := r.Recommendation
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				rec.PreviousDifficultyID, rec.NewDifficultyID, rec.Confidence, r.Applied, rec.Reason)
		}
		return tw.Flush()
	}),
}

var progressionCmd = &cobra.Command{
	Use:   "progression <user-id>",
	Short: "Suggest the next level and what to practice",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}

		var plan domain.ProgressionPlan
		if target, _ := cmd.Flags().GetString("target"); target != "" {
			plan, err = a.service.PlanJump(ctx, userID, target)
		} else {
			plan, err = a.service.SuggestProgression(ctx, userID)
		}
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), plan)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Current:  %s\n", plan.CurrentLevelID)
		fmt.Fprintf(w, "Next:     %s\n", plan.NextLevelID)
		fmt.Fprintf(w, "Estimate: %s\n", plan.TimeEstimate)
		fmt.Fprintf(w, "Focus:    %s\n", joinOrDash(plan.FocusAreas))
		return nil
	}),
}

func init() {
	f := recordCmd.Flags()
	f.String("session", "", "Conversation session ID (required)")
	f.String("level", "", "Level the conversation ran at (default: current level)")
	f.Float64("comprehension", 0, "Comprehension score 0-100")
	f.Float64("grammar", 0, "Grammar accuracy 0-100")
	f.Float64("engagement", 0, "Engagement level 0-100")
	f.Float64("response-time", 0, "Average response time in seconds")
	f.Int("vocabulary", 0, "Vocabulary items used")
	f.String("feedback", "", "Learner feedback (too_easy, just_right, too_hard)")
	f.Bool("recommend", false, "Issue a recommendation after recording")
	f.Bool("async", false, "Publish to the session queue instead of storing directly")
	_ = recordCmd.MarkFlagRequired("session")

	historyCmd.Flags().Int("limit", 0, "Maximum records to show")
	progressionCmd.Flags().String("target", "", "Plan a jump to this level")
}

func printRecommendation(cmd *cobra.Command, r *domain.RecommendationRecord) error {
	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), r)
	}
	writeRecommendation(cmd.OutOrStdout(), r)
	return nil
}

func writeRecommendation(w io.Writer, r *domain.RecommendationRecord) {
	rec := r.Recommendation
	fmt.Fprintf(w, "Recommendation %s\n", r.ID)
	fmt.Fprintf(w, "  %s -> %s (%s, confidence %d%%)\n", rec.PreviousDifficultyID, rec.NewDifficultyID, rec.Direction, rec.Confidence)
	fmt.Fprintf(w, "  Reason:   %s\n", rec.Reason)
	fmt.Fprintf(w, "  Sessions: %d\n", r.SessionCount)

	axes := make([]string, 0, len(rec.Adjustments))
	for _, axis := range domain.AllAxes() {
		if adj, ok := rec.Adjustments[axis]; ok {
			axes = append(axes, fmt.Sprintf("%s %s", axis, adj))
		}
	}
	fmt.Fprintf(w, "  Axes:     %s\n", joinOrDash(axes))

	switch {
	case r.Applied:
		fmt.Fprintln(w, "  Applied automatically.")
	case rec.Changed():
		fmt.Fprintf(w, "  Run 'parley apply %s %s' to accept.\n", r.UserID, r.ID)
	}
}
