package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show a learner's performance overview",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		overview, err := a.service.Overview(ctx, userID)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), overview)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Learner Statistics")
		fmt.Fprintln(w, "==================")
		fmt.Fprintf(w, "Level:          %s\n", overview.CurrentLevelID)
		fmt.Fprintf(w, "Sessions:       %d\n", overview.TotalSessions)
		fmt.Fprintf(w, "Trend:          %s\n", overview.Trend)

		cur := overview.Current
		if cur.HasData {
			fmt.Fprintf(w, "\nRecent window (%d sessions)\n", cur.SessionCount)
			fmt.Fprintln(w, "---------------------------")
			fmt.Fprintf(w, "Comprehension  %s %.0f%%\n", renderBar(cur.Comprehension, 20), cur.Comprehension)
			fmt.Fprintf(w, "Grammar        %s %.0f%%\n", renderBar(cur.GrammarAccuracy, 20), cur.GrammarAccuracy)
			fmt.Fprintf(w, "Engagement     %s %.0f%%\n", renderBar(cur.Engagement, 20), cur.Engagement)
			fmt.Fprintf(w, "Response time  %.1fs\n", cur.ResponseTime)
		}

		if len(overview.Levels) > 0 {
			fmt.Fprintln(w, "\nBy level")
			fmt.Fprintln(w, "--------")
			for _, l := range overview.Levels {
				fmt.Fprintf(w, "%-20s %s %.0f%% (%d sessions)\n",
					l.LevelID, renderBar(l.AvgComprehension, 20), l.AvgComprehension, l.Sessions)
			}
		}
		return nil
	}),
}
