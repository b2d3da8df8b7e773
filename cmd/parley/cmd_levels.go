package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/conversation"
	"github.com/felixgeelhaar/parley/internal/difficulty"
	"github.com/felixgeelhaar/parley/internal/domain"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List difficulty levels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := difficulty.NewDefaultCatalog()
		if err != nil {
			return err
		}

		persona := domain.PersonaMaya
		levels := catalog.AllLevels()
		if key, _ := cmd.Flags().GetString("persona"); key != "" {
			if persona, err = domain.ParsePersona(key); err != nil {
				return err
			}
			levels = catalog.ForPersona(persona)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), levels)
		}

		showLimits, _ := cmd.Flags().GetBool("constraints")
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		if showLimits {
			fmt.Fprintln(tw, "#\tID\tNAME\tWORDS\tWPM\tIDIOMS")
		} else {
			fmt.Fprintln(tw, "#\tID\tNAME\tVOCAB\tGRAMMAR\tTOPIC\tSPEED\tCULTURE")
		}
		for _, l := range levels {
			if showLimits {
				c := conversation.Configure(l, persona)
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%t\n", l.Complexity, l.ID, l.Name, c.MaxSentenceWords, c.SpeakingRateWPM, c.AllowIdioms)
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				l.Complexity, l.ID, l.Name, l.Vocabulary, l.Grammar, l.TopicDepth, l.SpeakingSpeed, l.CulturalDensity)
		}
		return tw.Flush()
	},
}

func init() {
	levelsCmd.Flags().String("persona", "", "Only levels this persona offers (maya, alex, luna)")
	levelsCmd.Flags().Bool("constraints", false, "Show generation limits instead of axis settings")
}
