package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/domain"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage learner profiles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a learner profile",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		f := cmd.Flags()
		level, _ := f.GetString("level")
		personaKey, _ := f.GetString("persona")
		pref, _ := f.GetString("preference")
		manual, _ := f.GetBool("manual")
		strengths, _ := f.GetStringSlice("strengths")
		weaknesses, _ := f.GetStringSlice("weaknesses")

		req := adaptive.CreateProfileRequest{
			StartLevelID: level,
			Strengths:    strengths,
			Weaknesses:   weaknesses,
		}
		if id, _ := f.GetString("id"); id != "" {
			userID, err := domain.ParseUserID(id)
			if err != nil {
				return err
			}
			req.UserID = userID
		}
		if personaKey != "" {
			persona, err := domain.ParsePersona(personaKey)
			if err != nil {
				return err
			}
			req.Persona = &persona
		}
		if pref != "" {
			p, err := domain.ParseChallengePreference(pref)
			if err != nil {
				return err
			}
			req.Preference = p
		}
		if manual {
			autoAdjust := false
			req.AutoAdjust = &autoAdjust
		}

		p, err := a.service.CreateProfile(ctx, req)
		if err != nil {
			return err
		}
		return printProfile(cmd, p)
	}),
}

var profileShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a learner profile",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		p, err := a.service.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		return printProfile(cmd, p)
	}),
}

var profileSetCmd = &cobra.Command{
	Use:   "set <user-id>",
	Short: "Update preferences",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		var upd adaptive.PreferencesUpdate
		if f.Changed("preference") {
			v, _ := f.GetString("preference")
			p, err := domain.ParseChallengePreference(v)
			if err != nil {
				return err
			}
			upd.Preference = &p
		}
		if f.Changed("persona") {
			v, _ := f.GetString("persona")
			p, err := domain.ParsePersona(v)
			if err != nil {
				return err
			}
			upd.Persona = &p
		}
		if f.Changed("auto-adjust") {
			v, _ := f.GetBool("auto-adjust")
			upd.AutoAdjust = &v
		}
		if f.Changed("strengths") {
			upd.Strengths, _ = f.GetStringSlice("strengths")
		}
		if f.Changed("weaknesses") {
			upd.Weaknesses, _ = f.GetStringSlice("weaknesses")
		}

		p, err := a.service.UpdatePreferences(ctx, userID, upd)
		if err != nil {
			return err
		}
		return printProfile(cmd, p)
	}),
}

func init() {
	profileCreateCmd.Flags().String("id", "", "User ID (generated when empty)")
	profileCreateCmd.Flags().String("level", "", "Starting level ID")
	profileCreateCmd.Flags().String("persona", "", "Conversation partner (maya, alex, luna)")
	profileCreateCmd.Flags().String("preference", "", "Challenge preference (comfortable, challenging, intensive)")
	profileCreateCmd.Flags().Bool("manual", false, "Do not apply recommendations automatically")
	profileCreateCmd.Flags().StringSlice("strengths", nil, "Skill areas the learner is strong in")
	profileCreateCmd.Flags().StringSlice("weaknesses", nil, "Skill areas the learner struggles with")

	profileSetCmd.Flags().String("preference", "", "Challenge preference")
	profileSetCmd.Flags().String("persona", "", "Conversation partner")
	profileSetCmd.Flags().Bool("auto-adjust", true, "Apply recommendations automatically")
	profileSetCmd.Flags().StringSlice("strengths", nil, "Replace strengths")
	profileSetCmd.Flags().StringSlice("weaknesses", nil, "Replace weaknesses")

	profileCmd.AddCommand(profileCreateCmd, profileShowCmd, profileSetCmd)
}

func printProfile(cmd *cobra.Command, p *domain.UserProfile) error {
	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), p)
	}
	writeProfile(cmd.OutOrStdout(), p)
	return nil
}

func writeProfile(w io.Writer, p *domain.UserProfile) {
	fmt.Fprintf(w, "User:        %s\n", p.UserID)
	fmt.Fprintf(w, "Level:       %s\n", p.CurrentLevelID)
	fmt.Fprintf(w, "Persona:     %s\n", p.Persona)
	fmt.Fprintf(w, "Preference:  %s\n", p.PreferredChallenge)
	fmt.Fprintf(w, "Auto-adjust: %t\n", p.AdaptiveAutoAdjust)
	fmt.Fprintf(w, "Strengths:   %s\n", joinOrDash(p.Strengths.Slice()))
	fmt.Fprintf(w, "Weaknesses:  %s\n", joinOrDash(p.Weaknesses.Slice()))
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// parseUserArg is shared by commands taking a user ID argument.
func parseUserArg(args []string) (uuid.UUID, error) {
	return domain.ParseUserID(args[0])
}
