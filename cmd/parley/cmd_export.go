package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/config"
	"github.com/felixgeelhaar/parley/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <user-id>",
	Short: "Export a learner's profile, sessions and recommendations",
	Long: `Export writes an .xlsx workbook by default. Use --format json for a
JSON document. With no --out the file goes to ~/.parley/exports.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		userID, err := parseUserArg(args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		format = strings.ToLower(format)
		if format != "xlsx" && format != "json" {
			return fmt.Errorf("unknown export format %q (valid: xlsx, json)", format)
		}

		data, err := a.service.Export(ctx, userID)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		var w io.Writer = cmd.OutOrStdout()
		if out != "-" {
			if out == "" {
				dir, err := exportDir()
				if err != nil {
					return err
				}
				out = filepath.Join(dir, fmt.Sprintf("%s.%s", userID, format))
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if format == "json" {
			err = printJSON(w, data)
		} else {
			err = report.WriteWorkbook(w, data.Profile, data.Sessions, data.Recommendations)
		}
		if err != nil {
			return err
		}

		if out != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d sessions and %d recommendations to %s\n",
				len(data.Sessions), len(data.Recommendations), out)
		}
		return nil
	}),
}

func init() {
	exportCmd.Flags().String("format", "xlsx", "Export format (xlsx, json)")
	exportCmd.Flags().StringP("out", "o", "", "Output path, or - for stdout")
}

func exportDir() (string, error) {
	dir, err := config.EnsureParleyDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}
