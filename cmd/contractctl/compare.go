package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glimte/contractgate/compat"
	"github.com/glimte/contractgate/schema"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		declared string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "compare OLD NEW",
		Short: "Classify the changes between two schema documents",
		Long: `Compare two schema documents and print every change with its severity.
Fails when the classification exceeds --declared, or the bump implied by the two
versions when --declared is not given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, newDoc, err := loadPair(args[0], args[1])
			if err != nil {
				return err
			}

			var (
				report   compat.Report
				checkErr error
			)
			if declared != "" {
				level, err := compat.ParseSeverity(declared)
				if err != nil {
					return err
				}
				report = compat.Compare(oldDoc, newDoc)
				checkErr = compat.Enforce(report, level)
			} else {
				report, checkErr = compat.CheckRelease(oldDoc, newDoc)
			}

			if err := printReport(cmd.OutOrStdout(), report, asJSON); err != nil {
				return err
			}

			a.logger.Debug("schemas compared",
				"old", report.OldVersion.String(),
				"new", report.NewVersion.String(),
				"classification", report.Classification.String(),
				"changes", len(report.Changes),
			)
			return checkErr
		},
	}

	cmd.Flags().StringVar(&declared, "declared", "", "Declared bump: none, patch, minor or major")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func newReleaseCheckCmd(a *app) *cobra.Command {
	var changelogPath string

	cmd := &cobra.Command{
		Use:   "release-check OLD NEW",
		Short: "Check a schema release against its version bump and changelog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, newDoc, err := loadPair(args[0], args[1])
			if err != nil {
				return err
			}

			report, err := compat.CheckRelease(oldDoc, newDoc)
			if printErr := printReport(cmd.OutOrStdout(), report, false); printErr != nil {
				return printErr
			}
			if err != nil {
				return err
			}

			if changelogPath != "" {
				f, err := os.Open(changelogPath)
				if err != nil {
					return fmt.Errorf("failed to open changelog: %w", err)
				}
				defer f.Close()

				entries, err := compat.ParseChangelog(f)
				if err != nil {
					return err
				}
				if err := compat.VerifyChangelog(entries, report); err != nil {
					return err
				}
			}

			a.logger.Info("release check passed",
				"old", report.OldVersion.String(),
				"new", report.NewVersion.String(),
				"classification", report.Classification.String(),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "release %s -> %s OK\n", report.OldVersion, report.NewVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&changelogPath, "changelog", "", "Changelog whose newest entry must describe the release")

	return cmd
}

func loadPair(oldPath, newPath string) (*schema.Document, *schema.Document, error) {
	oldDoc, err := schema.ParseFile(oldPath)
	if err != nil {
		return nil, nil, err
	}
	newDoc, err := schema.ParseFile(newPath)
	if err != nil {
		return nil, nil, err
	}
	return oldDoc, newDoc, nil
}

func printReport(w io.Writer, report compat.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "%s -> %s: %s\n", report.OldVersion, report.NewVersion, report.Classification)
	rule(w, 80)

	if len(report.Changes) == 0 {
		fmt.Fprintln(w, "No changes")
		return nil
	}
	for _, c := range report.Changes {
		fmt.Fprintln(w, c.String())
	}
	return nil
}
