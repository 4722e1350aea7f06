package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/grestudy/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <dir|git-url>",
	Short: "Import markdown decks from a directory or git repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		im := importer.New(a.db, a.cfg.Import.ReposDir, a.log.With("component", "import"))
		report, err := im.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scanned %d files: %d items, %d new, %d already present, %d errors.\n",
			report.Files, report.Parsed, report.Inserted, report.Duplicates, len(report.Errors))
		if len(report.Errors) > 0 {
			fmt.Fprintln(out, "\nErrors:")
			for _, e := range report.Errors {
				fmt.Fprintf(out, "- %s\n", e)
			}
		}
		return nil
	},
}
