package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/grestudy/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Commit a JSON snapshot of all items to the backup repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := backup.Run(cmd.Context(), a.db, a.cfg.Backup.Dir, time.Now())
		if err != nil {
			return err
		}
		if res.Commit == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No changes since the last backup (%d items).\n", res.Items)
			return nil
		}
		a.log.Info("backup committed", "commit", res.Commit, "items", res.Items)
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d items to %s (%s).\n", res.Items, res.Path, res.Commit[:7])
		return nil
	},
}
