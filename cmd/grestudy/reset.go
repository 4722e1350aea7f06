package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/review"
)

var resetCmd = &cobra.Command{
	Use:   "reset <item-id>",
	Short: "Return an item to the start of its schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", args[0])
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		coord := review.NewCoordinator(a.db,
			review.WithTimeout(a.cfg.Storage.Timeout),
			review.WithLogger(a.log),
		)
		state, err := coord.ResetItem(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Item %d reset; due %s.\n", id, state.DueDate.Format(domain.DateLayout))
		return nil
	},
}
