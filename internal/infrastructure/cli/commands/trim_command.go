package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/infrastructure/cli/helpers"
)

// NewTrimCommand creates the trim command
func NewTrimCommand(container *app.Container) *cobra.Command {
	var (
		group     string
		keep      int
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Remove the oldest runs of a group",
		Long: `Remove runs older than --older-than and then all but the most recent
--keep runs, oldest first. Trimming an unknown group does nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep <= 0 && olderThan <= 0 {
				return errors.New(ErrTrimRuleRequired)
			}
			if err := container.Ready(); err != nil {
				return err
			}
			opts := history.TrimOptions{Keep: keep}
			if olderThan > 0 {
				opts.Before = time.Now().Add(-olderThan).UnixMilli()
			}
			name := helpers.GroupOrDefault(container, group)
			removed, err := container.HistoryService.Trim(cmd.Context(), name, opts)
			if err != nil {
				return fmt.Errorf("failed to trim %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs from %s\n", removed, name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Group name (default from config)")
	cmd.Flags().IntVar(&keep, "keep", 0, "Keep only the most recent N runs")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Remove runs older than this duration, e.g. 2160h")
	return cmd
}
