package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/cli/helpers"
)

// NewQueryCommand creates the query command
func NewQueryCommand(container *app.Container) *cobra.Command {
	var (
		group  string
		since  string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List the runs of a group, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd.OutOrStdout(), container, helpers.GroupOrDefault(container, group), since, limit, format)
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Group name (default from config)")
	cmd.Flags().StringVar(&since, "since", "", "Only runs dated at or after this (epoch ms, RFC 3339 or duration like 168h)")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultQueryLimit, "Keep the most recent N runs (0 = all)")
	cmd.Flags().StringVarP(&format, "output", "o", FormatTable, "Output format (table|json)")
	return cmd
}

// NewLatestCommand creates the latest command
func NewLatestCommand(container *app.Container) *cobra.Command {
	var (
		group  string
		commit string
		format string
	)

	cmd := &cobra.Command{
		Use:   "latest <benchmark>",
		Short: "Show the most recent sample of a benchmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Ready(); err != nil {
				return err
			}
			sample, err := container.QueryService.Latest(helpers.GroupOrDefault(container, group), args[0], commit)
			if err != nil {
				return err
			}
			if format == FormatJSON {
				return helpers.PrintJSON(cmd.OutOrStdout(), sample)
			}
			helpers.PrintSample(cmd.OutOrStdout(), sample)
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Group name (default from config)")
	cmd.Flags().StringVar(&commit, "commit", "", "Only consider runs whose commit id starts with this")
	cmd.Flags().StringVarP(&format, "output", "o", FormatTable, "Output format (table|json)")
	return cmd
}

// listRuns prints the selected runs of a group
func listRuns(out io.Writer, container *app.Container, group, since string, limit int, format string) error {
	if err := container.Ready(); err != nil {
		return err
	}
	now := time.Now()
	sinceMs, err := helpers.ParseSince(since, now)
	if err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}

	runs, err := container.QueryService.Runs(group, history.QueryOptions{Since: sinceMs, Limit: limit})
	if err != nil {
		return err
	}
	if format == FormatJSON {
		return helpers.PrintJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, MsgNoRunsRecorded)
		return nil
	}
	return helpers.PrintRuns(out, runs, now)
}
