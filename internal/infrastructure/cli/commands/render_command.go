package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/application/query"
	"github.com/doeshing/benchhist/internal/infrastructure/cli/helpers"
)

// NewRenderCommand creates the render command
func NewRenderCommand(container *app.Container) *cobra.Command {
	var (
		group  string
		since  string
		limit  int
		window int
		strict bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print chart series, one per benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Ready(); err != nil {
				return err
			}
			sinceMs, err := helpers.ParseSince(since, time.Now())
			if err != nil {
				return err
			}
			if limit < 0 || window < 0 {
				return fmt.Errorf("--limit and --window must be >= 0")
			}
			series, err := container.QueryService.Series(query.SeriesRequest{
				Group:  helpers.GroupOrDefault(container, group),
				Query:  history.QueryOptions{Since: sinceMs, Limit: limit},
				Window: window,
				Strict: strict,
			})
			if err != nil {
				return err
			}
			if format == FormatJSON {
				return helpers.PrintJSON(cmd.OutOrStdout(), series)
			}
			return helpers.PrintSeries(cmd.OutOrStdout(), series)
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Group name (default from config)")
	cmd.Flags().StringVar(&since, "since", "", "Only runs dated at or after this (epoch ms, RFC 3339 or duration)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Render only the most recent N runs (0 = all)")
	cmd.Flags().IntVar(&window, "window", 0, "Keep the last N points of each series (0 = all)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when there is nothing to render")
	cmd.Flags().StringVarP(&format, "output", "o", FormatTable, "Output format (table|json)")
	return cmd
}

// NewCompareCommand creates the compare command
func NewCompareCommand(container *app.Container) *cobra.Command {
	var (
		group       string
		commit      string
		failOnAlert bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a run with the run before it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Ready(); err != nil {
				return err
			}
			report, err := container.QueryService.Compare(helpers.GroupOrDefault(container, group), commit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == FormatJSON {
				if err := helpers.PrintJSON(out, report); err != nil {
					return err
				}
			} else if err := helpers.PrintReport(out, report); err != nil {
				return err
			}

			alerts := report.Alerts()
			if len(alerts) == 0 {
				if format != FormatJSON {
					fmt.Fprintln(out, MsgNoAlerts)
				}
				return nil
			}
			if failOnAlert || container.Config.Alert.FailOnAlert {
				return fmt.Errorf("%d benchmarks regressed beyond x%.2f", len(alerts), report.Threshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Group name (default from config)")
	cmd.Flags().StringVar(&commit, "commit", "", "Commit id prefix of the run to check (default newest)")
	cmd.Flags().BoolVar(&failOnAlert, "fail-on-alert", false, "Exit non-zero when a regression exceeds the threshold")
	cmd.Flags().StringVarP(&format, "output", "o", FormatTable, "Output format (table|json)")
	return cmd
}
