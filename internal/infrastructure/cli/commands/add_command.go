package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/application/query"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/cli/helpers"
	"github.com/doeshing/benchhist/internal/infrastructure/codec"
	"github.com/doeshing/benchhist/internal/infrastructure/extract"
)

// addOptions collects the flags of `benchhist add`.
type addOptions struct {
	group       string
	tool        string
	file        string
	runFile     string
	eventPath   string
	date        int64
	failOnAlert bool
	commit      helpers.CommitFlags
}

// NewAddCommand creates the add command, which records one CI run
func NewAddCommand(container *app.Container) *cobra.Command {
	opts := addOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a benchmark run from tool output",
		Long: `Record a benchmark run for one commit.

Samples come either from benchmark tool output (--tool/--file) or from a
complete run object (--run). Commit metadata is read from the GitHub event
payload ($GITHUB_EVENT_PATH or --event) and may be overridden with flags.
Re-adding a commit replaces its previous run.`,
		Example: `  benchhist add --tool jmh --file build/results/jmh/results.json
  go test -bench . | benchhist add --tool go --file - --commit-id $(git rev-parse HEAD)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addRun(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), container, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "Group name (default from config)")
	cmd.Flags().StringVarP(&opts.tool, "tool", "t", "", "Tool that produced --file ("+strings.Join(extract.Tools(), "|")+")")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Tool output file, - for stdin")
	cmd.Flags().StringVar(&opts.runFile, "run", "", "JSON file holding a complete run object")
	cmd.Flags().StringVar(&opts.eventPath, "event", os.Getenv(EnvGitHubEventPath), "GitHub event payload to read the head commit from")
	cmd.Flags().Int64Var(&opts.date, "date", 0, "Run date in epoch milliseconds (default now)")
	cmd.Flags().BoolVar(&opts.failOnAlert, "fail-on-alert", false, "Exit non-zero when a regression exceeds the threshold (default from config)")
	cmd.Flags().StringVar(&opts.commit.ID, "commit-id", "", "Commit id")
	cmd.Flags().StringVar(&opts.commit.Message, "message", "", "Commit message")
	cmd.Flags().StringVar(&opts.commit.Timestamp, "timestamp", "", "Commit timestamp (RFC 3339, default now)")
	cmd.Flags().StringVar(&opts.commit.URL, "commit-url", "", "Commit URL")
	cmd.Flags().StringVar(&opts.commit.TreeID, "tree-id", "", "Commit tree id")
	cmd.Flags().StringVar(&opts.commit.AuthorName, "author-name", "", "Commit author name")
	cmd.Flags().StringVar(&opts.commit.AuthorEmail, "author-email", "", "Commit author email")
	cmd.Flags().StringVar(&opts.commit.AuthorUsername, "author-username", "", "Commit author username")
	cmd.MarkFlagsMutuallyExclusive("run", "file")
	cmd.MarkFlagsMutuallyExclusive("run", "tool")

	return cmd
}

// addRun builds the run, ingests it and compares it with its predecessor
func addRun(ctx context.Context, in io.Reader, out io.Writer, container *app.Container, opts addOptions) error {
	if err := container.Ready(); err != nil {
		return err
	}
	group := helpers.GroupOrDefault(container, opts.group)

	run, repoURL, err := buildRun(in, opts, time.Now())
	if err != nil {
		return err
	}
	container.HistoryService.AdoptRepoURL(repoURL)

	n, err := container.HistoryService.Ingest(ctx, group, run)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	fmt.Fprintf(out, "Recorded %d benchmarks for %s in %s (%d runs)\n", len(run.Benches), run.Commit.ShortID(), group, n)

	report, err := container.QueryService.Compare(group, run.Commit.ID)
	// Retention may already have trimmed the new run away.
	if errors.Is(err, query.ErrNotEnoughRuns) || errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to compare run: %w", err)
	}
	alerts := report.Alerts()
	if len(alerts) == 0 {
		return nil
	}
	if err := helpers.PrintReport(out, report); err != nil {
		return err
	}
	if opts.failOnAlert || container.Config.Alert.FailOnAlert {
		return fmt.Errorf("%d benchmarks regressed beyond x%.2f", len(alerts), report.Threshold)
	}
	return nil
}

func buildRun(in io.Reader, opts addOptions, now time.Time) (domain.BenchmarkRun, string, error) {
	if opts.runFile != "" {
		data, err := os.ReadFile(opts.runFile)
		if err != nil {
			return domain.BenchmarkRun{}, "", err
		}
		run, err := codec.DecodeRun(data)
		if err != nil {
			return domain.BenchmarkRun{}, "", fmt.Errorf("%s: %w", opts.runFile, err)
		}
		return run, "", run.Validate()
	}

	if opts.tool == "" || opts.file == "" {
		return domain.BenchmarkRun{}, "", fmt.Errorf("--tool and --file are required unless --run is given")
	}
	extractor, err := extract.For(opts.tool)
	if err != nil {
		return domain.BenchmarkRun{}, "", err
	}
	samples, err := readSamples(in, opts.file, extractor.Extract)
	if err != nil {
		return domain.BenchmarkRun{}, "", err
	}

	commit, repoURL, err := helpers.ResolveCommit(opts.eventPath, opts.commit, now)
	if err != nil {
		if opts.eventPath == "" && opts.commit.ID == "" {
			return domain.BenchmarkRun{}, "", errors.New(ErrCommitRequired)
		}
		return domain.BenchmarkRun{}, "", err
	}

	date := now
	if opts.date > 0 {
		date = time.UnixMilli(opts.date)
	}
	run, err := domain.NewRun(commit, date, extractor.Tool(), samples)
	return run, repoURL, err
}

func readSamples(in io.Reader, path string, extractFn func(io.Reader) ([]domain.BenchmarkSample, error)) ([]domain.BenchmarkSample, error) {
	if path == StdinPath {
		return extractFn(in)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := extractFn(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
