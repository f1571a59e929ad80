package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/benchhist/internal/application/alert"
	"github.com/doeshing/benchhist/internal/domain"
)

// ====================================================================================
// Output Helpers
// ====================================================================================

// PrintJSON writes v as indented JSON.
func PrintJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRuns writes one line per run, newest last.
func PrintRuns(out io.Writer, runs []domain.BenchmarkRun, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAGE\tCOMMIT\tTOOL\tBENCHES\tMESSAGE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.Time().Format(domain.TimestampFormat),
			humanize.RelTime(run.Time(), now, "ago", "from now"),
			run.Commit.ShortID(),
			run.Tool,
			len(run.Benches),
			run.Commit.Subject())
	}
	return w.Flush()
}

// PrintSample writes one sample with its unit and extra metadata.
func PrintSample(out io.Writer, sample domain.BenchmarkSample) {
	fmt.Fprintf(out, "%s: %s %s\n", sample.Name, formatValue(sample.Value), sample.Unit)
	if sample.Range != "" {
		fmt.Fprintf(out, "  range: %s\n", sample.Range)
	}
	for _, line := range strings.Split(sample.Extra, "\n") {
		if line != "" {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
}

// PrintSeries writes every series as a block of points.
func PrintSeries(out io.Writer, series []domain.Series) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, s := range series {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", s.Name, s.Unit)
		for _, p := range s.Points {
			commit := p.Commit
			if len(commit) > 7 {
				commit = commit[:7]
			}
			subject, _, _ := strings.Cut(p.Label, "\n")
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				time.UnixMilli(p.X).Format(domain.TimestampFormat),
				formatValue(p.Y),
				commit,
				subject)
		}
	}
	return w.Flush()
}

// PrintReport writes every comparison, marking those over the threshold.
func PrintReport(out io.Writer, report alert.Report) error {
	fmt.Fprintf(out, "Comparing %s -> %s (threshold x%.2f)\n", shortID(report.PrevCommit), shortID(report.CurrCommit), report.Threshold)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BENCHMARK\tPREV\tCURR\tUNIT\tRATIO\t")
	for _, c := range report.Comparisons {
		mark := ""
		if c.Alert {
			mark = "ALERT"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\tx%.2f\t%s\n", c.Name, formatValue(c.Prev), formatValue(c.Curr), c.Unit, c.Ratio, mark)
	}
	return w.Flush()
}

// formatValue keeps tiny JMH scores like 6.3e-07 readable.
func formatValue(v float64) string {
	if v != 0 && (v < 0.001 || v >= 1e9) {
		return fmt.Sprintf("%.4g", v)
	}
	return humanize.FormatFloat("#,###.####", v)
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
