// Package render turns benchmark runs into chart series.
package render

import (
	"iter"
	"slices"

	"github.com/doeshing/benchhist/internal/domain"
)

// Options controls series construction.
type Options struct {
	// Group only labels the EmptySeriesError.
	Group string
	// Window keeps the most recent N points of each series when > 0.
	Window int
	// Strict fails with EmptySeriesError when no point was produced.
	Strict bool
}

// Build produces one series per distinct sample name, in first-seen order.
// Points are ordered by run date; runs with equal dates keep input order.
func Build(runs iter.Seq[domain.BenchmarkRun], opts Options) ([]domain.Series, error) {
	var ordered []domain.BenchmarkRun
	for run := range runs {
		ordered = append(ordered, run)
	}
	slices.SortStableFunc(ordered, func(a, b domain.BenchmarkRun) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})

	index := map[string]int{}
	var series []domain.Series
	for _, run := range ordered {
		for _, bench := range run.Benches {
			i, ok := index[bench.Name]
			if !ok {
				i = len(series)
				index[bench.Name] = i
				series = append(series, domain.Series{Name: bench.Name, Unit: bench.Unit, Tool: run.Tool})
			}
			series[i].Points = append(series[i].Points, domain.Point{
				X:      run.Date,
				Y:      bench.Value,
				Label:  run.Commit.Message,
				Commit: run.Commit.ID,
				URL:    run.Commit.URL,
			})
		}
	}

	if opts.Window > 0 {
		for i := range series {
			if pts := series[i].Points; len(pts) > opts.Window {
				series[i].Points = pts[len(pts)-opts.Window:]
			}
		}
	}

	if opts.Strict && len(series) == 0 {
		return nil, &domain.EmptySeriesError{Group: opts.Group}
	}
	if series == nil {
		series = []domain.Series{}
	}
	return series, nil
}

// Find returns the series with the given name.
func Find(series []domain.Series, name string) (domain.Series, bool) {
	for _, s := range series {
		if s.Name == name {
			return s, true
		}
	}
	return domain.Series{}, false
}
