// Package alert detects performance regressions between consecutive runs.
package alert

import (
	"fmt"
	"math"
	"strings"

	"github.com/doeshing/benchhist/internal/domain"
)

// Comparison is the change of one sample between two runs.
type Comparison struct {
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	Prev           float64 `json:"prev"`
	Curr           float64 `json:"curr"`
	Ratio          float64 `json:"ratio"` // > 1 means worse, whatever the unit direction
	BiggerIsBetter bool    `json:"biggerIsBetter"`
	Alert          bool    `json:"alert"`
}

// Report is the outcome of comparing a run against its predecessor.
type Report struct {
	PrevCommit  string       `json:"prevCommit"`
	CurrCommit  string       `json:"currCommit"`
	Threshold   float64      `json:"threshold"`
	Comparisons []Comparison `json:"comparisons"`
}

// Alerts returns only the comparisons over the threshold.
func (r Report) Alerts() []Comparison {
	var out []Comparison
	for _, c := range r.Comparisons {
		if c.Alert {
			out = append(out, c)
		}
	}
	return out
}

// Compare matches samples of curr against prev by name. Samples present in
// only one run are ignored.
func Compare(prev, curr domain.BenchmarkRun, threshold float64) Report {
	if threshold <= 0 {
		threshold = domain.DefaultAlertThreshold
	}
	prevByName := make(map[string]domain.BenchmarkSample, len(prev.Benches))
	for _, b := range prev.Benches {
		prevByName[b.Name] = b
	}

	report := Report{PrevCommit: prev.Commit.ID, CurrCommit: curr.Commit.ID, Threshold: threshold}
	for _, c := range curr.Benches {
		p, ok := prevByName[c.Name]
		if !ok {
			continue
		}
		comp := Comparison{
			Name:           c.Name,
			Unit:           c.Unit,
			Prev:           p.Value,
			Curr:           c.Value,
			BiggerIsBetter: BiggerIsBetter(c.Unit),
		}
		comp.Ratio = ratio(comp)
		comp.Alert = comp.Ratio > threshold
		report.Comparisons = append(report.Comparisons, comp)
	}
	return report
}

// Latest compares the two most recent runs of a date-ordered slice.
func Latest(runs []domain.BenchmarkRun, threshold float64) (Report, bool) {
	if len(runs) < 2 {
		return Report{}, false
	}
	return Compare(runs[len(runs)-2], runs[len(runs)-1], threshold), true
}

// BiggerIsBetter reports whether a higher value is an improvement for unit.
// Throughput units (ops/s, MB/s, "ops/ms") are; per-operation costs are not.
func BiggerIsBetter(unit string) bool {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch {
	case strings.HasSuffix(u, "/op"):
		return false
	case strings.HasPrefix(u, "ops/"), strings.HasSuffix(u, "/s"), strings.HasSuffix(u, "/sec"):
		return true
	}
	return false
}

func ratio(c Comparison) float64 {
	num, den := c.Curr, c.Prev
	if c.BiggerIsBetter {
		num, den = c.Prev, c.Curr
	}
	if den == 0 {
		if num == 0 {
			return 1
		}
		return math.MaxFloat64
	}
	return num / den
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s: %g -> %g %s (x%.2f)", c.Name, c.Prev, c.Curr, c.Unit, c.Ratio)
}
