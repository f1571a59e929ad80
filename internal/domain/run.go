package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// DefaultGroup is the group name written by the benchmark action.
const DefaultGroup = "Benchmark"

// BenchmarkSample is one named measurement within a run.
type BenchmarkSample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Range string  `json:"range,omitempty"`
	Extra string  `json:"extra,omitempty"`
}

// NewSample builds a validated sample.
func NewSample(name string, value float64, unit, extra string) (BenchmarkSample, error) {
	s := BenchmarkSample{Name: name, Value: value, Unit: unit, Extra: extra}
	if err := s.Validate(); err != nil {
		return BenchmarkSample{}, err
	}
	return s, nil
}

// Validate enforces a non-empty name and a finite, non-negative value.
func (s BenchmarkSample) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "bench.name", Reason: "must not be empty"}
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return &ValidationError{Field: "bench.value", Reason: fmt.Sprintf("%s: value must be finite", s.Name)}
	}
	if s.Value < 0 {
		return &ValidationError{Field: "bench.value", Reason: fmt.Sprintf("%s: value must be >= 0, got %g", s.Name, s.Value)}
	}
	return nil
}

// BenchmarkRun is one CI execution tied to one commit.
type BenchmarkRun struct {
	Commit  CommitInfo        `json:"commit"`
	Date    int64             `json:"date"`
	Tool    string            `json:"tool"`
	Benches []BenchmarkSample `json:"benches"`
}

// NewRun builds a validated run dated at the given time.
func NewRun(commit CommitInfo, date time.Time, tool string, benches []BenchmarkSample) (BenchmarkRun, error) {
	run := BenchmarkRun{
		Commit:  commit,
		Date:    date.UnixMilli(),
		Tool:    tool,
		Benches: slices.Clone(benches),
	}
	if err := run.Validate(); err != nil {
		return BenchmarkRun{}, err
	}
	return run, nil
}

// Validate checks the commit, the date and every sample.
func (r BenchmarkRun) Validate() error {
	if err := r.Commit.Validate(); err != nil {
		return err
	}
	if r.Date < 0 {
		return &ValidationError{Field: "date", Reason: fmt.Sprintf("must be >= 0, got %d", r.Date)}
	}
	if len(r.Benches) == 0 {
		return &ValidationError{Field: "benches", Reason: "must contain at least one sample"}
	}
	for _, b := range r.Benches {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Time returns the run date.
func (r BenchmarkRun) Time() time.Time {
	return time.UnixMilli(r.Date)
}

// Sample returns the sample with the given name.
func (r BenchmarkRun) Sample(name string) (BenchmarkSample, bool) {
	for _, b := range r.Benches {
		if b.Name == name {
			return b, true
		}
	}
	return BenchmarkSample{}, false
}

// Clone returns a deep copy.
func (r BenchmarkRun) Clone() BenchmarkRun {
	out := r
	out.Benches = slices.Clone(r.Benches)
	if r.Commit.Distinct != nil {
		d := *r.Commit.Distinct
		out.Commit.Distinct = &d
	}
	return out
}
