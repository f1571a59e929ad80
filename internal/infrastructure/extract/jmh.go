// Package extract parses benchmark tool output into samples.
package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// JMH reads the JSON written by `-rf json`.
type JMH struct{}

type jmhResult struct {
	Benchmark             string            `json:"benchmark"`
	Mode                  string            `json:"mode"`
	Threads               int               `json:"threads"`
	Forks                 int               `json:"forks"`
	MeasurementIterations int               `json:"measurementIterations"`
	Params                map[string]string `json:"params"`
	PrimaryMetric         struct {
		Score      float64   `json:"score"`
		ScoreError jmhNumber `json:"scoreError"`
		ScoreUnit  string    `json:"scoreUnit"`
	} `json:"primaryMetric"`
}

// Tool implements ports.Extractor.
func (JMH) Tool() string { return "jmh" }

// Extract implements ports.Extractor.
func (JMH) Extract(r io.Reader) ([]domain.BenchmarkSample, error) {
	var results []jmhResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, &domain.ValidationError{Field: "jmh", Reason: err.Error()}
	}
	samples := make([]domain.BenchmarkSample, 0, len(results))
	for _, res := range results {
		sample, err := domain.NewSample(
			jmhName(res),
			res.PrimaryMetric.Score,
			res.PrimaryMetric.ScoreUnit,
			fmt.Sprintf("iterations: %d\nforks: %d\nthreads: %d", res.MeasurementIterations, res.Forks, res.Threads),
		)
		if err != nil {
			return nil, err
		}
		if e := float64(res.PrimaryMetric.ScoreError); e > 0 && !math.IsInf(e, 0) {
			sample.Range = fmt.Sprintf("± %g", e)
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		return nil, &domain.ValidationError{Field: "jmh", Reason: "no benchmark results"}
	}
	return samples, nil
}

// jmhNumber accepts JMH's quoted "NaN"/"Infinity" as well as plain numbers.
type jmhNumber float64

func (n *jmhNumber) UnmarshalJSON(b []byte) error {
	text := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("jmh number %s: %w", b, err)
	}
	*n = jmhNumber(v)
	return nil
}

// jmhName appends parameters as `{a=1, b=2}` so parameterised runs stay distinct.
func jmhName(res jmhResult) string {
	if len(res.Params) == 0 {
		return res.Benchmark
	}
	keys := make([]string, 0, len(res.Params))
	for k := range res.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + res.Params[k]
	}
	return res.Benchmark + " ( {" + strings.Join(parts, ", ") + "} )"
}

var _ ports.Extractor = JMH{}
