package query

import (
	"context"
	"errors"
	"testing"

	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/pkg/logger"
)

const predictUplift = "aicard.perli.ml.benchmark.UpliftBenchmark.benchmarkPredictUplift"

type memoryRepository struct {
	doc domain.Document
}

func (m *memoryRepository) Load(context.Context) (domain.Document, error) {
	if m.doc.Entries == nil {
		return domain.NewDocument(""), nil
	}
	return m.doc, nil
}

func (m *memoryRepository) Save(_ context.Context, doc domain.Document) error {
	m.doc = doc
	return nil
}

func (m *memoryRepository) Path() string { return "memory" }
func (m *memoryRepository) Close() error { return nil }

func run(id string, date int64, value float64) domain.BenchmarkRun {
	return domain.BenchmarkRun{
		Commit:  domain.CommitInfo{ID: id, Message: "commit " + id, Timestamp: "2025-12-23T18:35:41+09:00"},
		Date:    date,
		Tool:    "jmh",
		Benches: []domain.BenchmarkSample{{Name: predictUplift, Value: value, Unit: "ms/op"}},
	}
}

func newService(t *testing.T, runs ...domain.BenchmarkRun) *Service {
	t.Helper()
	hist := &history.Service{Repository: &memoryRepository{}, Logger: logger.Discard()}
	if err := hist.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, r := range runs {
		if _, err := hist.Ingest(context.Background(), domain.DefaultGroup, r); err != nil {
			t.Fatalf("Ingest(%s) error = %v", r.Commit.ID, err)
		}
	}
	return &Service{History: hist, Logger: logger.Discard(), AlertThreshold: 2}
}

func TestRunsUnknownGroup(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Runs("missing", history.QueryOptions{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Runs() error = %v, want ErrNotFound", err)
	}
}

func TestLatestByCommitPrefix(t *testing.T) {
	svc := newService(t,
		run("daa83abe", 1766483007875, 6.32e-7),
		run("f79ff477", 1766483450073, 6.37e-7),
	)
	// re-ingest A with a new value
	if _, err := svc.History.Ingest(context.Background(), domain.DefaultGroup, run("daa83abe", 1766483007875, 6.40e-7)); err != nil {
		t.Fatalf("re-ingest error = %v", err)
	}
	if n := svc.History.Store.Len(domain.DefaultGroup); n != 2 {
		t.Fatalf("runs = %d, want 2", n)
	}

	sample, err := svc.Latest(domain.DefaultGroup, predictUplift, "daa83a")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if sample.Value != 6.40e-7 {
		t.Fatalf("value = %g, want 6.40e-7", sample.Value)
	}

	sample, err = svc.Latest(domain.DefaultGroup, predictUplift, "")
	if err != nil || sample.Value != 6.37e-7 {
		t.Fatalf("Latest() = %+v, %v", sample, err)
	}
}

func TestSeriesStrictUnknownGroup(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Series(SeriesRequest{Group: "missing", Strict: true}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Series() error = %v", err)
	}
	series, err := svc.Series(SeriesRequest{Group: "missing"})
	if err != nil || len(series) != 0 {
		t.Fatalf("lenient Series() = %v, %v", series, err)
	}
}

func TestSeriesWindow(t *testing.T) {
	svc := newService(t, run("a", 1, 1), run("b", 2, 2), run("c", 3, 3))
	series, err := svc.Series(SeriesRequest{Group: domain.DefaultGroup, Window: 2, Strict: true})
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if len(series) != 1 || len(series[0].Points) != 2 || series[0].Points[0].Label != "commit b" {
		t.Fatalf("series = %+v", series)
	}
}

func TestCompare(t *testing.T) {
	svc := newService(t, run("a", 1, 1), run("b", 2, 3), run("c", 3, 3.1))

	report, err := svc.Compare(domain.DefaultGroup, "")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if report.PrevCommit != "b" || report.CurrCommit != "c" || len(report.Alerts()) != 0 {
		t.Fatalf("report = %+v", report)
	}

	report, err = svc.Compare(domain.DefaultGroup, "b")
	if err != nil {
		t.Fatalf("Compare(b) error = %v", err)
	}
	if report.PrevCommit != "a" || len(report.Alerts()) != 1 {
		t.Fatalf("report = %+v", report)
	}

	if _, err := svc.Compare(domain.DefaultGroup, "a"); !errors.Is(err, ErrNotEnoughRuns) {
		t.Fatalf("Compare(a) error = %v", err)
	}
	if _, err := svc.Compare(domain.DefaultGroup, "zzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Compare(zzz) error = %v", err)
	}
}
