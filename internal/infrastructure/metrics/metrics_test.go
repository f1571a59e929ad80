package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/doeshing/benchhist/internal/domain"
)

func TestMetricsRecordsActivity(t *testing.T) {
	m := New()

	m.IngestObserved("Benchmark", nil)
	m.IngestObserved("Benchmark", nil)
	m.IngestObserved("Benchmark", &domain.ValidationError{Field: "date", Reason: "stale"})
	m.IngestObserved("Benchmark", errors.New("disk full"))
	m.GroupSizeObserved("Benchmark", 3)
	m.TrimObserved("Benchmark", 2)
	m.SampleObserved("Benchmark", domain.BenchmarkSample{Name: "predict", Value: 6.32e-7, Unit: "ms/op"})
	m.LastUpdateObserved(1766483490550)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("Benchmark", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("Benchmark", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("Benchmark", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.GroupRuns.WithLabelValues("Benchmark")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TrimmedTotal.WithLabelValues("Benchmark")))
	assert.Equal(t, 6.32e-7, testutil.ToFloat64(m.LatestValue.WithLabelValues("Benchmark", "predict", "ms/op")))
	assert.InDelta(t, 1766483490.55, testutil.ToFloat64(m.LastUpdate), 1e-3)
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.GroupSizeObserved("Benchmark", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `benchhist_group_runs{group="Benchmark"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	// two instances must not collide on registration
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
