package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/application/query"
	"github.com/doeshing/benchhist/internal/domain"
	historyinfra "github.com/doeshing/benchhist/internal/infrastructure/history"
	"github.com/doeshing/benchhist/internal/infrastructure/metrics"
	"github.com/doeshing/benchhist/internal/pkg/logger"
)

const predictUplift = "aicard.perli.ml.benchmark.UpliftBenchmark.benchmarkPredictUplift"

func runJSON(id string, date int64, value float64) string {
	run := domain.BenchmarkRun{
		Commit: domain.CommitInfo{
			ID:        id,
			Message:   "commit " + id,
			Timestamp: "2025-12-23T18:35:41+09:00",
			URL:       "https://github.com/perli-project/perli-ai/commit/" + id,
		},
		Date:    date,
		Tool:    "jmh",
		Benches: []domain.BenchmarkSample{{Name: predictUplift, Value: value, Unit: "ms/op"}},
	}
	raw, _ := json.Marshal(run)
	return string(raw)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.Discard()
	m := metrics.New()
	hist := &history.Service{
		Repository: historyinfra.NewFileRepository(filepath.Join(t.TempDir(), "data.js")),
		Logger:     log,
		Metrics:    m,
	}
	require.NoError(t, hist.Open(context.Background()))
	return &Server{
		History: hist,
		Query:   &query.Service{History: hist, Logger: log, AlertThreshold: 2},
		Metrics: m.Handler(),
		Logger:  log,
	}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_IngestAndRead(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/v1/groups/Benchmark/runs", runJSON("daa83a", 1766483007875, 6.32e-7))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, h, http.MethodPost, "/api/v1/groups/Benchmark/runs", runJSON("f79ff4", 1766483450073, 6.37e-7))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, float64(2), created["runs"])

	w = do(t, h, http.MethodGet, "/api/v1/groups/Benchmark/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []domain.BenchmarkRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "daa83a", runs[0].Commit.ID)
	assert.Equal(t, "f79ff4", runs[1].Commit.ID)

	w = do(t, h, http.MethodGet, "/api/v1/groups/Benchmark/runs?limit=1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "f79ff4", runs[0].Commit.ID)

	w = do(t, h, http.MethodGet, "/api/v1/groups/Benchmark/latest?benchmark="+predictUplift, "")
	require.Equal(t, http.StatusOK, w.Code)
	var sample domain.BenchmarkSample
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sample))
	assert.Equal(t, 6.37e-7, sample.Value)

	w = do(t, h, http.MethodGet, "/api/v1/groups/Benchmark/series?window=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var series []domain.Series
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 1)
	assert.Equal(t, "commit f79ff4", series[0].Points[0].Label)

	w = do(t, h, http.MethodGet, "/data.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "window.BENCHMARK_DATA = "))

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `benchhist_group_runs{group="Benchmark"} 2`)
}

func TestServer_ErrorMapping(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown group runs", http.MethodGet, "/api/v1/groups/nope/runs", "", http.StatusNotFound},
		{"latest without benchmark", http.MethodGet, "/api/v1/groups/Benchmark/latest", "", http.StatusBadRequest},
		{"latest unknown group", http.MethodGet, "/api/v1/groups/nope/latest?benchmark=x", "", http.StatusNotFound},
		{"strict empty series", http.MethodGet, "/api/v1/groups/nope/series?strict=true", "", http.StatusNotFound},
		{"lenient empty series", http.MethodGet, "/api/v1/groups/nope/series", "", http.StatusOK},
		{"bad since", http.MethodGet, "/api/v1/groups/Benchmark/runs?since=yesterday", "", http.StatusBadRequest},
		{"malformed run", http.MethodPost, "/api/v1/groups/Benchmark/runs", "{", http.StatusBadRequest},
		{"negative value", http.MethodPost, "/api/v1/groups/Benchmark/runs", runJSON("a", 1, -1), http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/api/v1/groups/Benchmark/runs", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
