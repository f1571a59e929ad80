// Package server exposes the benchmark history over HTTP for chart pages and CI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/application/query"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/codec"
	"github.com/doeshing/benchhist/internal/ports"
)

// maxBodyBytes bounds a posted run.
const maxBodyBytes = 4 << 20

// Server serves the history API.
type Server struct {
	History *history.Service
	Query   *query.Service
	Metrics http.Handler
	Logger  ports.Logger
	Addr    string
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /data.js", s.handleDataJS)
	mux.HandleFunc("GET /api/v1/document", s.handleDocument)
	mux.HandleFunc("GET /api/v1/groups", s.handleGroups)
	mux.HandleFunc("GET /api/v1/groups/{group}/runs", s.handleRuns)
	mux.HandleFunc("POST /api/v1/groups/{group}/runs", s.handleIngest)
	mux.HandleFunc("GET /api/v1/groups/{group}/series", s.handleSeries)
	mux.HandleFunc("GET /api/v1/groups/{group}/latest", s.handleLatest)
	mux.HandleFunc("GET /api/v1/groups/{group}/compare", s.handleCompare)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	return s.logRequests(mux)
}

// Run listens on Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.Logger.Info("server listening", map[string]interface{}{"addr": ln.Addr().String()})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), domain.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.Logger.Info("server stopped", nil)
	return nil
}

func (s *Server) handleDataJS(w http.ResponseWriter, r *http.Request) {
	data, err := codec.Encode(s.History.Document(), true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.History.Document())
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.Query.Groups()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := queryOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	runs, err := s.Query.Runs(r.PathValue("group"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	run, err := codec.DecodeRun(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := s.History.Ingest(r.Context(), group, run)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]interface{}{"group": group, "runs": n}
	if report, err := s.Query.Compare(group, run.Commit.ID); err == nil {
		resp["alerts"] = report.Alerts()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	opts, err := queryOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	window, err := intParam(r, "window")
	if err != nil {
		s.writeError(w, err)
		return
	}
	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	series, err := s.Query.Series(query.SeriesRequest{
		Group:  r.PathValue("group"),
		Query:  opts,
		Window: window,
		Strict: strict,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	benchmark := r.URL.Query().Get("benchmark")
	if benchmark == "" {
		s.writeError(w, &domain.ValidationError{Field: "benchmark", Reason: "query parameter required"})
		return
	}
	sample, err := s.Query.Latest(r.PathValue("group"), benchmark, r.URL.Query().Get("commit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	report, err := s.Query.Compare(r.PathValue("group"), r.URL.Query().Get("commit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmptySeries), errors.Is(err, query.ErrNotEnoughRuns):
		status = http.StatusUnprocessableEntity
	default:
		s.Logger.Error("request failed", err, nil)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Logger.Debug("http request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func queryOptions(r *http.Request) (history.QueryOptions, error) {
	var opts history.QueryOptions
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, &domain.ValidationError{Field: "since", Reason: "must be epoch milliseconds"}
		}
		opts.Since = &since
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		return opts, err
	}
	opts.Limit = limit
	return opts, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &domain.ValidationError{Field: name, Reason: "must be a non-negative integer"}
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
