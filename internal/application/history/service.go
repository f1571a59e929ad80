package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// importConcurrency bounds how many documents Import reads at once.
const importConcurrency = 4

// Retention trims a group after every ingest. Zero values disable a rule.
type Retention struct {
	MaxItems int
	MaxAge   time.Duration
}

// Service owns the store for the lifetime of the process and keeps the
// repository in sync with it.
type Service struct {
	Store      *Store
	Repository ports.HistoryRepository
	Logger     ports.Logger
	Metrics    ports.MetricsRecorder
	Retention  Retention
	RepoURL    string
	Now        func() time.Time

	// mu serialises mutate-then-persist so the repository never sees an
	// interleaving of two writers.
	mu sync.Mutex
}

// ImportResult summarises a multi-document import.
type ImportResult struct {
	Sources []string
	MergeStats
}

func (s *Service) validate() error {
	if s.Repository == nil || s.Logger == nil {
		return errors.New("history.Service dependencies not satisfied")
	}
	if s.Metrics == nil {
		s.Metrics = ports.NopMetrics{}
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return nil
}

// Open loads the persisted document into a fresh store.
func (s *Service) Open(ctx context.Context) error {
	if err := s.validate(); err != nil {
		return err
	}
	doc, err := s.Repository.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history from %s: %w", s.Repository.Path(), err)
	}
	if doc.RepoURL == "" {
		doc.RepoURL = s.RepoURL
	}
	store, err := FromDocument(doc)
	if err != nil {
		return fmt.Errorf("decode history from %s: %w", s.Repository.Path(), err)
	}
	s.Store = store
	for _, name := range store.Groups() {
		s.Metrics.GroupSizeObserved(name, store.Len(name))
	}
	s.Metrics.LastUpdateObserved(store.LastUpdate())
	s.Logger.Debug("history loaded", map[string]interface{}{
		"path":   s.Repository.Path(),
		"groups": len(doc.Entries),
		"runs":   doc.RunCount(),
	})
	return nil
}

// Close releases the repository.
func (s *Service) Close() error {
	if s.Repository == nil {
		return nil
	}
	return s.Repository.Close()
}

// Ingest records one run and persists the result. If persistence fails the
// store is rolled back.
func (s *Service) Ingest(ctx context.Context, group string, run domain.BenchmarkRun) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Store.Snapshot()
	n, err := s.Store.Ingest(group, run)
	if err != nil {
		s.Metrics.IngestObserved(group, err)
		s.Logger.Warn("run rejected", map[string]interface{}{"group": group, "commit": run.Commit.ShortID(), "error": err.Error()})
		return 0, err
	}
	removed := s.applyRetention(group)

	if err := s.persist(ctx, prev); err != nil {
		s.Metrics.IngestObserved(group, err)
		return 0, err
	}

	n = s.Store.Len(group)
	s.Metrics.IngestObserved(group, nil)
	s.Metrics.GroupSizeObserved(group, n)
	s.Metrics.LastUpdateObserved(s.Store.LastUpdate())
	for _, sample := range run.Benches {
		s.Metrics.SampleObserved(group, sample)
	}
	if removed > 0 {
		s.Metrics.TrimObserved(group, removed)
	}
	s.Logger.Info("run ingested", map[string]interface{}{
		"group":   group,
		"commit":  run.Commit.ShortID(),
		"benches": len(run.Benches),
		"runs":    n,
		"trimmed": removed,
	})
	return n, nil
}

// Import reads every source concurrently and merges them in argument order.
func (s *Service) Import(ctx context.Context, sources ...ports.DocumentSource) (ImportResult, error) {
	if err := s.ready(); err != nil {
		return ImportResult{}, err
	}
	docs := make([]domain.Document, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			doc, err := src.Document(gctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", src.Name(), err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Store.Snapshot()
	var result ImportResult
	for i, doc := range docs {
		stats, err := s.Store.Merge(doc)
		if err != nil {
			s.rollback(prev)
			return ImportResult{}, fmt.Errorf("merge %s: %w", sources[i].Name(), err)
		}
		result.Sources = append(result.Sources, sources[i].Name())
		result.Added += stats.Added
		result.Replaced += stats.Replaced
		result.Skipped += stats.Skipped
	}
	for _, name := range s.Store.Groups() {
		s.applyRetention(name)
	}
	if err := s.persist(ctx, prev); err != nil {
		return ImportResult{}, err
	}
	for _, name := range s.Store.Groups() {
		s.Metrics.GroupSizeObserved(name, s.Store.Len(name))
	}
	s.Metrics.LastUpdateObserved(s.Store.LastUpdate())
	s.Logger.Info("documents imported", map[string]interface{}{
		"sources":  len(sources),
		"added":    result.Added,
		"replaced": result.Replaced,
		"skipped":  result.Skipped,
	})
	return result, nil
}

// Trim applies opts to a group and persists the result.
func (s *Service) Trim(ctx context.Context, group string, opts TrimOptions) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Store.Snapshot()
	removed := s.Store.Trim(group, opts)
	if removed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, prev); err != nil {
		return 0, err
	}
	s.Metrics.TrimObserved(group, removed)
	s.Metrics.GroupSizeObserved(group, s.Store.Len(group))
	s.Logger.Info("group trimmed", map[string]interface{}{"group": group, "removed": removed})
	return removed, nil
}

// AdoptRepoURL records url as the repository of the history when none is
// known yet. The value is persisted with the next mutation.
func (s *Service) AdoptRepoURL(url string) bool {
	if url == "" || s.ready() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Store.RepoURL() != "" {
		return false
	}
	s.Store.SetRepoURL(url)
	return true
}

// Document returns a snapshot of the whole history.
func (s *Service) Document() domain.Document {
	if s.Store == nil {
		return domain.NewDocument(s.RepoURL)
	}
	return s.Store.Snapshot()
}

func (s *Service) ready() error {
	if err := s.validate(); err != nil {
		return err
	}
	if s.Store == nil {
		return errors.New("history.Service not opened")
	}
	return nil
}

func (s *Service) applyRetention(group string) int {
	opts := TrimOptions{Keep: s.Retention.MaxItems}
	if s.Retention.MaxAge > 0 {
		opts.Before = s.Now().Add(-s.Retention.MaxAge).UnixMilli()
	}
	if opts.Keep == 0 && opts.Before == 0 {
		return 0
	}
	return s.Store.Trim(group, opts)
}

func (s *Service) persist(ctx context.Context, prev domain.Document) error {
	if err := s.Repository.Save(ctx, s.Store.Snapshot()); err != nil {
		s.rollback(prev)
		s.Logger.Error("persist history", err, map[string]interface{}{"path": s.Repository.Path()})
		return fmt.Errorf("save history to %s: %w", s.Repository.Path(), err)
	}
	return nil
}

// rollback restores prev. A failure leaves the mutated store in place.
func (s *Service) rollback(prev domain.Document) {
	if err := s.Store.Replace(prev); err != nil {
		s.Logger.Error("rollback failed", err, map[string]interface{}{
			"path": s.Repository.Path(),
			"runs": prev.RunCount(),
		})
	}
}
