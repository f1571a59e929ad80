// Package history holds the benchmark history aggregate and the service that
// persists it.
//
// A Store maps group names to runs kept in ingestion order. Writers of one
// group are serialised by a per-group mutex; each write publishes a fresh
// immutable slice so readers never block and always observe a consistent
// snapshot.
package history

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/doeshing/benchhist/internal/domain"
)

// Store is the in-memory benchmark history.
type Store struct {
	mu         sync.RWMutex
	groups     map[string]*group
	repoURL    atomic.Pointer[string]
	lastUpdate atomic.Int64
}

type group struct {
	mu   sync.Mutex
	runs atomic.Pointer[[]domain.BenchmarkRun]
}

func newGroup() *group {
	g := &group{}
	empty := []domain.BenchmarkRun{}
	g.runs.Store(&empty)
	return g
}

func (g *group) load() []domain.BenchmarkRun {
	return *g.runs.Load()
}

// QueryOptions narrows a query. Zero values mean no restriction.
type QueryOptions struct {
	Since *int64
	Limit int
}

// TrimOptions selects runs to drop. Runs dated before Before are removed,
// then only the most recent Keep runs survive.
type TrimOptions struct {
	Before int64
	Keep   int
}

// NewStore creates an empty store.
func NewStore(repoURL string) *Store {
	s := &Store{groups: map[string]*group{}}
	s.repoURL.Store(&repoURL)
	return s
}

// FromDocument builds a store by ingesting every run of doc in order.
func FromDocument(doc domain.Document) (*Store, error) {
	s := NewStore(doc.RepoURL)
	if err := s.load(doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps the whole content for doc. On error the store is unchanged.
func (s *Store) Replace(doc domain.Document) error {
	next, err := FromDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = next.groups
	s.repoURL.Store(next.repoURL.Load())
	s.lastUpdate.Store(next.lastUpdate.Load())
	return nil
}

func (s *Store) load(doc domain.Document) error {
	names := make([]string, 0, len(doc.Entries))
	for name := range doc.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.ensureGroup(name)
		for i, run := range doc.Entries[name] {
			if _, _, err := s.ingest(name, run, true); err != nil {
				return fmt.Errorf("entries[%s][%d]: %w", name, i, err)
			}
		}
	}
	s.bumpLastUpdate(doc.LastUpdate)
	return nil
}

// RepoURL returns the repository the history belongs to.
func (s *Store) RepoURL() string {
	return *s.repoURL.Load()
}

// SetRepoURL records the repository URL when it was unknown.
func (s *Store) SetRepoURL(url string) {
	s.repoURL.Store(&url)
}

// LastUpdate returns the max run date seen, in epoch milliseconds.
func (s *Store) LastUpdate() int64 {
	return s.lastUpdate.Load()
}

// Groups lists group names sorted by name. Documents carry groups as an
// unordered map, so name order is the only one that survives a round trip.
func (s *Store) Groups() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Has reports whether the group exists, even when it holds no run.
func (s *Store) Has(name string) bool {
	return s.lookup(name) != nil
}

// Len returns the number of runs in a group.
func (s *Store) Len(name string) int {
	g := s.lookup(name)
	if g == nil {
		return 0
	}
	return len(g.load())
}

// Ingest appends run to the group, or replaces the run with the same commit id
// in place. It returns the resulting group length.
func (s *Store) Ingest(name string, run domain.BenchmarkRun) (int, error) {
	n, _, err := s.ingest(name, run, false)
	return n, err
}

type outcome int

const (
	outcomeAdded outcome = iota
	outcomeReplaced
	outcomeSkipped
)

// ingest with skipStale drops an older duplicate instead of rejecting it, so
// documents that already carry repeated commits still load.
func (s *Store) ingest(name string, run domain.BenchmarkRun, skipStale bool) (int, outcome, error) {
	if name == "" {
		return 0, outcomeSkipped, &domain.ValidationError{Field: "group", Reason: "must not be empty"}
	}
	if err := run.Validate(); err != nil {
		return 0, outcomeSkipped, err
	}
	run = run.Clone()

	g := s.ensureGroup(name)
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.load()
	idx := slices.IndexFunc(current, func(r domain.BenchmarkRun) bool { return r.Commit.ID == run.Commit.ID })

	var (
		next []domain.BenchmarkRun
		res  = outcomeAdded
	)
	if idx >= 0 {
		if run.Date < current[idx].Date {
			if skipStale {
				return len(current), outcomeSkipped, nil
			}
			return 0, outcomeSkipped, &domain.ValidationError{
				Field:  "date",
				Reason: fmt.Sprintf("stale run for commit %s: %d is older than stored %d", run.Commit.ShortID(), run.Date, current[idx].Date),
			}
		}
		next = slices.Clone(current)
		next[idx] = run
		res = outcomeReplaced
	} else {
		next = make([]domain.BenchmarkRun, len(current), len(current)+1)
		copy(next, current)
		next = append(next, run)
	}
	g.runs.Store(&next)
	s.bumpLastUpdate(run.Date)
	return len(next), res, nil
}

// MergeStats counts what Merge did with each incoming run.
type MergeStats struct {
	Added    int
	Replaced int
	Skipped  int
}

// Merge folds every run of doc into the store. Older duplicates of a stored
// commit are skipped. Every run is validated before the first one is applied.
func (s *Store) Merge(doc domain.Document) (MergeStats, error) {
	var stats MergeStats
	names := make([]string, 0, len(doc.Entries))
	for name, runs := range doc.Entries {
		if name == "" {
			return stats, &domain.ValidationError{Field: "group", Reason: "must not be empty"}
		}
		for i, run := range runs {
			if err := run.Validate(); err != nil {
				return stats, fmt.Errorf("entries[%s][%d]: %w", name, i, err)
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.ensureGroup(name)
		for _, run := range doc.Entries[name] {
			_, res, err := s.ingest(name, run, true)
			if err != nil {
				return stats, err
			}
			switch res {
			case outcomeAdded:
				stats.Added++
			case outcomeReplaced:
				stats.Replaced++
			default:
				stats.Skipped++
			}
		}
	}
	s.bumpLastUpdate(doc.LastUpdate)
	if s.RepoURL() == "" && doc.RepoURL != "" {
		s.SetRepoURL(doc.RepoURL)
	}
	return stats, nil
}

// Query yields the group's runs sorted by date, oldest first, with ties kept
// in ingestion order. Every iteration reads a fresh snapshot.
func (s *Store) Query(name string, opts QueryOptions) iter.Seq[domain.BenchmarkRun] {
	return func(yield func(domain.BenchmarkRun) bool) {
		for _, run := range s.selectRuns(name, opts) {
			if !yield(run.Clone()) {
				return
			}
		}
	}
}

// Runs collects Query into a slice.
func (s *Store) Runs(name string, opts QueryOptions) []domain.BenchmarkRun {
	return slices.Collect(s.Query(name, opts))
}

func (s *Store) selectRuns(name string, opts QueryOptions) []domain.BenchmarkRun {
	g := s.lookup(name)
	if g == nil {
		return nil
	}
	runs := sortedByDate(g.load())
	if opts.Since != nil {
		since := *opts.Since
		start := sort.Search(len(runs), func(i int) bool { return runs[i].Date >= since })
		runs = runs[start:]
	}
	if opts.Limit > 0 && len(runs) > opts.Limit {
		runs = runs[len(runs)-opts.Limit:]
	}
	return runs
}

// Latest returns the most recent sample named benchmark in the group.
func (s *Store) Latest(name, benchmark string) (domain.BenchmarkSample, error) {
	return s.LatestMatching(name, benchmark, nil)
}

// LatestMatching is Latest restricted to runs accepted by match. A nil match
// accepts every run. On equal dates the later-ingested run wins.
func (s *Store) LatestMatching(name, benchmark string, match func(domain.BenchmarkRun) bool) (domain.BenchmarkSample, error) {
	g := s.lookup(name)
	if g == nil {
		return domain.BenchmarkSample{}, &domain.NotFoundError{Group: name}
	}
	var (
		best  domain.BenchmarkSample
		date  int64
		found bool
	)
	for _, run := range g.load() {
		if match != nil && !match(run) {
			continue
		}
		sample, ok := run.Sample(benchmark)
		if !ok {
			continue
		}
		if !found || run.Date >= date {
			best, date, found = sample, run.Date, true
		}
	}
	if !found {
		return domain.BenchmarkSample{}, &domain.NotFoundError{Group: name, Benchmark: benchmark}
	}
	return best, nil
}

// Trim drops runs per opts, oldest first, and returns how many were removed.
// Unknown groups are ignored.
func (s *Store) Trim(name string, opts TrimOptions) int {
	g := s.lookup(name)
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.load()
	doomed := map[int]bool{}
	order := make([]int, len(current))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return current[order[a]].Date < current[order[b]].Date })

	survivors := 0
	for _, i := range order {
		if opts.Before > 0 && current[i].Date < opts.Before {
			doomed[i] = true
			continue
		}
		survivors++
	}
	if opts.Keep > 0 && survivors > opts.Keep {
		excess := survivors - opts.Keep
		for _, i := range order {
			if excess == 0 {
				break
			}
			if !doomed[i] {
				doomed[i] = true
				excess--
			}
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	next := make([]domain.BenchmarkRun, 0, len(current)-len(doomed))
	for i, run := range current {
		if !doomed[i] {
			next = append(next, run)
		}
	}
	g.runs.Store(&next)
	return len(doomed)
}

// Snapshot exports every group with its runs in ingestion order, which
// FromDocument restores exactly.
func (s *Store) Snapshot() domain.Document {
	doc := domain.NewDocument(s.RepoURL())
	doc.LastUpdate = s.LastUpdate()
	for _, name := range s.Groups() {
		g := s.lookup(name)
		runs := g.load()
		out := make([]domain.BenchmarkRun, len(runs))
		for i, run := range runs {
			out[i] = run.Clone()
		}
		doc.Entries[name] = out
	}
	return doc
}

func (s *Store) lookup(name string) *group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups[name]
}

func (s *Store) ensureGroup(name string) *group {
	if g := s.lookup(name); g != nil {
		return g
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[name]; ok {
		return g
	}
	g := newGroup()
	s.groups[name] = g
	return g
}

func (s *Store) bumpLastUpdate(date int64) {
	for {
		cur := s.lastUpdate.Load()
		if date <= cur || s.lastUpdate.CompareAndSwap(cur, date) {
			return
		}
	}
}

func sortedByDate(runs []domain.BenchmarkRun) []domain.BenchmarkRun {
	out := slices.Clone(runs)
	slices.SortStableFunc(out, func(a, b domain.BenchmarkRun) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return out
}
