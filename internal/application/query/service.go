// Package query answers read questions about the benchmark history: runs,
// latest samples, chart series and regressions between runs.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/benchhist/internal/application/alert"
	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/application/render"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// ErrNotEnoughRuns is returned by Compare when the group has no predecessor run.
var ErrNotEnoughRuns = errors.New("at least two runs are needed to compare")

// Service reads from the history owned by a history.Service.
type Service struct {
	History        *history.Service
	Logger         ports.Logger
	AlertThreshold float64
}

// SeriesRequest selects the runs to render and how.
type SeriesRequest struct {
	Group  string
	Query  history.QueryOptions
	Window int
	Strict bool
}

func (s *Service) store() (*history.Store, error) {
	if s.History == nil || s.History.Store == nil {
		return nil, errors.New("query.Service dependencies not satisfied")
	}
	return s.History.Store, nil
}

// Groups lists the known groups.
func (s *Service) Groups() ([]string, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.Groups(), nil
}

// Runs returns the group's runs in date order. An unknown group is NotFound.
func (s *Service) Runs(group string, opts history.QueryOptions) ([]domain.BenchmarkRun, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	if !store.Has(group) {
		return nil, &domain.NotFoundError{Group: group}
	}
	runs := store.Runs(group, opts)
	if runs == nil {
		runs = []domain.BenchmarkRun{}
	}
	return runs, nil
}

// Latest returns the newest sample named benchmark. When commit is set only
// runs whose commit id starts with it are considered.
func (s *Service) Latest(group, benchmark, commit string) (domain.BenchmarkSample, error) {
	store, err := s.store()
	if err != nil {
		return domain.BenchmarkSample{}, err
	}
	if commit == "" {
		return store.Latest(group, benchmark)
	}
	return store.LatestMatching(group, benchmark, func(run domain.BenchmarkRun) bool {
		return strings.HasPrefix(run.Commit.ID, commit)
	})
}

// Series renders the selected runs into one series per benchmark name.
func (s *Service) Series(req SeriesRequest) ([]domain.Series, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	if req.Strict && !store.Has(req.Group) {
		return nil, &domain.NotFoundError{Group: req.Group}
	}
	return render.Build(store.Query(req.Group, req.Query), render.Options{
		Group:  req.Group,
		Window: req.Window,
		Strict: req.Strict,
	})
}

// Compare reports the change between the run of commit (or the newest run
// when commit is empty) and the run dated just before it.
func (s *Service) Compare(group, commit string) (alert.Report, error) {
	runs, err := s.Runs(group, history.QueryOptions{})
	if err != nil {
		return alert.Report{}, err
	}
	idx := len(runs) - 1
	if commit != "" {
		idx = -1
		for i, run := range runs {
			if strings.HasPrefix(run.Commit.ID, commit) {
				idx = i
			}
		}
		if idx < 0 {
			return alert.Report{}, fmt.Errorf("commit %s in group %q: %w", commit, group, domain.ErrNotFound)
		}
	}
	if idx < 1 {
		return alert.Report{}, fmt.Errorf("group %q: %w", group, ErrNotEnoughRuns)
	}
	report := alert.Compare(runs[idx-1], runs[idx], s.AlertThreshold)
	if alerts := report.Alerts(); len(alerts) > 0 && s.Logger != nil {
		s.Logger.Warn("performance regression", map[string]interface{}{
			"group":  group,
			"commit": runs[idx].Commit.ShortID(),
			"alerts": len(alerts),
		})
	}
	return report, nil
}
