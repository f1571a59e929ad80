package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	configapp "github.com/doeshing/benchhist/internal/application/config"
	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// StaleAfter is how old the newest run may be before freshness warns.
const StaleAfter = 30 * 24 * time.Hour

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Repository     ports.HistoryRepository
	Now            func() time.Time
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := configapp.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))
	}

	if s.Repository == nil {
		checks = append(checks, fail("Storage", "history repository not initialized"))
		return domain.HealthReport{Checks: checks}, fmt.Errorf("history repository not initialized")
	}
	doc, err := s.Repository.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Storage", fmt.Sprintf("%s: %v", s.Repository.Path(), err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Storage", fmt.Sprintf("%s backend at %s", cfg.Storage.Backend, s.Repository.Path())))

	store, err := history.FromDocument(doc)
	if err != nil {
		checks = append(checks, fail("History", err.Error()))
		return domain.HealthReport{Checks: checks}, err
	}
	dupes := doc.RunCount() - storedRuns(store)
	switch {
	case doc.RunCount() == 0:
		checks = append(checks, warn("History", "no runs recorded yet"))
	case dupes > 0:
		checks = append(checks, warn("History", fmt.Sprintf("%d runs in %d groups, %d duplicate commits collapse on load", doc.RunCount(), len(doc.Entries), dupes)))
	default:
		checks = append(checks, ok("History", fmt.Sprintf("%d runs in %d groups", doc.RunCount(), len(doc.Entries))))
	}

	if doc.RunCount() > 0 {
		checks = append(checks, s.freshness(store.LastUpdate()))
	}
	checks = append(checks, retentionCheck(cfg.History))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) freshness(lastUpdate int64) domain.HealthCheck {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	last := time.UnixMilli(lastUpdate)
	if now().Sub(last) > StaleAfter {
		return warn("Freshness", "last run "+humanize.RelTime(last, now(), "ago", "from now"))
	}
	return ok("Freshness", "last run "+humanize.RelTime(last, now(), "ago", "from now"))
}

func retentionCheck(settings domain.HistorySettings) domain.HealthCheck {
	if settings.MaxItems == 0 && settings.MaxAge == "" {
		return warn("Retention", "unbounded: set history.max_items or history.max_age")
	}
	return ok("Retention", fmt.Sprintf("max_items=%d max_age=%q", settings.MaxItems, settings.MaxAge))
}

func storedRuns(store *history.Store) int {
	n := 0
	for _, name := range store.Groups() {
		n += store.Len(name)
	}
	return n
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
