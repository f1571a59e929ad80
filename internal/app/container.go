package app

import (
	"context"
	"fmt"

	configapp "github.com/doeshing/benchhist/internal/application/config"
	"github.com/doeshing/benchhist/internal/application/doctor"
	"github.com/doeshing/benchhist/internal/application/history"
	"github.com/doeshing/benchhist/internal/application/query"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/config"
	historyinfra "github.com/doeshing/benchhist/internal/infrastructure/history"
	"github.com/doeshing/benchhist/internal/infrastructure/metrics"
	"github.com/doeshing/benchhist/internal/infrastructure/server"
	"github.com/doeshing/benchhist/internal/pkg/logger"
	"github.com/doeshing/benchhist/internal/ports"
)

// Options selects the config file and verbosity.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         ports.Logger
	Metrics        *metrics.Metrics
	HistoryService *history.Service
	QueryService   *query.Service
	DoctorService  *doctor.Service

	// OpenErr is set when the history could not be loaded; Ready returns it.
	OpenErr error
}

// BuildContainer constructs the dependency graph and loads the history.
// A history that fails to load does not fail the build so that diagnostics
// can still run.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgLoader.Path(), err)
	}
	if err := configapp.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgLoader.Path(), err)
	}
	maxAge, _ := configapp.MaxAge(cfg.History)

	log := logger.NewLogrus(cfg.Logging.Level, cfg.Logging.Format, opts.Verbose)
	recorder := metrics.New()

	repo, err := historyinfra.Open(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	historyService := &history.Service{
		Repository: repo,
		Logger:     log,
		Metrics:    recorder,
		Retention:  history.Retention{MaxItems: cfg.History.MaxItems, MaxAge: maxAge},
		RepoURL:    cfg.History.RepoURL,
	}

	container := &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Metrics:        recorder,
		HistoryService: historyService,
		QueryService: &query.Service{
			History:        historyService,
			Logger:         log,
			AlertThreshold: cfg.Alert.Threshold,
		},
		DoctorService: &doctor.Service{
			ConfigProvider: cfgLoader,
			Repository:     repo,
		},
	}

	if err := historyService.Open(ctx); err != nil {
		log.Error("history unavailable", err, map[string]interface{}{"path": repo.Path()})
		container.OpenErr = err
	}
	return container, nil
}

// ConfigOnly returns a container holding just the config loader and a
// warn-level logger, for commands that must work with a broken config.
func ConfigOnly(configPath string, verbose bool) *Container {
	loader := config.NewFileLoader(configPath)
	return &Container{
		ConfigProvider: loader,
		ConfigLoader:   loader,
		Logger:         logger.NewLogrus("warn", "text", verbose),
	}
}

// Ready reports whether the history was loaded.
func (c *Container) Ready() error {
	if c.HistoryService == nil {
		return fmt.Errorf("history service unavailable")
	}
	return c.OpenErr
}

// Server builds the HTTP server for addr, or the configured address when empty.
func (c *Container) Server(addr string) *server.Server {
	if addr == "" {
		addr = c.Config.Server.Addr
	}
	return &server.Server{
		History: c.HistoryService,
		Query:   c.QueryService,
		Metrics: c.Metrics.Handler(),
		Logger:  c.Logger,
		Addr:    addr,
	}
}

// Close releases the storage backend.
func (c *Container) Close() error {
	if c.HistoryService == nil {
		return nil
	}
	return c.HistoryService.Close()
}
