package commands

import (
	"context"
	"fmt"
	"log/slog"

	"vocabhub/internal/backend"
	"vocabhub/internal/config"
	"vocabhub/internal/httpclient"
	"vocabhub/internal/metrics"
	"vocabhub/internal/repository/sqlite"
	"vocabhub/internal/service"
)

// app holds the components shared by every command
type app struct {
	cfg         *config.Config
	repo        *sqlite.Repository
	metrics     *metrics.Metrics
	files       *backend.FileBackend
	registry    *backend.Registry
	events      *service.EventBus
	vocabs      *service.VocabularyService
	hierarchies *service.HierarchyService
	logger      *slog.Logger
}

// newApp opens the catalog, loads vocabulary files and syncs the backend
// registry. Close must be called when done.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := slog.Default()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		repo:     repo,
		metrics:  metrics.New(),
		registry: backend.NewRegistry(),
		events:   service.NewEventBus(),
		logger:   logger,
	}

	if cfg.Files.Dir != "" {
		a.files = backend.NewFileBackend(cfg.Files.Dir, cfg.Files.Patterns,
			backend.WithLanguage(cfg.LanguageTag().String()),
			backend.WithFileLogger(logger))
		if err := a.files.Load(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("load vocabulary files: %w", err)
		}
	}

	deps := backend.Deps{
		Files:    a.files,
		Client:   httpclient.New(httpclient.WithTimeout(cfg.Resolver.FetchTimeout.Duration())),
		Cache:    repo,
		CacheTTL: cfg.Cache.TTL.Duration(),
		Metrics:  a.metrics,
		Logger:   logger,
	}
	a.vocabs = service.NewVocabularyService(repo, a.registry, deps, cfg.Vocabularies, a.events)
	a.hierarchies = service.NewHierarchyService(a.vocabs, a.registry, service.HierarchyOptions{
		MaxAttempts:  cfg.Resolver.MaxAttempts,
		Parallelism:  cfg.Resolver.Parallelism,
		FetchTimeout: cfg.Resolver.FetchTimeout.Duration(),
	}, a.metrics, logger)

	if err := a.vocabs.Sync(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}
