package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vocabhub/internal/backend"
	"vocabhub/internal/domain"
	"vocabhub/internal/repository"
)

// VocabularyService keeps the catalog and the backend registry in step with
// the configured and discovered vocabularies
type VocabularyService struct {
	repo       repository.Repository
	registry   *backend.Registry
	deps       backend.Deps
	configured []domain.Vocabulary
	eventBus   *EventBus
	logger     *slog.Logger
}

// NewVocabularyService creates a vocabulary service. deps.Files may be nil
// when no vocabulary directory is configured.
func NewVocabularyService(repo repository.Repository, registry *backend.Registry, deps backend.Deps,
	configured []domain.Vocabulary, eventBus *EventBus) *VocabularyService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabularyService{
		repo:       repo,
		registry:   registry,
		deps:       deps,
		configured: configured,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Sync merges file-discovered and configured vocabularies into the catalog
// and rebuilds the registry. Configured entries win over discovered ones with
// the same ID but inherit their title, root, source and endpoint when left
// empty. Catalog entries that are no longer declared anywhere are removed.
func (s *VocabularyService) Sync(ctx context.Context) error {
	merged := make(map[string]domain.Vocabulary)
	var order []string

	if s.deps.Files != nil {
		for _, v := range s.deps.Files.Discover() {
			merged[v.ID] = v
			order = append(order, v.ID)
		}
	}
	for _, v := range s.configured {
		if found, ok := merged[v.ID]; ok {
			if v.Title == "" {
				v.Title = found.Title
			}
			if v.Root == "" {
				v.Root = found.Root
			}
			if v.Source == "" {
				v.Source = found.Source
			}
			if v.Endpoint == "" {
				v.Endpoint = found.Endpoint
			}
		} else {
			order = append(order, v.ID)
		}
		if v.Title == "" {
			v.Title = v.ID
		}
		merged[v.ID] = v
	}

	now := time.Now().UTC()
	for _, id := range order {
		v := merged[id]
		b, err := backend.Build(v, s.deps)
		if err != nil {
			return fmt.Errorf("sync %s: %w", id, err)
		}
		v.UpdatedAt = now
		if err := s.repo.UpsertVocabulary(ctx, &v); err != nil {
			return fmt.Errorf("sync %s: %w", id, err)
		}
		s.registry.Register(id, b)
	}

	existing, err := s.repo.ListVocabularies(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	var removed []string
	for _, v := range existing {
		if _, ok := merged[v.ID]; ok {
			continue
		}
		if err := s.repo.DeleteVocabulary(ctx, v.ID); err != nil {
			return fmt.Errorf("sync: remove %s: %w", v.ID, err)
		}
		s.registry.Unregister(v.ID)
		removed = append(removed, v.ID)
	}
	for _, id := range s.registry.IDs() {
		if _, ok := merged[id]; !ok {
			s.registry.Unregister(id)
		}
	}

	s.logger.Info("vocabulary catalog synced", "count", len(merged), "removed", len(removed))
	s.eventBus.Publish(Event{
		Type:    EventVocabulariesSynced,
		Payload: map[string]interface{}{"count": len(merged), "removed": removed},
	})
	return nil
}

// Reload re-reads one vocabulary file and resyncs the catalog
func (s *VocabularyService) Reload(ctx context.Context, path string) error {
	if s.deps.Files == nil {
		return fmt.Errorf("reload %s: no vocabulary directory configured", path)
	}
	if err := s.deps.Files.Reload(path); err != nil {
		return err
	}
	if err := s.Sync(ctx); err != nil {
		return err
	}

	id := backend.VocabularyID(path)
	eventType := EventVocabularyReloaded
	if _, err := s.registry.Lookup(id); err != nil {
		eventType = EventVocabularyRemoved
	}
	s.eventBus.Publish(Event{Type: eventType, Payload: map[string]string{"id": id, "path": path}})
	return nil
}

// List returns every catalogued vocabulary ordered by ID
func (s *VocabularyService) List(ctx context.Context) ([]domain.Vocabulary, error) {
	return s.repo.ListVocabularies(ctx)
}

// Get returns a vocabulary by ID or an error wrapping ErrNotFound
func (s *VocabularyService) Get(ctx context.Context, id string) (*domain.Vocabulary, error) {
	v, err := s.repo.GetVocabulary(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("vocabulary %s: %w", id, ErrNotFound)
	}
	return v, nil
}

// PurgeCache drops cached graphs older than maxAge
func (s *VocabularyService) PurgeCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.repo.PurgeCache(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged graph cache", "entries", n)
		s.eventBus.Publish(Event{Type: EventCachePurged, Payload: map[string]int64{"entries": n}})
	}
	return n, nil
}
