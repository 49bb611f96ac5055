// Package backend answers narrower-graph queries for each kind of vocabulary
// source: local RDF files, SPARQL endpoints and linked-data registries.
//
// A backend performs exactly one attempt per call. Retrying belongs to the
// hierarchy resolver, so decorators such as Cached and Instrumented observe
// individual attempts.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vocabhub/internal/domain"
	"vocabhub/internal/httpclient"
	"vocabhub/internal/metrics"
	"vocabhub/internal/repository"
)

// ErrUnknownVocabulary is returned for vocabulary IDs with no backend
var ErrUnknownVocabulary = errors.New("unknown vocabulary")

// Backend fetches the narrower graph of a concept from one vocabulary source
type Backend interface {
	Kind() domain.SourceKind
	FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error)
}

// Deps are the shared collaborators used to build backends
type Deps struct {
	Files    *FileBackend
	Client   *httpclient.Client
	Cache    repository.GraphCache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Build creates the backend for a vocabulary, wrapped with instrumentation
// and, for remote sources, the graph cache
func Build(v domain.Vocabulary, deps Deps) (Backend, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var b Backend
	switch v.Source {
	case domain.SourceFile:
		if deps.Files == nil {
			return nil, fmt.Errorf("vocabulary %s: no file backend configured", v.ID)
		}
		return NewInstrumented(deps.Files.Vocabulary(v.Setting("file", v.ID)), deps.Metrics), nil
	case domain.SourceSPARQL:
		if v.Endpoint == "" {
			return nil, fmt.Errorf("vocabulary %s: sparql source requires an endpoint", v.ID)
		}
		b = NewSPARQLBackend(v.Endpoint, deps.Client, WithNamedGraph(v.Setting("graph", "")))
	case domain.SourceRegistry:
		b = NewRegistryBackend(deps.Client, WithSuffix(v.Setting("suffix", DefaultRegistrySuffix)))
	default:
		return nil, fmt.Errorf("vocabulary %s: unknown source %q", v.ID, v.Source)
	}

	b = NewInstrumented(b, deps.Metrics)
	if deps.Cache != nil && deps.CacheTTL > 0 {
		b = NewCached(b, deps.Cache, v.ID, deps.CacheTTL,
			WithCacheMetrics(deps.Metrics), WithCacheLogger(logger))
	}
	return b, nil
}

// Registry maps vocabulary IDs to backends. Callers look a backend up once
// per resolution, so later registrations never affect one in flight.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register binds a backend to a vocabulary ID, replacing any previous one
func (r *Registry) Register(id string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[id] = b
}

// Unregister removes the backend for id
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, id)
}

// Lookup returns the backend for id
func (r *Registry) Lookup(id string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVocabulary, id)
	}
	return b, nil
}

// IDs returns the registered vocabulary IDs in sorted order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
