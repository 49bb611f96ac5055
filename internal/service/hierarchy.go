package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vocabhub/internal/backend"
	"vocabhub/internal/domain"
	"vocabhub/internal/hierarchy"
	"vocabhub/internal/metrics"
)

// HierarchyView is a resolved and rendered hierarchy
type HierarchyView struct {
	Vocabulary *domain.Vocabulary   `json:"vocabulary"`
	Root       string               `json:"root"`
	Nodes      []domain.ConceptNode `json:"nodes"`
	Tree       *hierarchy.Tree      `json:"-"`
}

// HierarchyOptions are the resolver settings applied to every resolution
type HierarchyOptions struct {
	MaxAttempts  int
	Parallelism  int
	FetchTimeout time.Duration
}

// HierarchyService resolves concept hierarchies through the backend registry
type HierarchyService struct {
	vocabularies *VocabularyService
	registry     *backend.Registry
	opts         HierarchyOptions
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewHierarchyService creates a hierarchy service. m may be nil.
func NewHierarchyService(vocabularies *VocabularyService, registry *backend.Registry,
	opts HierarchyOptions, m *metrics.Metrics, logger *slog.Logger) *HierarchyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HierarchyService{
		vocabularies: vocabularies,
		registry:     registry,
		opts:         opts,
		metrics:      m,
		logger:       logger,
	}
}

// Hierarchy resolves every concept below rootURI in the given vocabulary and
// renders it. An empty rootURI uses the vocabulary's configured root.
// Resolution failures and cycles are reported as ErrHierarchyUnavailable
// wrapping the cause.
func (s *HierarchyService) Hierarchy(ctx context.Context, vocabID, rootURI string) (*HierarchyView, error) {
	vocab, err := s.vocabularies.Get(ctx, vocabID)
	if err != nil {
		return nil, err
	}
	if rootURI == "" {
		rootURI = vocab.Root
	}
	if rootURI == "" {
		return nil, fmt.Errorf("vocabulary %s: %w", vocabID, ErrNoRoot)
	}

	resolver, err := s.resolver(vocabID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	nodes, err := resolver.Resolve(ctx, rootURI)
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		var cycle *hierarchy.CycleError
		if errors.As(err, &cycle) {
			outcome = metrics.OutcomeCycle
		}
		s.metrics.ObserveResolution(vocabID, outcome, elapsed, 0)
		s.logger.Error("hierarchy resolution failed",
			"vocabulary", vocabID, "root", rootURI, "elapsed", elapsed, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrHierarchyUnavailable, err)
	}

	if err := hierarchy.ValidateSequence(nodes); err != nil {
		s.metrics.ObserveResolution(vocabID, metrics.OutcomeError, elapsed, 0)
		return nil, fmt.Errorf("%w: %w", ErrHierarchyUnavailable, err)
	}

	s.metrics.ObserveResolution(vocabID, metrics.OutcomeSuccess, elapsed, len(nodes))
	s.logger.Debug("hierarchy resolved",
		"vocabulary", vocabID, "root", rootURI, "nodes", len(nodes), "elapsed", elapsed)

	return &HierarchyView{
		Vocabulary: vocab,
		Root:       rootURI,
		Nodes:      nodes,
		Tree:       hierarchy.Render(nodes),
	}, nil
}

// Narrower returns the direct narrower graph of uri, fetched with the same
// retry policy as a full resolution
func (s *HierarchyService) Narrower(ctx context.Context, vocabID, uri string) (*domain.Graph, error) {
	if _, err := s.vocabularies.Get(ctx, vocabID); err != nil {
		return nil, err
	}
	resolver, err := s.resolver(vocabID)
	if err != nil {
		return nil, err
	}
	g, err := resolver.Narrower(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHierarchyUnavailable, err)
	}
	return g, nil
}

// resolver binds a fresh resolver to the vocabulary's current backend
func (s *HierarchyService) resolver(vocabID string) (*hierarchy.Resolver, error) {
	b, err := s.registry.Lookup(vocabID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return hierarchy.NewResolver(b,
		hierarchy.WithMaxAttempts(s.opts.MaxAttempts),
		hierarchy.WithParallelism(s.opts.Parallelism),
		hierarchy.WithFetchTimeout(s.opts.FetchTimeout),
		hierarchy.WithLogger(s.logger),
	), nil
}
