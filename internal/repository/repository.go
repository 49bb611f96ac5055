package repository

import (
	"context"
	"time"

	"vocabhub/internal/domain"
)

// Catalog persists the known vocabularies
type Catalog interface {
	// GetVocabulary returns nil, nil when the ID is unknown
	GetVocabulary(ctx context.Context, id string) (*domain.Vocabulary, error)
	ListVocabularies(ctx context.Context) ([]domain.Vocabulary, error)
	UpsertVocabulary(ctx context.Context, v *domain.Vocabulary) error
	DeleteVocabulary(ctx context.Context, id string) error
}

// CachedGraph is a serialized narrower graph as fetched from a backend
type CachedGraph struct {
	Source    string
	URI       string
	Payload   []byte // N-Triples
	FetchedAt time.Time
}

// GraphCache stores fetched narrower graphs keyed by source and concept URI
type GraphCache interface {
	// GetCachedGraph returns nil, nil on a miss
	GetCachedGraph(ctx context.Context, source, uri string) (*CachedGraph, error)
	PutCachedGraph(ctx context.Context, entry *CachedGraph) error
	// PurgeCache drops entries fetched before olderThan and returns the count
	PurgeCache(ctx context.Context, olderThan time.Time) (int64, error)
}

// Repository defines the interface for vocabhub data access
type Repository interface {
	Catalog
	GraphCache

	// Close releases resources
	Close() error
}
