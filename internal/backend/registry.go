package backend

import (
	"context"

	"vocabhub/internal/codec"
	"vocabhub/internal/domain"
	"vocabhub/internal/httpclient"
)

// DefaultRegistrySuffix is appended to a concept URI to get its Turtle document
const DefaultRegistrySuffix = ".ttl"

// RegistryBackend dereferences concept URIs published by a linked-data
// vocabulary registry
type RegistryBackend struct {
	client *httpclient.Client
	suffix string
}

// RegistryOption configures a RegistryBackend
type RegistryOption func(*RegistryBackend)

// WithSuffix sets the suffix appended to concept URIs
func WithSuffix(suffix string) RegistryOption {
	return func(b *RegistryBackend) {
		b.suffix = suffix
	}
}

// NewRegistryBackend creates a registry backend. A nil client gets defaults.
func NewRegistryBackend(client *httpclient.Client, opts ...RegistryOption) *RegistryBackend {
	if client == nil {
		client = httpclient.New()
	}
	b := &RegistryBackend{client: client, suffix: DefaultRegistrySuffix}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Kind implements Backend
func (b *RegistryBackend) Kind() domain.SourceKind {
	return domain.SourceRegistry
}

// FetchNarrower implements Backend
func (b *RegistryBackend) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	body, ctype, err := b.client.Get(ctx, uri+b.suffix, codec.MediaTurtle)
	if err != nil {
		return nil, err
	}
	return parseResponse(body, ctype, codec.NewTurtleCodec(), uri)
}
