package backend

import (
	"context"

	"vocabhub/internal/domain"
	"vocabhub/internal/metrics"
)

// Instrumented counts fetch attempts and their outcomes per backend kind
type Instrumented struct {
	next    Backend
	metrics *metrics.Metrics
}

// NewInstrumented wraps next. A nil Metrics records nothing.
func NewInstrumented(next Backend, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

// Kind implements Backend
func (i *Instrumented) Kind() domain.SourceKind {
	return i.next.Kind()
}

// FetchNarrower implements Backend
func (i *Instrumented) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	g, err := i.next.FetchNarrower(ctx, uri)
	i.metrics.ObserveFetch(string(i.next.Kind()), err)
	return g, err
}
