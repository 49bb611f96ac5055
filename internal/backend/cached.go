package backend

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"vocabhub/internal/codec"
	"vocabhub/internal/domain"
	"vocabhub/internal/metrics"
	"vocabhub/internal/repository"
)

// Cache lookup results
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheStale = "stale"
)

// Cached serves narrower graphs from the graph cache while they are younger
// than the TTL, and stores every successful fetch of the wrapped backend.
// Cache failures degrade to a plain fetch.
type Cached struct {
	next    Backend
	cache   repository.GraphCache
	source  string
	ttl     time.Duration
	codec   codec.Codec
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// CacheOption configures Cached
type CacheOption func(*Cached)

// WithCacheMetrics records hits and misses
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cached) {
		c.metrics = m
	}
}

// WithCacheLogger sets the logger
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cached) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cached) {
		c.now = now
	}
}

// NewCached wraps next with the graph cache under the given source key
func NewCached(next Backend, cache repository.GraphCache, source string, ttl time.Duration, opts ...CacheOption) *Cached {
	c := &Cached{
		next:   next,
		cache:  cache,
		source: source,
		ttl:    ttl,
		codec:  codec.NewNTriplesCodec(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind implements Backend
func (c *Cached) Kind() domain.SourceKind {
	return c.next.Kind()
}

// FetchNarrower implements Backend
func (c *Cached) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	if g, ok := c.lookup(ctx, uri); ok {
		return g, nil
	}

	g, err := c.next.FetchNarrower(ctx, uri)
	if err != nil {
		return nil, err
	}
	c.store(ctx, uri, g)
	return g, nil
}

func (c *Cached) lookup(ctx context.Context, uri string) (*domain.Graph, bool) {
	entry, err := c.cache.GetCachedGraph(ctx, c.source, uri)
	if err != nil {
		c.logger.Warn("graph cache read failed", "source", c.source, "uri", uri, "error", err)
		return nil, false
	}
	if entry == nil {
		c.metrics.ObserveCache(cacheMiss)
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) >= c.ttl {
		c.metrics.ObserveCache(cacheStale)
		return nil, false
	}

	g, err := c.codec.Parse(bytes.NewReader(entry.Payload))
	if err != nil {
		c.logger.Warn("discarding unreadable cache entry", "source", c.source, "uri", uri, "error", err)
		return nil, false
	}
	c.metrics.ObserveCache(cacheHit)
	return g, true
}

func (c *Cached) store(ctx context.Context, uri string, g *domain.Graph) {
	if g == nil {
		g = domain.NewGraph()
	}
	var buf bytes.Buffer
	if err := c.codec.Export(g, &buf); err != nil {
		c.logger.Warn("graph cache encode failed", "source", c.source, "uri", uri, "error", err)
		return
	}
	err := c.cache.PutCachedGraph(ctx, &repository.CachedGraph{
		Source:    c.source,
		URI:       uri,
		Payload:   buf.Bytes(),
		FetchedAt: c.now().UTC(),
	})
	if err != nil {
		c.logger.Warn("graph cache write failed", "source", c.source, "uri", uri, "error", err)
	}
}
