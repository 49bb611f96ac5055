package hierarchy

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"vocabhub/internal/domain"
)

// DefaultMaxAttempts is the fetch budget per concept URI
const DefaultMaxAttempts = 10

// Fetcher returns the graph describing the direct narrower concepts of uri.
// Implementations must be safe to call repeatedly for the same URI.
type Fetcher interface {
	FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, uri string) (*domain.Graph, error)

// FetchNarrower calls f
func (f FetcherFunc) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	return f(ctx, uri)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMaxAttempts sets how many times a single fetch is tried
func WithMaxAttempts(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithParallelism bounds the number of concurrent fetches. Values below 2
// keep resolution strictly sequential.
func WithParallelism(n int) Option {
	return func(r *Resolver) {
		r.parallelism = n
	}
}

// WithFetchTimeout bounds each individual fetch attempt. Zero means no limit
// beyond the caller's context.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.fetchTimeout = d
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver reconstructs the transitive narrower tree below a root concept.
// It holds no state between calls; concurrent Resolve calls are independent.
type Resolver struct {
	fetcher      Fetcher
	maxAttempts  int
	parallelism  int
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewResolver creates a resolver over the given fetcher
func NewResolver(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:     f,
		maxAttempts: DefaultMaxAttempts,
		parallelism: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the depth-tagged pre-order sequence of every concept below
// rootURI. The root's direct narrower concepts have depth 1 and each sibling
// group is sorted by label. Any terminal fetch failure or cycle fails the
// whole resolution; no partial sequence is returned.
func (r *Resolver) Resolve(ctx context.Context, rootURI string) ([]domain.ConceptNode, error) {
	root, err := r.ResolveTree(ctx, rootURI)
	if err != nil {
		return nil, err
	}
	return domain.Flatten(root), nil
}

// ResolveTree returns the resolved hierarchy as a tree. The returned root has
// depth 0 and owns the depth-1 concepts as children.
func (r *Resolver) ResolveTree(ctx context.Context, rootURI string) (*domain.Concept, error) {
	w := &walk{Resolver: r}
	if r.parallelism > 1 {
		w.sem = make(chan struct{}, r.parallelism)
	}

	root := domain.NewConcept(rootURI, "", 0)
	if err := w.expand(ctx, root, &ancestry{uri: rootURI}); err != nil {
		return nil, err
	}
	return root, nil
}

// Narrower fetches the direct narrower concepts of uri under the same retry
// policy as a full resolution. The result holds only (child, skos:broader,
// uri) triples.
func (r *Resolver) Narrower(ctx context.Context, uri string) (*domain.Graph, error) {
	w := &walk{Resolver: r}
	g, err := w.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	out := domain.NewGraph()
	for _, s := range g.Subjects(domain.SKOSBroader, uri) {
		out.Add(domain.Triple{Subject: domain.IRI(s), Predicate: domain.IRI(domain.SKOSBroader), Object: domain.IRI(uri)})
	}
	return out, nil
}

// ancestry is the active recursion path, innermost first
type ancestry struct {
	uri    string
	parent *ancestry
}

func (a *ancestry) contains(uri string) bool {
	for p := a; p != nil; p = p.parent {
		if p.uri == uri {
			return true
		}
	}
	return false
}

// uris returns the path from the root down to a
func (a *ancestry) uris() []string {
	var out []string
	for p := a; p != nil; p = p.parent {
		out = append(out, p.uri)
	}
	slices.Reverse(out)
	return out
}

// walk is the state of one ResolveTree call
type walk struct {
	*Resolver
	sem chan struct{} // nil when sequential
}

func (w *walk) expand(ctx context.Context, c *domain.Concept, path *ancestry) error {
	children, err := w.narrower(ctx, c)
	if err != nil {
		return err
	}
	c.Children = children

	if w.sem == nil {
		for _, child := range children {
			if path.contains(child.URI) {
				return &CycleError{URI: child.URI, Path: append(path.uris(), child.URI)}
			}
			if err := w.expand(ctx, child, &ancestry{uri: child.URI, parent: path}); err != nil {
				return err
			}
		}
		return nil
	}

	// Each child fills its own slot, so sibling order is unaffected by
	// completion order.
	for _, child := range children {
		if path.contains(child.URI) {
			return &CycleError{URI: child.URI, Path: append(path.uris(), child.URI)}
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, child := range children {
		g.Go(func() error {
			return w.expand(gctx, child, &ancestry{uri: child.URI, parent: path})
		})
	}
	return g.Wait()
}

// narrower fetches and orders the direct narrower concepts of c
func (w *walk) narrower(ctx context.Context, c *domain.Concept) ([]*domain.Concept, error) {
	if w.sem != nil {
		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, &FetchError{URI: c.URI, Err: ctx.Err()}
		}
		defer func() { <-w.sem }()
	}

	g, err := w.fetch(ctx, c.URI)
	if err != nil {
		return nil, err
	}

	subjects := g.Subjects(domain.SKOSBroader, c.URI)
	children := make([]*domain.Concept, 0, len(subjects))
	for _, s := range subjects {
		children = append(children, domain.NewConcept(s, c.URI, c.Depth+1))
	}
	slices.SortFunc(children, func(a, b *domain.Concept) int {
		if n := strings.Compare(a.Label, b.Label); n != 0 {
			return n
		}
		return strings.Compare(a.URI, b.URI)
	})
	return children, nil
}

// fetch loads the narrower graph of uri, retrying back to back until the
// attempt budget is spent
func (w *walk) fetch(ctx context.Context, uri string) (*domain.Graph, error) {
	var (
		g       *domain.Graph
		attempt int
	)

	op := func() error {
		attempt++
		got, err := w.attempt(ctx, uri)
		if err != nil {
			w.logger.Warn("failed to load narrower graph",
				"uri", uri,
				"attempt", attempt,
				"max_attempts", w.maxAttempts,
				"error", err)
			return err
		}
		if got == nil {
			got = domain.NewGraph()
		}
		g = got
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(w.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, &FetchError{URI: uri, Attempts: attempt, Err: err}
	}

	if attempt > 1 {
		w.logger.Info("loaded narrower graph after retries", "uri", uri, "attempts", attempt)
	}
	return g, nil
}

func (w *walk) attempt(ctx context.Context, uri string) (*domain.Graph, error) {
	if w.fetchTimeout <= 0 {
		return w.fetcher.FetchNarrower(ctx, uri)
	}
	ctx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	defer cancel()
	return w.fetcher.FetchNarrower(ctx, uri)
}
