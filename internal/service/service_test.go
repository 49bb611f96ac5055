package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabhub/internal/backend"
	"vocabhub/internal/domain"
	"vocabhub/internal/hierarchy"
	"vocabhub/internal/metrics"
	"vocabhub/internal/repository"
	"vocabhub/internal/repository/sqlite"
)

const rocksTTL = `@prefix skos: <http://www.w3.org/2004/02/skos/core#> .
@prefix dcterms: <http://purl.org/dc/terms/> .
@prefix ex: <http://ex.org/rocks/> .

ex:scheme a skos:ConceptScheme ;
    dcterms:title "Rock types"@en ;
    skos:hasTopConcept ex:igneous , ex:sedimentary .

ex:plutonic skos:broader ex:igneous .
ex:volcanic skos:broader ex:igneous .
ex:granite skos:broader ex:plutonic .
ex:clastic_rock skos:broader ex:sedimentary .
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type fixture struct {
	repo        repository.Repository
	registry    *backend.Registry
	files       *backend.FileBackend
	bus         *EventBus
	events      chan Event
	metrics     *metrics.Metrics
	vocabs      *VocabularyService
	hierarchies *HierarchyService
	dir         string
}

func newFixture(t *testing.T, configured ...domain.Vocabulary) *fixture {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rocks.ttl"), []byte(rocksTTL), 0644))

	files := backend.NewFileBackend(dir, nil, backend.WithFileLogger(quietLogger()))
	require.NoError(t, files.Load(context.Background()))

	f := &fixture{
		repo:     repo,
		registry: backend.NewRegistry(),
		files:    files,
		bus:      NewEventBus(),
		events:   make(chan Event, 16),
		metrics:  metrics.New(),
		dir:      dir,
	}
	f.bus.Subscribe(f.events)

	deps := backend.Deps{Files: files, Metrics: f.metrics, Logger: quietLogger()}
	f.vocabs = NewVocabularyService(repo, f.registry, deps, configured, f.bus)
	f.hierarchies = NewHierarchyService(f.vocabs, f.registry,
		HierarchyOptions{MaxAttempts: 3, Parallelism: 2}, f.metrics, quietLogger())
	return f
}

func (f *fixture) nextEvent(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-f.events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return Event{}
	}
}

// stubBackend serves a fixed narrower map
type stubBackend map[string][]string

func (s stubBackend) Kind() domain.SourceKind { return domain.SourceSPARQL }

func (s stubBackend) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	g := domain.NewGraph()
	for _, child := range s[uri] {
		g.Add(domain.Triple{
			Subject:   domain.IRI(child),
			Predicate: domain.IRI(domain.SKOSBroader),
			Object:    domain.IRI(uri),
		})
	}
	return g, nil
}

type failingBackend struct{ calls int }

func (b *failingBackend) Kind() domain.SourceKind { return domain.SourceRegistry }

func (b *failingBackend) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	b.calls++
	return nil, errors.New("503 from registry")
}

func TestVocabularyServiceSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		domain.Vocabulary{ID: "rocks", Root: "http://ex.org/rocks/igneous"},
		domain.Vocabulary{ID: "soils", Source: domain.SourceSPARQL, Endpoint: "http://vocabs.example.org/sparql"},
	)

	require.NoError(t, f.repo.UpsertVocabulary(ctx, &domain.Vocabulary{ID: "stale", Title: "Gone", Source: domain.SourceFile}))
	require.NoError(t, f.vocabs.Sync(ctx))

	list, err := f.vocabs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "rocks", list[0].ID)
	assert.Equal(t, "Rock types", list[0].Title, "title inherited from the discovered file")
	assert.Equal(t, "http://ex.org/rocks/igneous", list[0].Root, "configured root wins")
	assert.Equal(t, domain.SourceFile, list[0].Source, "source inherited from the discovered file")

	assert.Equal(t, "soils", list[1].ID)
	assert.Equal(t, "soils", list[1].Title)

	assert.Equal(t, []string{"rocks", "soils"}, f.registry.IDs())

	e := f.nextEvent(t)
	assert.Equal(t, EventVocabulariesSynced, e.Type)
}

func TestVocabularyServiceSyncRejectsMissingSource(t *testing.T) {
	f := newFixture(t, domain.Vocabulary{ID: "soils", Root: "http://ex.org/soils/root"})

	err := f.vocabs.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestVocabularyServiceGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.vocabs.Sync(ctx))

	v, err := f.vocabs.Get(ctx, "rocks")
	require.NoError(t, err)
	assert.Equal(t, "http://ex.org/rocks/scheme", v.Root)

	_, err = f.vocabs.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVocabularyServiceReload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.vocabs.Sync(ctx))
	f.nextEvent(t)

	path := filepath.Join(f.dir, "rocks.ttl")
	require.NoError(t, os.Remove(path))
	require.NoError(t, f.vocabs.Reload(ctx, path))

	assert.Equal(t, EventVocabulariesSynced, f.nextEvent(t).Type)
	e := f.nextEvent(t)
	assert.Equal(t, EventVocabularyRemoved, e.Type)

	_, err := f.vocabs.Get(ctx, "rocks")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.registry.IDs())
}

func TestVocabularyServicePurgeCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.repo.PutCachedGraph(ctx, &repository.CachedGraph{
		Source:    "soils",
		URI:       "http://ex.org/soils/loam",
		Payload:   []byte("<http://ex.org/soils/sandy_loam> <http://www.w3.org/2004/02/skos/core#broader> <http://ex.org/soils/loam> .\n"),
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}))

	n, err := f.vocabs.PurgeCache(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, EventCachePurged, f.nextEvent(t).Type)
}

func TestHierarchyServiceFromFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.vocabs.Sync(ctx))

	view, err := f.hierarchies.Hierarchy(ctx, "rocks", "")
	require.NoError(t, err)

	assert.Equal(t, "http://ex.org/rocks/scheme", view.Root)
	var got []string
	for _, n := range view.Nodes {
		got = append(got, n.Label)
	}
	assert.Equal(t, []string{"igneous", "plutonic", "granite", "volcanic", "sedimentary", "clastic rock"}, got)
	assert.Equal(t, []int{1, 2, 3, 2, 1, 2}, depths(view.Nodes))
	assert.True(t, view.Tree.Balanced())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues("rocks", metrics.OutcomeSuccess)))
	assert.Equal(t, 6.0, testutil.ToFloat64(f.metrics.HierarchyNodes.WithLabelValues("rocks")))
}

func TestHierarchyServiceExplicitRoot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.vocabs.Sync(ctx))

	view, err := f.hierarchies.Hierarchy(ctx, "rocks", "http://ex.org/rocks/igneous")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1}, depths(view.Nodes))
}

func TestHierarchyServiceErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		domain.Vocabulary{ID: "loops", Source: domain.SourceSPARQL, Endpoint: "http://x", Root: "http://ex.org/a"},
		domain.Vocabulary{ID: "down", Source: domain.SourceRegistry, Root: "http://ex.org/a"},
		domain.Vocabulary{ID: "rootless", Source: domain.SourceRegistry},
	)
	require.NoError(t, f.vocabs.Sync(ctx))

	f.registry.Register("loops", stubBackend{
		"http://ex.org/a": {"http://ex.org/b"},
		"http://ex.org/b": {"http://ex.org/a"},
	})
	failing := &failingBackend{}
	f.registry.Register("down", failing)

	t.Run("unknown vocabulary", func(t *testing.T) {
		_, err := f.hierarchies.Hierarchy(ctx, "nope", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no root", func(t *testing.T) {
		_, err := f.hierarchies.Hierarchy(ctx, "rootless", "")
		assert.ErrorIs(t, err, ErrNoRoot)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := f.hierarchies.Hierarchy(ctx, "loops", "")
		require.ErrorIs(t, err, ErrHierarchyUnavailable)
		var cycle *hierarchy.CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, "http://ex.org/a", cycle.URI)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues("loops", metrics.OutcomeCycle)))
	})

	t.Run("fetch exhausted", func(t *testing.T) {
		_, err := f.hierarchies.Hierarchy(ctx, "down", "")
		require.ErrorIs(t, err, ErrHierarchyUnavailable)
		var fetchErr *hierarchy.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, 3, failing.calls)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues("down", metrics.OutcomeError)))
	})
}

func TestHierarchyServiceNarrower(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.vocabs.Sync(ctx))

	g, err := f.hierarchies.Narrower(ctx, "rocks", "http://ex.org/rocks/igneous")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"http://ex.org/rocks/plutonic", "http://ex.org/rocks/volcanic"},
		g.Subjects(domain.SKOSBroader, "http://ex.org/rocks/igneous"))

	_, err = f.hierarchies.Narrower(ctx, "nope", "http://ex.org/rocks/igneous")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventBusDropsForSlowSubscribers(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(ch)

	bus.Publish(Event{Type: EventCachePurged})
	bus.Publish(Event{Type: EventVocabulariesSynced})

	assert.Equal(t, EventCachePurged, (<-ch).Type)
	assert.Empty(t, ch)

	var nilBus *EventBus
	assert.NotPanics(t, func() { nilBus.Publish(Event{Type: EventCachePurged}) })
}

func depths(nodes []domain.ConceptNode) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Depth
	}
	return out
}
