package hierarchy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabhub/internal/domain"
)

const ns = "http://ex.org/voc/"

// fakeSource serves narrower graphs from an adjacency map and can fail the
// first N fetches of selected URIs
type fakeSource struct {
	mu       sync.Mutex
	narrower map[string][]string
	failures map[string]int // remaining failures per URI; -1 fails forever
	calls    map[string]int
}

func newFakeSource(narrower map[string][]string) *fakeSource {
	return &fakeSource{
		narrower: narrower,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

var errTransient = errors.New("connection reset")

func (f *fakeSource) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	f.mu.Lock()
	f.calls[uri]++
	remaining := f.failures[uri]
	if remaining > 0 {
		f.failures[uri] = remaining - 1
	}
	f.mu.Unlock()

	if remaining != 0 {
		return nil, errTransient
	}

	g := domain.NewGraph()
	for _, child := range f.narrower[uri] {
		g.Add(domain.Triple{
			Subject:   domain.IRI(child),
			Predicate: domain.IRI(domain.SKOSBroader),
			Object:    domain.IRI(uri),
		})
	}
	// unrelated assertion that must be ignored
	g.Add(domain.Triple{
		Subject:   domain.IRI(uri),
		Predicate: domain.IRI(domain.SKOSBroader),
		Object:    domain.IRI(ns + "elsewhere"),
	})
	return g, nil
}

func (f *fakeSource) callCount(uri string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[uri]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func rockHierarchy() map[string][]string {
	return map[string][]string{
		ns + "root":    {ns + "sedimentary", ns + "igneous", ns + "metamorphic"},
		ns + "igneous": {ns + "plutonic", ns + "volcanic"},
		ns + "plutonic": {
			ns + "granite", ns + "Gabbro", ns + "diorite",
		},
		ns + "volcanic":    {ns + "basalt"},
		ns + "sedimentary": {ns + "clastic_rock"},
	}
}

func uris(nodes []domain.ConceptNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.URI)
	}
	return out
}

func TestResolve(t *testing.T) {
	src := newFakeSource(rockHierarchy())
	r := NewResolver(src, WithLogger(quietLogger()))

	nodes, err := r.Resolve(context.Background(), ns+"root")
	require.NoError(t, err)

	t.Run("pre-order with sorted siblings", func(t *testing.T) {
		assert.Equal(t, []string{
			ns + "igneous",
			ns + "plutonic",
			ns + "Gabbro",
			ns + "diorite",
			ns + "granite",
			ns + "volcanic",
			ns + "basalt",
			ns + "metamorphic",
			ns + "sedimentary",
			ns + "clastic_rock",
		}, uris(nodes))
	})

	t.Run("depth is parent depth plus one", func(t *testing.T) {
		depthOf := map[string]int{ns + "root": 0}
		for _, n := range nodes {
			parentDepth, ok := depthOf[n.ParentURI]
			require.True(t, ok, "parent %s of %s not seen before it", n.ParentURI, n.URI)
			assert.Equal(t, parentDepth+1, n.Depth, n.URI)
			depthOf[n.URI] = n.Depth
		}
		assert.Equal(t, 1, nodes[0].Depth)
	})

	t.Run("sibling groups sorted by label", func(t *testing.T) {
		groups := make(map[string][]string)
		for _, n := range nodes {
			groups[n.ParentURI] = append(groups[n.ParentURI], n.Label)
		}
		for parent, labels := range groups {
			assert.IsIncreasing(t, labels, parent)
		}
	})

	t.Run("labels derive from URIs", func(t *testing.T) {
		assert.Equal(t, "clastic rock", nodes[len(nodes)-1].Label)
	})

	t.Run("idempotent", func(t *testing.T) {
		again, err := r.Resolve(context.Background(), ns+"root")
		require.NoError(t, err)
		assert.Equal(t, nodes, again)
	})
}

func TestResolveEmpty(t *testing.T) {
	r := NewResolver(newFakeSource(nil), WithLogger(quietLogger()))

	nodes, err := r.Resolve(context.Background(), ns+"leaf")
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestResolveRetry(t *testing.T) {
	t.Run("succeeds on the last attempt", func(t *testing.T) {
		src := newFakeSource(map[string][]string{ns + "root": {ns + "a"}})
		src.failures[ns+"root"] = 9

		nodes, err := NewResolver(src, WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
		require.NoError(t, err)
		assert.Equal(t, []string{ns + "a"}, uris(nodes))
		assert.Equal(t, 10, src.callCount(ns+"root"))
	})

	t.Run("fails after ten attempts", func(t *testing.T) {
		src := newFakeSource(map[string][]string{ns + "root": {ns + "a"}})
		src.failures[ns+"root"] = -1

		nodes, err := NewResolver(src, WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
		require.Error(t, err)
		assert.Nil(t, nodes)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, ns+"root", fetchErr.URI)
		assert.Equal(t, 10, fetchErr.Attempts)
		assert.ErrorIs(t, err, errTransient)
		assert.Contains(t, err.Error(), "(10)")
		assert.Equal(t, 10, src.callCount(ns+"root"))
	})

	t.Run("custom attempt budget", func(t *testing.T) {
		src := newFakeSource(nil)
		src.failures[ns+"root"] = -1

		_, err := NewResolver(src, WithMaxAttempts(3), WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
		require.Error(t, err)
		assert.Equal(t, 3, src.callCount(ns+"root"))
	})

	t.Run("each attempt is logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		src := newFakeSource(nil)
		src.failures[ns+"root"] = 2

		_, err := NewResolver(src, WithLogger(logger)).Resolve(context.Background(), ns+"root")
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "attempt=1")
		assert.Contains(t, out, "attempt=2")
		assert.NotContains(t, out, "attempt=3")
		assert.Contains(t, out, "attempts=3")
	})
}

func TestResolveSubtreeFailureAbortsResolution(t *testing.T) {
	src := newFakeSource(rockHierarchy())
	src.failures[ns+"volcanic"] = -1

	nodes, err := NewResolver(src, WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
	require.Error(t, err)
	assert.Nil(t, nodes)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ns+"volcanic", fetchErr.URI)
	assert.Equal(t, 0, src.callCount(ns+"sedimentary"), "siblings after the failure are not visited")
}

func TestResolveCycle(t *testing.T) {
	src := newFakeSource(map[string][]string{
		ns + "root": {ns + "a"},
		ns + "a":    {ns + "b"},
		ns + "b":    {ns + "a"},
	})

	_, err := NewResolver(src, WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, ns+"a", cycleErr.URI)
	assert.Equal(t, []string{ns + "root", ns + "a", ns + "b", ns + "a"}, cycleErr.Path)

	t.Run("self loop", func(t *testing.T) {
		src := newFakeSource(map[string][]string{ns + "root": {ns + "root"}})
		_, err := NewResolver(src, WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
		require.ErrorAs(t, err, &cycleErr)
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		src := newFakeSource(map[string][]string{
			ns + "root": {ns + "a", ns + "b"},
			ns + "a":    {ns + "shared"},
			ns + "b":    {ns + "shared"},
		})
		nodes, err := NewResolver(src, WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
		require.NoError(t, err)
		assert.Equal(t, []string{ns + "a", ns + "shared", ns + "b", ns + "shared"}, uris(nodes))
	})
}

func TestResolveParallelMatchesSequential(t *testing.T) {
	adj := make(map[string][]string)
	for i := 0; i < 6; i++ {
		parent := fmt.Sprintf("%sn%d", ns, i)
		adj[ns+"root"] = append(adj[ns+"root"], parent)
		for j := 0; j < 5; j++ {
			child := fmt.Sprintf("%s_%d", parent, j)
			adj[parent] = append(adj[parent], child)
			adj[child] = []string{child + "_leaf"}
		}
	}

	seq, err := NewResolver(newFakeSource(adj), WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
	require.NoError(t, err)

	par, err := NewResolver(newFakeSource(adj), WithParallelism(4), WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Len(t, par, 6+6*5+6*5)

	t.Run("failure still aborts", func(t *testing.T) {
		src := newFakeSource(adj)
		src.failures[ns+"n3_2"] = -1
		nodes, err := NewResolver(src, WithParallelism(4), WithLogger(quietLogger())).Resolve(context.Background(), ns+"root")
		require.Error(t, err)
		assert.Nil(t, nodes)
	})
}

func TestResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newFakeSource(nil)
	src.failures[ns+"root"] = -1

	_, err := NewResolver(src, WithLogger(quietLogger())).Resolve(ctx, ns+"root")
	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Less(t, src.callCount(ns+"root"), 10)
}

func TestResolveTree(t *testing.T) {
	src := newFakeSource(rockHierarchy())
	root, err := NewResolver(src, WithLogger(quietLogger())).ResolveTree(context.Background(), ns+"root")
	require.NoError(t, err)

	assert.Equal(t, 0, root.Depth)
	require.Len(t, root.Children, 3)
	assert.Equal(t, "igneous", root.Children[0].Label)
	assert.Equal(t, 10, root.Size())
	assert.Equal(t, 1, src.callCount(ns+"granite"), "leaves are fetched once to learn they have no children")
}

func TestNarrower(t *testing.T) {
	src := newFakeSource(rockHierarchy())
	src.failures[ns+"igneous"] = 2

	g, err := NewResolver(src, WithLogger(quietLogger())).Narrower(context.Background(), ns+"igneous")
	require.NoError(t, err)
	assert.Equal(t, []string{ns + "plutonic", ns + "volcanic"}, g.Subjects(domain.SKOSBroader, ns+"igneous"))
	assert.Equal(t, 2, g.Len(), "unrelated assertions are dropped")
	assert.Equal(t, 3, src.callCount(ns+"igneous"))
}

func TestFetchTimeoutAppliesPerAttempt(t *testing.T) {
	var calls int
	slow := FetcherFunc(func(ctx context.Context, uri string) (*domain.Graph, error) {
		calls++
		if calls < 3 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return domain.NewGraph(), nil
	})

	_, err := NewResolver(slow, WithFetchTimeout(10*time.Millisecond), WithLogger(quietLogger())).
		Resolve(context.Background(), ns+"root")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
