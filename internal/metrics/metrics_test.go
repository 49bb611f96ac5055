package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch("sparql", nil)
	m.ObserveFetch("sparql", errors.New("boom"))
	m.ObserveFetch("sparql", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("sparql", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("sparql", OutcomeError)))
}

func TestObserveResolution(t *testing.T) {
	m := New()
	m.ObserveResolution("rocks", OutcomeSuccess, 20*time.Millisecond, 12)
	m.ObserveResolution("rocks", OutcomeError, time.Second, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("rocks", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("rocks", OutcomeError)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.HierarchyNodes.WithLabelValues("rocks")), "failures keep the last node count")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("file", nil)
		m.ObserveCache("hit")
		m.ObserveResolution("rocks", OutcomeSuccess, time.Millisecond, 1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCache("hit")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `vocabhub_graph_cache_lookups_total{result="hit"} 1`)
}
