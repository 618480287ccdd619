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

func TestObserve(t *testing.T) {
	m := New(func() int { return 3 })

	m.ObserveRequest("/v1/logica", "POST", 200, time.Millisecond)
	m.ObserveRequest("/v1/logica", "POST", 400, time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)
	m.ObserveCompile(false, []string{"no_nodes", "no_edges"}, time.Millisecond)
	m.ObserveRender("", errors.New("boom"), time.Millisecond)
	m.ObserveShare("save", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/logica", "POST", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/logica", "POST", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compiles.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.diagnostics.WithLabelValues("no_nodes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("default", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shares.WithLabelValues("save", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.renderCache))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.ObserveCompile(true, nil, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, string(body), `decviz_compiles_total{result="graph"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
	assert.NotContains(t, string(body), "decviz_render_cache_entries")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/health", "GET", 200, 0)
		m.ObserveCompile(true, nil, 0)
		m.ObserveRender("dot", nil, 0)
		m.ObserveShare("load", nil)
	})
	assert.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, w.Code)
}
