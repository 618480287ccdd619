package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duynguyendang/decviz/pkg/examples"
	"github.com/duynguyendang/decviz/pkg/metrics"
	"github.com/duynguyendang/decviz/pkg/render"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/duynguyendang/decviz/pkg/share"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(_ context.Context, dot string, engine render.Engine) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "<svg data-engine=\"" + string(engine) + "\"></svg>", nil
}

func setupTestServer(t *testing.T, renderer render.Renderer) *Server {
	cfg := share.DefaultConfig("")
	cfg.InMemory = true
	shares, err := share.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { shares.Close() })

	catalog := examples.NewCatalog([]examples.Example{
		{ID: "argumentation", Name: "Argumentation", DomainLanguage: `Argument("a");`, VisualLanguage: `Node(node_id: x) :- Argument(x);`},
	})
	m := metrics.New(nil)
	return NewServer(service.NewGraphService(renderer, m), shares, catalog, m)
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	srv.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := do(srv, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestLogica(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	body := `{
  "domainLanguage": "Attacks(\"a\", \"b\");",
  "visualLanguage": "Edge(source_id: source, target_id: target) :- Attacks(source, target);"
}`
	w := do(srv, "POST", "/v1/logica", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Contains(t, out["graphvizDot"], "\"a\" -> \"b\";")
	tables := out["logicaResults"].(map[string]any)
	edges := tables["edges"].(map[string]any)
	assert.Equal(t, []any{"source_id", "target_id"}, edges["columns"])
	assert.Equal(t, []any{[]any{"a", "b"}}, edges["rows"])
	assert.NotContains(t, out, "d3")

	diags := out["diagnostics"].([]any)
	require.Len(t, diags, 1)
	assert.Equal(t, "no_nodes", diags[0].(map[string]any)["code"])
}

func TestLogicaD3(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := do(srv, "POST", "/v1/logica?format=d3", `{"domainLanguage": "Attacks(\"a\", \"b\");", "visualLanguage": "Edge(source_id: s, target_id: t) :- Attacks(s, t);"}`)
	require.Equal(t, http.StatusOK, w.Code)

	d3 := decode(t, w)["d3"].(map[string]any)
	assert.Len(t, d3["nodes"], 2)
	assert.Len(t, d3["links"], 1)
}

func TestLogicaValidation(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := do(srv, "POST", "/v1/logica", `{"domainLanguage": "  ", "visualLanguage": "Graph(rankdir: \"LR\");"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Domain language is required", decode(t, w)["error"])

	w = do(srv, "POST", "/v1/logica", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w)["error"])
}

func TestDotToSVG(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := do(srv, "POST", "/v1/dot-to-svg", `{"dot": "digraph G {\n  layout=fdp;\n}"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `<svg data-engine="fdp"></svg>`, decode(t, w)["svg"])

	w = do(srv, "POST", "/v1/dot-to-svg", `{"dot": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DOT string is required", decode(t, w)["error"])

	w = do(srv, "POST", "/v1/dot-to-svg", `{"dot": 42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDotToSVGRenderFailure(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{err: &render.RenderError{Message: "syntax error in line 1"}})

	w := do(srv, "POST", "/v1/dot-to-svg", `{"dot": "digraph {"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "render with dot: syntax error in line 1", decode(t, w)["error"])
}

func TestShare(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	payload := `{"entries":[{"id":"1","domainLanguage":"Argument(\"a\");","visualLanguage":"","annotation":"hi"}]}`
	w := do(srv, "POST", "/v1/share", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)
	assert.Len(t, id, share.IDLength)

	w = do(srv, "GET", "/v1/share?id="+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, payload, w.Body.String())

	w = do(srv, "GET", "/v1/share/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, payload, w.Body.String())
}

func TestShareErrors(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := do(srv, "POST", "/v1/share", `{"entries": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid payload", decode(t, w)["error"])

	w = do(srv, "GET", "/v1/share", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing id", decode(t, w)["error"])

	w = do(srv, "GET", "/v1/share?id=zzzzzzzz", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w)["error"])
}

func TestShareDisabled(t *testing.T) {
	srv := NewServer(service.NewGraphService(stubRenderer{}, nil), nil, nil, nil)

	w := do(srv, "POST", "/v1/share", `{"entries": []}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(srv, "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExamples(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})

	w := do(srv, "GET", "/v1/examples", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["examples"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "argumentation", list[0].(map[string]any)["id"])

	w = do(srv, "GET", "/v1/examples/argumentation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `Argument("a");`, decode(t, w)["domainLanguage"])

	w = do(srv, "GET", "/v1/examples/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestServer(t, stubRenderer{})
	do(srv, "GET", "/health", "")

	w := do(srv, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `decviz_http_requests_total{code="2xx",method="GET",route="/health"} 1`)
}
