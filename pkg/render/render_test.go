package render

import (
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duynguyendang/decviz/pkg/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDetectEngine(t *testing.T) {
	tests := []struct {
		name string
		dot  string
		want Engine
	}{
		{"None", "digraph G {\n}", ""},
		{"Layout", "digraph G {\n  layout=neato;\n}", Neato},
		{"Engine Keyword", "digraph G { engine = fdp ; }", Fdp},
		{"Upper Case Value", "digraph G { layout=CIRCO; }", Circo},
		{"First Wins", "digraph G { layout=twopi; engine=sfdp; }", Twopi},
		{"Unknown Engine", "digraph G { layout=osage; }", ""},
		{"Missing Semicolon", "digraph G { layout=neato }", ""},
		{"Attribute Suffix", "digraph G { xlayout=neato; }", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEngine(tt.dot))
		})
	}
}

func TestParseEngine(t *testing.T) {
	e, ok := ParseEngine(" Dot ")
	assert.True(t, ok)
	assert.Equal(t, Dot, e)

	_, ok = ParseEngine("patchwork")
	assert.False(t, ok)
}

func TestRenderErrorIsErrRender(t *testing.T) {
	err := error(&RenderError{Engine: Neato, Message: "syntax error in line 1"})
	assert.ErrorIs(t, err, errors.ErrRender)
	assert.Equal(t, "render with neato: syntax error in line 1", err.Error())

	var renderErr *RenderError
	assert.True(t, stderrors.As(err, &renderErr))
}

func TestCommandRendererMissingBinary(t *testing.T) {
	r := NewCommandRenderer("/nonexistent/graphviz/dot", time.Second)
	_, err := r.Render(context.Background(), "digraph G {\n}", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRender)
}

func TestCommandRendererGraphviz(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("graphviz is not installed")
	}
	r := NewCommandRenderer("", 10*time.Second)

	svg, err := r.Render(context.Background(), "digraph G {\n  \"a\" -> \"b\";\n}", Dot)
	require.NoError(t, err)
	assert.Contains(t, svg, "<svg")

	_, err = r.Render(context.Background(), "digraph G { a -> ", Dot)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRender)
}

type countingRenderer struct {
	calls atomic.Int32
	fail  bool
}

func (r *countingRenderer) Render(_ context.Context, dot string, engine Engine) (string, error) {
	r.calls.Add(1)
	if r.fail {
		return "", &RenderError{Engine: engine, Message: "boom"}
	}
	return "<svg>" + string(engine) + ":" + strings.TrimSpace(dot) + "</svg>", nil
}

func TestCachedRenderer(t *testing.T) {
	next := &countingRenderer{}
	r := NewCachedRenderer(next, 8, 0)
	ctx := context.Background()

	first, err := r.Render(ctx, "digraph G {}", Dot)
	require.NoError(t, err)
	second, err := r.Render(ctx, "digraph G {}", Dot)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load())

	// The engine is part of the key.
	_, err = r.Render(ctx, "digraph G {}", Neato)
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 2, r.Len())
}

func TestCachedRendererDoesNotCacheFailures(t *testing.T) {
	next := &countingRenderer{fail: true}
	r := NewCachedRenderer(next, 8, 0)

	for range 2 {
		_, err := r.Render(context.Background(), "digraph G {}", Dot)
		assert.ErrorIs(t, err, errors.ErrRender)
	}
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, r.Len())
}

func TestCachedRendererEvicts(t *testing.T) {
	next := &countingRenderer{}
	r := NewCachedRenderer(next, 1, 0)
	ctx := context.Background()

	_, _ = r.Render(ctx, "a", Dot)
	_, _ = r.Render(ctx, "b", Dot)
	_, _ = r.Render(ctx, "a", Dot)
	assert.Equal(t, int32(3), next.calls.Load())
	assert.Equal(t, 1, r.Len())
}
