package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/duynguyendang/decviz/pkg/common/errors"
	"github.com/duynguyendang/decviz/pkg/datalog"
	"github.com/duynguyendang/decviz/pkg/eval"
	"github.com/duynguyendang/decviz/pkg/export"
	"github.com/duynguyendang/decviz/pkg/metrics"
	"github.com/duynguyendang/decviz/pkg/render"
)

// Request is a program split into its domain and visual parts.
type Request struct {
	DomainLanguage string `json:"domainLanguage"`
	VisualLanguage string `json:"visualLanguage"`
}

// Result is the outcome of compiling a program.
type Result struct {
	GraphvizDot   string            `json:"graphvizDot"`
	LogicaResults eval.Results      `json:"logicaResults"`
	Diagnostics   []eval.Diagnostic `json:"diagnostics"`
	D3            *export.D3Graph   `json:"d3,omitempty"`
}

// Compile runs the whole pure pipeline: strip engine directives, parse,
// evaluate and compile to DOT. It never fails; problems surface as
// diagnostics and empty tables.
func Compile(req Request) *Result {
	program := datalog.BuildProgram(req.DomainLanguage, req.VisualLanguage)
	parsed := datalog.ParseDetailed(program)

	e := eval.New(parsed.Rules)
	tables := e.Evaluate()

	diagnostics := eval.Diagnose(parsed, e, tables)
	if diagnostics == nil {
		diagnostics = []eval.Diagnostic{}
	}

	return &Result{
		GraphvizDot:   export.CompileDOT(tables),
		LogicaResults: tables,
		Diagnostics:   diagnostics,
	}
}

// GraphService compiles programs and renders their DOT output.
type GraphService struct {
	renderer render.Renderer
	metrics  *metrics.Metrics
	d3       *export.D3Transformer
}

// NewGraphService creates a new GraphService. m may be nil.
func NewGraphService(renderer render.Renderer, m *metrics.Metrics) *GraphService {
	return &GraphService{
		renderer: renderer,
		metrics:  m,
		d3:       export.NewD3Transformer(),
	}
}

// Compile validates req and compiles it. withD3 adds the D3 JSON export.
func (s *GraphService) Compile(ctx context.Context, req Request, withD3 bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DomainLanguage) == "" {
		return nil, errors.Invalid("Domain language is required")
	}

	start := time.Now()
	res := Compile(req)
	if withD3 {
		res.D3 = s.d3.Transform(res.LogicaResults)
	}

	codes := make([]string, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		codes[i] = d.Code
	}
	s.metrics.ObserveCompile(!res.LogicaResults.Nodes.IsEmpty(), codes, time.Since(start))

	slog.Debug("compiled program",
		"nodes", len(res.LogicaResults.Nodes.Rows),
		"edges", len(res.LogicaResults.Edges.Rows),
		"diagnostics", len(res.Diagnostics),
	)
	return res, nil
}

// Render converts dot to SVG with the engine named in the DOT text, if any.
func (s *GraphService) Render(ctx context.Context, dot string) (string, error) {
	if strings.TrimSpace(dot) == "" {
		return "", errors.Invalid("DOT string is required")
	}
	if s.renderer == nil {
		return "", errors.Unavailable("Rendering is not configured")
	}

	engine := render.DetectEngine(dot)
	start := time.Now()
	svg, err := s.renderer.Render(ctx, dot, engine)
	s.metrics.ObserveRender(string(engine), err, time.Since(start))
	if err != nil {
		slog.Warn("render failed", "engine", engine, "error", err)
		return "", errors.RenderFailed(err)
	}
	return svg, nil
}

// CompileAndRender compiles req and renders the resulting DOT.
func (s *GraphService) CompileAndRender(ctx context.Context, req Request) (*Result, string, error) {
	res, err := s.Compile(ctx, req, false)
	if err != nil {
		return nil, "", err
	}
	svg, err := s.Render(ctx, res.GraphvizDot)
	if err != nil {
		return res, "", err
	}
	return res, svg, nil
}
