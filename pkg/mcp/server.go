package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duynguyendang/decviz/pkg/common/errors"
	"github.com/duynguyendang/decviz/pkg/examples"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	examplesURI  = "decviz://examples"
	referenceURI = "decviz://language/reference"
)

// MCPServer exposes the compile and render pipeline to MCP clients.
type MCPServer struct {
	graph    *service.GraphService
	examples *examples.Catalog
}

// NewServer builds the MCP server with every resource and tool registered.
func NewServer(svc *service.GraphService, catalog *examples.Catalog, version string) *server.MCPServer {
	if catalog == nil {
		catalog = examples.NewCatalog(nil)
	}
	s := server.NewMCPServer(
		"decviz",
		version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)
	ms := &MCPServer{graph: svc, examples: catalog}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			examplesURI,
			"Examples",
			mcp.WithResourceDescription("Ready-made domain and visual programs"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleExamples,
	)

	s.AddResource(
		mcp.NewResource(
			referenceURI,
			"Visual Language Reference",
			mcp.WithResourceDescription("Head predicates and the columns the DOT compiler understands"),
			mcp.WithMIMEType("text/markdown"),
		),
		ms.handleReference,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"compile_graph",
			mcp.WithDescription("Compile a domain program and a visual program into Graphviz DOT."),
			mcp.WithString("domain_language", mcp.Required(), mcp.Description("Facts such as Argument(\"a\"); and Attacks(\"a\", \"b\");")),
			mcp.WithString("visual_language", mcp.Description("Graph, Node, Edge and Ranking rules")),
			mcp.WithBoolean("include_tables", mcp.Description("Also return the evaluated tables and diagnostics as JSON")),
		),
		ms.handleCompileGraph,
	)

	s.AddTool(
		mcp.NewTool(
			"render_graph",
			mcp.WithDescription("Render DOT text to SVG with Graphviz. A layout=X; statement selects the engine."),
			mcp.WithString("dot", mcp.Required(), mcp.Description("The DOT graph description")),
		),
		ms.handleRenderGraph,
	)

	s.AddTool(
		mcp.NewTool(
			"get_example",
			mcp.WithDescription("Get the domain and visual programs of a catalog example."),
			mcp.WithString("id", mcp.Required(), mcp.Description("The example id")),
		),
		ms.handleGetExample,
	)

	return s
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, svc *service.GraphService, catalog *examples.Catalog, version string) error {
	s := NewServer(svc, catalog, version)
	slog.Info("Starting MCP server on Stdio")
	return server.ServeStdio(s)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleExamples(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.MarshalIndent(ms.examples.All(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal examples: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (ms *MCPServer) handleReference(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content := `# Visual Language Reference

Programs are one statement per line, ending with ';'. Lines starting with '#' are comments.

## Facts
- Positional: Argument("a"); Attacks("a", "b"); Level(1, "a, b");
- Named: Graph(rankdir: "LR");

## Rules
Head(col: var, col: "literal") :- Body(var, ...);
The body is a single predicate. Each head column becomes a table column.

## Head predicates
- Graph (named fact): rankdir, layout or engine, bgcolor, fontname, fontsize, splines, overlap, nodesep, ranksep, size, ranks ("same A B; min C").
- Node: node_id, label, shape, style (or border), fontsize, color, fillcolor.
- Edge: source_id, target_id, color, style, dir, arrowhead, arrowtail, label, headlabel, taillabel, fontcolor.
- Ranking: samerank as a JSON list, a ['a', 'b'] list or "a, b".
`
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleCompileGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	domain, ok := args["domain_language"].(string)
	if !ok || strings.TrimSpace(domain) == "" {
		return mcp.NewToolResultError("domain_language argument required"), nil
	}
	visual, _ := args["visual_language"].(string)
	includeTables, _ := args["include_tables"].(bool)

	res, err := ms.graph.Compile(ctx, service.Request{DomainLanguage: domain, VisualLanguage: visual}, false)
	if err != nil {
		return mcp.NewToolResultError(errors.MapError(err).Message), nil
	}

	if !includeTables {
		return mcp.NewToolResultText(res.GraphvizDot), nil
	}

	jsonBytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleRenderGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	dot, ok := args["dot"].(string)
	if !ok {
		return mcp.NewToolResultError("dot argument required"), nil
	}

	svg, err := ms.graph.Render(ctx, dot)
	if err != nil {
		return mcp.NewToolResultError(errors.MapError(err).Message), nil
	}
	return mcp.NewToolResultText(svg), nil
}

func (ms *MCPServer) handleGetExample(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["id"].(string)
	if !ok {
		return mcp.NewToolResultError("id argument required"), nil
	}

	ex, found := ms.examples.Get(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("example %q not found", id)), nil
	}

	jsonBytes, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal example: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
