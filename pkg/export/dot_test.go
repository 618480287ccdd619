package export

import (
	"strings"
	"testing"

	"github.com/duynguyendang/decviz/pkg/datalog"
	"github.com/duynguyendang/decviz/pkg/eval"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func table(columns []string, rows ...[]string) eval.Table {
	return eval.Table{Columns: columns, Rows: rows}
}

func TestCompileDOTEmpty(t *testing.T) {
	assert.Equal(t, "digraph G {\n}", CompileDOT(eval.Results{}))
	empty := eval.Results{
		Graph:   eval.EmptyTable(),
		Nodes:   eval.EmptyTable(),
		Edges:   eval.EmptyTable(),
		Ranking: eval.EmptyTable(),
	}
	assert.Equal(t, "digraph G {\n}", CompileDOT(empty))
}

func TestCompileDOTFromProgram(t *testing.T) {
	src := `
Graph(rankdir: "LR");
Argument("a");
Argument("b");
Attacks("a", "b");
Node(node_id: x, label: x, shape: "circle") :- Argument(x);
Edge(source_id: s, target_id: t) :- Attacks(s, t);
`
	got := CompileDOT(eval.Evaluate(datalog.Parse(src)))
	want := "digraph G {\n" +
		"  rankdir=LR;\n" +
		"\n  node [\n    shape=\"circle\"\n  ];\n\n" +
		"  \"a\" [label=\"a\"];\n" +
		"  \"b\" [label=\"b\"];\n" +
		"\n" +
		"  \"a\" -> \"b\";\n" +
		"}"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompileDOT() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, got, CompileDOT(eval.Evaluate(datalog.Parse(src))), "compilation is idempotent")
}

func TestGraphAttributes(t *testing.T) {
	graph := table(
		[]string{"id", "rankdir", "engine", "bgcolor", "splines", "size", "fontsize", "ranks"},
		[]string{"af", "LR", "neato", "white", "", "7,7", "12", "same A B; min C;  bogus D ; max E"},
	)
	got := CompileDOT(eval.Results{Graph: graph})
	want := "digraph G {\n" +
		"  rankdir=LR;\n" +
		"  layout=neato;\n" +
		"  bgcolor=\"white\";\n" +
		"  fontsize=12;\n" +
		"  size=\"7,7\";\n" +
		"  {rank = same A B}\n" +
		"  {rank = min C}\n" +
		"  {rank = max E}\n" +
		"}"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompileDOT() mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutWinsOverEngine(t *testing.T) {
	got := CompileDOT(eval.Results{Graph: table([]string{"engine", "layout"}, []string{"fdp", "circo"})})
	assert.Contains(t, got, "  layout=circo;\n")
	assert.NotContains(t, got, "fdp")

	got = CompileDOT(eval.Results{Graph: table([]string{"engine", "layout"}, []string{"fdp", ""})})
	assert.NotContains(t, got, "layout=", "an empty layout column does not fall back to engine")
}

func TestNodeAggregation(t *testing.T) {
	t.Run("Shared Values Are Hoisted", func(t *testing.T) {
		nodes := table([]string{"node_id", "shape", "style", "fontsize"},
			[]string{"a", "circle", "filled", "10"},
			[]string{"b", "circle", "filled", "10"},
		)
		got := CompileDOT(eval.Results{Nodes: nodes})
		assert.Equal(t, 1, strings.Count(got, "node ["))
		assert.Contains(t, got, "    shape=\"circle\"\n    style=\"filled\"\n    fontsize=10\n")
		assert.Contains(t, got, "  \"a\";\n")
		assert.Equal(t, 1, strings.Count(got, "shape="))
	})

	t.Run("Differing Values Stay Per Node", func(t *testing.T) {
		nodes := table([]string{"node_id", "shape", "fontsize"},
			[]string{"a", "circle", "10"},
			[]string{"b", "box", "10"},
		)
		got := CompileDOT(eval.Results{Nodes: nodes})
		assert.Contains(t, got, "    fontsize=10\n")
		assert.Contains(t, got, "  \"a\" [shape=\"circle\"];\n")
		assert.Contains(t, got, "  \"b\" [shape=\"box\"];\n")
		assert.Equal(t, 2, strings.Count(got, "shape="))
	})

	t.Run("Empty Value Is Not Shared", func(t *testing.T) {
		nodes := table([]string{"node_id", "shape"}, []string{"a", ""}, []string{"b", ""})
		got := CompileDOT(eval.Results{Nodes: nodes})
		assert.NotContains(t, got, "node [")
		assert.NotContains(t, got, "shape=")
	})
}

func TestNodeColorsAreNeverAggregated(t *testing.T) {
	nodes := table([]string{"node_id", "color", "fillcolor"},
		[]string{"a", "red", "pink"},
		[]string{"b", "red", "pink"},
	)
	got := CompileDOT(eval.Results{Nodes: nodes})
	assert.NotContains(t, got, "node [")
	assert.Equal(t, 2, strings.Count(got, "color=\"red\""))
	assert.Contains(t, got, "  \"a\" [color=\"red\", fillcolor=\"pink\"];\n")
}

func TestNodeLines(t *testing.T) {
	tests := []struct {
		name  string
		nodes eval.Table
		want  string
	}{
		{
			name:  "Bare Declaration",
			nodes: table([]string{"node_id"}, []string{"a"}),
			want:  "  \"a\";\n",
		},
		{
			name:  "Missing Id",
			nodes: table([]string{"label"}, []string{"x"}, []string{"y"}),
			want:  "  \"unknown\" [label=\"x\"];\n",
		},
		{
			name:  "Border Maps To Style",
			nodes: table([]string{"node_id", "border"}, []string{"a", "dashed"}, []string{"b", "solid"}),
			want:  "  \"a\" [style=\"dashed\"];\n",
		},
		{
			name:  "Per Node Font Size Is Quoted",
			nodes: table([]string{"node_id", "fontsize"}, []string{"a", "10"}, []string{"b", "12"}),
			want:  "  \"b\" [fontsize=\"12\"];\n",
		},
		{
			name:  "Attribute Order",
			nodes: table([]string{"fillcolor", "color", "shape", "node_id", "label"}, []string{"pink", "red", "box", "a", "A"}, []string{"white", "red", "oval", "b", "B"}),
			want:  "  \"a\" [label=\"A\", shape=\"box\", color=\"red\", fillcolor=\"pink\"];\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, CompileDOT(eval.Results{Nodes: tt.nodes}), tt.want)
		})
	}
}

func TestRanking(t *testing.T) {
	ranking := table([]string{"len", "samerank"},
		[]string{"1", `["a", "b"]`},
		[]string{"2", `['T', 'A']`},
		[]string{"3", `x, y`},
		[]string{"4", ``},
		[]string{"5", `[]`},
		[]string{"6", `[["x"]]`},
	)
	got := CompileDOT(eval.Results{Ranking: ranking})
	want := "digraph G {\n" +
		"\n" +
		"  { rank=same; a; b; }\n" +
		"  { rank=same; T; A; }\n" +
		"  { rank=same; x; y; }\n" +
		"}"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompileDOT() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSameRank(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`["a","b"]`, []string{"a", "b"}},
		{`[1, 2]`, []string{"1", "2"}},
		{`["\"q\""]`, []string{"q"}},
		{`['T', "A"]`, []string{"T", "A"}},
		{`rank ['x'] tail`, []string{"x"}},
		{`a, b ,, c`, []string{"a", "b", "c"}},
		{`single`, []string{"single"}},
		{``, nil},
		{`[]`, nil},
		{`[["x"]]`, nil},
		{`[ ]`, nil},
		{`['', ""]`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSameRank(tt.input))
		})
	}
}

func TestEdges(t *testing.T) {
	edges := table([]string{"source_id", "target_id", "label", "color", "headlabel", "weight"},
		[]string{"a", "b", "x", "red", "h", "3"},
		[]string{"b", "", "", "", "", ""},
	)
	got := CompileDOT(eval.Results{Edges: edges})
	assert.Contains(t, got, "  \"a\" -> \"b\" [color=\"red\", label=\"x\", headlabel=\"h\"];\n")
	assert.Contains(t, got, "  \"b\" -> \"unknown\";\n")
	assert.NotContains(t, got, "weight")
}
