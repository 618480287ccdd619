package export

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/duynguyendang/decviz/pkg/eval"
)

// graphAttribute is a Graph table column emitted as a DOT graph attribute.
type graphAttribute struct {
	name   string
	quoted bool
}

// graphAttributes is the allow-list of graph attributes, in output order.
// layout is handled separately because it falls back to the engine column.
var graphAttributes = []graphAttribute{
	{"rankdir", false},
	{"layout", false},
	{"bgcolor", true},
	{"fontname", true},
	{"fontsize", false},
	{"fontcolor", true},
	{"splines", false},
	{"overlap", false},
	{"sep", false},
	{"margin", false},
	{"pad", false},
	{"dpi", false},
	{"size", true},
	{"ratio", false},
	{"concentrate", false},
	{"compound", false},
	{"nodesep", false},
	{"ranksep", false},
	{"esep", false},
	{"ordering", false},
	{"outputorder", false},
	{"pack", false},
	{"packmode", false},
	{"remincross", false},
	{"searchsize", false},
	{"style", true},
	{"truecolor", false},
	{"viewport", true},
	{"xdotversion", true},
}

// aggregatableNodeKeys may be hoisted into a shared node [...] block when
// every node agrees. Colors are never hoisted so individually colored nodes
// stay individually colored.
var aggregatableNodeKeys = []string{"shape", "style", "fontsize"}

// edgeAttributes is the edge vocabulary, in output order.
var edgeAttributes = []string{"color", "style", "dir", "arrowhead", "arrowtail", "label", "headlabel", "taillabel", "fontcolor"}

// CompileDOT renders the four result tables as a Graphviz digraph. Missing
// tables or columns simply leave their section out; it never fails.
func CompileDOT(res eval.Results) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	writeGraphAttributes(&b, res.Graph)
	writeNodes(&b, res.Nodes)
	writeRanking(&b, res.Ranking)
	writeEdges(&b, res.Edges)
	b.WriteString("}")
	return b.String()
}

func writeGraphAttributes(b *strings.Builder, graph eval.Table) {
	if graph.IsEmpty() {
		return
	}
	for _, attr := range graphAttributes {
		value := graph.Value(0, attr.name)
		if attr.name == "layout" && !graph.Has("layout") {
			// Graph(engine: "neato") predates the layout attribute.
			value = graph.Value(0, "engine")
		}
		if value == "" {
			continue
		}
		if attr.quoted {
			value = `"` + value + `"`
		}
		b.WriteString("  " + attr.name + "=" + value + ";\n")
	}
	writeRankConstraints(b, graph.Value(0, "ranks"))
}

// writeRankConstraints expands a ranks value such as "same A B; min C".
func writeRankConstraints(b *strings.Builder, ranks string) {
	for _, group := range strings.Split(ranks, ";") {
		group = strings.TrimSpace(group)
		for _, kind := range []string{"same", "min", "max"} {
			rest, ok := strings.CutPrefix(group, kind+" ")
			if !ok {
				continue
			}
			if nodes := strings.Fields(rest); len(nodes) > 0 {
				b.WriteString("  {rank = " + kind + " " + strings.Join(nodes, " ") + "}\n")
			}
		}
	}
}

func writeNodes(b *strings.Builder, nodes eval.Table) {
	if nodes.IsEmpty() {
		return
	}

	common := commonNodeValues(nodes)
	var shared []string
	for _, key := range aggregatableNodeKeys {
		value, ok := common[key]
		if !ok {
			continue
		}
		if key == "fontsize" {
			shared = append(shared, key+"="+value)
		} else {
			shared = append(shared, key+`="`+value+`"`)
		}
	}
	if len(shared) > 0 {
		b.WriteString("\n  node [\n")
		for _, attr := range shared {
			b.WriteString("    " + attr + "\n")
		}
		b.WriteString("  ];\n\n")
	}

	for i := range nodes.Rows {
		id := nodes.Value(i, "node_id")
		if id == "" {
			id = "unknown"
		}

		var attrs []string
		add := func(key, value string) {
			if value != "" {
				attrs = append(attrs, key+`="`+value+`"`)
			}
		}
		add("label", nodes.Value(i, "label"))
		if _, ok := common["shape"]; !ok {
			add("shape", nodes.Value(i, "shape"))
		}
		if _, ok := common["style"]; !ok {
			if nodes.Has("style") {
				add("style", nodes.Value(i, "style"))
			} else {
				// border is the older name of style.
				add("style", nodes.Value(i, "border"))
			}
		}
		if _, ok := common["fontsize"]; !ok {
			add("fontsize", nodes.Value(i, "fontsize"))
		}
		add("color", nodes.Value(i, "color"))
		add("fillcolor", nodes.Value(i, "fillcolor"))

		if len(attrs) > 0 {
			b.WriteString(`  "` + id + `" [` + strings.Join(attrs, ", ") + "];\n")
		} else {
			b.WriteString(`  "` + id + "\";\n")
		}
	}
	b.WriteString("\n")
}

// commonNodeValues returns the aggregatable keys whose non-empty value is
// shared by every node row.
func commonNodeValues(nodes eval.Table) map[string]string {
	common := make(map[string]string)
	for _, key := range aggregatableNodeKeys {
		if !nodes.Has(key) {
			continue
		}
		first := nodes.Value(0, key)
		if first == "" {
			continue
		}
		same := true
		for i := 1; i < len(nodes.Rows); i++ {
			if nodes.Value(i, key) != first {
				same = false
				break
			}
		}
		if same {
			common[key] = first
		}
	}
	return common
}

func writeRanking(b *strings.Builder, ranking eval.Table) {
	if ranking.IsEmpty() {
		return
	}
	b.WriteString("\n")
	for i := range ranking.Rows {
		nodes := ParseSameRank(ranking.Value(i, "samerank"))
		if len(nodes) > 0 {
			b.WriteString("  { rank=same; " + strings.Join(nodes, "; ") + "; }\n")
		}
	}
}

var bracketedList = regexp.MustCompile(`\[(.*?)\]`)

// ParseSameRank reads a samerank value, trying in order a JSON array, a
// Python-style list such as "['T', 'A']" and a plain comma separated list.
// A value that is a JSON array, or wrapped in brackets, never falls back to
// the comma split; when it holds no names it yields no group.
func ParseSameRank(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var items []any
	if err := json.Unmarshal([]byte(value), &items); err == nil {
		var nodes []string
		for _, item := range items {
			if name := trimQuotes(jsonScalar(item), `"`); name != "" {
				nodes = append(nodes, name)
			}
		}
		return nodes
	}

	bracketed := strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]")
	if m := bracketedList.FindStringSubmatch(value); m != nil {
		var nodes []string
		for _, item := range strings.Split(m[1], ",") {
			name := trimQuotes(trimQuotes(strings.TrimSpace(item), "'"), `"`)
			if name != "" {
				nodes = append(nodes, name)
			}
		}
		if len(nodes) > 0 || bracketed {
			return nodes
		}
	}
	if bracketed {
		return nil
	}

	var nodes []string
	for _, item := range strings.Split(value, ",") {
		if name := strings.TrimSpace(item); name != "" {
			nodes = append(nodes, name)
		}
	}
	return nodes
}

func jsonScalar(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func trimQuotes(s, quote string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, quote), quote)
}

func writeEdges(b *strings.Builder, edges eval.Table) {
	for i := range edges.Rows {
		source := edges.Value(i, "source_id")
		if source == "" {
			source = "unknown"
		}
		target := edges.Value(i, "target_id")
		if target == "" {
			target = "unknown"
		}

		var attrs []string
		for _, key := range edgeAttributes {
			if value := edges.Value(i, key); value != "" {
				attrs = append(attrs, key+`="`+value+`"`)
			}
		}

		b.WriteString(`  "` + source + `" -> "` + target + `"`)
		if len(attrs) > 0 {
			b.WriteString(" [" + strings.Join(attrs, ", ") + "]")
		}
		b.WriteString(";\n")
	}
}
