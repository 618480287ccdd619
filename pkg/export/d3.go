package export

import (
	"github.com/duynguyendang/decviz/pkg/eval"
)

// D3Node represents a node in the D3 force-directed graph.
type D3Node struct {
	ID       string            `json:"id"`                 // node_id
	Name     string            `json:"name"`               // Display name (label, falling back to the id)
	Group    string            `json:"group,omitempty"`    // Grouping for visualization (group, then shape)
	Implicit bool              `json:"implicit,omitempty"` // Only referenced by an edge
	Metadata map[string]string `json:"metadata,omitempty"` // Remaining non-empty columns
}

// D3Link represents a link/edge in the D3 force-directed graph.
type D3Link struct {
	Source   string            `json:"source"`
	Target   string            `json:"target"`
	Relation string            `json:"relation,omitempty"` // Edge label
	Metadata map[string]string `json:"metadata,omitempty"`
}

// D3Graph represents the full graph structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// D3Transformer handles the conversion of result tables to D3 graph format.
type D3Transformer struct {
	// IgnoredColumns are left out of node and link metadata.
	IgnoredColumns map[string]bool
}

// NewD3Transformer creates a transformer that omits the identity columns from metadata.
func NewD3Transformer() *D3Transformer {
	return &D3Transformer{
		IgnoredColumns: map[string]bool{
			"node_id":   true,
			"source_id": true,
			"target_id": true,
			"label":     true,
			"group":     true,
		},
	}
}

// Transform converts the Node and Edge tables into a D3Graph. Edge endpoints
// with no Node row are added as implicit nodes, in edge order.
func (t *D3Transformer) Transform(res eval.Results) *D3Graph {
	graph := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}}
	known := make(map[string]bool)

	for i := range res.Nodes.Rows {
		id := res.Nodes.Value(i, "node_id")
		if id == "" || known[id] {
			continue
		}
		known[id] = true

		name := res.Nodes.Value(i, "label")
		if name == "" {
			name = id
		}
		group := res.Nodes.Value(i, "group")
		if group == "" {
			group = res.Nodes.Value(i, "shape")
		}
		graph.Nodes = append(graph.Nodes, D3Node{
			ID:       id,
			Name:     name,
			Group:    group,
			Metadata: t.metadata(res.Nodes, i),
		})
	}

	for i := range res.Edges.Rows {
		source := res.Edges.Value(i, "source_id")
		target := res.Edges.Value(i, "target_id")
		if source == "" || target == "" {
			continue
		}
		for _, id := range []string{source, target} {
			if !known[id] {
				known[id] = true
				graph.Nodes = append(graph.Nodes, D3Node{ID: id, Name: id, Implicit: true})
			}
		}
		graph.Links = append(graph.Links, D3Link{
			Source:   source,
			Target:   target,
			Relation: res.Edges.Value(i, "label"),
			Metadata: t.metadata(res.Edges, i),
		})
	}
	return graph
}

func (t *D3Transformer) metadata(tbl eval.Table, row int) map[string]string {
	var meta map[string]string
	for _, col := range tbl.Columns {
		if t.IgnoredColumns[col] {
			continue
		}
		if v := tbl.Value(row, col); v != "" {
			if meta == nil {
				meta = make(map[string]string)
			}
			meta[col] = v
		}
	}
	return meta
}
