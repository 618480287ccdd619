package datalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactStore(t *testing.T) {
	rules := Parse(`
Argument("a");
Attacks("a", "b");
Argument("b");
Node(node_id: x) :- Argument(x);
`)
	fs := NewFactStore(rules)

	assert.Equal(t, [][]Argument{{Str("a")}, {Str("b")}}, fs.Get("Argument"))
	assert.Equal(t, [][]Argument{{Str("a"), Str("b")}}, fs.Get("Attacks"))
	assert.Empty(t, fs.Get("Node"), "rules are not facts")
	assert.Empty(t, fs.Get("Missing"))
	assert.True(t, fs.Has("Attacks"))
	assert.False(t, fs.Has("Missing"))
	assert.Equal(t, []string{"Argument", "Attacks"}, fs.Predicates())
	assert.Equal(t, 3, fs.Len())
}

func TestStripEngineDirectives(t *testing.T) {
	src := "@Engine(\"sqlite\");\nArgument(\"a\");\n@engine(\"clingo\", params: 1)\n"
	assert.Equal(t, "\nArgument(\"a\");\n\n", StripEngineDirectives(src))
}

func TestBuildProgram(t *testing.T) {
	got := BuildProgram("@Engine(\"duckdb\");\nArgument(\"a\");\n", "Node(node_id: x) :- Argument(x);\n@Engine(\"sqlite\");")
	assert.Equal(t, "Argument(\"a\");\n\nNode(node_id: x) :- Argument(x);", got)

	assert.Equal(t, "Argument(\"a\");", BuildProgram("Argument(\"a\");", "  "))
}
