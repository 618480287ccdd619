package eval

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/duynguyendang/decviz/pkg/datalog"
)

// Level is the severity of a Diagnostic.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Diagnostic codes.
const (
	CodeSkippedLine      = "skipped_line"
	CodeUnknownHead      = "unknown_head"
	CodeShadowedRule     = "shadowed_rule"
	CodeEmptyBody        = "empty_body"
	CodeMissingBodyFacts = "missing_body_facts"
	CodeNoNodes          = "no_nodes"
	CodeNoEdges          = "no_edges"
)

// Diagnostic is a user-facing note about a program. Diagnostics never stop
// evaluation; they explain why a table came out empty.
type Diagnostic struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// maxSuggestionDistance bounds the edit distance of a "did you mean" hint.
const maxSuggestionDistance = 2

// Diagnose inspects a parsed program and its evaluated tables.
func Diagnose(parsed datalog.ParseResult, e *Evaluator, res Results) []Diagnostic {
	var out []Diagnostic

	for _, skipped := range parsed.Skipped {
		out = append(out, Diagnostic{
			Level:   LevelWarning,
			Code:    CodeSkippedLine,
			Message: fmt.Sprintf("line %d is neither a fact nor a rule and was ignored: %s", skipped.Line, skipped.Text),
			Line:    skipped.Line,
		})
	}

	seen := make(map[string]int)
	for _, rule := range e.Rules() {
		head := rule.Head.Predicate
		if !isHeadPredicate(head) {
			// Positional facts are ordinary domain data; only rules and
			// attribute-style facts look like misspelled heads.
			if rule.IsFact && !rule.Head.IsNamed() {
				continue
			}
			if suggestion := Suggest(head, HeadPredicates); suggestion != "" {
				out = append(out, Diagnostic{
					Level:   LevelWarning,
					Code:    CodeUnknownHead,
					Message: fmt.Sprintf("%s is not a recognized predicate, did you mean %s?", head, suggestion),
					Line:    rule.Line,
				})
			}
			continue
		}
		if rule.IsFact {
			continue
		}
		seen[head]++
		if seen[head] == 2 {
			out = append(out, Diagnostic{
				Level:   LevelInfo,
				Code:    CodeShadowedRule,
				Message: fmt.Sprintf("only the first %s rule is evaluated; later ones are ignored", head),
				Line:    rule.Line,
			})
		}
	}

	for _, head := range []string{PredNode, PredEdge, PredRanking} {
		rule, ok := e.FirstRule(head)
		if !ok {
			continue
		}
		if len(rule.Body) != 1 {
			out = append(out, Diagnostic{
				Level:   LevelWarning,
				Code:    CodeEmptyBody,
				Message: fmt.Sprintf("the %s rule body must be a single predicate such as Argument(x)", head),
				Line:    rule.Line,
			})
			continue
		}
		body := rule.Body[0].Predicate
		if e.Facts().Has(body) {
			continue
		}
		msg := fmt.Sprintf("the %s rule reads %s, which has no facts", head, body)
		if suggestion := Suggest(body, e.Facts().Predicates()); suggestion != "" {
			msg += fmt.Sprintf(", did you mean %s?", suggestion)
		}
		out = append(out, Diagnostic{
			Level:   LevelWarning,
			Code:    CodeMissingBodyFacts,
			Message: msg,
			Line:    rule.Line,
		})
	}

	if res.Nodes.IsEmpty() {
		out = append(out, Diagnostic{
			Level:   LevelWarning,
			Code:    CodeNoNodes,
			Message: `No nodes found: define node facts such as Argument("a"); and a Node(node_id: x) :- Argument(x); rule`,
		})
	}
	if res.Edges.IsEmpty() {
		out = append(out, Diagnostic{
			Level:   LevelWarning,
			Code:    CodeNoEdges,
			Message: `No edges found: define edge facts such as Attacks("a", "b"); and an Edge(source_id: s, target_id: t) :- Attacks(s, t); rule`,
		})
	}
	return out
}

// Suggest returns the candidate closest to name by case-insensitive edit
// distance, or "" when name already matches exactly or nothing is close.
func Suggest(name string, candidates []string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		if c == name {
			return ""
		}
		dist := levenshtein.Distance(lower, strings.ToLower(c), nil)
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

func isHeadPredicate(name string) bool {
	for _, p := range HeadPredicates {
		if p == name {
			return true
		}
	}
	return false
}
