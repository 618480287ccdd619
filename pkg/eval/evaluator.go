// Package eval applies the visual-language rules of a program to its facts.
//
// The engine is deliberately small: each of the recognized head predicates
// is derived from the first rule defining it, and that rule has exactly one
// body atom. Every fact of the body predicate yields one row, with head
// values that name a body variable replaced by the fact's value at the same
// position. There is no unification across atoms, no recursion and no
// union of several rules for the same head.
package eval

import (
	"github.com/duynguyendang/decviz/pkg/datalog"
)

// Recognized head predicates.
const (
	PredGraph   = "Graph"
	PredNode    = "Node"
	PredEdge    = "Edge"
	PredRanking = "Ranking"
)

// HeadPredicates is the closed set of predicates the evaluator produces tables for.
var HeadPredicates = []string{PredGraph, PredNode, PredEdge, PredRanking}

// Evaluator is a request-scoped evaluation context over one parsed program.
type Evaluator struct {
	rules []datalog.Rule
	facts *datalog.FactStore
}

// New builds an evaluator and its fact store for rules.
func New(rules []datalog.Rule) *Evaluator {
	return &Evaluator{
		rules: rules,
		facts: datalog.NewFactStore(rules),
	}
}

// Evaluate is a shortcut for New(rules).Evaluate().
func Evaluate(rules []datalog.Rule) Results {
	return New(rules).Evaluate()
}

// Facts exposes the fact store built from the program.
func (e *Evaluator) Facts() *datalog.FactStore {
	return e.facts
}

// Rules returns the parsed program.
func (e *Evaluator) Rules() []datalog.Rule {
	return e.rules
}

// Evaluate produces the four result tables.
func (e *Evaluator) Evaluate() Results {
	return Results{
		Graph:   e.Table(PredGraph),
		Nodes:   e.Table(PredNode),
		Edges:   e.Table(PredEdge),
		Ranking: e.Table(PredRanking),
	}
}

// Table evaluates a single head predicate. Unknown predicates, missing rules
// and missing data all give an empty table.
func (e *Evaluator) Table(predicate string) Table {
	switch predicate {
	case PredGraph:
		return e.graphTable()
	case PredNode, PredEdge, PredRanking:
		return e.derive(predicate)
	default:
		return EmptyTable()
	}
}

// graphTable reads the first Graph fact. Only the named form describes
// attributes; a positional Graph fact is ignored.
func (e *Evaluator) graphTable() Table {
	facts := e.facts.Get(PredGraph)
	if len(facts) == 0 {
		return EmptyTable()
	}
	first := datalog.Atom{Predicate: PredGraph, Args: facts[0]}
	if !first.IsNamed() {
		return EmptyTable()
	}

	row := newRowBuilder()
	for _, arg := range first.Args {
		row.set(arg.Name, arg.Str)
	}
	return Table{Columns: row.columns, Rows: [][]string{row.values}}
}

// FirstRule returns the first derivation rule (not a fact) for predicate.
func (e *Evaluator) FirstRule(predicate string) (datalog.Rule, bool) {
	for _, rule := range e.rules {
		if rule.Head.Predicate == predicate && !rule.IsFact {
			return rule, true
		}
	}
	return datalog.Rule{}, false
}

func (e *Evaluator) derive(predicate string) Table {
	rule, ok := e.FirstRule(predicate)
	if !ok || len(rule.Body) != 1 || !rule.Head.IsNamed() {
		return EmptyTable()
	}
	body := rule.Body[0]
	bodyFacts := e.facts.Get(body.Predicate)
	if len(bodyFacts) == 0 {
		return EmptyTable()
	}

	// Resolve each head argument once: either a body variable position or a literal.
	bindings := make([]int, len(rule.Head.Args))
	for i, arg := range rule.Head.Args {
		bindings[i] = variableIndex(body.Args, arg.Str)
	}

	var columns []string
	rows := make([][]string, 0, len(bodyFacts))
	for _, fact := range bodyFacts {
		row := newRowBuilder()
		for i, arg := range rule.Head.Args {
			value := arg.Str
			if idx := bindings[i]; idx >= 0 {
				if idx >= len(fact) || fact[idx].Kind != datalog.Literal {
					return EmptyTable()
				}
				value = fact[idx].Text()
			}
			row.set(arg.Name, value)
		}
		columns = row.columns
		rows = append(rows, row.values)
	}
	return Table{Columns: columns, Rows: rows}
}

// variableIndex returns the position of name among the body's string
// tokens, or -1 when the value is a literal. Numeric tokens never act as
// variables. A quoted head value that spells a body variable still binds.
func variableIndex(bodyArgs []datalog.Argument, name string) int {
	for i, arg := range bodyArgs {
		if !arg.IsNumber && arg.Str == name {
			return i
		}
	}
	return -1
}

// rowBuilder keeps the first-seen column order; a repeated name overwrites
// the earlier value in place.
type rowBuilder struct {
	columns []string
	values  []string
	index   map[string]int
}

func newRowBuilder() *rowBuilder {
	return &rowBuilder{index: make(map[string]int)}
}

func (r *rowBuilder) set(column, value string) {
	if i, ok := r.index[column]; ok {
		r.values[i] = value
		return
	}
	r.index[column] = len(r.columns)
	r.columns = append(r.columns, column)
	r.values = append(r.values, value)
}
