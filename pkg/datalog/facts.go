package datalog

import "sort"

// FactStore groups the argument lists of ground facts by predicate name,
// keeping the order in which the facts appeared in the source.
type FactStore struct {
	facts map[string][][]Argument
	count int
}

// NewFactStore collects every fact in rules.
func NewFactStore(rules []Rule) *FactStore {
	fs := &FactStore{facts: make(map[string][][]Argument)}
	for _, rule := range rules {
		if !rule.IsFact {
			continue
		}
		fs.facts[rule.Head.Predicate] = append(fs.facts[rule.Head.Predicate], rule.Head.Args)
		fs.count++
	}
	return fs
}

// Get returns the facts recorded under predicate, or nil when there are none.
func (fs *FactStore) Get(predicate string) [][]Argument {
	return fs.facts[predicate]
}

// Has reports whether at least one fact exists for predicate.
func (fs *FactStore) Has(predicate string) bool {
	return len(fs.facts[predicate]) > 0
}

// Predicates returns the fact predicate names in sorted order.
func (fs *FactStore) Predicates() []string {
	names := make([]string, 0, len(fs.facts))
	for name := range fs.facts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of facts.
func (fs *FactStore) Len() int {
	return fs.count
}
