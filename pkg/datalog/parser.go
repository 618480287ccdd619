package datalog

import (
	"regexp"
	"strconv"
	"strings"
)

// ArgKind discriminates the two argument forms of a predicate invocation.
type ArgKind int

const (
	// Literal is a positional argument: a string or a number.
	Literal ArgKind = iota
	// Named is a `name: value` argument.
	Named
)

// Argument is a single argument of an atom (e.g. "a", 42 or label: x).
type Argument struct {
	Kind ArgKind
	// Name is set for named arguments only.
	Name string
	// Str holds the string literal, or the value of a named argument.
	Str string
	// Num holds the numeric value when IsNumber is true.
	Num      float64
	IsNumber bool
}

// Str returns a positional string literal.
func Str(s string) Argument {
	return Argument{Kind: Literal, Str: s}
}

// Num returns a positional numeric literal.
func Num(f float64) Argument {
	return Argument{Kind: Literal, Num: f, IsNumber: true}
}

// NamedArg returns a named argument.
func NamedArg(name, value string) Argument {
	return Argument{Kind: Named, Name: name, Str: value}
}

// Text returns the value of the argument as it appears in result tables.
// Numbers use their shortest decimal form (1, 1.5).
func (a Argument) Text() string {
	if a.IsNumber {
		return strconv.FormatFloat(a.Num, 'f', -1, 64)
	}
	return a.Str
}

func (a Argument) String() string {
	if a.Kind == Named {
		return a.Name + ": " + a.Str
	}
	if a.IsNumber {
		return a.Text()
	}
	return strconv.Quote(a.Str)
}

// Atom represents a predicate invocation (e.g. Attacks("a", "b") or Node(node_id: x)).
type Atom struct {
	Predicate string
	Args      []Argument
}

// IsNamed reports whether the atom uses named arguments.
func (a Atom) IsNamed() bool {
	if len(a.Args) == 0 {
		return false
	}
	for _, arg := range a.Args {
		if arg.Kind != Named {
			return false
		}
	}
	return true
}

// Rule is either a ground fact (IsFact, empty Body) or a derivation rule with
// a single body atom. A derivation rule whose body could not be parsed keeps
// its head and has an empty Body.
type Rule struct {
	Head   Atom
	Body   []Atom
	IsFact bool
	// Line is the 1-based source line the rule was read from.
	Line int
}

// SkippedLine is a non-blank, non-comment source line that matched neither
// the fact nor the rule grammar.
type SkippedLine struct {
	Line int
	Text string
}

// ParseResult holds every rule read from a program along with the lines that
// were dropped.
type ParseResult struct {
	Rules   []Rule
	Skipped []SkippedLine
}

// Parse reads a program and returns its rules and facts in source order.
// Blank lines, '#' comments and malformed lines are skipped; parsing never
// fails. Use ParseDetailed to find out which lines were skipped.
func Parse(src string) []Rule {
	return ParseDetailed(src).Rules
}

// ParseDetailed is Parse that also reports skipped lines.
func ParseDetailed(src string) ParseResult {
	var res ParseResult
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, ok := parseLine(line)
		if !ok {
			res.Skipped = append(res.Skipped, SkippedLine{Line: i + 1, Text: line})
			continue
		}
		rule.Line = i + 1
		res.Rules = append(res.Rules, rule)
	}
	return res
}

// parseLine applies the two line grammars:
//
//	fact := ident "(" argList ")" ";"?
//	rule := ident "(" namedArgs ")" ":-" ruleBody ";"?
func parseLine(line string) (Rule, bool) {
	p := &scanner{s: line}
	predicate, argText, ok := p.atom()
	if !ok {
		return Rule{}, false
	}

	p.skipSpace()
	if strings.TrimSpace(strings.TrimPrefix(p.rest(), ";")) == "" {
		return fact(predicate, argText), true
	}

	if !strings.HasPrefix(p.rest(), ":-") {
		return Rule{}, false
	}
	bodyText := strings.TrimSpace(p.rest()[2:])
	bodyText = strings.TrimSpace(strings.TrimSuffix(bodyText, ";"))
	if bodyText == "" {
		return Rule{}, false
	}

	rule := Rule{
		Head: Atom{Predicate: predicate, Args: namedArgs(argText)},
	}
	if body, ok := ruleBody(bodyText); ok {
		rule.Body = []Atom{body}
	}
	return rule, true
}

func fact(predicate, argText string) Rule {
	var args []Argument
	if hasTopLevelColon(argText) {
		args = namedArgs(argText)
	} else {
		args = positionalArgs(argText)
	}
	return Rule{
		Head:   Atom{Predicate: predicate, Args: args},
		IsFact: true,
	}
}

// ruleBody := ident "(" positionalArgs ")"
// Anything after the closing parenthesis (a second atom, a trailing
// conjunction) makes the body unsupported.
func ruleBody(text string) (Atom, bool) {
	p := &scanner{s: text}
	predicate, argText, ok := p.atom()
	if !ok {
		return Atom{}, false
	}
	p.skipSpace()
	if !p.atEnd() {
		return Atom{}, false
	}
	return Atom{Predicate: predicate, Args: positionalArgs(argText)}, true
}

// positionalArgs parses '"a", 2, x' into literals. Quoted tokens are
// strings; unquoted tokens become numbers when they look like one.
func positionalArgs(text string) []Argument {
	pieces := SmartSplit(text)
	args := make([]Argument, 0, len(pieces))
	for _, piece := range pieces {
		args = append(args, literal(piece))
	}
	return args
}

// namedArgs parses 'node_id: x, label: "A"'. Pieces without a colon are dropped.
func namedArgs(text string) []Argument {
	var args []Argument
	for _, piece := range SmartSplit(text) {
		idx := strings.Index(piece, ":")
		if idx == -1 {
			continue
		}
		name := strings.TrimSpace(piece[:idx])
		value := strings.TrimSpace(piece[idx+1:])
		if name == "" || value == "" {
			continue
		}
		args = append(args, NamedArg(name, stripQuotes(value)))
	}
	return args
}

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func literal(token string) Argument {
	token = strings.TrimSpace(token)
	if unquoted := stripQuotes(token); unquoted != token {
		return Str(unquoted)
	}
	if numberPattern.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return Num(f)
		}
	}
	return Str(token)
}

// stripQuotes removes one pair of matching surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// hasTopLevelColon reports whether s contains a ':' outside quotes.
func hasTopLevelColon(s string) bool {
	inQuote := false
	var quoteChar rune
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"' || r == '\'':
			if !inQuote {
				inQuote, quoteChar = true, r
			} else if r == quoteChar {
				inQuote = false
			}
		case r == ':' && !inQuote:
			return true
		}
	}
	return false
}

// SmartSplit splits a string by comma, correctly handling quotes and parentheses.
// e.g. "a, b, 'c,d'" -> ["a", "b", "'c,d'"]
// A quote only closes on the character that opened it, and backslash escapes
// inside quotes are kept as written. A trailing blank piece is dropped.
func SmartSplit(s string) []string {
	var results []string
	var current strings.Builder
	depth := 0
	inQuote := false
	escaped := false
	var quoteChar rune

	for _, r := range s {
		if escaped {
			escaped = false
			current.WriteRune(r)
			continue
		}
		switch r {
		case '\\':
			if inQuote {
				escaped = true
			}
			current.WriteRune(r)
		case '"', '\'':
			if inQuote {
				if r == quoteChar {
					inQuote = false // Close quote
				}
			} else {
				inQuote = true
				quoteChar = r
			}
			current.WriteRune(r)
		case '(':
			if !inQuote {
				depth++
			}
			current.WriteRune(r)
		case ')':
			if !inQuote {
				depth--
			}
			current.WriteRune(r)
		case ',':
			if !inQuote && depth == 0 {
				results = append(results, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if last := strings.TrimSpace(current.String()); last != "" {
		results = append(results, last)
	}
	return results
}

// scanner is a cursor over a single source line.
type scanner struct {
	s   string
	pos int
}

func (p *scanner) atEnd() bool  { return p.pos >= len(p.s) }
func (p *scanner) rest() string { return p.s[p.pos:] }

func (p *scanner) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\r') {
		p.pos++
	}
}

// ident := [A-Za-z_][A-Za-z0-9_]*
func (p *scanner) ident() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && p.pos > start) {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

// atom reads `ident "(" args ")"` and returns the predicate and the raw,
// non-blank argument text. A ')' inside quotes does not close the list; an
// unquoted '(' inside it is not supported.
func (p *scanner) atom() (string, string, bool) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return "", "", false
	}
	p.skipSpace()
	if p.atEnd() || p.s[p.pos] != '(' {
		return "", "", false
	}
	p.pos++

	start := p.pos
	inQuote := false
	escaped := false
	var quoteChar byte
	for ; p.pos < len(p.s); p.pos++ {
		c := p.s[p.pos]
		switch {
		case escaped:
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"' || c == '\'':
			if !inQuote {
				inQuote, quoteChar = true, c
			} else if c == quoteChar {
				inQuote = false
			}
		case !inQuote && c == '(':
			return "", "", false
		case !inQuote && c == ')':
			args := p.s[start:p.pos]
			p.pos++
			if strings.TrimSpace(args) == "" {
				return "", "", false
			}
			return name, args, true
		}
	}
	return "", "", false
}
