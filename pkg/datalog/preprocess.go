package datalog

import (
	"regexp"
	"strings"
)

// engineDirective matches engine selection lines such as @Engine("sqlite");
// The engine is chosen by the renderer, not by the program.
var engineDirective = regexp.MustCompile(`(?i)@Engine\s*\([^)]*\)[ \t]*;?`)

// StripEngineDirectives removes every @Engine(...) directive from src.
func StripEngineDirectives(src string) string {
	return engineDirective.ReplaceAllString(src, "")
}

// BuildProgram joins the domain and visual sources into one program,
// separated by a blank line, with engine directives removed from both.
func BuildProgram(domain, visual string) string {
	cleanDomain := strings.TrimSpace(StripEngineDirectives(domain))
	cleanVisual := strings.TrimSpace(StripEngineDirectives(visual))
	if cleanVisual == "" {
		return cleanDomain
	}
	return cleanDomain + "\n\n" + cleanVisual
}
