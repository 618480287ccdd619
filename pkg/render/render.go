// Package render turns DOT text into SVG using the Graphviz command line tools.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/duynguyendang/decviz/pkg/common/errors"
)

// Engine is a Graphviz layout engine.
type Engine string

const (
	Dot   Engine = "dot"
	Neato Engine = "neato"
	Fdp   Engine = "fdp"
	Sfdp  Engine = "sfdp"
	Twopi Engine = "twopi"
	Circo Engine = "circo"
)

// Engines lists every supported layout engine.
var Engines = []Engine{Dot, Neato, Fdp, Sfdp, Twopi, Circo}

// ParseEngine matches name case-insensitively against the supported engines.
func ParseEngine(name string) (Engine, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range Engines {
		if string(e) == name {
			return e, true
		}
	}
	return "", false
}

var layoutStatement = regexp.MustCompile(`\b(layout|engine)\s*=\s*(\w+)\s*;`)

// DetectEngine returns the engine named by the first layout=X; or engine=X;
// statement in dot. It returns "" when there is none or the name is not a
// supported engine, leaving the choice to the renderer.
func DetectEngine(dot string) Engine {
	m := layoutStatement.FindStringSubmatch(dot)
	if m == nil {
		return ""
	}
	e, _ := ParseEngine(m[2])
	return e
}

// Renderer converts DOT text to SVG.
type Renderer interface {
	Render(ctx context.Context, dot string, engine Engine) (string, error)
}

// RenderError describes a failed Graphviz invocation.
type RenderError struct {
	Engine  Engine
	Message string
	Err     error
}

func (e *RenderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("render with %s: %s", e.engineName(), e.Message)
	}
	return fmt.Sprintf("render with %s: %v", e.engineName(), e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is reports every RenderError as errors.ErrRender.
func (e *RenderError) Is(target error) bool { return target == errors.ErrRender }

func (e *RenderError) engineName() string {
	if e.Engine == "" {
		return string(Dot)
	}
	return string(e.Engine)
}

// CommandRenderer runs the Graphviz binary with the DOT text on stdin.
type CommandRenderer struct {
	// Binary is the path or name of the Graphviz executable, "dot" by default.
	Binary string
	// Timeout bounds a single invocation; zero means only ctx applies.
	Timeout time.Duration
}

// NewCommandRenderer creates a CommandRenderer.
func NewCommandRenderer(binary string, timeout time.Duration) *CommandRenderer {
	if binary == "" {
		binary = "dot"
	}
	return &CommandRenderer{Binary: binary, Timeout: timeout}
}

// Render implements Renderer.
func (r *CommandRenderer) Render(ctx context.Context, dot string, engine Engine) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := []string{"-Tsvg"}
	if engine != "" {
		args = append(args, "-K"+string(engine))
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdin = strings.NewReader(dot)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &RenderError{Engine: engine, Err: ctxErr}
		}
		return "", &RenderError{Engine: engine, Message: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}
