// Package cli implements the decviz command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duynguyendang/decviz/pkg/config"
	"github.com/duynguyendang/decviz/pkg/examples"
	"github.com/duynguyendang/decviz/pkg/render"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

// app carries state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
	stderr     io.Writer

	// newRenderer is replaced in tests.
	newRenderer func(cfg config.RenderConfig) render.Renderer
	// cache is set when newRenderer built a cached renderer.
	cache *render.CachedRenderer
}

func defaultRenderer(a *app) func(cfg config.RenderConfig) render.Renderer {
	return func(cfg config.RenderConfig) render.Renderer {
		cmd := render.NewCommandRenderer(cfg.DotBinary, time.Duration(cfg.Timeout))
		if cfg.CacheSize <= 0 {
			return cmd
		}
		a.cache = render.NewCachedRenderer(cmd, cfg.CacheSize, time.Duration(cfg.CacheTTL))
		return a.cache
	}
}

// NewRootCommand builds the decviz command tree.
func NewRootCommand() *cobra.Command {
	a := &app{stderr: os.Stderr}
	a.newRenderer = defaultRenderer(a)
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "decviz",
		Short: "decviz - declarative graph visualization",
		Long: `decviz compiles facts and Datalog-style rules into Graphviz DOT.

A program has two parts: the domain language holds facts such as
Argument("a"); and the visual language maps them onto Graph, Node, Edge
and Ranking rules. Run "decviz serve" for the HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if err := config.SetupLogging(cfg.Logging, a.stderr); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		a.serveCommand(),
		a.compileCommand(),
		a.renderCommand(),
		a.batchCommand(),
		a.mcpCommand(),
		a.versionCommand(),
	)
	return root
}

// Execute runs the command line with signal-aware cancellation.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the decviz version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "decviz", Version)
			return err
		},
	}
}

func (a *app) loadExamples() (*examples.Catalog, error) {
	return examples.Load(a.cfg.Examples.Dir)
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
