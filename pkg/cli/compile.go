package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/spf13/cobra"
)

func (a *app) compileCommand() *cobra.Command {
	var (
		tables    bool
		d3        bool
		exampleID string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "compile [domain-file] [visual-file]",
		Short: "Compile a program to Graphviz DOT",
		Long: `Compiles a domain program and an optional visual program to DOT.

Use "-" to read the domain program from stdin, or --example to compile a
catalog example. Diagnostics are printed to stderr.

Example:
  decviz compile facts.logica visual.logica > graph.dot
  decviz compile --example argumentation --tables`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.programRequest(cmd, args, exampleID)
			if err != nil {
				return err
			}

			svc := service.NewGraphService(nil, nil)
			res, err := svc.Compile(cmd.Context(), req, d3)
			if err != nil {
				return err
			}
			for _, d := range res.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", d.Level, d.Message)
			}

			return writeOutput(cmd, output, func(w io.Writer) error {
				if !tables && !d3 {
					_, err := fmt.Fprintln(w, res.GraphvizDot)
					return err
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}
	cmd.Flags().BoolVar(&tables, "tables", false, "print the result tables and diagnostics as JSON")
	cmd.Flags().BoolVar(&d3, "d3", false, "include the D3 graph in the JSON output")
	cmd.Flags().StringVar(&exampleID, "example", "", "compile the catalog example with this id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func (a *app) programRequest(cmd *cobra.Command, args []string, exampleID string) (service.Request, error) {
	if exampleID != "" {
		if len(args) > 0 {
			return service.Request{}, fmt.Errorf("--example takes no file arguments")
		}
		catalog, err := a.loadExamples()
		if err != nil {
			return service.Request{}, err
		}
		ex, ok := catalog.Get(exampleID)
		if !ok {
			return service.Request{}, fmt.Errorf("example %q not found in %s", exampleID, a.cfg.Examples.Dir)
		}
		return service.Request{DomainLanguage: ex.DomainLanguage, VisualLanguage: ex.VisualLanguage}, nil
	}

	if len(args) == 0 {
		return service.Request{}, fmt.Errorf("a domain file or --example is required")
	}
	var req service.Request
	var err error
	if req.DomainLanguage, err = readInput(cmd, args[0]); err != nil {
		return service.Request{}, err
	}
	if len(args) == 2 {
		if req.VisualLanguage, err = readInput(cmd, args[1]); err != nil {
			return service.Request{}, err
		}
	}
	return req, nil
}

// writeOutput sends write's output to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
