package cli

import (
	"fmt"
	"io"

	"github.com/duynguyendang/decviz/pkg/render"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/spf13/cobra"
)

func (a *app) renderCommand() *cobra.Command {
	var (
		engineName string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "render <dot-file>",
		Short: "Render a DOT file to SVG",
		Long: `Renders DOT text to SVG with the Graphviz binary from the config.
The engine comes from --engine, else from a layout=X; statement in the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dot, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			renderer := a.newRenderer(a.cfg.Render)
			var svg string
			if engineName != "" {
				engine, ok := render.ParseEngine(engineName)
				if !ok {
					return fmt.Errorf("unknown engine %q, want one of %v", engineName, render.Engines)
				}
				svg, err = renderer.Render(cmd.Context(), dot, engine)
			} else {
				svg, err = service.NewGraphService(renderer, nil).Render(cmd.Context(), dot)
			}
			if err != nil {
				return err
			}

			return writeOutput(cmd, output, func(w io.Writer) error {
				_, err := io.WriteString(w, svg)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "layout engine: dot, neato, fdp, sfdp, twopi or circo")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
