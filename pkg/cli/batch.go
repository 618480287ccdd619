package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/duynguyendang/decviz/pkg/render"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) batchCommand() *cobra.Command {
	var (
		outDir string
		jobs   int
		noSVG  bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compile and render every catalog example",
		Long: `Writes <id>.dot and <id>.svg for every example in the catalog to the
output directory, rendering up to --jobs examples at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
			}
			catalog, err := a.loadExamples()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}

			var renderer render.Renderer
			if !noSVG {
				renderer = a.newRenderer(a.cfg.Render)
			}
			svc := service.NewGraphService(renderer, nil)

			var written atomic.Int32
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)

			for _, ex := range catalog.All() {
				g.Go(func() error {
					req := service.Request{DomainLanguage: ex.DomainLanguage, VisualLanguage: ex.VisualLanguage}
					res, err := svc.Compile(ctx, req, false)
					if err != nil {
						return fmt.Errorf("example %s: %w", ex.ID, err)
					}
					if err := os.WriteFile(filepath.Join(outDir, ex.ID+".dot"), []byte(res.GraphvizDot+"\n"), 0o644); err != nil {
						return err
					}
					if !noSVG {
						svg, err := svc.Render(ctx, res.GraphvizDot)
						if err != nil {
							return fmt.Errorf("example %s: %w", ex.ID, err)
						}
						if err := os.WriteFile(filepath.Join(outDir, ex.ID+".svg"), []byte(svg), 0o644); err != nil {
							return err
						}
					}
					written.Add(1)
					slog.Debug("example written", "id", ex.ID)
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d examples to %s\n", written.Load(), outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "number of examples rendered concurrently")
	cmd.Flags().BoolVar(&noSVG, "no-svg", false, "only write DOT files")
	return cmd
}
