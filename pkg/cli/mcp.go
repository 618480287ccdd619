package cli

import (
	"github.com/duynguyendang/decviz/pkg/mcp"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/spf13/cobra"
)

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.loadExamples()
			if err != nil {
				return err
			}
			svc := service.NewGraphService(a.newRenderer(a.cfg.Render), nil)
			return mcp.Run(cmd.Context(), svc, catalog, Version)
		},
	}
}
