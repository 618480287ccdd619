package cli

import (
	"log/slog"
	"time"

	"github.com/duynguyendang/decviz/pkg/metrics"
	"github.com/duynguyendang/decviz/pkg/server"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/duynguyendang/decviz/pkg/share"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			gin.SetMode(a.cfg.Server.Mode)

			catalog, err := a.loadExamples()
			if err != nil {
				return err
			}

			var shares *share.Store
			if a.cfg.Share.Enabled() {
				shareCfg := share.DefaultConfig(a.cfg.Share.DataDir)
				shareCfg.InMemory = a.cfg.Share.InMemory
				shareCfg.TTL = time.Duration(a.cfg.Share.TTL)
				shareCfg.KeyPrefix = a.cfg.Share.KeyPrefix
				shareCfg.MaxPayloadBytes = a.cfg.Share.MaxPayloadBytes
				shares, err = share.Open(shareCfg)
				if err != nil {
					return err
				}
				defer shares.Close()
			} else {
				slog.Info("sharing disabled")
			}

			renderer := a.newRenderer(a.cfg.Render)
			var cacheLen func() int
			if a.cache != nil {
				cacheLen = a.cache.Len
			}
			m := metrics.New(cacheLen)

			srv := server.NewServer(service.NewGraphService(renderer, m), shares, catalog, m)
			return srv.Run(cmd.Context(), a.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
