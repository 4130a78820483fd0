package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/forcegraph/server"
	"github.com/TFMV/forcegraph/viewer"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live, draggable view of the graph",
		Long:  "Mounts the graph in a viewer, runs the simulation and serves the browser client, event stream and gesture API over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			graph, err := loadGraph(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := server.NewHub()
			opts := viewer.Options{
				Layout:          layoutOptions(cfg),
				Output:          outputOptions(cfg, "json"),
				DragAlphaTarget: cfg.Simulation.DragAlphaTarget,
				TickInterval:    cfg.Server.TickInterval,
				Navigator:       hub,
			}
			v := viewer.New(graph, opts, logger.Named("viewer"))
			if err := v.Mount(ctx); err != nil {
				return err
			}

			srvCfg := server.DefaultConfig()
			srvCfg.Addr = cfg.Server.Addr
			srv := server.NewServer(srvCfg, v, hub, logger.Named("server"))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err := srv.Stop(shutdownCtx)
				if uerr := v.Unmount(); uerr != nil {
					logger.Warn("unmount", zap.Error(uerr))
				}
				return err
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default from config, :8080)")
	return cmd
}
