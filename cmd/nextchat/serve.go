package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if listen != "" {
				a.cfg.Listen = listen
			}
			if !opts.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := server.New(a.cfg, a.conv, a.settings, a.cache, a.images, a.logger.Named("server"))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting nextchat server",
				zap.String("config", opts.configPath),
				zap.String("storage", a.cfg.Storage.Type),
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
