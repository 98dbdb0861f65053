package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/conciliar-dev/conciliar/internal/api"
	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/history"
	"github.com/conciliar-dev/conciliar/internal/importer"
	"github.com/conciliar-dev/conciliar/internal/normalize"
	"github.com/conciliar-dev/conciliar/internal/pipeline"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reconciliation over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, log, err := g.load(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config: %w", err)
				}
			}
			return runServe(ctx, cfg, log)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port; overrides config")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var runs history.Recorder
	opts := []pipeline.Option{}
	if cfg.History.Path != "" {
		store, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		runs = store
		opts = append(opts, pipeline.WithRecorder(store))
	}

	svc := pipeline.NewService(
		importer.DefaultRegistry(),
		normalize.New(normalize.WithScale(cfg.Reconcile.AmountScale)),
		opts...,
	)
	server := api.NewServer(api.ConfigFrom(cfg.Server), svc, runs, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-quit:
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	if err := server.Start(); err != nil {
		return err
	}
	<-done
	return nil
}
