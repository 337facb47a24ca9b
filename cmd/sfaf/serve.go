package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/sfaf-etl/internal/adapter/http"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		flags outputFlags
		addr  string
	)
	cmd := &cobra.Command{
		Use:   "serve <input.sfaf>",
		Short: "Convert an SFAF file, then serve the records over HTTP",
		Long: `serve runs the same conversion as convert and keeps the accepted records in
memory behind a read-only API until interrupted:

  GET /healthz  /readyz  /metrics
  GET /api/v1/records[?agency=&band=&station_class=&min_frequency=&max_frequency=&offset=&limit=]
  GET /api/v1/records/{serial}
  GET /api/v1/report
  GET /api/v1/summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyOutputFlags(cmd, &flags); err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTPAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, args[0])
		},
	}
	addOutputFlags(cmd, &flags)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}

func (a *app) serve(ctx context.Context, input string) error {
	store := httpadapter.NewStore()
	conv, err := a.newConversion(input, store)
	if err != nil {
		return err
	}

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, conv.pipeline, store, conv.pipeline, conv.collector, a.logger)
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	rep, runErr := conv.run(ctx)
	if runErr == nil {
		a.logger.Info("serving records", "addr", a.cfg.HTTPAddr, "accepted", rep.Accepted)
		select {
		case <-ctx.Done():
		case err := <-srvErr:
			runErr = err
		}
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	a.logger.Info("shutdown complete")
	return runErr
}
