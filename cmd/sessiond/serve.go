package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sessiond/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(o *options, defaultAddr string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP API",
		Example: "  sessiond serve --model ./model.onnx --multi-thread --init-on-start",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return err
			}
			mgr, eng, err := buildManager(cfg, log, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpapi.SetLogger(log)
			httpapi.SetBaseContext(ctx)
			httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
			httpapi.SetRunTimeout(time.Duration(cfg.RunTimeoutSeconds) * time.Second)
			httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

			if cfg.InitOnStart {
				go func() {
					if err := mgr.Init(ctx); err != nil {
						log.Error().Err(err).Msg("init on start failed")
					}
				}()
			}

			srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(mgr), ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("model", cfg.Session.Model).Str("provider", cfg.Session.ExecutionProvider).Msg("sessiond listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			if err := mgr.Release(sctx); err != nil {
				log.Warn().Err(err).Msg("release on shutdown")
			}
			if err := eng.Shutdown(); err != nil {
				log.Warn().Err(err).Msg("runtime shutdown")
			}
			log.Info().Msg("sessiond stopped")
			return serveErr
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", defaultAddr, "HTTP listen address, e.g. :8080 (defaults SESSIOND_ADDR)")
	f.Int64Var(&o.maxBodyBytes, "max-body-bytes", 0, "Maximum JSON request body size in bytes")
	f.StringVar(&o.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS when set")
	f.IntVar(&o.runTimeout, "run-timeout-seconds", 0, "Upper bound for a single POST /run (0 = none)")
	f.BoolVar(&o.initOnStart, "init-on-start", false, "Create the session at startup instead of on POST /init")
	return cmd
}
