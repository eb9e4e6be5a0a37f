package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhpenta/nailgen"
	"github.com/mhpenta/nailgen/internal/httpapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the image and nail design API, Prometheus metrics and the static UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := nailgen.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}

		cascade, err := cfg.NewCascade(ctx, logger, metrics)
		if err != nil {
			return err
		}
		defer cascade.Close()

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpapi.NewHandler(cascade, httpapi.Options{
				PublicDir:    cfg.Server.PublicDir,
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				Gatherer:     reg,
				Logger:       logger,
			}),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening",
				"addr", srv.Addr,
				"public_dir", cfg.Server.PublicDir,
				"template_chain", cascade.Chain(true),
				"text_chain", cascade.Chain(false),
			)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err.Error())
				return srv.Close()
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr and PORT)")
}
