package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/modmap/internal/api"
	"github.com/dgallion1/modmap/internal/config"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/ingest"
	"github.com/dgallion1/modmap/internal/pipeline"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the modmap HTTP server",
	Long: `Start the modmap HTTP server.

The server accepts manual uploads for synchronous parsing or queued
background jobs, and can additionally watch drop directories for new
manuals when watch_dirs is configured.

Examples:
  modmap serve                 # Start on the configured port (default 8090)
  modmap serve --port 3000     # Override the port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		cfg, err := config.Load(cfgFile)
		if err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}
		if servePort != "" {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}

		client, err := extract.NewFromConfig(cfg.Extract())
		if err != nil {
			log.Error("no extraction backend", "error", err)
			return err
		}
		stats := extract.NewStats(client.Name(), time.Hour)

		orch := pipeline.NewOrchestrator(cfg, client, stats, log)
		orch.Start(ctx)

		if len(cfg.WatchDirs) > 0 {
			watcher := ingest.NewWatcher(orch, log, cfg.WatchDirs)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					log.Error("watcher stopped", "error", err)
				}
			}()
		}

		srv := api.NewServer(orch, client, stats, log, cfg)

		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			log.Info("shutting down...")

			orch.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)

			client.Close()
		}()

		log.Info("starting modmap", "port", cfg.Port, "provider", client.Name())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
