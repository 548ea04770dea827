package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/modmap/internal/config"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/ingest"
	"github.com/dgallion1/modmap/internal/pipeline"
)

var watchOut string

var watchCmd = &cobra.Command{
	Use:   "watch <dir> [dir...]",
	Short: "Watch directories and extract register maps from dropped manuals",
	Long: `Watch one or more directories for new manuals and extract a register
map from each, without running the HTTP server. Results are written as
CSV and JSON files named after the manual.

Examples:
  modmap watch ./inbox                   # results land next to each manual
  modmap watch ./inbox --out ./results   # results land in ./results`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		client, err := extract.NewFromConfig(cfg.Extract())
		if err != nil {
			return err
		}
		defer client.Close()
		stats := extract.NewStats(client.Name(), time.Hour)

		if watchOut != "" {
			if err := os.MkdirAll(watchOut, 0o755); err != nil {
				return err
			}
		}

		sink := &fileSink{
			worker: pipeline.NewWorker(client, stats, log, cfg.Assemble(), cfg.PageAnalyzers),
			ctx:    ctx,
			outDir: watchOut,
			log:    log,
		}
		watcher := ingest.NewWatcher(sink, log, args)

		log.Info("watching for manuals", "dirs", strings.Join(args, ","))
		return watcher.Run(ctx)
	},
}

// fileSink runs each dropped manual through the pipeline and writes the
// results to disk.
type fileSink struct {
	worker *pipeline.Worker
	ctx    context.Context
	outDir string
	log    *slog.Logger
}

func (s *fileSink) Submit(job *pipeline.Job) error {
	go func() {
		s.worker.Process(s.ctx, job)
		res := job.Result()
		if res == nil {
			s.log.Error("extraction failed", "filename", job.Filename)
			return
		}

		stem := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
		dir := s.outDir
		base := filepath.Join(dir, stem)
		if err := os.WriteFile(base+".csv", []byte(res.CSVData), 0o644); err != nil {
			s.log.Error("failed to write csv", "path", base+".csv", "error", err)
			return
		}
		if err := os.WriteFile(base+".json", []byte(res.JSONData), 0o644); err != nil {
			s.log.Error("failed to write json", "path", base+".json", "error", err)
			return
		}
		s.log.Info("wrote results",
			"csv", base+".csv",
			"json", base+".json",
			"registers", len(res.Registers),
		)
		fmt.Fprintf(os.Stderr, "%s: %d registers\n", job.Filename, len(res.Registers))
	}()
	return nil
}

func init() {
	watchCmd.Flags().StringVar(&watchOut, "out", "", "directory for results (default: current directory)")

	rootCmd.AddCommand(watchCmd)
}
