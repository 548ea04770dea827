package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/modmap/internal/config"
	"github.com/dgallion1/modmap/internal/docread"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/pipeline"
	"github.com/dgallion1/modmap/internal/register"
)

var (
	parseFormat string
	parseOut    string
	parseTitle  string
)

var parseCmd = &cobra.Command{
	Use:   "parse <manual>",
	Short: "Extract a register map from a single manual",
	Long: `Extract a register map from a single manual and write it out.

Examples:
  modmap parse manual.pdf                        # writes manual.csv
  modmap parse manual.pdf --format xlsx          # writes manual.xlsx
  modmap parse manual.pdf --format json --out -  # JSON to stdout`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

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

		reader, err := docread.ForFile(path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		doc, err := reader.Read(f, filepath.Base(path))
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if parseTitle != "" {
			doc.Title = parseTitle
		}

		res, err := pipeline.ParseDocument(cmd.Context(), doc, client, stats, log, cfg.Assemble(), cfg.PageAnalyzers)
		if err != nil {
			return err
		}
		log.Info("extraction complete", "registers", len(res.Registers))

		out := parseOut
		if out == "" {
			out = strings.TrimSuffix(path, filepath.Ext(path)) + "." + parseFormat
		}

		var data []byte
		switch parseFormat {
		case "csv":
			data = []byte(res.CSVData)
		case "json":
			data = []byte(res.JSONData)
		case "xlsx":
			data, err = register.ToXLSX(res.Registers)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want csv, json, or xlsx)", parseFormat)
		}

		if out == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d registers)\n", out, len(res.Registers))
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "csv", "output format: csv, json, or xlsx")
	parseCmd.Flags().StringVar(&parseOut, "out", "", `output path (default: input name with new extension, "-" for stdout)`)
	parseCmd.Flags().StringVar(&parseTitle, "title", "", "document title override")

	rootCmd.AddCommand(parseCmd)
}
