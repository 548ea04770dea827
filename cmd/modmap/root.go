package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/modmap/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "modmap",
	Short: "Modbus register map extraction from device manuals",
	Long: `Modmap extracts Modbus register maps from device documentation.

It reads manuals (PDF, DOCX, HTML, Markdown, plain text), scores each
page for register-map relevance, assembles the most relevant pages into
a token-budgeted context, and has an LLM extract a structured register
table from it. Results come out as CSV, JSON, or XLSX.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./modmap.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}
