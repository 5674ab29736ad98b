package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagevoice/version"
)

var (
	cfgFile      string
	ownerFlag    string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "pagevoice",
	Short: "Turn photographed book pages into voice-cloned audiobooks",
	Long: `Pagevoice converts photographed book pages into audiobooks narrated
by a cloned voice.

The pipeline includes:
  - OCR text extraction from page images
  - Speech synthesis with cloned voices
  - Incremental audio assembly as new pages arrive
  - Per-voice renderings with listening progress carried across voices`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pagevoice/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&ownerFlag, "owner", "", "owner scope (default: owner from config)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(versionCmd)
}
