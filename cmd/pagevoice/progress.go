package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagevoice/internal/book"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Listening progress commands",
}

var progressRecordCmd = &cobra.Command{
	Use:   "record <book-id> <seconds>",
	Short: "Record the listening position for a book's active voice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		elapsed, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.orch.RecordProgress(cmd.Context(), a.owner, args[0], elapsed)
		if err != nil {
			return err
		}
		return printOutput(progressView(b))
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show <book-id>",
	Short: "Show listening progress for a book's active voice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.orch.GetBook(cmd.Context(), a.owner, args[0])
		if err != nil {
			return err
		}
		return printOutput(progressView(b))
	},
}

// progressSummary is the progress output shape.
type progressSummary struct {
	BookID         string  `json:"book_id" yaml:"book_id"`
	Title          string  `json:"title" yaml:"title"`
	VoiceID        string  `json:"voice_id" yaml:"voice_id"`
	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	TotalSeconds   float64 `json:"total_seconds" yaml:"total_seconds"`
	Percent        float64 `json:"percent" yaml:"percent"`
}

func progressView(b *book.Book) progressSummary {
	summary := progressSummary{
		BookID:         b.ID,
		Title:          b.Title,
		VoiceID:        b.ActiveVoiceID,
		ElapsedSeconds: b.CurrentProgressSeconds(),
		Percent:        b.ProgressPercentage(),
	}
	if v, ok := b.CurrentVersion(); ok {
		summary.TotalSeconds = v.TotalDurationSec
	}
	return summary
}

func init() {
	progressCmd.AddCommand(progressRecordCmd)
	progressCmd.AddCommand(progressShowCmd)
	rootCmd.AddCommand(progressCmd)
}
