package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagevoice/internal/assembly"
)

var pagesAddVoice string

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Page management commands",
}

var pagesAddCmd = &cobra.Command{
	Use:   "add <book-id> <image files...>",
	Short: "Append photographed pages to a book",
	Long: `Append photographed pages to an existing book.

The new pages are OCR'd, synthesized with the book's active voice, and
appended to the current audio rendering. Listening progress is unaffected.

Examples:
  pagevoice pages add bk-42 page11.jpg page12.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID := args[0]

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var uploads []assembly.PageUpload
		for _, p := range args[1:] {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("failed to read page image: %w", err)
			}
			uploads = append(uploads, assembly.PageUpload{Name: filepath.Base(p), Data: data})
		}

		// Appends must use the book's active voice.
		voiceID := pagesAddVoice
		if voiceID == "" {
			b, err := a.orch.GetBook(ctx, a.owner, bookID)
			if err != nil {
				return err
			}
			voiceID = b.ActiveVoiceID
		}

		b, err := a.orch.AddPages(ctx, a.owner, bookID, uploads, voiceID)
		if err != nil {
			return err
		}
		return printOutput(b)
	},
}

func init() {
	pagesAddCmd.Flags().StringVar(&pagesAddVoice, "voice", "", "voice ID (must match the book's active voice; default: active voice)")

	pagesCmd.AddCommand(pagesAddCmd)
	rootCmd.AddCommand(pagesCmd)
}
