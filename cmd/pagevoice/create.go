package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagevoice/internal/assembly"
	"github.com/jackzampolin/pagevoice/internal/book"
	"github.com/jackzampolin/pagevoice/internal/ingest"
)

var (
	createTitle string
	createVoice string
	createPDFs  []string
)

var createCmd = &cobra.Command{
	Use:   "create [image files...]",
	Short: "Create a book from photographed pages",
	Long: `Create a new book from photographed page images or scanned PDFs.

Pages are OCR'd, synthesized with the chosen voice, and assembled into the
book's first audio rendering. Without --title, a title is derived from the
extracted text (or the PDF filename).

Examples:
  pagevoice create page1.jpg page2.jpg --voice v-123
  pagevoice create --pdf memoir-1.pdf --pdf memoir-2.pdf
  pagevoice create cover.png --title "My Old Memoir"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && len(createPDFs) == 0 {
			return fmt.Errorf("provide page image files or --pdf")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		uploads, pdfTitle, err := collectUploads(ctx, args, createPDFs, a)
		if err != nil {
			return err
		}

		title := createTitle
		if title == "" {
			title = pdfTitle
		}

		voiceID, err := resolveVoice(ctx, a, createVoice)
		if err != nil {
			return err
		}

		b, err := createInBatches(ctx, a, uploads, voiceID, title)
		if err != nil {
			return err
		}
		return printOutput(b)
	},
}

// collectUploads reads page images from file args and renders any PDFs into
// page images, PDFs after explicit images. The second return is a title
// derived from the first PDF filename, if PDFs were given.
func collectUploads(ctx context.Context, imagePaths, pdfPaths []string, a *app) ([]assembly.PageUpload, string, error) {
	var uploads []assembly.PageUpload
	for _, p := range imagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read page image: %w", err)
		}
		uploads = append(uploads, assembly.PageUpload{Name: filepath.Base(p), Data: data})
	}

	var pdfTitle string
	if len(pdfPaths) > 0 {
		pages, err := ingest.RenderPDFs(ctx, pdfPaths, a.logger)
		if err != nil {
			return nil, "", err
		}
		for _, pg := range pages {
			uploads = append(uploads, assembly.PageUpload{Name: pg.Name, Data: pg.Data})
		}
		pdfTitle = ingest.DeriveTitle(pdfPaths[0])
	}
	return uploads, pdfTitle, nil
}

// resolveVoice returns the requested voice ID, falling back to the owner's
// default voice.
func resolveVoice(ctx context.Context, a *app, voiceID string) (string, error) {
	if voiceID != "" {
		return voiceID, nil
	}
	v, err := a.store.DefaultVoice(ctx, a.owner)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("no voice specified and no default voice set (run: pagevoice voices clone)")
	}
	return v.ID, nil
}

// createInBatches creates the book from the first batch of pages and appends
// the rest, since one operation accepts a bounded number of pages.
func createInBatches(ctx context.Context, a *app, uploads []assembly.PageUpload, voiceID, title string) (*book.Book, error) {
	first := uploads
	if len(first) > assembly.MaxPagesPerRequest {
		first = uploads[:assembly.MaxPagesPerRequest]
	}

	b, err := a.orch.Create(ctx, a.owner, first, voiceID, title)
	if err != nil {
		return nil, err
	}

	for start := len(first); start < len(uploads); start += assembly.MaxPagesPerRequest {
		end := start + assembly.MaxPagesPerRequest
		if end > len(uploads) {
			end = len(uploads)
		}
		a.logger.Info("appending pages", "book", b.ID, "from", start+1, "to", end)
		next, err := a.orch.AddPages(ctx, a.owner, b.ID, uploads[start:end], voiceID)
		if err != nil {
			return nil, fmt.Errorf("book %s created but appending pages %d-%d failed: %w", b.ID, start+1, end, err)
		}
		b = next
	}
	return b, nil
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "book title (default: detected from text)")
	createCmd.Flags().StringVar(&createVoice, "voice", "", "voice ID to narrate with (default: owner's default voice)")
	createCmd.Flags().StringSliceVar(&createPDFs, "pdf", nil, "scanned PDF to render into page images (repeatable)")

	rootCmd.AddCommand(createCmd)
}
