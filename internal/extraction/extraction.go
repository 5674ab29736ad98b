// Package extraction turns stored page images into text, one OCR call per
// page, preserving page order regardless of completion order.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/pagevoice/internal/batch"
	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/providers"
)

// PageError reports which page failed extraction. Page numbers are 1-based.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("extraction failed on page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Stage runs text extraction over a batch of stored page images.
type Stage struct {
	ocr    providers.OCRProvider
	blobs  blob.Store
	logger *slog.Logger
}

// NewStage creates an extraction stage.
func NewStage(ocr providers.OCRProvider, blobs blob.Store, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{ocr: ocr, blobs: blobs, logger: logger}
}

// ExtractPages downloads each raw page image, extracts its text, and returns
// the texts in page order. firstPage numbers the batch within the book, so
// appended pages report their real position on failure. The whole batch
// succeeds or the whole batch fails: one bad page aborts with a PageError
// and no texts are returned.
//
// Each page's raw image is deleted best effort as soon as that page's text
// is extracted; a failed delete is logged and never fails the extraction.
func (s *Stage) ExtractPages(ctx context.Context, refs []blob.Ref, firstPage int) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	if firstPage < 1 {
		firstPage = 1
	}

	texts, err := batch.Run(ctx, len(refs), func(ctx context.Context, i int) (string, error) {
		pageNum := firstPage + i

		image, err := s.blobs.Get(ctx, refs[i])
		if err != nil {
			return "", fmt.Errorf("fetch page image: %w", err)
		}

		result, err := s.ocr.ProcessImage(ctx, image, pageNum)
		if err != nil {
			return "", err
		}
		if !result.Success {
			return "", fmt.Errorf("provider reported failure: %s", result.ErrorMessage)
		}

		s.logger.Debug("page extracted",
			"page", pageNum,
			"chars", len(result.Text),
			"confidence", result.Confidence,
			"duration", result.ExecutionTime,
		)

		// The raw image is only needed until its text is read, so drop it
		// as soon as this page succeeds rather than at the end of the batch.
		if err := s.blobs.Delete(ctx, refs[i]); err != nil {
			s.logger.Warn("failed to delete page image", "page", pageNum, "ref", refs[i], "error", err)
		}

		return result.Text, nil
	})
	if err != nil {
		var ie *batch.IndexedError
		if errors.As(err, &ie) {
			return nil, &PageError{Page: firstPage + ie.Index, Err: ie.Err}
		}
		return nil, err
	}

	return texts, nil
}
