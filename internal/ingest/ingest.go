// Package ingest renders PDF scans into per-page images ready for the
// assembly pipeline.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is one rendered page image.
type Page struct {
	Name string
	Data []byte
}

// RenderPDFs renders every page of the given PDFs to PNG images, in PDF
// order (paths sorted by numeric suffix) and page order within each PDF.
// Requires pdftoppm (poppler-utils) on PATH.
func RenderPDFs(ctx context.Context, pdfPaths []string, logger *slog.Logger) ([]Page, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(pdfPaths) == 0 {
		return nil, fmt.Errorf("no PDF paths provided")
	}
	for _, p := range pdfPaths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("PDF not found: %s", p)
		}
	}

	sortedPaths := sortPDFsByNumber(pdfPaths)

	var pages []Page
	for i, pdfPath := range sortedPaths {
		logger.Debug("rendering PDF", "file", filepath.Base(pdfPath), "part", i+1, "of", len(sortedPaths))
		rendered, err := renderPDF(ctx, pdfPath, len(pages))
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", filepath.Base(pdfPath), err)
		}
		pages = append(pages, rendered...)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages rendered from PDFs")
	}
	logger.Info("PDFs rendered", "pdfs", len(sortedPaths), "pages", len(pages))
	return pages, nil
}

// renderPDF renders all pages of one PDF concurrently, bounded by CPU
// count, collecting results into indexed slots so output order matches
// page order.
func renderPDF(ctx context.Context, pdfPath string, pageOffset int) ([]Page, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	type result struct {
		index int
		data  []byte
		err   error
	}

	maxWorkers := runtime.NumCPU()
	results := make(chan result, pageCount)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= pageCount; page++ {
		sem <- struct{}{} // acquire
		go func(pageInPDF int) {
			defer func() { <-sem }() // release
			data, err := renderPage(ctx, pdfPath, pageInPDF)
			results <- result{index: pageInPDF - 1, data: data, err: err}
		}(page)
	}

	pages := make([]Page, pageCount)
	var firstErr error
	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to render page %d: %w", r.index+1, r.err)
			}
			continue
		}
		pages[r.index] = Page{
			Name: fmt.Sprintf("page_%04d.png", pageOffset+r.index+1),
			Data: r.data,
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return pages, nil
}

// renderPage renders a single page from a PDF using pdftoppm.
func renderPage(ctx context.Context, pdfPath string, pageInPDF int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pagevoice-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -singlefile renders exactly one page without a number suffix.
	pageStr := strconv.Itoa(pageInPDF)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", "300",
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}

// DeriveTitle produces a title from a PDF filename: extension and numeric
// part suffix stripped, separators spaced, words capitalized.
func DeriveTitle(pdfPath string) string {
	name := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	name = regexp.MustCompile(`-\d+$`).ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// sortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["book-2.pdf", "book-1.pdf", "book-10.pdf"] -> ["book-1.pdf", "book-2.pdf", "book-10.pdf"]
func sortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	re := regexp.MustCompile(`-(\d+)\.pdf$`)

	sort.Slice(sorted, func(i, j int) bool {
		mi := re.FindStringSubmatch(strings.ToLower(sorted[i]))
		mj := re.FindStringSubmatch(strings.ToLower(sorted[j]))

		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}
