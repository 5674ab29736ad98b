// Package assembly drives the end-to-end audiobook pipeline: page image
// upload, text extraction, speech synthesis, and audio assembly, plus the
// book record mutations those operations commit.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jackzampolin/pagevoice/internal/assembler"
	"github.com/jackzampolin/pagevoice/internal/batch"
	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/book"
	"github.com/jackzampolin/pagevoice/internal/extraction"
	"github.com/jackzampolin/pagevoice/internal/providers"
	"github.com/jackzampolin/pagevoice/internal/store"
	"github.com/jackzampolin/pagevoice/internal/synthesis"
)

// MaxPagesPerRequest bounds how many page images one Create or AddPages call
// accepts.
const MaxPagesPerRequest = 10

// PageUpload is one raw page image submitted by the caller.
type PageUpload struct {
	Name string
	Data []byte
}

// Assembler joins stored audio segments into one rendition artifact and
// reports the summed duration. Satisfied by assembler.Assembler.
type Assembler interface {
	Assemble(ctx context.Context, owner, bookID, outputName string, base *assembler.Segment, segments []assembler.Segment) (blob.Ref, float64, error)
}

// TitleDetector derives a book title from extracted text. Implementations
// must treat failure as recoverable; the pipeline falls back to a
// placeholder title rather than failing the operation.
type TitleDetector interface {
	DetectTitle(ctx context.Context, text string) (string, error)
}

// Orchestrator sequences the pipeline stages and owns the consistency of
// the book record. Operations on the same book must not run concurrently;
// there is no version counter guarding the record.
type Orchestrator struct {
	store   *store.Store
	blobs   blob.Store
	extract *extraction.Stage
	synth   *synthesis.Stage
	asm     Assembler
	titles  TitleDetector
	cloner  providers.VoiceCloner
	logger  *slog.Logger
}

// Config collects the orchestrator's collaborators. Titles and Cloner are
// optional; everything else is required.
type Config struct {
	Store     *store.Store
	Blobs     blob.Store
	Extract   *extraction.Stage
	Synth     *synthesis.Stage
	Assembler Assembler
	Titles    TitleDetector
	Cloner    providers.VoiceCloner
	Logger    *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil || cfg.Blobs == nil || cfg.Extract == nil || cfg.Synth == nil || cfg.Assembler == nil {
		return nil, errors.New("assembly: store, blobs, and all pipeline stages are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		store:   cfg.Store,
		blobs:   cfg.Blobs,
		extract: cfg.Extract,
		synth:   cfg.Synth,
		asm:     cfg.Assembler,
		titles:  cfg.Titles,
		cloner:  cfg.Cloner,
		logger:  cfg.Logger,
	}, nil
}

// GetBook fetches a book scoped to its owner.
func (o *Orchestrator) GetBook(ctx context.Context, owner, bookID string) (*book.Book, error) {
	b, err := o.store.GetBook(ctx, owner, bookID)
	if err != nil {
		return nil, &StorageError{Op: "get book", Err: err}
	}
	if b == nil {
		return nil, &NotFoundError{Kind: "book", ID: bookID}
	}
	return b, nil
}

// ListBooks returns all of an owner's books.
func (o *Orchestrator) ListBooks(ctx context.Context, owner string) ([]*book.Book, error) {
	books, err := o.store.ListBooks(ctx, owner)
	if err != nil {
		return nil, &StorageError{Op: "list books", Err: err}
	}
	return books, nil
}

// DeleteBook removes a book record and its stored renditions. Rendition
// deletion is best effort; a missing record is a NotFoundError.
func (o *Orchestrator) DeleteBook(ctx context.Context, owner, bookID string) error {
	b, err := o.GetBook(ctx, owner, bookID)
	if err != nil {
		return err
	}

	deleted, err := o.store.DeleteBook(ctx, owner, bookID)
	if err != nil {
		return &StorageError{Op: "delete book", Err: err}
	}
	if !deleted {
		return &NotFoundError{Kind: "book", ID: bookID}
	}

	for _, v := range b.VoiceVersions {
		if err := o.blobs.Delete(ctx, blob.Ref(v.AudioRef)); err != nil {
			o.logger.Warn("failed to delete rendition", "book", bookID, "voice", v.VoiceID, "ref", v.AudioRef, "error", err)
		}
	}
	return nil
}

// RecordProgress stores the active voice's elapsed listening position.
func (o *Orchestrator) RecordProgress(ctx context.Context, owner, bookID string, elapsedSeconds float64) (*book.Book, error) {
	b, err := o.GetBook(ctx, owner, bookID)
	if err != nil {
		return nil, err
	}
	if err := b.RecordProgress(elapsedSeconds); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	if err := o.store.UpdateBook(ctx, b); err != nil {
		return nil, &StorageError{Op: "update book", Err: err}
	}
	return b, nil
}

// validateUploads applies the shared input rules for Create and AddPages.
func validateUploads(uploads []PageUpload, voiceID string) error {
	if len(uploads) == 0 {
		return &ValidationError{Msg: "at least one page image is required"}
	}
	if len(uploads) > MaxPagesPerRequest {
		return &ValidationError{Msg: fmt.Sprintf("at most %d page images per request, got %d", MaxPagesPerRequest, len(uploads))}
	}
	if voiceID == "" {
		return &ValidationError{Msg: "voice id is required"}
	}
	for i, u := range uploads {
		if len(u.Data) == 0 {
			return &ValidationError{Msg: fmt.Sprintf("page image %d is empty", i+1)}
		}
	}
	return nil
}

// lookupVoice resolves a voice record for the owner.
func (o *Orchestrator) lookupVoice(ctx context.Context, owner, voiceID string) (*book.Voice, error) {
	v, err := o.store.GetVoice(ctx, owner, voiceID)
	if err != nil {
		return nil, &StorageError{Op: "get voice", Err: err}
	}
	if v == nil {
		return nil, &NotFoundError{Kind: "voice", ID: voiceID}
	}
	return v, nil
}

// uploadPages stores raw page images in parallel. Page numbering starts at
// firstPage. On any failure the uploads that did land are deleted best
// effort and a StorageError is returned.
func (o *Orchestrator) uploadPages(ctx context.Context, owner, bookID string, uploads []PageUpload, firstPage int) ([]blob.Ref, error) {
	var mu sync.Mutex
	var landed []blob.Ref

	refs, err := batch.Run(ctx, len(uploads), func(ctx context.Context, i int) (blob.Ref, error) {
		name := fmt.Sprintf("page_%03d%s", firstPage+i, imageExt(uploads[i].Name))
		ref, err := o.blobs.Put(ctx, owner, bookID, name, uploads[i].Data)
		if err != nil {
			return "", err
		}
		mu.Lock()
		landed = append(landed, ref)
		mu.Unlock()
		return ref, nil
	})
	if err != nil {
		mu.Lock()
		orphans := landed
		mu.Unlock()
		o.cleanupRefs(ctx, orphans)
		return nil, &StorageError{Op: "upload page images", Err: err}
	}
	return refs, nil
}

// cleanupRefs deletes artifacts best effort. Delete is idempotent, so refs
// already dropped by a pipeline stage are harmless to sweep again.
func (o *Orchestrator) cleanupRefs(ctx context.Context, refs []blob.Ref) {
	for _, ref := range refs {
		if err := o.blobs.Delete(ctx, ref); err != nil {
			o.logger.Warn("failed to delete artifact", "ref", ref, "error", err)
		}
	}
}

// renditionName produces a unique artifact name for one assembled rendering.
// Names are versioned so an append never overwrites the base it reads from.
func renditionName(voiceID string) string {
	return fmt.Sprintf("rendition_%s_%s.mp3", voiceID, uuid.NewString()[:8])
}

// stageError maps pipeline stage failures onto the operation error taxonomy.
func stageError(err error) error {
	var pe *extraction.PageError
	if errors.As(err, &pe) {
		return &ExtractionError{Page: pe.Page, Err: pe.Err}
	}
	var ce *synthesis.ChunkError
	if errors.As(err, &ce) {
		return &SynthesisError{Chunk: ce.Chunk, Err: ce.Err}
	}
	return err
}

func imageExt(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return ".jpg"
	default:
		return ".png"
	}
}
