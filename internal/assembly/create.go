package assembly

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/pagevoice/internal/assembler"
	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/book"
	"github.com/jackzampolin/pagevoice/internal/synthesis"
)

// Create runs the full pipeline for a new book: upload page images, extract
// text, synthesize audio with the requested voice, assemble one rendition,
// and persist the completed record. The operation is all or nothing: any
// stage failure leaves no book record and no referenced artifacts behind.
func (o *Orchestrator) Create(ctx context.Context, owner string, uploads []PageUpload, voiceID, title string) (*book.Book, error) {
	if err := validateUploads(uploads, voiceID); err != nil {
		return nil, err
	}
	voice, err := o.lookupVoice(ctx, owner, voiceID)
	if err != nil {
		return nil, err
	}

	b := &book.Book{
		ID:       uuid.NewString(),
		Owner:    owner,
		Title:    title,
		Progress: map[string]float64{},
		Status:   book.StatusProcessing,
	}
	// The record exists in processing state while the pipeline runs so the
	// owner can see the book is being built. It is removed again on any
	// failure.
	if err := o.store.CreateBook(ctx, b); err != nil {
		return nil, &StorageError{Op: "create book", Err: err}
	}

	log := o.logger.With("op", "create", "book", b.ID, "owner", owner, "voice", voiceID)
	log.Info("creating book", "pages", len(uploads))

	persisted, err := o.runCreatePipeline(ctx, b, voice, uploads)
	if err != nil {
		if _, delErr := o.store.DeleteBook(ctx, owner, b.ID); delErr != nil {
			log.Warn("failed to remove book record after pipeline failure", "error", delErr)
			o.markFailed(ctx, b, log)
		}
		log.Error("create failed", "error", err)
		return nil, err
	}

	log.Info("book created",
		"title", persisted.Title,
		"pages", persisted.PageCount(),
		"duration_sec", persisted.VoiceVersions[0].TotalDurationSec,
	)
	return persisted, nil
}

// markFailed leaves a failed tombstone when a dead record cannot be removed.
// The record is stripped back to its identity fields so it never references
// artifacts the failure path has already cleaned up.
func (o *Orchestrator) markFailed(ctx context.Context, b *book.Book, log *slog.Logger) {
	failed := &book.Book{
		ID:       b.ID,
		Owner:    b.Owner,
		Title:    b.Title,
		Progress: map[string]float64{},
		Status:   book.StatusFailed,
	}
	if err := o.store.UpdateBook(ctx, failed); err != nil {
		log.Warn("failed to mark book failed", "error", err)
	}
}

func (o *Orchestrator) runCreatePipeline(ctx context.Context, b *book.Book, voice *book.Voice, uploads []PageUpload) (*book.Book, error) {
	imageRefs, err := o.uploadPages(ctx, b.Owner, b.ID, uploads, 1)
	if err != nil {
		return nil, err
	}

	texts, err := o.extract.ExtractPages(ctx, imageRefs, 1)
	if err != nil {
		o.cleanupRefs(ctx, imageRefs)
		return nil, stageError(err)
	}

	segments, err := o.synth.SynthesizeChunks(ctx, b.Owner, b.ID, voice.ExternalRef, "chunk", texts)
	if err != nil {
		return nil, stageError(err)
	}

	ref, totalDuration, err := o.asm.Assemble(ctx, b.Owner, b.ID, renditionName(voice.ID), nil, assemblerSegments(segments))
	if err != nil {
		o.cleanupRefs(ctx, segmentRefs(segments))
		return nil, &AssemblyError{Err: err}
	}

	if b.Title == "" {
		b.Title = o.deriveTitle(ctx, texts)
	}

	b.Pages = texts
	b.AddOrReplaceVersion(voice.ID, string(ref), totalDuration)
	b.ActiveVoiceID = voice.ID
	b.Status = book.StatusCompleted

	if err := o.store.UpdateBook(ctx, b); err != nil {
		o.cleanupRefs(ctx, []blob.Ref{ref})
		return nil, &StorageError{Op: "persist book", Err: err}
	}
	return b, nil
}

// deriveTitle picks a title from extracted text. Detection failures never
// fail the pipeline; the fallback is a heuristic first line, then a
// generated placeholder.
func (o *Orchestrator) deriveTitle(ctx context.Context, texts []string) string {
	joined := strings.Join(texts, "\n\n")
	if o.titles != nil {
		title, err := o.titles.DetectTitle(ctx, joined)
		if err == nil && title != "" {
			return title
		}
		if err != nil {
			o.logger.Warn("title detection failed", "error", err)
		}
	}
	if title := heuristicTitle(joined); title != "" {
		return title
	}
	return "Untitled Book " + uuid.NewString()[:8]
}

// heuristicTitle takes the first non-empty line of text, stripped of
// markdown heading markers, as a title candidate.
func heuristicTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if len(line) > 80 {
			line = strings.TrimSpace(line[:80])
		}
		return line
	}
	return ""
}

func assemblerSegments(segments []synthesis.Segment) []assembler.Segment {
	out := make([]assembler.Segment, len(segments))
	for i, seg := range segments {
		out[i] = assembler.Segment{Ref: seg.AudioRef, DurationSec: seg.DurationSec}
	}
	return out
}

// segmentRefs lists the chunk artifacts behind segments, for cleanup when
// assembly fails after synthesis has already uploaded them.
func segmentRefs(segments []synthesis.Segment) []blob.Ref {
	refs := make([]blob.Ref, len(segments))
	for i, seg := range segments {
		refs[i] = seg.AudioRef
	}
	return refs
}
