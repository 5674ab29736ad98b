package assembly

import (
	"context"
	"fmt"

	"github.com/jackzampolin/pagevoice/internal/assembler"
	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/book"
)

// AddPages appends new page images to an existing book. New text is
// extracted and synthesized with the active voice, then concatenated after
// the active voice's current rendition in append mode. Only the active
// voice's version is replaced; other voices keep their shorter renderings
// until re-rendered via ChangeVoice. Any stage failure leaves the book
// record untouched.
func (o *Orchestrator) AddPages(ctx context.Context, owner, bookID string, uploads []PageUpload, voiceID string) (*book.Book, error) {
	if err := validateUploads(uploads, voiceID); err != nil {
		return nil, err
	}

	b, err := o.GetBook(ctx, owner, bookID)
	if err != nil {
		return nil, err
	}
	if b.Status != book.StatusCompleted {
		return nil, &ValidationError{Msg: fmt.Sprintf("book is %s; pages can only be added to a completed book", b.Status)}
	}
	if voiceID != b.ActiveVoiceID {
		return nil, &ValidationError{Msg: fmt.Sprintf("voice %s is not the active voice; switch voices before adding pages", voiceID)}
	}
	voice, err := o.lookupVoice(ctx, owner, voiceID)
	if err != nil {
		return nil, err
	}
	base, ok := b.CurrentVersion()
	if !ok {
		return nil, &ValidationError{Msg: "book has no rendition for its active voice"}
	}

	log := o.logger.With("op", "add_pages", "book", b.ID, "owner", owner, "voice", voiceID)
	log.Info("adding pages", "existing_pages", b.PageCount(), "new_pages", len(uploads))

	// Page numbering continues from the current count.
	firstPage := b.PageCount() + 1
	imageRefs, err := o.uploadPages(ctx, owner, b.ID, uploads, firstPage)
	if err != nil {
		return nil, err
	}

	texts, err := o.extract.ExtractPages(ctx, imageRefs, firstPage)
	if err != nil {
		o.cleanupRefs(ctx, imageRefs)
		return nil, stageError(err)
	}

	// Chunk artifact names carry the starting chunk index so appends to the
	// same book never collide with earlier runs.
	prefix := fmt.Sprintf("chunk_from_%03d", firstPage)
	segments, err := o.synth.SynthesizeChunks(ctx, owner, b.ID, voice.ExternalRef, prefix, texts)
	if err != nil {
		return nil, stageError(err)
	}

	ref, totalDuration, err := o.asm.Assemble(ctx, owner, b.ID, renditionName(voice.ID),
		&assembler.Segment{Ref: blob.Ref(base.AudioRef), DurationSec: base.TotalDurationSec},
		assemblerSegments(segments))
	if err != nil {
		o.cleanupRefs(ctx, segmentRefs(segments))
		return nil, &AssemblyError{Err: err}
	}

	b.Pages = append(b.Pages, texts...)
	b.AddOrReplaceVersion(voice.ID, string(ref), totalDuration)

	if err := o.store.UpdateBook(ctx, b); err != nil {
		o.cleanupRefs(ctx, []blob.Ref{ref})
		return nil, &StorageError{Op: "persist book", Err: err}
	}

	// The old rendition is superseded only once the new one is persisted.
	o.cleanupRefs(ctx, []blob.Ref{blob.Ref(base.AudioRef)})

	log.Info("pages added",
		"pages", b.PageCount(),
		"duration_sec", totalDuration,
	)
	return b, nil
}
