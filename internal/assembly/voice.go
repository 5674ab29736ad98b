package assembly

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/book"
)

// ChangeVoice switches a book's narration to the target voice. If the book
// already holds a rendering for that voice this is a pure switch: no
// synthesis runs and existing versions are untouched. Otherwise every
// stored page is re-synthesized with the target voice into a fresh
// full-length rendering.
//
// In both cases the listening position carries over: the new voice resumes
// at the previous active voice's elapsed seconds, so switching narrators
// does not restart the story.
func (o *Orchestrator) ChangeVoice(ctx context.Context, owner, bookID, targetVoiceID string) (*book.Book, error) {
	if targetVoiceID == "" {
		return nil, &ValidationError{Msg: "voice id is required"}
	}

	b, err := o.GetBook(ctx, owner, bookID)
	if err != nil {
		return nil, err
	}
	if b.Status != book.StatusCompleted {
		return nil, &ValidationError{Msg: fmt.Sprintf("book is %s; the voice can only be changed on a completed book", b.Status)}
	}

	log := o.logger.With("op", "change_voice", "book", b.ID, "owner", owner, "voice", targetVoiceID)

	prevElapsed := b.CurrentProgressSeconds()
	if b.Progress == nil {
		b.Progress = make(map[string]float64)
	}

	if b.HasVersion(targetVoiceID) {
		b.ActiveVoiceID = targetVoiceID
		// Seed the resume point only on first switch; a voice the owner has
		// already listened with keeps its own position.
		if _, ok := b.Progress[targetVoiceID]; !ok {
			b.Progress[targetVoiceID] = prevElapsed
		}
		if err := o.store.UpdateBook(ctx, b); err != nil {
			return nil, &StorageError{Op: "persist book", Err: err}
		}
		log.Info("switched to existing rendering")
		return b, nil
	}

	voice, err := o.lookupVoice(ctx, owner, targetVoiceID)
	if err != nil {
		return nil, err
	}
	if len(b.Pages) == 0 {
		return nil, &ValidationError{Msg: "book has no pages to render"}
	}

	log.Info("rendering book with new voice", "pages", b.PageCount())

	prefix := fmt.Sprintf("chunk_%s", uuid.NewString()[:8])
	segments, err := o.synth.SynthesizeChunks(ctx, owner, b.ID, voice.ExternalRef, prefix, b.Pages)
	if err != nil {
		return nil, stageError(err)
	}

	ref, totalDuration, err := o.asm.Assemble(ctx, owner, b.ID, renditionName(voice.ID), nil, assemblerSegments(segments))
	if err != nil {
		o.cleanupRefs(ctx, segmentRefs(segments))
		return nil, &AssemblyError{Err: err}
	}

	b.AddOrReplaceVersion(voice.ID, string(ref), totalDuration)
	b.ActiveVoiceID = voice.ID
	b.Progress[voice.ID] = prevElapsed

	if err := o.store.UpdateBook(ctx, b); err != nil {
		o.cleanupRefs(ctx, []blob.Ref{ref})
		return nil, &StorageError{Op: "persist book", Err: err}
	}

	log.Info("voice changed", "duration_sec", totalDuration, "resume_sec", prevElapsed)
	return b, nil
}

// CloneVoice registers a new cloned voice for the owner: the samples go to
// the synthesis service and the returned handle is stored as a voice
// record. When setDefault is true, or when the owner has no voices yet, the
// new voice becomes the owner's default.
func (o *Orchestrator) CloneVoice(ctx context.Context, owner, name string, samples [][]byte, setDefault bool) (*book.Voice, error) {
	if o.cloner == nil {
		return nil, &ValidationError{Msg: "voice cloning is not configured"}
	}
	if name == "" {
		return nil, &ValidationError{Msg: "voice name is required"}
	}
	if len(samples) == 0 {
		return nil, &ValidationError{Msg: "at least one audio sample is required"}
	}

	if !setDefault {
		existing, err := o.store.ListVoices(ctx, owner)
		if err != nil {
			return nil, &StorageError{Op: "list voices", Err: err}
		}
		setDefault = len(existing) == 0
	}

	externalRef, err := o.cloner.CloneVoice(ctx, name, samples)
	if err != nil {
		return nil, &SynthesisError{Chunk: 0, Err: fmt.Errorf("clone voice: %w", err)}
	}

	v := &book.Voice{
		ID:          uuid.NewString(),
		Owner:       owner,
		Name:        name,
		ExternalRef: externalRef,
		IsDefault:   setDefault,
	}
	if err := o.store.CreateVoice(ctx, v); err != nil {
		return nil, &StorageError{Op: "create voice", Err: err}
	}

	o.logger.Info("voice cloned", "owner", owner, "voice", v.ID, "name", name, "default", setDefault)
	return v, nil
}

// ListVoices returns the owner's voices.
func (o *Orchestrator) ListVoices(ctx context.Context, owner string) ([]*book.Voice, error) {
	voices, err := o.store.ListVoices(ctx, owner)
	if err != nil {
		return nil, &StorageError{Op: "list voices", Err: err}
	}
	return voices, nil
}

// SetDefaultVoice marks one of the owner's voices as default.
func (o *Orchestrator) SetDefaultVoice(ctx context.Context, owner, voiceID string) error {
	if _, err := o.lookupVoice(ctx, owner, voiceID); err != nil {
		return err
	}
	if err := o.store.SetDefaultVoice(ctx, owner, voiceID); err != nil {
		return &StorageError{Op: "set default voice", Err: err}
	}
	return nil
}
