package assembler

import (
	"context"
	"errors"
	"testing"

	"github.com/jackzampolin/pagevoice/internal/blob"
)

// Single-segment assembly takes the direct copy path, so these tests do not
// need ffmpeg on the machine.

func TestAssembleSingleSegment(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	chunkRef, err := store.Put(ctx, "owner-1", "book-1", "chunk_001.mp3", []byte("chunk-audio"))
	if err != nil {
		t.Fatalf("put chunk: %v", err)
	}

	a, err := New(store, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	ref, duration, err := a.Assemble(ctx, "owner-1", "book-1", "rendition_v1.mp3", nil,
		[]Segment{{Ref: chunkRef, DurationSec: 12.5}})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if duration != 12.5 {
		t.Fatalf("expected duration 12.5, got %f", duration)
	}

	assembled, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("fetch rendition: %v", err)
	}
	if string(assembled) != "chunk-audio" {
		t.Fatalf("rendition content mismatch: %q", assembled)
	}

	// Chunk artifact is consumed by assembly.
	if _, err := store.Get(ctx, chunkRef); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected chunk deleted, got err=%v", err)
	}
}

func TestAssembleBaseOnlyKeepsBase(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	baseRef, err := store.Put(ctx, "owner-1", "book-1", "rendition_v1.mp3", []byte("base-audio"))
	if err != nil {
		t.Fatalf("put base: %v", err)
	}

	a, err := New(store, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	ref, duration, err := a.Assemble(ctx, "owner-1", "book-1", "rendition_v2.mp3",
		&Segment{Ref: baseRef, DurationSec: 30}, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if duration != 30 {
		t.Fatalf("expected duration 30, got %f", duration)
	}
	if ref == baseRef {
		t.Fatal("expected a new artifact ref")
	}

	// The superseded base stays until the caller persists the new rendition.
	if _, err := store.Get(ctx, baseRef); err != nil {
		t.Fatalf("expected base kept: %v", err)
	}
}

func TestAssembleMissingSegment(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	a, err := New(store, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	_, _, err = a.Assemble(ctx, "owner-1", "book-1", "out.mp3", nil,
		[]Segment{{Ref: "owner-1/book-1/ghost.mp3", DurationSec: 1}})
	if err == nil {
		t.Fatal("expected error for missing segment")
	}
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound cause, got %v", err)
	}
}

func TestAssembleNothing(t *testing.T) {
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	a, err := New(store, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}
	if _, _, err := a.Assemble(context.Background(), "o", "b", "out.mp3", nil, nil); err == nil {
		t.Fatal("expected error for empty assembly")
	}
}
