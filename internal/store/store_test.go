package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/pagevoice/internal/book"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pagevoice.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBookRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b := &book.Book{
		ID:    "book-1",
		Owner: "owner-1",
		Title: "Crusade in Europe",
		Pages: []string{"page one", "page two", "page three"},
		VoiceVersions: []book.VoiceVersion{
			{VoiceID: "v1", AudioRef: "owner-1/book-1/rendition_a.mp3", TotalDurationSec: 42},
		},
		ActiveVoiceID: "v1",
		Progress:      map[string]float64{"v1": 30},
		Status:        book.StatusCompleted,
	}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}

	got, err := s.GetBook(ctx, "owner-1", "book-1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got == nil {
		t.Fatal("expected book, got nil")
	}
	if got.Title != b.Title {
		t.Fatalf("expected title %q, got %q", b.Title, got.Title)
	}
	if len(got.Pages) != 3 || got.Pages[1] != "page two" {
		t.Fatalf("pages mismatch: %v", got.Pages)
	}
	if len(got.VoiceVersions) != 1 || got.VoiceVersions[0].TotalDurationSec != 42 {
		t.Fatalf("voice versions mismatch: %+v", got.VoiceVersions)
	}
	if got.ActiveVoiceID != "v1" {
		t.Fatalf("active voice mismatch: %q", got.ActiveVoiceID)
	}
	if got.Progress["v1"] != 30 {
		t.Fatalf("progress mismatch: %v", got.Progress)
	}
	if got.Status != book.StatusCompleted {
		t.Fatalf("status mismatch: %q", got.Status)
	}
}

func TestGetBookScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b := &book.Book{ID: "book-1", Owner: "owner-1", Status: book.StatusProcessing}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}

	got, err := s.GetBook(ctx, "owner-2", "book-1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for wrong owner")
	}
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b := &book.Book{ID: "book-1", Owner: "owner-1", Pages: []string{"a"}, Status: book.StatusProcessing}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}

	b.Pages = append(b.Pages, "b")
	b.Status = book.StatusCompleted
	b.AddOrReplaceVersion("v1", "owner-1/book-1/r.mp3", 10)
	b.ActiveVoiceID = "v1"
	if err := s.UpdateBook(ctx, b); err != nil {
		t.Fatalf("update book: %v", err)
	}

	got, err := s.GetBook(ctx, "owner-1", "book-1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.PageCount() != 2 || got.Status != book.StatusCompleted {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestUpdateBookMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b := &book.Book{ID: "ghost", Owner: "owner-1", Status: book.StatusCompleted}
	if err := s.UpdateBook(ctx, b); err == nil {
		t.Fatal("expected update of missing book to fail")
	}
}

func TestDeleteBook(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b := &book.Book{ID: "book-1", Owner: "owner-1", Status: book.StatusProcessing}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}

	deleted, err := s.DeleteBook(ctx, "owner-1", "book-1")
	if err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report a removed record")
	}

	got, err := s.GetBook(ctx, "owner-1", "book-1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got != nil {
		t.Fatal("expected book gone after delete")
	}
}

func TestVoiceDefaultUniquePerOwner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	v1 := &book.Voice{ID: "v1", Owner: "owner-1", Name: "Narrator A", ExternalRef: "ext-1", IsDefault: true}
	v2 := &book.Voice{ID: "v2", Owner: "owner-1", Name: "Narrator B", ExternalRef: "ext-2", IsDefault: true}
	other := &book.Voice{ID: "v3", Owner: "owner-2", Name: "Narrator C", ExternalRef: "ext-3", IsDefault: true}

	for _, v := range []*book.Voice{v1, v2, other} {
		if err := s.CreateVoice(ctx, v); err != nil {
			t.Fatalf("create voice %s: %v", v.ID, err)
		}
	}

	def, err := s.DefaultVoice(ctx, "owner-1")
	if err != nil {
		t.Fatalf("default voice: %v", err)
	}
	if def == nil || def.ID != "v2" {
		t.Fatalf("expected v2 as default, got %+v", def)
	}

	voices, err := s.ListVoices(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list voices: %v", err)
	}
	defaults := 0
	for _, v := range voices {
		if v.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default voice, got %d", defaults)
	}

	// Defaults are scoped per owner.
	otherDef, err := s.DefaultVoice(ctx, "owner-2")
	if err != nil {
		t.Fatalf("default voice owner-2: %v", err)
	}
	if otherDef == nil || otherDef.ID != "v3" {
		t.Fatalf("expected owner-2 default untouched, got %+v", otherDef)
	}
}

func TestSetDefaultVoice(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	v1 := &book.Voice{ID: "v1", Owner: "owner-1", ExternalRef: "ext-1", IsDefault: true}
	v2 := &book.Voice{ID: "v2", Owner: "owner-1", ExternalRef: "ext-2"}
	for _, v := range []*book.Voice{v1, v2} {
		if err := s.CreateVoice(ctx, v); err != nil {
			t.Fatalf("create voice: %v", err)
		}
	}

	if err := s.SetDefaultVoice(ctx, "owner-1", "v2"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	def, err := s.DefaultVoice(ctx, "owner-1")
	if err != nil {
		t.Fatalf("default voice: %v", err)
	}
	if def == nil || def.ID != "v2" {
		t.Fatalf("expected v2 default, got %+v", def)
	}

	if err := s.SetDefaultVoice(ctx, "owner-1", "ghost"); err == nil {
		t.Fatal("expected set default of missing voice to fail")
	}
}
