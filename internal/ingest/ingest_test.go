package ingest

import (
	"context"
	"testing"
)

func TestSortPDFsByNumber(t *testing.T) {
	paths := []string{"book-10.pdf", "book-2.pdf", "book-1.pdf"}
	sorted := sortPDFsByNumber(paths)
	want := []string{"book-1.pdf", "book-2.pdf", "book-10.pdf"}
	for i := range want {
		if sorted[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, sorted[i], want[i])
		}
	}

	// Input slice untouched.
	if paths[0] != "book-10.pdf" {
		t.Fatal("input slice was mutated")
	}

	// Without numeric suffixes, fall back to lexicographic order.
	plain := sortPDFsByNumber([]string{"zulu.pdf", "alpha.pdf"})
	if plain[0] != "alpha.pdf" {
		t.Fatalf("expected lexicographic fallback, got %v", plain)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/scans/crusade-in-europe-1.pdf", "Crusade In Europe"},
		{"my_old_memoir.pdf", "My Old Memoir"},
		{"book.pdf", "Book"},
	}
	for _, tt := range tests {
		if got := DeriveTitle(tt.path); got != tt.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRenderPDFsValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := RenderPDFs(ctx, nil, nil); err == nil {
		t.Fatal("expected error for no paths")
	}
	if _, err := RenderPDFs(ctx, []string{"/nonexistent/book.pdf"}, nil); err == nil {
		t.Fatal("expected error for missing PDF")
	}
}
