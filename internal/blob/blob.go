// Package blob stores binary artifacts (page images, audio chunks, assembled
// renderings) keyed by owner, book, and artifact name. Backends map the same
// key space onto Amazon S3 (or any S3-compatible store) or a local directory.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a ref does not resolve to a stored artifact.
var ErrNotFound = errors.New("blob: not found")

// Ref identifies a stored artifact. Refs are storage keys of the form
// "owner/book/name" and resolve back to a path for targeted deletion.
type Ref string

// Key builds the storage key for an artifact.
func Key(owner, bookID, name string) (Ref, error) {
	for _, part := range []string{owner, bookID, name} {
		if part == "" {
			return "", fmt.Errorf("blob: empty key component in (%q, %q, %q)", owner, bookID, name)
		}
		if strings.Contains(part, "/") {
			return "", fmt.Errorf("blob: key component %q must not contain '/'", part)
		}
	}
	return Ref(owner + "/" + bookID + "/" + name), nil
}

// Store is the artifact store collaborator. Implementations must make Delete
// idempotent: deleting a missing artifact is not an error.
type Store interface {
	// Put uploads data under (owner, bookID, name) and returns its ref.
	Put(ctx context.Context, owner, bookID, name string, data []byte) (Ref, error)

	// Get downloads the artifact. Returns ErrNotFound for unknown refs.
	Get(ctx context.Context, ref Ref) ([]byte, error)

	// Delete removes the artifact.
	Delete(ctx context.Context, ref Ref) error
}
