package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore implements Store on a local directory tree. Refs map directly
// onto relative paths under the root, so the same key space works for both
// backends. Used for development and tests.
type LocalStore struct {
	root string
}

// NewLocal creates a directory-backed artifact store rooted at root.
func NewLocal(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob: local store root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create local store root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(ref Ref) string {
	return filepath.Join(s.root, filepath.FromSlash(string(ref)))
}

// Put writes data under (owner, bookID, name).
func (s *LocalStore) Put(ctx context.Context, owner, bookID, name string, data []byte) (Ref, error) {
	ref, err := Key(owner, bookID, name)
	if err != nil {
		return "", err
	}
	path := s.path(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: put %s: %w", ref, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: put %s: %w", ref, err)
	}
	return ref, nil
}

// Get reads an artifact.
func (s *LocalStore) Get(ctx context.Context, ref Ref) ([]byte, error) {
	data, err := os.ReadFile(s.path(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob: get %s: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("blob: get %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes an artifact. Missing artifacts are not an error.
func (s *LocalStore) Delete(ctx context.Context, ref Ref) error {
	err := os.Remove(s.path(ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blob: delete %s: %w", ref, err)
	}
	return nil
}

// Compile-time interface check.
var _ Store = (*LocalStore)(nil)
