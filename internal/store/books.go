package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/pagevoice/internal/book"
)

const bookColumns = "id, owner, title, pages_json, voice_versions_json, active_voice_id, progress_json, status, created_at, updated_at"

// CreateBook inserts a new book record.
func (s *Store) CreateBook(ctx context.Context, b *book.Book) error {
	if b == nil {
		return errors.New("store: book is nil")
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	pages, versions, progress, err := marshalBookFields(b)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.Owner,
		b.Title,
		pages,
		versions,
		nullableString(b.ActiveVoiceID),
		progress,
		string(b.Status),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: insert book: %w", err)
	}
	return nil
}

// GetBook fetches a book by id, scoped to its owner.
// Returns (nil, nil) when no matching record exists.
func (s *Store) GetBook(ctx context.Context, owner, id string) (*book.Book, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND owner = ?`,
		id, owner,
	)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get book: %w", err)
	}
	return b, nil
}

// UpdateBook persists the full current state of a book record as one atomic
// UPDATE. There is no version counter: callers are expected not to run
// concurrent operations against the same book.
func (s *Store) UpdateBook(ctx context.Context, b *book.Book) error {
	if b == nil {
		return errors.New("store: book is nil")
	}
	b.UpdatedAt = time.Now().UTC()

	pages, versions, progress, err := marshalBookFields(b)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE books
		 SET title = ?, pages_json = ?, voice_versions_json = ?, active_voice_id = ?,
		     progress_json = ?, status = ?, updated_at = ?
		 WHERE id = ? AND owner = ?`,
		b.Title,
		pages,
		versions,
		nullableString(b.ActiveVoiceID),
		progress,
		string(b.Status),
		b.UpdatedAt.Format(time.RFC3339Nano),
		b.ID,
		b.Owner,
	)
	if err != nil {
		return fmt.Errorf("store: update book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("store: book %s not found for owner %s", b.ID, b.Owner)
	}
	return nil
}

// DeleteBook removes a book record. Returns whether a record was deleted.
func (s *Store) DeleteBook(ctx context.Context, owner, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return false, fmt.Errorf("store: delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListBooks returns all books for an owner ordered by creation time.
func (s *Store) ListBooks(ctx context.Context, owner string) ([]*book.Book, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+bookColumns+` FROM books WHERE owner = ? ORDER BY created_at`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list books: %w", err)
	}
	defer rows.Close()

	var books []*book.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func marshalBookFields(b *book.Book) (pages, versions, progress string, err error) {
	pagesJSON, err := json.Marshal(b.Pages)
	if err != nil {
		return "", "", "", fmt.Errorf("store: marshal pages: %w", err)
	}
	versionsJSON, err := json.Marshal(b.VoiceVersions)
	if err != nil {
		return "", "", "", fmt.Errorf("store: marshal voice versions: %w", err)
	}
	prog := b.Progress
	if prog == nil {
		prog = map[string]float64{}
	}
	progressJSON, err := json.Marshal(prog)
	if err != nil {
		return "", "", "", fmt.Errorf("store: marshal progress: %w", err)
	}
	return string(pagesJSON), string(versionsJSON), string(progressJSON), nil
}

func scanBook(scanner interface{ Scan(dest ...any) error }) (*book.Book, error) {
	var (
		id            string
		owner         string
		title         string
		pagesJSON     string
		versionsJSON  string
		activeVoiceID sql.NullString
		progressJSON  string
		statusStr     string
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&owner,
		&title,
		&pagesJSON,
		&versionsJSON,
		&activeVoiceID,
		&progressJSON,
		&statusStr,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	b := &book.Book{
		ID:            id,
		Owner:         owner,
		Title:         title,
		ActiveVoiceID: activeVoiceID.String,
		Status:        book.Status(statusStr),
	}
	if err := json.Unmarshal([]byte(pagesJSON), &b.Pages); err != nil {
		return nil, fmt.Errorf("unmarshal pages: %w", err)
	}
	if err := json.Unmarshal([]byte(versionsJSON), &b.VoiceVersions); err != nil {
		return nil, fmt.Errorf("unmarshal voice versions: %w", err)
	}
	if err := json.Unmarshal([]byte(progressJSON), &b.Progress); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	if b.Progress == nil {
		b.Progress = map[string]float64{}
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		b.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		b.UpdatedAt = updated
	}
	return b, nil
}
