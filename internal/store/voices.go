package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/pagevoice/internal/book"
)

const voiceColumns = "id, owner, name, external_ref, is_default, created_at"

// CreateVoice inserts a voice record. When the voice is marked default, any
// previous default for the owner is cleared in the same transaction, so at
// most one default voice exists per owner.
func (s *Store) CreateVoice(ctx context.Context, v *book.Voice) error {
	if v == nil {
		return errors.New("store: voice is nil")
	}
	v.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if v.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE voices SET is_default = 0 WHERE owner = ?`, v.Owner); err != nil {
			return fmt.Errorf("store: clear default voice: %w", err)
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO voices (`+voiceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.Owner,
		v.Name,
		v.ExternalRef,
		boolToInt(v.IsDefault),
		v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: insert voice: %w", err)
	}
	return tx.Commit()
}

// GetVoice fetches a voice by id, scoped to its owner.
// Returns (nil, nil) when no matching record exists.
func (s *Store) GetVoice(ctx context.Context, owner, id string) (*book.Voice, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+voiceColumns+` FROM voices WHERE id = ? AND owner = ?`,
		id, owner,
	)
	v, err := scanVoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get voice: %w", err)
	}
	return v, nil
}

// ListVoices returns all voices for an owner ordered by creation time.
func (s *Store) ListVoices(ctx context.Context, owner string) ([]*book.Voice, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+voiceColumns+` FROM voices WHERE owner = ? ORDER BY created_at`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list voices: %w", err)
	}
	defer rows.Close()

	var voices []*book.Voice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan voice: %w", err)
		}
		voices = append(voices, v)
	}
	return voices, rows.Err()
}

// SetDefaultVoice marks a voice as the owner's default, clearing any previous
// default in the same transaction.
func (s *Store) SetDefaultVoice(ctx context.Context, owner, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE voices SET is_default = 0 WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("store: clear default voice: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`UPDATE voices SET is_default = 1 WHERE id = ? AND owner = ?`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("store: set default voice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("store: voice %s not found for owner %s", id, owner)
	}
	return tx.Commit()
}

// DefaultVoice returns the owner's default voice, or (nil, nil) if none set.
func (s *Store) DefaultVoice(ctx context.Context, owner string) (*book.Voice, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+voiceColumns+` FROM voices WHERE owner = ? AND is_default = 1 LIMIT 1`,
		owner,
	)
	v, err := scanVoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: default voice: %w", err)
	}
	return v, nil
}

func scanVoice(scanner interface{ Scan(dest ...any) error }) (*book.Voice, error) {
	var (
		id          string
		owner       string
		name        string
		externalRef string
		isDefault   int
		createdRaw  string
	)
	if err := scanner.Scan(&id, &owner, &name, &externalRef, &isDefault, &createdRaw); err != nil {
		return nil, err
	}
	v := &book.Voice{
		ID:          id,
		Owner:       owner,
		Name:        name,
		ExternalRef: externalRef,
		IsDefault:   isDefault != 0,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		v.CreatedAt = created
	}
	return v, nil
}
