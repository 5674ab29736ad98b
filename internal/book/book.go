// Package book defines the audiobook record and the voice-version ledger:
// one logical book carrying several independently playable audio renderings,
// one per cloned voice, with per-voice listening progress.
package book

import (
	"fmt"
	"time"
)

// Status tracks the assembly lifecycle of a book.
type Status string

const (
	// StatusProcessing means the first rendering is still being assembled.
	StatusProcessing Status = "processing"
	// StatusCompleted means at least one voice rendering is committed.
	StatusCompleted Status = "completed"
	// StatusFailed means assembly failed and the record could not be removed.
	StatusFailed Status = "failed"
)

// VoiceVersion is one complete audio rendering of a book's text with a
// specific voice. AudioRef points at the assembled artifact in blob storage.
type VoiceVersion struct {
	VoiceID          string  `json:"voice_id"`
	AudioRef         string  `json:"audio_ref"`
	TotalDurationSec float64 `json:"total_duration_sec"`
}

// Book is the persisted record for one photographed book.
//
// Pages is append-only: new pages extend the sequence, never reorder or
// truncate it. VoiceVersions is keyed by voice id (unique per book) and kept
// in insertion order. Progress maps voice id to elapsed listening seconds and
// may only name voices present in VoiceVersions.
type Book struct {
	ID            string             `json:"id"`
	Owner         string             `json:"owner"`
	Title         string             `json:"title"`
	Pages         []string           `json:"pages"`
	VoiceVersions []VoiceVersion     `json:"voice_versions"`
	ActiveVoiceID string             `json:"active_voice_id,omitempty"`
	Progress      map[string]float64 `json:"progress"`
	Status        Status             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// PageCount returns the number of extracted page texts.
func (b *Book) PageCount() int {
	return len(b.Pages)
}

// Validate checks the cross-field invariants of the record.
func (b *Book) Validate() error {
	seen := make(map[string]bool, len(b.VoiceVersions))
	for _, v := range b.VoiceVersions {
		if v.VoiceID == "" {
			return fmt.Errorf("voice version with empty voice id")
		}
		if seen[v.VoiceID] {
			return fmt.Errorf("duplicate voice version %q", v.VoiceID)
		}
		seen[v.VoiceID] = true
	}
	if b.ActiveVoiceID != "" && !seen[b.ActiveVoiceID] {
		return fmt.Errorf("active voice %q has no voice version", b.ActiveVoiceID)
	}
	for voiceID, elapsed := range b.Progress {
		if !seen[voiceID] {
			return fmt.Errorf("progress for unknown voice %q", voiceID)
		}
		if elapsed < 0 {
			return fmt.Errorf("negative progress for voice %q", voiceID)
		}
	}
	if b.Status == StatusCompleted && len(b.VoiceVersions) == 0 {
		return fmt.Errorf("completed book has no voice versions")
	}
	return nil
}

// Voice is a cloned narration voice owned by a user. ExternalRef is the
// opaque handle the synthesis service assigned to the clone.
type Voice struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	ExternalRef string    `json:"external_ref"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}
