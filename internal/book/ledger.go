package book

import (
	"fmt"
	"math"
)

// ProgressToleranceSeconds is how far recorded progress may exceed the active
// rendering's total duration before the write is rejected. Different voice
// renderings of the same text drift by a few seconds, and players report
// slightly past the final chunk boundary.
const ProgressToleranceSeconds = 5.0

// CurrentVersion returns the rendering for the active voice.
func (b *Book) CurrentVersion() (VoiceVersion, bool) {
	if b.ActiveVoiceID == "" {
		return VoiceVersion{}, false
	}
	return b.Version(b.ActiveVoiceID)
}

// Version looks up a rendering by voice id.
func (b *Book) Version(voiceID string) (VoiceVersion, bool) {
	for _, v := range b.VoiceVersions {
		if v.VoiceID == voiceID {
			return v, true
		}
	}
	return VoiceVersion{}, false
}

// HasVersion reports whether a rendering exists for the voice.
func (b *Book) HasVersion(voiceID string) bool {
	_, ok := b.Version(voiceID)
	return ok
}

// CurrentProgressSeconds returns the elapsed listening seconds for the active
// voice, or 0 when no progress has been recorded.
func (b *Book) CurrentProgressSeconds() float64 {
	if b.ActiveVoiceID == "" {
		return 0
	}
	return b.Progress[b.ActiveVoiceID]
}

// ProgressPercentage returns listening progress through the active rendering
// as a percentage rounded to one decimal, clamped to [0, 100].
func (b *Book) ProgressPercentage() float64 {
	version, ok := b.CurrentVersion()
	if !ok || version.TotalDurationSec <= 0 {
		return 0
	}
	pct := b.CurrentProgressSeconds() / version.TotalDurationSec * 100
	pct = math.Round(pct*10) / 10
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// RecordProgress stores elapsed listening seconds for the active voice.
// Writes beyond the rendering's duration plus ProgressToleranceSeconds are
// rejected without modifying the record.
func (b *Book) RecordProgress(elapsedSeconds float64) error {
	version, ok := b.CurrentVersion()
	if !ok {
		return fmt.Errorf("book %s has no active voice version", b.ID)
	}
	if elapsedSeconds < 0 {
		return fmt.Errorf("elapsed seconds must not be negative, got %.1f", elapsedSeconds)
	}
	if elapsedSeconds > version.TotalDurationSec+ProgressToleranceSeconds {
		return fmt.Errorf("elapsed %.1fs exceeds rendering duration %.1fs (+%.0fs tolerance)",
			elapsedSeconds, version.TotalDurationSec, ProgressToleranceSeconds)
	}
	if b.Progress == nil {
		b.Progress = make(map[string]float64)
	}
	b.Progress[b.ActiveVoiceID] = math.Round(elapsedSeconds)
	return nil
}

// AddOrReplaceVersion inserts a rendering for voiceID, or replaces the
// existing one in place. Replacement is how an append re-render updates the
// active voice without disturbing the other voices' renderings.
func (b *Book) AddOrReplaceVersion(voiceID, audioRef string, totalDurationSec float64) {
	next := VoiceVersion{
		VoiceID:          voiceID,
		AudioRef:         audioRef,
		TotalDurationSec: totalDurationSec,
	}
	for i, v := range b.VoiceVersions {
		if v.VoiceID == voiceID {
			b.VoiceVersions[i] = next
			return
		}
	}
	b.VoiceVersions = append(b.VoiceVersions, next)
}
