// Package providers holds clients for the external text-extraction and
// speech-synthesis services, plus mocks for testing.
package providers

import (
	"context"
	"time"
)

// OCRProvider handles image-to-text extraction for one page at a time.
// Batch submission, ordering, and fail-fast policy live in the extraction
// stage, not here.
type OCRProvider interface {
	// Name returns the provider identifier (e.g., "mistral-ocr").
	Name() string

	// ProcessImage extracts text from a single page image.
	ProcessImage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error)
}

// OCRResult is the response from an OCR provider.
type OCRResult struct {
	Success bool   `json:"success"`
	Text    string `json:"text"` // Markdown formatted

	// Confidence is a best-effort extraction quality signal in [0, 1].
	Confidence float64 `json:"confidence"`

	// Metadata from provider (dimensions, detected images, etc.)
	Metadata map[string]any `json:"metadata,omitempty"`

	ExecutionTime time.Duration `json:"execution_time"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// TTSProvider converts one text chunk into audio with a specific voice.
type TTSProvider interface {
	// Name returns the provider identifier (e.g., "elevenlabs").
	Name() string

	// Generate converts text to audio. Voice is the synthesis service's
	// handle for the cloned voice, not our voice record id.
	Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error)
}

// TTSRequest is a synthesis request for one chunk.
type TTSRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format,omitempty"`
}

// TTSResult is the response from a TTS provider. DurationMS as reported here
// is authoritative downstream: the pipeline sums reported durations and never
// re-measures assembled audio. A zero DurationMS means the provider reported
// none and the caller must measure the audio itself.
type TTSResult struct {
	Success       bool          `json:"success"`
	Audio         []byte        `json:"-"`
	DurationMS    int           `json:"duration_ms"`
	Format        string        `json:"format"`
	SampleRate    int           `json:"sample_rate,omitempty"`
	CharCount     int           `json:"char_count"`
	ExecutionTime time.Duration `json:"execution_time"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// VoiceCloner is implemented by TTS providers that support instant voice
// cloning from audio samples.
type VoiceCloner interface {
	// CloneVoice creates a cloned voice from recorded samples and returns
	// the service's opaque voice handle.
	CloneVoice(ctx context.Context, name string, samples [][]byte) (string, error)
}

// Voice describes a voice known to the synthesis service.
type Voice struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
