// Package synthesis converts text chunks into per-chunk audio artifacts with
// a specific voice, preserving chunk order regardless of completion order.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackzampolin/pagevoice/internal/batch"
	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/providers"
)

// ChunkError reports which chunk failed synthesis. Chunk numbers are 1-based.
type ChunkError struct {
	Chunk int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("synthesis failed on chunk %d: %v", e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Segment is one synthesized audio chunk stored in the artifact store.
type Segment struct {
	Index       int
	AudioRef    blob.Ref
	DurationSec float64
}

// DurationProber measures the playable length of stored audio. Used as a
// fallback when the synthesis provider reports no duration.
type DurationProber interface {
	ProbeDurationSeconds(ctx context.Context, audio []byte) (float64, error)
}

// Stage runs speech synthesis over a batch of text chunks.
type Stage struct {
	tts    providers.TTSProvider
	blobs  blob.Store
	prober DurationProber
	logger *slog.Logger
}

// NewStage creates a synthesis stage. prober may be nil, in which case a
// missing provider duration is an error.
func NewStage(tts providers.TTSProvider, blobs blob.Store, prober DurationProber, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{tts: tts, blobs: blobs, prober: prober, logger: logger}
}

// SynthesizeChunks converts each text chunk to audio with the given voice,
// uploads the chunk audio, and returns segments in chunk order. namePrefix
// distinguishes artifacts from different operations on the same book (e.g.
// "chunk" vs "rechunk_v2").
//
// All chunks succeed or the operation fails with a ChunkError. On failure
// any chunk audio already uploaded is deleted best effort before returning,
// so a failed synthesis leaves nothing behind in the artifact store.
func (s *Stage) SynthesizeChunks(ctx context.Context, owner, bookID, voice, namePrefix string, chunks []string) ([]Segment, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	var uploaded []blob.Ref

	segments, err := batch.Run(ctx, len(chunks), func(ctx context.Context, i int) (Segment, error) {
		chunkNum := i + 1

		result, err := s.tts.Generate(ctx, &providers.TTSRequest{
			Text:  chunks[i],
			Voice: voice,
		})
		if err != nil {
			return Segment{}, err
		}
		if !result.Success {
			return Segment{}, fmt.Errorf("provider reported failure: %s", result.ErrorMessage)
		}

		duration := float64(result.DurationMS) / 1000
		if result.DurationMS <= 0 {
			if s.prober == nil {
				return Segment{}, fmt.Errorf("provider reported no duration for chunk %d", chunkNum)
			}
			duration, err = s.prober.ProbeDurationSeconds(ctx, result.Audio)
			if err != nil {
				return Segment{}, fmt.Errorf("probe chunk duration: %w", err)
			}
		}

		name := fmt.Sprintf("%s_%03d.%s", namePrefix, chunkNum, audioExt(result.Format))
		ref, err := s.blobs.Put(ctx, owner, bookID, name, result.Audio)
		if err != nil {
			return Segment{}, fmt.Errorf("upload chunk audio: %w", err)
		}
		mu.Lock()
		uploaded = append(uploaded, ref)
		mu.Unlock()

		s.logger.Debug("chunk synthesized",
			"chunk", chunkNum,
			"chars", result.CharCount,
			"duration_sec", duration,
			"ref", ref,
		)
		return Segment{Index: i, AudioRef: ref, DurationSec: duration}, nil
	})
	if err != nil {
		mu.Lock()
		refs := uploaded
		mu.Unlock()
		for _, ref := range refs {
			if delErr := s.blobs.Delete(ctx, ref); delErr != nil {
				s.logger.Warn("failed to delete chunk audio", "ref", ref, "error", delErr)
			}
		}
		var ie *batch.IndexedError
		if errors.As(err, &ie) {
			return nil, &ChunkError{Chunk: ie.Index + 1, Err: ie.Err}
		}
		return nil, err
	}

	return segments, nil
}

// TotalDuration sums segment durations in seconds.
func TotalDuration(segments []Segment) float64 {
	var total float64
	for _, seg := range segments {
		total += seg.DurationSec
	}
	return total
}

func audioExt(format string) string {
	if format == "" {
		return "mp3"
	}
	return format
}
