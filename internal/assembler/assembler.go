// Package assembler joins per-chunk audio artifacts into a single rendition
// file in the artifact store.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackzampolin/pagevoice/internal/blob"
)

// Segment is one audio input to assembly, in playback order.
type Segment struct {
	Ref         blob.Ref
	DurationSec float64
}

// Assembler concatenates stored audio segments into one artifact. Inputs are
// staged on local disk because ffmpeg's concat demuxer works on files.
type Assembler struct {
	blobs   blob.Store
	workDir string
	logger  *slog.Logger
}

// New creates an assembler. workDir holds staging files during a run; it is
// created if missing.
func New(blobs blob.Store, workDir string, logger *slog.Logger) (*Assembler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "pagevoice")
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Assembler{blobs: blobs, workDir: workDir, logger: logger}, nil
}

// Assemble concatenates base (optional, played first) and segments in order
// into a single artifact named outputName, and returns its ref and total
// duration. Total duration is the sum of the input durations as reported by
// synthesis; assembled audio is never re-measured.
//
// On success the segment artifacts are deleted best effort. The base
// artifact is never deleted here: the caller drops it only after the new
// rendition has been persisted.
func (a *Assembler) Assemble(ctx context.Context, owner, bookID, outputName string, base *Segment, segments []Segment) (blob.Ref, float64, error) {
	if base == nil && len(segments) == 0 {
		return "", 0, fmt.Errorf("nothing to assemble")
	}

	stageDir, err := os.MkdirTemp(a.workDir, "assemble_")
	if err != nil {
		return "", 0, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stageDir)

	inputs := make([]Segment, 0, len(segments)+1)
	if base != nil {
		inputs = append(inputs, *base)
	}
	inputs = append(inputs, segments...)

	paths := make([]string, len(inputs))
	var totalDuration float64
	for i, seg := range inputs {
		data, err := a.blobs.Get(ctx, seg.Ref)
		if err != nil {
			return "", 0, fmt.Errorf("fetch segment %s: %w", seg.Ref, err)
		}
		path := filepath.Join(stageDir, fmt.Sprintf("input_%03d%s", i, filepath.Ext(string(seg.Ref))))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", 0, fmt.Errorf("stage segment %s: %w", seg.Ref, err)
		}
		paths[i] = path
		totalDuration += seg.DurationSec
	}

	outputPath := filepath.Join(stageDir, outputName)
	if err := concatFiles(ctx, paths, outputPath); err != nil {
		return "", 0, err
	}

	assembled, err := os.ReadFile(outputPath)
	if err != nil {
		return "", 0, fmt.Errorf("read assembled output: %w", err)
	}

	ref, err := a.blobs.Put(ctx, owner, bookID, outputName, assembled)
	if err != nil {
		return "", 0, fmt.Errorf("upload assembled audio: %w", err)
	}

	for _, seg := range segments {
		if err := a.blobs.Delete(ctx, seg.Ref); err != nil {
			a.logger.Warn("failed to delete segment artifact", "ref", seg.Ref, "error", err)
		}
	}

	a.logger.Debug("assembled rendition",
		"ref", ref,
		"segments", len(segments),
		"appended_to_base", base != nil,
		"duration_sec", totalDuration,
	)
	return ref, totalDuration, nil
}

// ProbeDurationSeconds measures audio length with ffprobe. It satisfies the
// synthesis stage's duration fallback.
func (a *Assembler) ProbeDurationSeconds(ctx context.Context, audio []byte) (float64, error) {
	tmp, err := os.CreateTemp(a.workDir, "probe_*.audio")
	if err != nil {
		return 0, fmt.Errorf("create probe file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write probe file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close probe file: %w", err)
	}

	return probeDurationSeconds(ctx, tmp.Name())
}
