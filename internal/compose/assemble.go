package compose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/video-stream/signreel/internal/storage"
)

var ErrEmptyTimeline = errors.New("no media found for any word")

// SegmentJob describes a single segment render.
type SegmentJob struct {
	Visual   string
	Caption  string // caption PNG
	Output   string
	Still    bool
	Duration time.Duration
}

// Encoder renders segments and joins them in order.
type Encoder interface {
	RenderSegment(ctx context.Context, job SegmentJob) error
	Concat(ctx context.Context, parts []string, output string) error
}

// CaptionWriter rasterizes caption text to an image file.
type CaptionWriter interface {
	RenderFile(text, path string) error
}

type Assembler struct {
	enc      Encoder
	captions CaptionWriter
	workDir  string
}

// NewAssembler creates an Assembler. Intermediate files go under workDir, or
// the system temp dir when workDir is empty.
func NewAssembler(enc Encoder, captions CaptionWriter, workDir string) *Assembler {
	return &Assembler{enc: enc, captions: captions, workDir: workDir}
}

// Assemble renders every segment in order and concatenates them into
// outputPath. An empty timeline returns ErrEmptyTimeline and writes nothing.
func (a *Assembler) Assemble(ctx context.Context, segments []Segment, outputPath string) (string, error) {
	if len(segments) == 0 {
		return "", ErrEmptyTimeline
	}

	if a.workDir != "" {
		if err := os.MkdirAll(a.workDir, 0755); err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
	}
	tmpDir, err := os.MkdirTemp(a.workDir, "signreel-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		captionPath := filepath.Join(tmpDir, fmt.Sprintf("caption_%04d.png", i))
		if err := a.captions.RenderFile(seg.Caption, captionPath); err != nil {
			return "", fmt.Errorf("segment %d caption: %w", i, err)
		}

		partPath := filepath.Join(tmpDir, fmt.Sprintf("part_%04d.mp4", i))
		job := SegmentJob{
			Visual:   seg.Source.Asset.Path,
			Caption:  captionPath,
			Output:   partPath,
			Still:    seg.Source.Still(),
			Duration: seg.Source.Duration,
		}
		if err := a.enc.RenderSegment(ctx, job); err != nil {
			return "", fmt.Errorf("render segment %d (%s): %w", i, seg.Source.Asset.Name, err)
		}
		parts = append(parts, partPath)
	}

	// Concat inside tmpDir so a failed or killed encode never leaves a
	// truncated file at outputPath.
	joined := filepath.Join(tmpDir, "joined"+filepath.Ext(outputPath))
	if err := a.enc.Concat(ctx, parts, joined); err != nil {
		return "", fmt.Errorf("concat: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := storage.MoveFile(joined, outputPath); err != nil {
		return "", err
	}

	log.Printf("[compose] wrote %s (%d segments, %s)", outputPath, len(segments), TotalDuration(segments))
	return outputPath, nil
}

// TimelineEntry is the structural description of one segment.
type TimelineEntry struct {
	Index    int     `json:"index"`
	Token    string  `json:"token"`
	Key      string  `json:"key,omitempty"`
	Asset    string  `json:"asset"`
	Caption  string  `json:"caption"`
	Duration float64 `json:"duration"`
	Fallback bool    `json:"fallback,omitempty"`
}

func Describe(segments []Segment) []TimelineEntry {
	out := make([]TimelineEntry, len(segments))
	for i, s := range segments {
		out[i] = TimelineEntry{
			Index:    s.Index,
			Token:    s.Token.Text,
			Key:      string(s.Key),
			Asset:    s.Source.Asset.Name,
			Caption:  s.Caption,
			Duration: s.Source.Duration.Seconds(),
			Fallback: s.Fallback,
		}
	}
	return out
}

// TotalDuration is the sum of segment durations.
func TotalDuration(segments []Segment) time.Duration {
	var total time.Duration
	for _, s := range segments {
		total += s.Source.Duration
	}
	return total
}
