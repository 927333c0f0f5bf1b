// Package pipeline runs one end-to-end render: recognize speech, resolve
// tokens, build captioned segments and assemble the output video.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/video-stream/signreel/internal/compose"
	"github.com/video-stream/signreel/internal/recognize"
	"github.com/video-stream/signreel/internal/storage"
	"github.com/video-stream/signreel/internal/transcript"
)

var ErrNoInput = errors.New("either an audio file or a transcript is required")

// Request describes one render. When Transcript is set, recognition is skipped.
type Request struct {
	AudioPath  string
	Transcript string
	Engine     string
	Language   string
	MediaDir   string
	OutputPath string

	// Progress, when set, receives the completed fraction in [0, 1].
	Progress func(float64)
}

type Result struct {
	Transcript  string                  `json:"transcript"`
	Timeline    []compose.TimelineEntry `json:"timeline"`
	OutputPath  string                  `json:"output_path,omitempty"`
	Diagnostics []compose.Diagnostic    `json:"diagnostics,omitempty"`
}

// Reporter receives user-facing status messages.
type Reporter func(level, msg string)

// LogReporter writes messages to the standard logger.
func LogReporter(level, msg string) {
	log.Printf("[pipeline] %s: %s", level, msg)
}

// Recognizers looks up a speech recognizer by name; "" selects the default.
type Recognizers interface {
	Get(name string) (recognize.Recognizer, error)
}

type Pipeline struct {
	recognizers Recognizers
	prober      compose.Prober
	assembler   *compose.Assembler
}

func New(recognizers Recognizers, prober compose.Prober, enc compose.Encoder, captions compose.CaptionWriter, workDir string) *Pipeline {
	return &Pipeline{
		recognizers: recognizers,
		prober:      prober,
		assembler:   compose.NewAssembler(enc, captions, workDir),
	}
}

// Run executes the stages strictly in order. A recognition failure, a missing
// media directory or an empty timeline aborts the run with no output written.
// The partial Result is returned alongside those errors when a transcript was
// obtained.
func (p *Pipeline) Run(ctx context.Context, req Request, report Reporter) (*Result, error) {
	if report == nil {
		report = LogReporter
	}
	progress := req.Progress
	if progress == nil {
		progress = func(float64) {}
	}

	text, err := p.transcribe(ctx, req)
	if err != nil {
		return nil, err
	}
	report(compose.LevelInfo, "Transcription: "+text)
	result := &Result{Transcript: text}
	progress(0.2)

	cat, err := storage.BuildCatalog(req.MediaDir)
	if err != nil {
		return result, err
	}
	report(compose.LevelInfo, fmt.Sprintf("Files in media directory %s: %s", cat.Dir(), strings.Join(cat.Files(), ", ")))

	resolved := transcript.ResolveText(text)

	builder := compose.NewBuilder(cat, p.prober)
	builder.Report = func(d compose.Diagnostic) { report(d.Level, d.Message) }
	segments, diags := builder.Build(ctx, resolved)
	result.Diagnostics = diags
	result.Timeline = compose.Describe(segments)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	progress(0.4)

	out, err := p.assembler.Assemble(ctx, segments, req.OutputPath)
	if err != nil {
		if errors.Is(err, compose.ErrEmptyTimeline) {
			report("error", "No media found for any word in the transcript.")
		}
		return result, err
	}
	result.OutputPath = out
	progress(1.0)
	return result, nil
}

func (p *Pipeline) transcribe(ctx context.Context, req Request) (string, error) {
	if text := strings.TrimSpace(req.Transcript); text != "" {
		return text, nil
	}
	if req.AudioPath == "" {
		return "", ErrNoInput
	}
	if p.recognizers == nil {
		return "", fmt.Errorf("%w: no recognizer configured", recognize.ErrServiceUnavailable)
	}
	rec, err := p.recognizers.Get(req.Engine)
	if err != nil {
		return "", err
	}
	log.Printf("[pipeline] recognizing %s with %s", req.AudioPath, rec.Name())
	text, err := rec.Recognize(ctx, req.AudioPath, req.Language)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
