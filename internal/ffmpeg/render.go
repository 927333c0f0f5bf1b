package ffmpeg

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/video-stream/signreel/internal/compose"
)

// Encoder renders captioned segments and joins them with the system ffmpeg.
// Every segment is normalized to the same frame size and rate so the final
// concat never has to reconcile mismatched streams.
type Encoder struct {
	Params EncodeParams
}

func NewEncoder(params EncodeParams) *Encoder {
	return &Encoder{Params: params}
}

// RenderSegment encodes one visual with its caption overlaid for the whole
// duration. Audio from the source is dropped.
func (e *Encoder) RenderSegment(ctx context.Context, job compose.SegmentJob) error {
	args := buildSegmentArgs(job, e.Params)
	return run(ctx, args)
}

// Concat joins rendered parts in order into output.
func (e *Encoder) Concat(ctx context.Context, parts []string, output string) error {
	if len(parts) == 0 {
		return fmt.Errorf("concat: no parts")
	}
	listPath := filepath.Join(filepath.Dir(parts[0]), "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(parts)), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	return run(ctx, buildConcatArgs(listPath, output, e.Params))
}

func run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[ffmpeg] failed: ffmpeg %s", strings.Join(args, " "))
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// segmentFilter scales and letterboxes the visual into the output frame, then
// pins the caption strip to the bottom edge.
func segmentFilter(p EncodeParams) string {
	return fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p[base];"+
			"[1:v]scale=%d:-1[cap];"+
			"[base][cap]overlay=(W-w)/2:H-h:eof_action=repeat,format=yuv420p[v]",
		p.Width, p.Height, p.Width, p.Height, p.FrameRate, p.Width,
	)
}

func buildSegmentArgs(job compose.SegmentJob, p EncodeParams) []string {
	duration := formatSeconds(job.Duration.Seconds())

	args := []string{"-hide_banner", "-loglevel", "error"}
	if job.Still {
		args = append(args,
			"-loop", "1",
			"-framerate", fmt.Sprintf("%d", p.FrameRate),
			"-t", duration,
		)
	}
	args = append(args,
		"-i", job.Visual,
		"-i", job.Caption,
		"-filter_complex", segmentFilter(p),
		"-map", "[v]",
		"-an",
		"-t", duration,
		"-r", fmt.Sprintf("%d", p.FrameRate),
	)
	args = append(args, videoCodecArgs(p)...)
	args = append(args, "-y", job.Output)
	return args
}

func buildConcatArgs(listPath, output string, p EncodeParams) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-map", "0:v:0",
		"-an",
	}
	args = append(args, videoCodecArgs(p)...)
	args = append(args, "-movflags", "+faststart", "-f", "mp4", "-y", output)
	return args
}

// concatList renders the concat demuxer input. Single quotes in paths are
// closed, escaped and reopened.
func concatList(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
