package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/video-stream/signreel/internal/storage"
)

// GeneratePoster extracts a preview frame from a rendered video.
// Seeks to 10% of the video duration for a more representative frame.
func GeneratePoster(ctx context.Context, inputPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	outputPath := filepath.Join(outputDir, "poster.jpg")

	// Return cached poster if it exists
	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	seekTime := "0"
	if info, err := Probe(ctx, inputPath); err == nil {
		seekTime = posterSeek(info.DurationSeconds())
	}

	err := writeAtomic(outputPath, func(tmp string) error {
		cmd := exec.CommandContext(ctx, "ffmpeg",
			"-hide_banner", "-loglevel", "error",
			"-ss", seekTime,
			"-i", inputPath,
			"-vframes", "1",
			"-vf", "scale=320:-1",
			"-f", "image2",
			"-y",
			tmp,
		)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%w: %s", err, string(output))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

// writeAtomic lets write fill a temp file next to dst and moves it into place
// only on success, so concurrent readers never see a partial file.
func writeAtomic(dst string, write func(tmp string) error) error {
	f, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*"+filepath.Ext(dst))
	if err != nil {
		return err
	}
	tmp := f.Name()
	f.Close()

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := storage.MoveFile(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// posterSeek picks 10% into the video, capped at 5 minutes. Sign clips are
// short so there is no lower clamp.
func posterSeek(duration float64) string {
	if duration <= 0 {
		return "0"
	}
	seekTo := duration * 0.10
	if seekTo > 300 {
		seekTo = 300
	}
	return fmt.Sprintf("%.2f", seekTo)
}
