package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExtractAudio converts any audio or video input to a 16kHz mono WAV, the
// format speech recognizers expect. The caller removes the returned file.
func ExtractAudio(ctx context.Context, inputPath string) (string, error) {
	tmpFile, err := os.CreateTemp("", "signreel-audio-*.wav")
	if err != nil {
		return "", err
	}
	tmpFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn", // no video
		"-acodec", "pcm_s16le",
		"-ar", "16000", // 16kHz
		"-ac", "1", // mono
		"-y", // overwrite
		tmpFile.Name(),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("ffmpeg: %s: %w", string(output), err)
	}

	return tmpFile.Name(), nil
}
