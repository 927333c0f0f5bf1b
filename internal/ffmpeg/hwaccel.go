package ffmpeg

import (
	"log"
	"os/exec"
	"strings"
	"sync"
)

// Codec represents a video codec family.
type Codec string

const (
	CodecH264  Codec = "h264"
	CodecMPEG4 Codec = "mpeg4"
)

// EncoderInfo describes the encoder chosen for rendering.
type EncoderInfo struct {
	Codec   Codec  `json:"codec"`
	Encoder string `json:"encoder"` // e.g. "libx264"
}

var (
	detected     *EncoderInfo
	detectedOnce sync.Once
)

// Encoder candidates in priority order (best first). All produce output that
// plays in browsers and common players.
var softwareEncoders = []EncoderInfo{
	{CodecH264, "libx264"},
	{CodecH264, "libopenh264"},
	{CodecMPEG4, "mpeg4"},
}

// DetectEncoder probes the local ffmpeg build for the best available encoder.
// The result is cached after the first call.
func DetectEncoder() *EncoderInfo {
	detectedOnce.Do(func() {
		detected = detectEncoder(testSoftwareEncoder)
	})
	return detected
}

func detectEncoder(test func(string) bool) *EncoderInfo {
	for _, enc := range softwareEncoders {
		if test(enc.Encoder) {
			log.Printf("[ffmpeg] encoder available: %s", enc.Encoder)
			e := enc
			return &e
		}
		log.Printf("[ffmpeg] encoder NOT available: %s", enc.Encoder)
	}
	// Absolute fallback: let ffmpeg fail loudly at render time
	log.Printf("[ffmpeg] no encoder passed the probe, assuming libx264")
	return &EncoderInfo{Codec: CodecH264, Encoder: "libx264"}
}

// Available returns true if ffmpeg and ffprobe are on the PATH.
func Available() bool {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

// testSoftwareEncoder checks if an encoder is available in this FFmpeg build.
func testSoftwareEncoder(encoder string) bool {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "nullsrc=s=256x256:d=0.1:r=1",
		"-c:v", encoder,
		"-frames:v", "1",
		"-f", "null", "-",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("[ffmpeg] test %s failed: %v %s", encoder, err, strings.TrimSpace(string(output)))
		return false
	}
	return true
}
