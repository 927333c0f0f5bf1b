package ffmpeg

import (
	"fmt"
	"strconv"
)

// EncodeParams holds the output frame geometry and quality settings shared by
// every segment and by the final concatenation. Segments must agree on size and
// frame rate for the concat demuxer to join them.
type EncodeParams struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate int    `json:"frame_rate"`
	CRF       int    `json:"crf"`
	Preset    string `json:"preset"`
	Encoder   string `json:"encoder"`
}

// DefaultEncodeParams returns 640x480 at 25 fps with libx264 settings.
func DefaultEncodeParams() EncodeParams {
	return EncodeParams{
		Width:     640,
		Height:    480,
		FrameRate: 25,
		CRF:       20,
		Preset:    "veryfast",
		Encoder:   "libx264",
	}
}

// WithEncoder returns a copy of p using enc, leaving p unchanged when enc is nil.
func (p EncodeParams) WithEncoder(enc *EncoderInfo) EncodeParams {
	if enc != nil && enc.Encoder != "" {
		p.Encoder = enc.Encoder
	}
	return p
}

// videoCodecArgs returns the encoder-specific flags.
func videoCodecArgs(p EncodeParams) []string {
	args := []string{"-c:v", p.Encoder}

	switch p.Encoder {
	case "libx264":
		args = append(args,
			"-preset", p.Preset,
			"-crf", strconv.Itoa(p.CRF),
			"-pix_fmt", "yuv420p",
		)
	case "libopenh264":
		args = append(args,
			"-b:v", "2M",
			"-pix_fmt", "yuv420p",
		)
	case "mpeg4":
		args = append(args,
			"-q:v", "3",
			"-pix_fmt", "yuv420p",
		)
	default:
		// Generic fallback
		args = append(args,
			"-crf", strconv.Itoa(p.CRF),
			"-pix_fmt", "yuv420p",
		)
	}

	return args
}

func formatSeconds(secs float64) string {
	return fmt.Sprintf("%.3f", secs)
}
