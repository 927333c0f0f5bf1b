package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"` // video, audio
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	RFrameRate string `json:"r_frame_rate,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

type MediaInfo struct {
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	VideoCodec string `json:"video_codec"`
	AudioCodec string `json:"audio_codec"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  string `json:"frame_rate"`
	// video stream duration, preferred over the container's when present
	videoDuration string
}

// DurationSeconds returns the video stream duration, or the container duration
// when the stream does not report one. Zero means unknown.
func (m *MediaInfo) DurationSeconds() float64 {
	for _, s := range []string{m.videoDuration, m.Duration} {
		if s == "" || s == "N/A" {
			continue
		}
		if d, err := strconv.ParseFloat(s, 64); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// Probe runs ffprobe on filePath.
func Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (*MediaInfo, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	info := &MediaInfo{
		Duration: result.Format.Duration,
		Size:     result.Format.Size,
	}

	for _, s := range result.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
				info.Width = s.Width
				info.Height = s.Height
				info.FrameRate = s.RFrameRate
				info.videoDuration = s.Duration
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}

	return info, nil
}

// Prober reports the native duration of a video asset. A file without a
// decodable video stream or with an unknown duration is an error.
type Prober struct{}

func (Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return durationOf(info, path)
}

func durationOf(info *MediaInfo, path string) (time.Duration, error) {
	if info.VideoCodec == "" {
		return 0, fmt.Errorf("no video stream in %s", path)
	}
	secs := info.DurationSeconds()
	if secs <= 0 {
		return 0, fmt.Errorf("unknown duration for %s", path)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
