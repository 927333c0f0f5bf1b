// Package recognize converts spoken audio to transcript text through an
// external speech-to-text service.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/video-stream/signreel/internal/ffmpeg"
)

var (
	ErrRecognitionFailure = errors.New("speech recognition failed")
	// ErrNoSpeech means the service answered but heard nothing intelligible.
	ErrNoSpeech = fmt.Errorf("%w: no speech recognized", ErrRecognitionFailure)
	// ErrServiceUnavailable means the service could not be reached or is down.
	ErrServiceUnavailable = fmt.Errorf("%w: recognition service unavailable", ErrRecognitionFailure)
)

// Recognizer transcribes a single audio file. Implementations do not retry.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath, language string) (string, error)
	Name() string
}

// prepareFunc converts the input into the upload format and returns a cleanup.
type prepareFunc func(ctx context.Context, path string) (string, func(), error)

func extractWAV(ctx context.Context, path string) (string, func(), error) {
	wav, err := ffmpeg.ExtractAudio(ctx, path)
	if err != nil {
		return "", nil, err
	}
	return wav, func() { os.Remove(wav) }, nil
}
