// Package compose turns resolved tokens into captioned segments and joins them
// into a single output video.
package compose

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/video-stream/signreel/internal/caption"
	"github.com/video-stream/signreel/internal/storage"
	"github.com/video-stream/signreel/internal/transcript"
)

// StillDuration is how long a still image is held on screen.
const StillDuration = 2 * time.Second

var ErrAssetUnreadable = errors.New("asset unreadable")

// Prober reports the native duration of a video file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Source is a loaded visual and the time it occupies in the output.
type Source struct {
	Asset    storage.Asset
	Duration time.Duration
}

// Still reports whether the source is a still image.
func (s Source) Still() bool { return s.Asset.Kind == storage.KindImage }

// Segment is one captioned unit of the output video. The caption is shown for
// exactly the source's duration.
type Segment struct {
	Index    int
	Token    transcript.Token
	Key      transcript.LookupKey // empty when Fallback is set
	Source   Source
	Caption  string
	Fallback bool
}

const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// Diagnostic is a user-facing message produced while building segments.
type Diagnostic struct {
	Level   string `json:"level"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

type Builder struct {
	catalog *storage.Catalog
	prober  Prober

	// Report, when set, receives each diagnostic as it is produced.
	Report func(Diagnostic)
}

func NewBuilder(cat *storage.Catalog, prober Prober) *Builder {
	return &Builder{catalog: cat, prober: prober}
}

// Build produces at most one segment per token, in transcript order. For each
// token the first key with a loadable asset wins; otherwise the fallback clip is
// used with the full token text as caption; otherwise the token is skipped.
// Build stops early only if ctx is cancelled.
func (b *Builder) Build(ctx context.Context, resolved []transcript.Resolved) ([]Segment, []Diagnostic) {
	var (
		segments []Segment
		diags    []Diagnostic
	)
	emit := func(d Diagnostic) {
		diags = append(diags, d)
		if b.Report != nil {
			b.Report(d)
		}
	}

	for _, r := range resolved {
		if ctx.Err() != nil {
			break
		}

		key, src, ok := b.firstResolvable(ctx, r, emit)
		if ok {
			emit(Diagnostic{Level: LevelInfo, Token: r.Token.Text,
				Message: fmt.Sprintf("Adding media for part: %s", key)})
			segments = append(segments, Segment{
				Index:   len(segments),
				Token:   r.Token,
				Key:     key,
				Source:  src,
				Caption: caption.CaptionText(string(key)),
			})
			continue
		}

		src, ok = b.fallback(ctx, r.Token, emit)
		if !ok {
			emit(Diagnostic{Level: LevelWarn, Token: r.Token.Text,
				Message: fmt.Sprintf("No media found for word '%s' and no default video, skipping.", r.Token.Text)})
			continue
		}
		emit(Diagnostic{Level: LevelWarn, Token: r.Token.Text,
			Message: fmt.Sprintf("No media found for word '%s', using default video.", r.Token.Text)})
		segments = append(segments, Segment{
			Index:    len(segments),
			Token:    r.Token,
			Source:   src,
			Caption:  caption.CaptionText(r.Token.Text),
			Fallback: true,
		})
	}
	return segments, diags
}

// firstResolvable returns the first key of r whose asset exists and loads.
// Later keys are not examined once one succeeds.
func (b *Builder) firstResolvable(ctx context.Context, r transcript.Resolved, emit func(Diagnostic)) (transcript.LookupKey, Source, bool) {
	for _, key := range r.Keys {
		asset, ok := b.catalog.Lookup(string(key))
		if !ok {
			continue
		}
		src, err := b.load(ctx, asset)
		if err != nil {
			emit(Diagnostic{Level: LevelWarn, Token: r.Token.Text, Message: err.Error()})
			continue
		}
		return key, src, true
	}
	return "", Source{}, false
}

func (b *Builder) fallback(ctx context.Context, tok transcript.Token, emit func(Diagnostic)) (Source, bool) {
	asset, ok := b.catalog.Fallback()
	if !ok {
		return Source{}, false
	}
	src, err := b.load(ctx, asset)
	if err != nil {
		emit(Diagnostic{Level: LevelWarn, Token: tok.Text, Message: err.Error()})
		return Source{}, false
	}
	return src, true
}

func (b *Builder) load(ctx context.Context, asset storage.Asset) (Source, error) {
	if asset.Kind == storage.KindImage {
		if err := decodeStill(asset.Path); err != nil {
			return Source{}, fmt.Errorf("%w: %s: %v", ErrAssetUnreadable, asset.Name, err)
		}
		return Source{Asset: asset, Duration: StillDuration}, nil
	}

	d, err := b.prober.Duration(ctx, asset.Path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrAssetUnreadable, asset.Name, err)
	}
	if d <= 0 {
		return Source{}, fmt.Errorf("%w: %s: zero duration", ErrAssetUnreadable, asset.Name)
	}
	return Source{Asset: asset, Duration: d}, nil
}

func decodeStill(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("empty image")
	}
	return nil
}
