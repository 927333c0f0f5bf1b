package cmd

import (
	"log"

	"github.com/video-stream/signreel/internal/caption"
	"github.com/video-stream/signreel/internal/compose"
	"github.com/video-stream/signreel/internal/config"
	"github.com/video-stream/signreel/internal/ffmpeg"
	"github.com/video-stream/signreel/internal/pipeline"
	"github.com/video-stream/signreel/internal/probecache"
)

// engine bundles the pipeline with the resources it holds open.
type engine struct {
	pipeline *pipeline.Pipeline
	cache    *probecache.Cache
}

func (e *engine) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			log.Printf("[probecache] close: %v", err)
		}
	}
}

// newEngine wires the prober, encoder and caption renderer from cfg.
// cachePath "" disables the probe cache; an unusable cache is logged and skipped.
func newEngine(cfg *config.Config, recognizers pipeline.Recognizers, cachePath, workDir string) (*engine, error) {
	e := &engine{}

	var prober compose.Prober = ffmpeg.Prober{}
	if cachePath != "" {
		c, err := probecache.Open(cachePath)
		if err != nil {
			log.Printf("[probecache] disabled: %v", err)
		} else {
			e.cache = c
			prober = c.Wrap(prober)
		}
	}

	params := ffmpeg.DefaultEncodeParams()
	params.Width = cfg.FrameWidth
	params.Height = cfg.FrameHeight
	params.FrameRate = cfg.FrameRate
	params = params.WithEncoder(ffmpeg.DetectEncoder())
	log.Printf("[ffmpeg] output %dx%d@%d using %s", params.Width, params.Height, params.FrameRate, params.Encoder)

	captions, err := caption.NewRenderer(caption.DefaultOptions())
	if err != nil {
		e.Close()
		return nil, err
	}

	e.pipeline = pipeline.New(recognizers, prober, ffmpeg.NewEncoder(params), captions, workDir)
	return e, nil
}
