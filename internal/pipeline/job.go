package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/video-stream/signreel/internal/job"
)

// Defaults supplies the recognizer engine and language used when a job does
// not name them.
type Defaults func() (engine, language string)

// JobRunner adapts the pipeline to the job queue. Each job writes
// <outputDir>/<job id>/render.mp4.
type JobRunner struct {
	pipeline  *Pipeline
	mediaDir  string
	outputDir string
	defaults  Defaults
}

func NewJobRunner(p *Pipeline, mediaDir, outputDir string, defaults Defaults) *JobRunner {
	if defaults == nil {
		defaults = func() (string, string) { return "", "" }
	}
	return &JobRunner{pipeline: p, mediaDir: mediaDir, outputDir: outputDir, defaults: defaults}
}

// OutputFile is the render path for a job, relative to the output directory.
func OutputFile(jobID string) string {
	return filepath.Join(jobID, "render.mp4")
}

// HandleJob processes render and compose jobs.
func (r *JobRunner) HandleJob(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.RenderParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}

	engine, language := r.defaults()
	if params.Engine != "" {
		engine = params.Engine
	}
	if params.Language != "" {
		language = params.Language
	}

	req := Request{
		Engine:     engine,
		Language:   language,
		MediaDir:   r.mediaDir,
		OutputPath: filepath.Join(r.outputDir, OutputFile(j.ID)),
		Progress:   updateProgress,
	}
	switch j.Type {
	case job.JobCompose:
		req.Transcript = params.Transcript
	case job.JobRender:
		if _, err := os.Stat(j.FilePath); err != nil {
			return fmt.Errorf("audio file not found: %s", filepath.Base(j.FilePath))
		}
		req.AudioPath = j.FilePath
	default:
		return fmt.Errorf("unsupported job type: %s", j.Type)
	}

	log.Printf("[pipeline] job %s: engine=%q language=%q", j.ID, engine, language)
	start := time.Now()
	res, err := r.pipeline.Run(ctx, req, func(level, msg string) {
		log.Printf("[pipeline] job %s %s: %s", j.ID, level, msg)
	})
	if res != nil {
		out := job.RenderResult{
			Transcript:  res.Transcript,
			Timeline:    res.Timeline,
			Diagnostics: res.Diagnostics,
			Duration:    time.Since(start).Seconds(),
		}
		if err == nil {
			out.OutputPath = OutputFile(j.ID)
		}
		j.Result, _ = json.Marshal(out)
	}
	return err
}
