package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/video-stream/signreel/internal/compose"
)

// JobType represents the kind of job
type JobType string

const (
	JobRender  JobType = "render"  // uploaded audio -> video
	JobCompose JobType = "compose" // typed transcript -> video
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the job has reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job represents a queued render
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	FilePath    string          `json:"file_path"` // uploaded audio, empty for compose jobs
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// RenderParams are parameters for render and compose jobs
type RenderParams struct {
	Transcript string `json:"transcript,omitempty"` // compose jobs only
	Engine     string `json:"engine,omitempty"`     // "whisper.cpp", "openai"; empty = default
	Language   string `json:"language,omitempty"`   // "auto", "en", ...
}

// RenderResult is the output of a successful render
type RenderResult struct {
	Transcript  string                  `json:"transcript"`
	OutputPath  string                  `json:"output_path"` // relative to the output directory
	Timeline    []compose.TimelineEntry `json:"timeline"`
	Diagnostics []compose.Diagnostic    `json:"diagnostics,omitempty"`
	Duration    float64                 `json:"duration"` // processing time in seconds
}

// JobHandler processes a job. A handler may set job.Result before returning nil.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) error
