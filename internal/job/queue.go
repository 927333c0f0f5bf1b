package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("job not found")

// JobQueue manages job persistence and dispatching
type JobQueue struct {
	db       *sql.DB
	mu       sync.RWMutex
	pending  chan string // job IDs to process
	cancels  map[string]context.CancelFunc
	handlers map[JobType]JobHandler
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewJobQueue creates a job queue. Call Start once handlers are registered.
func NewJobQueue(db *sql.DB) *JobQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue{
		db:       db,
		pending:  make(chan string, 100),
		cancels:  make(map[string]context.CancelFunc),
		handlers: make(map[JobType]JobHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start resumes pending jobs from the database and starts the single worker.
// Renders run one at a time.
func (q *JobQueue) Start() {
	q.resumeJobs()
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.worker()
	}()
}

// RegisterHandler registers a handler for a job type
func (q *JobQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue creates a new job and adds it to the queue
func (q *JobQueue) Enqueue(jobType JobType, filePath string, params interface{}) (*Job, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    StatusPending,
		FilePath:  filePath,
		Params:    paramsJSON,
		Progress:  0,
		CreatedAt: time.Now(),
	}

	_, err = q.db.Exec(`
		INSERT INTO jobs (id, type, status, file_path, params, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.Status, job.FilePath, string(job.Params), job.Progress, job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	// Push to worker channel
	select {
	case q.pending <- job.ID:
	default:
		log.Printf("[job] queue full, job %s will be picked up on next start", job.ID)
	}

	return job, nil
}

const jobColumns = `id, type, status, file_path, params, progress, result, error, created_at, started_at, completed_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scanner) (*Job, error) {
	job := &Job{}
	var params, result, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	if err := row.Scan(&job.ID, &job.Type, &job.Status, &job.FilePath, &params, &job.Progress,
		&result, &errMsg, &job.CreatedAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	if params.Valid {
		job.Params = json.RawMessage(params.String)
	}
	if result.Valid {
		job.Result = json.RawMessage(result.String)
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return job, nil
}

// GetJob retrieves a job by ID
func (q *JobQueue) GetJob(id string) (*Job, error) {
	job, err := scanJob(q.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

// ListJobs returns all jobs ordered by creation time (newest first)
func (q *JobQueue) ListJobs() ([]*Job, error) {
	rows, err := q.db.Query(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CancelJob cancels a pending or running job
func (q *JobQueue) CancelJob(id string) error {
	q.mu.Lock()
	if cancelFn, ok := q.cancels[id]; ok {
		cancelFn()
		delete(q.cancels, id)
	}
	q.mu.Unlock()

	_, err := q.db.Exec(`
		UPDATE jobs SET status = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		StatusCancelled, time.Now(), id, StatusPending, StatusRunning,
	)
	return err
}

// DeleteJob removes a finished job record. Running jobs must be cancelled first.
func (q *JobQueue) DeleteJob(id string) error {
	job, err := q.GetJob(id)
	if err != nil {
		return err
	}
	if !job.Status.Finished() {
		return fmt.Errorf("job %s is %s", id, job.Status)
	}
	_, err = q.db.Exec("DELETE FROM jobs WHERE id = ?", id)
	return err
}

// UpdateProgress updates the progress of a running job
func (q *JobQueue) UpdateProgress(id string, progress float64) {
	q.db.Exec("UPDATE jobs SET progress = ? WHERE id = ? AND status = ?", progress, id, StatusRunning)
}

// Stop cancels the running job, if any, and waits for the worker to exit.
func (q *JobQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// worker processes jobs from the pending channel one at a time
func (q *JobQueue) worker() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case jobID := <-q.pending:
			q.processJob(jobID)
		}
	}
}

// processJob runs a single job
func (q *JobQueue) processJob(jobID string) {
	job, err := q.GetJob(jobID)
	if err != nil {
		log.Printf("[job] failed to load job %s: %v", jobID, err)
		return
	}

	// Skip if not pending
	if job.Status != StatusPending {
		return
	}

	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()

	if !ok {
		log.Printf("[job] no handler for job type %s", job.Type)
		q.failJob(job, fmt.Sprintf("no handler for job type: %s", job.Type))
		return
	}

	// Register the cancel func first so a CancelJob racing the status
	// update below still reaches the handler.
	ctx, cancelFn := context.WithCancel(q.ctx)
	q.mu.Lock()
	q.cancels[job.ID] = cancelFn
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		delete(q.cancels, job.ID)
		q.mu.Unlock()
		cancelFn()
	}()

	if !q.markRunning(job) {
		log.Printf("[job] job %s is no longer pending, skipping", job.ID)
		return
	}

	updateProgress := func(progress float64) {
		q.UpdateProgress(job.ID, progress)
	}

	log.Printf("[job] job %s (%s) started", job.ID, job.Type)
	err = handler(ctx, job, updateProgress)

	switch {
	case ctx.Err() != nil:
		log.Printf("[job] job %s cancelled", job.ID)
	case err != nil:
		q.failJob(job, err.Error())
	default:
		q.completeJob(job)
	}
}

// markRunning moves a pending job to running. It reports false when the job
// was cancelled or picked up elsewhere in the meantime.
func (q *JobQueue) markRunning(job *Job) bool {
	now := time.Now()
	res, err := q.db.Exec("UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?",
		StatusRunning, now, job.ID, StatusPending)
	if err != nil {
		log.Printf("[job] failed to start job %s: %v", job.ID, err)
		return false
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false
	}
	job.StartedAt = &now
	job.Status = StatusRunning
	return true
}

// finish writes a terminal state unless the job already reached one, so a
// cancellation is never overwritten.
func (q *JobQueue) finish(job *Job, status JobStatus, errMsg string) bool {
	var result, errVal interface{}
	if len(job.Result) > 0 {
		result = string(job.Result)
	}
	if errMsg != "" {
		errVal = errMsg
	}
	res, err := q.db.Exec(`
		UPDATE jobs SET status = ?,
			progress = CASE WHEN ? = 'completed' THEN 1.0 ELSE progress END,
			error = ?, result = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		status, status, errVal, result, time.Now(), job.ID, StatusPending, StatusRunning,
	)
	if err != nil {
		log.Printf("[job] failed to update job %s: %v", job.ID, err)
		return false
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		log.Printf("[job] job %s already finished, keeping its state", job.ID)
		return false
	}
	return true
}

func (q *JobQueue) completeJob(job *Job) {
	if q.finish(job, StatusCompleted, "") {
		log.Printf("[job] job %s completed", job.ID)
	}
}

func (q *JobQueue) failJob(job *Job, errMsg string) {
	if q.finish(job, StatusFailed, errMsg) {
		log.Printf("[job] job %s failed: %s", job.ID, errMsg)
	}
}

// resumeJobs re-queues any pending jobs found in DB on startup
func (q *JobQueue) resumeJobs() {
	// Mark any previously "running" jobs as pending (server restarted)
	q.db.Exec("UPDATE jobs SET status = ? WHERE status = ?", StatusPending, StatusRunning)

	rows, err := q.db.Query("SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC", StatusPending)
	if err != nil {
		log.Printf("[job] failed to resume jobs: %v", err)
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows.Close()

	count := 0
	for _, id := range ids {
		select {
		case q.pending <- id:
			count++
		default:
		}
	}

	if count > 0 {
		log.Printf("[job] resumed %d pending jobs", count)
	}
}
