package job

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/video-stream/signreel/internal/db"
)

func setupQueue(t *testing.T) *JobQueue {
	t.Helper()
	d, err := db.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	q := NewJobQueue(d.DB())
	t.Cleanup(func() {
		q.Stop()
		d.Close()
	})
	return q
}

func waitFor(t *testing.T, q *JobQueue, id string, want JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := q.GetJob(id)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if j.Status == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	j, _ := q.GetJob(id)
	t.Fatalf("job %s status = %s, want %s", id, j.Status, want)
	return nil
}

func TestQueue_CompletesWithResult(t *testing.T) {
	q := setupQueue(t)
	q.RegisterHandler(JobCompose, func(ctx context.Context, j *Job, progress func(float64)) error {
		var p RenderParams
		if err := json.Unmarshal(j.Params, &p); err != nil {
			return err
		}
		progress(0.5)
		j.Result, _ = json.Marshal(RenderResult{Transcript: p.Transcript, OutputPath: j.ID + ".mp4"})
		return nil
	})
	q.Start()

	j, err := q.Enqueue(JobCompose, "", RenderParams{Transcript: "hello"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	done := waitFor(t, q, j.ID, StatusCompleted)

	if done.Progress != 1.0 || done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("job = %+v", done)
	}
	var res RenderResult
	if err := json.Unmarshal(done.Result, &res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Transcript != "hello" || res.OutputPath != j.ID+".mp4" {
		t.Errorf("result = %+v", res)
	}
}

func TestQueue_Failure(t *testing.T) {
	q := setupQueue(t)
	q.RegisterHandler(JobRender, func(context.Context, *Job, func(float64)) error {
		return errors.New("no media found for any word")
	})
	q.Start()

	j, _ := q.Enqueue(JobRender, "/uploads/a.wav", RenderParams{})
	failed := waitFor(t, q, j.ID, StatusFailed)
	if failed.Error != "no media found for any word" || failed.FilePath != "/uploads/a.wav" {
		t.Errorf("job = %+v", failed)
	}
}

func TestQueue_NoHandler(t *testing.T) {
	q := setupQueue(t)
	q.Start()
	j, _ := q.Enqueue(JobRender, "", nil)
	failed := waitFor(t, q, j.ID, StatusFailed)
	if failed.Error == "" {
		t.Error("expected error message")
	}
}

func TestQueue_CancelRunning(t *testing.T) {
	q := setupQueue(t)
	started := make(chan struct{})
	q.RegisterHandler(JobCompose, func(ctx context.Context, _ *Job, _ func(float64)) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	q.Start()

	j, _ := q.Enqueue(JobCompose, "", RenderParams{Transcript: "x"})
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never started")
	}
	if err := q.CancelJob(j.ID); err != nil {
		t.Fatal(err)
	}
	waitFor(t, q, j.ID, StatusCancelled)
}

func TestQueue_ListAndDelete(t *testing.T) {
	q := setupQueue(t)
	// no worker: jobs stay pending
	a, _ := q.Enqueue(JobCompose, "", RenderParams{Transcript: "a"})
	b, _ := q.Enqueue(JobCompose, "", RenderParams{Transcript: "b"})

	jobs, err := q.ListJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d", len(jobs))
	}

	if err := q.DeleteJob(a.ID); err == nil {
		t.Error("pending job must not be deletable")
	}
	q.CancelJob(a.ID)
	if err := q.DeleteJob(a.ID); err != nil {
		t.Errorf("DeleteJob: %v", err)
	}
	if _, err := q.GetJob(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob after delete = %v", err)
	}
	if _, err := q.GetJob(b.ID); err != nil {
		t.Errorf("other job gone: %v", err)
	}
}

func TestQueue_ResumesPending(t *testing.T) {
	q := setupQueue(t)
	j, _ := q.Enqueue(JobCompose, "", RenderParams{Transcript: "later"})
	// simulate a crash mid-run
	q.db.Exec("UPDATE jobs SET status = ? WHERE id = ?", StatusRunning, j.ID)

	// drain the channel so only resume can schedule it
	<-q.pending

	q.RegisterHandler(JobCompose, func(context.Context, *Job, func(float64)) error { return nil })
	q.Start()
	waitFor(t, q, j.ID, StatusCompleted)
}

func TestQueue_CancelledJobIsNotStarted(t *testing.T) {
	q := setupQueue(t)
	j, _ := q.Enqueue(JobCompose, "", RenderParams{Transcript: "x"})
	loaded, err := q.GetJob(j.ID)
	if err != nil {
		t.Fatal(err)
	}
	// cancelled after the worker loaded it but before it was marked running
	if err := q.CancelJob(j.ID); err != nil {
		t.Fatal(err)
	}
	if q.markRunning(loaded) {
		t.Fatal("markRunning succeeded on a cancelled job")
	}
	got, _ := q.GetJob(j.ID)
	if got.Status != StatusCancelled || got.StartedAt != nil {
		t.Errorf("job = %+v", got)
	}
}

func TestQueue_FinishKeepsCancellation(t *testing.T) {
	q := setupQueue(t)
	j, _ := q.Enqueue(JobCompose, "", RenderParams{Transcript: "x"})
	loaded, _ := q.GetJob(j.ID)
	if !q.markRunning(loaded) {
		t.Fatal("markRunning failed")
	}
	if err := q.CancelJob(j.ID); err != nil {
		t.Fatal(err)
	}

	q.completeJob(loaded)
	if got, _ := q.GetJob(j.ID); got.Status != StatusCancelled {
		t.Errorf("status after complete = %s, want cancelled", got.Status)
	}
	q.failJob(loaded, "boom")
	got, _ := q.GetJob(j.ID)
	if got.Status != StatusCancelled || got.Error != "" {
		t.Errorf("job after fail = %+v", got)
	}
}

func TestQueue_StopWaitsForWorker(t *testing.T) {
	d, err := db.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer d.Close()
	q := NewJobQueue(d.DB())

	started := make(chan struct{})
	var returned atomic.Bool
	q.RegisterHandler(JobCompose, func(ctx context.Context, _ *Job, _ func(float64)) error {
		close(started)
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		returned.Store(true)
		return ctx.Err()
	})
	q.Start()

	if _, err := q.Enqueue(JobCompose, "", RenderParams{Transcript: "x"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never started")
	}

	q.Stop()
	if !returned.Load() {
		t.Error("Stop returned before the running handler finished")
	}
}
