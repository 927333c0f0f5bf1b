package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/video-stream/signreel/internal/job"
)

type JobHandler struct {
	queue      *job.JobQueue
	outputPath string
}

func NewJobHandler(queue *job.JobQueue, outputPath string) *JobHandler {
	return &JobHandler{queue: queue, outputPath: outputPath}
}

// ListJobs returns all jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListJobs()
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, jobs, http.StatusOK)
}

// GetJob returns a single job by ID
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.queue.GetJob(urlParam(r, "id"))
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}

// DeleteJob cancels an active job, or removes a finished one together with its
// rendered output.
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	j, err := h.queue.GetJob(id)
	if errors.Is(err, job.ErrNotFound) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !j.Status.Finished() {
		if err := h.queue.CancelJob(id); err != nil {
			jsonError(w, "failed to cancel job: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.queue.DeleteJob(id); err != nil {
		jsonError(w, "failed to delete job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	os.RemoveAll(filepath.Join(h.outputPath, filepath.Clean("/"+id)))
	w.WriteHeader(http.StatusNoContent)
}
