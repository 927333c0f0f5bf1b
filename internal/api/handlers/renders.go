package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/video-stream/signreel/internal/ffmpeg"
	"github.com/video-stream/signreel/internal/job"
)

const maxUploadSize = 100 << 20 // 100MB

// uploadExtensions are the accepted audio formats.
var uploadExtensions = map[string]bool{".wav": true, ".mp3": true}

type RenderHandler struct {
	queue      *job.JobQueue
	uploadPath string
	outputPath string
}

func NewRenderHandler(queue *job.JobQueue, uploadPath, outputPath string) *RenderHandler {
	return &RenderHandler{queue: queue, uploadPath: uploadPath, outputPath: outputPath}
}

// Upload stores an audio file and queues a render job for it. Uploaded files
// are kept after the job finishes.
func (h *RenderHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		jsonError(w, "missing 'audio' file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExtensions[ext] {
		jsonError(w, "audio must be a .wav or .mp3 file", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.uploadPath, 0755); err != nil {
		jsonError(w, "failed to prepare upload directory", http.StatusInternalServerError)
		return
	}
	dst := filepath.Join(h.uploadPath, uuid.New().String()+ext)
	if err := saveUpload(file, dst); err != nil {
		log.Printf("[api] save upload: %v", err)
		jsonError(w, "failed to save upload", http.StatusInternalServerError)
		return
	}

	params := job.RenderParams{
		Engine:   r.FormValue("engine"),
		Language: r.FormValue("language"),
	}
	j, err := h.queue.Enqueue(job.JobRender, dst, params)
	if err != nil {
		jsonError(w, "failed to queue render: "+err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[api] queued render %s for %s", j.ID, header.Filename)
	jsonResponse(w, j, http.StatusAccepted)
}

func saveUpload(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

type composeRequest struct {
	Transcript string `json:"transcript"`
}

// Compose queues a render from typed text, skipping speech recognition.
func (h *RenderHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		jsonError(w, "transcript is required", http.StatusBadRequest)
		return
	}

	j, err := h.queue.Enqueue(job.JobCompose, "", job.RenderParams{Transcript: req.Transcript})
	if err != nil {
		jsonError(w, "failed to queue render: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// Video streams the finished render with range support.
func (h *RenderHandler) Video(w http.ResponseWriter, r *http.Request) {
	path, status, err := h.renderPath(urlParam(r, "id"))
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

// Poster serves a preview frame of the finished render.
func (h *RenderHandler) Poster(w http.ResponseWriter, r *http.Request) {
	path, status, err := h.renderPath(urlParam(r, "id"))
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	poster, err := ffmpeg.GeneratePoster(r.Context(), path, filepath.Dir(path))
	if err != nil {
		log.Printf("[api] poster for %s: %v", path, err)
		jsonError(w, "failed to generate poster", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "max-age=3600")
	http.ServeFile(w, r, poster)
}

// renderPath resolves the output file of a completed job.
func (h *RenderHandler) renderPath(id string) (string, int, error) {
	j, err := h.queue.GetJob(id)
	if errors.Is(err, job.ErrNotFound) {
		return "", http.StatusNotFound, errors.New("render not found")
	}
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	if j.Status != job.StatusCompleted {
		return "", http.StatusConflict, fmt.Errorf("render is %s", j.Status)
	}

	var res job.RenderResult
	if err := json.Unmarshal(j.Result, &res); err != nil || res.OutputPath == "" {
		return "", http.StatusNotFound, errors.New("render has no output")
	}
	full := filepath.Join(h.outputPath, filepath.Clean("/"+res.OutputPath))
	if _, err := os.Stat(full); err != nil {
		return "", http.StatusNotFound, errors.New("render file missing")
	}
	return full, http.StatusOK, nil
}
