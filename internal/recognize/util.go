package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type transcriptionResponse struct {
	Text string `json:"text"`
}

// buildForm writes the audio file and fields into a multipart body.
func buildForm(audioPath string, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// send posts the request and decodes a {"text": ...} body, mapping transport
// and server failures onto the package errors.
func send(ctx context.Context, client *http.Client, req *http.Request, service string) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %v", ErrServiceUnavailable, service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrServiceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if isUnavailable(resp.StatusCode) {
			return "", fmt.Errorf("%w: %s status %d: %s", ErrServiceUnavailable, service, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("%w: %s status %d: %s", ErrRecognitionFailure, service, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: %s returned invalid JSON: %v", ErrRecognitionFailure, service, err)
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// isUnavailable reports server-side conditions that mean the service is down
// or overloaded rather than that the audio was rejected.
func isUnavailable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func languageField(fields map[string]string, language string) {
	if language != "" && language != "auto" {
		fields["language"] = language
	}
}
