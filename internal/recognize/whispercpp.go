package recognize

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// WhisperCppClient talks to the whisper.cpp HTTP server (whisper-server).
type WhisperCppClient struct {
	baseURL    string
	httpClient *http.Client
	prepare    prepareFunc
}

func NewWhisperCppClient(baseURL string) *WhisperCppClient {
	return &WhisperCppClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		prepare: extractWAV,
	}
}

func (c *WhisperCppClient) Name() string {
	return "whisper.cpp"
}

func (c *WhisperCppClient) Recognize(ctx context.Context, audioPath, language string) (string, error) {
	wav, cleanup, err := c.prepare(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	defer cleanup()

	fields := map[string]string{
		"response_format": "json",
		"temperature":     "0.0",
	}
	languageField(fields, language)

	body, contentType, err := buildForm(wav, fields)
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	log.Printf("[recognize] sending %s to %s", audioPath, url)
	return send(ctx, c.httpClient, req, c.Name())
}
