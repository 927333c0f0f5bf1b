package recognize

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const openAIBaseURL = "https://api.openai.com/v1"
const maxOpenAIFileSize = 25 * 1024 * 1024 // 25MB limit

// OpenAIClient uses the OpenAI transcription API with the whisper-1 model.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	prepare    prepareFunc
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		prepare: extractWAV,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Recognize(ctx context.Context, audioPath, language string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OpenAI API key not configured", ErrServiceUnavailable)
	}

	wav, cleanup, err := c.prepare(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	defer cleanup()

	info, err := os.Stat(wav)
	if err != nil {
		return "", err
	}
	if info.Size() > maxOpenAIFileSize {
		return "", fmt.Errorf("%w: audio is %d bytes, over the 25MB upload limit", ErrRecognitionFailure, info.Size())
	}

	fields := map[string]string{
		"model":           "whisper-1",
		"response_format": "json",
	}
	languageField(fields, language)

	body, contentType, err := buildForm(wav, fields)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/audio/transcriptions", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[recognize] sending %s to OpenAI", audioPath)
	return send(ctx, c.httpClient, req, c.Name())
}
