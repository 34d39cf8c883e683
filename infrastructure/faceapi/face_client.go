package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoFaceFound is returned when the embedding service detects no face
// in the submitted image.
var ErrNoFaceFound = errors.New("no face found in image")

// FaceClient communicates with the embedding extraction Python service
type FaceClient struct {
	baseURL      string
	embeddingDim int
	httpClient   *http.Client
}

// ExtractResponse is the response from embedding extraction
type ExtractResponse struct {
	Success   bool      `json:"success"`
	FaceFound bool      `json:"face_found"`
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`

	// Processing info
	ProcessingTimeMs int `json:"processing_time_ms"`
}

// HealthResponse is the response from health check
type HealthResponse struct {
	Status  string `json:"status"`
	Model   string `json:"model"`
	Version string `json:"version"`
}

// NewFaceClient creates a new embedding service client
func NewFaceClient(baseURL string, embeddingDim, timeoutSeconds int) *FaceClient {
	return &FaceClient{
		baseURL:      baseURL,
		embeddingDim: embeddingDim,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

// ExtractEmbedding extracts a single face embedding from image bytes.
// Returns ErrNoFaceFound when the service reports no detectable face.
func (c *FaceClient) ExtractEmbedding(ctx context.Context, imageData []byte, mimeType string) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/extract", bytes.NewBuffer(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ExtractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("embedding extraction failed: %s", result.Error)
	}

	if !result.FaceFound || len(result.Embedding) == 0 {
		return nil, ErrNoFaceFound
	}

	if len(result.Embedding) != c.embeddingDim {
		return nil, fmt.Errorf("unexpected embedding dimension %d, want %d", len(result.Embedding), c.embeddingDim)
	}

	return result.Embedding, nil
}

// Health checks if the embedding service is healthy
func (c *FaceClient) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call health API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// IsAvailable checks if the embedding service is available
func (c *FaceClient) IsAvailable(ctx context.Context) bool {
	health, err := c.Health(ctx)
	if err != nil {
		return false
	}
	return health.Status == "ok"
}
