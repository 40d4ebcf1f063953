package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"advisorhub.app/assistant/core/config"
)

// Embedder turns text into a dense vector. The hosted model behind it is a
// deployment detail; retrieval only cares about the vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HTTPEmbedder calls a hosted feature-extraction endpoint
// (HuggingFace inference API shape).
type HTTPEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

func NewHTTPEmbedder(cfg config.EmbedderConfig) *HTTPEmbedder {
	return &HTTPEmbedder{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
	}
}

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]any{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed request failed: status %d: %s", resp.StatusCode, body)
	}

	// The endpoint returns either a flat vector or a single-element batch.
	var vector []float32
	if err := json.Unmarshal(body, &vector); err == nil {
		return vector, nil
	}
	var batch [][]float32
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		return batch[0], nil
	}
	return nil, fmt.Errorf("unexpected embed response shape")
}
