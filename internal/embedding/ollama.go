package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/panchakarma/internal/logging"
)

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Ollama requests embeddings from an Ollama-compatible /api/embeddings endpoint.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
	timeout time.Duration
}

// DefaultOllamaHost is used when no embedding host is configured.
const DefaultOllamaHost = "http://localhost:11434"

// NewOllama constructs a remote embedder. timeout bounds each request.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultOllamaHost
	}
	return &Ollama{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
	}
}

// ModelName returns the configured model identifier.
func (o *Ollama) ModelName() string {
	return o.model
}

// Embed requests an embedding vector for text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(o.model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	payload := map[string]any{
		"model":  o.model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logging.LogRequest("APP->EMBED", o.baseURL, o.model, body)
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest("EMBED->APP", o.baseURL, o.model, raw)
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	var parsed ollamaEmbeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response returned empty vector")
	}
	logging.LogRequest("EMBED->APP", o.baseURL, o.model, map[string]int{"dimensions": len(parsed.Embedding)})

	return parsed.Embedding, nil
}

// Close releases idle connections.
func (o *Ollama) Close() error {
	o.client.CloseIdleConnections()
	return nil
}
