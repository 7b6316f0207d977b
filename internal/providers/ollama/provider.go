// internal/providers/ollama/provider.go
// Package ollama provides a Generator backed by Ollama's /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/panchakarma/internal/logging"
	"github.com/mwiater/panchakarma/internal/providers"
)

// DefaultHost is the address of a local Ollama daemon.
const DefaultHost = "http://localhost:11434"

// Provider implements providers.Generator using Ollama HTTP APIs.
type Provider struct {
	host    string
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider for host with the given request timeout.
func New(host string, timeout time.Duration) *Provider {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}
	return &Provider{
		host: host,
		client: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
		},
		timeout: timeout,
	}
}

// Host returns the Ollama address requests are sent to.
func (p *Provider) Host() string {
	return p.host
}

func newTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = false
	return transport
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Name identifies the backend.
func (p *Provider) Name() string {
	return "ollama"
}

// Generate issues a single non-streaming /api/generate request.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResult, error) {
	if strings.TrimSpace(req.Model) == "" {
		return providers.GenerateResult{}, fmt.Errorf("ollama: model is required")
	}

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	payload := map[string]any{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"options": options,
		"stream":  false,
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		payload["system"] = req.SystemPrompt
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.GenerateResult{}, err
	}

	hostID := p.hostIdentifier()
	logging.LogRequest("APP->LLM", hostID, req.Model, body)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return providers.GenerateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.GenerateResult{}, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.GenerateResult{}, fmt.Errorf("ollama: read response: %w", err)
	}
	logging.LogRequest("LLM->APP", hostID, req.Model, respBody)

	if resp.StatusCode != http.StatusOK {
		return providers.GenerateResult{}, &providers.StatusError{
			Provider:   "ollama",
			Endpoint:   "/api/generate",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return providers.GenerateResult{}, fmt.Errorf("ollama: decode response: %w", err)
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	duration := time.Duration(parsed.TotalDuration)
	if duration <= 0 {
		duration = time.Since(start)
	}
	return providers.GenerateResult{
		Text:             parsed.Response,
		Model:            model,
		PromptTokens:     parsed.PromptEvalCount,
		CompletionTokens: parsed.EvalCount,
		Duration:         duration,
	}, nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) hostIdentifier() string {
	if u, err := url.Parse(p.host); err == nil && u.Host != "" {
		return u.Host
	}
	return p.host
}
