// internal/providers/openai/provider.go
// Package openai provides a Generator backed by an OpenAI-compatible
// chat completions API such as Groq or a local llama.cpp server.
package openai

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

const (
	// DefaultGroqBaseURL is the Groq OpenAI-compatible endpoint root.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	// DefaultOpenAIBaseURL is the OpenAI API root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// Options configures a Provider.
type Options struct {
	// Name labels the backend in logs and errors ("groq", "openai").
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Provider implements providers.Generator over /chat/completions.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider. An empty BaseURL defaults to Groq.
func New(opts Options) *Provider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	name := opts.Name
	if name == "" {
		name = "openai"
	}
	return &Provider{
		name:    name,
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newTransport(),
		},
		timeout: opts.Timeout,
	}
}

// BaseURL returns the endpoint root requests are sent to.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

func newTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = false
	return transport
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Name returns the backend label.
func (p *Provider) Name() string {
	return p.name
}

// Generate sends a single non-streaming chat completion request.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResult, error) {
	if strings.TrimSpace(req.Model) == "" {
		return providers.GenerateResult{}, fmt.Errorf("%s: model is required", p.name)
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.GenerateResult{}, err
	}
	logging.LogRequest("APP->LLM", p.hostIdentifier(), req.Model, body)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	endpoint := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.GenerateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.GenerateResult{}, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.GenerateResult{}, fmt.Errorf("%s: read response: %w", p.name, err)
	}
	logging.LogRequest("LLM->APP", p.hostIdentifier(), req.Model, raw)

	if resp.StatusCode != http.StatusOK {
		return providers.GenerateResult{}, &providers.StatusError{
			Provider:   p.name,
			Endpoint:   "/chat/completions",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.GenerateResult{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if len(parsed.Choices) == 0 {
		return providers.GenerateResult{}, fmt.Errorf("%s: chat response contained no choices", p.name)
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return providers.GenerateResult{
		Text:             parsed.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		Duration:         time.Since(start),
	}, nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) hostIdentifier() string {
	if u, err := url.Parse(p.baseURL); err == nil && u.Host != "" {
		return p.name + "@" + u.Host
	}
	return p.name
}
