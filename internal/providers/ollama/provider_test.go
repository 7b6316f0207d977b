// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwiater/panchakarma/internal/providers"
)

func TestGeneratePostsNonStreamingRequest(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","response":"Confidence Level: Medium","done":true,"total_duration":2000000,"prompt_eval_count":40,"eval_count":5}`))
	}))
	defer server.Close()

	provider := New(server.URL, 5*time.Second)
	res, err := provider.Generate(context.Background(), providers.GenerateRequest{
		Model:        "llama3.1",
		Prompt:       "grounded prompt",
		SystemPrompt: "be brief",
		Temperature:  0.2,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Text != "Confidence Level: Medium" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Duration != 2*time.Millisecond {
		t.Fatalf("unexpected duration: %s", res.Duration)
	}
	if res.PromptTokens != 40 || res.CompletionTokens != 5 {
		t.Fatalf("unexpected token counts: %+v", res)
	}

	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream=false, got %v", payload["stream"])
	}
	if payload["prompt"] != "grounded prompt" || payload["system"] != "be brief" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	options, ok := payload["options"].(map[string]any)
	if !ok || options["temperature"] != 0.2 {
		t.Fatalf("expected temperature option, got %v", payload["options"])
	}
}

func TestGenerateReturnsStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading model"))
	}))
	defer server.Close()

	provider := New(server.URL, 5*time.Second)
	_, err := provider.Generate(context.Background(), providers.GenerateRequest{Model: "llama3.1", Prompt: "p"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Body != "loading model" {
		t.Fatalf("unexpected body: %q", statusErr.Body)
	}
	if !providers.IsTransient(err) {
		t.Fatal("expected 503 to be transient")
	}
}

func TestGenerateRejectsMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	provider := New(server.URL, 5*time.Second)
	if _, err := provider.Generate(context.Background(), providers.GenerateRequest{Model: "m", Prompt: "p"}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewDefaultsHost(t *testing.T) {
	t.Parallel()

	provider := New("  ", time.Second)
	if provider.host != DefaultHost {
		t.Fatalf("expected default host, got %q", provider.host)
	}
	if provider.Name() != "ollama" {
		t.Fatalf("unexpected name %q", provider.Name())
	}
}

func TestNewTransportKeepsDefaults(t *testing.T) {
	t.Parallel()

	p := New("", time.Second)
	transport, ok := p.client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", p.client.Transport)
	}
	if transport.Proxy == nil || transport.TLSHandshakeTimeout <= 0 {
		t.Fatal("expected default proxy and TLS handshake settings")
	}
	if transport.ForceAttemptHTTP2 {
		t.Fatal("expected HTTP/2 attempts disabled")
	}
}
