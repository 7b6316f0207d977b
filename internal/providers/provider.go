// internal/providers/provider.go

// Package providers defines the generation-model abstraction used by the
// answer engine. A provider turns one prompt into one completion; concrete
// adapters live in subpackages and are selected by configuration.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrGeneration marks a failed generation call. It is fatal to the request
// that triggered it.
var ErrGeneration = errors.New("generation failed")

// GenerateRequest is a single non-streaming completion request.
type GenerateRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// GenerateResult is the raw completion plus backend telemetry.
type GenerateResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

// Generator is implemented by every generation backend.
type Generator interface {
	// Generate sends the prompt once and returns the model's raw text.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	// Name identifies the backend for logs.
	Name() string
	// Close releases any resources held by the backend.
	Close() error
}

// StatusError is returned when a backend answers with a non-success HTTP status.
type StatusError struct {
	Provider   string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d %s: %s", e.Provider, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// IsTransient reports whether err is worth retrying: rate limiting, server
// errors, timeouts and network failures. Caller cancellation is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
