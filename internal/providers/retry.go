package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mwiater/panchakarma/internal/logging"
)

const defaultInitialBackoff = 500 * time.Millisecond

// Retrying wraps a Generator with bounded exponential backoff on transient
// failures. Every returned error wraps ErrGeneration.
type Retrying struct {
	next           Generator
	attempts       int
	initialBackoff time.Duration
}

// WithRetry makes up to attempts calls to g per request. attempts < 1 is treated as 1.
func WithRetry(g Generator, attempts int) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: g, attempts: attempts, initialBackoff: defaultInitialBackoff}
}

// Wrapped returns the underlying generator.
func (r *Retrying) Wrapped() Generator {
	return r.next
}

// Name returns the underlying generator's name.
func (r *Retrying) Name() string {
	return r.next.Name()
}

// Generate calls the underlying generator, retrying transient failures.
func (r *Retrying) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	var result GenerateResult
	operation := func() error {
		res, err := r.next.Generate(ctx, req)
		if err != nil {
			if !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialBackoff
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts-1)), ctx)

	notify := func(err error, wait time.Duration) {
		logging.LogWarning("%s: transient generation failure, retrying in %s: %v", r.next.Name(), wait.Truncate(time.Millisecond), err)
	}
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return GenerateResult{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return result, nil
}

// Close closes the underlying generator.
func (r *Retrying) Close() error {
	return r.next.Close()
}
