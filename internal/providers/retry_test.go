package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	errs  []error
	calls int
}

func (s *scriptedGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return GenerateResult{}, s.errs[s.calls-1]
	}
	return GenerateResult{Text: "answer", Model: req.Model}, nil
}

func (s *scriptedGenerator) Name() string { return "scripted" }
func (s *scriptedGenerator) Close() error { return nil }

func fastRetry(g Generator, attempts int) *Retrying {
	r := WithRetry(g, attempts)
	r.initialBackoff = time.Millisecond
	return r
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{errs: []error{
		&StatusError{StatusCode: http.StatusTooManyRequests},
		&StatusError{StatusCode: http.StatusBadGateway},
	}}
	res, err := fastRetry(gen, 3).Generate(context.Background(), GenerateRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
	assert.Equal(t, 3, gen.calls)
}

func TestWithRetryStopsOnPermanentFailure(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{errs: []error{&StatusError{StatusCode: http.StatusUnauthorized}}}
	_, err := fastRetry(gen, 3).Generate(context.Background(), GenerateRequest{Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 1, gen.calls)
}

func TestWithRetryGivesUpAfterAttempts(t *testing.T) {
	t.Parallel()

	transient := &StatusError{StatusCode: http.StatusServiceUnavailable}
	gen := &scriptedGenerator{errs: []error{transient, transient, transient, transient}}
	_, err := fastRetry(gen, 2).Generate(context.Background(), GenerateRequest{Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 2, gen.calls)
}

func TestWithRetryClampsAttempts(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	r := WithRetry(gen, 0)
	assert.Equal(t, 1, r.attempts)
	assert.Equal(t, "scripted", r.Name())
	assert.Same(t, gen, r.Wrapped())
	assert.NoError(t, r.Close())
}
