// Package server exposes the answer engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/panchakarma/internal/index"
	"github.com/mwiater/panchakarma/internal/logging"
	"github.com/mwiater/panchakarma/internal/providers"
	"github.com/mwiater/panchakarma/internal/rag"
)

const maxRequestBytes = 1 << 20

// Engine answers free-text or structured patient cases.
type Engine interface {
	Answer(ctx context.Context, query string) (rag.Answer, error)
	AnswerQuery(ctx context.Context, q rag.Query) (rag.Answer, error)
}

// AnswerRequest is the POST /answer body. Either the structured case fields
// or a free-text "query" must be given.
type AnswerRequest struct {
	rag.Query
	Text string `json:"query,omitempty"`
}

// ErrResp is returned with every non-2xx status.
type ErrResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Server routes HTTP requests to a shared, read-only engine.
type Server struct {
	engine   Engine
	manifest index.Manifest
	mux      *http.ServeMux
}

// New builds the handler tree.
func New(engine Engine, manifest index.Manifest) *Server {
	s := &Server{engine: engine, manifest: manifest, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.HandleFunc("GET /index", s.handleIndex)
	s.mux.HandleFunc("POST /answer", s.handleAnswer)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("[SERVE] listening on %s (%d chunks, %s)", addr, s.manifest.ChunkCount, s.manifest.EmbeddingModel)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manifest)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(w, r, &req, maxRequestBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: "invalid JSON: " + err.Error()})
		return
	}

	start := time.Now()
	var (
		answer rag.Answer
		err    error
	)
	if text := strings.TrimSpace(req.Text); text != "" {
		answer, err = s.engine.Answer(r.Context(), text)
	} else {
		if verr := req.Query.Validate(); verr != nil {
			writeJSON(w, http.StatusBadRequest, ErrResp{Error: verr.Error()})
			return
		}
		answer, err = s.engine.AnswerQuery(r.Context(), req.Query)
	}
	if err != nil {
		status := statusFor(err)
		logging.LogEvent("[SERVE] answer failed (%d) after %s: %v", status, time.Since(start).Truncate(time.Millisecond), err)
		writeJSON(w, status, ErrResp{Error: err.Error()})
		return
	}

	logging.LogEvent("[SERVE] answered from %d sources in %s", len(answer.Sources), time.Since(start).Truncate(time.Millisecond))
	writeJSON(w, http.StatusOK, answer)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, providers.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, rag.ErrEmptySymptoms):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
