package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/mwiater/panchakarma/internal/logging"
)

// Hugot runs a sentence-transformers model in-process through hugot's pure Go
// backend. The model is downloaded into modelDir on first use and the session
// is created once per Hugot value.
type Hugot struct {
	modelName string
	modelDir  string

	once    sync.Once
	initErr error
	session *hugot.Session
	run     func(texts []string) ([][]float32, error)

	// mu serialises pipeline runs.
	mu sync.Mutex
}

// NewHugot returns a lazily initialised local embedder.
func NewHugot(modelName, modelDir string) *Hugot {
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	if strings.TrimSpace(modelDir) == "" {
		modelDir = "./models"
	}
	return &Hugot{modelName: modelName, modelDir: modelDir}
}

// ModelName returns the configured model identifier.
func (h *Hugot) ModelName() string {
	return h.modelName
}

// Embed returns the sentence embedding of text.
func (h *Hugot) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.once.Do(h.init)
	if h.initErr != nil {
		return nil, h.initErr
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := h.run([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result) == 0 || len(result[0]) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}
	return result[0], nil
}

// Close destroys the hugot session if one was created.
func (h *Hugot) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}

func (h *Hugot) init() {
	modelPath, err := h.prepareModel()
	if err != nil {
		h.initErr = err
		return
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		h.initErr = fmt.Errorf("failed to create hugot session: %w", err)
		return
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "panchakarma-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			h.initErr = fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
			return
		}
		h.initErr = fmt.Errorf("failed to create embedding pipeline: %w", err)
		return
	}

	h.session = session
	h.run = func(texts []string) ([][]float32, error) {
		out, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return out.Embeddings, nil
	}
	logging.LogEvent("[EMBED] loaded %s from %s", h.modelName, modelPath)
}

// prepareModel downloads the model if it is not already present under modelDir.
func (h *Hugot) prepareModel() (string, error) {
	modelPath := filepath.Join(h.modelDir, strings.ReplaceAll(h.modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat model directory: %w", err)
	}

	if err := os.MkdirAll(h.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	logging.LogEvent("[EMBED] downloading %s into %s", h.modelName, h.modelDir)
	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = "onnx/model.onnx"
	downloadedPath, err := hugot.DownloadModel(h.modelName, h.modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloadedPath, nil
}
