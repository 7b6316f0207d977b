package commands

import (
	"bytes"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/mwiater/panchakarma/internal/index"
	"github.com/mwiater/panchakarma/internal/rag"
)

// fakeOllama serves deterministic bag-of-words embeddings and a canned
// generation, recording every prompt it receives.
type fakeOllama struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch r.URL.Path {
	case "/api/embeddings":
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": bagOfWords(req.Prompt)})
	case "/api/generate":
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    req.Model,
			"response": "1. Recommended Therapy: Virechana\n5. Confidence Level: Medium",
			"done":     true,
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func bagOfWords(text string) []float32 {
	vec := make([]float32, 32)
	vec[0] = 0.01
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,;:")))
		vec[1+int(h.Sum32()%31)]++
	}
	return vec
}

func writePipelineConfig(t *testing.T, serverURL, corpus, indexPath string) {
	t.Helper()
	cfg := map[string]any{
		"corpusPath":         corpus,
		"indexPath":          indexPath,
		"embeddingProvider":  "ollama",
		"embeddingModel":     "fake-embed",
		"embeddingHost":      serverURL,
		"generationProvider": "ollama",
		"generationModel":    "fake-gen",
		"generationBaseURL":  serverURL,
		"retryAttempts":      1,
		"logFile":            filepath.Join(t.TempDir(), "p.log"),
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	useConfig(t, string(raw))
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"charaka.txt":  "Virechana is purgation therapy indicated for pitta disorders with burning sensation and acidity.",
		"sushruta.txt": "Basti is enema therapy indicated for vata disorders such as joint pain and constipation.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write corpus: %v", err)
		}
	}
	return dir
}

func TestAskBuildsIndexAndAnswersAsJSON(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	corpus := writeCorpus(t)
	indexPath := filepath.Join(t.TempDir(), "classical_db")
	writePipelineConfig(t, srv.URL, corpus, indexPath)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"ask", "--format", "json", "--age", "35", "--prakriti", "Pitta", "--symptoms", "burning sensation and acidity"})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	if !index.Exists(indexPath) {
		t.Fatalf("expected index to be built at %s", indexPath)
	}

	var answer rag.Answer
	if err := json.Unmarshal(buf.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v\n%s", err, buf.String())
	}
	if answer.NoEvidence {
		t.Fatalf("expected grounded answer, got sentinel")
	}
	if !strings.Contains(answer.Text, "Virechana") {
		t.Fatalf("unexpected answer text %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected both chunks as sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].Source != "charaka.txt" {
		t.Fatalf("expected charaka.txt ranked first, got %s", answer.Sources[0].Source)
	}

	prompts := fake.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(prompts))
	}
	for _, want := range []string{"Age: 35", "Prakriti: Pitta", "purgation therapy"} {
		if !strings.Contains(prompts[0], want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestIndexThenPreviewSkipsGeneration(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	corpus := writeCorpus(t)
	indexPath := filepath.Join(t.TempDir(), "classical_db")
	writePipelineConfig(t, srv.URL, corpus, indexPath)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"index"})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("index error: %v", err)
	}
	if !strings.Contains(buf.String(), "Chunks:        2") {
		t.Fatalf("expected chunk count in summary, got:\n%s", buf.String())
	}

	buf.Reset()
	rootCmd.SetArgs([]string{"preview", "joint", "pain"})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("preview error: %v", err)
	}
	if !strings.Contains(buf.String(), "source=sushruta.txt") {
		t.Fatalf("expected sushruta.txt in preview, got:\n%s", buf.String())
	}
	if n := len(fake.Prompts()); n != 0 {
		t.Fatalf("expected no generation calls, got %d", n)
	}
}

func TestWriteAnswerFormats(t *testing.T) {
	answer := rag.Answer{
		Text:    "Recommended Therapy: Basti",
		Sources: []rag.Source{{Rank: 1, Source: "sushruta.txt", Page: "1", Score: 0.9, Content: "Basti is enema therapy."}},
	}

	var js bytes.Buffer
	if err := writeAnswer(&js, answer, "json", 0); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(js.String(), `"answer": "Recommended Therapy: Basti"`) {
		t.Fatalf("unexpected json output:\n%s", js.String())
	}

	var ym bytes.Buffer
	if err := writeAnswer(&ym, answer, "yaml", 0); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(ym.Bytes(), &decoded); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if decoded["answer"] != "Recommended Therapy: Basti" {
		t.Fatalf("unexpected yaml answer: %v", decoded["answer"])
	}

	var txt bytes.Buffer
	if err := writeAnswer(&txt, answer, "text", 80); err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(txt.String(), "Source 1: sushruta.txt") {
		t.Fatalf("unexpected text output:\n%s", txt.String())
	}
}
