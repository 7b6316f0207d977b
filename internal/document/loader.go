package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mwiater/panchakarma/internal/logging"
)

// extractor returns the text of every extractable unit of a file, in order.
type extractor func(path string) ([]string, error)

var extractors = map[string]extractor{
	".pdf": extractPDF,
	".txt": extractText,
	".md":  extractText,
}

// SupportedExtension reports whether files with ext are ingested.
func SupportedExtension(ext string) bool {
	_, ok := extractors[strings.ToLower(ext)]
	return ok
}

// IngestionError records a single source file that could not be extracted.
type IngestionError struct {
	File string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.File, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// LoadReport summarises a directory load.
type LoadReport struct {
	Files    int
	Pages    int
	Failures []*IngestionError
}

// LoadDirectory reads every supported file directly inside dir and returns one
// Document per non-empty page. Files that fail to extract are skipped and
// recorded in the report; only an unreadable directory is an error.
func LoadDirectory(dir string) ([]Document, LoadReport, error) {
	var report LoadReport

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, report, fmt.Errorf("read corpus directory %s: %w", dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		extract, ok := extractors[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}

		pages, err := safeExtract(extract, filepath.Join(dir, name))
		if err != nil {
			ingestErr := &IngestionError{File: name, Err: err}
			report.Failures = append(report.Failures, ingestErr)
			logging.LogEvent("[INGEST] error loading %s: %v", name, err)
			continue
		}

		loaded := 0
		for i, page := range pages {
			text := strings.TrimSpace(page)
			if text == "" {
				continue
			}
			docs = append(docs, Document{
				Content: text,
				Metadata: map[string]string{
					MetadataSource: name,
					MetadataPage:   strconv.Itoa(i + 1),
				},
			})
			loaded++
		}
		report.Files++
		report.Pages += loaded
		logging.LogEvent("[INGEST] loaded %s (%d pages)", name, loaded)
	}

	return docs, report, nil
}

// safeExtract converts a panic inside a parser into an error.
func safeExtract(extract extractor, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return extract(path)
}

func extractText(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("file is not valid UTF-8 text")
	}
	return []string{string(raw)}, nil
}
