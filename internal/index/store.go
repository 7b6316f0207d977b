package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// FormatJSONL stores entries as one JSON object per line.
	FormatJSONL = "jsonl"
	// FormatSQLite stores entries in a single SQLite database.
	FormatSQLite = "sqlite"

	// ManifestFile is written last; its presence marks a complete index.
	ManifestFile = "manifest.json"
	jsonlFile    = "chunks.jsonl"
	sqliteFile   = "index.db"

	manifestVersion = 1
)

// NormalizeFormat maps a configured format name to a supported format.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSONL:
		return FormatJSONL, nil
	case FormatSQLite, "sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported index format %q", format)
	}
}

// Exists reports whether dir holds a manifest.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFile))
	return err == nil
}

// Save writes ix to dir in the manifest's format, creating dir if needed.
// Entry data is written before the manifest.
func Save(ix *Index, dir string) error {
	manifest := ix.Manifest()
	format, err := NormalizeFormat(manifest.Format)
	if err != nil {
		return err
	}
	manifest.Format = format
	if manifest.Version == 0 {
		manifest.Version = manifestVersion
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	_ = os.Remove(filepath.Join(dir, ManifestFile))

	switch format {
	case FormatSQLite:
		err = writeSQLite(filepath.Join(dir, sqliteFile), ix.entries)
	default:
		err = writeJSONL(filepath.Join(dir, jsonlFile), ix.entries)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := filepath.Join(dir, ManifestFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, ManifestFile)); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

// Load reads the index in dir. When embeddingModel is non-empty it must match
// the model recorded at build time.
func Load(dir, embeddingModel string) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrMissingIndex, dir)
		}
		return nil, fmt.Errorf("%w: %v", ErrMissingIndex, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingIndex, dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", ErrMissingIndex, err)
	}
	if err := ValidateManifest(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingIndex, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %v", ErrMissingIndex, err)
	}

	if embeddingModel != "" && embeddingModel != manifest.EmbeddingModel {
		return nil, fmt.Errorf("%w: index built with %q, configured %q", ErrEmbeddingMismatch, manifest.EmbeddingModel, embeddingModel)
	}

	var entries []Entry
	switch manifest.Format {
	case FormatSQLite:
		entries, err = readSQLite(filepath.Join(dir, sqliteFile))
	default:
		entries, err = readJSONL(filepath.Join(dir, jsonlFile))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingIndex, err)
	}
	if len(entries) != manifest.ChunkCount {
		return nil, fmt.Errorf("%w: manifest lists %d chunks, found %d", ErrMissingIndex, manifest.ChunkCount, len(entries))
	}

	ix, err := New(entries, manifest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingIndex, err)
	}
	return ix, nil
}
