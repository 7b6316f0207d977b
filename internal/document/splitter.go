package document

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the number of characters shared by neighbouring chunks.
	DefaultChunkOverlap = 100
)

// DefaultSeparators lists split boundaries from largest to smallest:
// paragraph, line, sentence, word, character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter recursively breaks text at the largest natural boundary that keeps
// every chunk within chunkSize characters, carrying up to chunkOverlap
// characters of trailing context into the next chunk.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter validates the parameters and returns a Splitter using DefaultSeparators.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be zero or greater")
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// SplitDocuments splits each document and copies its metadata onto every chunk.
func (s *Splitter) SplitDocuments(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for _, text := range s.SplitText(doc.Content) {
			chunks = append(chunks, Chunk{
				Content:  text,
				Metadata: copyMetadata(doc.Metadata),
			})
		}
	}
	return chunks
}

// SplitText splits a single text. Whitespace-only input yields no chunks.
func (s *Splitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var chunks []string
	var fitting []string
	for _, piece := range splitAfter(text, separator) {
		if runeLen(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting)...)
			fitting = nil
		}
		if len(finer) == 0 {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			continue
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting)...)
	}
	return chunks
}

// merge packs pieces into chunks no longer than chunkSize. When a chunk is
// emitted, pieces are dropped from its front until at most chunkOverlap
// characters remain; those become the start of the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitAfter splits text after each occurrence of sep, keeping the separator
// attached to the preceding piece. An empty sep splits into runes.
func splitAfter(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	parts := strings.SplitAfter(text, sep)
	pieces := parts[:0]
	for _, p := range parts {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
