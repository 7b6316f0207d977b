package document

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%03d", i)
	}
	return strings.Join(words, " ")
}

// sharedBoundary returns the length of the longest suffix of a that is also a prefix of b.
func sharedBoundary(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for k := max; k > 0; k-- {
		if a[len(a)-k:] == b[:k] {
			return k
		}
	}
	return 0
}

func TestNewSplitterValidatesParameters(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewSplitter(100, -1)
	assert.Error(t, err)

	_, err = NewSplitter(100, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be smaller")

	s, err := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSplitTextShortDocumentIsSingleChunk(t *testing.T) {
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)

	text := "Constipation is treated with Vasti (medicated enema) per classical text X."
	chunks := s.SplitText(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitTextShortDocumentWithParagraphsIsSingleChunk(t *testing.T) {
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)

	text := "Virechana is purgation.\n\nIt is indicated for Pitta disorders."
	chunks := s.SplitText(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitTextEmpty(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	assert.Empty(t, s.SplitText(""))
	assert.Empty(t, s.SplitText(" \n\n\t "))
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	s, err := NewSplitter(120, 20)
	require.NoError(t, err)

	var b strings.Builder
	for p := 0; p < 6; p++ {
		for sentence := 0; sentence < 5; sentence++ {
			fmt.Fprintf(&b, "Paragraph %d sentence %d describes Snehana and Swedana preparation. ", p, sentence)
		}
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Repeat("x", 300))

	chunks := s.SplitText(b.String())
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 120, "chunk %d too long", i)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitTextOverlapsConsecutiveChunks(t *testing.T) {
	const size, overlap = 100, 20
	s, err := NewSplitter(size, overlap)
	require.NoError(t, err)

	chunks := s.SplitText(numberedWords(60))
	require.Greater(t, len(chunks), 2)

	for i := 0; i+1 < len(chunks); i++ {
		shared := sharedBoundary(chunks[i], chunks[i+1])
		assert.Greater(t, shared, 0, "chunks %d and %d share no boundary text", i, i+1)
		assert.LessOrEqual(t, shared, overlap, "chunks %d and %d overlap too much", i, i+1)
	}
}

func TestSplitTextFallsBackToCharacters(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	chunks := s.SplitText(strings.Repeat("a", 250))
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 70)
}

func TestSplitTextCountsRunesNotBytes(t *testing.T) {
	s, err := NewSplitter(10, 2)
	require.NoError(t, err)

	chunks := s.SplitText(strings.Repeat("वात ", 8))
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
	}
}

func TestSplitDocumentsPropagatesMetadata(t *testing.T) {
	s, err := NewSplitter(50, 10)
	require.NoError(t, err)

	docs := []Document{
		{Content: numberedWords(20), Metadata: map[string]string{MetadataSource: "charaka.pdf", MetadataPage: "3"}},
		{Content: "Nasya clears the head.", Metadata: map[string]string{MetadataSource: "notes.txt", MetadataPage: "1"}},
	}

	chunks := s.SplitDocuments(docs)
	require.Greater(t, len(chunks), 2)

	last := chunks[len(chunks)-1]
	assert.Equal(t, "notes.txt", last.Source())
	assert.Equal(t, "Nasya clears the head.", last.Content)

	for _, chunk := range chunks[:len(chunks)-1] {
		assert.Equal(t, "charaka.pdf", chunk.Source())
		assert.Equal(t, "3", chunk.Metadata[MetadataPage])
	}

	chunks[0].Metadata[MetadataSource] = "mutated"
	assert.Equal(t, "charaka.pdf", docs[0].Source(), "chunk metadata must not alias document metadata")
}
