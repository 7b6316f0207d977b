package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/panchakarma/internal/rag"
)

func TestAnswerIncludesSourcesAndDisclaimer(t *testing.T) {
	long := strings.Repeat("v", 700)
	answer := rag.Answer{
		Text: "1. Recommended Panchakarma therapy: Vasti",
		Sources: []rag.Source{
			{Rank: 1, Source: "charaka.pdf", Page: "12", Score: 0.81, Content: long},
			{Rank: 2, Content: "short passage"},
		},
	}

	out := Answer(answer, 0)
	assert.Contains(t, out, "Recommendation")
	assert.Contains(t, out, "Recommended Panchakarma therapy: Vasti")
	assert.Contains(t, out, "Source 1: charaka.pdf")
	assert.Contains(t, out, "Source 2: Unknown")
	assert.Contains(t, out, strings.Repeat("v", ExcerptLength)+"…")
	assert.NotContains(t, out, strings.Repeat("v", ExcerptLength+1))
	assert.Contains(t, out, "does not replace professional medical consultation")
}

func TestAnswerNoEvidenceOmitsSources(t *testing.T) {
	out := Answer(rag.Answer{Text: rag.NoEvidenceAnswer, Sources: []rag.Source{}, NoEvidence: true}, 80)
	assert.Contains(t, out, rag.NoEvidenceAnswer)
	assert.NotContains(t, out, "Supporting Evidence")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rag.Answer{Text: "ok"}, 40))
	assert.Contains(t, buf.String(), "ok")
}

func TestWriteToFileHasNoEscapeCodes(t *testing.T) {
	answer := rag.Answer{
		Text:    "Recommended therapy: Virechana",
		Sources: []rag.Source{{Rank: 1, Source: "charaka.pdf", Page: "3", Score: 0.72, Content: "Virechana is purgation."}},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, answer, 80))

	out := buf.String()
	assert.Contains(t, out, "Source 1: charaka.pdf (page 3, score 0.720)")
	assert.NotContains(t, out, "\x1b[")
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "Source 2: Unknown", SourceLabel(rag.Source{Rank: 2}))
	assert.Equal(t, "Source 1: sushruta.txt", SourceLabel(rag.Source{Rank: 1, Source: "sushruta.txt", Page: "4"}))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", Excerpt("  abc  ", 10))
	assert.Equal(t, "ab…", Excerpt("abc", 2))
	assert.Equal(t, "अआ…", Excerpt("अआइ", 2))
	assert.Equal(t, "abc", Excerpt("abc", 0))
}
