package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestLoadDirectorySkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vasti.txt", []byte("Constipation is treated with Vasti (medicated enema) per classical text X.\n"))
	writeFile(t, dir, "broken.pdf", []byte("this is not a pdf"))
	writeFile(t, dir, "ignored.docx", []byte("unsupported"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "deep.txt", []byte("not loaded"))

	docs, report, err := LoadDirectory(dir)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "vasti.txt", docs[0].Source())
	assert.Equal(t, "1", docs[0].Metadata[MetadataPage])
	assert.Equal(t, "Constipation is treated with Vasti (medicated enema) per classical text X.", docs[0].Content)

	assert.Equal(t, 1, report.Files)
	assert.Equal(t, 1, report.Pages)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "broken.pdf", report.Failures[0].File)

	var ingestErr *IngestionError
	assert.True(t, errors.As(report.Failures[0], &ingestErr))
}

func TestLoadDirectoryRejectsInvalidText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "binary.md", []byte{0xff, 0xfe, 0xfd})

	docs, report, err := LoadDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, docs)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error(), "binary.md")
}

func TestLoadDirectorySkipsBlankFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blank.txt", []byte("   \n\n"))

	docs, report, err := LoadDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, report.Files)
	assert.Equal(t, 0, report.Pages)
	assert.Empty(t, report.Failures)
}

func TestLoadDirectoryMissing(t *testing.T) {
	_, _, err := LoadDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension(".PDF"))
	assert.True(t, SupportedExtension(".txt"))
	assert.False(t, SupportedExtension(".docx"))
}
