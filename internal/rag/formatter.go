package rag

import (
	"strings"

	"github.com/mwiater/panchakarma/internal/index"
)

// FormatContext joins the retrieved chunks in ranked order, separated by a
// blank line.
func FormatContext(matches []index.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Entry.Content)
	}
	return strings.Join(parts, "\n\n")
}
