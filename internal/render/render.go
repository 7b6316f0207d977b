// Package render formats answers for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/panchakarma/internal/rag"
)

// ExcerptLength is the number of characters shown per source passage.
const ExcerptLength = 600

// Disclaimer is printed under every rendered answer.
const Disclaimer = "This system generates recommendations based on textual sources.\nIt does not replace professional medical consultation."

// styles holds the answer styles bound to one output's colour profile.
type styles struct {
	heading lipgloss.Style
	body    lipgloss.Style
	source  lipgloss.Style
	detail  lipgloss.Style
	excerpt lipgloss.Style
	footer  lipgloss.Style
	notice  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginTop(1),
		body:    r.NewStyle().PaddingLeft(2),
		source:  r.NewStyle().Bold(true),
		detail:  r.NewStyle().Faint(true),
		excerpt: r.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("245")),
		footer:  r.NewStyle().Italic(true).Foreground(lipgloss.Color("241")).MarginTop(1),
		notice:  r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// Answer renders the recommendation, its source passages and the disclaimer
// for the terminal. width <= 0 disables wrapping.
func Answer(answer rag.Answer, width int) string {
	return newStyles(lipgloss.DefaultRenderer()).answer(answer, width)
}

func (st styles) answer(answer rag.Answer, width int) string {
	var b strings.Builder

	b.WriteString(st.heading.Render("Recommendation"))
	b.WriteString("\n")
	if answer.NoEvidence {
		b.WriteString(st.body.Render(st.notice.Render(answer.Text)))
	} else {
		b.WriteString(wrapped(st.body, width).Render(strings.TrimSpace(answer.Text)))
	}
	b.WriteString("\n")

	if len(answer.Sources) > 0 {
		b.WriteString(st.heading.Render("Supporting Evidence"))
		b.WriteString("\n")
		for _, src := range answer.Sources {
			b.WriteString(st.source.Render(SourceLabel(src)))
			if detail := sourceDetail(src); detail != "" {
				b.WriteString(st.detail.Render(detail))
			}
			b.WriteString("\n")
			b.WriteString(wrapped(st.excerpt, width).Render(Excerpt(src.Content, ExcerptLength)))
			b.WriteString("\n")
		}
	}

	b.WriteString(wrapped(st.footer, width).Render(Disclaimer))
	b.WriteString("\n")
	return b.String()
}

// Write renders answer to w using w's colour profile, so files and pipes
// receive plain text.
func Write(w io.Writer, answer rag.Answer, width int) error {
	_, err := io.WriteString(w, newStyles(lipgloss.NewRenderer(w)).answer(answer, width))
	return err
}

// SourceLabel returns the "Source i: file" heading for one passage.
func SourceLabel(src rag.Source) string {
	name := src.Source
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("Source %d: %s", src.Rank, name)
}

func sourceDetail(src rag.Source) string {
	if src.Page == "" {
		return ""
	}
	return fmt.Sprintf(" (page %s, score %.3f)", src.Page, src.Score)
}

// Excerpt returns the first n characters of text.
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "…"
}

func wrapped(style lipgloss.Style, width int) lipgloss.Style {
	if width <= 0 {
		return style
	}
	return style.Width(width)
}
