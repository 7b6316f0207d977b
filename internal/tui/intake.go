// Package tui provides the terminal intake form for patient cases.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/panchakarma/internal/rag"
	"github.com/mwiater/panchakarma/internal/render"
)

// Answerer answers one validated patient case.
type Answerer interface {
	AnswerQuery(ctx context.Context, q rag.Query) (rag.Answer, error)
}

// viewState represents the current screen.
type viewState int

const (
	viewForm viewState = iota
	viewLoading
	viewAnswer
)

// field identifies a form input.
type field int

const (
	fieldAge field = iota
	fieldGender
	fieldPrakriti
	fieldHistory
	fieldSymptoms
	fieldCount
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle   = lipgloss.NewStyle().Width(10)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	choiceStyle  = lipgloss.NewStyle().Background(lipgloss.Color("229")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

type answerMsg struct {
	answer rag.Answer
	err    error
}

// model is the Bubble Tea model for the intake form.
type model struct {
	ctx      context.Context
	answerer Answerer
	state    viewState
	focus    field

	age      textinput.Model
	gender   int
	prakriti int
	history  textarea.Model
	symptoms textarea.Model

	spinner  spinner.Model
	viewport viewport.Model

	answer  rag.Answer
	warning string
	err     error

	width, height int
}

func newModel(ctx context.Context, answerer Answerer, example bool) *model {
	age := textinput.New()
	age.Placeholder = "1-120"
	age.CharLimit = 3
	age.Width = 5
	age.Focus()

	history := textarea.New()
	history.Placeholder = "Medical history"
	history.ShowLineNumbers = false
	history.SetHeight(3)

	symptoms := textarea.New()
	symptoms.Placeholder = "Describe the symptoms"
	symptoms.ShowLineNumbers = false
	symptoms.SetHeight(5)
	if example {
		symptoms.SetValue(rag.ExampleSymptoms)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		ctx:      ctx,
		answerer: answerer,
		age:      age,
		history:  history,
		symptoms: symptoms,
		spinner:  s,
		viewport: viewport.New(80, 20),
	}
}

// Run shows the intake form until the user quits. With example set, the
// symptoms field starts with the demonstration case.
func Run(ctx context.Context, answerer Answerer, example bool) error {
	_, err := tea.NewProgram(newModel(ctx, answerer, example), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Init starts the cursor blink.
func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input and answer results.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case answerMsg:
		if msg.err != nil {
			m.state = viewForm
			m.err = msg.err
			return m, nil
		}
		m.answer = msg.answer
		m.state = viewAnswer
		m.viewport.SetContent(render.Answer(m.answer, m.viewport.Width-2))
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if m.state != viewLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.state {
		case viewLoading:
			return m, nil
		case viewAnswer:
			return m.updateAnswer(msg)
		default:
			return m.updateForm(msg)
		}
	}

	if m.state == viewForm {
		return m, m.updateFocused(msg)
	}
	return m, nil
}

func (m *model) updateAnswer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = viewForm
		m.setFocus(fieldSymptoms)
		return m, nil
	case "q":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil
	case "ctrl+e":
		m.symptoms.SetValue(rag.ExampleSymptoms)
		m.warning = ""
		return m, nil
	case "ctrl+s":
		return m.submit()
	case "left", "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		switch m.focus {
		case fieldGender:
			m.gender = cycle(m.gender, delta, len(rag.Genders))
			return m, nil
		case fieldPrakriti:
			m.prakriti = cycle(m.prakriti, delta, len(rag.Prakritis))
			return m, nil
		}
	}
	return m, m.updateFocused(msg)
}

func (m *model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case fieldAge:
		m.age, cmd = m.age.Update(msg)
	case fieldHistory:
		m.history, cmd = m.history.Update(msg)
	case fieldSymptoms:
		m.symptoms, cmd = m.symptoms.Update(msg)
	}
	return cmd
}

func (m *model) submit() (tea.Model, tea.Cmd) {
	q, err := m.query()
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		m.warning = err.Error()
		return m, nil
	}
	m.warning = ""
	m.err = nil
	m.state = viewLoading
	return m, tea.Batch(m.spinner.Tick, m.ask(q))
}

func (m *model) ask(q rag.Query) tea.Cmd {
	ctx, answerer := m.ctx, m.answerer
	return func() tea.Msg {
		answer, err := answerer.AnswerQuery(ctx, q)
		return answerMsg{answer: answer, err: err}
	}
}

// query collects the form values.
func (m *model) query() (rag.Query, error) {
	q := rag.Query{
		Gender:   rag.Genders[m.gender],
		Prakriti: rag.Prakritis[m.prakriti],
		History:  m.history.Value(),
		Symptoms: m.symptoms.Value(),
	}
	if raw := strings.TrimSpace(m.age.Value()); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 1 || age > 120 {
			return q, fmt.Errorf("age must be a number between 1 and 120")
		}
		q.Age = age
	}
	return q, nil
}

func (m *model) setFocus(f field) {
	m.focus = f
	m.age.Blur()
	m.history.Blur()
	m.symptoms.Blur()
	switch f {
	case fieldAge:
		m.age.Focus()
	case fieldHistory:
		m.history.Focus()
	case fieldSymptoms:
		m.symptoms.Focus()
	}
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	inner := max(width-12, 20)
	m.history.SetWidth(inner)
	m.symptoms.SetWidth(inner)
	m.viewport.Width = max(width, 20)
	m.viewport.Height = max(height-4, 5)
	if m.state == viewAnswer {
		m.viewport.SetContent(render.Answer(m.answer, m.viewport.Width-2))
	}
}

// View renders the current screen.
func (m *model) View() string {
	switch m.state {
	case viewLoading:
		return fmt.Sprintf("\n %s Processing request...\n", m.spinner.View())
	case viewAnswer:
		help := helpStyle.Render("↑/↓: scroll • esc: new case • q: quit")
		return doneStyle.Render("Analysis completed.") + "\n" + m.viewport.View() + "\n" + help
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Evidence-Based Panchakarma Decision Support System"))
	b.WriteString("\n")
	b.WriteString(captionStyle.Render("Retrieval-Augmented Generation using Classical Ayurveda Sources"))
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldAge, "Age") + m.age.View() + "\n")
	b.WriteString(m.label(fieldGender, "Gender") + choiceStyle.Render(rag.Genders[m.gender]) + "\n")
	b.WriteString(m.label(fieldPrakriti, "Prakriti") + choiceStyle.Render(rag.Prakritis[m.prakriti]) + "\n\n")
	b.WriteString(m.label(fieldHistory, "History") + "\n" + m.history.View() + "\n\n")
	b.WriteString(m.label(fieldSymptoms, "Symptoms") + "\n" + m.symptoms.View() + "\n")

	if m.warning != "" {
		b.WriteString("\n" + warnStyle.Render(m.warning) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render("tab: next field • ←/→: change choice • ctrl+e: example case • ctrl+s: submit • esc: quit"))
	b.WriteString("\n")
	b.WriteString(captionStyle.Render(render.Disclaimer))
	return b.String()
}

func (m *model) label(f field, text string) string {
	if m.focus == f {
		return focusStyle.Render(labelStyle.Render("> " + text))
	}
	return labelStyle.Render("  " + text)
}

func cycle(i, delta, n int) int {
	return ((i+delta)%n + n) % n
}
