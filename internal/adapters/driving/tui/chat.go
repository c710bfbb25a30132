// Package tui provides an interactive chat session in the terminal,
// following the Elm architecture via Bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driving"
)

// styles for the chat transcript.
var (
	youStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	mentorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A"))
)

// entry is one rendered exchange in the transcript.
type entry struct {
	question string
	answer   domain.Answer
}

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	question string
	answer   domain.Answer
}

// answerErrMsg carries an answer failure back into the update loop.
type answerErrMsg struct {
	err error
}

// Model is the chat session state. It implements tea.Model.
type Model struct {
	assistant driving.Assistant
	ctx       context.Context

	input   textinput.Model
	spinner spinner.Model

	turns   []domain.ChatTurn
	entries []entry
	waiting bool
	err     error
	width   int
}

// Ensure Model implements tea.Model.
var _ tea.Model = (*Model)(nil)

// NewModel creates a chat model over the given assistant.
func NewModel(ctx context.Context, assistant driving.Assistant) *Model {
	input := textinput.New()
	input.Placeholder = "Ask about your course..."
	input.Focus()
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		assistant: assistant,
		ctx:       ctx,
		input:     input,
		spinner:   sp,
		width:     80,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case answerMsg:
		m.waiting = false
		m.err = nil
		m.entries = append(m.entries, entry{question: msg.question, answer: msg.answer})
		m.turns = append(m.turns,
			domain.ChatTurn{Role: "user", Content: msg.question},
			domain.ChatTurn{Role: "assistant", Content: msg.answer.Text},
		)
		return m, nil

	case answerErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input to the assistant.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.waiting {
		return m, nil
	}

	m.input.Reset()
	m.waiting = true
	m.err = nil

	history := m.turns
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		answer, err := m.assistant.Answer(m.ctx, question, history)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{question: question, answer: answer}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	for _, e := range m.entries {
		b.WriteString(youStyle.Render("You: "))
		b.WriteString(e.question)
		b.WriteString("\n")
		b.WriteString(mentorStyle.Render("Mentor: "))
		b.WriteString(e.answer.Text)
		b.WriteString("\n")
		if len(e.answer.Citations) > 0 {
			b.WriteString(sourceStyle.Render("Sources: " + citationLine(e.answer.Citations)))
			b.WriteString("\n")
		}
		if e.answer.Degraded {
			b.WriteString(degradedStyle.Render("(answered with limited course context)"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(m.spinner.View())
		b.WriteString(" thinking...\n")
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter: send • esc: quit"))
	b.WriteString("\n")

	return b.String()
}

// citationLine renders citations as a comma-separated title list.
func citationLine(citations []domain.Citation) string {
	titles := make([]string, len(citations))
	for i, c := range citations {
		titles[i] = c.Title
	}
	return strings.Join(titles, ", ")
}

// Run starts the chat session and blocks until the user quits.
func Run(ctx context.Context, assistant driving.Assistant) error {
	program := tea.NewProgram(NewModel(ctx, assistant))
	_, err := program.Run()
	return err
}
