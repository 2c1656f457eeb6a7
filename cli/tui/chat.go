package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verdicthq/verdict/engine/answer"
)

// Asker resolves one question into an envelope. The chat model stays
// transport-agnostic; the CLI injects the API client here.
type Asker func(ctx context.Context, question string) (*answer.Envelope, error)

const (
	defaultWidth    = 80
	defaultHeight   = 20
	inputHeight     = 3
	viewportPadding = 2
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	faintStyle     = lipgloss.NewStyle().Faint(true)
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle      = lipgloss.NewStyle().Faint(true).Italic(true)
	chatFrameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type envelopeMsg struct {
	env *answer.Envelope
	err error
}

// ChatModel is an interactive question/answer loop: a transcript
// viewport over a textarea prompt.
type ChatModel struct {
	ctx       context.Context
	asker     Asker
	viewport  viewport.Model
	input     textarea.Model
	transcript []string
	waiting   bool
	width     int
	height    int
}

// NewChat builds the chat model around an asker.
func NewChat(ctx context.Context, asker Asker) ChatModel {
	input := textarea.New()
	input.Placeholder = "Ask a question..."
	input.Focus()
	input.SetHeight(1)
	input.CharLimit = 500
	input.ShowLineNumbers = false

	vp := viewport.New(defaultWidth, defaultHeight)
	vp.SetContent(helpStyle.Render("Ask anything. Esc or Ctrl+C to quit."))

	return ChatModel{
		ctx:      ctx,
		asker:    asker,
		viewport: vp,
		input:    input,
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

// Init implements tea.Model.
func (m ChatModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - viewportPadding
		m.viewport.Height = msg.Height - inputHeight - viewportPadding
		m.input.SetWidth(msg.Width - viewportPadding)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case envelopeMsg:
		m.waiting = false
		m.appendResponse(msg)
		return m, nil
	}
	return m.updateChildren(msg)
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		question := strings.TrimSpace(m.input.Value())
		if question == "" || m.waiting {
			return m, nil
		}
		m.transcript = append(m.transcript, userStyle.Render("You: ")+question)
		m.transcript = append(m.transcript, faintStyle.Render("thinking..."))
		m.refreshViewport()
		m.input.Reset()
		m.waiting = true
		return m, m.askCmd(question)
	}
	return m.updateChildren(msg)
}

func (m ChatModel) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var inputCmd, viewportCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewportCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewportCmd)
}

func (m *ChatModel) askCmd(question string) tea.Cmd {
	ctx := m.ctx
	asker := m.asker
	return func() tea.Msg {
		env, err := asker(ctx, question)
		return envelopeMsg{env: env, err: err}
	}
}

func (m *ChatModel) appendResponse(msg envelopeMsg) {
	// Drop the "thinking..." placeholder.
	if n := len(m.transcript); n > 0 {
		m.transcript = m.transcript[:n-1]
	}
	switch {
	case msg.err != nil:
		m.transcript = append(m.transcript, errStyle.Render("error: "+msg.err.Error()))
	case msg.env.IsError():
		m.transcript = append(m.transcript, errStyle.Render("error: "+msg.env.Error))
	default:
		m.transcript = append(m.transcript,
			botStyle.Render("Verdict: ")+msg.env.Answer,
			faintStyle.Render(fmt.Sprintf("  [%s, confidence %.2f]", msg.env.BackendID, msg.env.Confidence)),
		)
	}
	m.transcript = append(m.transcript, "")
	m.refreshViewport()
}

func (m *ChatModel) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m ChatModel) View() string {
	return chatFrameStyle.Render(m.viewport.View()) + "\n" + m.input.View()
}
