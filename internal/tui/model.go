// Package tui is the interactive chat panel for one token. It renders the
// controller's state and forwards prompts and retries to it.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/irfndi/tokenscope/internal/analysis"
	"github.com/irfndi/tokenscope/internal/client"
	"github.com/irfndi/tokenscope/internal/history"
	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/models"
)

const (
	defaultWidth  = 100
	defaultHeight = 32
	sidebarWidth  = 34
)

// Session is the part of the request controller the panel drives.
type Session interface {
	State() client.State
	Submit(prompt string) error
	Retry() error
	Close()
}

type stateMsg client.State

type historyMsg struct {
	entries []string
	err     error
}

type chatLine struct {
	role string
	text string
}

// Model is the bubbletea model of the chat panel.
type Model struct {
	session Session
	history history.Store
	theme   theme

	width  int
	height int

	state      client.State
	shownFor   uint64
	snapshot   *models.MarketSnapshot
	transcript []chatLine
	recent     []string
	notice     string

	input          textinput.Model
	transcriptView viewport.Model
	spinner        spinner.Model
}

// New builds the panel for session. store may be nil.
func New(session Session, store history.Store) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = "Ask about this token, or press enter for a full analysis"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#14f195"))

	m := Model{
		session:        session,
		history:        store,
		theme:          newTheme(),
		width:          defaultWidth,
		height:         defaultHeight,
		state:          session.State(),
		input:          input,
		transcriptView: viewport.New(0, 0),
		spinner:        sp,
	}
	m.resize()
	m.renderTranscript()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.loadHistoryCmd())
}

func (m Model) loadHistoryCmd() tea.Cmd {
	if m.history == nil {
		return nil
	}
	store := m.history
	return func() tea.Msg {
		entries, err := store.Read(context.Background())
		return historyMsg{entries: entries, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTranscript()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case stateMsg:
		state := client.State(msg)
		if state.Version < m.state.Version {
			break
		}
		m.state = state
		if state.Status == client.StatusSuccess && state.Result != nil && m.shownFor != state.Version {
			m.shownFor = state.Version
			snapshot := state.Result.Snapshot
			m.snapshot = &snapshot
			m.transcript = append(m.transcript, chatLine{role: "analyst", text: narrative(state.Result)})
			m.renderTranscript()
			cmds = append(cmds, m.loadHistoryCmd())
		}
	case historyMsg:
		if msg.err != nil {
			m.notice = "history unavailable: " + msg.err.Error()
			break
		}
		m.recent = msg.entries
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.session.Close()
			return m, tea.Quit
		case "ctrl+r":
			if m.state.Status == client.StatusError {
				m.notice = ""
				if err := m.session.Retry(); err != nil {
					m.notice = err.Error()
				}
			}
			return m, nil
		case "enter":
			if m.state.Status == client.StatusLoading {
				return m, nil
			}
			prompt := strings.TrimSpace(m.input.Value())
			m.notice = ""
			if err := m.session.Submit(prompt); err != nil {
				m.notice = err.Error()
				return m, nil
			}
			if prompt == "" {
				prompt = "Full analysis"
			}
			m.transcript = append(m.transcript, chatLine{role: "you", text: prompt})
			m.input.Reset()
			m.renderTranscript()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcriptView, cmd = m.transcriptView.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func narrative(r *models.AnalysisResult) string {
	if strings.TrimSpace(r.NarrativeText) == "" {
		return analysis.FallbackNarrative
	}
	return r.NarrativeText
}

func (m *Model) resize() {
	mainWidth := m.width - sidebarWidth - 4
	if mainWidth < 20 {
		mainWidth = 20
	}
	// header, status, input and help take ten rows with their borders
	viewHeight := m.height - 10
	if viewHeight < 3 {
		viewHeight = 3
	}
	m.transcriptView.Width = mainWidth
	m.transcriptView.Height = viewHeight
	m.input.Width = mainWidth - 6
}

func (m *Model) renderTranscript() {
	if len(m.transcript) == 0 {
		m.transcriptView.SetContent(m.theme.help.Render("No messages yet."))
		return
	}
	wrap := lipgloss.NewStyle().Width(m.transcriptView.Width)
	var b strings.Builder
	for i, line := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		role := m.theme.assistant
		if line.role == "you" {
			role = m.theme.user
		}
		b.WriteString(role.Render(line.role + ":"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(line.text))
	}
	m.transcriptView.SetContent(b.String())
	m.transcriptView.GotoBottom()
}

func (m Model) View() string {
	header := m.theme.header.Width(m.width - 2).Render(fmt.Sprintf(
		"tokenscope · %s · %s",
		logging.ShortToken(m.state.TokenIdentifier),
		m.state.Status,
	))

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.panel.Render(m.transcriptView.View()),
		m.statusLine(),
		m.theme.inputPanel.Width(m.transcriptView.Width).Render(m.input.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, main, m.sidebar())

	help := m.theme.help.Render("enter submit · ctrl+r retry · pgup/pgdown scroll · esc quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m Model) statusLine() string {
	s := m.state
	switch {
	case m.notice != "":
		return m.theme.errorStatus.Render(m.notice)
	case s.RetryPending:
		return m.theme.errorStatus.Render(fmt.Sprintf("%s · retry %d scheduled", s.ErrorMessage, s.AttemptCount))
	case s.Status == client.StatusLoading:
		return m.theme.status.Render(m.spinner.View() + " analyzing...")
	case s.Status == client.StatusError:
		return m.theme.errorStatus.Render(s.ErrorMessage + " · ctrl+r to retry")
	case s.Status == client.StatusSuccess:
		return m.theme.status.Render("ready")
	default:
		return m.theme.help.Render("idle")
	}
}

func (m Model) sidebar() string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Token Data"))
	b.WriteString("\n")
	if m.snapshot == nil {
		b.WriteString(m.theme.help.Render("waiting for market data"))
	} else {
		for _, row := range SnapshotRows(*m.snapshot) {
			value := m.theme.value
			if row.Label == "24h Change" {
				switch m.snapshot.Trend() {
				case models.TrendUp:
					value = m.theme.up
				case models.TrendDown:
					value = m.theme.down
				}
			}
			b.WriteString(m.theme.label.Render(fmt.Sprintf("%-13s", row.Label)))
			b.WriteString(value.Render(row.Value))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.panelTitle.Render("Recent Searches"))
	b.WriteString("\n")
	if len(m.recent) == 0 {
		b.WriteString(m.theme.help.Render("none"))
	}
	for _, token := range m.recent {
		b.WriteString(m.theme.value.Render(logging.ShortToken(token)))
		b.WriteString("\n")
	}

	return m.theme.panel.Width(sidebarWidth).Render(strings.TrimRight(b.String(), "\n"))
}

// Run starts the panel for controller and blocks until the user quits or ctx
// ends. The controller is closed on return.
func Run(ctx context.Context, controller *client.Controller, store history.Store) error {
	defer controller.Close()

	p := tea.NewProgram(New(controller, store), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := controller.Subscribe(func(s client.State) {
		p.Send(stateMsg(s))
	})
	defer unsubscribe()

	// The first state may have been published before Subscribe.
	go p.Send(stateMsg(controller.State()))

	_, err := p.Run()
	return err
}
