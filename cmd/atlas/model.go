package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/atlasvoice/atlas/pkg/session"
)

// model is the root bubbletea model for the Atlas voice console.
type model struct {
	ctrl  *session.Controller
	notes <-chan session.Note

	state      session.State
	level      float64
	messages   []session.Message
	candidates []session.AutomationCandidate

	input textinput.Model

	errorMessage   string
	errorTransient bool

	width  int
	height int
}

func newModel(ctrl *session.Controller) model {
	input := textinput.New()
	input.Placeholder = "Type a message, or just talk..."
	input.CharLimit = 512
	input.Prompt = "> "
	input.Focus()

	return model{
		ctrl:  ctrl,
		notes: ctrl.Notes(),
		state: ctrl.State(),
		input: input,
	}
}

// Init connects immediately and starts draining controller notifications.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(m.ctrl),
		waitForNote(m.notes),
		textinput.Blink,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-4)
		return m, nil

	case noteMsg:
		cmd := m.handleNote(msg.Note)
		return m, tea.Batch(cmd, waitForNote(m.notes))

	case notesClosedMsg:
		return m, nil

	case connectResultMsg:
		if msg.Err != nil {
			return m.showError(msg.Err.Error(), true)
		}
		return m, nil

	case sendResultMsg:
		if msg.Err != nil {
			return m.showError(msg.Err.Error(), true)
		}
		return m, nil

	case clearErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.ctrl.Disconnect()
		return m, tea.Quit

	case "ctrl+d":
		m.ctrl.Disconnect()
		return m, nil

	case "ctrl+r":
		if m.state == session.StateDisconnected || m.state == session.StateError {
			return m, connectCmd(m.ctrl)
		}
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, sendTextCmd(m.ctrl, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNote refreshes the relevant snapshot for one notification.
func (m *model) handleNote(note session.Note) tea.Cmd {
	switch n := note.(type) {
	case session.StateNote:
		m.state = n.State
		if n.State == session.StateConnected {
			m.errorMessage = ""
			m.errorTransient = false
		}

	case session.LevelNote:
		m.level = n.Level

	case session.TranscriptNote:
		m.messages = m.ctrl.Messages()

	case session.CandidateNote:
		m.candidates = m.ctrl.Candidates()

	case session.ErrorNote:
		m.errorMessage = n.Err.Error()
		m.errorTransient = false
	}
	return nil
}

func (m model) showError(text string, transient bool) (tea.Model, tea.Cmd) {
	m.errorMessage = text
	m.errorTransient = transient
	if transient {
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return clearErrorMsg{}
		})
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, errorStyle.Render("Error: ")+errorTextStyle.Render(m.errorMessage))
	}
	sections = append(sections, m.input.View())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m model) renderHeader() string {
	return titleStyle.Render("ATLAS") + dimStyle.Render(" — 自动化顾问")
}

func (m model) renderStatusBar() string {
	var dot string
	switch m.state {
	case session.StateConnected:
		dot = connectedDotStyle.Render("● LIVE")
	case session.StateConnecting:
		dot = connectingDotStyle.Render("◌ CONNECTING")
	case session.StateError:
		dot = errorStyle.Render("✗ ERROR")
	default:
		dot = idleDotStyle.Render("○ OFFLINE")
	}

	var meter string
	if m.state == session.StateConnected {
		meter = "  " + renderLevelMeter(m.level)
	}
	return dot + meter
}

func renderLevelMeter(level float64) string {
	const barLen = 10
	filled := int(level * barLen)
	if filled > barLen {
		filled = barLen
	}

	var bar strings.Builder
	for i := 0; i < barLen; i++ {
		switch {
		case i >= filled:
			bar.WriteString(levelGrayStyle.Render("░"))
		case float64(i)/barLen > 0.6:
			bar.WriteString(levelYellowStyle.Render("█"))
		default:
			bar.WriteString(levelGreenStyle.Render("█"))
		}
	}
	return dimStyle.Render("MIC ") + bar.String()
}

func (m model) renderMainContent() string {
	candW := m.candidatePanelWidth()
	chatW := max(30, m.width-candW-3)
	contentH := m.contentHeight()

	chat := m.renderChatPanel(chatW, contentH)
	cands := m.renderCandidatePanel(candW, contentH)

	chatLines := strings.Split(chat, "\n")
	candLines := strings.Split(cands, "\n")
	divider := dividerStyle.Render("│")

	var rows []string
	for i := 0; i < contentH; i++ {
		left := ""
		if i < len(chatLines) {
			left = chatLines[i]
		}
		right := ""
		if i < len(candLines) {
			right = candLines[i]
		}
		rows = append(rows, padRight(left, chatW)+divider+right)
	}
	return strings.Join(rows, "\n")
}

func (m model) renderChatPanel(width, height int) string {
	lines := []string{panelTitleStyle.Render("CONVERSATION")}

	if len(m.messages) == 0 {
		lines = append(lines, "")
		switch m.state {
		case session.StateConnected:
			lines = append(lines, dimStyle.Render("  Listening. Describe your workday."))
		case session.StateConnecting:
			lines = append(lines, dimStyle.Render("  Connecting..."))
		default:
			lines = append(lines, dimStyle.Render("  Press Ctrl+R to connect"))
		}
	} else {
		textWidth := max(10, width-14)
		var display []string
		for _, msg := range m.messages {
			ts := timestampStyle.Render(msg.Timestamp.Format("[15:04:05]"))
			label := modelLabelStyle.Render("Atlas")
			if msg.Role == session.RoleUser {
				label = userLabelStyle.Render("You  ")
			}
			wrapped := wrapText(msg.Text, textWidth)
			display = append(display, ts+" "+label+" "+wrapped[0])
			for _, extra := range wrapped[1:] {
				display = append(display, strings.Repeat(" ", 17)+extra)
			}
		}
		// Tail the transcript.
		visible := height - 1
		if len(display) > visible {
			display = display[len(display)-visible:]
		}
		lines = append(lines, display...)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

func (m model) renderCandidatePanel(width, height int) string {
	header := panelTitleStyle.Render(fmt.Sprintf("AUTOMATIONS (%d)", len(m.candidates)))
	lines := []string{header}

	if len(m.candidates) == 0 {
		lines = append(lines, dimStyle.Render("  Nothing captured yet"))
	} else {
		for _, c := range m.candidates {
			lines = append(lines, truncateToWidth(candidateTitleStyle.Render("▸ ")+c.Title, width))
			detail := fmt.Sprintf("  %s · %s · %s", c.Frequency, c.EstimatedTimeSaved, c.Complexity)
			lines = append(lines, truncateToWidth(dimStyle.Render(detail), width))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

func (m model) renderFooter() string {
	parts := []string{
		footerKeyStyle.Render("Enter") + footerDescStyle.Render(" Send"),
		footerKeyStyle.Render("Ctrl+D") + footerDescStyle.Render(" Disconnect"),
		footerKeyStyle.Render("Ctrl+R") + footerDescStyle.Render(" Reconnect"),
		footerKeyStyle.Render("Ctrl+C") + footerDescStyle.Render(" Quit"),
	}
	return strings.Join(parts, "  ")
}

func (m model) candidatePanelWidth() int {
	return max(26, m.width*35/100)
}

func (m model) contentHeight() int {
	// header + status + two dividers + input + footer + error slack
	reserved := 7
	return max(5, m.height-reserved)
}

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case current == "":
				current = word
			case len(current)+1+len(word) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
