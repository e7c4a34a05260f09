// Package tui implements the live watch dashboard over a bridge session.
// It polls the bridge on a fixed cadence, logs snapshot and status changes,
// and lets the user type raw commands at the game.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/spirebridge/spirebots/sdk"
)

// Model represents the Bubble Tea model for the watch dashboard
type Model struct {
	client *sdk.Client
	logger *log.Logger

	// UI components
	logViewport  viewport.Model
	commandInput textinput.Model

	// State
	eventLog    []string
	state       *sdk.State
	status      sdk.ConnectionStatus
	snapshots   int
	refresh     time.Duration
	focusedPane int // 0 = log, 1 = input
	quitting    bool

	// Dimensions
	width       int
	height      int
	initialized bool // Track if viewport has been properly sized

	// Test mode
	testMode    bool
	capturedLog []string // For test assertions
}

// tickMsg schedules the next bridge poll
type tickMsg struct{}

// stateMsg carries one poll result back into the update loop
type stateMsg struct {
	state  *sdk.State
	status sdk.ConnectionStatus
}

// actionMsg carries the outcome of a manually entered command
type actionMsg struct {
	command string
	err     error
}

// NewModel creates a dashboard model over an established bridge session
func NewModel(client *sdk.Client, logger *log.Logger, refresh time.Duration) *Model {
	return NewModelWithOptions(client, logger, refresh, false)
}

// NewModelWithOptions creates a dashboard model with test mode option
func NewModelWithOptions(client *sdk.Client, logger *log.Logger, refresh time.Duration, testMode bool) *Model {
	// Viewport gets properly sized when the first WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a bridge command (play 1 0, end, choose 0, ...)"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		client:       client,
		logger:       logger.WithPrefix("tui"),
		logViewport:  vp,
		commandInput: ti,
		eventLog:     []string{},
		status:       sdk.Disconnected,
		refresh:      refresh,
		focusedPane:  1, // Start with input focused
		testMode:     testMode,
		capturedLog:  []string{},
	}
}

// Run starts the dashboard and blocks until the user quits
func Run(client *sdk.Client, logger *log.Logger, refresh time.Duration) error {
	program := tea.NewProgram(NewModel(client, logger, refresh), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Init initializes the dashboard model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.pollBridge())
}

// pollBridge returns a command that polls the bridge once
func (m *Model) pollBridge() tea.Cmd {
	return func() tea.Msg {
		state := m.client.GetState()
		return stateMsg{state: state, status: m.client.Status()}
	}
}

// scheduleTick returns a command that fires after the refresh interval
func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages in the dashboard
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		cmds = append(cmds, m.pollBridge())

	case stateMsg:
		m.applyPoll(msg)
		cmds = append(cmds, m.scheduleTick())

	case actionMsg:
		if msg.err != nil {
			m.AddLogEntry(fmt.Sprintf("rejected: %v", msg.err))
			m.logger.Warn("command rejected", "command", msg.command, "err", msg.err)
		} else {
			m.AddLogEntry("sent: " + msg.command)
		}

	case tea.WindowSizeMsg:
		m.logger.Debug("Updating dimensions", "width", msg.Width, "height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			// Switch focus between log and input
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.commandInput.Focus()
			} else {
				m.focusedPane = 0
				m.commandInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 { // Only process enter in input pane
				input := strings.TrimSpace(m.commandInput.Value())
				m.commandInput.SetValue("")
				if cmd := m.submitCommand(input); cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		case "up", "k":
			if m.focusedPane == 0 { // Log pane focused
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	// Update components
	var cmd tea.Cmd

	// Only update input if it's focused
	if m.focusedPane == 1 {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Always update viewport (for scrolling)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applyPoll folds one poll result into the display state
func (m *Model) applyPoll(msg stateMsg) {
	if msg.status != m.status {
		m.AddLogEntry(fmt.Sprintf("status: %s -> %s", m.status, msg.status))
		m.status = msg.status
	}

	if msg.state == nil {
		return
	}
	if m.state != nil && msg.state.Timestamp() == m.state.Timestamp() {
		return
	}

	m.snapshots++
	m.state = msg.state
	m.AddLogEntry(describeSnapshot(msg.state))
}

// submitCommand echoes the typed command and sends it to the bridge
func (m *Model) submitCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	args := make([]any, 0, len(parts)-1)
	for _, part := range parts[1:] {
		args = append(args, part)
	}
	action := sdk.Command(parts[0], args...)

	m.AddLogEntry("> " + input)
	return func() tea.Msg {
		return actionMsg{command: input, err: m.client.SendAction(action)}
	}
}

// describeSnapshot renders one log line summarizing a fresh snapshot
func describeSnapshot(state *sdk.State) string {
	if !state.InGame() {
		return "main menu"
	}

	var b strings.Builder
	if floor, ok := state.Floor(); ok {
		fmt.Fprintf(&b, "[floor %d] ", floor)
	}
	if screen := state.ScreenType(); screen != "" && screen != sdk.ScreenNone {
		b.WriteString(screen)
	} else {
		b.WriteString("in game")
	}
	if hp, ok := state.CurrentHP(); ok {
		if maxHP, ok := state.MaxHP(); ok {
			fmt.Fprintf(&b, "  HP %d/%d", hp, maxHP)
		}
	}
	if gold, ok := state.Gold(); ok {
		fmt.Fprintf(&b, "  %dg", gold)
	}
	return b.String()
}

// View renders the dashboard
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Action pane (bottom, full width)
	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	calculatedActionWidth := m.width - 2       // Full width minus border
	calculatedActionHeight := actionHeight - 2 // Content height minus border

	if calculatedActionWidth < 1 {
		calculatedActionWidth = 1
	}
	if calculatedActionHeight < 1 {
		calculatedActionHeight = 1
	}

	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedActionWidth).
		Height(calculatedActionHeight)

	if m.focusedPane == 1 {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	actionPane := actionStyle.Render(actionContent)

	// Sidebar pane (right side of log pane, same height as log pane)
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := lipgloss.Width(sidebarContent)

	calculatedSidebarWidth := 25
	if sidebarWidth > calculatedSidebarWidth {
		calculatedSidebarWidth = sidebarWidth
	}

	calculatedSidebarHeight := m.height - actionHeight - 4 // Account for border x 2 and action pane

	if calculatedSidebarWidth < 1 {
		calculatedSidebarWidth = 1
	}
	if calculatedSidebarHeight < 1 {
		calculatedSidebarHeight = 1
	}

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedSidebarWidth).
		Height(calculatedSidebarHeight)

	sidebarPane := sidebarStyle.Render(sidebarContent)

	// Log pane (left, fills the rest)
	logContent := m.renderLogPane()
	m.logViewport.SetContent(logContent)

	calculatedLogWidth := m.width - calculatedSidebarWidth - 4 // Account for border x 2 and sidebar
	calculatedLogHeight := m.height - actionHeight - 4         // Account for border x 2 and action pane

	if calculatedLogWidth < 1 {
		calculatedLogWidth = 1
	}
	if calculatedLogHeight < 1 {
		calculatedLogHeight = 1
	}

	m.logViewport.Width = calculatedLogWidth
	m.logViewport.Height = calculatedLogHeight

	// On first proper sizing, reset to top to avoid starting scrolled down
	if !m.initialized && calculatedLogWidth > 1 && calculatedLogHeight > 1 {
		m.logViewport.GotoTop()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedLogWidth).
		Height(calculatedLogHeight)

	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	// Top row (log pane + sidebar pane)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)

	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderLogPane renders the event log pane content
func (m *Model) renderLogPane() string {
	return strings.Join(m.eventLog, "\n")
}

// renderSidebarPane creates the session sidebar content
func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(statusStyle(m.status.String()).Render(strings.ToUpper(m.status.String())))
	content.WriteString("\n\n")

	switch {
	case m.state == nil:
		content.WriteString(InfoStyle.Render("no state yet"))
		content.WriteString("\n")
	case !m.state.InGame():
		content.WriteString(InfoStyle.Render("main menu"))
		content.WriteString("\n")
	default:
		if screen := m.state.ScreenType(); screen != "" {
			content.WriteString(ScreenStyle.Render(screen))
			content.WriteString("\n")
		}
		if floor, ok := m.state.Floor(); ok {
			act, _ := m.state.Act()
			content.WriteString(fmt.Sprintf("Floor %d, Act %d", floor, act))
			content.WriteString("\n")
		}
		if hp, ok := m.state.CurrentHP(); ok {
			maxHP, _ := m.state.MaxHP()
			line := fmt.Sprintf("HP %d/%d", hp, maxHP)
			if maxHP > 0 && hp*3 <= maxHP {
				content.WriteString(ErrorStyle.Render(line))
			} else {
				content.WriteString(StatsStyle.Render(line))
			}
			content.WriteString("\n")
		}
		if gold, ok := m.state.Gold(); ok {
			content.WriteString(WarningStyle.Render(fmt.Sprintf("Gold %d", gold)))
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("snapshots: %d", m.snapshots)))
	content.WriteString("\n")
	if m.client != nil {
		if n := m.client.ConsecutiveFailures(); n > 0 {
			content.WriteString(ErrorStyle.Render(fmt.Sprintf("failures: %d", n)))
			content.WriteString("\n")
		}
	}

	return content.String()
}

// renderActionPane renders the command input pane
func (m *Model) renderActionPane() string {
	var content strings.Builder

	if m.state != nil && m.state.ReadyForCommand() {
		content.WriteString(m.renderAvailableCommands())
		content.WriteString("\n")
	} else {
		content.WriteString(StatsStyle.Render("Waiting..."))
		content.WriteString("\n")
	}

	content.WriteString(m.commandInput.View())
	content.WriteString("\n")

	// Show help text
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render(
			"Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render(
			"Tab to scroll log • Enter to send • Ctrl+C to quit"))
	}

	return content.String()
}

// renderAvailableCommands renders the commands the game accepts right now
func (m *Model) renderAvailableCommands() string {
	var commands []string

	for _, cmd := range m.state.AvailableCommands() {
		switch cmd {
		case "play", "end":
			commands = append(commands, SuccessStyle.Render("["+cmd+"]"))
		case "choose", "confirm", "proceed":
			commands = append(commands, WarningStyle.Render("["+cmd+"]"))
		case "skip", "cancel", "leave", "return":
			commands = append(commands, ErrorStyle.Render("["+cmd+"]"))
		default:
			commands = append(commands, InfoStyle.Render("["+cmd+"]"))
		}
	}

	if len(commands) == 0 {
		commands = append(commands, InfoStyle.Render("[none]"))
	}

	return ScreenStyle.Render("Commands: ") + strings.Join(commands, " ")
}

// AddLogEntry adds an entry to the event log
func (m *Model) AddLogEntry(entry string) {
	m.eventLog = append(m.eventLog, entry)

	// In test mode, also capture the log entry
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return // Skip UI updates in test mode
	}

	// Update content and auto-scroll to bottom
	m.logViewport.SetContent(strings.Join(m.eventLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	// Return a copy to prevent modification
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the dashboard is in test mode
func (m *Model) IsTestMode() bool {
	return m.testMode
}
