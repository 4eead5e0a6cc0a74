// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/Thermoquad/hlsprobe/pkg/link"
	"github.com/Thermoquad/hlsprobe/pkg/uart"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxConsoleBytes = 2048 // Console bytes kept for display
	consoleLines    = 6    // Console lines shown
)

// Focus states
const (
	focusRegisterList = iota
	focusWriteInput
)

var errNoLink = errors.New("no link")

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// errorLogEntry is one line of the event log
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for notices
}

// registerItem is one row of the register list
type registerItem struct {
	target watchTarget
	result regResult
	read   bool
}

// Implement list.Item interface
func (r registerItem) Title() string {
	name := r.target.name
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%-14s 0x%08X", name, r.target.addr)
}

func (r registerItem) Description() string {
	if !r.read {
		return "not read yet"
	}
	return fmt.Sprintf("0x%08X  %s", r.result.data, r.result.status)
}

func (r registerItem) FilterValue() string { return r.target.name }

// watchModel is the Bubble Tea model for the watch TUI
type watchModel struct {
	// Connection manager (for transactions and reconnection)
	connMgr  *connectionManager
	connInfo string

	// Registers
	targets []watchTarget
	results map[uint32]regResult
	regList list.Model

	// Core state
	clockUs  uint64
	hasClock bool
	console  []byte
	stats    link.Counters
	lastPoll time.Time

	// Event log
	errorLog      []errorLogEntry
	maxLogEntries int

	// Transactions run one at a time; queued ones wait for busy to clear
	busy    bool
	pending []tea.Cmd

	// Control
	writeInput   textinput.Model
	focusedField int

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type watchTickMsg time.Time

type pollResultMsg struct {
	results  map[uint32]regResult
	clockUs  uint64
	hasClock bool
	console  []byte
	stats    link.Counters
	err      error
}

type writeResultMsg struct {
	label  string
	value  uint32
	result regResult
	err    error
}

type clockResetMsg struct {
	err error
}

type linkEventMsg struct {
	message string
	isError bool
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialWatchModel(connMgr *connectionManager, targets []watchTarget) watchModel {
	// Initialize text input for writes
	ti := textinput.New()
	ti.Placeholder = "ctrl=0x1"
	ti.CharLimit = 48
	ti.Width = 24

	// Initialize register list
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	regList := list.New(registerItems(targets, nil), delegate, 34, 12)
	regList.Title = "Registers"
	regList.SetShowStatusBar(false)
	regList.SetShowHelp(false)
	regList.SetFilteringEnabled(false)

	return watchModel{
		connMgr:       connMgr,
		connInfo:      connMgr.info,
		targets:       targets,
		results:       make(map[uint32]regResult),
		regList:       regList,
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		busy:          true,
		writeInput:    ti,
		focusedField:  focusRegisterList,
		width:         80,
		height:        24,
	}
}

func registerItems(targets []watchTarget, results map[uint32]regResult) []list.Item {
	items := make([]list.Item, 0, len(targets))
	for _, t := range targets {
		res, ok := results[t.addr]
		items = append(items, registerItem{target: t, result: res, read: ok})
	}
	return items
}

//////////////////////////////////////////////////////////////
// Transactions
//////////////////////////////////////////////////////////////

// pollCmd reads every watched register, then the clock, then drains console
// output
func pollCmd(cm *connectionManager, targets []watchTarget) tea.Cmd {
	return func() tea.Msg {
		msg := pollResultMsg{results: make(map[uint32]regResult, len(targets))}
		s := cm.session()
		if s == nil {
			msg.err = errNoLink
			return msg
		}
		for _, t := range targets {
			res, err := readRegister(s.Registers(), t.addr)
			if err != nil {
				msg.err = fmt.Errorf("read %s: %w", formatRegisterName(t.addr, t.name), err)
				msg.stats = s.Stats().Snapshot()
				return msg
			}
			msg.results[t.addr] = res
		}

		us, err := withTimeout(txnTimeout, s.Clock().Now)
		if err != nil {
			msg.err = fmt.Errorf("clock read: %w", err)
			msg.stats = s.Stats().Snapshot()
			return msg
		}
		msg.clockUs = us
		msg.hasClock = true
		msg.console = drainConsole(s.Console())
		msg.stats = s.Stats().Snapshot()
		return msg
	}
}

func writeCmd(cm *connectionManager, label string, addr, value uint32) tea.Cmd {
	return func() tea.Msg {
		s := cm.session()
		if s == nil {
			return writeResultMsg{label: label, value: value, err: errNoLink}
		}
		res, err := writeRegister(s.Registers(), addr, value)
		return writeResultMsg{label: label, value: value, result: res, err: err}
	}
}

func resetClockTeaCmd(cm *connectionManager) tea.Cmd {
	return func() tea.Msg {
		s := cm.session()
		if s == nil {
			return clockResetMsg{err: errNoLink}
		}
		_, err := withTimeout(txnTimeout, func() (struct{}, error) {
			return struct{}{}, s.Clock().Reset()
		})
		return clockResetMsg{err: err}
	}
}

// dropCmd closes a wedged link so the supervisor reconnects
func dropCmd(cm *connectionManager) tea.Cmd {
	return func() tea.Msg {
		cm.drop()
		return nil
	}
}

// drainConsole collects whatever console bytes are already queued
func drainConsole(u *uart.UART) []byte {
	var out []byte
	for len(out) < maxConsoleBytes {
		c, ok, err := u.Receive(false)
		if err != nil || !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// parseAssignment splits "target=value" and resolves both sides
func parseAssignment(input string) (addr uint32, label string, value uint32, err error) {
	target, raw, ok := strings.Cut(strings.TrimSpace(input), "=")
	if !ok {
		return 0, "", 0, fmt.Errorf("expected name=value, got %q", input)
	}
	target = strings.TrimSpace(target)
	raw = strings.TrimSpace(raw)

	addr, name, err := resolveRegister(target)
	if err != nil {
		return 0, "", 0, err
	}
	value, err = parseWord(raw)
	if err != nil {
		return 0, "", 0, fmt.Errorf("invalid value %q", raw)
	}
	return addr, formatRegisterName(addr, name), value, nil
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m watchModel) Init() tea.Cmd {
	// The model starts busy with this first poll in flight
	return tea.Batch(watchTickCmd(), pollCmd(m.connMgr, m.targets))
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(watchInterval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

// dispatch starts the next queued transaction, or a poll when nothing is
// queued
func (m *watchModel) dispatch() tea.Cmd {
	if m.busy || m.connectionLost {
		return nil
	}
	m.busy = true
	if len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		return next
	}
	return pollCmd(m.connMgr, m.targets)
}

// enqueue queues a transaction and starts it if the link is idle
func (m *watchModel) enqueue(c tea.Cmd) tea.Cmd {
	m.pending = append(m.pending, c)
	if m.busy || m.connectionLost {
		return nil
	}
	return m.dispatch()
}

// finish clears busy and starts any queued transaction. Polls wait for the
// next tick.
func (m *watchModel) finish() tea.Cmd {
	m.busy = false
	if len(m.pending) == 0 {
		return nil
	}
	return m.dispatch()
}

// transactionFailed logs err and drops the link when the core stopped
// answering
func (m *watchModel) transactionFailed(err error) tea.Cmd {
	m.addLogEntry(err.Error(), true)
	if errors.Is(err, ErrTimeout) || errors.Is(err, fifo.ErrBusy) {
		m.addLogEntry("Core not answering - dropping link", true)
		return dropCmd(m.connMgr)
	}
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if m.focusedField == focusRegisterList {
			m.regList, _ = m.regList.Update(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case watchTickMsg:
		return m, tea.Batch(watchTickCmd(), m.dispatch())

	case pollResultMsg:
		for addr, res := range msg.results {
			m.results[addr] = res
		}
		if msg.hasClock {
			m.clockUs = msg.clockUs
			m.hasClock = true
		}
		m.appendConsole(msg.console)
		if !msg.stats.StartTime.IsZero() {
			m.stats = msg.stats
		}
		m.lastPoll = time.Now()
		m.regList.SetItems(registerItems(m.targets, m.results))
		if msg.err != nil {
			cmds = append(cmds, m.transactionFailed(msg.err))
		}
		cmds = append(cmds, m.finish())

	case writeResultMsg:
		if msg.err != nil {
			cmds = append(cmds, m.transactionFailed(fmt.Errorf("write %s: %w", msg.label, msg.err)))
		} else {
			m.addLogEntry(fmt.Sprintf("%s <- 0x%08X %s", msg.label, msg.value, msg.result.status), msg.result.failed())
		}
		cmds = append(cmds, m.finish())

	case clockResetMsg:
		if msg.err != nil {
			cmds = append(cmds, m.transactionFailed(fmt.Errorf("clock reset: %w", msg.err)))
		} else {
			m.addLogEntry("Clock reset", false)
		}
		cmds = append(cmds, m.finish())

	case linkEventMsg:
		m.addLogEntry(msg.message, msg.isError)

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
		cmds = append(cmds, m.dispatch())
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusWriteInput {
		m.writeInput, cmd = m.writeInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m watchModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil

	case "esc":
		if m.focusedField == focusWriteInput {
			m.toggleFocus()
			return m, nil
		}

	case "enter":
		if m.focusedField == focusWriteInput {
			return m.submitWrite()
		}
		if item, ok := m.regList.SelectedItem().(registerItem); ok {
			target := item.target.name
			if target == "" {
				target = fmt.Sprintf("0x%08X", item.target.addr)
			}
			m.writeInput.SetValue(target + "=")
			m.writeInput.CursorEnd()
			m.toggleFocus()
		}
		return m, nil
	}

	if m.focusedField == focusRegisterList {
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.connectionLost {
				m.addLogEntry("Cannot reset clock: connection lost", true)
				return m, nil
			}
			return m, m.enqueue(resetClockTeaCmd(m.connMgr))
		}
		var cmd tea.Cmd
		m.regList, cmd = m.regList.Update(msg)
		return m, cmd
	}

	// Pass through to focused component
	var cmd tea.Cmd
	m.writeInput, cmd = m.writeInput.Update(msg)
	return m, cmd
}

func (m *watchModel) toggleFocus() {
	if m.focusedField == focusRegisterList {
		m.focusedField = focusWriteInput
		m.writeInput.Focus()
	} else {
		m.focusedField = focusRegisterList
		m.writeInput.Blur()
	}
}

func (m watchModel) submitWrite() (tea.Model, tea.Cmd) {
	// Don't allow writes while connection is lost
	if m.connectionLost {
		m.addLogEntry("Cannot write: connection lost", true)
		return m, nil
	}

	addr, label, value, err := parseAssignment(m.writeInput.Value())
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}
	m.writeInput.SetValue("")
	return m, m.enqueue(writeCmd(m.connMgr, label, addr, value))
}

func (m *watchModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *watchModel) appendConsole(b []byte) {
	if len(b) == 0 {
		return
	}
	m.console = append(m.console, b...)
	if len(m.console) > maxConsoleBytes {
		m.console = m.console[len(m.console)-maxConsoleBytes:]
	}
}

func (m *watchModel) updateListSize() {
	h := m.height - 22
	if h < 6 {
		h = 6
	}
	m.regList.SetSize(34, h)
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	helpText := "q=quit Tab=switch Enter=write r=reset clock"
	if m.focusedField == focusWriteInput {
		helpText = "Enter=send Esc=back ctrl+c=quit"
	}
	s.WriteString(titleStyle.Render("HLSPROBE WATCH"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s", connStatus, helpText)))
	s.WriteString("\n\n")

	// Layout: left panel (registers) | right panel (clock and write)
	leftWidth := 36
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 30 {
		rightWidth = 30
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusRegisterList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	var registerPanel string
	if len(m.targets) == 0 {
		registerPanel = listStyle.Render(headerStyle.Render("No registers mapped.\nUse --config or pass\naddresses as arguments."))
	} else {
		registerPanel = listStyle.Render(m.regList.View())
	}

	corePanel := m.renderCorePanel(statsLabelStyle, statsValueStyle, headerStyle, boxStyle, focusedBoxStyle, rightWidth)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, registerPanel, " ", corePanel))
	s.WriteString("\n")

	// Statistics bar
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n")

	// Console output
	s.WriteString(m.renderConsole(statsLabelStyle, headerStyle, boxStyle))
	s.WriteString("\n")

	// Event log
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m watchModel) renderCorePanel(statsLabelStyle, statsValueStyle, headerStyle, boxStyle, focusedBoxStyle lipgloss.Style, width int) string {
	var s strings.Builder

	s.WriteString(statsLabelStyle.Render("CORE"))
	s.WriteString("\n")

	if m.hasClock {
		s.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Clock:"),
			statsValueStyle.Render(fmt.Sprintf("%d us", m.clockUs))))
		s.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Uptime:"),
			statsValueStyle.Render(formatUptime(m.clockUs/1000))))
	} else {
		s.WriteString(headerStyle.Render("Clock not read yet"))
		s.WriteString("\n")
	}

	if !m.lastPoll.IsZero() {
		s.WriteString(headerStyle.Render(fmt.Sprintf("Last poll %s", m.lastPoll.Format("15:04:05"))))
	}
	s.WriteString("\n\n")

	// Write field
	s.WriteString(statsLabelStyle.Render("Write: "))
	if m.focusedField == focusWriteInput {
		s.WriteString(m.writeInput.View())
	} else {
		// Show as plain text when not focused
		val := m.writeInput.Value()
		if val == "" {
			val = m.writeInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	if n := len(m.pending); n > 0 {
		s.WriteString(headerStyle.Render(fmt.Sprintf("  (%d queued)", n)))
	}

	style := boxStyle.Width(width)
	if m.focusedField == focusWriteInput {
		style = focusedBoxStyle.Width(width)
	}
	return style.Render(s.String())
}

func (m watchModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.Errors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.Errors(), errorPercent)),
		statsLabelStyle.Render("Sent:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.FramesSent)),
	))

	if m.stats.CRCErrors > 0 || m.stats.FramingErrors > 0 || m.stats.ParseErrors > 0 {
		content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("CRC:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.CRCErrors)),
			statsLabelStyle.Render("Framing:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.FramingErrors)),
			statsLabelStyle.Render("Parse:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ParseErrors)),
		))
	}

	content.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	return boxStyle.Width(m.width - 4).Render(content.String())
}

func (m watchModel) renderConsole(statsLabelStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("CONSOLE"))
	s.WriteString("\n")

	if len(m.console) == 0 {
		s.WriteString(headerStyle.Render("  (no console output)"))
		return boxStyle.Width(m.width - 4).Render(s.String())
	}

	text := strings.ReplaceAll(string(m.console), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > consoleLines {
		lines = lines[len(lines)-consoleLines:]
	}
	s.WriteString(strings.Join(lines, "\n"))

	return boxStyle.Width(m.width - 4).Render(s.String())
}

func (m watchModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	// Calculate available height for log
	logHeight := 6
	if len(m.errorLog) < logHeight {
		logHeight = len(m.errorLog)
	}
	startIdx := len(m.errorLog) - logHeight

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func plural(n uint64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
