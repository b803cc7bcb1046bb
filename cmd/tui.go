// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/openaqua/aquastat/pkg/d5next"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live telemetry dashboard",
	Long: `Display a live dashboard with the current sensor readings, ingestion
statistics and an event log.

Supports both direct HID and WebSocket connections. Press 'q' to quit.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages
type tickMsg time.Time
type frameMsg struct {
	frame *d5next.Frame
}
type sourceErrMsg struct {
	err error
}

// tuiModel is the Bubble Tea model for the dashboard
type tuiModel struct {
	connInfo string

	snapshot *d5next.Snapshot
	stats    *d5next.Statistics

	eventLog      []logEntry
	maxLogEntries int

	spin     spinner.Model
	width    int
	height   int
	quitting bool
}

func initialTUIModel(connInfo string) tuiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return tuiModel{
		connInfo:      connInfo,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		spin:          sp,
		width:         80,
		height:        24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		tuiTickCmd(),
		tea.EnterAltScreen,
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tuiTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case frameMsg:
		switch msg.frame.Kind {
		case d5next.FrameSnapshot:
			if msg.frame.Snapshot != nil {
				first := m.snapshot == nil
				m.snapshot = msg.frame.Snapshot
				if first {
					m.addLogEntry("First sensor report received", false)
				}
			}
		case d5next.FrameStats:
			if msg.frame.Stats != nil {
				m.stats = msg.frame.Stats
			}
		}

	case sourceErrMsg:
		m.addLogEntry(fmt.Sprintf("CONNECTION ERROR: %v", msg.err), true)
	}

	return m, nil
}

func (m *tuiModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
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

	var s strings.Builder
	s.WriteString(titleStyle.Render("AQUASTAT - D5 NEXT DASHBOARD"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Sensor box
	if m.snapshot == nil {
		s.WriteString(fmt.Sprintf("%s %s\n\n", m.spin.View(), warningStyle.Render("Waiting for first sensor report...")))
	} else {
		snap := m.snapshot
		sensors := strings.Builder{}

		sensors.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-14s", d5next.LabelCoolantTemp+":")),
			valueStyle.Render(fmt.Sprintf("%6.2f °C", float64(snap.CoolantTemp)/1000)),
		))

		for _, c := range []d5next.Channel{d5next.ChannelPump, d5next.ChannelFan} {
			sensors.WriteString(fmt.Sprintf("%s %s %s\n",
				labelStyle.Render(fmt.Sprintf("%-14s", d5next.SpeedLabel(c)+":")),
				valueStyle.Render(fmt.Sprintf("%6d RPM", snap.ChannelSpeed(c))),
				headerStyle.Render(fmt.Sprintf("(setpoint %d/255)", snap.ChannelSetpoint(c))),
			))
			sensors.WriteString(fmt.Sprintf("%s %s   %s   %s\n",
				labelStyle.Render(fmt.Sprintf("%-14s", d5next.PowerLabel(c)+":")),
				valueStyle.Render(fmt.Sprintf("%6.2f W", float64(snap.ChannelPower(c))/1e6)),
				valueStyle.Render(fmt.Sprintf("%5.2f V", float64(snap.ChannelVoltage(c))/1000)),
				valueStyle.Render(fmt.Sprintf("%4d mA", snap.ChannelCurrent(c))),
			))
		}

		sensors.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render(fmt.Sprintf("%-14s", d5next.LabelPlusFiveVolt+":")),
			valueStyle.Render(fmt.Sprintf("%6.2f V", float64(snap.PlusFiveVolt)/1000)),
		))

		s.WriteString(boxStyle.Render(sensors.String()))
		s.WriteString("\n")
		s.WriteString(headerStyle.Render(fmt.Sprintf("  last report %s", snap.Updated.Format("15:04:05.000"))))
		s.WriteString("\n\n")
	}

	// Statistics box
	if m.stats != nil {
		statsContent := fmt.Sprintf("%s %s   %s %s   %s %s",
			labelStyle.Render("Reports:"), valueStyle.Render(fmt.Sprintf("%d (%.2f/s)", m.stats.Reports, m.stats.ReportRate())),
			labelStyle.Render("Ignored:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Ignored)),
			labelStyle.Render("Malformed:"), func() string {
				if m.stats.Malformed > 0 {
					return errorStyle.Render(fmt.Sprintf("%d", m.stats.Malformed))
				}
				return valueStyle.Render("0")
			}(),
		)
		s.WriteString(boxStyle.Render(statsContent))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 20
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

func runTUI(cmd *cobra.Command, args []string) error {
	src, connInfo, err := OpenFrameSource()
	if err != nil {
		return err
	}

	m := initialTUIModel(connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}

			frame, err := src.Next()
			if err != nil {
				p.Send(sourceErrMsg{err: err})
				return
			}
			p.Send(frameMsg{frame: frame})
		}
	}()

	if _, err := p.Run(); err != nil {
		close(done)
		src.Close()
		return fmt.Errorf("TUI error: %v", err)
	}

	close(done)
	src.Close()
	return nil
}
