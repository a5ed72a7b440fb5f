// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxHistory bounds how many past log lines stay visible above the
// current status line.
const maxHistory = 8

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	spinnerGlyph = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// doneMsg is sent when the wrapped pipeline function returns.
type doneMsg struct {
	err error
}

// model is the bubbletea model driving the interactive progress
// display: a spinner, a scrolling window of recent log lines, and a
// terminal state once the pipeline finishes.
type model struct {
	spin    spinner.Model
	history []string
	latest  string
	latestStyle lipgloss.Style
	err     error
	done    bool
}

func newModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerGlyph
	return model{spin: s}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case logRecordMsg:
		if m.latest != "" {
			m.history = append(m.history, dimStyle.Render(m.latest))
			if len(m.history) > maxHistory {
				m.history = m.history[len(m.history)-maxHistory:]
			}
		}
		m.latest = msg.Summary
		m.latestStyle = styleForLevel(msg.Level)
		return m, nil
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.done {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("failed: %v", m.err)))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("done"))
		}
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(m.spin.View())
	b.WriteString(" ")
	b.WriteString(m.latestStyle.Render(m.latest))
	b.WriteString("\n")
	return b.String()
}

func styleForLevel(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return errorStyle
	case level >= slog.LevelWarn:
		return warnStyle
	default:
		return lipgloss.NewStyle()
	}
}
