// Package tui shows live fit progress in the terminal.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	graphWidth    = 70
	graphHeight   = 10
	historyWindow = 400
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Progress is one completed trial.
type Progress struct {
	Trial int
	Score float64
	Best  float64
}

// DoneMsg signals that the fit finished.
type DoneMsg struct{}

// Model renders the fit progress fed through the updates channel.
type Model struct {
	updates <-chan Progress
	total   int
	title   string

	trial   int
	best    float64
	history []float64
	done    bool

	// Cancel is called when the user quits before the fit finishes.
	Cancel func()
}

func NewModel(title string, total int, updates <-chan Progress, cancel func()) Model {
	return Model{
		updates: updates,
		total:   total,
		title:   title,
		Cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return m.wait()
}

func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-m.updates
		if !ok {
			return DoneMsg{}
		}
		return p
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case Progress:
		m.trial = msg.Trial
		m.best = msg.Best
		m.history = append(m.history, msg.Best)
		if len(m.history) > historyWindow {
			m.history = m.history[len(m.history)-historyWindow:]
		}
		return m, m.wait()

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done && m.Cancel != nil {
				m.Cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	row("trial", fmt.Sprintf("%d / %d", m.trial, m.total))
	if m.trial > 0 {
		row("best MAE", fmt.Sprintf("%.6f", m.best))
	}

	if len(m.history) >= 2 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("q: stop after current trial"))
	return b.String()
}
