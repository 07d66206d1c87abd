// Package spinner shows per-provider progress while a refresh runs.
package spinner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Completion describes one finished provider refresh.
type Completion struct {
	ProviderID string
	Success    bool
	Source     string
	Accounts   int
}

// ShouldShow reports whether progress should be drawn. It is hidden for
// quiet mode, JSON output and piped output.
func ShouldShow(quiet, json, nonTTY bool) bool {
	return !quiet && !json && !nonTTY
}

// Run draws progress for providerIDs on w while work runs. work receives a
// callback to invoke once per finished provider. Run blocks until work
// returns, even if the program exits early on ctrl-c or ctx cancellation.
func Run(ctx context.Context, w io.Writer, providerIDs []string, work func(onComplete func(Completion))) error {
	if len(providerIDs) == 0 {
		work(func(Completion) {})
		return nil
	}

	p := tea.NewProgram(newModel(providerIDs), tea.WithContext(ctx), tea.WithOutput(w), tea.WithInput(nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		work(func(c Completion) {
			p.Send(completionMsg(c))
		})
	}()

	_, err := p.Run()
	<-done
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	return nil
}

type completionMsg Completion

type model struct {
	spinner     spinner.Model
	order       []string
	inflight    map[string]bool
	completions map[string]Completion
	quitting    bool
}

var (
	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	crossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newModel(providerIDs []string) model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	inflight := make(map[string]bool, len(providerIDs))
	order := make([]string, 0, len(providerIDs))
	for _, id := range providerIDs {
		if !inflight[id] {
			inflight[id] = true
			order = append(order, id)
		}
	}
	return model{
		spinner:     s,
		order:       order,
		inflight:    inflight,
		completions: make(map[string]Completion),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case completionMsg:
		c := Completion(msg)
		// Unknown and duplicate completions are ignored.
		if !m.inflight[c.ProviderID] {
			return m, nil
		}
		delete(m.inflight, c.ProviderID)
		m.completions[c.ProviderID] = c
		if len(m.inflight) == 0 {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	rows := make([]string, 0, len(m.order))
	for _, id := range m.order {
		c, done := m.completions[id]
		if !done {
			rows = append(rows, m.spinner.View()+" "+id)
			continue
		}
		rows = append(rows, completionLine(c))
	}
	return strings.Join(rows, "\n")
}

func completionLine(c Completion) string {
	mark := crossStyle.Render("✗")
	if c.Success {
		mark = checkStyle.Render("✓")
	}
	line := mark + " " + c.ProviderID
	var detail []string
	if c.Source != "" {
		detail = append(detail, "via "+c.Source)
	}
	if c.Accounts > 1 {
		detail = append(detail, fmt.Sprintf("%d accounts", c.Accounts))
	}
	if len(detail) > 0 {
		line += dimStyle.Render(" " + strings.Join(detail, ", "))
	}
	return line
}
