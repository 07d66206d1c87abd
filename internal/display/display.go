// Package display renders provider state for the terminal.
package display

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/models"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const barWidth = 20

func colorStyle(color string) lipgloss.Style {
	switch color {
	case "green":
		return greenStyle
	case "yellow":
		return yellowStyle
	case "red":
		return redStyle
	default:
		return lipgloss.NewStyle()
	}
}

func RenderBar(utilization int, width int, color string) string {
	filled := max(0, min(utilization*width/100, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return colorStyle(color).Render(bar)
}

// renderPeriodTable renders periods as a borderless table with the name
// column sized to the longest name.
func renderPeriodTable(periods []models.UsagePeriod, now time.Time) string {
	if len(periods) == 0 {
		return ""
	}
	nameWidth := 0
	for _, p := range periods {
		nameWidth = max(nameWidth, lipgloss.Width(p.Name))
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(_ int, col int) lipgloss.Style {
			switch col {
			case 0:
				return lipgloss.NewStyle().Width(nameWidth)
			case 2:
				return lipgloss.NewStyle().Align(lipgloss.Right).Width(4)
			case 3:
				return dimStyle
			}
			return lipgloss.NewStyle()
		})
	for _, p := range periods {
		color := UtilizationColor(p.Utilization)
		reset := ""
		if d := p.TimeUntilReset(now); d != nil {
			reset = "resets in " + FormatResetCountdown(d)
		}
		t.Row(p.Name, RenderBar(p.Utilization, barWidth, color), colorStyle(color).Render(fmt.Sprintf("%d%%", p.Utilization)), reset)
	}
	return cleanTableOutput(t.Render())
}

// cleanTableOutput strips the hidden border's leading space, trailing
// whitespace and empty lines.
func cleanTableOutput(rendered string) string {
	var cleaned []string
	for _, line := range strings.Split(rendered, "\n") {
		line = strings.TrimRight(strings.TrimPrefix(line, " "), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func renderTitledPanel(title string, body string) string {
	lines := strings.Split(body, "\n")

	bodyWidth := 0
	for _, line := range lines {
		bodyWidth = max(bodyWidth, lipgloss.Width(line))
	}

	innerWidth := max(bodyWidth+2, lipgloss.Width(title)+1)
	top := separatorStyle.Render("╭─") + title + separatorStyle.Render(strings.Repeat("─", max(0, innerWidth-lipgloss.Width(title)-1))+"╮")
	bottom := separatorStyle.Render("╰" + strings.Repeat("─", innerWidth) + "╯")

	rows := make([]string, 0, len(lines)+2)
	rows = append(rows, top)
	for _, line := range lines {
		pad := strings.Repeat(" ", max(0, bodyWidth-lipgloss.Width(line)))
		rows = append(rows, separatorStyle.Render("│")+" "+line+pad+" "+separatorStyle.Render("│"))
	}
	rows = append(rows, bottom)
	return strings.Join(rows, "\n")
}

// RenderProviderPanel renders one provider's state: its periods, credits,
// and one line per account when it has several.
func RenderProviderPanel(st fetch.ProviderState, now time.Time) string {
	var b strings.Builder
	if st.Snapshot != nil {
		b.WriteString(renderPeriodTable(st.Snapshot.Periods, now))
		if c := st.Snapshot.Credits; c != nil {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(FormatCredits(*c))
		}
	}
	if rows := renderAccountRows(st.Accounts); rows != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(rows)
	}

	title := titleStyle.Render(st.ProviderID)
	if st.Snapshot != nil {
		if email := st.Snapshot.AccountEmail(); email != "" {
			title += dimStyle.Render(" " + email)
		}
	}
	if st.Source != "" {
		title += dimStyle.Render(" via " + st.Source)
	}
	return renderTitledPanel(title, b.String())
}

func renderAccountRows(accounts []fetch.AccountSnapshot) string {
	if len(accounts) < 2 {
		return ""
	}
	var lines []string
	for _, a := range accounts {
		name := a.Label
		if name == "" {
			name = a.AccountID
		}
		switch {
		case a.Error != "":
			lines = append(lines, dimStyle.Render("  "+name+": "+a.Error))
		case a.Snapshot != nil:
			if p := a.Snapshot.BottleneckPeriod(); p != nil {
				lines = append(lines, fmt.Sprintf("  %s: %s", name, colorStyle(UtilizationColor(p.Utilization)).Render(fmt.Sprintf("%d%% %s", p.Utilization, p.Name))))
				continue
			}
			lines = append(lines, "  "+name+": ok")
		}
	}
	return strings.Join(lines, "\n")
}

// RenderProviderError renders a compact error line, cut to width when
// width is positive.
func RenderProviderError(providerID, errMsg string, width int) string {
	line := providerID + ": " + errMsg
	if width > 3 && lipgloss.Width(line) > width {
		line = string([]rune(line)[:width-3]) + "..."
	}
	return dimStyle.Render(line)
}

// RenderQuiet prints one "provider period: N%" line per period.
func RenderQuiet(st fetch.ProviderState) []string {
	if st.Snapshot == nil {
		return nil
	}
	lines := make([]string, 0, len(st.Snapshot.Periods))
	for _, p := range st.Snapshot.Periods {
		lines = append(lines, fmt.Sprintf("%s %s: %d%%", st.ProviderID, p.Name, p.Utilization))
	}
	return lines
}

// SortedIDs returns the keys of states in sorted order.
func SortedIDs(states map[string]fetch.ProviderState) []string {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
