package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/tui/components"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

func (a App) renderDirectoratesTab(cw int) string {
	t := theme.Active
	if len(a.dirs) == 0 {
		return components.ContentCard("Directorates", "No projects match the current filter.", cw)
	}
	innerW := components.CardInnerWidth(cw)

	labels := make([]string, len(a.dirs))
	revenue := make([]float64, len(a.dirs))
	valueText := make([]string, len(a.dirs))
	for i, d := range a.dirs {
		labels[i] = d.Directorate
		revenue[i] = d.TotalRevenue
		valueText[i] = fmt.Sprintf("%s  %5.1f%%", a.money(d.TotalRevenue), d.SharePercent)
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Revenue by Directorate",
		components.HorizontalBars(labels, revenue, valueText, t.Accent, innerW), cw))
	b.WriteString("\n")

	header := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	normal := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	alert := lipgloss.NewStyle().Foreground(t.Critical).Background(t.Surface).Bold(true)

	nameW := 14
	for _, d := range a.dirs {
		nameW = max(nameW, lipgloss.Width(d.Directorate)+1)
	}
	moneyW := max(14, (innerW-nameW-9-10)/3)

	row := func(name, projects, high, ca, rev, spent string) string {
		return fmt.Sprintf("%-*s%8s%10s%*s%*s%*s", nameW, name, projects, high, moneyW, ca, moneyW, rev, moneyW, spent)
	}

	lines := []string{header.Render(row("Directorate", "Projects", "High", "CA Value", "Revenue", "Spent"))}
	for i, d := range a.dirs {
		text := row(d.Directorate,
			fmt.Sprintf("%d", d.Projects),
			fmt.Sprintf("%d", d.HighRisk),
			a.money(d.TotalCAValue),
			a.money(d.TotalRevenue),
			a.money(d.TotalExpenditure))
		switch {
		case i == a.dirCursor:
			lines = append(lines, selected.Render(fmt.Sprintf("%-*s", innerW, text)))
		case d.HighRisk > 0 && d.HighRisk == d.Projects:
			lines = append(lines, alert.Render(text))
		default:
			lines = append(lines, normal.Render(text))
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("[j/k] select  [Enter] filter projects  [Esc] clear filter"))

	b.WriteString(components.ContentCard("Directorates", strings.Join(lines, "\n"), cw))
	return b.String()
}
