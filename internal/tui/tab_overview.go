package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/tui/components"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// overviewTopN is how many ranked projects the overview lists.
const overviewTopN = 8

func (a App) money(v float64) string {
	return cli.FormatCurrency(v, a.cfg.General.Currency)
}

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	stats := a.stats
	var b strings.Builder

	// Row 1: headline metric cards
	highRiskColor := t.Healthy
	if stats.HighRisk > 0 {
		highRiskColor = t.Critical
	}
	profitColor := t.Healthy
	if stats.TotalProfit < 0 {
		profitColor = t.Critical
	}

	revenueDelta := fmt.Sprintf("of %s CA value", a.money(stats.TotalCAValue))
	highRiskDelta := fmt.Sprintf("%.0f%% of portfolio", share(stats.HighRisk, stats.Total))
	if prev := a.prevStats; prev != nil {
		if d := stats.TotalRevenue - prev.TotalRevenue; d != 0 {
			revenueDelta = cli.FormatDelta(stats.TotalRevenue, prev.TotalRevenue, a.cfg.General.Currency) + " since refresh"
		}
		if d := stats.HighRisk - prev.HighRisk; d != 0 {
			highRiskDelta = fmt.Sprintf("%+d since refresh", d)
		}
	}

	cards := []components.Metric{
		{Label: "Projects", Value: cli.FormatNumber(int64(stats.Total)), Delta: fmt.Sprintf("%d in progress", stats.InProgress)},
		{Label: "High Risk", Value: cli.FormatNumber(int64(stats.HighRisk)), Delta: highRiskDelta, Color: highRiskColor},
		{Label: "Revenue", Value: a.money(stats.TotalRevenue), Delta: revenueDelta},
		{Label: "Profit", Value: a.money(stats.TotalProfit), Delta: "spent " + a.money(stats.TotalExpenditure), Color: profitColor},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	if len(a.ranked) == 0 {
		b.WriteString(components.ContentCard("Projects", "No projects match the current filter.", cw))
		return b.String()
	}

	// Row 2: ranked list beside status mix and spread
	mix := a.renderStatusMix()
	spread := a.renderSpread()
	halves := components.LayoutRow(cw, 2)

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Highest Risk", a.renderRankedList(cw), cw))
		b.WriteString("\n")
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Status", mix, halves[0]),
			components.ContentCard("Spread", spread, halves[1]),
		}))
		return b.String()
	}

	right := components.ContentCard("Status", mix, halves[1]) + "\n" +
		components.ContentCard("Spread", spread, halves[1])
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Highest Risk", a.renderRankedList(halves[0]), halves[0]),
		right,
	}))
	return b.String()
}

// renderRankedList lists the top projects by risk score for a card of outer width w.
func (a App) renderRankedList(w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	idStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	scoreStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface)

	n := min(overviewTopN, len(a.ranked))
	nameW := max(8, innerW-2-10-6)

	var lines []string
	for _, pr := range a.ranked[:n] {
		flag := lipgloss.NewStyle().Foreground(t.Healthy).Background(t.Surface).Render("○")
		if pr.Risk.IsHighRisk {
			flag = lipgloss.NewStyle().Foreground(t.Critical).Background(t.Surface).Render("●")
		}
		lines = append(lines, flag+space.Render(" ")+
			idStyle.Render(fmt.Sprintf("%-10s", truncStr(pr.ProjectID, 10)))+
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(pr.Name, nameW)))+
			scoreStyle.Render(fmt.Sprintf("%6.0f", pr.Score)))
	}
	if rest := len(a.ranked) - n; rest > 0 {
		lines = append(lines, idStyle.Render(fmt.Sprintf("  +%d more on the Projects tab", rest)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderStatusMix() string {
	t := theme.Active
	s := a.stats
	counts := []struct {
		status model.Status
		n      int
	}{
		{model.StatusInProgress, s.InProgress},
		{model.StatusPlanning, s.Planning},
		{model.StatusCompleted, s.Completed},
		{model.StatusSuspended, s.Suspended},
		{model.StatusTransferred, s.Transferred},
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var lines []string
	for _, c := range counts {
		if c.n == 0 {
			continue
		}
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-12s ", c.status))+
			valueStyle.Render(fmt.Sprintf("%3d", c.n))+
			labelStyle.Render(fmt.Sprintf("  %5.1f%%", share(c.n, s.Total))))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderSpread() string {
	t := theme.Active
	d := a.dist
	if d.Projects == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No ledger data yet.")
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	rows := []struct {
		name string
		m    model.MetricSpread
	}{
		{"Lag", d.Lag},
		{"Slippage", d.Slippage},
		{"Receivable", d.Receivable},
	}
	lines := []string{labelStyle.Render(fmt.Sprintf("%-11s %8s %8s %8s", "", "mean", "σ", "max"))}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-11s ", r.name))+
			valueStyle.Render(fmt.Sprintf("%7.1f%% %7.1f%% %7.1f%%", r.m.Mean, r.m.StdDev, r.m.Max)))
	}
	return strings.Join(lines, "\n")
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
