package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/tui/components"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// projectsState tracks the projects tab list and detail pane.
type projectsState struct {
	cursor       int
	offset       int
	detailScroll int
}

func (a *App) moveProjectCursor(delta int) {
	next := a.proj.cursor + delta
	next = min(next, len(a.ranked)-1)
	next = max(next, 0)
	if next != a.proj.cursor {
		a.proj.cursor = next
		a.proj.detailScroll = 0
	}
}

// updateProjectsKey handles list navigation; it reports whether key was consumed.
func (a *App) updateProjectsKey(key string) bool {
	halfPage := max((a.height-scrollOverhead)/2, minHalfPageScroll)

	switch key {
	case "j", "down":
		a.moveProjectCursor(1)
	case "k", "up":
		a.moveProjectCursor(-1)
	case "g":
		a.proj = projectsState{}
	case "G":
		a.moveProjectCursor(len(a.ranked))
	case "J":
		a.proj.detailScroll++
	case "K":
		a.proj.detailScroll = max(a.proj.detailScroll-1, 0)
	case "ctrl+d":
		a.proj.detailScroll += halfPage
	case "ctrl+u":
		a.proj.detailScroll = max(a.proj.detailScroll-halfPage, 0)
	default:
		return false
	}
	return true
}

func (a App) renderProjectsTab(cw, h int) string {
	if len(a.ranked) == 0 {
		return components.ContentCard("Projects", "No projects match the current filter.", cw)
	}

	if a.isCompactLayout() {
		listH := max(5, h/3)
		list := components.ContentCard(fmt.Sprintf("Projects (%d)", len(a.ranked)), a.renderProjectList(cw, listH), cw)
		detail := a.renderProjectDetail(cw, h-lipgloss.Height(list))
		return list + "\n" + detail
	}

	widths := []int{cw * 2 / 5, cw - cw*2/5}
	list := components.ContentCard(fmt.Sprintf("Projects (%d)", len(a.ranked)), a.renderProjectList(widths[0], h-3), widths[0])
	detail := a.renderProjectDetail(widths[1], h)
	return components.CardRow([]string{list, detail})
}

// renderProjectList draws the ranked list, keeping the cursor in view.
func (a App) renderProjectList(outerW, rows int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerW)
	rows = max(rows, 1)

	offset := a.proj.offset
	if a.proj.cursor < offset {
		offset = a.proj.cursor
	}
	if a.proj.cursor >= offset+rows {
		offset = a.proj.cursor - rows + 1
	}

	normal := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	nameW := max(6, innerW-2-11-5)
	end := min(len(a.ranked), offset+rows)

	var lines []string
	for i := offset; i < end; i++ {
		pr := a.ranked[i]
		mark := " "
		if pr.Risk.IsHighRisk {
			mark = "●"
		}
		text := fmt.Sprintf("%s %-10s %-*s%5.0f", mark, truncStr(pr.ProjectID, 10), nameW, truncStr(pr.Name, nameW), pr.Score)
		switch {
		case i == a.proj.cursor:
			lines = append(lines, selected.Render(fmt.Sprintf("%-*s", innerW, text)))
		case pr.Risk.IsHighRisk:
			lines = append(lines, lipgloss.NewStyle().Foreground(t.Critical).Background(t.Surface).Render(mark)+
				normal.Render(text[len(mark):]))
		default:
			lines = append(lines, muted.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

// renderProjectDetail shows KPIs, tiers, budget and recommendations for the selection.
func (a App) renderProjectDetail(outerW, h int) string {
	t := theme.Active
	pr := a.ranked[a.proj.cursor]
	p := a.byID[pr.ProjectID]
	r := pr.Risk
	th := a.ev.Thresholds()
	innerW := components.CardInnerWidth(outerW)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	kv := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-16s", k)) + value.Render(v)
	}

	var lines []string
	lines = append(lines,
		kv("Directorate", p.Directorate),
		kv("Category", p.Category),
		kv("Status", string(p.Status)),
		kv("CA value", a.money(float64(p.CAValue))),
		kv("Planned", a.money(r.PlannedRevenue)),
		kv("Actual revenue", a.money(r.ActualRevenue)),
		label.Render(fmt.Sprintf("%-16s", "Progress"))+
			components.ProgressBar(pipeline.ProgressPercentage(p, pr.KPIs)/100, max(10, innerW-22)),
		"",
		section.Render("Risk"),
	)

	barW := max(10, innerW-12-1-10-1-14)
	lines = append(lines,
		components.ThresholdBar("Lag", r.LagPercentage, th.Lag, r.LagRisk, 12, barW),
		components.ThresholdBar("Scope creep", r.ScopeCreepPercentage, th.ScopeCreep, r.ScopeCreepRisk, 12, barW),
		components.ThresholdBar("Slippage", r.SlippagePercentage, th.Slippage, r.SlippageRisk, 12, barW),
		components.ThresholdBar("Receivable", r.ReceivablePercentage, th.Receivable, r.ReceivableRisk, 12, barW),
		label.Render(fmt.Sprintf("%-16s", "Cost variance"))+value.Render(a.money(r.CostVariance)+" ")+components.RiskBadge(r.CostVarianceRisk),
		label.Render(fmt.Sprintf("%-16s", "Profitability"))+value.Render(fmt.Sprintf("%.2f%% ", r.Profitability))+components.RiskBadge(r.ProfitabilityRisk),
	)

	if p.Budget != nil {
		totals := pipeline.BudgetTotalsWithOverhead(p, a.cfg.Budget.OverheadPercent)
		v := pipeline.CompareBudget(totals, pr.KPIs)
		used := t.Healthy
		if v.Variance < 0 {
			used = t.Critical
		}
		lines = append(lines, "",
			section.Render("Budget")+dim.Render(" ("+string(p.Budget.Method())+" overhead)"),
			kv("Planned cost", a.money(v.PlannedCost)),
			kv("Spent", a.money(v.ActualCost)+lipgloss.NewStyle().Foreground(used).Background(t.Surface).Render(fmt.Sprintf("  %.1f%% used", v.UsedPercent))),
			kv("Net profit plan", a.money(totals.PlannedNetProfit)),
		)
	}

	if history := pipeline.LedgerHistory(p); len(history) > 1 {
		revenue := make([]float64, len(history))
		for i, pt := range history {
			revenue[i] = pt.ActualRevenue
		}
		lines = append(lines, "",
			section.Render("Ledger")+dim.Render(fmt.Sprintf(" (%d entries, last %s)", len(history), cli.FormatDate(history[len(history)-1].Date))),
			components.Sparkline(revenue, t.Accent),
		)
	}

	lines = append(lines, "", section.Render("Recommendations"))
	for _, rec := range pipeline.Recommendations(r) {
		lines = append(lines, value.Render("• "+truncStr(rec, innerW-2)))
	}

	scroll := min(a.proj.detailScroll, max(len(lines)-1, 0))
	lines = lines[scroll:]
	if visible := h - 3; visible > 0 && len(lines) > visible {
		lines = lines[:visible]
	}

	title := fmt.Sprintf("%s  %s", pr.ProjectID, truncStr(pr.Name, innerW-len(pr.ProjectID)-14))
	if r.IsHighRisk {
		title += "  [HIGH RISK]"
	}
	return components.ContentCard(title, strings.Join(lines, "\n"), outerW)
}
