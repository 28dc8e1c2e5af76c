package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

// Report is the input to the executive summary.
type Report struct {
	Title        string
	Generated    time.Time
	Currency     string
	Stats        model.PortfolioStats
	Ranked       []model.ProjectRisk // sorted by score, highest first
	Directorates []model.DirectorateStats
	Distribution model.PortfolioDistribution
	Top          int // high-risk projects to detail; 0 means all
}

// BuildReport renders the executive summary as markdown.
func BuildReport(r Report) string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "Portfolio Risk Report"
	}
	money := func(v float64) string { return FormatCurrency(v, r.Currency) }

	fmt.Fprintf(&b, "# %s\n\n", title)
	if !r.Generated.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", FormatDate(r.Generated))
	}

	s := r.Stats
	b.WriteString("## Portfolio\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Projects | %d |\n", s.Total)
	fmt.Fprintf(&b, "| In progress | %d |\n", s.InProgress)
	fmt.Fprintf(&b, "| Completed | %d |\n", s.Completed)
	fmt.Fprintf(&b, "| Planning | %d |\n", s.Planning)
	if s.Suspended+s.Transferred > 0 {
		fmt.Fprintf(&b, "| Suspended / transferred | %d / %d |\n", s.Suspended, s.Transferred)
	}
	fmt.Fprintf(&b, "| Contract value | %s |\n", money(s.TotalCAValue))
	fmt.Fprintf(&b, "| Revenue to date | %s |\n", money(s.TotalRevenue))
	fmt.Fprintf(&b, "| Expenditure to date | %s |\n", money(s.TotalExpenditure))
	fmt.Fprintf(&b, "| Profit to date | %s |\n", money(s.TotalProfit))
	fmt.Fprintf(&b, "| High-risk projects | %d |\n\n", s.HighRisk)

	if d := r.Distribution; d.Projects > 0 {
		b.WriteString("| Spread | Mean | Std dev | Max |\n|---|---:|---:|---:|\n")
		for _, row := range []struct {
			name string
			m    model.MetricSpread
		}{{"Lag %", d.Lag}, {"Slippage %", d.Slippage}, {"Receivable %", d.Receivable}} {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.name,
				FormatPercent(row.m.Mean), FormatPercent(row.m.StdDev), FormatPercent(row.m.Max))
		}
		b.WriteString("\n")
	}

	var high []model.ProjectRisk
	for _, pr := range r.Ranked {
		if pr.Risk.IsHighRisk {
			high = append(high, pr)
		}
	}

	b.WriteString("## High-risk projects\n\n")
	if len(high) == 0 {
		b.WriteString("No project is currently flagged as high risk.\n\n")
	} else {
		b.WriteString("| Project | Directorate | Score | Lag | Slippage | Receivable | Profitability |\n")
		b.WriteString("|---|---|---:|---|---|---|---|\n")
		for _, pr := range high {
			fmt.Fprintf(&b, "| %s | %s | %.0f | %s | %s | %s | %s |\n",
				mdCell(pr.ProjectID+" "+pr.Name), mdCell(pr.Directorate), pr.Score,
				RiskLabel(pr.Risk.LagRisk), RiskLabel(pr.Risk.SlippageRisk),
				RiskLabel(pr.Risk.ReceivableRisk), RiskLabel(pr.Risk.ProfitabilityRisk))
		}
		b.WriteString("\n")

		detail := high
		if r.Top > 0 && len(detail) > r.Top {
			detail = detail[:r.Top]
		}
		for _, pr := range detail {
			fmt.Fprintf(&b, "### %s %s\n\n", pr.ProjectID, pr.Name)
			fmt.Fprintf(&b, "Slippage %s of revenue, receivable %s of vetted revenue, profitability %s.\n\n",
				FormatPercent(pr.Risk.SlippagePercentage), FormatPercent(pr.Risk.ReceivablePercentage),
				FormatPercent(pr.Risk.Profitability))
			for _, rec := range pipeline.Recommendations(pr.Risk) {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Directorates) > 0 {
		b.WriteString("## Directorates\n\n")
		b.WriteString("| Directorate | Projects | High risk | Revenue | Share |\n|---|---:|---:|---:|---:|\n")
		for _, d := range r.Directorates {
			fmt.Fprintf(&b, "| %s | %d | %d | %s | %s |\n",
				mdCell(d.Directorate), d.Projects, d.HighRisk, money(d.TotalRevenue), FormatPercent(d.SharePercent))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderMarkdown renders markdown for the terminal. style is a glamour
// standard style name ("dark", "light", "notty"); empty or "auto" detects
// the terminal background.
func RenderMarkdown(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
