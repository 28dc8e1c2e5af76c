package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

var flagProjectsLimit int

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Projects ranked by risk score",
	RunE:  runProjects,
}

var highRiskCmd = &cobra.Command{
	Use:   "highrisk",
	Short: "List high-risk projects with recommendations",
	RunE:  runHighRisk,
}

var riskCmd = &cobra.Command{
	Use:   "risk <project-id>",
	Short: "Full KPI and risk breakdown for one project",
	Args:  cobra.ExactArgs(1),
	RunE:  runRisk,
}

func init() {
	projectsCmd.Flags().IntVarP(&flagProjectsLimit, "limit", "n", 0, "Show at most n projects")
	rootCmd.AddCommand(projectsCmd, highRiskCmd, riskCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	data, err := loadData(cmd.Context())
	if err != nil {
		return err
	}
	if len(data.ranked) == 0 {
		fmt.Println("\n  No projects found.")
		return nil
	}

	ranked := data.ranked
	if flagProjectsLimit > 0 && len(ranked) > flagProjectsLimit {
		ranked = ranked[:flagProjectsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROJECTS" + filterSuffix()))
	fmt.Println()

	rows := make([][]string, 0, len(ranked))
	for _, pr := range ranked {
		r := pr.Risk
		rows = append(rows, []string{
			pr.ProjectID,
			truncate(pr.Name, 28),
			pr.Directorate,
			string(pr.Status),
			data.money(r.ActualRevenue),
			cli.FormatPercent(r.LagPercentage),
			cli.FormatPercent(r.SlippagePercentage),
			fmt.Sprintf("%.0f", pr.Score),
			cli.RenderHighRiskFlag(r.IsHighRisk),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Directorate", "Status", "Revenue", "Lag", "Slippage", "Score", "Risk"},
		Rows:    rows,
	}))
	return nil
}

func runHighRisk(cmd *cobra.Command, _ []string) error {
	data, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	var flagged []model.ProjectRisk
	for _, pr := range data.ranked {
		if pr.Risk.IsHighRisk {
			flagged = append(flagged, pr)
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HIGH RISK  %d of %d%s", len(flagged), len(data.ranked), filterSuffix())))
	fmt.Println()

	if len(flagged) == 0 {
		fmt.Println("  No project is currently flagged as high risk.")
		return nil
	}

	for _, pr := range flagged {
		r := pr.Risk
		fmt.Printf("  %s  %s  (%s, score %.0f)\n", pr.ProjectID, pr.Name, pr.Directorate, pr.Score)
		fmt.Printf("    Lag %s %s · Slippage %s %s · Receivable %s %s · Profitability %s\n",
			cli.FormatPercent(r.LagPercentage), cli.RenderRisk(r.LagRisk),
			cli.FormatPercent(r.SlippagePercentage), cli.RenderRisk(r.SlippageRisk),
			cli.FormatPercent(r.ReceivablePercentage), cli.RenderRisk(r.ReceivableRisk),
			cli.RenderRisk(r.ProfitabilityRisk))
		for _, rec := range pipeline.Recommendations(r) {
			fmt.Printf("    • %s\n", rec)
		}
		fmt.Println()
	}
	return nil
}

func runRisk(cmd *cobra.Command, args []string) error {
	data, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	id := strings.TrimSpace(args[0])
	var (
		pr    model.ProjectRisk
		p     model.Project
		found bool
	)
	for i, cand := range data.result.Evaluated {
		if strings.EqualFold(cand.ProjectID, id) {
			pr, p, found = cand, data.result.Projects[i], true
			break
		}
	}
	if !found {
		return fmt.Errorf("project %q not found", id)
	}

	r := pr.Risk
	th := data.cfg.Thresholds

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", p.ID, truncate(p.Name, 40))))
	fmt.Println()

	progressPct := pipeline.ProgressPercentage(p, pr.KPIs)
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Directorate", p.Directorate},
			{"Category", p.Category},
			{"Status", string(p.Status)},
			{"CA Value", data.money(float64(p.CAValue))},
			{"Progress", cli.RenderProgressBar(progressPct, 20)},
			{"Ledger entries", cli.FormatNumber(int64(len(p.Progress)))},
			{"---"},
			{"Planned revenue", data.money(r.PlannedRevenue)},
			{"Actual revenue", data.money(r.ActualRevenue)},
			{"Vetted revenue", data.money(pr.KPIs.VettedRevenue)},
			{"Amount received", data.money(pr.KPIs.AmountReceived)},
			{"Expenditure", data.money(r.TotalExpenditure)},
		},
	}))
	fmt.Println()

	bandText := func(b model.Band) string {
		return fmt.Sprintf("%g / %g / %g", b.Low, b.Moderate, b.High)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Risk",
		Headers: []string{"Metric", "Value", "Percent", "Bands", "Tier"},
		Rows: [][]string{
			{"Lag", data.money(r.Lag), cli.FormatPercent(r.LagPercentage), bandText(th.Lag), cli.RenderRisk(r.LagRisk)},
			{"Scope creep", data.money(r.ScopeCreep), cli.FormatPercent(r.ScopeCreepPercentage), bandText(th.ScopeCreep), cli.RenderRisk(r.ScopeCreepRisk)},
			{"Slippage", data.money(r.Slippage), cli.FormatPercent(r.SlippagePercentage), bandText(th.Slippage), cli.RenderRisk(r.SlippageRisk)},
			{"Receivable", data.money(r.Receivable), cli.FormatPercent(r.ReceivablePercentage), bandText(th.Receivable), cli.RenderRisk(r.ReceivableRisk)},
			{"Cost variance", data.money(r.CostVariance), "", "", cli.RenderRisk(r.CostVarianceRisk)},
			{"Profitability", "", cli.FormatPercent(r.Profitability), fmt.Sprintf("plan %g%%", float64(p.PlannedProfitability)), cli.RenderRisk(r.ProfitabilityRisk)},
		},
	}))

	if p.Budget != nil {
		totals := pipeline.BudgetTotalsWithOverhead(p, data.cfg.Budget.OverheadPercent)
		v := pipeline.CompareBudget(totals, pr.KPIs)
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Budget (" + string(p.Budget.Method()) + " overhead)",
			Headers: []string{"Line", "Amount"},
			Rows: [][]string{
				{"Planned revenue", data.money(totals.TotalPlannedRevenue)},
				{"Direct cost", data.money(totals.TotalDirectCost)},
				{"Overhead", data.money(totals.TotalOverheadCost)},
				{"Planned net profit", data.money(totals.PlannedNetProfit)},
				{"---"},
				{"Spent", data.money(v.ActualCost)},
				{"Remaining", data.money(v.Variance)},
				{"Used", cli.FormatPercent(v.UsedPercent)},
			},
		}))
	}

	if history := pipeline.LedgerHistory(p); len(history) > 1 {
		revenue := make([]float64, len(history))
		for i, pt := range history {
			revenue[i] = pt.ActualRevenue
		}
		fmt.Printf("\n  Revenue trend  %s\n", cli.RenderSparkline(revenue))
	}

	fmt.Println()
	fmt.Printf("  Verdict: %s\n", cli.RenderHighRiskFlag(r.IsHighRisk))
	for _, rec := range pipeline.Recommendations(r) {
		fmt.Printf("    • %s\n", rec)
	}
	fmt.Println()
	return nil
}
